// Package submission owns the request form and drives the submit
// sequence: divergence detection, the divergence decision checkpoint,
// the backend call and the interpretation of its outcome.
package submission

import (
	"fmt"
	"strconv"

	"github.com/fiscaldesk/solicitacao/internal/fiscal"
)

// CheckDivergencias compares the form against the extracted document
// and returns human-readable descriptions of every mismatch, in check
// order. An empty result means no divergence. Only the total value and
// the issuer CNPJ are compared; the CNPJ check is skipped while the
// form field is empty. A nil document disables detection entirely.
func CheckDivergencias(form *fiscal.PedidoForm, xml *fiscal.XmlData) []string {
	if xml == nil {
		return nil
	}

	var divergencias []string

	if form.ValorTotal != xml.ValorTotal {
		divergencias = append(divergencias, fmt.Sprintf(
			"Valor Total divergente: Formulário R$ %s ≠ XML R$ %s",
			formatValor(form.ValorTotal), formatValor(xml.ValorTotal)))
	}

	if form.CnpjEmissor != "" && form.CnpjEmissor != xml.CnpjCpfEmitente {
		divergencias = append(divergencias, fmt.Sprintf(
			"CNPJ Emissor divergente: %s ≠ %s",
			form.CnpjEmissor, xml.CnpjCpfEmitente))
	}

	return divergencias
}

// formatValor prints a value without trailing zeros, matching how the
// amounts appear in the form.
func formatValor(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
