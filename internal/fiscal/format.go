package fiscal

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders a monetary value in Brazilian currency notation.
func FormatBRL(valor float64) string {
	return ptBR.Sprintf("R$ %.2f", valor)
}

// FormatData renders a backend date (RFC 3339 or plain date) as
// dd/mm/yyyy. Unparseable input is returned unchanged.
func FormatData(data string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, data); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return data
}
