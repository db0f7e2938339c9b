package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fiscaldesk/solicitacao/internal/fiscal"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
	"github.com/fiscaldesk/solicitacao/internal/workflow"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(20)
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badgePendente = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("○")
	badgeAprovado = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("✓")
	badgeRecusado = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
)

// View implements tea.Model.
func (m Model) View() string {
	if m.sair {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Solicitação Fiscal"))
	b.WriteString("\n\n")
	b.WriteString(m.renderSteps())
	b.WriteString("\n\n")

	switch m.store.CurrentStep() {
	case wizard.StepDadosXML:
		b.WriteString(m.renderRevisao())
	case wizard.StepDadosPedido:
		b.WriteString(m.renderPedido())
	case wizard.StepResultado:
		b.WriteString(m.renderResultado())
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(m.errMsg))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderSteps() string {
	parts := make([]string, 0, 4)
	for i, step := range m.store.Steps() {
		badge := badgePendente
		switch step.Status {
		case wizard.StatusAprovado:
			badge = badgeAprovado
		case wizard.StatusRecusado:
			badge = badgeRecusado
		}
		label := step.Label
		if i == m.store.CurrentStep() {
			label = focusedStyle.Render(label)
		}
		parts = append(parts, fmt.Sprintf("%s %s", badge, label))
	}
	return strings.Join(parts, "   ")
}

func (m Model) renderRevisao() string {
	xml := m.store.XMLData()
	if xml == nil {
		return errStyle.Render("Nenhum XML carregado.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Dados do XML"))
	b.WriteString("\n\n")
	linha := func(label, valor string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valor)
		b.WriteString("\n")
	}
	linha("Emitente", xml.NomeEmitente)
	linha("CNPJ Emitente", xml.CnpjCpfEmitente)
	linha("Chave de Acesso", xml.ChaveAcesso)
	linha("Data de Emissão", fiscal.FormatData(xml.DataEmissao))
	linha("Valor Total", fiscal.FormatBRL(xml.ValorTotal))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: confirmar dados   q: sair"))
	return b.String()
}

func (m Model) renderPedido() string {
	switch m.ctrl.State() {
	case workflow.StateAwaitingDivergence:
		return m.renderDivergencias()
	case workflow.StateSending:
		return fmt.Sprintf("%s Solicitação enviada. Aguardando processamento...", m.spin.View())
	case workflow.StateSuccess:
		return okStyle.Render("Validação Concluída. Pedido enviado com sucesso!") + "\n\n" +
			helpStyle.Render("enter: conferir resultado da solicitação")
	case workflow.StateFailed:
		var b strings.Builder
		b.WriteString(errStyle.Render("Erro na Validação"))
		b.WriteString("\n\n")
		for _, e := range m.ctrl.Erros() {
			b.WriteString(errStyle.Render("• " + e))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: voltar aos dados do XML"))
		return b.String()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Dados do Pedido"))
	b.WriteString("\n\n")
	for i, campo := range m.campos {
		label := labelStyle.Render(campo.label)
		if i == m.focus {
			label = focusedStyle.Render(lipgloss.NewStyle().Width(20).Render(campo.label))
		}
		b.WriteString(fmt.Sprintf("%s%s\n", label, m.inputs[i].View()))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: próximo campo   enter: validar pedido   esc: voltar"))
	return b.String()
}

func (m Model) renderDivergencias() string {
	var b strings.Builder
	b.WriteString(warnStyle.Render("Divergências Encontradas"))
	b.WriteString("\n")
	b.WriteString("Foram encontradas divergências entre os dados preenchidos e o XML.\n\n")
	for _, d := range m.ctrl.Divergencias() {
		b.WriteString(warnStyle.Render("• " + d))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("c: corrigir   r: solicitar revisão"))
	return b.String()
}

func (m Model) renderResultado() string {
	id, _ := m.store.SolicitacaoID()

	if m.detail == nil {
		var b strings.Builder
		b.WriteString(okStyle.Render("Pedido enviado com sucesso"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("ID da solicitação: %d\n\n", id))
		b.WriteString(helpStyle.Render("c: conferir resultado   n: nova solicitação   q: sair"))
		return b.String()
	}

	detalhe := m.detail.Data
	isErro := !m.detail.Success || (detalhe != nil && detalhe.Status == fiscal.StatusErro)

	var b strings.Builder
	if isErro {
		b.WriteString(errStyle.Render("Erros na Solicitação"))
		b.WriteString("\n\n")
		if detalhe != nil {
			b.WriteString(fmt.Sprintf("Status: %s\n", detalhe.Status))
			if detalhe.Erros != "" {
				b.WriteString(errStyle.Render(detalhe.Erros))
				b.WriteString("\n")
			}
		}
		for _, e := range m.detail.Errors {
			b.WriteString(errStyle.Render("• " + e))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(okStyle.Render("Solicitação Aprovada"))
		b.WriteString("\n\n")
		if detalhe != nil {
			b.WriteString(fmt.Sprintf("Status: %s\n", detalhe.Status))
			b.WriteString(fmt.Sprintf("Pedido #%d\n", detalhe.NumeroPedido))
			b.WriteString(fmt.Sprintf("Valor: %s\n", fiscal.FormatBRL(detalhe.ValorTotal)))
			b.WriteString(fmt.Sprintf("Criado em: %s\n", fiscal.FormatData(detalhe.DataCriacao)))
		}
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("n: nova solicitação   q: sair"))
	return b.String()
}
