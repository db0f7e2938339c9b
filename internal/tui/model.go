// Package tui implements the interactive terminal wizard. It is a pure
// client of the wizard core: every key press maps to the same store,
// controller and poller operations the HTTP API exposes.
package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fiscaldesk/solicitacao/internal/fiscal"
	"github.com/fiscaldesk/solicitacao/internal/poller"
	"github.com/fiscaldesk/solicitacao/internal/submission"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
	"github.com/fiscaldesk/solicitacao/internal/workflow"
)

const callTimeout = 60 * time.Second

type envioMsg struct {
	resultado *submission.Resultado
	err       error
}

type consultaMsg struct {
	resp *fiscal.SolicitacaoDetailResponse
	err  error
}

type campo struct {
	label   string
	get     func(f *fiscal.PedidoForm) string
	set     func(f *fiscal.PedidoForm, v string)
	numeric bool
}

func campos() []campo {
	return []campo{
		{label: "Código Pessoa",
			get: func(f *fiscal.PedidoForm) string { return f.CodigoPessoa },
			set: func(f *fiscal.PedidoForm, v string) { f.CodigoPessoa = v }},
		{label: "ID Conta Bancária",
			get: func(f *fiscal.PedidoForm) string { return f.IDContaBancaria },
			set: func(f *fiscal.PedidoForm, v string) { f.IDContaBancaria = v }},
		{label: "CPF Beneficiário",
			get: func(f *fiscal.PedidoForm) string { return f.CPFBeneficiario },
			set: func(f *fiscal.PedidoForm, v string) { f.CPFBeneficiario = v }},
		{label: "Código Emissor",
			get: func(f *fiscal.PedidoForm) string { return f.CodigoEmissor },
			set: func(f *fiscal.PedidoForm, v string) { f.CodigoEmissor = v }},
		{label: "CNPJ Emissor",
			get: func(f *fiscal.PedidoForm) string { return f.CnpjEmissor },
			set: func(f *fiscal.PedidoForm, v string) { f.CnpjEmissor = v }},
		{label: "Código CNAE",
			get: func(f *fiscal.PedidoForm) string { return f.CodigoCnaeEmissor },
			set: func(f *fiscal.PedidoForm, v string) { f.CodigoCnaeEmissor = v }},
		{label: "Código Projeto",
			get: func(f *fiscal.PedidoForm) string { return f.CodigoProjeto },
			set: func(f *fiscal.PedidoForm, v string) { f.CodigoProjeto = v }},
		{label: "Sub Projeto", numeric: true,
			get: func(f *fiscal.PedidoForm) string { return strconv.Itoa(f.SubProjeto) },
			set: func(f *fiscal.PedidoForm, v string) { f.SubProjeto, _ = strconv.Atoi(v) }},
		{label: "Rubrica",
			get: func(f *fiscal.PedidoForm) string { return f.Rubrica },
			set: func(f *fiscal.PedidoForm, v string) { f.Rubrica = v }},
		{label: "Conta Razão",
			get: func(f *fiscal.PedidoForm) string { return f.ContaRazao },
			set: func(f *fiscal.PedidoForm, v string) { f.ContaRazao = v }},
		{label: "Centro de Custo",
			get: func(f *fiscal.PedidoForm) string { return f.CentroDeCusto },
			set: func(f *fiscal.PedidoForm, v string) { f.CentroDeCusto = v }},
		{label: "Valor Total", numeric: true,
			get: func(f *fiscal.PedidoForm) string { return strconv.FormatFloat(f.ValorTotal, 'f', -1, 64) },
			set: func(f *fiscal.PedidoForm, v string) { f.ValorTotal, _ = strconv.ParseFloat(v, 64) }},
		{label: "Número Pedido", numeric: true,
			get: func(f *fiscal.PedidoForm) string { return strconv.Itoa(f.NumeroPedido) },
			set: func(f *fiscal.PedidoForm, v string) { f.NumeroPedido, _ = strconv.Atoi(v) }},
		{label: "Justificativa",
			get: func(f *fiscal.PedidoForm) string { return f.Justificativa },
			set: func(f *fiscal.PedidoForm, v string) { f.Justificativa = v }},
	}
}

// Model is the bubbletea model for the wizard.
type Model struct {
	store  *wizard.Store
	ctrl   *submission.Controller
	poller *poller.Poller

	campos []campo
	inputs []textinput.Model
	focus  int
	spin   spinner.Model
	detail *fiscal.SolicitacaoDetailResponse
	errMsg string
	width  int
	sair   bool
}

// New creates the wizard model. The store must already hold the
// ingested XmlData; the upload step is marked done here because the
// ingestion happened before the TUI started.
func New(store *wizard.Store, ctrl *submission.Controller, p *poller.Poller) Model {
	store.UpdateStepStatus(wizard.StepUpload, wizard.StatusAprovado, "")
	store.SetCurrentStep(wizard.StepDadosXML)

	cs := campos()
	form := ctrl.Form()
	inputs := make([]textinput.Model, len(cs))
	for i, campo := range cs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 120
		ti.SetValue(campo.get(&form))
		inputs[i] = ti
	}
	inputs[0].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		store:  store,
		ctrl:   ctrl,
		poller: p,
		campos: cs,
		inputs: inputs,
		spin:   sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Loading() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case envioMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.errMsg = ""
		}
		return m, nil

	case consultaMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.errMsg = ""
			m.detail = msg.resp
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.sair = true
		return m, tea.Quit
	}
	if m.ctrl.Loading() {
		// The triggering controls stay disabled while a call is in
		// flight.
		return m, nil
	}

	switch m.store.CurrentStep() {
	case wizard.StepDadosXML:
		return m.handleRevisaoKey(msg)
	case wizard.StepDadosPedido:
		return m.handlePedidoKey(msg)
	case wizard.StepResultado:
		return m.handleResultadoKey(msg)
	}
	return m, nil
}

func (m Model) handleRevisaoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.sair = true
		return m, tea.Quit
	case "enter":
		m.store.UpdateStepStatus(wizard.StepDadosXML, wizard.StatusAprovado, "")
		m.store.SetCurrentStep(wizard.StepDadosPedido)
		return m, nil
	}
	return m, nil
}

func (m Model) handlePedidoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.ctrl.State() {
	case workflow.StateAwaitingDivergence:
		switch msg.String() {
		case "c":
			_ = m.ctrl.Corrigir()
			return m, nil
		case "r":
			return m, tea.Batch(m.spin.Tick, m.revisarCmd())
		}
		return m, nil

	case workflow.StateSuccess:
		if msg.String() == "enter" {
			if err := m.ctrl.Avancar(); err == nil {
				m.detail = nil
			}
		}
		return m, nil

	case workflow.StateFailed:
		if msg.String() == "enter" {
			_ = m.ctrl.VoltarParaRevisao()
		}
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		return m.moveFocus(1), nil
	case "shift+tab", "up":
		return m.moveFocus(-1), nil
	case "enter":
		m.syncForm()
		return m, tea.Batch(m.spin.Tick, m.validarCmd())
	case "esc":
		m.store.SetCurrentStep(wizard.StepDadosXML)
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleResultadoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.sair = true
		return m, tea.Quit
	case "c":
		return m, tea.Batch(m.spin.Tick, m.consultarCmd())
	case "n":
		m.store.ResetAll()
		m.ctrl.Reset()
		m.detail = nil
		m.errMsg = ""
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) moveFocus(delta int) Model {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
	return m
}

// syncForm copies the input values into the controller's form.
func (m Model) syncForm() {
	form := m.ctrl.Form()
	for i, campo := range m.campos {
		campo.set(&form, strings.TrimSpace(m.inputs[i].Value()))
	}
	m.ctrl.AtualizarForm(form)
}

func (m Model) validarCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		resultado, err := m.ctrl.Validar(ctx)
		return envioMsg{resultado: resultado, err: err}
	}
}

func (m Model) revisarCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		resultado, err := m.ctrl.SolicitarRevisao(ctx)
		return envioMsg{resultado: resultado, err: err}
	}
}

func (m Model) consultarCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		resp, err := m.poller.Consultar(ctx)
		return consultaMsg{resp: resp, err: err}
	}
}
