package submission

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/backend"
	"github.com/fiscaldesk/solicitacao/internal/fiscal"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
	"github.com/fiscaldesk/solicitacao/internal/workflow"
)

// MsgErroConexao is the single generic message surfaced on transport
// failure. The backend's verdict is unknown in that case, so no step is
// marked RECUSADO.
const MsgErroConexao = "Erro de conexão com o servidor"

// ErrEnvioEmAndamento is returned when an operation is triggered while
// a submission is still in flight.
var ErrEnvioEmAndamento = errors.New("envio em andamento")

// Resultado reports the outcome of a controller operation.
type Resultado struct {
	Estado       workflow.State              `json:"estado"`
	Divergencias []string                    `json:"divergencias,omitempty"`
	Erros        []string                    `json:"erros,omitempty"`
	Resposta     *fiscal.SolicitacaoResponse `json:"resposta,omitempty"`
}

// newMachine configures the submit-sequence state machine. Divergences
// hold the sequence at a decision point; a transport failure and a
// backend rejection both end in FAILED, distinguished by whether a step
// was marked RECUSADO.
func newMachine() workflow.StateMachine {
	b := workflow.NewBuilder()
	b.Configure(workflow.StateIdle).
		Permit(workflow.TriggerFlagDivergence, workflow.StateAwaitingDivergence).
		Permit(workflow.TriggerSend, workflow.StateSending)
	b.Configure(workflow.StateAwaitingDivergence).
		Permit(workflow.TriggerCorrect, workflow.StateIdle).
		Permit(workflow.TriggerOverride, workflow.StateSending)
	b.Configure(workflow.StateSending).
		Permit(workflow.TriggerAccept, workflow.StateSuccess).
		Permit(workflow.TriggerReject, workflow.StateFailed).
		Permit(workflow.TriggerFail, workflow.StateFailed)
	b.Configure(workflow.StateSuccess).
		Permit(workflow.TriggerReset, workflow.StateIdle)
	b.Configure(workflow.StateFailed).
		Permit(workflow.TriggerReset, workflow.StateIdle)
	return b.Build(workflow.StateIdle)
}

// Controller drives the submit sequence for one wizard session: it owns
// the request form, runs divergence detection and interprets the
// backend's response, writing progress back into the step store.
type Controller struct {
	store    *wizard.Store
	client   backend.Client
	validate *validator.Validate
	logger   *zap.Logger

	mu           sync.Mutex
	machine      workflow.StateMachine
	form         fiscal.PedidoForm
	divergencias []string
	erros        []string
	loading      bool
}

// NewController creates a controller bound to the session's store.
func NewController(store *wizard.Store, client backend.Client, logger *zap.Logger) *Controller {
	return &Controller{
		store:    store,
		client:   client,
		validate: validator.New(),
		logger:   logger,
		machine:  newMachine(),
		form:     fiscal.NewPedidoForm(store.XMLData()),
	}
}

// SeedForm re-seeds the form from the store's extracted document data.
// Called after ingestion delivers the XmlData.
func (c *Controller) SeedForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = fiscal.NewPedidoForm(c.store.XMLData())
}

// Form returns a copy of the current form.
func (c *Controller) Form() fiscal.PedidoForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// AtualizarForm replaces the form with user-edited values.
func (c *Controller) AtualizarForm(form fiscal.PedidoForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = form
}

// State returns the current submit-sequence state.
func (c *Controller) State() workflow.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// Loading reports whether a backend call is in flight. The flag gates
// re-entry: triggering controls stay disabled while it is set.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Divergencias returns the divergences surfaced by the last validation.
func (c *Controller) Divergencias() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.divergencias...)
}

// Erros returns the failure diagnostics of the last submission attempt.
func (c *Controller) Erros() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.erros...)
}

// Validar runs divergence detection. When divergences are found the
// sequence stops at the decision checkpoint without touching the
// backend; otherwise the submission is dispatched immediately.
func (c *Controller) Validar(ctx context.Context) (*Resultado, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrEnvioEmAndamento
	}

	divergencias := CheckDivergencias(&c.form, c.store.XMLData())
	if len(divergencias) > 0 {
		if err := c.machine.Fire(workflow.TriggerFlagDivergence); err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.divergencias = divergencias
		resultado := &Resultado{
			Estado:       c.machine.State(),
			Divergencias: append([]string(nil), divergencias...),
		}
		c.mu.Unlock()
		return resultado, nil
	}

	if err := c.machine.Fire(workflow.TriggerSend); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.loading = true
	c.mu.Unlock()

	return c.enviar(ctx), nil
}

// Corrigir abandons the divergence checkpoint so the user can edit the
// form.
func (c *Controller) Corrigir() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.Fire(workflow.TriggerCorrect); err != nil {
		return err
	}
	c.divergencias = nil
	return nil
}

// SolicitarRevisao overrides the divergence checkpoint and submits
// anyway; the backend remains the final arbiter.
func (c *Controller) SolicitarRevisao(ctx context.Context) (*Resultado, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrEnvioEmAndamento
	}
	if err := c.machine.Fire(workflow.TriggerOverride); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.loading = true
	c.mu.Unlock()

	return c.enviar(ctx), nil
}

// enviar composes the payload, performs the backend call and records
// the outcome. Callers must have transitioned the machine to SENDING
// and set the loading flag.
func (c *Controller) enviar(ctx context.Context) *Resultado {
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	c.mu.Lock()
	xml := c.store.XMLData()
	body := c.form.ToBody(xml)
	c.divergencias = nil
	c.mu.Unlock()

	if err := c.validate.Struct(&body); err != nil {
		// Structurally invalid payload: treated like a local failure,
		// not a backend rejection, so no step is marked RECUSADO.
		c.logger.Error("Solicitação payload failed validation", zap.Error(err))
		return c.falhaLocal(err.Error())
	}

	resp, err := c.client.EnviarSolicitacao(ctx, &body)
	if err != nil {
		c.logger.Error("Solicitação submission failed", zap.Error(err))
		return c.falhaLocal(MsgErroConexao)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if resp.Success && resp.Data != nil {
		c.store.SetSolicitacaoID(resp.Data.ID)
		c.store.UpdateStepStatus(c.store.CurrentStep(), wizard.StatusAprovado, "")
		_ = c.machine.Fire(workflow.TriggerAccept)
		c.erros = nil
		c.logger.Info("Solicitação created",
			zap.Int64("solicitacao_id", resp.Data.ID),
			zap.Float64("valor_total", body.ValorTotal))
		return &Resultado{Estado: c.machine.State(), Resposta: resp}
	}

	erros := append([]string(nil), resp.Errors...)
	if len(erros) == 0 && resp.Message != "" {
		erros = []string{resp.Message}
	}
	motivo := strings.Join(resp.Errors, ", ")
	if motivo == "" {
		motivo = resp.Message
	}
	c.erros = erros
	c.store.UpdateStepStatus(c.store.CurrentStep(), wizard.StatusRecusado, motivo)
	_ = c.machine.Fire(workflow.TriggerReject)
	c.logger.Warn("Solicitação rejected by backend", zap.Strings("erros", erros))
	return &Resultado{Estado: c.machine.State(), Erros: erros, Resposta: resp}
}

// falhaLocal ends the sequence in FAILED without mutating any step
// status: "we don't know" is kept distinct from "backend said no".
func (c *Controller) falhaLocal(msg string) *Resultado {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.erros = []string{msg}
	_ = c.machine.Fire(workflow.TriggerFail)
	return &Resultado{Estado: c.machine.State(), Erros: c.erros}
}

// Avancar leaves a successful submission: the next step is marked
// PENDENTE and becomes the active step.
func (c *Controller) Avancar() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine.State() != workflow.StateSuccess {
		return workflow.ErrInvalidTransition
	}
	next := c.store.CurrentStep() + 1
	c.store.UpdateStepStatus(next, wizard.StatusPendente, "")
	c.store.SetCurrentStep(next)
	return nil
}

// VoltarParaRevisao leaves a failed submission by returning focus to
// the document-review step so the user can correct the source data.
func (c *Controller) VoltarParaRevisao() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine.State() != workflow.StateFailed {
		return workflow.ErrInvalidTransition
	}
	c.store.SetCurrentStep(wizard.StepDadosXML)
	return nil
}

// Reset restores the controller for a new wizard pass. The step store
// is reset separately by the session owner.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.machine = newMachine()
	c.divergencias = nil
	c.erros = nil
	c.loading = false
	c.form = fiscal.NewPedidoForm(c.store.XMLData())
}
