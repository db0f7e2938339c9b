package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/fiscal"
	"github.com/fiscaldesk/solicitacao/internal/poller"
	"github.com/fiscaldesk/solicitacao/internal/repository"
	"github.com/fiscaldesk/solicitacao/internal/session"
	"github.com/fiscaldesk/solicitacao/internal/submission"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
	"github.com/fiscaldesk/solicitacao/internal/workflow"
)

// Response is the standard JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SessionView is the observable state of one wizard session.
type SessionView struct {
	ID            string            `json:"id"`
	Steps         []wizard.StepInfo `json:"steps"`
	CurrentStep   int               `json:"currentStep"`
	SolicitacaoID *int64            `json:"solicitacaoId,omitempty"`
	Estado        workflow.State    `json:"estado"`
	Divergencias  []string          `json:"divergencias,omitempty"`
	Erros         []string          `json:"erros,omitempty"`
	Enviando      bool              `json:"enviando"`
	Form          fiscal.PedidoForm `json:"form"`
}

// Handlers contains all HTTP request handlers.
type Handlers struct {
	sessions *session.Manager
	logRepo  *repository.SubmissionLogRepository
	logger   *zap.Logger
}

// NewHandlers creates a Handlers instance. logRepo may be nil.
func NewHandlers(sessions *session.Manager, logRepo *repository.SubmissionLogRepository, logger *zap.Logger) *Handlers {
	return &Handlers{sessions: sessions, logRepo: logRepo, logger: logger}
}

// RegisterRoutes attaches all routes to the router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.POST("/sessoes", h.CreateSession)
		api.GET("/sessoes/:id", h.GetSession)
		api.DELETE("/sessoes/:id", h.DeleteSession)
		api.POST("/sessoes/:id/xml", h.IngestXML)
		api.POST("/sessoes/:id/revisao/confirmar", h.ConfirmarRevisao)
		api.PUT("/sessoes/:id/pedido", h.AtualizarPedido)
		api.POST("/sessoes/:id/pedido/validar", h.ValidarPedido)
		api.POST("/sessoes/:id/pedido/corrigir", h.CorrigirPedido)
		api.POST("/sessoes/:id/pedido/revisar", h.SolicitarRevisao)
		api.POST("/sessoes/:id/pedido/avancar", h.AvancarPedido)
		api.POST("/sessoes/:id/pedido/voltar", h.VoltarRevisao)
		api.POST("/sessoes/:id/resultado/consultar", h.ConsultarResultado)
		api.POST("/sessoes/:id/reset", h.ResetSession)
		api.GET("/sessoes/:id/historico", h.Historico)
	}
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"status":  "healthy",
		"service": "solicitacao-wizard",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}})
}

// CreateSession handles POST /api/v1/sessoes.
func (h *Handlers) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, Response{Success: true, Data: h.view(s)})
}

// GetSession handles GET /api/v1/sessoes/:id.
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(s)})
}

// DeleteSession handles DELETE /api/v1/sessoes/:id.
func (h *Handlers) DeleteSession(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	h.sessions.Delete(c.Param("id"))
	c.JSON(http.StatusOK, Response{Success: true})
}

// IngestXML handles POST /api/v1/sessoes/:id/xml. It receives the
// output of the external document-ingestion step, caches it, seeds the
// form and moves the wizard to the review step.
func (h *Handlers) IngestXML(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var xml fiscal.XmlData
	if err := c.ShouldBindJSON(&xml); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid XML data payload"})
		return
	}

	s.Store.SetXMLData(&xml)
	s.Controller.SeedForm()
	s.Store.UpdateStepStatus(wizard.StepUpload, wizard.StatusAprovado, "")
	s.Store.SetCurrentStep(wizard.StepDadosXML)

	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(s)})
}

// ConfirmarRevisao handles POST /api/v1/sessoes/:id/revisao/confirmar.
func (h *Handlers) ConfirmarRevisao(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if s.Store.XMLData() == nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "no fiscal document ingested"})
		return
	}

	s.Store.UpdateStepStatus(wizard.StepDadosXML, wizard.StatusAprovado, "")
	s.Store.SetCurrentStep(wizard.StepDadosPedido)
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(s)})
}

// AtualizarPedido handles PUT /api/v1/sessoes/:id/pedido.
func (h *Handlers) AtualizarPedido(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var form fiscal.PedidoForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid form payload"})
		return
	}

	s.Controller.AtualizarForm(form)
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(s)})
}

// ValidarPedido handles POST /api/v1/sessoes/:id/pedido/validar: runs
// divergence detection and, when the form is clean, submits
// immediately.
func (h *Handlers) ValidarPedido(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	resultado, err := s.Controller.Validar(c.Request.Context())
	if err != nil {
		h.controllerError(c, err)
		return
	}

	h.logEnvio(s, resultado)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"resultado": resultado,
		"sessao":    h.view(s),
	}})
}

// CorrigirPedido handles POST /api/v1/sessoes/:id/pedido/corrigir.
func (h *Handlers) CorrigirPedido(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Controller.Corrigir(); err != nil {
		h.controllerError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(s)})
}

// SolicitarRevisao handles POST /api/v1/sessoes/:id/pedido/revisar:
// the user overrides the divergences and submits anyway.
func (h *Handlers) SolicitarRevisao(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	resultado, err := s.Controller.SolicitarRevisao(c.Request.Context())
	if err != nil {
		h.controllerError(c, err)
		return
	}

	h.logEnvio(s, resultado)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"resultado": resultado,
		"sessao":    h.view(s),
	}})
}

// AvancarPedido handles POST /api/v1/sessoes/:id/pedido/avancar.
func (h *Handlers) AvancarPedido(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Controller.Avancar(); err != nil {
		h.controllerError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(s)})
}

// VoltarRevisao handles POST /api/v1/sessoes/:id/pedido/voltar.
func (h *Handlers) VoltarRevisao(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Controller.VoltarParaRevisao(); err != nil {
		h.controllerError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(s)})
}

// ConsultarResultado handles POST /api/v1/sessoes/:id/resultado/consultar.
func (h *Handlers) ConsultarResultado(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	resp, err := s.Poller.Consultar(c.Request.Context())
	h.logConsulta(s, resp, err)
	if err != nil {
		if errors.Is(err, poller.ErrSemSolicitacao) {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: poller.MsgErroConsulta})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"resultado": resp,
		"sessao":    h.view(s),
	}})
}

// ResetSession handles POST /api/v1/sessoes/:id/reset.
func (h *Handlers) ResetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Reset()
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(s)})
}

// Historico handles GET /api/v1/sessoes/:id/historico.
func (h *Handlers) Historico(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if h.logRepo == nil {
		c.JSON(http.StatusOK, Response{Success: true, Data: []interface{}{}})
		return
	}

	entries, err := h.logRepo.ListBySession(s.ID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	s, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "session not found"})
		return nil, false
	}
	return s, true
}

func (h *Handlers) view(s *session.Session) SessionView {
	snap := s.Store.Snapshot()
	return SessionView{
		ID:            s.ID,
		Steps:         snap.Steps,
		CurrentStep:   snap.CurrentStep,
		SolicitacaoID: snap.SolicitacaoID,
		Estado:        s.Controller.State(),
		Divergencias:  s.Controller.Divergencias(),
		Erros:         s.Controller.Erros(),
		Enviando:      s.Controller.Loading(),
		Form:          s.Controller.Form(),
	}
}

func (h *Handlers) controllerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, submission.ErrEnvioEmAndamento):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
	}
}

// logEnvio records a submission attempt in the audit log. Divergence
// checkpoints are not logged; only settled backend outcomes are.
func (h *Handlers) logEnvio(s *session.Session, resultado *submission.Resultado) {
	if h.logRepo == nil || resultado == nil || !resultado.Estado.IsTerminal() {
		return
	}

	entry := &repository.SubmissionLog{
		SessionID:  s.ID,
		Evento:     repository.EventoEnvio,
		Detalhes:   strings.Join(resultado.Erros, "; "),
		ValorTotal: s.Controller.Form().ValorTotal,
	}
	switch {
	case resultado.Estado == workflow.StateSuccess:
		entry.Resultado = repository.ResultadoSucesso
		if resultado.Resposta != nil && resultado.Resposta.Data != nil {
			id := resultado.Resposta.Data.ID
			entry.SolicitacaoID = &id
		}
	case resultado.Resposta != nil:
		entry.Resultado = repository.ResultadoRecusado
	default:
		entry.Resultado = repository.ResultadoErroConexao
	}

	if err := h.logRepo.Create(entry); err != nil {
		h.logger.Warn("Failed to record submission log entry", zap.Error(err))
	}
}

// logConsulta records a poll outcome in the audit log.
func (h *Handlers) logConsulta(s *session.Session, resp *fiscal.SolicitacaoDetailResponse, pollErr error) {
	if h.logRepo == nil {
		return
	}
	if pollErr != nil && errors.Is(pollErr, poller.ErrSemSolicitacao) {
		return
	}

	entry := &repository.SubmissionLog{
		SessionID: s.ID,
		Evento:    repository.EventoConsulta,
	}
	if id, ok := s.Store.SolicitacaoID(); ok {
		entry.SolicitacaoID = &id
	}

	switch {
	case pollErr != nil:
		entry.Resultado = repository.ResultadoErroConexao
	case resp != nil && resp.Success && (resp.Data == nil || resp.Data.Status != fiscal.StatusErro):
		entry.Resultado = repository.ResultadoSucesso
	default:
		entry.Resultado = repository.ResultadoRecusado
		if resp != nil && resp.Data != nil {
			entry.Detalhes = resp.Data.Erros
		}
	}

	if err := h.logRepo.Create(entry); err != nil {
		h.logger.Warn("Failed to record poll log entry", zap.Error(err))
	}
}
