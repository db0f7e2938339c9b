package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/fiscal"
	"github.com/fiscaldesk/solicitacao/internal/session"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
	"github.com/fiscaldesk/solicitacao/internal/workflow"
)

type mockClient struct {
	enviarFunc    func(ctx context.Context, body *fiscal.SolicitacaoBody) (*fiscal.SolicitacaoResponse, error)
	consultarFunc func(ctx context.Context, id int64) (*fiscal.SolicitacaoDetailResponse, error)
}

func (m *mockClient) EnviarSolicitacao(ctx context.Context, body *fiscal.SolicitacaoBody) (*fiscal.SolicitacaoResponse, error) {
	if m.enviarFunc != nil {
		return m.enviarFunc(ctx, body)
	}
	return &fiscal.SolicitacaoResponse{Success: true, Data: &fiscal.SolicitacaoResumo{ID: 42}}, nil
}

func (m *mockClient) ConsultarSolicitacao(ctx context.Context, id int64) (*fiscal.SolicitacaoDetailResponse, error) {
	if m.consultarFunc != nil {
		return m.consultarFunc(ctx, id)
	}
	return &fiscal.SolicitacaoDetailResponse{
		Success: true,
		Data:    &fiscal.SolicitacaoDetalhe{ID: id, Status: "Aprovado"},
	}, nil
}

func setupRouter(client *mockClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	sessions := session.NewManager(client, zap.NewNop())
	NewHandlers(sessions, nil, zap.NewNop()).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, raw json.RawMessage) SessionView {
	t.Helper()
	var view SessionView
	require.NoError(t, json.Unmarshal(raw, &view))
	return view
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/sessoes", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeSession(t, decode(t, w).Data)
	require.NotEmpty(t, view.ID)
	return view.ID
}

func sampleXML() fiscal.XmlData {
	return fiscal.XmlData{
		ID:              "doc-1",
		ChaveAcesso:     "35230111222333000144550010000000011000000017",
		DataEmissao:     "2023-01-15T10:00:00Z",
		CnpjCpfEmitente: "11222333000144",
		ValorTotal:      150,
	}
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(&mockClient{})

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestCreateAndGetSession(t *testing.T) {
	router := setupRouter(&mockClient{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sessoes/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	view := decodeSession(t, decode(t, w).Data)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, wizard.StepUpload, view.CurrentStep)
	assert.Equal(t, workflow.StateIdle, view.Estado)
	require.Len(t, view.Steps, 4)
	for _, step := range view.Steps {
		assert.Equal(t, wizard.StatusPendente, step.Status)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	router := setupRouter(&mockClient{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/sessoes/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSession(t *testing.T) {
	router := setupRouter(&mockClient{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/sessoes/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/sessoes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngestXML(t *testing.T) {
	router := setupRouter(&mockClient{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessoes/"+id+"/xml", sampleXML())
	require.Equal(t, http.StatusOK, w.Code)

	view := decodeSession(t, decode(t, w).Data)
	assert.Equal(t, wizard.StatusAprovado, view.Steps[wizard.StepUpload].Status)
	assert.Equal(t, wizard.StepDadosXML, view.CurrentStep)
	assert.Equal(t, float64(150), view.Form.ValorTotal)
	assert.Equal(t, "11222333000144", view.Form.CnpjEmissor)
}

func TestConfirmarRevisaoWithoutXML(t *testing.T) {
	router := setupRouter(&mockClient{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessoes/"+id+"/revisao/confirmar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFullWizardWalkthrough(t *testing.T) {
	client := &mockClient{
		consultarFunc: func(ctx context.Context, id int64) (*fiscal.SolicitacaoDetailResponse, error) {
			return &fiscal.SolicitacaoDetailResponse{
				Success: true,
				Data:    &fiscal.SolicitacaoDetalhe{ID: id, Status: "Aprovado", ValorTotal: 150},
			}, nil
		},
	}
	router := setupRouter(client)
	id := createSession(t, router)
	base := "/api/v1/sessoes/" + id

	// Upload step.
	w := doJSON(t, router, http.MethodPost, base+"/xml", sampleXML())
	require.Equal(t, http.StatusOK, w.Code)

	// Review step.
	w = doJSON(t, router, http.MethodPost, base+"/revisao/confirmar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeSession(t, decode(t, w).Data)
	require.Equal(t, wizard.StepDadosPedido, view.CurrentStep)

	// Order step: validate and submit.
	w = doJSON(t, router, http.MethodPost, base+"/pedido/validar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Sessao SessionView `json:"sessao"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &payload))
	assert.Equal(t, workflow.StateSuccess, payload.Sessao.Estado)
	require.NotNil(t, payload.Sessao.SolicitacaoID)
	assert.Equal(t, int64(42), *payload.Sessao.SolicitacaoID)
	assert.Equal(t, wizard.StatusAprovado, payload.Sessao.Steps[wizard.StepDadosPedido].Status)

	// Advance to the result step.
	w = doJSON(t, router, http.MethodPost, base+"/pedido/avancar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeSession(t, decode(t, w).Data)
	require.Equal(t, wizard.StepResultado, view.CurrentStep)

	// Poll the outcome.
	w = doJSON(t, router, http.MethodPost, base+"/resultado/consultar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &payload))
	assert.Equal(t, wizard.StatusAprovado, payload.Sessao.Steps[wizard.StepResultado].Status)
}

func TestValidarPedidoDivergence(t *testing.T) {
	enviarCalled := false
	client := &mockClient{
		enviarFunc: func(ctx context.Context, body *fiscal.SolicitacaoBody) (*fiscal.SolicitacaoResponse, error) {
			enviarCalled = true
			return &fiscal.SolicitacaoResponse{Success: true, Data: &fiscal.SolicitacaoResumo{ID: 1}}, nil
		},
	}
	router := setupRouter(client)
	id := createSession(t, router)
	base := "/api/v1/sessoes/" + id

	doJSON(t, router, http.MethodPost, base+"/xml", sampleXML())
	doJSON(t, router, http.MethodPost, base+"/revisao/confirmar", nil)

	// Edit the form to a divergent total.
	w := doJSON(t, router, http.MethodGet, base, nil)
	view := decodeSession(t, decode(t, w).Data)
	form := view.Form
	form.ValorTotal = 100
	w = doJSON(t, router, http.MethodPut, base+"/pedido", form)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, base+"/pedido/validar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Sessao SessionView `json:"sessao"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &payload))
	assert.Equal(t, workflow.StateAwaitingDivergence, payload.Sessao.Estado)
	assert.Equal(t, []string{
		"Valor Total divergente: Formulário R$ 100 ≠ XML R$ 150",
	}, payload.Sessao.Divergencias)
	assert.False(t, enviarCalled, "no submission before the divergence decision")

	// Override and submit anyway.
	w = doJSON(t, router, http.MethodPost, base+"/pedido/revisar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &payload))
	assert.Equal(t, workflow.StateSuccess, payload.Sessao.Estado)
	assert.True(t, enviarCalled)
}

func TestValidarPedidoBackendRejection(t *testing.T) {
	client := &mockClient{
		enviarFunc: func(ctx context.Context, body *fiscal.SolicitacaoBody) (*fiscal.SolicitacaoResponse, error) {
			return &fiscal.SolicitacaoResponse{Success: false, Errors: []string{"CPF inválido"}}, nil
		},
	}
	router := setupRouter(client)
	id := createSession(t, router)
	base := "/api/v1/sessoes/" + id

	doJSON(t, router, http.MethodPost, base+"/xml", sampleXML())
	doJSON(t, router, http.MethodPost, base+"/revisao/confirmar", nil)

	w := doJSON(t, router, http.MethodPost, base+"/pedido/validar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Sessao SessionView `json:"sessao"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &payload))
	assert.Equal(t, workflow.StateFailed, payload.Sessao.Estado)
	assert.Equal(t, []string{"CPF inválido"}, payload.Sessao.Erros)

	step := payload.Sessao.Steps[wizard.StepDadosPedido]
	assert.Equal(t, wizard.StatusRecusado, step.Status)
	assert.Equal(t, "CPF inválido", step.Motivo)

	// The failure exit returns to the review step.
	w = doJSON(t, router, http.MethodPost, base+"/pedido/voltar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeSession(t, decode(t, w).Data)
	assert.Equal(t, wizard.StepDadosXML, view.CurrentStep)
}

func TestAvancarWithoutSuccessConflicts(t *testing.T) {
	router := setupRouter(&mockClient{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessoes/"+id+"/pedido/avancar", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConsultarResultadoWithoutSolicitacao(t *testing.T) {
	router := setupRouter(&mockClient{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessoes/"+id+"/resultado/consultar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsultarResultadoTransportFailure(t *testing.T) {
	client := &mockClient{
		consultarFunc: func(ctx context.Context, id int64) (*fiscal.SolicitacaoDetailResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	router := setupRouter(client)
	id := createSession(t, router)
	base := "/api/v1/sessoes/" + id

	doJSON(t, router, http.MethodPost, base+"/xml", sampleXML())
	doJSON(t, router, http.MethodPost, base+"/revisao/confirmar", nil)
	doJSON(t, router, http.MethodPost, base+"/pedido/validar", nil)

	w := doJSON(t, router, http.MethodPost, base+"/resultado/consultar", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Não foi possível consultar a solicitação.", decode(t, w).Error)
}

func TestResetSession(t *testing.T) {
	router := setupRouter(&mockClient{})
	id := createSession(t, router)
	base := "/api/v1/sessoes/" + id

	doJSON(t, router, http.MethodPost, base+"/xml", sampleXML())
	doJSON(t, router, http.MethodPost, base+"/revisao/confirmar", nil)
	doJSON(t, router, http.MethodPost, base+"/pedido/validar", nil)

	w := doJSON(t, router, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	view := decodeSession(t, decode(t, w).Data)
	assert.Equal(t, wizard.StepUpload, view.CurrentStep)
	assert.Equal(t, workflow.StateIdle, view.Estado)
	assert.Nil(t, view.SolicitacaoID)
	for _, step := range view.Steps {
		assert.Equal(t, wizard.StatusPendente, step.Status)
	}
}

func TestHistoricoWithoutAuditLog(t *testing.T) {
	router := setupRouter(&mockClient{})
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sessoes/"+id+"/historico", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}
