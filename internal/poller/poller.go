// Package poller queries the backend for the outcome of a submitted
// solicitação and classifies the response into approved, rejected or
// unreachable, updating the result step accordingly.
package poller

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/backend"
	"github.com/fiscaldesk/solicitacao/internal/fiscal"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
)

// MsgErroConsulta is surfaced when the backend cannot be reached. The
// solicitação may still be pending, so the step status is not touched.
const MsgErroConsulta = "Não foi possível consultar a solicitação."

var (
	// ErrSemSolicitacao is returned when polling is attempted before a
	// solicitação id has been recorded.
	ErrSemSolicitacao = errors.New("nenhuma solicitação registrada para consulta")

	// ErrConsultaIndisponivel wraps transport failures of the
	// detail-query call.
	ErrConsultaIndisponivel = errors.New(MsgErroConsulta)
)

// Poller performs on-demand status queries for one wizard session.
type Poller struct {
	store  *wizard.Store
	client backend.Client
	logger *zap.Logger
}

// New creates a poller bound to the session's store.
func New(store *wizard.Store, client backend.Client, logger *zap.Logger) *Poller {
	return &Poller{store: store, client: client, logger: logger}
}

// Consultar queries the backend for the recorded solicitação and
// updates the result step. The backend may report transport success
// with an internal error status; both success=false and status "Erro"
// are error outcomes. Transport failures return
// ErrConsultaIndisponivel without mutating any step.
func (p *Poller) Consultar(ctx context.Context) (*fiscal.SolicitacaoDetailResponse, error) {
	id, ok := p.store.SolicitacaoID()
	if !ok {
		return nil, ErrSemSolicitacao
	}

	resp, err := p.client.ConsultarSolicitacao(ctx, id)
	if err != nil {
		p.logger.Warn("Detail query unreachable",
			zap.Int64("solicitacao_id", id), zap.Error(err))
		return nil, ErrConsultaIndisponivel
	}

	if isErro(resp) {
		motivo := motivoDe(resp)
		p.store.UpdateStepStatus(wizard.StepResultado, wizard.StatusRecusado, motivo)
		p.logger.Info("Solicitação rejected",
			zap.Int64("solicitacao_id", id), zap.String("motivo", motivo))
		return resp, nil
	}

	p.store.UpdateStepStatus(wizard.StepResultado, wizard.StatusAprovado, "")
	p.logger.Info("Solicitação approved", zap.Int64("solicitacao_id", id))
	return resp, nil
}

// isErro classifies the detail response. Approved status tags are
// backend-defined and treated as opaque: anything that is not "Erro"
// with success=true counts as approved.
func isErro(resp *fiscal.SolicitacaoDetailResponse) bool {
	if !resp.Success {
		return true
	}
	return resp.Data != nil && resp.Data.Status == fiscal.StatusErro
}

// motivoDe picks the most specific diagnostic available: the detail
// record's free-text error field, then the envelope's error list.
func motivoDe(resp *fiscal.SolicitacaoDetailResponse) string {
	if resp.Data != nil && resp.Data.Erros != "" {
		return resp.Data.Erros
	}
	return strings.Join(resp.Errors, ", ")
}
