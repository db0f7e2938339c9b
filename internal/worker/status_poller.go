// Package worker contains background workers. StatusPoller re-runs the
// on-demand status query on a ticker until the solicitação reaches a
// terminal outcome, for deployments where the user should not have to
// press "consultar" repeatedly.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/poller"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
)

// StatusPoller periodically polls the backend for one session until the
// result step leaves PENDENTE.
type StatusPoller struct {
	poller   *poller.Poller
	store    *wizard.Store
	logger   *zap.Logger
	interval time.Duration

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewStatusPoller creates a background poller. A non-positive interval
// falls back to 30 seconds.
func NewStatusPoller(p *poller.Poller, store *wizard.Store, logger *zap.Logger, interval time.Duration) *StatusPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StatusPoller{
		poller:   p,
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// Start launches the polling loop. It returns an error if the poller is
// already running.
func (p *StatusPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("status poller is already running")
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.isRunning = true

	p.logger.Info("StatusPoller started", zap.Duration("interval", p.interval))
	go p.loop(ctx)

	return nil
}

// Stop cancels the polling loop.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return
	}
	p.isRunning = false
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("StatusPoller stopped")
}

// Name identifies the worker.
func (p *StatusPoller) Name() string {
	return "StatusPoller"
}

func (p *StatusPoller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Poll immediately on start.
	if done := p.pollOnce(ctx); done {
		p.Stop()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := p.pollOnce(ctx); done {
				p.Stop()
				return
			}
		}
	}
}

// pollOnce runs one query and reports whether polling should stop.
// Transport failures keep the loop alive; the next tick retries.
func (p *StatusPoller) pollOnce(ctx context.Context) bool {
	_, err := p.poller.Consultar(ctx)
	if err != nil {
		if errors.Is(err, poller.ErrSemSolicitacao) {
			p.logger.Debug("No solicitação recorded yet, skipping poll")
			return false
		}
		p.logger.Warn("Poll attempt failed", zap.Error(err))
		return false
	}

	status := p.store.Steps()[wizard.StepResultado].Status
	return status != wizard.StatusPendente
}
