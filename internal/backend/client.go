// Package backend is the HTTP client for the solicitação service. It
// distinguishes transport failures (returned as errors) from semantic
// failures (success=false envelopes, returned decoded): the caller must
// treat the two differently.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/fiscal"
)

// Client exposes the two backend calls the wizard needs.
type Client interface {
	// EnviarSolicitacao submits a new solicitação.
	EnviarSolicitacao(ctx context.Context, body *fiscal.SolicitacaoBody) (*fiscal.SolicitacaoResponse, error)

	// ConsultarSolicitacao fetches the detail record of a previously
	// created solicitação.
	ConsultarSolicitacao(ctx context.Context, id int64) (*fiscal.SolicitacaoDetailResponse, error)
}

// Config holds backend client configuration. Timeout bounds every call
// so a hung backend cannot leave the wizard's loading indicator stuck.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a backend client.
func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// EnviarSolicitacao posts the submission payload. The response envelope
// is returned for any decodable body, regardless of HTTP status: the
// backend signals semantic failure through success=false.
func (c *HTTPClient) EnviarSolicitacao(ctx context.Context, body *fiscal.SolicitacaoBody) (*fiscal.SolicitacaoResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode solicitação payload: %w", err)
	}

	url := c.baseURL + "/api/v1/solicitacoes"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Backend create-request call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	var envelope fiscal.SolicitacaoResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.logger.Error("Backend create-request response not decodable",
			zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, fmt.Errorf("failed to decode backend response: %w", err)
	}

	c.logger.Info("Solicitação submitted",
		zap.Bool("success", envelope.Success),
		zap.Int("status", resp.StatusCode))
	return &envelope, nil
}

// ConsultarSolicitacao fetches the detail record for id.
func (c *HTTPClient) ConsultarSolicitacao(ctx context.Context, id int64) (*fiscal.SolicitacaoDetailResponse, error) {
	url := fmt.Sprintf("%s/api/v1/solicitacoes/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Backend detail-query call failed",
			zap.Int64("solicitacao_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	var envelope fiscal.SolicitacaoDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.logger.Error("Backend detail-query response not decodable",
			zap.Int64("solicitacao_id", id),
			zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, fmt.Errorf("failed to decode backend response: %w", err)
	}

	return &envelope, nil
}
