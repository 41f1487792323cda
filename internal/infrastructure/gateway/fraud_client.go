package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sony/gobreaker"

	appfraud "github.com/jaortiz16/Payment-Processor-sub000/internal/application/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/config"
)

// FraudDecisionClient consults the external fraud-decision service. It
// implements the monitor's DecisionClient contract.
type FraudDecisionClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewFraudDecisionClient builds the fraud-decision client.
func NewFraudDecisionClient(cfg config.GatewayConfig, logger *slog.Logger) *FraudDecisionClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FraudDecisionClient{
		baseURL: cfg.FraudDecisionURL,
		client:  newHTTPClient(cfg),
		breaker: newBreaker("fraud-decision", cfg),
		logger:  logger,
	}
}

// Decide submits the decision request and returns the verdict. The reply's
// status is validated against the known set before it reaches the state
// machine.
func (c *FraudDecisionClient) Decide(ctx context.Context, req appfraud.DecisionRequest) (*appfraud.DecisionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal decision request: %w", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, c.baseURL+"/api/v1/decisions", body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.WarnContext(ctx, "fraud decision breaker open",
				slog.String("unique_code", req.UniqueCode))
			return nil, fmt.Errorf("fraud decision: %w", transaction.ErrDownstreamUnavailable)
		}
		return nil, err
	}

	var reply appfraud.DecisionResponse
	if err := json.Unmarshal(out.([]byte), &reply); err != nil {
		return nil, fmt.Errorf("decode decision reply: %w", err)
	}
	if !transaction.ValidStatus(reply.Status) {
		return nil, fmt.Errorf("decision for %s: %w", req.UniqueCode, transaction.ErrUnknownStatus)
	}
	return &reply, nil
}

func (c *FraudDecisionClient) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fraud decision: %w", transaction.ErrDownstreamUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read decision reply: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("fraud decision status %d: %w", resp.StatusCode, transaction.ErrDownstreamUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fraud decision rejected request: status %d", resp.StatusCode)
	}
	return data, nil
}
