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

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	apptx "github.com/jaortiz16/Payment-Processor-sub000/internal/application/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/config"
)

// ProcessorClient asks the card network to authorize a transaction. It
// implements the lifecycle manager's Authorizer contract.
type ProcessorClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewProcessorClient builds the card-network client.
func NewProcessorClient(cfg config.GatewayConfig, logger *slog.Logger) *ProcessorClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessorClient{
		baseURL: cfg.ProcessorURL,
		client:  newHTTPClient(cfg),
		breaker: newBreaker("card-network", cfg),
		logger:  logger,
	}
}

type authorizationPayload struct {
	UniqueCode     string          `json:"unique_code"`
	CardBrand      string          `json:"card_brand"`
	MaskedPAN      string          `json:"masked_pan"`
	CardExpiry     string          `json:"card_expiry"`
	CardHolderName string          `json:"card_holder_name"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Country        string          `json:"country"`
}

type authorizationReply struct {
	Approved          bool   `json:"approved"`
	AuthorizationCode string `json:"authorization_code"`
	ErrorDetail       string `json:"error_detail"`
}

// Authorize submits the authorization request. A network failure, 5xx reply
// or open breaker surfaces as ErrDownstreamUnavailable; a clean decline
// comes back as a result with Approved false.
func (c *ProcessorClient) Authorize(ctx context.Context, req apptx.AuthorizationRequest) (*apptx.AuthorizationResult, error) {
	body, err := json.Marshal(authorizationPayload{
		UniqueCode:     req.UniqueCode,
		CardBrand:      req.Card.Brand,
		MaskedPAN:      req.Card.MaskedPAN,
		CardExpiry:     req.Card.Expiry,
		CardHolderName: req.Card.HolderName,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Country:        req.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal authorization: %w", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, c.baseURL+"/api/v1/authorizations", body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.WarnContext(ctx, "card network breaker open",
				slog.String("unique_code", req.UniqueCode))
			return nil, fmt.Errorf("card network: %w", transaction.ErrDownstreamUnavailable)
		}
		return nil, err
	}

	var reply authorizationReply
	if err := json.Unmarshal(out.([]byte), &reply); err != nil {
		return nil, fmt.Errorf("decode authorization reply: %w", err)
	}
	return &apptx.AuthorizationResult{
		Approved:          reply.Approved,
		AuthorizationCode: reply.AuthorizationCode,
		ErrorDetail:       reply.ErrorDetail,
	}, nil
}

func (c *ProcessorClient) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("card network: %w", transaction.ErrDownstreamUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read authorization reply: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("card network status %d: %w", resp.StatusCode, transaction.ErrDownstreamUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("card network rejected request: status %d", resp.StatusCode)
	}
	return data, nil
}
