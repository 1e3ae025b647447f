// Package ledgerclient habla con el ledger remoto por HTTP y traduce sus respuestas a los
// resultados tipados del motor de sincronización.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-scan/internal/application/dto"
	"github.com/jhoicas/inventario-scan/internal/application/syncer"
	"github.com/jhoicas/inventario-scan/pkg/config"
)

var _ syncer.Ledger = (*Client)(nil)

const maxErrorBody = 4 << 10

// Client cliente del ledger. Usa net/http de la stdlib.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// New construye el cliente. RequestTimeout acota cada petición además del contexto del llamador.
func New(cfg config.LedgerConfig, log zerolog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "ledger_client").Logger(),
	}
}

// Apply envía un movimiento. 201 y 200 (reenvío) son éxito; cualquier otro resultado es un *syncer.Failure.
func (c *Client) Apply(ctx context.Context, sub syncer.Submission) (syncer.Receipt, error) {
	body, err := json.Marshal(dto.ApplyMovementRequest{
		ProductRef:        sub.ProductRef,
		MovementType:      string(sub.MovementType),
		Quantity:          sub.Quantity,
		SourceWarehouseID: sub.SourceWarehouseID,
		DestWarehouseID:   sub.DestWarehouseID,
		Actor:             sub.Actor,
		Notes:             sub.Notes,
		OccurredAt:        sub.OccurredAt,
		IdempotencyKey:    sub.IdempotencyKey,
	})
	if err != nil {
		return syncer.Receipt{}, &syncer.Failure{Kind: syncer.FailureValidation, Message: err.Error()}
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/movements", bytes.NewReader(body))
	if err != nil {
		return syncer.Receipt{}, transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var out dto.ApplyMovementResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return syncer.Receipt{}, &syncer.Failure{Kind: syncer.FailureNetwork, Message: "respuesta ilegible del ledger: " + err.Error()}
		}
		return syncer.Receipt{MovementID: out.MovementID, Replayed: out.Replayed || resp.StatusCode == http.StatusOK}, nil
	}
	return syncer.Receipt{}, failureFromResponse(resp)
}

// Lookup consulta un producto por EAN o SKU.
func (c *Client) Lookup(ctx context.Context, ref string) (*dto.ProductLookupResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/products/lookup?ref="+url.QueryEscape(ref), nil)
	if err != nil {
		return nil, transportFailure(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, failureFromResponse(resp)
	}
	var out dto.ProductLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decodificar lookup: %w", err)
	}
	return &out, nil
}

// Health consulta /health. Lo usa la sonda de conectividad.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return transportFailure(ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode != http.StatusOK {
		return &syncer.Failure{Kind: syncer.FailureNetwork, Message: fmt.Sprintf("ledger no disponible: HTTP %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("petición fallida")
		return nil, err
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("petición al ledger")
	return resp, nil
}

// transportFailure: sin respuesta HTTP. Vencimiento = timeout; el resto = red.
func transportFailure(ctx context.Context, err error) *syncer.Failure {
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &syncer.Failure{Kind: syncer.FailureTimeout, Message: "tiempo de espera agotado: " + err.Error()}
	}
	return &syncer.Failure{Kind: syncer.FailureNetwork, Message: "fallo de red: " + err.Error()}
}

var codeKinds = map[string]syncer.FailureKind{
	dto.CodeValidation:        syncer.FailureValidation,
	dto.CodeInvalidBody:       syncer.FailureValidation,
	dto.CodeInvalidEAN:        syncer.FailureInvalidEAN,
	dto.CodeProductNotFound:   syncer.FailureProductNotFound,
	dto.CodeInvalidWarehouse:  syncer.FailureInvalidWarehouse,
	dto.CodeInsufficientStock: syncer.FailureInsufficientStock,
	dto.CodeUnauthorized:      syncer.FailureUnauthorized,
	dto.CodeForbidden:         syncer.FailureUnauthorized,
}

// failureFromResponse traduce status + código del cuerpo. El mensaje del ledger se conserva tal cual.
func failureFromResponse(resp *http.Response) *syncer.Failure {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body dto.ErrorResponse
	_ = json.Unmarshal(raw, &body)

	msg := body.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &syncer.Failure{Kind: syncer.FailureUnauthorized, Message: msg}
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return &syncer.Failure{Kind: syncer.FailureNetwork, Message: fmt.Sprintf("ledger respondió HTTP %d: %s", resp.StatusCode, msg)}
	}
	if kind, ok := codeKinds[body.Code]; ok {
		return &syncer.Failure{Kind: kind, Message: msg}
	}
	return &syncer.Failure{Kind: syncer.FailureValidation, Message: msg}
}
