package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-scan/internal/application/dto"
	"github.com/jhoicas/inventario-scan/internal/application/ledger"
	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
	apphttp "github.com/jhoicas/inventario-scan/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Stubs
// ──────────────────────────────────────────────────────────────────────────────

type applyStub struct {
	got ledger.ApplyInput
	res ledger.Result
	err error
}

func (s *applyStub) Apply(_ context.Context, in ledger.ApplyInput) (ledger.Result, error) {
	s.got = in
	return s.res, s.err
}

type historyStub struct {
	got  repository.MovementFilter
	list []*entity.LedgerMovement
}

func (s *historyStub) List(_ context.Context, f repository.MovementFilter) ([]*entity.LedgerMovement, error) {
	s.got = f
	return s.list, nil
}

type lookupStub struct {
	res *ledger.ProductLookup
	err error
}

func (s *lookupStub) Lookup(_ context.Context, _ string) (*ledger.ProductLookup, error) {
	return s.res, s.err
}

func buildApp(apply *applyStub, history *historyStub, lookup *lookupStub, health func(context.Context) error) *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Apply:     apply,
		History:   history,
		Lookup:    lookup,
		Health:    health,
		JWTSecret: testJWTSecret,
		Log:       zerolog.Nop(),
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any, auth string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func validRequest() dto.ApplyMovementRequest {
	src := int64(10)
	return dto.ApplyMovementRequest{
		ProductRef:        "4006381333931",
		MovementType:      "outbound",
		Quantity:          decimal.NewFromInt(2),
		SourceWarehouseID: &src,
		Actor:             testActor,
		OccurredAt:        time.Date(2026, 3, 2, 10, 0, 5, 0, time.UTC),
		IdempotencyKey:    "op-7|1|outbound|59081520",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/movements
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_Nuevo_201(t *testing.T) {
	stub := &applyStub{res: ledger.Result{MovementID: "mov-1"}}
	app := buildApp(stub, &historyStub{}, &lookupStub{}, nil)

	resp, body := do(t, app, http.MethodPost, "/api/movements", validRequest(), bearer(t, testActor, apphttp.RoleOperator))

	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.ApplyMovementResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, dto.ApplyMovementResponse{OK: true, MovementID: "mov-1"}, out)

	assert.Equal(t, "op-7|1|outbound|59081520", stub.got.IdempotencyKey)
	assert.True(t, stub.got.Quantity.Equal(decimal.NewFromInt(2)))
	require.NotNil(t, stub.got.SourceWarehouseID)
	assert.Equal(t, int64(10), *stub.got.SourceWarehouseID)
}

func TestApply_Reenvio_200(t *testing.T) {
	stub := &applyStub{res: ledger.Result{MovementID: "mov-1", Replayed: true}}
	app := buildApp(stub, &historyStub{}, &lookupStub{}, nil)

	resp, body := do(t, app, http.MethodPost, "/api/movements", validRequest(), bearer(t, testActor, apphttp.RoleOperator))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.ApplyMovementResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Replayed)
	assert.Equal(t, "mov-1", out.MovementID)
}

func TestApply_ActorDelToken(t *testing.T) {
	stub := &applyStub{res: ledger.Result{MovementID: "mov-1"}}
	app := buildApp(stub, &historyStub{}, &lookupStub{}, nil)

	req := validRequest()
	req.Actor = "alguien-mas"
	resp, _ := do(t, app, http.MethodPost, "/api/movements", req, bearer(t, testActor, apphttp.RoleOperator))

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, testActor, stub.got.Actor)
}

func TestApply_MapeoDeErrores(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: cantidad", domain.ErrValidation), http.StatusBadRequest, dto.CodeValidation},
		{fmt.Errorf("%w para 123", domain.ErrInvalidEAN), http.StatusBadRequest, dto.CodeInvalidEAN},
		{domain.ErrProductNotFound, http.StatusNotFound, dto.CodeProductNotFound},
		{fmt.Errorf("%w: bodega 99", domain.ErrInvalidWarehouse), http.StatusUnprocessableEntity, dto.CodeInvalidWarehouse},
		{domain.ErrInsufficientStock, http.StatusConflict, dto.CodeInsufficientStock},
		{errors.New("conexión perdida"), http.StatusInternalServerError, dto.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			app := buildApp(&applyStub{err: tt.err}, &historyStub{}, &lookupStub{}, nil)
			resp, body := do(t, app, http.MethodPost, "/api/movements", validRequest(), bearer(t, testActor, apphttp.RoleOperator))

			assert.Equal(t, tt.status, resp.StatusCode)
			var out dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tt.code, out.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, out.Message, "conexión perdida")
			}
		})
	}
}

func TestApply_CuerpoInvalido(t *testing.T) {
	app := buildApp(&applyStub{}, &historyStub{}, &lookupStub{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/movements", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, testActor, apphttp.RoleOperator))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApply_SinToken_401(t *testing.T) {
	stub := &applyStub{}
	app := buildApp(stub, &historyStub{}, &lookupStub{}, nil)
	resp, _ := do(t, app, http.MethodPost, "/api/movements", validRequest(), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, stub.got.ProductRef, "el caso de uso no se invoca")
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /api/movements, /api/products/lookup, /health
// ──────────────────────────────────────────────────────────────────────────────

func TestList_Filtros(t *testing.T) {
	src := int64(10)
	history := &historyStub{list: []*entity.LedgerMovement{{
		ID: "mov-1", ProductID: 1, Type: entity.MovementOutbound, Quantity: decimal.NewFromInt(2),
		SourceWarehouseID: &src, Actor: testActor, IdempotencyKey: "k",
	}}}
	app := buildApp(&applyStub{}, history, &lookupStub{}, nil)

	resp, body := do(t, app, http.MethodGet, "/api/movements?product_id=1&warehouse_id=10&actor=op-7&limit=5&offset=2", nil, bearer(t, testActor, apphttp.RoleSupervisor))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, repository.MovementFilter{ProductID: 1, WarehouseID: 10, Actor: "op-7", Limit: 5, Offset: 2}, history.got)
	var out dto.MovementListResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Movements, 1)
	assert.Equal(t, "outbound", out.Movements[0].MovementType)
	assert.Equal(t, 1, out.Page.Count)
}

func TestList_ParametroInvalido(t *testing.T) {
	app := buildApp(&applyStub{}, &historyStub{}, &lookupStub{}, nil)
	resp, _ := do(t, app, http.MethodGet, "/api/movements?product_id=abc", nil, bearer(t, testActor, apphttp.RoleOperator))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLookup(t *testing.T) {
	lookup := &lookupStub{res: &ledger.ProductLookup{
		Product:  &entity.Product{ID: 1, SKU: "CAF-001", Name: "Café", Status: "active"},
		Barcodes: []entity.Barcode{{ProductID: 1, EAN: "4006381333931", Level: "unit", PackQty: 1}},
		StockByWarehouse: []entity.WarehouseStock{
			{Warehouse: entity.Warehouse{ID: 10, Code: "PRINCIPAL"}, Quantity: decimal.NewFromInt(100)},
			{Warehouse: entity.Warehouse{ID: 20, Code: "SUCURSAL"}, Quantity: decimal.NewFromInt(5)},
		},
		TotalStock: decimal.NewFromInt(105),
	}}
	app := buildApp(&applyStub{}, &historyStub{}, lookup, nil)

	resp, body := do(t, app, http.MethodGet, "/api/products/lookup?ref=4006381333931", nil, bearer(t, testActor, apphttp.RoleOperator))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.ProductLookupResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "CAF-001", out.Product.SKU)
	assert.Len(t, out.StockByWarehouse, 2)
	assert.True(t, out.TotalStock.Equal(decimal.NewFromInt(105)))
}

func TestLookup_Errores(t *testing.T) {
	app := buildApp(&applyStub{}, &historyStub{}, &lookupStub{err: domain.ErrProductNotFound}, nil)
	auth := bearer(t, testActor, apphttp.RoleOperator)

	resp, _ := do(t, app, http.MethodGet, "/api/products/lookup", nil, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, app, http.MethodGet, "/api/products/lookup?ref=NADA", nil, auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), dto.CodeProductNotFound)
}

func TestHealth(t *testing.T) {
	app := buildApp(&applyStub{}, &historyStub{}, &lookupStub{}, nil)
	resp, _ := do(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down := buildApp(&applyStub{}, &historyStub{}, &lookupStub{}, func(context.Context) error { return errors.New("db caída") })
	resp, _ = do(t, down, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Apply: &applyStub{}, History: &historyStub{}, Lookup: &lookupStub{},
		JWTSecret: testJWTSecret, RateLimit: 2, Log: zerolog.Nop(),
	})
	auth := bearer(t, testActor, apphttp.RoleOperator)
	for i := 0; i < 2; i++ {
		resp, _ := do(t, app, http.MethodGet, "/api/movements", nil, auth)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := do(t, app, http.MethodGet, "/api/movements", nil, auth)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, string(body), dto.CodeRateLimited)
}
