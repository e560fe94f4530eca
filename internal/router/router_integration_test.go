//go:build integration

package router_test

// End-to-end checks against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/...

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nexogym/internal/config"
	"nexogym/internal/infra"
	"nexogym/internal/model"
	"nexogym/internal/router"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const password = "nexogym2026"

// ── Helpers ──────────────────────────────────────────────────────────────────

func do(t *testing.T, srv *httptest.Server, method, path string, body any, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeJSON(t, resp, &body)
	return body.Code
}

// ── Environment ──────────────────────────────────────────────────────────────

type testEnv struct {
	server    *httptest.Server
	db        *gorm.DB
	gym       *model.Gym
	reception string
	admin     string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("nexogym_test"),
		tcpostgres.WithUsername("nexogym"),
		tcpostgres.WithPassword("nexogym"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "integration-secret-0123456789abcdef",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        dsn,
		RedisURL:           rdURL,
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		GymCacheTTLMinutes: 5,
		ReceiptStoragePath: t.TempDir(),
	}

	require.NoError(t, infra.RunMigrations(dsn))
	db, err := infra.NewDatabase(dsn, false)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	gym := &model.Gym{Name: "Gimnasio E2E", Tier: model.TierBasic, Status: model.GymActive}
	require.NoError(t, db.Create(gym).Error)
	for _, u := range []*model.User{
		{GymID: &gym.ID, Username: "recepcion", Name: "Recepción", Role: model.RoleReception},
		{GymID: &gym.ID, Username: "admin", Name: "Admin", Role: model.RoleAdmin},
	} {
		u.PasswordHash = string(hash)
		u.Status = model.UserActive
		require.NoError(t, db.Create(u).Error)
	}

	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	srv := httptest.NewServer(router.New(cfg, db, rdb, infra.NewMetrics(), stop))
	t.Cleanup(srv.Close)

	env := &testEnv{server: srv, db: db, gym: gym}
	env.reception = env.login(t, "recepcion")
	env.admin = env.login(t, "admin")
	return env
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp := do(t, e.server, http.MethodPost, "/v1/auth/login",
		map[string]string{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func (e *testEnv) product(t *testing.T, name, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{GymID: e.gym.ID, Name: name, Price: decimal.RequireFromString(price), Stock: stock, Active: true}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) stock(t *testing.T, id any) int {
	t.Helper()
	var p model.Product
	require.NoError(t, e.db.First(&p, "id = ?", id).Error)
	return p.Stock
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_ShiftLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	srv := env.server
	protein := env.product(t, "Proteína", "45.50", 3)

	// Open, then a second open conflicts.
	resp := do(t, srv, http.MethodPost, "/v1/shifts/open", map[string]any{"opening_balance": 100.00}, env.reception)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var opened struct {
		Shift struct {
			ID string `json:"id"`
		} `json:"shift"`
	}
	decodeJSON(t, resp, &opened)

	resp = do(t, srv, http.MethodPost, "/v1/shifts/open", map[string]any{"opening_balance": 50}, env.reception)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(t, resp))

	// Oversell is rejected without touching stock.
	resp = do(t, srv, http.MethodPost, "/v1/pos/sales", map[string]any{
		"items": []map[string]any{{"product_id": protein.ID, "quantity": 5}},
	}, env.reception)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, resp))
	assert.Equal(t, 3, env.stock(t, protein.ID))

	// Sale, receipt enqueued to Redis.
	resp = do(t, srv, http.MethodPost, "/v1/pos/sales", map[string]any{
		"items":          []map[string]any{{"product_id": protein.ID, "quantity": 1}},
		"customer_email": "socio@example.com",
	}, env.reception)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sale struct {
		Sale struct {
			ReceiptFolio string `json:"receipt_folio"`
		} `json:"sale"`
	}
	decodeJSON(t, resp, &sale)
	assert.Equal(t, "R-00000001", sale.Sale.ReceiptFolio)
	assert.Equal(t, 2, env.stock(t, protein.ID))

	// Expenses.
	resp = do(t, srv, http.MethodPost, "/v1/pos/expenses", map[string]any{
		"amount": 10, "type": "OPERATIONAL_EXPENSE", "description": "ok",
	}, env.reception)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/pos/expenses", map[string]any{"amount": 20.00, "type": "CASH_DROP"}, env.reception)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Running totals.
	resp = do(t, srv, http.MethodGet, "/v1/shifts/current", nil, env.reception)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current struct {
		RunningTotals struct {
			ExpectedBalance decimal.Decimal `json:"expected_balance"`
		} `json:"running_totals"`
	}
	decodeJSON(t, resp, &current)
	assert.True(t, current.RunningTotals.ExpectedBalance.Equal(decimal.RequireFromString("125.50")))

	// Close with a short drawer.
	resp = do(t, srv, http.MethodPost, "/v1/shifts/close", map[string]any{"actual_balance": 120.00}, env.reception)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var closed struct {
		Reconciliation struct {
			ExpectedBalance decimal.Decimal `json:"expected_balance"`
			Difference      decimal.Decimal `json:"difference"`
			Status          string          `json:"status"`
		} `json:"reconciliation"`
	}
	decodeJSON(t, resp, &closed)
	assert.True(t, closed.Reconciliation.ExpectedBalance.Equal(decimal.RequireFromString("125.50")))
	assert.True(t, closed.Reconciliation.Difference.Equal(decimal.RequireFromString("-5.50")))
	assert.Equal(t, "SHORTAGE", closed.Reconciliation.Status)

	// Closed shift accepts nothing else.
	resp = do(t, srv, http.MethodPost, "/v1/pos/sales", map[string]any{
		"shift_id": opened.Shift.ID,
		"items":    []map[string]any{{"product_id": protein.ID, "quantity": 1}},
	}, env.reception)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Admin reports; receptionists are kept out.
	resp = do(t, srv, http.MethodGet, "/v1/shifts", nil, env.reception)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/shifts/"+opened.Shift.ID+"/sales", nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Sales    []json.RawMessage `json:"sales"`
		Expenses []json.RawMessage `json:"expenses"`
	}
	decodeJSON(t, resp, &detail)
	assert.Len(t, detail.Sales, 1)
	assert.Len(t, detail.Expenses, 1)
}

func TestE2E_ConcurrentSalesNeverOversell(t *testing.T) {
	env := setupTestEnv(t)
	p := env.product(t, "Agua", "10.00", 5)

	resp := do(t, env.server, http.MethodPost, "/v1/shifts/open", map[string]any{"opening_balance": 0}, env.reception)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		status = map[int]int{}
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := do(t, env.server, http.MethodPost, "/v1/pos/sales", map[string]any{
				"items": []map[string]any{{"product_id": p.ID, "quantity": 1}},
			}, env.reception)
			r.Body.Close()
			mu.Lock()
			status[r.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, status[http.StatusCreated])
	assert.Equal(t, 7, status[http.StatusConflict])
	assert.Equal(t, 0, env.stock(t, p.ID))
}

func TestE2E_ModuleGateAndAuditTrail(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, http.MethodPost, "/v1/shifts/open", map[string]any{"opening_balance": 10}, env.reception)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The audit trail refuses edits.
	err := env.db.Exec(`UPDATE audit_logs SET action = 'TAMPERED'`).Error
	assert.Error(t, err)
	err = env.db.Exec(`DELETE FROM audit_logs`).Error
	assert.Error(t, err)

	// A fresh gym that is suspended never reaches the POS.
	suspended := &model.Gym{Name: "Suspendido", Tier: model.TierPremium, Status: model.GymSuspended}
	require.NoError(t, env.db.Create(suspended).Error)
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, env.db.Create(&model.User{
		GymID: &suspended.ID, Username: "suspendido", Name: "S", PasswordHash: string(hash),
		Role: model.RoleReception, Status: model.UserActive,
	}).Error)
	token := env.login(t, "suspendido")

	resp = do(t, env.server, http.MethodGet, "/v1/shifts/current", nil, token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_HealthReportsDependencies(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "connected", body["redis"])
}
