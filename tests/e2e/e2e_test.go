//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Clinic onboarding (master_admin → clinic → clinic admin → login)
//   - Inventory adjustments with negative-stock rejection
//   - Stock alert worker (async job → unresolved alert via the API)
//   - Invoice lifecycle (sequential numbers, issue, partial + settling payments)
//   - Appointment booking with double-booking rejection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinicflow/internal/config"
	"clinicflow/internal/infra"
	"clinicflow/internal/model"
	"clinicflow/internal/router"
	"clinicflow/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

const (
	masterEmail    = "master@e2e.test"
	masterPassword = "e2e-master-pass"
	adminPassword  = "e2e-admin-pass"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
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

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server      *httptest.Server
	masterToken string
	handlers    worker.Handlers
	rdb         *redis.Client
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("clinicflow_test"),
		tcPostgres.WithUsername("clinicflow"),
		tcPostgres.WithPassword("clinicflow"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                 8000,
		Env:                  "test",
		WorkerPoolSize:       1,
		DatabaseURL:          pgURL,
		RedisURL:             rdURL,
		JWTSecret:            "e2e-test-secret",
		JWTExpirationHours:   8,
		JWTRefreshHours:      24,
		StatsCacheTTLSeconds: 30,
		NoShowGraceMinutes:   15,
	}

	// NewDatabase runs migrations before returning.
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	cache := infra.NewCache(rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()))

	// Seed the bootstrap master_admin.
	hash, err := bcrypt.GenerateFromPassword([]byte(masterPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		ID:           uuid.New(),
		Email:        masterEmail,
		Name:         "Master E2E",
		PasswordHash: string(hash),
		Role:         model.RoleMasterAdmin,
		Active:       true,
	}).Error)

	r, handlers := router.New(router.Deps{Cfg: cfg, DB: db, RDB: rdb, Cache: cache})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server:      srv,
		masterToken: login(t, srv, masterEmail, masterPassword),
		handlers:    handlers,
		rdb:         rdb,
	}
}

func login(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	resp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"email": email, "password": password}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

// onboardClinic creates a clinic and its admin, then logs the admin in.
func onboardClinic(t *testing.T, env *testEnv, name string) (clinicID, adminToken string) {
	t.Helper()
	clinicResp := do(t, env.server, "POST", "/v1/clinics",
		jsonBody(t, map[string]any{"name": name}), env.masterToken)
	require.Equal(t, http.StatusCreated, clinicResp.StatusCode)
	var clinic struct {
		ID string `json:"id"`
	}
	decodeJSON(t, clinicResp, &clinic)

	adminEmail := fmt.Sprintf("admin-%s@e2e.test", uuid.NewString()[:8])
	userResp := do(t, env.server, "POST", "/v1/users",
		jsonBody(t, map[string]any{
			"email":     adminEmail,
			"name":      "Admin " + name,
			"password":  adminPassword,
			"role":      "admin",
			"clinic_id": clinic.ID,
		}), env.masterToken)
	require.Equal(t, http.StatusCreated, userResp.StatusCode)
	userResp.Body.Close()

	return clinic.ID, login(t, env.server, adminEmail, adminPassword)
}

func createPatient(t *testing.T, env *testEnv, token, name string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/patients",
		jsonBody(t, map[string]any{"name": name}), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var patient struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &patient)
	return patient.ID
}

func createItem(t *testing.T, env *testEnv, token, sku string, quantity, minQuantity int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/inventory/items",
		jsonBody(t, map[string]any{
			"sku":          sku,
			"name":         "Item " + sku,
			"category":     "consumables",
			"quantity":     quantity,
			"min_quantity": minQuantity,
			"unit_price":   "9.50",
		}), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &item)
	return item.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_ClinicOnboarding(t *testing.T) {
	env := setupTestEnv(t)

	clinicID, adminToken := onboardClinic(t, env, "Norte Clinic")
	require.NotEmpty(t, clinicID)

	// The new admin operates inside their own tenant.
	statsResp := do(t, env.server, "GET", "/v1/inventory/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, statsResp.StatusCode)
	var stats struct {
		TotalItems int64 `json:"total_items"`
	}
	decodeJSON(t, statsResp, &stats)
	assert.Equal(t, int64(0), stats.TotalItems)

	// But cannot reach master_admin-only surface.
	clinicsResp := do(t, env.server, "GET", "/v1/clinics", nil, adminToken)
	assert.Equal(t, http.StatusForbidden, clinicsResp.StatusCode)
	clinicsResp.Body.Close()
}

func TestE2E_InventoryAdjustmentFlow(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := onboardClinic(t, env, "Centro Clinic")

	itemID := createItem(t, env, adminToken, "GLOVES-M", 10, 3)

	// Draw down 4 units.
	adjResp := do(t, env.server, "POST", "/v1/inventory/items/"+itemID+"/adjust",
		jsonBody(t, map[string]any{"type": "out", "delta": 4, "reason": "ward usage"}), adminToken)
	require.Equal(t, http.StatusCreated, adjResp.StatusCode)
	var entry struct {
		PreviousQuantity int `json:"previous_quantity"`
		Quantity         int `json:"quantity"`
		NewQuantity      int `json:"new_quantity"`
	}
	decodeJSON(t, adjResp, &entry)
	assert.Equal(t, 10, entry.PreviousQuantity)
	assert.Equal(t, -4, entry.Quantity)
	assert.Equal(t, 6, entry.NewQuantity)

	// Over-draw is rejected and leaves no trace.
	overResp := do(t, env.server, "POST", "/v1/inventory/items/"+itemID+"/adjust",
		jsonBody(t, map[string]any{"type": "out", "delta": 20, "reason": "ward usage"}), adminToken)
	assert.Equal(t, http.StatusConflict, overResp.StatusCode)
	overResp.Body.Close()

	itemResp := do(t, env.server, "GET", "/v1/inventory/items/"+itemID, nil, adminToken)
	require.Equal(t, http.StatusOK, itemResp.StatusCode)
	var item struct {
		Quantity int `json:"quantity"`
	}
	decodeJSON(t, itemResp, &item)
	assert.Equal(t, 6, item.Quantity)

	txnResp := do(t, env.server, "GET", "/v1/inventory/transactions", nil, adminToken)
	require.Equal(t, http.StatusOK, txnResp.StatusCode)
	var txns struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, txnResp, &txns)
	assert.Equal(t, int64(1), txns.Total)
}

func TestE2E_StockAlertWorker(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := onboardClinic(t, env, "Sur Clinic")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	worker.StartWorkerPool(ctx, env.rdb, 1, env.handlers)

	itemID := createItem(t, env, adminToken, "INSULIN-10", 10, 5)

	// Drop below the minimum — the adjustment enqueues a stock-alert job.
	adjResp := do(t, env.server, "POST", "/v1/inventory/items/"+itemID+"/adjust",
		jsonBody(t, map[string]any{"type": "out", "delta": 6, "reason": "dispensing"}), adminToken)
	require.Equal(t, http.StatusCreated, adjResp.StatusCode)
	adjResp.Body.Close()

	require.Eventually(t, func() bool {
		resp := do(t, env.server, "GET", "/v1/inventory/alerts", nil, adminToken)
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return false
		}
		var alerts []struct {
			ItemID string `json:"item_id"`
			Level  string `json:"level"`
		}
		decodeJSON(t, resp, &alerts)
		return len(alerts) == 1 && alerts[0].ItemID == itemID && alerts[0].Level == "low"
	}, 10*time.Second, 200*time.Millisecond, "expected one low stock alert")
}

func TestE2E_InvoiceLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := onboardClinic(t, env, "Billing Clinic")
	patientID := createPatient(t, env, adminToken, "Jane Roe")

	createInvoice := func() struct {
		ID     string          `json:"id"`
		Number int             `json:"number"`
		Status string          `json:"status"`
		Total  decimal.Decimal `json:"total"`
	} {
		resp := do(t, env.server, "POST", "/v1/invoices",
			jsonBody(t, map[string]any{
				"patient_id":  patientID,
				"tax_percent": "21",
				"items": []map[string]any{
					{"description": "Consultation", "quantity": 1, "unit_price": "100.00"},
					{"description": "Blood panel", "quantity": 2, "unit_price": "25.00"},
				},
			}), adminToken)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var inv struct {
			ID     string          `json:"id"`
			Number int             `json:"number"`
			Status string          `json:"status"`
			Total  decimal.Decimal `json:"total"`
		}
		decodeJSON(t, resp, &inv)
		return inv
	}

	first := createInvoice()
	second := createInvoice()
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, "draft", first.Status)
	assert.True(t, first.Total.Equal(decimal.RequireFromString("181.50")), "total = %s", first.Total)

	issueResp := do(t, env.server, "POST", "/v1/invoices/"+first.ID+"/issue", jsonBody(t, map[string]any{}), adminToken)
	require.Equal(t, http.StatusOK, issueResp.StatusCode)
	issueResp.Body.Close()

	// Partial payment keeps the invoice issued.
	payResp := do(t, env.server, "POST", "/v1/invoices/"+first.ID+"/payments",
		jsonBody(t, map[string]any{"method": "cash", "amount": "100.00"}), adminToken)
	require.Equal(t, http.StatusCreated, payResp.StatusCode)
	var afterPartial struct {
		Status     string          `json:"status"`
		AmountPaid decimal.Decimal `json:"amount_paid"`
	}
	decodeJSON(t, payResp, &afterPartial)
	assert.Equal(t, "issued", afterPartial.Status)
	assert.True(t, afterPartial.AmountPaid.Equal(decimal.RequireFromString("100.00")))

	// Overpayment is rejected.
	overResp := do(t, env.server, "POST", "/v1/invoices/"+first.ID+"/payments",
		jsonBody(t, map[string]any{"method": "card", "amount": "100.00"}), adminToken)
	assert.Equal(t, http.StatusConflict, overResp.StatusCode)
	overResp.Body.Close()

	// The settling payment flips the invoice to paid.
	settleResp := do(t, env.server, "POST", "/v1/invoices/"+first.ID+"/payments",
		jsonBody(t, map[string]any{"method": "card", "amount": "81.50"}), adminToken)
	require.Equal(t, http.StatusCreated, settleResp.StatusCode)
	var settled struct {
		Status     string          `json:"status"`
		AmountPaid decimal.Decimal `json:"amount_paid"`
	}
	decodeJSON(t, settleResp, &settled)
	assert.Equal(t, "paid", settled.Status)
	assert.True(t, settled.AmountPaid.Equal(decimal.RequireFromString("181.50")))
}

func TestE2E_AppointmentDoubleBooking(t *testing.T) {
	env := setupTestEnv(t)
	clinicID, adminToken := onboardClinic(t, env, "Agenda Clinic")
	patientID := createPatient(t, env, adminToken, "John Roe")

	doctorEmail := fmt.Sprintf("doctor-%s@e2e.test", uuid.NewString()[:8])
	doctorResp := do(t, env.server, "POST", "/v1/users",
		jsonBody(t, map[string]any{
			"email":     doctorEmail,
			"name":      "Dr. E2E",
			"password":  "e2e-doctor-pass",
			"role":      "doctor",
			"clinic_id": clinicID,
		}), env.masterToken)
	require.Equal(t, http.StatusCreated, doctorResp.StatusCode)
	var doctor struct {
		ID string `json:"id"`
	}
	decodeJSON(t, doctorResp, &doctor)

	starts := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	book := func(offset time.Duration) *http.Response {
		return do(t, env.server, "POST", "/v1/appointments",
			jsonBody(t, map[string]any{
				"patient_id": patientID,
				"doctor_id":  doctor.ID,
				"starts_at":  starts.Add(offset).Format(time.RFC3339),
				"ends_at":    starts.Add(offset + 30*time.Minute).Format(time.RFC3339),
				"reason":     "checkup",
			}), adminToken)
	}

	firstResp := book(0)
	require.Equal(t, http.StatusCreated, firstResp.StatusCode)
	var appt struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeJSON(t, firstResp, &appt)
	assert.Equal(t, "scheduled", appt.Status)

	// Overlapping slot for the same doctor is rejected.
	overlapResp := book(15 * time.Minute)
	assert.Equal(t, http.StatusConflict, overlapResp.StatusCode)
	overlapResp.Body.Close()

	// Back-to-back slot is fine.
	nextResp := book(30 * time.Minute)
	assert.Equal(t, http.StatusCreated, nextResp.StatusCode)
	nextResp.Body.Close()

	// Confirm the first booking.
	statusResp := do(t, env.server, "PATCH", "/v1/appointments/"+appt.ID+"/status",
		jsonBody(t, map[string]any{"status": "confirmed"}), adminToken)
	require.Equal(t, http.StatusOK, statusResp.StatusCode)
	var confirmed struct {
		Status string `json:"status"`
	}
	decodeJSON(t, statusResp, &confirmed)
	assert.Equal(t, "confirmed", confirmed.Status)
}
