package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ahburgess22/expense-tracker/internal/auth"
	"github.com/ahburgess22/expense-tracker/internal/config"
	"github.com/ahburgess22/expense-tracker/internal/db"
	apphttp "github.com/ahburgess22/expense-tracker/internal/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// These tests need a throwaway Postgres; point TEST_DB_DSN at one to run them.

func setupTestRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping integration tests")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE budgets, expenses, users`)

	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		AuthRateLimit:       1000,
		AuthRateWindow:      time.Minute,
	}

	router := apphttp.NewRouter(apphttp.RouterDeps{
		Log:  logger,
		Pool: pool,
		Cfg:  cfg,
		JWT:  auth.NewManager(cfg.JWTSecret, cfg.AccessTTL()),
	})

	return router, pool
}

func request(t *testing.T, r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func loginAs(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()

	creds := map[string]string{"email": email, "password": "password123"}

	if w := request(t, r, http.MethodPost, "/auth/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d (%s)", email, w.Code, w.Body.String())
	}

	w := request(t, r, http.MethodPost, "/auth/login", "", creds)

	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d (%s)", email, w.Code, w.Body.String())
	}

	var out struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("no token in login response: %s", w.Body.String())
	}

	return out.Token
}

func TestRegisterDuplicate(t *testing.T) {
	r, _ := setupTestRouter(t)

	creds := map[string]string{"email": "dup@example.com", "password": "password123"}

	if w := request(t, r, http.MethodPost, "/auth/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", w.Code)
	}

	if w := request(t, r, http.MethodPost, "/auth/register", "", creds); w.Code != http.StatusBadRequest {
		t.Fatalf("second register: status = %d, want 400", w.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	r, _ := setupTestRouter(t)

	token := loginAs(t, r, "owner@example.com")

	// empty ledger
	if w := request(t, r, http.MethodGet, "/expenses", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("empty list: status = %d, want 404", w.Code)
	}

	// add
	w := request(t, r, http.MethodPost, "/expenses", token, map[string]any{
		"amount": 12.5, "category": "food", "description": "lunch",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("add: status = %d (%s)", w.Code, w.Body.String())
	}

	var added struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &added); err != nil || added.ID == "" {
		t.Fatalf("no id in add response: %s", w.Body.String())
	}

	// fetch
	if w := request(t, r, http.MethodGet, "/expenses/"+added.ID, token, nil); w.Code != http.StatusOK {
		t.Fatalf("get: status = %d (%s)", w.Code, w.Body.String())
	}

	// update amount only
	w = request(t, r, http.MethodPut, "/expenses/"+added.ID, token, map[string]any{"amount": 42.5})

	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d (%s)", w.Code, w.Body.String())
	}

	w = request(t, r, http.MethodGet, "/expenses/"+added.ID, token, nil)

	var fetched struct {
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode expense: %v", err)
	}

	if fetched.Amount != 42.5 || fetched.Category != "food" || fetched.Description != "lunch" {
		t.Fatalf("update touched more than the amount: %+v", fetched)
	}

	// another user cannot see it
	otherToken := loginAs(t, r, "other@example.com")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if w := request(t, r, method, "/expenses/"+added.ID, otherToken, nil); w.Code != http.StatusNotFound {
			t.Fatalf("%s as other owner: status = %d, want 404", method, w.Code)
		}
	}

	// delete
	if w := request(t, r, http.MethodDelete, "/expenses/"+added.ID, token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d (%s)", w.Code, w.Body.String())
	}

	if w := request(t, r, http.MethodDelete, "/expenses/"+added.ID, token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete again: status = %d, want 404", w.Code)
	}
}

func TestBudgetAggregation(t *testing.T) {
	r, _ := setupTestRouter(t)

	token := loginAs(t, r, "saver@example.com")

	// no budget yet
	if w := request(t, r, http.MethodGet, "/budget", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get before upsert: status = %d, want 404", w.Code)
	}

	// first upsert creates
	if w := request(t, r, http.MethodPost, "/budget", token, map[string]any{"amount": 500}); w.Code != http.StatusCreated {
		t.Fatalf("first upsert: status = %d (%s)", w.Code, w.Body.String())
	}

	// spend is zero with an empty ledger
	w := request(t, r, http.MethodGet, "/budget", token, nil)

	var view struct {
		Amount       float64 `json:"amount"`
		CurrentSpent float64 `json:"current_spent"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}

	if view.CurrentSpent != 0 {
		t.Fatalf("current_spent = %v, want 0", view.CurrentSpent)
	}

	// expenses of 10 and 15 aggregate to 25
	for _, amount := range []float64{10, 15} {
		w := request(t, r, http.MethodPost, "/expenses", token, map[string]any{
			"amount": amount, "category": "food", "description": "x",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("add expense: status = %d", w.Code)
		}
	}

	w = request(t, r, http.MethodGet, "/budget", token, nil)

	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}

	if view.CurrentSpent != 25 {
		t.Fatalf("current_spent = %v, want 25", view.CurrentSpent)
	}

	// second upsert updates
	if w := request(t, r, http.MethodPost, "/budget", token, map[string]any{"amount": 750}); w.Code != http.StatusOK {
		t.Fatalf("second upsert: status = %d (%s)", w.Code, w.Body.String())
	}
}

func TestConcurrentFirstUpsertKeepsOneBudget(t *testing.T) {
	r, pool := setupTestRouter(t)

	token := loginAs(t, r, "racer@example.com")

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func(amount float64) {
			defer wg.Done()
			request(t, r, http.MethodPost, "/budget", token, map[string]any{"amount": amount})
		}(float64(100 + i))
	}

	wg.Wait()

	var count int

	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM budgets b JOIN users u ON u.id = b.owner_id WHERE u.email = $1`,
		"racer@example.com",
	).Scan(&count)

	if err != nil {
		t.Fatalf("count budgets: %v", err)
	}

	if count != 1 {
		t.Fatalf("budget rows = %d, want exactly 1", count)
	}
}

func TestAdminUserRoutes(t *testing.T) {
	r, _ := setupTestRouter(t)

	loginAs(t, r, "admin-target@example.com")

	w := request(t, r, http.MethodGet, "/users", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("list users: status = %d", w.Code)
	}

	var users []map[string]any

	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil || len(users) != 1 {
		t.Fatalf("unexpected users listing: %s", w.Body.String())
	}

	if _, ok := users[0]["password_hash"]; ok {
		t.Fatal("password hash leaked in listing")
	}

	w = request(t, r, http.MethodDelete, "/users/admin-target@example.com", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("delete user: status = %d (%s)", w.Code, w.Body.String())
	}

	w = request(t, r, http.MethodDelete, "/users/admin-target@example.com", "", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("delete missing user: status = %d, want 404", w.Code)
	}

	wantMessage := fmt.Sprintf("Email %s not found.", "admin-target@example.com")

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["message"] != wantMessage {
		t.Fatalf("message = %v, want %q", body["message"], wantMessage)
	}
}
