package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/forecast-engine/api"
	"github.com/warp/forecast-engine/forecast"
	"github.com/warp/forecast-engine/forecast/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testServer struct {
	handler *api.Handler
	store   *store.Memory
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	handler := api.NewHandler(mem, forecast.SchedulerConfig{
		Workers:         2,
		TemplateTimeout: 5 * time.Second,
		Retry:           forecast.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond},
	})
	// Pin the clock so generation windows are deterministic.
	clock := func() forecast.Date { return forecast.NewDate(2024, time.January, 1) }
	handler.Generator.Clock = clock
	handler.Scheduler.Generator.Clock = clock

	return &testServer{
		handler: handler,
		store:   mem,
		router:  api.NewRouter(handler),
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), "body: %s", rec.Body.String())
}

func createTemplateBody() map[string]any {
	return map[string]any{
		"id":               "tpl-1",
		"account_id":       "acc-1",
		"user_id":          "user-1",
		"frequency":        "weekly",
		"start_date":       "2024-01-01",
		"days_in_advance":  14,
		"amount":           "100",
		"transaction_type": "expense",
		"category":         "Rent",
	}
}

func (ts *testServer) seedRow(t *testing.T, id string, amount string) {
	t.Helper()
	row := forecast.ExpectedTransaction{
		ID:              forecast.ExpectedID(id),
		TemplateID:      "tpl-1",
		AccountID:       "acc-1",
		UserID:          "user-1",
		ExpectedDate:    forecast.NewDate(2024, time.March, 5),
		ExpectedAmount:  decimal.RequireFromString(amount),
		Category:        "Rent",
		TransactionType: forecast.TypeExpense,
		Status:          forecast.StatusPending,
		GeneratedAt:     time.Now(),
	}
	require.NoError(t, ts.store.InsertExpected(context.Background(), []forecast.ExpectedTransaction{row}))
}

// =============================================================================
// TEMPLATE ENDPOINT TESTS
// =============================================================================

func TestCreateTemplate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/templates", createTemplateBody())
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var dto api.TemplateDTO
	decodeInto(t, rec, &dto)
	assert.Equal(t, "tpl-1", dto.ID)
	assert.Equal(t, "2024-01-01", dto.StartDate)
	assert.Equal(t, "2024-01-01", dto.NextExecutionDate)
	assert.True(t, dto.IsActive)
	assert.True(t, dto.AutoGenerate)
}

func TestCreateTemplate_InvalidFrequency(t *testing.T) {
	ts := newTestServer(t)

	body := createTemplateBody()
	body["frequency"] = "fortnightly"
	rec := ts.do(t, http.MethodPost, "/api/templates", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp api.ErrorResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "validation", resp.Code)
}

func TestCreateTemplate_InvalidAmount(t *testing.T) {
	ts := newTestServer(t)

	body := createTemplateBody()
	body["amount"] = "lots"
	rec := ts.do(t, http.MethodPost, "/api/templates", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTemplate_NotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/templates/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// GENERATION ENDPOINT TESTS
// =============================================================================

func TestGenerateTemplate(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/templates", createTemplateBody()).Code)

	rec := ts.do(t, http.MethodPost, "/api/templates/tpl-1/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var result api.GenerateResultDTO
	decodeInto(t, rec, &result)
	assert.Equal(t, 3, result.Created)

	// Idempotent on repeat.
	rec = ts.do(t, http.MethodPost, "/api/templates/tpl-1/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &result)
	assert.Equal(t, 0, result.Created)
}

func TestGenerateTemplate_NotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/templates/nope/generate", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp api.ErrorResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "not_found", resp.Code)
}

func TestGenerateAll(t *testing.T) {
	ts := newTestServer(t)
	body := createTemplateBody()
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/templates", body).Code)
	body["id"] = "tpl-2"
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/templates", body).Code)

	rec := ts.do(t, http.MethodPost, "/api/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var report api.BatchReportDTO
	decodeInto(t, rec, &report)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 6, report.TotalCreated)
	assert.Len(t, report.Outcomes, 2)
}

// =============================================================================
// EXPECTED TRANSACTION ENDPOINT TESTS
// =============================================================================

func TestListExpected(t *testing.T) {
	ts := newTestServer(t)
	ts.seedRow(t, "exp-1", "100")

	rec := ts.do(t, http.MethodGet, "/api/expected?user_id=user-1&from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []api.ExpectedTransactionDTO
	decodeInto(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "exp-1", rows[0].ID)
	assert.Equal(t, "pending", rows[0].Status)
}

func TestListExpected_RequiresWindow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/expected?user_id=user-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/expected?from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmExpected(t *testing.T) {
	ts := newTestServer(t)
	ts.seedRow(t, "exp-1", "100")

	rec := ts.do(t, http.MethodPost, "/api/expected/exp-1/confirm",
		api.ConfirmRequest{ActualTransactionID: "real-tx-1"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var dto api.ExpectedTransactionDTO
	decodeInto(t, rec, &dto)
	assert.Equal(t, "confirmed", dto.Status)
	assert.Equal(t, "real-tx-1", dto.ActualTransactionID)

	// Re-confirming is a conflict.
	rec = ts.do(t, http.MethodPost, "/api/expected/exp-1/confirm",
		api.ConfirmRequest{ActualTransactionID: "real-tx-2"})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp api.ErrorResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "conflict", resp.Code)
}

func TestCancelExpected_RequiresReason(t *testing.T) {
	ts := newTestServer(t)
	ts.seedRow(t, "exp-1", "100")

	rec := ts.do(t, http.MethodPost, "/api/expected/exp-1/cancel", api.CancelRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/expected/exp-1/cancel",
		api.CancelRequest{Reason: "subscription ended"})
	require.Equal(t, http.StatusOK, rec.Code)

	var dto api.ExpectedTransactionDTO
	decodeInto(t, rec, &dto)
	assert.Equal(t, "cancelled", dto.Status)
}

func TestAdjustExpected(t *testing.T) {
	ts := newTestServer(t)
	ts.seedRow(t, "exp-1", "100")

	rec := ts.do(t, http.MethodPost, "/api/expected/exp-1/adjust",
		api.AdjustRequest{Amount: "80", Reason: "price drop"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var dto api.ExpectedTransactionDTO
	decodeInto(t, rec, &dto)
	assert.True(t, dto.IsAdjusted)
	assert.True(t, dto.ExpectedAmount.Equal(decimal.RequireFromString("80")))
	require.NotNil(t, dto.OriginalAmount)
	assert.True(t, dto.OriginalAmount.Equal(decimal.RequireFromString("100")))
}

func TestCompleteExpected(t *testing.T) {
	ts := newTestServer(t)
	ts.seedRow(t, "exp-1", "100")

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/expected/exp-1/confirm",
		api.ConfirmRequest{ActualTransactionID: "real-tx-1"}).Code)

	rec := ts.do(t, http.MethodPost, "/api/expected/exp-1/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto api.ExpectedTransactionDTO
	decodeInto(t, rec, &dto)
	assert.Equal(t, "completed", dto.Status)
}

// =============================================================================
// FORECAST ENDPOINT TESTS
// =============================================================================

func TestCashFlowEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rows := []forecast.ExpectedTransaction{
		{ID: "exp-income", TemplateID: "t1", UserID: "user-1", ExpectedDate: forecast.NewDate(2024, time.March, 5),
			ExpectedAmount: decimal.RequireFromString("500"), TransactionType: forecast.TypeIncome,
			Category: "Salary", Status: forecast.StatusPending, GeneratedAt: time.Now()},
		{ID: "exp-expense", TemplateID: "t2", UserID: "user-1", ExpectedDate: forecast.NewDate(2024, time.March, 10),
			ExpectedAmount: decimal.RequireFromString("200"), TransactionType: forecast.TypeExpense,
			Category: "Rent", Status: forecast.StatusPending, GeneratedAt: time.Now()},
		{ID: "exp-transfer", TemplateID: "t3", UserID: "user-1", ExpectedDate: forecast.NewDate(2024, time.March, 15),
			ExpectedAmount: decimal.RequireFromString("50"), TransactionType: forecast.TypeTransfer,
			Category: "Savings", Status: forecast.StatusPending, GeneratedAt: time.Now()},
	}
	require.NoError(t, ts.store.InsertExpected(context.Background(), rows))

	rec := ts.do(t, http.MethodGet, "/api/forecast/cashflow?user_id=user-1&from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto api.CashFlowForecastDTO
	decodeInto(t, rec, &dto)
	assert.True(t, dto.NetFlow.Equal(decimal.RequireFromString("300")),
		"expected net 300, got %s", dto.NetFlow)
}

func TestCategoriesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rows := []forecast.ExpectedTransaction{
		{ID: "exp-1", TemplateID: "t1", UserID: "user-1", ExpectedDate: forecast.NewDate(2024, time.March, 5),
			ExpectedAmount: decimal.RequireFromString("50"), TransactionType: forecast.TypeExpense,
			Category: "Groceries", Status: forecast.StatusPending, GeneratedAt: time.Now()},
		{ID: "exp-2", TemplateID: "t2", UserID: "user-1", ExpectedDate: forecast.NewDate(2024, time.March, 10),
			ExpectedAmount: decimal.RequireFromString("100"), TransactionType: forecast.TypeIncome,
			Category: "Salary", Status: forecast.StatusPending, GeneratedAt: time.Now()},
	}
	require.NoError(t, ts.store.InsertExpected(context.Background(), rows))

	rec := ts.do(t, http.MethodGet, "/api/forecast/categories?user_id=user-1&from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto api.CategoryForecastDTO
	decodeInto(t, rec, &dto)
	require.Len(t, dto.Categories, 2)
	assert.True(t, dto.Categories["Groceries"].Equal(decimal.RequireFromString("-50")))
	assert.True(t, dto.Categories["Salary"].Equal(decimal.RequireFromString("100")))
}

func TestForecast_InvalidWindow(t *testing.T) {
	ts := newTestServer(t)

	cases := []string{
		"/api/forecast/cashflow?user_id=user-1&from=2024-03-31&to=2024-03-01", // reversed
		"/api/forecast/cashflow?user_id=user-1&from=bogus&to=2024-03-31",
		"/api/forecast/cashflow?from=2024-03-01&to=2024-03-31", // no user
	}
	for _, path := range cases {
		rec := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, fmt.Sprintf("path %s", path))
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
