/*
handlers.go - HTTP API handlers for the forecast engine

PURPOSE:
  Exposes the recurring-transaction engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Templates:
    GET    /api/templates                List all templates
    POST   /api/templates                Create template
    GET    /api/templates/{id}           Get template details
    POST   /api/templates/{id}/generate  Generate expected transactions

  Generation:
    POST   /api/generate                 Batch-generate for all active templates

  Expected transactions:
    GET    /api/expected                 List rows for a user + date window
    GET    /api/expected/{id}            Get one row
    POST   /api/expected/{id}/confirm    Match against a real transaction
    POST   /api/expected/{id}/cancel     Cancel with a reason
    POST   /api/expected/{id}/adjust     Change the expected amount
    POST   /api/expected/{id}/complete   Settle a confirmed row

  Forecasts:
    GET    /api/forecast/cashflow        Net expected cash movement
    GET    /api/forecast/categories      Per-category breakdown

ERROR HANDLING:
  Domain errors map to HTTP status via the forecast package's classifiers:
  - 400: validation errors, invalid input
  - 404: template or expected transaction not found
  - 409: conflicting lifecycle transition
  - 503: transient store failure (client may retry)
  - 500: everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - batch.go: Interval-based automatic generation
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/forecast-engine/forecast"
)

// defaultDaysInAdvance is applied when a create request omits the horizon.
const defaultDaysInAdvance = 30

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      forecast.TxStore
	Generator  *forecast.Generator
	Scheduler  *forecast.Scheduler
	Lifecycle  *forecast.Lifecycle
	Aggregator *forecast.Aggregator
}

// NewHandler creates a new handler with the given store.
func NewHandler(store forecast.TxStore, config forecast.SchedulerConfig) *Handler {
	return &Handler{
		Store:      store,
		Generator:  forecast.NewGenerator(store),
		Scheduler:  forecast.NewScheduler(store, config),
		Lifecycle:  forecast.NewLifecycle(store),
		Aggregator: forecast.NewAggregator(store),
	}
}

// =============================================================================
// TEMPLATE HANDLERS
// =============================================================================

// ListTemplates returns all templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Store.ListTemplates(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTOs(templates))
}

// GetTemplate returns a single template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := forecast.TemplateID(chi.URLParam(r, "id"))

	tpl, err := h.Store.FindTemplate(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get template", err)
		return
	}
	if tpl == nil {
		writeError(w, http.StatusNotFound, "Template not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toTemplateDTO(*tpl))
}

// CreateTemplate creates a new recurring transaction template.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tpl, err := templateFromRequest(req)
	if err != nil {
		writeDomainError(w, "Invalid template", err)
		return
	}
	if err := tpl.Validate(); err != nil {
		writeDomainError(w, "Invalid template", err)
		return
	}

	if err := h.Store.SaveTemplate(r.Context(), tpl); err != nil {
		writeDomainError(w, "Failed to save template", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTemplateDTO(tpl))
}

func templateFromRequest(req CreateTemplateRequest) (forecast.RecurringTransactionTemplate, error) {
	var tpl forecast.RecurringTransactionTemplate

	startDate, err := forecast.ParseDate(req.StartDate)
	if err != nil {
		return tpl, &forecast.ValidationError{Field: "start_date", Message: err.Error()}
	}

	var endDate *forecast.Date
	if req.EndDate != "" {
		d, err := forecast.ParseDate(req.EndDate)
		if err != nil {
			return tpl, &forecast.ValidationError{Field: "end_date", Message: err.Error()}
		}
		endDate = &d
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return tpl, &forecast.ValidationError{Field: "amount", Message: "must be a decimal string"}
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	daysInAdvance := req.DaysInAdvance
	if daysInAdvance <= 0 {
		daysInAdvance = defaultDaysInAdvance
	}
	autoGenerate := true
	if req.AutoGenerate != nil {
		autoGenerate = *req.AutoGenerate
	}

	now := time.Now().UTC()
	return forecast.RecurringTransactionTemplate{
		ID:                 forecast.TemplateID(id),
		AccountID:          forecast.AccountID(req.AccountID),
		UserID:             forecast.UserID(req.UserID),
		Frequency:          forecast.Frequency(req.Frequency),
		CustomIntervalDays: req.CustomIntervalDays,
		StartDate:          startDate,
		EndDate:            endDate,
		NextExecutionDate:  startDate,
		IsActive:           true,
		AutoGenerate:       autoGenerate,
		DaysInAdvance:      daysInAdvance,
		Amount:             amount,
		TransactionType:    forecast.TransactionType(req.TransactionType),
		Category:           req.Category,
		Notes:              req.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// =============================================================================
// GENERATION HANDLERS
// =============================================================================

// GenerateTemplate materializes expected transactions for one template.
// POST /api/templates/{id}/generate
func (h *Handler) GenerateTemplate(w http.ResponseWriter, r *http.Request) {
	id := forecast.TemplateID(chi.URLParam(r, "id"))

	created, err := h.Generator.GenerateForTemplate(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResultDTO{
		TemplateID: string(id),
		Created:    created,
	})
}

// GenerateAll runs batch generation across all active templates.
// POST /api/generate
func (h *Handler) GenerateAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.Scheduler.GenerateForAllActiveTemplates(r.Context())
	if err != nil {
		writeDomainError(w, "Batch generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toBatchReportDTO(report))
}

// =============================================================================
// EXPECTED TRANSACTION HANDLERS
// =============================================================================

// ListExpected returns a user's expected transactions in a date window.
// GET /api/expected?user_id=u1&from=2024-01-01&to=2024-03-31
func (h *Handler) ListExpected(w http.ResponseWriter, r *http.Request) {
	userID, from, to, err := parseWindow(r)
	if err != nil {
		writeDomainError(w, "Invalid query", err)
		return
	}

	rows, err := h.Store.QueryByUserAndDateRange(r.Context(), userID, from, to)
	if err != nil {
		writeDomainError(w, "Failed to list expected transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, toExpectedDTOs(rows))
}

// GetExpected returns one expected transaction.
func (h *Handler) GetExpected(w http.ResponseWriter, r *http.Request) {
	id := forecast.ExpectedID(chi.URLParam(r, "id"))

	row, err := h.Store.FindExpected(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get expected transaction", err)
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "Expected transaction not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toExpectedDTO(*row))
}

// ConfirmExpected matches an expected transaction with a real one.
// POST /api/expected/{id}/confirm
func (h *Handler) ConfirmExpected(w http.ResponseWriter, r *http.Request) {
	id := forecast.ExpectedID(chi.URLParam(r, "id"))

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Lifecycle.Confirm(r.Context(), id, req.ActualTransactionID); err != nil {
		writeDomainError(w, "Confirm failed", err)
		return
	}

	h.writeUpdatedExpected(w, r, id)
}

// CancelExpected cancels an expected transaction.
// POST /api/expected/{id}/cancel
func (h *Handler) CancelExpected(w http.ResponseWriter, r *http.Request) {
	id := forecast.ExpectedID(chi.URLParam(r, "id"))

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Lifecycle.Cancel(r.Context(), id, req.Reason); err != nil {
		writeDomainError(w, "Cancel failed", err)
		return
	}

	h.writeUpdatedExpected(w, r, id)
}

// AdjustExpected changes the expected amount of a pending row.
// POST /api/expected/{id}/adjust
func (h *Handler) AdjustExpected(w http.ResponseWriter, r *http.Request) {
	id := forecast.ExpectedID(chi.URLParam(r, "id"))

	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Amount must be a decimal string", err)
		return
	}

	if err := h.Lifecycle.Adjust(r.Context(), id, amount, req.Reason); err != nil {
		writeDomainError(w, "Adjust failed", err)
		return
	}

	h.writeUpdatedExpected(w, r, id)
}

// CompleteExpected settles a confirmed expected transaction.
// POST /api/expected/{id}/complete
func (h *Handler) CompleteExpected(w http.ResponseWriter, r *http.Request) {
	id := forecast.ExpectedID(chi.URLParam(r, "id"))

	if err := h.Lifecycle.Complete(r.Context(), id); err != nil {
		writeDomainError(w, "Complete failed", err)
		return
	}

	h.writeUpdatedExpected(w, r, id)
}

func (h *Handler) writeUpdatedExpected(w http.ResponseWriter, r *http.Request, id forecast.ExpectedID) {
	row, err := h.Store.FindExpected(r.Context(), id)
	if err != nil || row == nil {
		// The mutation committed; reading back is best-effort.
		writeJSON(w, http.StatusOK, map[string]string{"id": string(id), "status": "updated"})
		return
	}
	writeJSON(w, http.StatusOK, toExpectedDTO(*row))
}

// =============================================================================
// FORECAST HANDLERS
// =============================================================================

// CashFlow returns the net expected cash movement for a user's window.
// GET /api/forecast/cashflow?user_id=u1&from=2024-01-01&to=2024-03-31
func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	userID, from, to, err := parseWindow(r)
	if err != nil {
		writeDomainError(w, "Invalid query", err)
		return
	}

	net, err := h.Aggregator.CashFlowForecast(r.Context(), userID, from, to)
	if err != nil {
		writeDomainError(w, "Forecast failed", err)
		return
	}

	writeJSON(w, http.StatusOK, CashFlowForecastDTO{
		UserID:  string(userID),
		From:    from.String(),
		To:      to.String(),
		NetFlow: net,
	})
}

// Categories returns per-category expected cash movement for a user's window.
// GET /api/forecast/categories?user_id=u1&from=2024-01-01&to=2024-03-31
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	userID, from, to, err := parseWindow(r)
	if err != nil {
		writeDomainError(w, "Invalid query", err)
		return
	}

	byCategory, err := h.Aggregator.CategoryForecast(r.Context(), userID, from, to)
	if err != nil {
		writeDomainError(w, "Forecast failed", err)
		return
	}

	writeJSON(w, http.StatusOK, CategoryForecastDTO{
		UserID:     string(userID),
		From:       from.String(),
		To:         to.String(),
		Categories: byCategory,
	})
}

// parseWindow extracts the user_id/from/to query triple shared by the list
// and forecast endpoints.
func parseWindow(r *http.Request) (forecast.UserID, forecast.Date, forecast.Date, error) {
	q := r.URL.Query()

	userID := q.Get("user_id")
	if userID == "" {
		return "", forecast.Date{}, forecast.Date{}, &forecast.ValidationError{Field: "user_id", Message: "required"}
	}
	from, err := forecast.ParseDate(q.Get("from"))
	if err != nil {
		return "", forecast.Date{}, forecast.Date{}, &forecast.ValidationError{Field: "from", Message: err.Error()}
	}
	to, err := forecast.ParseDate(q.Get("to"))
	if err != nil {
		return "", forecast.Date{}, forecast.Date{}, &forecast.ValidationError{Field: "to", Message: err.Error()}
	}
	if to.Before(from) {
		return "", forecast.Date{}, forecast.Date{}, &forecast.ValidationError{Field: "to", Message: "must not precede from"}
	}

	return forecast.UserID(userID), from, to, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error classes to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case forecast.IsValidation(err):
		writeErrorWithCode(w, http.StatusBadRequest, "validation", message, err)
	case forecast.IsNotFound(err):
		writeErrorWithCode(w, http.StatusNotFound, "not_found", message, err)
	case forecast.IsConflict(err):
		writeErrorWithCode(w, http.StatusConflict, "conflict", message, err)
	case forecast.IsRetryable(err):
		writeErrorWithCode(w, http.StatusServiceUnavailable, "transient", message, err)
	default:
		writeErrorWithCode(w, http.StatusInternalServerError, "internal", message, err)
	}
}

func writeErrorWithCode(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
