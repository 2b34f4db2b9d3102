/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Templates:
    TemplateDTO, CreateTemplateRequest, UpdateTemplateRequest

  Expected transactions:
    ExpectedTransactionDTO, ConfirmRequest, CancelRequest, AdjustRequest

  Generation:
    GenerateResultDTO, BatchReportDTO, TemplateOutcomeDTO

  Forecasts:
    CashFlowForecastDTO, CategoryForecastDTO

MONEY ENCODING:
  Amounts are decimal strings on the wire ("1250.00"), never JSON floats.
  shopspring/decimal marshals quoted by default, which is what we want.

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - forecast/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/forecast-engine/forecast"
)

// =============================================================================
// TEMPLATE TYPES
// =============================================================================

// TemplateDTO represents a recurring transaction template in API responses.
type TemplateDTO struct {
	ID                 string          `json:"id"`
	AccountID          string          `json:"account_id"`
	UserID             string          `json:"user_id"`
	Frequency          string          `json:"frequency"`
	CustomIntervalDays int             `json:"custom_interval_days,omitempty"`
	StartDate          string          `json:"start_date"`
	EndDate            *string         `json:"end_date,omitempty"`
	NextExecutionDate  string          `json:"next_execution_date"`
	IsActive           bool            `json:"is_active"`
	AutoGenerate       bool            `json:"auto_generate"`
	DaysInAdvance      int             `json:"days_in_advance"`
	Amount             decimal.Decimal `json:"amount"`
	TransactionType    string          `json:"transaction_type"`
	Category           string          `json:"category,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          string          `json:"created_at,omitempty"`
	UpdatedAt          string          `json:"updated_at,omitempty"`
}

// CreateTemplateRequest is the request to create a template.
type CreateTemplateRequest struct {
	ID                 string `json:"id,omitempty"` // generated when empty
	AccountID          string `json:"account_id"`
	UserID             string `json:"user_id"`
	Frequency          string `json:"frequency"`
	CustomIntervalDays int    `json:"custom_interval_days,omitempty"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date,omitempty"`
	DaysInAdvance      int    `json:"days_in_advance,omitempty"`
	Amount             string `json:"amount"`
	TransactionType    string `json:"transaction_type"`
	Category           string `json:"category,omitempty"`
	Notes              string `json:"notes,omitempty"`
	AutoGenerate       *bool  `json:"auto_generate,omitempty"` // default true
}

// =============================================================================
// EXPECTED TRANSACTION TYPES
// =============================================================================

// ExpectedTransactionDTO represents a materialized occurrence.
type ExpectedTransactionDTO struct {
	ID                  string           `json:"id"`
	TemplateID          string           `json:"template_id"`
	AccountID           string           `json:"account_id"`
	UserID              string           `json:"user_id"`
	ExpectedDate        string           `json:"expected_date"`
	ExpectedAmount      decimal.Decimal  `json:"expected_amount"`
	Description         string           `json:"description,omitempty"`
	Category            string           `json:"category,omitempty"`
	TransactionType     string           `json:"transaction_type"`
	Status              string           `json:"status"`
	ActualTransactionID string           `json:"actual_transaction_id,omitempty"`
	IsAdjusted          bool             `json:"is_adjusted"`
	OriginalAmount      *decimal.Decimal `json:"original_amount,omitempty"`
	AdjustmentReason    string           `json:"adjustment_reason,omitempty"`
	GeneratedAt         string           `json:"generated_at"`
	ProcessedAt         *string          `json:"processed_at,omitempty"`
}

// ConfirmRequest matches an expected transaction with a real one.
type ConfirmRequest struct {
	ActualTransactionID string `json:"actual_transaction_id"`
}

// CancelRequest drops an expected transaction from the forecast.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// AdjustRequest changes the expected amount of a pending row.
type AdjustRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// =============================================================================
// GENERATION TYPES
// =============================================================================

// GenerateResultDTO is the result of generating one template.
type GenerateResultDTO struct {
	TemplateID string `json:"template_id"`
	Created    int    `json:"created"`
}

// TemplateOutcomeDTO is one template's result inside a batch run.
type TemplateOutcomeDTO struct {
	TemplateID string `json:"template_id"`
	Created    int    `json:"created"`
	Error      string `json:"error,omitempty"`
}

// BatchReportDTO summarizes a batch generation run.
type BatchReportDTO struct {
	StartedAt    string               `json:"started_at"`
	FinishedAt   string               `json:"finished_at"`
	Succeeded    int                  `json:"succeeded"`
	Failed       int                  `json:"failed"`
	TotalCreated int                  `json:"total_created"`
	Outcomes     []TemplateOutcomeDTO `json:"outcomes"`
}

// =============================================================================
// FORECAST TYPES
// =============================================================================

// CashFlowForecastDTO is the net expected cash movement over a window.
type CashFlowForecastDTO struct {
	UserID  string          `json:"user_id"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	NetFlow decimal.Decimal `json:"net_flow"`
}

// CategoryForecastDTO groups expected cash movement by category.
type CategoryForecastDTO struct {
	UserID     string                     `json:"user_id"`
	From       string                     `json:"from"`
	To         string                     `json:"to"`
	Categories map[string]decimal.Decimal `json:"categories"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTemplateDTO(tpl forecast.RecurringTransactionTemplate) TemplateDTO {
	dto := TemplateDTO{
		ID:                 string(tpl.ID),
		AccountID:          string(tpl.AccountID),
		UserID:             string(tpl.UserID),
		Frequency:          string(tpl.Frequency),
		CustomIntervalDays: tpl.CustomIntervalDays,
		StartDate:          tpl.StartDate.String(),
		NextExecutionDate:  tpl.NextExecutionDate.String(),
		IsActive:           tpl.IsActive,
		AutoGenerate:       tpl.AutoGenerate,
		DaysInAdvance:      tpl.DaysInAdvance,
		Amount:             tpl.Amount,
		TransactionType:    string(tpl.TransactionType),
		Category:           tpl.Category,
		Notes:              tpl.Notes,
		CreatedAt:          tpl.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          tpl.UpdatedAt.Format(time.RFC3339),
	}
	if tpl.EndDate != nil {
		s := tpl.EndDate.String()
		dto.EndDate = &s
	}
	return dto
}

func toTemplateDTOs(templates []forecast.RecurringTransactionTemplate) []TemplateDTO {
	dtos := make([]TemplateDTO, len(templates))
	for i, tpl := range templates {
		dtos[i] = toTemplateDTO(tpl)
	}
	return dtos
}

func toExpectedDTO(row forecast.ExpectedTransaction) ExpectedTransactionDTO {
	dto := ExpectedTransactionDTO{
		ID:                  string(row.ID),
		TemplateID:          string(row.TemplateID),
		AccountID:           string(row.AccountID),
		UserID:              string(row.UserID),
		ExpectedDate:        row.ExpectedDate.String(),
		ExpectedAmount:      row.ExpectedAmount,
		Description:         row.Description,
		Category:            row.Category,
		TransactionType:     string(row.TransactionType),
		Status:              string(row.Status),
		ActualTransactionID: row.ActualTransactionID,
		IsAdjusted:          row.IsAdjusted,
		OriginalAmount:      row.OriginalAmount,
		AdjustmentReason:    row.AdjustmentReason,
		GeneratedAt:         row.GeneratedAt.Format(time.RFC3339),
	}
	if row.ProcessedAt != nil {
		s := row.ProcessedAt.Format(time.RFC3339)
		dto.ProcessedAt = &s
	}
	return dto
}

func toExpectedDTOs(rows []forecast.ExpectedTransaction) []ExpectedTransactionDTO {
	dtos := make([]ExpectedTransactionDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toExpectedDTO(row)
	}
	return dtos
}

func toBatchReportDTO(report *forecast.Report) BatchReportDTO {
	dto := BatchReportDTO{
		StartedAt:    report.StartedAt.Format(time.RFC3339),
		FinishedAt:   report.FinishedAt.Format(time.RFC3339),
		Succeeded:    report.Succeeded(),
		Failed:       report.Failed(),
		TotalCreated: report.TotalCreated(),
		Outcomes:     make([]TemplateOutcomeDTO, len(report.Outcomes)),
	}
	for i, o := range report.Outcomes {
		out := TemplateOutcomeDTO{
			TemplateID: string(o.TemplateID),
			Created:    o.Created,
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		dto.Outcomes[i] = out
	}
	return dto
}
