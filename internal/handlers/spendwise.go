package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/middleware"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/response"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
)

type spendwiseService interface {
	ListTransactions(ctx context.Context, uid string, q dto.TransactionQuery) (dto.TransactionPage, error)
	VerifyTransaction(ctx context.Context, uid, id string, req dto.VerifyTransactionRequest) (*models.UPITransaction, error)
	GetEmailConfig(ctx context.Context, uid string) (*models.EmailConfig, error)
	SaveEmailConfig(ctx context.Context, uid string, req dto.EmailConfigRequest) (*models.EmailConfig, error)
}

type analyticsService interface {
	GetAnalytics(ctx context.Context, uid string, period int) (dto.Analytics, error)
}

type ingestionService interface {
	ProcessUser(ctx context.Context, uid string) ([]models.UPITransaction, error)
}

type automationService interface {
	TriggerUser(ctx context.Context, uid string) (dto.TriggerResult, error)
}

type summaryService interface {
	BuildDailySummary(ctx context.Context, uid string, date time.Time) (dto.DailySummaryResult, error)
}

type spendwiseHandlers struct {
	ResponseHandler response.ResponseHandler
	SpendwiseSvc    spendwiseService
	AnalyticsSvc    analyticsService
	IngestionSvc    ingestionService
	AutomationSvc   automationService
	SummarySvc      summaryService
	loc             *time.Location
	clockNow        func() time.Time
}

func NewSpendwiseHandlers(deps *Deps) *spendwiseHandlers {
	return &spendwiseHandlers{
		ResponseHandler: deps.ResponseHandler,
		SpendwiseSvc:    deps.SpendwiseSvc,
		AnalyticsSvc:    deps.AnalyticsSvc,
		IngestionSvc:    deps.IngestionSvc,
		AutomationSvc:   deps.AutomationSvc,
		SummarySvc:      deps.NotificationSvc,
		loc:             deps.location(),
		clockNow:        time.Now,
	}
}

func (h *spendwiseHandlers) SpendwiseRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/transactions", h.ListTransactions)
	r.Put("/transactions/{id}/verify", h.VerifyTransaction)
	r.Get("/analytics", h.GetAnalytics)
	r.Post("/process-emails", h.ProcessEmails)
	r.Post("/trigger", h.Trigger)
	r.Get("/email-config", h.GetEmailConfig)
	r.Post("/email-config", h.SaveEmailConfig)
	r.Get("/summary/daily", h.DailySummary)
	return r
}

func (h *spendwiseHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := h.transactionQuery(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	page, err := h.SpendwiseSvc.ListTransactions(r.Context(), uid, q)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, page)
}

func (h *spendwiseHandlers) transactionQuery(r *http.Request) (dto.TransactionQuery, error) {
	params := r.URL.Query()
	var q dto.TransactionQuery
	var err error

	if q.Page, err = intParam(params.Get("page"), "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(params.Get("limit"), "limit"); err != nil {
		return q, err
	}

	if c := params.Get("category"); c != "" && c != "all" {
		category, ok := taxonomy.ParseCategory(c)
		if !ok {
			return q, errs.NewValidationError("unknown category " + c)
		}
		q.Category = &category
	}

	if s := params.Get("startDate"); s != "" {
		start, err := time.ParseInLocation(time.DateOnly, s, h.loc)
		if err != nil {
			return q, errs.NewValidationError("startDate must be YYYY-MM-DD")
		}
		q.StartDate = &start
	}
	if s := params.Get("endDate"); s != "" {
		day, err := time.ParseInLocation(time.DateOnly, s, h.loc)
		if err != nil {
			return q, errs.NewValidationError("endDate must be YYYY-MM-DD")
		}
		// endDate is inclusive of the whole day.
		end := day.AddDate(0, 0, 1).Add(-time.Millisecond)
		q.EndDate = &end
	}
	return q, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.NewValidationError(name + " must be a non-negative integer")
	}
	return n, nil
}

func (h *spendwiseHandlers) VerifyTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	id := chi.URLParam(r, "id")
	tx, err := h.SpendwiseSvc.VerifyTransaction(r.Context(), uid, id, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tx)
}

func (h *spendwiseHandlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	period, err := intParam(r.URL.Query().Get("period"), "period")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	analytics, err := h.AnalyticsSvc.GetAnalytics(r.Context(), uid, period)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, analytics)
}

func (h *spendwiseHandlers) ProcessEmails(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	txs, err := h.IngestionSvc.ProcessUser(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.ProcessEmailsResult{
		ProcessedCount: len(txs),
		Transactions:   txs,
	})
}

func (h *spendwiseHandlers) Trigger(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	result, err := h.AutomationSvc.TriggerUser(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}

func (h *spendwiseHandlers) GetEmailConfig(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	cfg, err := h.SpendwiseSvc.GetEmailConfig(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, cfg)
}

func (h *spendwiseHandlers) SaveEmailConfig(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	cfg, err := h.SpendwiseSvc.SaveEmailConfig(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, cfg)
}

func (h *spendwiseHandlers) DailySummary(w http.ResponseWriter, r *http.Request) {
	date := h.clockNow()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, h.loc)
		if err != nil {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationError("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	uid := middleware.UID(r.Context())
	summary, err := h.SummarySvc.BuildDailySummary(r.Context(), uid, date)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, summary)
}
