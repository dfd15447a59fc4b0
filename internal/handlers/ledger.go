package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/middleware"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/response"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ledgerService interface {
	AddEntry(ctx context.Context, uid string, kind models.LedgerKind, req dto.LedgerEntryRequest) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, uid string, kind models.LedgerKind) ([]models.LedgerEntry, error)
	DeleteEntry(ctx context.Context, uid string, kind models.LedgerKind, entryID string) error
	ExportEntries(ctx context.Context, uid string, kind models.LedgerKind) ([]byte, error)
	Dashboard(ctx context.Context, uid string) (dto.Dashboard, error)
}

// ledgerHandlers serves one ledger kind; income and expense mount separate instances.
type ledgerHandlers struct {
	ResponseHandler response.ResponseHandler
	LedgerSvc       ledgerService
	Kind            models.LedgerKind
}

func NewLedgerHandlers(deps *Deps, kind models.LedgerKind) *ledgerHandlers {
	return &ledgerHandlers{
		ResponseHandler: deps.ResponseHandler,
		LedgerSvc:       deps.LedgerSvc,
		Kind:            kind,
	}
}

func (h *ledgerHandlers) LedgerRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.AddEntry)
	r.Get("/", h.ListEntries)
	r.Get("/export", h.ExportEntries) // must be before /{id}
	r.Delete("/{id}", h.DeleteEntry)
	return r
}

func (h *ledgerHandlers) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.LedgerEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	entry, err := h.LedgerSvc.AddEntry(r.Context(), uid, h.Kind, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, entry)
}

func (h *ledgerHandlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	entries, err := h.LedgerSvc.ListEntries(r.Context(), uid, h.Kind)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, entries)
}

func (h *ledgerHandlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.LedgerSvc.DeleteEntry(r.Context(), uid, h.Kind, id); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *ledgerHandlers) ExportEntries(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	data, err := h.LedgerSvc.ExportEntries(r.Context(), uid, h.Kind)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_details.xlsx", h.Kind))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.FromContext(r.Context()).Warn("failed to write export", "kind", h.Kind, "error", err)
	}
}

type dashboardHandlers struct {
	ResponseHandler response.ResponseHandler
	LedgerSvc       ledgerService
}

func NewDashboardHandlers(deps *Deps) *dashboardHandlers {
	return &dashboardHandlers{
		ResponseHandler: deps.ResponseHandler,
		LedgerSvc:       deps.LedgerSvc,
	}
}

func (h *dashboardHandlers) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetDashboard)
	return r
}

func (h *dashboardHandlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	dash, err := h.LedgerSvc.Dashboard(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dash)
}
