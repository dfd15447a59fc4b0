package handlers

import (
	"log/slog"
	"time"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/spendwise/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Firebase        *auth.Client
	Location        *time.Location

	UserSvc         UserService
	SpendwiseSvc    spendwiseService
	AnalyticsSvc    analyticsService
	IngestionSvc    ingestionService
	AutomationSvc   automationService
	NotificationSvc summaryService
	LedgerSvc       ledgerService
}

func (d *Deps) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}
