package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
)

type stubSpendwiseService struct {
	lastQuery     dto.TransactionQuery
	lastVerifyID  string
	lastVerifyReq dto.VerifyTransactionRequest
	lastConfigReq dto.EmailConfigRequest
	saveCalled    bool
	err           error
}

func (s *stubSpendwiseService) ListTransactions(_ context.Context, _ string, q dto.TransactionQuery) (dto.TransactionPage, error) {
	s.lastQuery = q
	return dto.TransactionPage{CurrentPage: 1}, s.err
}

func (s *stubSpendwiseService) VerifyTransaction(_ context.Context, _, id string, req dto.VerifyTransactionRequest) (*models.UPITransaction, error) {
	s.lastVerifyID = id
	s.lastVerifyReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.UPITransaction{TransactionID: id, Verified: *req.Verified}, nil
}

func (s *stubSpendwiseService) GetEmailConfig(_ context.Context, uid string) (*models.EmailConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.EmailConfig{UserID: uid}, nil
}

func (s *stubSpendwiseService) SaveEmailConfig(_ context.Context, uid string, req dto.EmailConfigRequest) (*models.EmailConfig, error) {
	s.saveCalled = true
	s.lastConfigReq = req
	return &models.EmailConfig{UserID: uid, Email: req.Email}, s.err
}

type stubPipeline struct {
	txs        []models.UPITransaction
	err        error
	period     int
	summaryDay time.Time
}

func (s *stubPipeline) ProcessUser(context.Context, string) ([]models.UPITransaction, error) {
	return s.txs, s.err
}

func (s *stubPipeline) TriggerUser(context.Context, string) (dto.TriggerResult, error) {
	return dto.TriggerResult{ProcessedCount: len(s.txs), SummarySent: true}, s.err
}

func (s *stubPipeline) GetAnalytics(_ context.Context, _ string, period int) (dto.Analytics, error) {
	s.period = period
	return dto.Analytics{PeriodDays: period}, s.err
}

func (s *stubPipeline) BuildDailySummary(_ context.Context, _ string, date time.Time) (dto.DailySummaryResult, error) {
	s.summaryDay = date
	return dto.DailySummaryResult{Date: date.Format(time.DateOnly)}, s.err
}

func newSpendwise(svc *stubSpendwiseService, p *stubPipeline, resp *stubResponseHandler) *spendwiseHandlers {
	return NewSpendwiseHandlers(&Deps{
		ResponseHandler: resp,
		SpendwiseSvc:    svc,
		AnalyticsSvc:    p,
		IngestionSvc:    p,
		AutomationSvc:   p,
		NotificationSvc: p,
	})
}

func TestListTransactionsParsesQuery(t *testing.T) {
	svc := &stubSpendwiseService{}
	resp := &stubResponseHandler{}
	h := newSpendwise(svc, &stubPipeline{}, resp)

	req := httptest.NewRequest(http.MethodGet, "/transactions?page=2&limit=50&category=Food&startDate=2024-05-01&endDate=2024-05-31", nil)
	h.ListTransactions(httptest.NewRecorder(), withUID(req, "uid-1"))

	if !resp.writeSuccessCalled {
		t.Fatalf("expected success, got %v", resp.handleError)
	}
	q := svc.lastQuery
	if q.Page != 2 || q.Limit != 50 {
		t.Fatalf("page/limit = %d/%d", q.Page, q.Limit)
	}
	if q.Category == nil || *q.Category != taxonomy.CategoryFood {
		t.Fatalf("category = %v", q.Category)
	}
	if q.StartDate == nil || q.StartDate.Format(time.DateOnly) != "2024-05-01" {
		t.Fatalf("start = %v", q.StartDate)
	}
	if q.EndDate == nil || q.EndDate.Format(time.DateOnly) != "2024-05-31" || q.EndDate.Hour() != 23 {
		t.Fatalf("end = %v", q.EndDate)
	}
}

func TestListTransactionsCategoryAllIgnored(t *testing.T) {
	svc := &stubSpendwiseService{}
	h := newSpendwise(svc, &stubPipeline{}, &stubResponseHandler{})

	h.ListTransactions(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodGet, "/transactions?category=all", nil), "uid-1"))
	if svc.lastQuery.Category != nil {
		t.Fatalf("category=all should not filter")
	}
}

func TestListTransactionsRejectsBadQuery(t *testing.T) {
	for _, qs := range []string{"page=x", "limit=-1", "category=Groceries", "startDate=01-05-2024", "endDate=tomorrow"} {
		t.Run(qs, func(t *testing.T) {
			resp := &stubResponseHandler{}
			h := newSpendwise(&stubSpendwiseService{}, &stubPipeline{}, resp)
			h.ListTransactions(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodGet, "/transactions?"+qs, nil), "uid-1"))
			if !resp.isValidation() {
				t.Fatalf("expected ValidationError, got %v", resp.handleError)
			}
		})
	}
}

func TestVerifyTransaction(t *testing.T) {
	svc := &stubSpendwiseService{}
	resp := &stubResponseHandler{}
	h := newSpendwise(svc, &stubPipeline{}, resp)

	req := httptest.NewRequest(http.MethodPut, "/transactions/tx-1/verify", strings.NewReader(`{"verified":true,"category":"Bills"}`))
	req = withChiParam(withUID(req, "uid-1"), "id", "tx-1")
	h.VerifyTransaction(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled || svc.lastVerifyID != "tx-1" {
		t.Fatalf("verify not forwarded: %v", resp.handleError)
	}
	if svc.lastVerifyReq.Category == nil || *svc.lastVerifyReq.Category != "Bills" {
		t.Fatalf("category not forwarded: %+v", svc.lastVerifyReq)
	}
}

func TestVerifyTransactionInvalidBody(t *testing.T) {
	for name, body := range map[string]string{
		"missing verified": `{"category":"Food"}`,
		"unknown category": `{"verified":true,"category":"Groceries"}`,
		"wrong type":       `{"verified":"yes"}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &stubSpendwiseService{}
			resp := &stubResponseHandler{}
			h := newSpendwise(svc, &stubPipeline{}, resp)

			req := withChiParam(httptest.NewRequest(http.MethodPut, "/transactions/tx-1/verify", strings.NewReader(body)), "id", "tx-1")
			h.VerifyTransaction(httptest.NewRecorder(), req)

			if !resp.isValidation() || svc.lastVerifyID != "" {
				t.Fatalf("expected rejection before service call, got %v", resp.handleError)
			}
		})
	}
}

func TestSaveEmailConfigValidation(t *testing.T) {
	valid := `{"email":"me@example.com","imapConfig":{"host":"imap.gmail.com","user":"me@example.com","password":"app-pass"},"notificationSettings":{"phone":"+919800000000"}}`
	invalid := map[string]string{
		"bad email":     `{"email":"nope","imapConfig":{"host":"imap.gmail.com","user":"u","password":"p"}}`,
		"no password":   `{"email":"me@example.com","imapConfig":{"host":"imap.gmail.com","user":"u"}}`,
		"bad host":      `{"email":"me@example.com","imapConfig":{"host":"not a host!","user":"u","password":"p"}}`,
		"bad bank":      `{"email":"me@example.com","imapConfig":{"host":"imap.gmail.com","user":"u","password":"p"},"supportedBanks":["CRYPTO"]}`,
		"bad phone":     `{"email":"me@example.com","imapConfig":{"host":"imap.gmail.com","user":"u","password":"p"},"notificationSettings":{"phone":"98000"}}`,
		"port too high": `{"email":"me@example.com","imapConfig":{"host":"imap.gmail.com","port":70000,"user":"u","password":"p"}}`,
	}

	svc := &stubSpendwiseService{}
	resp := &stubResponseHandler{}
	h := newSpendwise(svc, &stubPipeline{}, resp)
	h.SaveEmailConfig(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodPost, "/email-config", strings.NewReader(valid)), "uid-1"))
	if !resp.writeSuccessCalled || svc.lastConfigReq.IMAP.Password != "app-pass" {
		t.Fatalf("valid config rejected: %v", resp.handleError)
	}

	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			svc := &stubSpendwiseService{}
			resp := &stubResponseHandler{}
			h := newSpendwise(svc, &stubPipeline{}, resp)
			h.SaveEmailConfig(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodPost, "/email-config", strings.NewReader(body)), "uid-1"))
			if !resp.isValidation() || svc.saveCalled {
				t.Fatalf("expected ValidationError without save, got %v", resp.handleError)
			}
		})
	}
}

func TestProcessEmails(t *testing.T) {
	p := &stubPipeline{txs: []models.UPITransaction{{TransactionID: "a"}, {TransactionID: "b"}}}
	resp := &stubResponseHandler{}
	h := newSpendwise(&stubSpendwiseService{}, p, resp)

	h.ProcessEmails(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodPost, "/process-emails", nil), "uid-1"))

	result, ok := resp.writeSuccessData.(dto.ProcessEmailsResult)
	if !ok || result.ProcessedCount != 2 {
		t.Fatalf("unexpected result: %#v", resp.writeSuccessData)
	}
}

func TestProcessEmailsMissingConfig(t *testing.T) {
	p := &stubPipeline{err: errs.NewConfigNotFoundError()}
	resp := &stubResponseHandler{}
	h := newSpendwise(&stubSpendwiseService{}, p, resp)

	h.ProcessEmails(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodPost, "/process-emails", nil), "uid-1"))
	if !resp.handleErrorCalled || resp.writeSuccessCalled {
		t.Fatalf("expected error to be delegated")
	}
}

func TestAnalyticsAndDailySummaryParams(t *testing.T) {
	p := &stubPipeline{}
	resp := &stubResponseHandler{}
	h := newSpendwise(&stubSpendwiseService{}, p, resp)

	h.GetAnalytics(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodGet, "/analytics?period=7", nil), "uid-1"))
	if p.period != 7 {
		t.Fatalf("period = %d", p.period)
	}

	h.DailySummary(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodGet, "/summary/daily?date=2024-05-12", nil), "uid-1"))
	if p.summaryDay.Format(time.DateOnly) != "2024-05-12" {
		t.Fatalf("summary day = %v", p.summaryDay)
	}

	bad := &stubResponseHandler{}
	h = newSpendwise(&stubSpendwiseService{}, p, bad)
	h.DailySummary(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodGet, "/summary/daily?date=12/05/2024", nil), "uid-1"))
	if !bad.isValidation() {
		t.Fatalf("expected ValidationError for bad date")
	}
}
