package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
	"github.com/GregMSThompson/spendwise/pkg/helpers"
)

type fakeIngester struct {
	results map[string][]models.UPITransaction
	fail    map[string]error
	calls   []string
	onCall  func(uid string)
}

func (f *fakeIngester) ProcessUser(_ context.Context, uid string) ([]models.UPITransaction, error) {
	f.calls = append(f.calls, uid)
	if f.onCall != nil {
		f.onCall(uid)
	}
	if err := f.fail[uid]; err != nil {
		return nil, err
	}
	return f.results[uid], nil
}

type fakeNotifier struct {
	daily  []string
	weekly []string
	alerts []models.UPITransaction
	fail   map[string]error
}

func (f *fakeNotifier) SendDailySummary(_ context.Context, uid string, _ *time.Time) (bool, error) {
	if err := f.fail[uid]; err != nil {
		return false, err
	}
	f.daily = append(f.daily, uid)
	return true, nil
}

func (f *fakeNotifier) SendWeeklySummary(_ context.Context, uid string) (bool, error) {
	if err := f.fail[uid]; err != nil {
		return false, err
	}
	f.weekly = append(f.weekly, uid)
	return true, nil
}

func (f *fakeNotifier) SendSpendingAlert(_ context.Context, _ string, tx models.UPITransaction) (bool, error) {
	f.alerts = append(f.alerts, tx)
	return tx.Amount > 500, nil
}

func configsFor(uids ...string) *fakeConfigStore {
	out := &fakeConfigStore{}
	for _, uid := range uids {
		out.active = append(out.active, *activeConfig(uid))
	}
	return out
}

func TestProcessAllContinuesPastFailingUser(t *testing.T) {
	ing := &fakeIngester{
		results: map[string][]models.UPITransaction{
			"u1": {tx("a", 700, taxonomy.CategoryShopping, "Croma", time.Now())},
			"u3": {tx("b", 90, taxonomy.CategoryFood, "Swiggy", time.Now()), tx("c", 40, taxonomy.CategoryFood, "Zomato", time.Now())},
		},
		fail: map[string]error{"u2": errors.New("imap: authentication failed")},
	}
	notify := &fakeNotifier{}
	svc := NewAutomationService(configsFor("u1", "u2", "u3"), ing, notify)

	report, err := svc.ProcessAll(helpers.TestCtx())
	if err != nil {
		t.Fatalf("ProcessAll: %v", err)
	}
	if len(ing.calls) != 3 {
		t.Fatalf("ingested %v, want all three users", ing.calls)
	}
	if report.Users != 3 || report.Failed != 1 || report.Produced != 3 {
		t.Fatalf("report = %+v", report)
	}
	if len(notify.alerts) != 3 {
		t.Fatalf("alert checks = %d, want one per new transaction", len(notify.alerts))
	}
}

func TestProcessAllStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(helpers.TestCtx())
	defer cancel()

	ing := &fakeIngester{onCall: func(uid string) {
		if uid == "u2" {
			cancel()
		}
	}}
	svc := NewAutomationService(configsFor("u1", "u2", "u3", "u4"), ing, &fakeNotifier{})

	report, err := svc.ProcessAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(ing.calls) != 2 || report.Users != 2 {
		t.Fatalf("calls = %v, report = %+v; want stop after u2", ing.calls, report)
	}
}

func TestProcessAllListFailure(t *testing.T) {
	cfgs := &fakeConfigStore{err: errors.New("firestore unavailable")}
	ing := &fakeIngester{}
	svc := NewAutomationService(cfgs, ing, &fakeNotifier{})

	if _, err := svc.ProcessAll(helpers.TestCtx()); err == nil {
		t.Fatalf("expected error")
	}
	if len(ing.calls) != 0 {
		t.Fatalf("no users should be processed")
	}
}

func TestSendDailyAndWeekly(t *testing.T) {
	notify := &fakeNotifier{fail: map[string]error{"u1": errors.New("twilio down")}}
	svc := NewAutomationService(configsFor("u1", "u2"), &fakeIngester{}, notify)

	daily, err := svc.SendDailySummaries(helpers.TestCtx())
	if err != nil {
		t.Fatalf("SendDailySummaries: %v", err)
	}
	if daily.Failed != 1 || daily.Produced != 1 || len(notify.daily) != 1 || notify.daily[0] != "u2" {
		t.Fatalf("daily report = %+v, sent = %v", daily, notify.daily)
	}

	weekly, err := svc.SendWeeklyReports(helpers.TestCtx())
	if err != nil {
		t.Fatalf("SendWeeklyReports: %v", err)
	}
	if weekly.Produced != 1 || len(notify.weekly) != 1 {
		t.Fatalf("weekly report = %+v, sent = %v", weekly, notify.weekly)
	}
}

func TestTriggerUser(t *testing.T) {
	ing := &fakeIngester{results: map[string][]models.UPITransaction{
		"u1": {tx("a", 10, taxonomy.CategoryFood, "Swiggy", time.Now())},
	}}
	notify := &fakeNotifier{}
	svc := NewAutomationService(configsFor(), ing, notify)

	got, err := svc.TriggerUser(helpers.TestCtx(), "u1")
	if err != nil {
		t.Fatalf("TriggerUser: %v", err)
	}
	if got.ProcessedCount != 1 || !got.SummarySent {
		t.Fatalf("result = %+v", got)
	}

	ing.fail = map[string]error{"u1": errors.New("boom")}
	if _, err := svc.TriggerUser(helpers.TestCtx(), "u1"); err == nil {
		t.Fatalf("expected ingest error")
	}
	if len(notify.daily) != 1 {
		t.Fatalf("summary should not be sent after failed ingest")
	}
}
