package scheduler

import (
	"context"

	"github.com/GregMSThompson/spendwise/internal/services"
)

type automation interface {
	ProcessAll(ctx context.Context) (services.CycleReport, error)
	SendDailySummaries(ctx context.Context) (services.CycleReport, error)
	SendWeeklyReports(ctx context.Context) (services.CycleReport, error)
}

// AutomationTasks binds the three recurring automation jobs to their schedules.
func AutomationTasks(a automation) []Task {
	return []Task{
		{Name: "process-emails", Spec: ProcessEmailsSpec, Run: cycle(a.ProcessAll)},
		{Name: "daily-summary", Spec: DailySummarySpec, Run: cycle(a.SendDailySummaries)},
		{Name: "weekly-report", Spec: WeeklyReportSpec, Run: cycle(a.SendWeeklyReports)},
	}
}

// cycle drops the report; the automation service logs it per pass.
func cycle(fn func(context.Context) (services.CycleReport, error)) Job {
	return func(ctx context.Context) error {
		_, err := fn(ctx)
		return err
	}
}
