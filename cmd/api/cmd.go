package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/GregMSThompson/spendwise/internal/bootstrap"
	"github.com/GregMSThompson/spendwise/internal/config"
	"github.com/GregMSThompson/spendwise/internal/crypto"
	"github.com/GregMSThompson/spendwise/internal/handlers"
	"github.com/GregMSThompson/spendwise/internal/response"
	"github.com/GregMSThompson/spendwise/internal/router"
	"github.com/GregMSThompson/spendwise/internal/scheduler"
	"github.com/GregMSThompson/spendwise/internal/services"
	"github.com/GregMSThompson/spendwise/internal/store"
)

const shutdownTimeout = 15 * time.Second

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// local runs only; Cloud Run injects the environment
	_ = godotenv.Load()

	// bootstrap
	cfg, err := config.New()
	exitOnError("config invalid", err, slog.Default())
	bs, err := bootstrap.Run(cfg)
	if err != nil {
		bs.Close()
	}
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// helpers
	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	txstore := store.NewUPITransactionStore(bs.Firestore, kmsHelper)
	cfgstore := store.NewEmailConfigStore(bs.Firestore)
	secstore := store.NewMailboxSecretsStore(bs.Secrets, cfg.ProjectID)
	lstore := store.NewLedgerStore(bs.Firestore)

	// services
	userv := services.NewUserService(ustore)
	catserv := services.NewCategorizerService(bs.AI)
	ingserv := services.NewIngestionService(cfgstore, secstore, bs.Mail, txstore, catserv, bs.Location)
	notserv := services.NewNotificationService(txstore, cfgstore, bs.AI, bs.SMS, bs.Location)
	autserv := services.NewAutomationService(cfgstore, ingserv, notserv)
	anserv := services.NewAnalyticsService(txstore, bs.Location)
	swserv := services.NewSpendwiseService(txstore, cfgstore, secstore)
	lserv := services.NewLedgerService(lstore, bs.Location)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.Location = bs.Location
	deps.UserSvc = userv
	deps.SpendwiseSvc = swserv
	deps.AnalyticsSvc = anserv
	deps.IngestionSvc = ingserv
	deps.AutomationSvc = autserv
	deps.NotificationSvc = notserv
	deps.LedgerSvc = lserv

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// scheduler
	schedDone := make(chan struct{})
	if cfg.SchedulerEnabled {
		sched, err := scheduler.New(bs.Log, bs.Location, scheduler.AutomationTasks(autserv)...)
		exitOnError("scheduler setup failed", err, bs.Log)
		go func() {
			defer close(schedDone)
			sched.Run(ctx)
		}()
	} else {
		close(schedDone)
	}

	// router
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		bs.Log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			bs.Log.Error("server start failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	bs.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		bs.Log.Error("server shutdown failed", "error", err)
	}
	<-schedDone
}
