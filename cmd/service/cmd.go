// Command service runs the automation scheduler without the HTTP API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // distroless images ship no zoneinfo

	"github.com/joho/godotenv"

	"github.com/GregMSThompson/spendwise/internal/bootstrap"
	"github.com/GregMSThompson/spendwise/internal/config"
	"github.com/GregMSThompson/spendwise/internal/crypto"
	"github.com/GregMSThompson/spendwise/internal/scheduler"
	"github.com/GregMSThompson/spendwise/internal/services"
	"github.com/GregMSThompson/spendwise/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
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

	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)

	// stores
	txstore := store.NewUPITransactionStore(bs.Firestore, kmsHelper)
	cfgstore := store.NewEmailConfigStore(bs.Firestore)
	secstore := store.NewMailboxSecretsStore(bs.Secrets, cfg.ProjectID)

	// services
	catserv := services.NewCategorizerService(bs.AI)
	ingserv := services.NewIngestionService(cfgstore, secstore, bs.Mail, txstore, catserv, bs.Location)
	notserv := services.NewNotificationService(txstore, cfgstore, bs.AI, bs.SMS, bs.Location)
	autserv := services.NewAutomationService(cfgstore, ingserv, notserv)

	sched, err := scheduler.New(bs.Log, bs.Location, scheduler.AutomationTasks(autserv)...)
	exitOnError("scheduler setup failed", err, bs.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sched.Run(ctx)
}
