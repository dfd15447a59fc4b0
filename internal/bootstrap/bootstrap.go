package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	imapclient "github.com/GregMSThompson/spendwise/internal/client/imap"
	"github.com/GregMSThompson/spendwise/internal/config"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

type Bootstrap struct {
	Log       *slog.Logger
	Location  *time.Location
	Firestore *firestore.Client
	Firebase  *auth.Client
	KMS       *gcpkms.KeyManagementClient
	Secrets   *secretmanager.Client
	AI        TextGenerator
	SMS       SMSSender
	Mail      *imapclient.Dialer
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.HandlerFor(cfg.LogFormat))
	bs.Location, err = time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return bs, err
	}
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.KMS, err = InitKMS(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.Secrets, err = InitSecretManager(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.AI, err = InitTextGenerator(applicationCtx, bs.Log, cfg)
	if err != nil {
		return bs, err
	}
	bs.SMS = InitSMS(bs.Log, cfg)
	bs.Mail = imapclient.NewDialer(bs.Log, cfg.MailDialTimeout)

	bs.Log.Info("bootstrap complete",
		"project", cfg.ProjectID,
		"ai_provider", cfg.AIProvider,
		"sms", cfg.SMSConfigured(),
		"timezone", cfg.TimeZone,
	)
	return bs, nil
}

// Close releases every client that was opened. It is safe after a partial Run.
func (bs *Bootstrap) Close() error {
	var errList []error
	if bs.AI != nil {
		errList = append(errList, bs.AI.Close())
	}
	if bs.Secrets != nil {
		errList = append(errList, bs.Secrets.Close())
	}
	if bs.KMS != nil {
		errList = append(errList, bs.KMS.Close())
	}
	if bs.Firestore != nil {
		errList = append(errList, bs.Firestore.Close())
	}
	return errors.Join(errList...)
}
