package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/models"
)

// emailConfigStore keys configs by uid, which makes Upsert the only way to
// write one and rules out a second config per user.
type emailConfigStore struct {
	client *firestore.Client
}

func NewEmailConfigStore(client *firestore.Client) *emailConfigStore {
	return &emailConfigStore{client: client}
}

func (s *emailConfigStore) collection() *firestore.CollectionRef {
	return s.client.Collection("email_configs")
}

func (s *emailConfigStore) Upsert(ctx context.Context, cfg *models.EmailConfig) error {
	now := time.Now()
	ref := s.collection().Doc(cfg.UserID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var existing models.EmailConfig
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			cfg.CreatedAt = existing.CreatedAt
			if cfg.LastProcessedAt == nil {
				cfg.LastProcessedAt = existing.LastProcessedAt
			}
		case status.Code(err) == codes.NotFound:
			cfg.CreatedAt = now
		default:
			return err
		}
		cfg.UpdatedAt = now
		return tx.Set(ref, cfg)
	})
	if err != nil {
		return errs.NewDatabaseError("upsert", "failed to save email config", err)
	}
	return nil
}

func (s *emailConfigStore) Get(ctx context.Context, uid string) (*models.EmailConfig, error) {
	doc, err := s.collection().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("email config not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get email config", err)
	}
	var cfg models.EmailConfig
	if err := doc.DataTo(&cfg); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse email config", err)
	}
	return &cfg, nil
}

// ListActive loads every active config, optionally narrowed to those with a
// notification flag set. The list is materialised up front so no query stays
// open while slow mailbox work runs per user.
func (s *emailConfigStore) ListActive(ctx context.Context, flag models.NotificationFlag) ([]models.EmailConfig, error) {
	query := s.collection().Where("isActive", "==", true)
	if flag != models.FlagNone {
		query = query.Where("notificationSettings."+string(flag), "==", true)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []models.EmailConfig
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list email configs", err)
		}
		var cfg models.EmailConfig
		if err := doc.DataTo(&cfg); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse email config", err)
		}
		out = append(out, cfg)
	}
}

func (s *emailConfigStore) TouchProcessed(ctx context.Context, uid string, at time.Time) error {
	_, err := s.collection().Doc(uid).Update(ctx, []firestore.Update{
		{Path: "lastProcessedAt", Value: at},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return errs.NewDatabaseError("update", "failed to stamp last processed time", err)
	}
	return nil
}
