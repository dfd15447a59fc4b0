package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/models"
)

type ledgerStore struct {
	client *firestore.Client
}

func NewLedgerStore(client *firestore.Client) *ledgerStore {
	return &ledgerStore{client: client}
}

func (s *ledgerStore) collection(uid string, kind models.LedgerKind) *firestore.CollectionRef {
	name := "expenses"
	if kind == models.LedgerIncome {
		name = "incomes"
	}
	return s.client.Collection("users").Doc(uid).Collection(name)
}

func (s *ledgerStore) Create(ctx context.Context, uid string, e *models.LedgerEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.UserID = uid
	_, err := s.collection(uid, e.Kind).Doc(e.EntryID).Create(ctx, e)
	if err != nil {
		return errs.NewDatabaseError("create", fmt.Sprintf("failed to save %s", e.Kind), err)
	}
	return nil
}

// List returns entries newest first; limit <= 0 means all of them.
func (s *ledgerStore) List(ctx context.Context, uid string, kind models.LedgerKind, limit int) ([]models.LedgerEntry, error) {
	query := s.collection(uid, kind).OrderBy("date", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return s.collect(ctx, query, kind)
}

// ListCreatedSince selects by creation time, matching how entries are
// counted on the dashboard.
func (s *ledgerStore) ListCreatedSince(ctx context.Context, uid string, kind models.LedgerKind, since time.Time) ([]models.LedgerEntry, error) {
	query := s.collection(uid, kind).
		Where("createdAt", ">=", since).
		OrderBy("createdAt", firestore.Desc)
	return s.collect(ctx, query, kind)
}

func (s *ledgerStore) collect(ctx context.Context, query firestore.Query, kind models.LedgerKind) ([]models.LedgerEntry, error) {
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", fmt.Sprintf("failed to list %s", kind), err)
	}
	out := make([]models.LedgerEntry, 0, len(docs))
	for _, d := range docs {
		var e models.LedgerEntry
		if err := d.DataTo(&e); err != nil {
			return nil, errs.NewDatabaseError("read", fmt.Sprintf("failed to parse %s data", kind), err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *ledgerStore) Sum(ctx context.Context, uid string, kind models.LedgerKind) (float64, error) {
	res, err := s.collection(uid, kind).NewAggregationQuery().WithSum("amount", "total").Get(ctx)
	if err != nil {
		return 0, errs.NewDatabaseError("read", fmt.Sprintf("failed to total %s", kind), err)
	}
	return aggregateFloat(res["total"]), nil
}

// Delete only reaches documents under uid, so one user cannot remove another's entry.
func (s *ledgerStore) Delete(ctx context.Context, uid string, kind models.LedgerKind, entryID string) error {
	_, err := s.collection(uid, kind).Doc(entryID).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError(fmt.Sprintf("%s not found", kind))
		}
		return errs.NewDatabaseError("delete", fmt.Sprintf("failed to delete %s", kind), err)
	}
	return nil
}
