package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

type rawSealer interface {
	Seal(ctx context.Context, uid, plaintext string) (string, error)
}

type upiTransactionStore struct {
	client *firestore.Client
	sealer rawSealer
}

// NewUPITransactionStore stores raw mail through sealer; a nil sealer keeps raw text out of Firestore entirely.
func NewUPITransactionStore(client *firestore.Client, sealer rawSealer) *upiTransactionStore {
	return &upiTransactionStore{client: client, sealer: sealer}
}

func (s *upiTransactionStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("upi_transactions")
}

func (s *upiTransactionStore) claims() *firestore.CollectionRef {
	return s.client.Collection("upi_transaction_ids")
}

var safeDocID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,200}$`)

// claimID maps an external ID onto a legal Firestore document ID.
func claimID(externalID string) string {
	reserved := strings.HasPrefix(externalID, "__") && strings.HasSuffix(externalID, "__")
	if safeDocID.MatchString(externalID) && !reserved {
		return externalID
	}
	sum := sha256.Sum256([]byte(externalID))
	return "h_" + hex.EncodeToString(sum[:])
}

var errDuplicate = errors.New("external id already claimed")

// InsertIfNew writes t unless its external ID has been seen before, for any
// user. It returns nil, nil for a duplicate. The claim document and the
// transaction are created in one Firestore transaction, so a concurrent
// writer of the same ID either fails its read or its commit.
func (s *upiTransactionStore) InsertIfNew(ctx context.Context, uid string, t *models.UPITransaction) (*models.UPITransaction, error) {
	log := logger.FromContext(ctx)

	rec := *t
	rec.UserID = uid
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	if rec.RawSource != "" {
		if s.sealer == nil {
			rec.RawSource = ""
		} else {
			sealed, err := s.sealer.Seal(ctx, uid, rec.RawSource)
			if err != nil {
				return nil, err
			}
			rec.RawSource = sealed
		}
	}

	claimRef := s.claims().Doc(claimID(rec.ExternalID))
	docRef := s.collection(uid).Doc(rec.TransactionID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(claimRef); err == nil {
			return errDuplicate
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		if err := tx.Create(claimRef, models.TransactionClaim{
			UserID:        uid,
			TransactionID: rec.TransactionID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}
		return tx.Create(docRef, rec)
	})
	switch {
	case err == nil:
	case errors.Is(err, errDuplicate), status.Code(err) == codes.AlreadyExists:
		log.Debug("transaction already present", "external_id", rec.ExternalID)
		return nil, nil
	default:
		return nil, errs.NewDatabaseError("create", "failed to save transaction", err)
	}

	rec.RawSource = ""
	return &rec, nil
}

// Exists is a cheap pre-check; InsertIfNew remains the authority.
func (s *upiTransactionStore) Exists(ctx context.Context, externalID string) (bool, error) {
	_, err := s.claims().Doc(claimID(externalID)).Get(ctx)
	if err == nil {
		return true, nil
	}
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return false, errs.NewDatabaseError("read", "failed to check transaction id", err)
}

func (s *upiTransactionStore) filtered(uid string, q dto.TransactionQuery) firestore.Query {
	query := s.collection(uid).Query
	if q.Category != nil {
		query = query.Where("category", "==", string(*q.Category))
	}
	if q.StartDate != nil {
		query = query.Where("date", ">=", *q.StartDate)
	}
	if q.EndDate != nil {
		query = query.Where("date", "<=", *q.EndDate)
	}
	return query
}

func (s *upiTransactionStore) Find(ctx context.Context, uid string, q dto.TransactionQuery) (dto.TransactionPage, error) {
	page := dto.TransactionPage{CurrentPage: q.Page, Transactions: []models.UPITransaction{}}
	if page.CurrentPage < 1 {
		page.CurrentPage = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = dto.DefaultPageLimit
	}

	base := s.filtered(uid, q)

	res, err := base.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return page, errs.NewDatabaseError("read", "failed to count transactions", err)
	}
	page.TotalTransactions = int(aggregateInt(res["total"]))
	page.TotalPages = (page.TotalTransactions + limit - 1) / limit

	iter := base.OrderBy("date", firestore.Desc).
		Offset((page.CurrentPage - 1) * limit).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return page, errs.NewDatabaseError("read", "failed to list transactions", err)
		}
		var t models.UPITransaction
		if err := doc.DataTo(&t); err != nil {
			return page, errs.NewDatabaseError("read", "failed to parse transaction data", err)
		}
		page.Transactions = append(page.Transactions, t)
	}
	return page, nil
}

// FindInWindow returns transactions dated within [start, end], newest first.
func (s *upiTransactionStore) FindInWindow(ctx context.Context, uid string, start, end time.Time) ([]models.UPITransaction, error) {
	docs, err := s.filtered(uid, dto.TransactionQuery{StartDate: &start, EndDate: &end}).
		OrderBy("date", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list transactions in window", err)
	}
	out := make([]models.UPITransaction, 0, len(docs))
	for _, d := range docs {
		var t models.UPITransaction
		if err := d.DataTo(&t); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse transaction data", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *upiTransactionStore) UpdateVerification(ctx context.Context, uid, id string, verified bool, category *taxonomy.Category) (*models.UPITransaction, error) {
	ref := s.collection(uid).Doc(id)
	var out models.UPITransaction

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if err := snap.DataTo(&out); err != nil {
			return err
		}
		now := time.Now()
		updates := []firestore.Update{
			{Path: "verified", Value: verified},
			{Path: "updatedAt", Value: now},
		}
		out.Verified = verified
		out.UpdatedAt = now
		if category != nil {
			updates = append(updates, firestore.Update{Path: "category", Value: string(*category)})
			out.Category = *category
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("transaction not found")
		}
		return nil, errs.NewDatabaseError("update", "failed to update transaction", err)
	}
	return &out, nil
}

// aggregateInt reads a COUNT or SUM result, which arrives as a protobuf value.
func aggregateInt(v any) int64 {
	switch val := v.(type) {
	case *firestorepb.Value:
		return val.GetIntegerValue()
	case int64:
		return val
	default:
		return 0
	}
}

func aggregateFloat(v any) float64 {
	switch val := v.(type) {
	case *firestorepb.Value:
		if _, ok := val.GetValueType().(*firestorepb.Value_DoubleValue); ok {
			return val.GetDoubleValue()
		}
		return float64(val.GetIntegerValue())
	case float64:
		return val
	case int64:
		return float64(val)
	default:
		return 0
	}
}
