package dto

import (
	"math"
	"time"

	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit within Firestore's int32 offset.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

type TransactionQuery struct {
	Category  *taxonomy.Category
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

type TransactionPage struct {
	Transactions      []models.UPITransaction `json:"transactions"`
	CurrentPage       int                     `json:"currentPage"`
	TotalPages        int                     `json:"totalPages"`
	TotalTransactions int                     `json:"totalTransactions"`
}

type VerifyTransactionRequest struct {
	Verified *bool   `json:"verified" validate:"required"`
	Category *string `json:"category,omitempty" validate:"omitempty,oneof=Food Travel Shopping Entertainment Bills Healthcare Education Other"`
}

type ProcessEmailsResult struct {
	ProcessedCount int                     `json:"processedCount"`
	Transactions   []models.UPITransaction `json:"transactions"`
}

type TriggerResult struct {
	ProcessedCount int  `json:"processedCount"`
	SummarySent    bool `json:"summarySent"`
}
