package models

import (
	"time"

	"github.com/GregMSThompson/spendwise/internal/taxonomy"
)

// Defaults applied to machine-created transactions.
const (
	DefaultConfidence = 0.8
)

type UPITransaction struct {
	TransactionID string            `firestore:"transactionId" json:"transactionId"` // internal uuid (doc ID)
	UserID        string            `firestore:"userId" json:"userId"`
	ExternalID    string            `firestore:"externalId" json:"externalId"` // provider reference, globally unique
	Amount        float64           `firestore:"amount" json:"amount"`
	MerchantName  string            `firestore:"merchantName" json:"merchantName"`
	Category      taxonomy.Category `firestore:"category" json:"category"`
	PaymentMethod taxonomy.Channel  `firestore:"paymentMethod" json:"paymentMethod"`
	Platform      taxonomy.Platform `firestore:"platform" json:"platform"`
	Date          time.Time         `firestore:"date" json:"date"`
	Description   string            `firestore:"description" json:"description"`
	IsAutomated   bool              `firestore:"isAutomated" json:"isAutomated"`
	Confidence    float64           `firestore:"confidence" json:"confidence"`
	Verified      bool              `firestore:"verified" json:"verified"`
	RawSource     string            `firestore:"rawSource" json:"-"` // KMS ciphertext
	CreatedAt     time.Time         `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time         `firestore:"updatedAt" json:"updatedAt"`
}

// TransactionClaim reserves an external ID across all users.
type TransactionClaim struct {
	UserID        string    `firestore:"userId"`
	TransactionID string    `firestore:"transactionId"`
	CreatedAt     time.Time `firestore:"createdAt"`
}
