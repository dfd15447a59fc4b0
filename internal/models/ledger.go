package models

import "time"

type LedgerKind string

const (
	LedgerIncome  LedgerKind = "income"
	LedgerExpense LedgerKind = "expense"
)

// LedgerEntry is a manually recorded income or expense. Label is the income
// source or the expense category.
type LedgerEntry struct {
	EntryID   string     `firestore:"entryId" json:"entryId"`
	UserID    string     `firestore:"userId" json:"userId"`
	Kind      LedgerKind `firestore:"kind" json:"kind"`
	Label     string     `firestore:"label" json:"label"`
	Icon      string     `firestore:"icon,omitempty" json:"icon,omitempty"`
	Amount    float64    `firestore:"amount" json:"amount"`
	Date      time.Time  `firestore:"date" json:"date"`
	CreatedAt time.Time  `firestore:"createdAt" json:"createdAt"`
}
