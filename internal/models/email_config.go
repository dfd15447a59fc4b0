package models

import (
	"time"

	"github.com/GregMSThompson/spendwise/internal/taxonomy"
)

type EmailConfig struct {
	UserID               string               `firestore:"userId" json:"userId"` // doc ID
	Email                string               `firestore:"email" json:"email"`
	IMAP                 IMAPConfig           `firestore:"imapConfig" json:"imapConfig"`
	IsActive             bool                 `firestore:"isActive" json:"isActive"`
	LastProcessedAt      *time.Time           `firestore:"lastProcessedAt,omitempty" json:"lastProcessedAt,omitempty"`
	SupportedBanks       []taxonomy.Platform  `firestore:"supportedBanks" json:"supportedBanks"`
	NotificationSettings NotificationSettings `firestore:"notificationSettings" json:"notificationSettings"`
	CreatedAt            time.Time            `firestore:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time            `firestore:"updatedAt" json:"updatedAt"`
}

// IMAPConfig holds connection parameters only. The password lives in Secret Manager.
type IMAPConfig struct {
	Host        string `firestore:"host" json:"host"`
	Port        int    `firestore:"port" json:"port"`
	Secure      bool   `firestore:"secure" json:"secure"`
	User        string `firestore:"user" json:"user"`
	HasPassword bool   `firestore:"hasPassword" json:"hasPassword"`
}

type NotificationSettings struct {
	SMSEnabled     bool   `firestore:"smsEnabled" json:"smsEnabled"`
	DailySummary   bool   `firestore:"dailySummary" json:"dailySummary"`
	WeeklyReport   bool   `firestore:"weeklyReport" json:"weeklyReport"`
	SpendingAlerts bool   `firestore:"spendingAlerts" json:"spendingAlerts"`
	Phone          string `firestore:"phone" json:"phone,omitempty"`
}

// CanText reports whether any SMS may be sent to this user at all.
func (n NotificationSettings) CanText() bool {
	return n.SMSEnabled && n.Phone != ""
}

// NotificationFlag selects which configs a scheduled task iterates.
type NotificationFlag string

const (
	FlagNone           NotificationFlag = ""
	FlagDailySummary   NotificationFlag = "dailySummary"
	FlagWeeklyReport   NotificationFlag = "weeklyReport"
	FlagSpendingAlerts NotificationFlag = "spendingAlerts"
)
