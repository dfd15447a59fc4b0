package dto

type EmailConfigRequest struct {
	Email                string                       `json:"email" validate:"required,email"`
	IMAP                 IMAPConfigRequest            `json:"imapConfig" validate:"required"`
	SupportedBanks       []string                     `json:"supportedBanks" validate:"omitempty,dive,oneof=PAYTM PHONEPE GPAY AMAZON FLIPKART SBI HDFC ICICI AXIS"`
	NotificationSettings *NotificationSettingsRequest `json:"notificationSettings"`
	IsActive             *bool                        `json:"isActive"`
}

type IMAPConfigRequest struct {
	Host     string `json:"host" validate:"required,hostname"`
	Port     int    `json:"port" validate:"omitempty,min=1,max=65535"`
	Secure   *bool  `json:"secure"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// NotificationSettingsRequest uses pointers so omitted flags default to on.
type NotificationSettingsRequest struct {
	SMSEnabled     *bool  `json:"smsEnabled"`
	DailySummary   *bool  `json:"dailySummary"`
	WeeklyReport   *bool  `json:"weeklyReport"`
	SpendingAlerts *bool  `json:"spendingAlerts"`
	Phone          string `json:"phone" validate:"omitempty,e164"`
}
