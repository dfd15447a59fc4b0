package extract

import (
	"regexp"

	"github.com/GregMSThompson/spendwise/internal/taxonomy"
)

// Template describes how to read one provider's notification mail.
// Amount may have several capture groups; the first non-empty one wins.
type Template struct {
	Platform      taxonomy.Platform
	Keywords      []string // lowercase
	Amount        *regexp.Regexp
	Merchant      *regexp.Regexp
	TransactionID *regexp.Regexp
	Date          *regexp.Regexp
	Channel       taxonomy.Channel
}

const (
	amountNumber = `(\d+(?:,\d+)*(?:\.\d{1,2})?)`
	amountInline = `(?:₹|Rs\.?)\s*\d+(?:,\d+)*(?:\.\d{1,2})?\s+`
)

var datePattern = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4})`)

// Templates are tried in order. A mail naming two providers resolves to the earlier one.
var Templates = []Template{
	{
		Platform:      taxonomy.PlatformPaytm,
		Keywords:      []string{"paytm"},
		Amount:        regexp.MustCompile(`(?i)Rs\.?\s*` + amountNumber + `|₹\s*` + amountNumber),
		Merchant:      regexp.MustCompile(`(?i)(?:paid to|sent to)\s+([^.]+?)(?:\s+on|\s+via|\.|$)`),
		TransactionID: regexp.MustCompile(`(?i)(?:paytm txn id|transaction id|txn id)[\s:]+([a-zA-Z0-9]+)`),
		Date:          datePattern,
		Channel:       taxonomy.ChannelUPI,
	},
	{
		Platform:      taxonomy.PlatformPhonePe,
		Keywords:      []string{"phonepe"},
		Amount:        regexp.MustCompile(`(?i)₹\s*` + amountNumber + `|Rs\.?\s*` + amountNumber),
		Merchant:      regexp.MustCompile(`(?i)(?:paid|sent)\s+(?:` + amountInline + `)?to\s+([^.]+?)(?:\s+via|\s+on|\.|$)`),
		TransactionID: regexp.MustCompile(`(?i)(?:utr|ref no|transaction id)[\s:.]+([a-zA-Z0-9]+)`),
		Date:          datePattern,
		Channel:       taxonomy.ChannelUPI,
	},
	{
		Platform:      taxonomy.PlatformGPay,
		Keywords:      []string{"gpay", "google pay"},
		Amount:        regexp.MustCompile(`(?i)₹\s*` + amountNumber + `|Rs\.?\s*` + amountNumber),
		Merchant:      regexp.MustCompile(`(?i)(?:paid|sent)\s+(?:` + amountInline + `)?to\s+([^.]+?)(?:\s+via|\s+using|\.|$)`),
		TransactionID: regexp.MustCompile(`(?i)(?:google transaction id|transaction id|utr)[\s:]+([a-zA-Z0-9]+)`),
		Date:          datePattern,
		Channel:       taxonomy.ChannelUPI,
	},
	{
		Platform: taxonomy.PlatformAmazon,
		Keywords: []string{"amazon"},
		Amount:   regexp.MustCompile(`(?i)₹\s*` + amountNumber + `|Rs\.?\s*` + amountNumber),
		Merchant: regexp.MustCompile(`(?i)\b(amazon(?:\.in|\s+pay)?)\b`),
		// Order words are common in prose, so an ID must contain a digit.
		TransactionID: regexp.MustCompile(`(?i)(?:order|transaction)(?:\s+id)?[\s#:]+([a-zA-Z-]*\d[a-zA-Z0-9-]*)`),
		Date:          datePattern,
		Channel:       taxonomy.ChannelUPI,
	},
}
