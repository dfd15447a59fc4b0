// Package extract turns payment notification mail into candidate transactions.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/GregMSThompson/spendwise/internal/taxonomy"
)

// Candidate is an extracted, not yet categorised, transaction.
type Candidate struct {
	Platform     taxonomy.Platform
	Amount       decimal.Decimal
	MerchantName string
	ExternalID   string
	Date         time.Time
	Description  string
	Channel      taxonomy.Channel
}

var dateLayouts = []string{"2/1/2006", "2-1-2006"}

// Extract runs text through Templates. The bool is false for mail that is not a
// recognisable payment notification; callers skip those silently.
func Extract(text string, now time.Time) (Candidate, bool) {
	return ExtractWith(Templates, text, now)
}

func ExtractWith(templates []Template, text string, now time.Time) (Candidate, bool) {
	text = norm.NFKC.String(text)
	lower := strings.ToLower(text)

	tpl, ok := detect(templates, lower)
	if !ok {
		return Candidate{}, false
	}

	amount, ok := parseAmount(firstGroup(tpl.Amount, text))
	if !ok {
		return Candidate{}, false
	}
	merchant := strings.TrimSpace(firstGroup(tpl.Merchant, text))
	if merchant == "" {
		return Candidate{}, false
	}
	externalID := strings.TrimSpace(firstGroup(tpl.TransactionID, text))
	if externalID == "" {
		return Candidate{}, false
	}

	return Candidate{
		Platform:     tpl.Platform,
		Amount:       amount,
		MerchantName: merchant,
		ExternalID:   externalID,
		Date:         parseDate(firstGroup(tpl.Date, text), now),
		Description:  fmt.Sprintf("%s payment", tpl.Platform),
		Channel:      tpl.Channel,
	}, true
}

func detect(templates []Template, lower string) (Template, bool) {
	for _, tpl := range templates {
		for _, kw := range tpl.Keywords {
			if strings.Contains(lower, kw) {
				return tpl, true
			}
		}
	}
	return Template{}, false
}

// firstGroup returns the first non-empty capture group of the leftmost match.
func firstGroup(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	for i := 1; i < len(m); i++ {
		if m[i] != "" {
			return m[i]
		}
	}
	return ""
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// parseDate reads day-first dates as Indian providers write them; anything
// unreadable falls back to now.
func parseDate(raw string, now time.Time) time.Time {
	if raw == "" {
		return now
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t
		}
	}
	return now
}
