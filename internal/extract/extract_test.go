package extract

import (
	"testing"
	"time"

	"github.com/GregMSThompson/spendwise/internal/taxonomy"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

func TestExtractProviders(t *testing.T) {
	now := time.Date(2024, time.May, 20, 9, 0, 0, 0, ist)

	cases := []struct {
		name       string
		text       string
		platform   taxonomy.Platform
		amount     string
		merchant   string
		externalID string
		date       time.Time
	}{
		{
			name:       "paytm",
			text:       "Paytm: Rs. 1,250.50 paid to Swiggy on 12/05/2024. Transaction ID: PTM9876543",
			platform:   taxonomy.PlatformPaytm,
			amount:     "1250.5",
			merchant:   "Swiggy",
			externalID: "PTM9876543",
			date:       time.Date(2024, time.May, 12, 0, 0, 0, 0, ist),
		},
		{
			name:       "phonepe",
			text:       "PhonePe\nPaid Rs 499 to Uber India via UPI. UTR: 412345678901",
			platform:   taxonomy.PlatformPhonePe,
			amount:     "499",
			merchant:   "Uber India",
			externalID: "412345678901",
			date:       now,
		},
		{
			name:       "google pay display name",
			text:       "Google Pay\nYou paid ₹350 to Chai Point using your bank account. UPI transaction ID: 998877665544 on 03-05-2024",
			platform:   taxonomy.PlatformGPay,
			amount:     "350",
			merchant:   "Chai Point",
			externalID: "998877665544",
			date:       time.Date(2024, time.May, 3, 0, 0, 0, 0, ist),
		},
		{
			name:       "amazon",
			text:       "Your Amazon.in order has been placed. Order #403-1234567-7654321 Total ₹2,199.00",
			platform:   taxonomy.PlatformAmazon,
			amount:     "2199",
			merchant:   "Amazon.in",
			externalID: "403-1234567-7654321",
			date:       now,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Extract(tc.text, now)
			if !ok {
				t.Fatalf("expected a match")
			}
			if got.Platform != tc.platform {
				t.Fatalf("platform = %s, want %s", got.Platform, tc.platform)
			}
			if got.Amount.String() != tc.amount {
				t.Fatalf("amount = %s, want %s", got.Amount, tc.amount)
			}
			if got.MerchantName != tc.merchant {
				t.Fatalf("merchant = %q, want %q", got.MerchantName, tc.merchant)
			}
			if got.ExternalID != tc.externalID {
				t.Fatalf("external id = %q, want %q", got.ExternalID, tc.externalID)
			}
			if !got.Date.Equal(tc.date) {
				t.Fatalf("date = %v, want %v", got.Date, tc.date)
			}
			if got.Channel != taxonomy.ChannelUPI {
				t.Fatalf("channel = %s", got.Channel)
			}
			if got.Description != string(tc.platform)+" payment" {
				t.Fatalf("description = %q", got.Description)
			}
		})
	}
}

func TestExtractNoMatch(t *testing.T) {
	now := time.Now()
	cases := map[string]string{
		"no provider keyword": "Your electricity bill of Rs. 900 is due. Reference: ABC123",
		"missing amount":      "Paytm: paid to Swiggy. Transaction ID: PTM1",
		"missing merchant":    "Paytm: Rs. 100 debited. Transaction ID: PTM2",
		"missing id":          "Paytm: Rs. 100 paid to Swiggy.",
		"zero amount":         "Paytm: Rs. 0 paid to Swiggy. Transaction ID: PTM3",
		"promotional mail":    "PhonePe and Google Pay offers this week. Paid ₹20 to Shop via GPay.",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			if c, ok := Extract(text, now); ok {
				t.Fatalf("expected no match, got %+v", c)
			}
		})
	}
}

func TestExtractFirstTemplateWins(t *testing.T) {
	text := "Paytm: Rs. 500 paid to Amazon on 01/05/2024. Txn ID: PA1"
	got, ok := Extract(text, time.Now())
	if !ok {
		t.Fatalf("expected match")
	}
	if got.Platform != taxonomy.PlatformPaytm {
		t.Fatalf("platform = %s, want PAYTM", got.Platform)
	}
	if got.MerchantName != "Amazon" {
		t.Fatalf("merchant = %q", got.MerchantName)
	}
}

func TestExtractNormalisesNonBreakingSpace(t *testing.T) {
	text := "Paytm: Rs.\u00a0300 paid to\u00a0Metro Card on 01/05/2024. Txn ID: M77"
	got, ok := Extract(text, time.Now())
	if !ok {
		t.Fatalf("expected match")
	}
	if got.Amount.String() != "300" || got.MerchantName != "Metro Card" || got.ExternalID != "M77" {
		t.Fatalf("unexpected candidate: %+v", got)
	}
}

func TestParseAmount(t *testing.T) {
	if d, ok := parseAmount("12,34,567.89"); !ok || d.String() != "1234567.89" {
		t.Fatalf("indian grouping: %v %v", d, ok)
	}
	for _, raw := range []string{"", "abc", "-5", "0"} {
		if _, ok := parseAmount(raw); ok {
			t.Fatalf("parseAmount(%q) should fail", raw)
		}
	}
}

func TestParseDateFallsBack(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := parseDate("45/13/2024", now); !got.Equal(now) {
		t.Fatalf("invalid date should fall back to now, got %v", got)
	}
}
