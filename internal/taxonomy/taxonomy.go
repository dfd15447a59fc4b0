// Package taxonomy holds the persisted enumerations shared by the extractor,
// the categorizer and the HTTP layer. Values are stored verbatim in Firestore.
package taxonomy

type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryBills         Category = "Bills"
	CategoryHealthcare    Category = "Healthcare"
	CategoryEducation     Category = "Education"
	CategoryOther         Category = "Other"
)

// Categories is in display order; prompts and validation both rely on it.
var Categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryShopping,
	CategoryEntertainment,
	CategoryBills,
	CategoryHealthcare,
	CategoryEducation,
	CategoryOther,
}

// CategoryHints are the one-line descriptions fed to the classification prompt.
var CategoryHints = map[Category]string{
	CategoryFood:          "restaurants, food delivery, groceries, cafes",
	CategoryTravel:        "Uber, Ola, petrol, metro, bus, flights, hotels",
	CategoryShopping:      "Amazon, Flipkart, clothing, electronics",
	CategoryEntertainment: "movies, gaming, subscriptions, events",
	CategoryBills:         "electricity, phone, internet, insurance, EMI",
	CategoryHealthcare:    "medicines, hospitals, clinics",
	CategoryEducation:     "courses, books, tuition",
	CategoryOther:         "everything else",
}

// ParseCategory is case-sensitive.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Channel string

const (
	ChannelUPI        Channel = "UPI"
	ChannelCard       Channel = "Card"
	ChannelNetBanking Channel = "NetBanking"
	ChannelWallet     Channel = "Wallet"
)

var Channels = []Channel{ChannelUPI, ChannelCard, ChannelNetBanking, ChannelWallet}

type Platform string

const (
	PlatformPaytm    Platform = "PAYTM"
	PlatformPhonePe  Platform = "PHONEPE"
	PlatformGPay     Platform = "GPAY"
	PlatformAmazon   Platform = "AMAZON"
	PlatformFlipkart Platform = "FLIPKART"
	PlatformSBI      Platform = "SBI"
	PlatformHDFC     Platform = "HDFC"
	PlatformICICI    Platform = "ICICI"
	PlatformAxis     Platform = "AXIS"
)

var Platforms = []Platform{
	PlatformPaytm,
	PlatformPhonePe,
	PlatformGPay,
	PlatformAmazon,
	PlatformFlipkart,
	PlatformSBI,
	PlatformHDFC,
	PlatformICICI,
	PlatformAxis,
}

// DefaultPlatforms are enabled when a user saves a config without choosing any.
var DefaultPlatforms = []Platform{PlatformPaytm, PlatformPhonePe, PlatformGPay}

func ParsePlatform(s string) (Platform, bool) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// CategoryNames is the string form used by validator oneof tags and prompts.
func CategoryNames() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}
