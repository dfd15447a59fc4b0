package taxonomy

import "testing"

func TestParseCategoryIsCaseSensitive(t *testing.T) {
	if c, ok := ParseCategory("Food"); !ok || c != CategoryFood {
		t.Fatalf("expected Food, got %q %v", c, ok)
	}
	if _, ok := ParseCategory("food"); ok {
		t.Fatalf("lowercase category should be rejected")
	}
	if _, ok := ParseCategory("Groceries"); ok {
		t.Fatalf("unknown category should be rejected")
	}
}

func TestEveryCategoryHasHint(t *testing.T) {
	for _, c := range Categories {
		if CategoryHints[c] == "" {
			t.Fatalf("missing hint for %s", c)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	if p, ok := ParsePlatform("HDFC"); !ok || p != PlatformHDFC {
		t.Fatalf("expected HDFC, got %q %v", p, ok)
	}
	if _, ok := ParsePlatform("CRED"); ok {
		t.Fatalf("CRED is not a supported platform")
	}
}
