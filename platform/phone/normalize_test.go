package phone

import "testing"

func TestIsValid(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"+91-999-999-9999", true},
		{"(022) 4000 1234", true},
		{"9999999999", true},
		{"999999999999999", true},
		{"999999999", false},        // 9 digits
		{"9999999999999999", false}, // 16 digits
		{"99999x9999", false},       // letter
		{"", false},
	}

	for _, tc := range cases {
		if got := IsValid(tc.input); got != tc.want {
			t.Errorf("IsValid(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeDigitsRoundTrip(t *testing.T) {
	stored := NormalizeDigits("+91-999-999-9999", "IN")

	if len(stored) < 10 || len(stored) > 12 {
		t.Fatalf("expected a 10-12 digit stored form, got %q (%d digits)", stored, len(stored))
	}
	if !IsValid(stored) {
		t.Fatalf("stored form %q does not re-validate", stored)
	}

	// A second pass over the stored form must be a no-op.
	if again := NormalizeDigits(stored, "IN"); again != stored {
		t.Fatalf("normalization not idempotent: %q -> %q", stored, again)
	}
}

func TestNormalizeDigitsUnparseableFallsBackToStripped(t *testing.T) {
	got := NormalizeDigits("123 456 7890", "ZZ")
	if got != "1234567890" {
		t.Fatalf("expected separator-stripped fallback, got %q", got)
	}
}
