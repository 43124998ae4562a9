package user

import "testing"

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a@example.com", "a@example.com"},
		{"A@Example.COM", "a@example.com"},
		{"  a@example.com  ", "a@example.com"},
		{"José@example.com", "jose@example.com"},
		{"müller@example.de", "muller@example.de"},
		{"ÅSA@example.se", "asa@example.se"},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEmailCollapsesVariants(t *testing.T) {
	if NormalizeEmail("José@Example.COM ") != NormalizeEmail("jose@example.com") {
		t.Error("diacritic/case variants did not collapse to the same key")
	}
}
