package domain

import "testing"

func TestResolveIdentity(t *testing.T) {
	list := mustList(t,
		"Taro", "0312345678",
		"Hanako", "06-1111-2222",
		"Taro", "0399999999",
	)

	tests := []struct {
		name  string
		query string
		want  ResolvedIdentity
	}{
		{name: "empty", query: "", want: ResolvedIdentity{}},
		{name: "blank", query: "   ", want: ResolvedIdentity{}},
		{name: "exact name", query: "Taro", want: ResolvedIdentity{DisplayText: "Taro", CanonicalNumber: "0312345678"}},
		{name: "trimmed name", query: "  Hanako ", want: ResolvedIdentity{DisplayText: "Hanako", CanonicalNumber: "06-1111-2222"}},
		{name: "case sensitive miss", query: "taro", want: ResolvedIdentity{DisplayText: "taro", CanonicalNumber: "taro"}},
		{name: "substring miss", query: "Tar", want: ResolvedIdentity{DisplayText: "Tar", CanonicalNumber: "Tar"}},
		{name: "raw number", query: " 0501234567 ", want: ResolvedIdentity{DisplayText: "0501234567", CanonicalNumber: "0501234567"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveIdentity(tc.query, list); got != tc.want {
				t.Fatalf("ResolveIdentity(%q) = %#v, want %#v", tc.query, got, tc.want)
			}
		})
	}
}

// TestResolveIdentityFirstMatchIsDeterministic verifies duplicate names always resolve to the first entry.
func TestResolveIdentityFirstMatchIsDeterministic(t *testing.T) {
	list := mustList(t, "Taro", "first", "Jiro", "x", "Taro", "second")
	for i := 0; i < 5; i++ {
		_ = ResolveIdentity("Jiro", list)
		if got := ResolveIdentity("Taro", list); got.CanonicalNumber != "first" {
			t.Fatalf("iteration %d: CanonicalNumber = %q, want first", i, got.CanonicalNumber)
		}
	}
	entry, ok := LookupCandidate(" Taro ", list)
	if !ok || entry.Number != "first" {
		t.Fatalf("LookupCandidate() = %#v, %t", entry, ok)
	}
	if _, ok := LookupCandidate("", list); ok {
		t.Fatal("expected blank lookup to miss")
	}
}
