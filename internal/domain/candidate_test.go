package domain

import (
	"errors"
	"strings"
	"testing"
)

// mustList builds a candidate list from name/number pairs.
func mustList(t *testing.T, pairs ...string) CandidateList {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("mustList() needs name/number pairs, got %d values", len(pairs))
	}
	entries := make([]CandidateEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entry, err := NewCandidateEntry(pairs[i], pairs[i+1])
		if err != nil {
			t.Fatalf("NewCandidateEntry(%q, %q) error = %v", pairs[i], pairs[i+1], err)
		}
		entries = append(entries, entry)
	}
	return NewCandidateList(entries)
}

func TestNewCandidateEntryTrimsAndRejectsBlank(t *testing.T) {
	entry, err := NewCandidateEntry("  Taro ", " 0312345678\t")
	if err != nil {
		t.Fatalf("NewCandidateEntry() error = %v", err)
	}
	if entry.DisplayName != "Taro" || entry.Number != "0312345678" {
		t.Fatalf("unexpected entry %#v", entry)
	}

	for _, tc := range []struct{ name, number string }{
		{"", "0312345678"},
		{"Taro", "   "},
		{" ", ""},
	} {
		if _, err := NewCandidateEntry(tc.name, tc.number); !errors.Is(err, ErrInvalidCandidate) {
			t.Fatalf("NewCandidateEntry(%q, %q) error = %v, want ErrInvalidCandidate", tc.name, tc.number, err)
		}
	}
}

func TestCandidateListIsACopy(t *testing.T) {
	src := []CandidateEntry{{DisplayName: "Taro", Number: "1"}}
	list := NewCandidateList(src)
	src[0].DisplayName = "Mutated"
	if list.At(0).DisplayName != "Taro" {
		t.Fatalf("list shares backing array with input: %#v", list.At(0))
	}

	out := list.Entries()
	out[0].Number = "999"
	if list.At(0).Number != "1" {
		t.Fatalf("Entries() leaked internal storage: %#v", list.At(0))
	}
}

func TestFilterCandidates(t *testing.T) {
	list := mustList(t,
		"Taro Yamada", "0312345678",
		"Hanako", "0611112222",
		"TARO Office", "0399998888",
		"Jiro", "0120000000",
	)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty returns all", query: "", want: []string{"Taro Yamada", "Hanako", "TARO Office", "Jiro"}},
		{name: "case insensitive", query: "taro", want: []string{"Taro Yamada", "TARO Office"}},
		{name: "substring in middle", query: "ana", want: []string{"Hanako"}},
		{name: "whitespace is a literal substring", query: " ", want: []string{"Taro Yamada", "TARO Office"}},
		{name: "no match", query: "zzz", want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterCandidates(tc.query, list)
			if len(got) != len(tc.want) {
				t.Fatalf("FilterCandidates(%q) = %#v, want names %#v", tc.query, got, tc.want)
			}
			for i := range tc.want {
				if got[i].DisplayName != tc.want[i] {
					t.Fatalf("FilterCandidates(%q)[%d] = %q, want %q", tc.query, i, got[i].DisplayName, tc.want[i])
				}
			}
		})
	}
}

// TestFilterCandidatesIsOrderedSubsequence checks that every result is a case-insensitive match in source order.
func TestFilterCandidatesIsOrderedSubsequence(t *testing.T) {
	list := mustList(t,
		"Alpha", "1",
		"alphabet", "2",
		"Beta", "3",
		"ALPHA", "4",
		"Gamma", "5",
		"Alpha", "6",
	)
	for _, query := range []string{"", "a", "AL", "ph", "beta", "mm", "x", "Alpha"} {
		got := FilterCandidates(query, list)
		cursor := 0
		for _, entry := range got {
			if !strings.Contains(strings.ToLower(entry.DisplayName), strings.ToLower(query)) {
				t.Fatalf("FilterCandidates(%q) returned non-matching %#v", query, entry)
			}
			found := false
			for cursor < list.Len() {
				candidate := list.At(cursor)
				cursor++
				if candidate == entry {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("FilterCandidates(%q) = %#v is not an ordered subsequence", query, got)
			}
		}
	}
	if got := FilterCandidates("", list); len(got) != list.Len() {
		t.Fatalf("FilterCandidates(\"\") len = %d, want %d", len(got), list.Len())
	}
}

func TestFilterCandidatesDoesNotMutateInput(t *testing.T) {
	list := mustList(t, "Taro", "1", "Hanako", "2")
	got := FilterCandidates("", list)
	got[0].DisplayName = "changed"
	if list.At(0).DisplayName != "Taro" {
		t.Fatalf("FilterCandidates() mutated the source list: %#v", list.Entries())
	}
}
