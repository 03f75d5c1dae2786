package schedule

import (
	"testing"
	"time"
)

func TestCanonicalize(t *testing.T) {
	t.Run("dedupes and sorts", func(t *testing.T) {
		got := Canonicalize([]string{
			"2024-03-02T10:00:00Z",
			"2024-03-01T10:00:00Z",
			"2024-03-02T10:00:00Z",
			"2024-03-01T10:00:00Z",
		})
		want := []string{"2024-03-01T10:00:00Z", "2024-03-02T10:00:00Z"}
		if !EqualSets(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("collapses equal instants in different representations", func(t *testing.T) {
		got := Canonicalize([]string{
			"2024-03-01T10:00:00Z",
			"2024-03-01T12:00:00+02:00",
			"2024-03-01T10:00:00.000Z",
		})
		if len(got) != 1 {
			t.Fatalf("expected a single entry, got %v", got)
		}
		if got[0] != "2024-03-01T10:00:00Z" {
			t.Fatalf("expected normalized UTC entry, got %q", got[0])
		}
	})

	t.Run("drops empty and unparsable values", func(t *testing.T) {
		got := Canonicalize([]string{"", "not-a-timestamp", "2024-03-01T10:00:00Z"})
		if len(got) != 1 {
			t.Fatalf("expected a single entry, got %v", got)
		}
	})
}

func TestMerge(t *testing.T) {
	current := []string{"2024-03-01T10:00:00Z"}

	got := Merge(current, "2024-02-01T10:00:00Z", "2024-03-01T10:00:00Z")
	want := []string{"2024-02-01T10:00:00Z", "2024-03-01T10:00:00Z"}
	if !EqualSets(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNormalizeInstantRoundTrip(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	instant := time.Date(2024, time.June, 10, 18, 30, 0, 0, loc)

	key := NormalizeInstant(instant)
	parsed, err := ParseEntry(key)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !parsed.Equal(instant) {
		t.Fatalf("round trip changed the instant: %v vs %v", parsed, instant)
	}
}
