package schedule

import (
	"sort"
	"time"
)

// Timestamp format used for every entry in a session set. All entries are
// normalized to UTC before storage, so lexicographic order of the fixed-width
// strings matches chronological order.
const timestampLayout = time.RFC3339

// NormalizeInstant converts an absolute instant to the canonical entry string.
func NormalizeInstant(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseEntry parses a canonical entry string back into an instant.
func ParseEntry(value string) (time.Time, error) {
	return time.Parse(timestampLayout, value)
}

// Canonicalize reduces a sequence of entry strings to the canonical session
// set form: unique values, sorted ascending. Entries that already parse as
// absolute instants are re-normalized to UTC so that differently formatted
// representations of the same instant collapse to one entry; unparsable
// values are dropped.
func Canonicalize(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		key := value
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			key = NormalizeInstant(ts)
		} else if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
			key = NormalizeInstant(ts)
		} else {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	sort.Strings(result)
	return result
}

// Merge combines the current canonical set with new entries and returns the
// canonical result. Every mutation of a session set funnels through here.
func Merge(current []string, incoming ...string) []string {
	combined := make([]string, 0, len(current)+len(incoming))
	combined = append(combined, current...)
	combined = append(combined, incoming...)
	return Canonicalize(combined)
}

// EqualSets reports whether two canonical sequences hold the same entries in
// the same order. Comparison is by value, never by reference.
func EqualSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
