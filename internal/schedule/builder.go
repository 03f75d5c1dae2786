package schedule

import (
	"context"
	"strings"
	"sync"
	"time"
)

// AvailabilityOracle answers whether a resource is free for a time window.
// Implementations are expected to be remote; failures are recovered by the
// builder, never surfaced to its caller.
type AvailabilityOracle interface {
	CheckWindow(ctx context.Context, resourceID string, start, end time.Time) (bool, error)
}

// AvailabilityOracleFunc adapts a function to the AvailabilityOracle interface.
type AvailabilityOracleFunc func(ctx context.Context, resourceID string, start, end time.Time) (bool, error)

// CheckWindow implements AvailabilityOracle.
func (f AvailabilityOracleFunc) CheckWindow(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	return f(ctx, resourceID, start, end)
}

// Builder owns a canonical session set under active edit: the deduplicated,
// ascending-sorted collection of proposed session start instants. It is the
// sole mutator of its set; the host holds only snapshots it receives through
// the change callback and pushes external updates through SyncExternal.
type Builder struct {
	mu sync.Mutex

	entries        []string
	conflicts      map[string]bool
	conflictsStale bool
	checking       bool
	generation     uint64

	oracle   AvailabilityOracle
	onChange func([]string)
	location *time.Location
}

// Option configures optional builder behavior.
type Option func(*Builder)

// WithLocation sets the timezone used to interpret naive local inputs and to
// position generated wall-clock times. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.location = loc
		}
	}
}

// NewBuilder constructs a builder seeded from the host supplied sequence.
// oracle and onChange may be nil; a nil oracle makes every conflict check
// record fail-safe conflicts, a nil onChange drops emissions.
func NewBuilder(initial []string, oracle AvailabilityOracle, onChange func([]string), opts ...Option) *Builder {
	b := &Builder{
		entries:  Canonicalize(initial),
		oracle:   oracle,
		onChange: onChange,
		location: time.Local,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Entries returns the canonical ordered session set.
func (b *Builder) Entries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneStrings(b.entries)
}

// Conflicts returns the most recently computed conflict map. Entries map a
// session timestamp to true when the window is known or presumed busy.
func (b *Builder) Conflicts() map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conflicts == nil {
		return nil
	}
	out := make(map[string]bool, len(b.conflicts))
	for key, conflicted := range b.conflicts {
		out[key] = conflicted
	}
	return out
}

// ConflictsStale reports whether the session set changed since the conflict
// map was last rebuilt. The map is never invalidated automatically; hosts use
// this to decide when to re-run CheckConflicts.
func (b *Builder) ConflictsStale() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conflictsStale
}

// Checking reports whether a conflict check is in flight, letting hosts
// disable re-entrant invocation.
func (b *Builder) Checking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checking
}

// SyncExternal reconciles the host owned sequence with the builder state. The
// incoming sequence is canonicalized and value-compared against the current
// set: when equal, nothing happens and nothing is emitted, which breaks the
// feedback loop after the builder's own emissions round-trip through the
// host. When different, the local set is replaced wholesale.
func (b *Builder) SyncExternal(external []string) {
	next := Canonicalize(external)

	b.mu.Lock()
	if EqualSets(b.entries, next) {
		b.mu.Unlock()
		return
	}
	b.replaceLocked(next)
	emit, snapshot := b.emissionLocked()
	b.mu.Unlock()

	if emit != nil {
		emit(snapshot)
	}
}

// Add merges a single manually entered session. The value is a naive local
// date-time as produced by a datetime-local form control; empty or unparsable
// input is silently ignored.
func (b *Builder) Add(value string) {
	instant, ok := b.parseLocal(value)
	if !ok {
		return
	}
	b.merge(NormalizeInstant(instant))
}

// Remove deletes the entry with the given canonical key. Absent keys are a
// no-op.
func (b *Builder) Remove(key string) {
	b.mu.Lock()
	kept := make([]string, 0, len(b.entries))
	for _, entry := range b.entries {
		if entry != key {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(b.entries) {
		b.mu.Unlock()
		return
	}
	b.replaceLocked(kept)
	emit, snapshot := b.emissionLocked()
	b.mu.Unlock()

	if emit != nil {
		emit(snapshot)
	}
}

// GenerateWeekly expands a weekly recurrence spec and merges the whole batch
// in one operation. An invalid spec is a silent no-op; callers that need the
// reason should consult spec.Validate themselves.
func (b *Builder) GenerateWeekly(spec RecurrenceSpec) {
	b.mergeBatch(spec.expand(b.location))
}

// GenerateGrid expands a fixed daily grid spec and merges the whole batch in
// one operation. An invalid spec is a silent no-op.
func (b *Builder) GenerateGrid(spec GridSpec) {
	b.mergeBatch(spec.expand(b.location))
}

// CheckConflicts probes the availability oracle once per session in the
// current set and rebuilds the conflict map. sessionLength is in minutes.
// Preconditions (resource id present, positive length, non-empty set) fail as
// a no-op returning nil. Individual oracle failures are recorded as conflicts
// rather than propagated. By the time the call returns, every session in the
// set-at-call-time has an entry in the returned map.
//
// Overlapping invocations are not suppressed: each call starts a new
// generation and only the most recently started generation publishes its
// result, so the visible conflict map always belongs to the last started
// sweep.
func (b *Builder) CheckConflicts(ctx context.Context, resourceID string, sessionLength int) map[string]bool {
	resourceID = strings.TrimSpace(resourceID)

	b.mu.Lock()
	if resourceID == "" || sessionLength <= 0 || len(b.entries) == 0 {
		b.mu.Unlock()
		return nil
	}
	b.generation++
	generation := b.generation
	b.checking = true
	snapshot := cloneStrings(b.entries)
	b.mu.Unlock()

	duration := time.Duration(sessionLength) * time.Minute
	result := make(map[string]bool, len(snapshot))
	for _, key := range snapshot {
		result[key] = b.probeWindow(ctx, resourceID, key, duration)
	}

	b.mu.Lock()
	if generation == b.generation {
		b.conflicts = result
		b.conflictsStale = false
		b.checking = false
	}
	b.mu.Unlock()

	return result
}

// probeWindow asks the oracle about one session window. Unknown is treated as
// blocked: a missing oracle, an unparsable entry or a failed query all count
// as a conflict.
func (b *Builder) probeWindow(ctx context.Context, resourceID, key string, duration time.Duration) bool {
	start, err := ParseEntry(key)
	if err != nil {
		return true
	}
	if b.oracle == nil {
		return true
	}
	available, err := b.oracle.CheckWindow(ctx, resourceID, start, start.Add(duration))
	if err != nil {
		return true
	}
	return !available
}

func (b *Builder) merge(entries ...string) {
	b.mergeBatch(entries)
}

func (b *Builder) mergeBatch(entries []string) {
	if len(entries) == 0 {
		return
	}

	b.mu.Lock()
	next := Merge(b.entries, entries...)
	if EqualSets(b.entries, next) {
		b.mu.Unlock()
		return
	}
	b.replaceLocked(next)
	emit, snapshot := b.emissionLocked()
	b.mu.Unlock()

	if emit != nil {
		emit(snapshot)
	}
}

// replaceLocked installs a new canonical set and marks any existing conflict
// map stale. Callers hold b.mu.
func (b *Builder) replaceLocked(next []string) {
	b.entries = next
	if b.conflicts != nil {
		b.conflictsStale = true
	}
}

// emissionLocked prepares the full-replacement snapshot fed back to the host
// after a mutation. Callers hold b.mu.
func (b *Builder) emissionLocked() (func([]string), []string) {
	if b.onChange == nil {
		return nil, nil
	}
	return b.onChange, cloneStrings(b.entries)
}

// parseLocal interprets a naive local date-time form value in the builder's
// location. Absolute RFC3339 values are accepted as-is.
func (b *Builder) parseLocal(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, true
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if ts, err := time.ParseInLocation(layout, value, b.location); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
