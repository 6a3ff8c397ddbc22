/*
store.go - Primary entry map, secondary indices, and sequence allocator

PURPOSE:
  The Store is the sole owner of entries. It holds the id→entry map, keeps
  the three secondary indices (account, owner, date) exactly consistent with
  it, and allocates the monotonically increasing identifier sequence.

INVARIANTS:
  1. Identifiers are unique for the store's entire lifetime. A second append
     with a reused id is rejected without mutation.
  2. The indices are at all times the projection of the primary map onto
     account, owner, and date. Index keys are immutable entry attributes, so
     a status change never touches the indices.
  3. The sequence counter is recovered deterministically: every inserted id's
     numeric suffix advances it to suffix+1 when larger, so identifiers stay
     monotonic across save/load cycles.

CONCURRENCY:
  A single mutex guards every mutation. The engine was designed for one
  logical writer; the lock makes each individual operation safe under
  concurrent readers, but the two-leg transfer in ledger.go is still two
  appends with a visible window between them.

SEE ALSO:
  - index.go: identifier-set index structure
  - query.go: read-only views over the store
  - persist/file.go: flat-file save/load
*/
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Archiver receives entries retired by CleanupOlderThan before they leave
// the store. Implementations live outside this package (see archive/sqlite).
type Archiver interface {
	Archive(ctx context.Context, entries []Entry) error
}

// Store owns all entries and their indices. Create one per process and keep
// it until persisted and discarded.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	byAccount index
	byOwner   index
	byDate    index
	seq       int

	clock Clock
	audit AuditLog
}

// NewStore creates an empty store. A nil clock falls back to the system
// clock; a nil audit log discards the trail.
func NewStore(clock Clock, audit AuditLog) *Store {
	if clock == nil {
		clock = SystemClock{}
	}
	if audit == nil {
		audit = NopAuditLog{}
	}
	return &Store{
		entries:   make(map[string]*Entry),
		byAccount: newIndex(),
		byOwner:   newIndex(),
		byDate:    newIndex(),
		seq:       1,
		clock:     clock,
		audit:     audit,
	}
}

// Clock exposes the store's time source so collaborators (processing API,
// persistence) stamp entries consistently.
func (s *Store) Clock() Clock { return s.clock }

// =============================================================================
// IDENTIFIER ALLOCATION
// =============================================================================

// AllocateID returns the next identifier: "TXN" + YYYYMMDD + zero-padded
// running sequence. The sequence is per-store and never reset by date
// rollover; ordering is preserved because the date component leads.
func (s *Store) AllocateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("%s%s%03d", idPrefix, s.clock.Now().Format(compactDate), s.seq)
	s.seq++
	return id
}

// NextSequence returns the value the allocator will use next.
func (s *Store) NextSequence() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// =============================================================================
// MUTATION SURFACE
// =============================================================================

// Append inserts an entry into the primary map and all three indices.
// A duplicate id is rejected with ErrDuplicateID and no state change.
func (s *Store) Append(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(e)
}

func (s *Store) appendLocked(e *Entry) error {
	if _, exists := s.entries[e.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}

	stored := *e
	s.entries[e.ID] = &stored
	s.byAccount.add(stored.Account, stored.ID)
	s.byOwner.add(stored.Owner, stored.ID)
	s.byDate.add(stored.Date(), stored.ID)

	// Recover the allocator from whatever suffixes pass through, so loaded
	// histories keep ids monotonic.
	if n := sequenceSuffix(stored.ID); n >= s.seq {
		s.seq = n + 1
	}
	return nil
}

// Find returns a copy of the entry. Mutations go through the store only.
func (s *Store) Find(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *e, nil
}

// SetStatus transitions an entry's status and returns the previous value.
// Setting the current status again is a silent no-op: nothing is written to
// the audit trail. Index keys never include status, so no index work happens
// here.
func (s *Store) SetStatus(id string, status Status) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	prev := e.Status
	if prev == status {
		return prev, nil
	}
	e.Status = status

	line := statusChangeLine(id, prev, status, s.clock.Now().Format(TimestampLayout))
	if err := s.audit.Append(line); err != nil {
		// The transition already happened; a broken trail must not undo it.
		return prev, fmt.Errorf("status changed, audit append failed: %w", err)
	}
	return prev, nil
}

// SetNotes replaces the annotation tail of an entry.
func (s *Store) SetNotes(id, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.Notes = notes
	return nil
}

// =============================================================================
// ITERATION
// =============================================================================

// Count returns the number of entries in the primary map.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns copies of every entry, ordered by id. The slice is the
// caller's to keep; it never aliases store state.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// CleanupOlderThan retires entries whose timestamp predates now minus the
// given number of days. Retired entries are handed to the archiver first;
// if archiving fails nothing is removed. Each removal detaches exactly the
// retired id from each index, leaving co-located entries reachable.
//
// Returns the number of entries removed.
func (s *Store) CleanupOlderThan(ctx context.Context, days int, archiver Archiver) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().AddDate(0, 0, -days).Format(TimestampLayout)

	var retired []Entry
	for _, e := range s.entries {
		if e.Timestamp < cutoff {
			retired = append(retired, *e)
		}
	}
	if len(retired) == 0 {
		return 0, nil
	}

	if archiver != nil {
		if err := archiver.Archive(ctx, retired); err != nil {
			return 0, fmt.Errorf("archive before cleanup: %w", err)
		}
	}

	for i := range retired {
		e := &retired[i]
		s.byAccount.remove(e.Account, e.ID)
		s.byOwner.remove(e.Owner, e.ID)
		s.byDate.remove(e.Date(), e.ID)
		delete(s.entries, e.ID)
	}
	return len(retired), nil
}

// Reindex clears and rebuilds all three indices from the primary map.
// Always safe; used as a repair operation.
func (s *Store) Reindex() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byAccount.clear()
	s.byOwner.clear()
	s.byDate.clear()
	for _, e := range s.entries {
		s.byAccount.add(e.Account, e.ID)
		s.byOwner.add(e.Owner, e.ID)
		s.byDate.add(e.Date(), e.ID)
	}
}
