/*
query.go - Read-only views and aggregates over the store

PURPOSE:
  Filtered, sorted views (by account, owner, kind, date range, amount range,
  status) and aggregate analytics (sums, counts, averages). Queries never
  mutate; they scan either an index's identifier set or the full primary map,
  filter, sort, and truncate.

ORDERING:
  History views are newest-first, the pending view is oldest-first, and the
  amount-range view ascends by signed net amount. Timestamp comparison is
  plain string comparison - correct because the layout is fixed-width and
  zero-padded. Ties break on id so results are deterministic.

LIMITS:
  A limit is applied after filtering and sorting, so the result is always
  the true top-N of the documented order. Zero or negative means unlimited.

DATE BOUNDS:
  All date filters compare the YYYY-MM-DD prefix and are inclusive on both
  bounds. An empty bound means unbounded on that side.
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FILTERED VIEWS
// =============================================================================

// AccountHistory returns up to limit entries for an account, newest first.
func (s *Store) AccountHistory(account string, limit int) []Entry {
	s.mu.RLock()
	es := s.collect(s.byAccount.ids(account))
	s.mu.RUnlock()

	sortNewestFirst(es)
	return truncate(es, limit)
}

// OwnerHistory returns up to limit entries for an owner, newest first.
func (s *Store) OwnerHistory(owner string, limit int) []Entry {
	s.mu.RLock()
	es := s.collect(s.byOwner.ids(owner))
	s.mu.RUnlock()

	sortNewestFirst(es)
	return truncate(es, limit)
}

// ByKind returns up to limit entries of the given kind, newest first.
func (s *Store) ByKind(kind Kind, limit int) []Entry {
	es := s.scan(func(e *Entry) bool { return e.Kind == kind })
	sortNewestFirst(es)
	return truncate(es, limit)
}

// ByDateRange returns entries whose date falls in [start, end], inclusive on
// both bounds, newest first. Dates are YYYY-MM-DD; an empty bound is open.
func (s *Store) ByDateRange(start, end string) []Entry {
	s.mu.RLock()
	var ids []string
	for date, set := range s.byDate {
		if !dateInRange(date, start, end) {
			continue
		}
		for id := range set {
			ids = append(ids, id)
		}
	}
	es := s.collect(ids)
	s.mu.RUnlock()

	sortNewestFirst(es)
	return es
}

// ByAmountRange returns entries whose signed net amount falls in [min, max],
// ascending by net amount.
func (s *Store) ByAmountRange(min, max decimal.Decimal) []Entry {
	es := s.scan(func(e *Entry) bool {
		net := e.NetAmount()
		return net.GreaterThanOrEqual(min) && net.LessThanOrEqual(max)
	})
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i].NetAmount(), es[j].NetAmount()
		if !a.Equal(b) {
			return a.LessThan(b)
		}
		return es[i].ID < es[j].ID
	})
	return es
}

// Failed returns all failed entries, newest first.
func (s *Store) Failed() []Entry {
	es := s.scan(func(e *Entry) bool { return e.Status == StatusFailed })
	sortNewestFirst(es)
	return es
}

// Pending returns all pending entries, oldest first: the order they should
// be worked off in.
func (s *Store) Pending() []Entry {
	es := s.scan(func(e *Entry) bool { return e.Status == StatusPending })
	sortOldestFirst(es)
	return es
}

// =============================================================================
// AGGREGATES
// =============================================================================

// TotalDeposits sums deposit amounts for an account within the optional
// inclusive date bounds.
func (s *Store) TotalDeposits(account, startDate, endDate string) decimal.Decimal {
	return s.sumAccount(account, startDate, endDate, func(e *Entry) bool {
		return e.Kind == Deposit
	})
}

// TotalWithdrawals sums withdrawal and outbound-transfer amounts for an
// account within the optional inclusive date bounds.
func (s *Store) TotalWithdrawals(account, startDate, endDate string) decimal.Decimal {
	return s.sumAccount(account, startDate, endDate, func(e *Entry) bool {
		return e.Kind == Withdrawal || e.Kind == TransferOut
	})
}

// NetFlow is total deposits minus total withdrawals for the account.
func (s *Store) NetFlow(account, startDate, endDate string) decimal.Decimal {
	return s.TotalDeposits(account, startDate, endDate).
		Sub(s.TotalWithdrawals(account, startDate, endDate))
}

// TransactionCount counts an account's entries within the optional inclusive
// date bounds.
func (s *Store) TransactionCount(account, startDate, endDate string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, id := range s.byAccount.ids(account) {
		if e, ok := s.entries[id]; ok && dateInRange(e.Date(), startDate, endDate) {
			count++
		}
	}
	return count
}

// AverageAmount returns the mean amount of an account's entries of the given
// kind, zero when there are none.
func (s *Store) AverageAmount(account string, kind Kind) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	count := 0
	for _, id := range s.byAccount.ids(account) {
		e, ok := s.entries[id]
		if !ok || e.Kind != kind {
			continue
		}
		total = total.Add(e.Amount)
		count++
	}
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count)))
}

func (s *Store) sumAccount(account, startDate, endDate string, match func(*Entry) bool) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, id := range s.byAccount.ids(account) {
		e, ok := s.entries[id]
		if !ok || !match(e) {
			continue
		}
		if dateInRange(e.Date(), startDate, endDate) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// =============================================================================
// SYSTEM-WIDE STATISTICS
// =============================================================================

// Stats summarizes the whole store.
type Stats struct {
	Total     int
	Completed int
	Failed    int
	Volume    decimal.Decimal // sum of signed net amounts
	ByKind    map[Kind]int
}

// Statistics computes system-wide totals over the primary map.
func (s *Store) Statistics() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Volume: decimal.Zero, ByKind: make(map[Kind]int)}
	for _, e := range s.entries {
		stats.Total++
		stats.Volume = stats.Volume.Add(e.NetAmount())
		stats.ByKind[e.Kind]++
		switch e.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// KindSummary aggregates one kind's activity for a day.
type KindSummary struct {
	Kind  Kind
	Count int
	Total decimal.Decimal
}

// DailySummary groups a single date's entries by kind, ordered by kind.
func (s *Store) DailySummary(date string) []KindSummary {
	s.mu.RLock()
	totals := make(map[Kind]*KindSummary)
	for _, id := range s.byDate.ids(date) {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		sum, ok := totals[e.Kind]
		if !ok {
			sum = &KindSummary{Kind: e.Kind, Total: decimal.Zero}
			totals[e.Kind] = sum
		}
		sum.Count++
		sum.Total = sum.Total.Add(e.Amount)
	}
	s.mu.RUnlock()

	out := make([]KindSummary, 0, len(totals))
	for _, sum := range totals {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

// collect resolves ids against the primary map. Callers hold the read lock.
func (s *Store) collect(ids []string) []Entry {
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// scan copies every entry matching the predicate.
func (s *Store) scan(match func(*Entry) bool) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if match(e) {
			out = append(out, *e)
		}
	}
	return out
}

func sortNewestFirst(es []Entry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].Timestamp != es[j].Timestamp {
			return es[i].Timestamp > es[j].Timestamp
		}
		return es[i].ID > es[j].ID
	})
}

func sortOldestFirst(es []Entry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].Timestamp != es[j].Timestamp {
			return es[i].Timestamp < es[j].Timestamp
		}
		return es[i].ID < es[j].ID
	})
}

func truncate(es []Entry, limit int) []Entry {
	if limit > 0 && len(es) > limit {
		return es[:limit]
	}
	return es
}

func dateInRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}
