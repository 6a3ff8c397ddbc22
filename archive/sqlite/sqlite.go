/*
Package sqlite archives entries retired from the in-memory ledger.

PURPOSE:
  Cleanup removes old entries from the live store, but an immutable audit
  trail should never simply lose history. This store receives every retired
  entry before removal and keeps it queryable out-of-band.

APPEND-ONLY:
  Archived rows are never updated or deleted. The id is the primary key, so
  re-archiving the same entry (e.g. a retried cleanup after a crash between
  archive and removal) upserts the identical row instead of failing.

WAL MODE:
  Opened with WAL journaling, matching how the engine's other SQLite usage
  behaves under a single writer with concurrent readers.

USAGE:
  ar, err := sqlite.New("./data/archive.db")
  ...
  removed, err := store.CleanupOlderThan(ctx, 365, ar)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// Store is a SQLite-backed archive implementing ledger.Archiver.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the archive database. Use ":memory:" in tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS archived_entries (
		id              TEXT PRIMARY KEY,
		account         TEXT NOT NULL,
		related_account TEXT,
		kind            INTEGER NOT NULL,
		amount          TEXT NOT NULL,
		balance_before  TEXT NOT NULL,
		balance_after   TEXT NOT NULL,
		timestamp       TEXT NOT NULL,
		description     TEXT,
		status          INTEGER NOT NULL,
		owner           TEXT,
		session_id      TEXT,
		notes           TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_archived_account ON archived_entries(account);
	CREATE INDEX IF NOT EXISTS idx_archived_timestamp ON archived_entries(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Archive inserts all entries in one transaction. Either every entry is
// archived or none is, so cleanup never removes something unarchived.
func (s *Store) Archive(ctx context.Context, entries []ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	const stmt = `
	INSERT OR REPLACE INTO archived_entries
		(id, account, related_account, kind, amount, balance_before,
		 balance_after, timestamp, description, status, owner, session_id, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, stmt,
			e.ID, e.Account, e.RelatedAccount, int(e.Kind),
			e.Amount.StringFixed(2), e.BalanceBefore.StringFixed(2),
			e.BalanceAfter.StringFixed(2), e.Timestamp, e.Description,
			int(e.Status), e.Owner, e.SessionID, e.Notes)
		if err != nil {
			return fmt.Errorf("archive entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of archived entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM archived_entries`).Scan(&n)
	return n, err
}

// ByAccount returns archived entries for an account, oldest first.
func (s *Store) ByAccount(ctx context.Context, account string) ([]ledger.Entry, error) {
	const query = `
	SELECT id, account, related_account, kind, amount, balance_before,
	       balance_after, timestamp, description, status, owner, session_id, notes
	FROM archived_entries WHERE account = ? ORDER BY timestamp, id`

	rows, err := s.db.QueryContext(ctx, query, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (ledger.Entry, error) {
	var (
		e                     ledger.Entry
		kind, status          int
		amount, before, after string
	)
	err := rows.Scan(&e.ID, &e.Account, &e.RelatedAccount, &kind, &amount,
		&before, &after, &e.Timestamp, &e.Description, &status, &e.Owner,
		&e.SessionID, &e.Notes)
	if err != nil {
		return ledger.Entry{}, err
	}
	e.Kind = ledger.KindFromOrdinal(kind)
	e.Status = ledger.StatusFromOrdinal(status)
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return ledger.Entry{}, fmt.Errorf("parse archived amount: %w", err)
	}
	if e.BalanceBefore, err = decimal.NewFromString(before); err != nil {
		return ledger.Entry{}, fmt.Errorf("parse archived balance before: %w", err)
	}
	if e.BalanceAfter, err = decimal.NewFromString(after); err != nil {
		return ledger.Entry{}, fmt.Errorf("parse archived balance after: %w", err)
	}
	return e, nil
}

// Compile-time check: the archive satisfies the engine's Archiver contract.
var _ ledger.Archiver = (*Store)(nil)
