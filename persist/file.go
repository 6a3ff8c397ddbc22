/*
Package persist serializes the ledger to a flat record store.

FILE FORMAT:
  Line 1 is the decimal entry count. Each following line is one entry as 13
  space-separated fields, in order:

    id account related-account kind amount balance-before balance-after
    timestamp description status owner session-id notes

  Kind and status are stable ordinals; amounts and balances are fixed
  2-decimal strings. Free-text fields (and the timestamp, which contains a
  space) are query-escaped so every record stays a single line of exactly 13
  tokens and the save/load round trip is exact. An empty field is an empty
  token.

  Loading stops after the declared count; trailing data is ignored. A
  missing file is not an error - it yields an empty ledger.

CSV EXPORT:
  Header "ID,Account,Type,Amount,Date,Status,Description", one row per
  matching entry. Embedded commas are NOT escaped; this mirrors the
  historical export format and is a documented limitation of the interchange
  file, not of the record store.

BACKUPS:
  A backup is a byte-for-byte copy of the persisted record file named
  transaction_backup_<timestamp>.log in the target directory.
*/
package persist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

const recordFieldCount = 13

// Adapter persists a single store to a single record file.
type Adapter struct {
	path  string
	store *ledger.Store
}

func NewAdapter(path string, store *ledger.Store) *Adapter {
	return &Adapter{path: path, store: store}
}

// Path returns the record file location.
func (a *Adapter) Path() string { return a.path }

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save writes the entire store to the record file, count line first.
func (a *Adapter) Save() (err error) {
	file, err := os.Create(a.path)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	entries := a.store.Snapshot()
	w := bufio.NewWriter(file)
	if _, err = fmt.Fprintln(w, len(entries)); err != nil {
		return fmt.Errorf("write record count: %w", err)
	}
	for i := range entries {
		if _, err = fmt.Fprintln(w, encodeRecord(&entries[i])); err != nil {
			return fmt.Errorf("write record %s: %w", entries[i].ID, err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flush record file: %w", err)
	}
	return nil
}

// Load reads the record file into the store. The store recovers its sequence
// counter from the loaded identifiers. A missing file leaves the store empty
// and returns nil.
func (a *Adapter) Load() (err error) {
	file, err := os.Open(a.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // start empty
		}
		return fmt.Errorf("open record file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if serr := scanner.Err(); serr != nil {
			return fmt.Errorf("read record count: %w", serr)
		}
		return nil // empty file, empty ledger
	}
	count, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return fmt.Errorf("parse record count: %w", err)
	}

	for i := 0; i < count; i++ {
		if !scanner.Scan() {
			if serr := scanner.Err(); serr != nil {
				return fmt.Errorf("read record %d: %w", i+1, serr)
			}
			return fmt.Errorf("record file truncated: declared %d entries, found %d", count, i)
		}
		entry, derr := decodeRecord(scanner.Text())
		if derr != nil {
			return fmt.Errorf("record %d: %w", i+1, derr)
		}
		if aerr := a.store.Append(entry); aerr != nil {
			return fmt.Errorf("record %d: %w", i+1, aerr)
		}
	}
	// Anything past the declared count is deliberately ignored.
	return nil
}

// =============================================================================
// CSV EXPORT
// =============================================================================

// ExportCSV writes matching entries to path. Pass an empty accountFilter to
// export everything. Field values are written raw, commas included.
func (a *Adapter) ExportCSV(path, accountFilter string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(file)
	fmt.Fprintln(w, "ID,Account,Type,Amount,Date,Status,Description")
	for _, e := range a.store.Snapshot() {
		if accountFilter != "" && e.Account != accountFilter {
			continue
		}
		fmt.Fprintf(w, "%s,%s,%d,%s,%s,%s,%s\n",
			e.ID, e.Account, int(e.Kind), e.Amount.StringFixed(2),
			e.Date(), e.Status, e.Description)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flush export file: %w", err)
	}
	return nil
}

// =============================================================================
// BACKUP
// =============================================================================

// Backup copies the persisted record file into dir and returns the backup's
// path. The source must have been saved first.
func (a *Adapter) Backup(dir string) (backupPath string, err error) {
	src, err := os.Open(a.path)
	if err != nil {
		return "", fmt.Errorf("open record file for backup: %w", err)
	}
	defer src.Close()

	stamp := a.store.Clock().Now().Format("20060102150405")
	backupPath = filepath.Join(dir, fmt.Sprintf("transaction_backup_%s.log", stamp))

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy backup: %w", err)
	}
	return backupPath, nil
}

// =============================================================================
// RECORD CODEC
// =============================================================================

func encodeRecord(e *ledger.Entry) string {
	fields := []string{
		e.ID,
		escape(e.Account),
		escape(e.RelatedAccount),
		strconv.Itoa(int(e.Kind)),
		e.Amount.StringFixed(2),
		e.BalanceBefore.StringFixed(2),
		e.BalanceAfter.StringFixed(2),
		escape(e.Timestamp),
		escape(e.Description),
		strconv.Itoa(int(e.Status)),
		escape(e.Owner),
		escape(e.SessionID),
		escape(e.Notes),
	}
	return strings.Join(fields, " ")
}

func decodeRecord(line string) (*ledger.Entry, error) {
	fields := strings.Split(line, " ")
	if len(fields) != recordFieldCount {
		return nil, fmt.Errorf("expected %d fields, got %d", recordFieldCount, len(fields))
	}

	kindOrd, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("parse kind: %w", err)
	}
	statusOrd, err := strconv.Atoi(fields[9])
	if err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	amount, err := decimal.NewFromString(fields[4])
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	before, err := decimal.NewFromString(fields[5])
	if err != nil {
		return nil, fmt.Errorf("parse balance before: %w", err)
	}
	after, err := decimal.NewFromString(fields[6])
	if err != nil {
		return nil, fmt.Errorf("parse balance after: %w", err)
	}

	text := make([]string, recordFieldCount)
	for _, i := range []int{1, 2, 7, 8, 10, 11, 12} {
		text[i], err = unescape(fields[i])
		if err != nil {
			return nil, fmt.Errorf("unescape field %d: %w", i, err)
		}
	}

	return &ledger.Entry{
		ID:             fields[0],
		Account:        text[1],
		RelatedAccount: text[2],
		Kind:           ledger.KindFromOrdinal(kindOrd),
		Amount:         amount,
		BalanceBefore:  before,
		BalanceAfter:   after,
		Timestamp:      text[7],
		Description:    text[8],
		Status:         ledger.StatusFromOrdinal(statusOrd),
		Owner:          text[10],
		SessionID:      text[11],
		Notes:          text[12],
	}, nil
}

func escape(s string) string { return url.QueryEscape(s) }

func unescape(s string) (string, error) { return url.QueryUnescape(s) }
