/*
audit.go - Append-only trail of status transitions

Every observable status change appends one line:

  Transaction <id> status changed from <oldOrdinal> to <newOrdinal> at <timestamp>

The trail is separate from the persisted record file: it records what
happened, the record file records what is.
*/
package ledger

import (
	"fmt"
	"os"
	"sync"
)

// AuditLog receives one line per status transition. Implementations must be
// append-only.
type AuditLog interface {
	Append(line string) error
}

// FileAuditLog appends lines to a text file, creating it on first write.
// The file handle is opened and closed per append so a crash never leaves a
// dangling descriptor.
type FileAuditLog struct {
	path string
	mu   sync.Mutex
}

func NewFileAuditLog(path string) *FileAuditLog {
	return &FileAuditLog{path: path}
}

func (f *FileAuditLog) Append(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	_, werr := fmt.Fprintln(file, line)
	cerr := file.Close()
	if werr != nil {
		return fmt.Errorf("write audit log: %w", werr)
	}
	return cerr
}

// NopAuditLog discards all lines. Default when no trail is configured.
type NopAuditLog struct{}

func (NopAuditLog) Append(string) error { return nil }

func statusChangeLine(id string, from, to Status, at string) string {
	return fmt.Sprintf("Transaction %s status changed from %d to %d at %s",
		id, int(from), int(to), at)
}
