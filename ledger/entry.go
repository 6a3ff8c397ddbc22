/*
entry.go - The immutable record of one monetary event

PURPOSE:
  An Entry captures a single balance movement: deposit, withdrawal, transfer
  leg, fee, or interest. The engine never computes balances - the caller
  performs the balance mutation and hands us the before/after snapshots,
  which are recorded verbatim.

IMMUTABILITY:
  Identity, kind, amount, timestamp, and balance snapshots are set once at
  construction and never change. Only the status/notes tail is mutable, and
  only through the Store so every transition is audited.

PRESENTATION DEFAULTS:
  Several text fields distinguish "empty" from "unset" only at read time.
  The Display* accessors apply the human-facing fallback ("N/A",
  "No description provided") without ever writing it back into the record.

SEE ALSO:
  - store.go: primary map, indices, status transitions
  - ledger.go: processing API that constructs entries
*/
package ledger

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Timestamp and identifier layouts. Both are fixed-width and zero-padded so
// lexicographic ordering equals chronological ordering.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
	compactDate     = "20060102"

	idPrefix  = "TXN"
	idDateLen = 8
)

// =============================================================================
// KIND - closed set of monetary event classifications
// =============================================================================

// Kind classifies an entry. Ordinals are stable: they appear in the persisted
// record file and must never be reordered.
type Kind int

const (
	Deposit Kind = iota
	Withdrawal
	TransferIn
	TransferOut
	FeeCharge
	InterestCredit
	AccountOpening
	AccountClosing
	UnknownKind
)

func (k Kind) String() string {
	switch k {
	case Deposit:
		return "DEPOSIT"
	case Withdrawal:
		return "WITHDRAWAL"
	case TransferIn:
		return "TRANSFER_IN"
	case TransferOut:
		return "TRANSFER_OUT"
	case FeeCharge:
		return "FEE_CHARGE"
	case InterestCredit:
		return "INTEREST_CREDIT"
	case AccountOpening:
		return "ACCOUNT_OPENING"
	case AccountClosing:
		return "ACCOUNT_CLOSING"
	default:
		return "UNKNOWN"
	}
}

// KindFromOrdinal maps a persisted ordinal back to a Kind.
// Out-of-range values decode as UnknownKind rather than failing the load.
func KindFromOrdinal(n int) Kind {
	if n < int(Deposit) || n > int(UnknownKind) {
		return UnknownKind
	}
	return Kind(n)
}

// =============================================================================
// STATUS - lifecycle of an entry
// =============================================================================

// Status is the mutable tail of an otherwise immutable entry.
// Ordinals are stable for the same reason Kind ordinals are.
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
	StatusFailed
	StatusCancelled
	StatusReversed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusReversed:
		return "REVERSED"
	default:
		return "UNKNOWN"
	}
}

// StatusFromOrdinal maps a persisted ordinal back to a Status.
func StatusFromOrdinal(n int) Status {
	if n < int(StatusPending) || n > int(StatusReversed) {
		return StatusPending
	}
	return Status(n)
}

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one recorded monetary event. Amount is always a non-negative
// magnitude; the sign of the movement is derived from Kind via NetAmount.
type Entry struct {
	ID             string
	Account        string
	RelatedAccount string // other leg's account, transfers only
	Kind           Kind
	Amount         decimal.Decimal
	Timestamp      string // TimestampLayout, assigned at construction
	Description    string
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal
	Status         Status
	Owner          string
	SessionID      string
	Notes          string
}

// Date returns the YYYY-MM-DD prefix of the timestamp, the key the date
// index is built on.
func (e *Entry) Date() string {
	if len(e.Timestamp) < len(DateLayout) {
		return e.Timestamp
	}
	return e.Timestamp[:len(DateLayout)]
}

// NetAmount returns the signed movement: positive for credits, negative for
// debits, zero for kinds that do not move money.
func (e *Entry) NetAmount() decimal.Decimal {
	switch e.Kind {
	case Deposit, TransferIn, InterestCredit:
		return e.Amount
	case Withdrawal, TransferOut, FeeCharge:
		return e.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// EffectiveBalanceAfter applies the historical read-time quirk: a stored
// balance-after of exactly zero is treated as "unset" and reconstructed as
// balanceBefore + amount. The stored value is never rewritten.
func (e *Entry) EffectiveBalanceAfter() decimal.Decimal {
	if e.BalanceAfter.IsZero() {
		return e.BalanceBefore.Add(e.Amount)
	}
	return e.BalanceAfter
}

func (e *Entry) IsTransfer() bool {
	return e.Kind == TransferIn || e.Kind == TransferOut
}

func (e *Entry) IsSuccessful() bool {
	return e.Status == StatusCompleted
}

// =============================================================================
// PRESENTATION ACCESSORS - read-time views, never stored
// =============================================================================

func (e *Entry) DisplayDescription() string {
	if e.Description == "" {
		return "No description provided"
	}
	return e.Description
}

func (e *Entry) DisplayRelatedAccount() string {
	if e.RelatedAccount == "" {
		return "N/A"
	}
	return e.RelatedAccount
}

func (e *Entry) DisplayOwner() string {
	if e.Owner == "" {
		return "N/A"
	}
	return e.Owner
}

func (e *Entry) DisplaySessionID() string {
	if e.SessionID == "" {
		return "N/A"
	}
	return e.SessionID
}

func (e *Entry) DisplayNotes() string {
	if e.Notes == "" {
		return "No notes provided"
	}
	return e.Notes
}

// =============================================================================
// IDENTIFIER FORMAT
// =============================================================================

// ValidateID reports whether id has the generated shape:
// "TXN" + YYYYMMDD + zero-padded sequence.
func ValidateID(id string) bool {
	if !strings.HasPrefix(id, idPrefix) {
		return false
	}
	rest := id[len(idPrefix):]
	if len(rest) < idDateLen+3 {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// sequenceSuffix extracts the numeric suffix of a generated id.
// Returns -1 for ids that do not carry one.
func sequenceSuffix(id string) int {
	if !ValidateID(id) {
		return -1
	}
	n, err := strconv.Atoi(id[len(idPrefix)+idDateLen:])
	if err != nil {
		return -1
	}
	return n
}
