/*
ledger.go - Processing API: record, transfer, reverse

PURPOSE:
  The Ledger is the write path callers use. It validates input, allocates an
  identifier, builds a Completed entry, and appends it through the Store.
  Balances are never computed here - the caller performs the balance
  mutation and supplies the before/after snapshots.

TRANSFERS:
  A transfer is two linked entries: TransferOut on the source and TransferIn
  on the destination, each holding the other's account, sharing amount,
  description, and owner. The two appends are not atomic. If the second
  append fails, the first leg is retained and marked Failed - a compensating
  action, not a rollback - and the operation reports failure. A reader
  between the two appends observes a half-open transfer.

REVERSALS:
  A reversal is a status change plus a compensating entry that economically
  undoes a completed entry. Reversibility is checked before the original
  mutates, so an unsupported kind fails with the target untouched.

SEE ALSO:
  - store.go: append/status mutation surface
  - events.go: observable events published from this path
*/
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Ledger is the processing surface over a Store.
type Ledger struct {
	store     *Store
	publisher Publisher
	sessionID string
}

func NewLedger(store *Store) *Ledger {
	return &Ledger{store: store}
}

// SetPublisher attaches an event publisher. Publishing is best-effort; a
// failing broker never fails a recorded entry.
func (l *Ledger) SetPublisher(p Publisher) { l.publisher = p }

// SetSession stamps subsequently recorded entries with a session identifier.
func (l *Ledger) SetSession(id string) { l.sessionID = id }

// Store exposes the underlying store for queries and persistence.
func (l *Ledger) Store() *Store { return l.store }

// =============================================================================
// SINGLE-LEG OPERATIONS
// =============================================================================

// RecordDeposit records a completed deposit and returns its id.
func (l *Ledger) RecordDeposit(account string, amount decimal.Decimal, description string, balanceBefore, balanceAfter decimal.Decimal, owner string) (string, error) {
	return l.record(Deposit, account, "", amount, description, balanceBefore, balanceAfter, owner)
}

// RecordWithdrawal records a completed withdrawal and returns its id.
func (l *Ledger) RecordWithdrawal(account string, amount decimal.Decimal, description string, balanceBefore, balanceAfter decimal.Decimal, owner string) (string, error) {
	return l.record(Withdrawal, account, "", amount, description, balanceBefore, balanceAfter, owner)
}

// RecordFeeCharge records a completed fee charge and returns its id.
func (l *Ledger) RecordFeeCharge(account string, amount decimal.Decimal, description string, balanceBefore, balanceAfter decimal.Decimal, owner string) (string, error) {
	return l.record(FeeCharge, account, "", amount, description, balanceBefore, balanceAfter, owner)
}

// RecordInterestCredit records a completed interest credit and returns its id.
func (l *Ledger) RecordInterestCredit(account string, amount decimal.Decimal, description string, balanceBefore, balanceAfter decimal.Decimal, owner string) (string, error) {
	return l.record(InterestCredit, account, "", amount, description, balanceBefore, balanceAfter, owner)
}

func (l *Ledger) record(kind Kind, account, related string, amount decimal.Decimal, description string, balanceBefore, balanceAfter decimal.Decimal, owner string) (string, error) {
	if amount.IsNegative() {
		return "", ErrInvalidAmount
	}
	if account == "" {
		return "", ErrMissingAccount
	}

	e := &Entry{
		ID:             l.store.AllocateID(),
		Account:        account,
		RelatedAccount: related,
		Kind:           kind,
		Amount:         amount,
		Timestamp:      l.store.Clock().Now().Format(TimestampLayout),
		Description:    description,
		BalanceBefore:  balanceBefore,
		BalanceAfter:   balanceAfter,
		Status:         StatusCompleted,
		Owner:          owner,
		SessionID:      l.sessionID,
	}
	if err := l.store.Append(e); err != nil {
		return "", err
	}
	l.publishRecorded(e)
	return e.ID, nil
}

// =============================================================================
// TRANSFER - two linked legs
// =============================================================================

// RecordTransfer records both legs of a transfer and returns the outbound
// leg's id, the transfer's canonical reference. The inbound leg is
// discoverable through the outbound leg's related account.
//
// If the first append fails nothing is recorded. If the second append fails,
// the first leg stays in the store marked Failed so the attempted transfer
// remains visible, and ErrTransferIncomplete is returned.
func (l *Ledger) RecordTransfer(fromAccount, toAccount string, amount decimal.Decimal, description string, fromBefore, fromAfter, toBefore, toAfter decimal.Decimal, owner string) (string, error) {
	if amount.IsNegative() {
		return "", ErrInvalidAmount
	}
	if fromAccount == "" || toAccount == "" {
		return "", ErrMissingAccount
	}

	out := &Entry{
		ID:             l.store.AllocateID(),
		Account:        fromAccount,
		RelatedAccount: toAccount,
		Kind:           TransferOut,
		Amount:         amount,
		Timestamp:      l.store.Clock().Now().Format(TimestampLayout),
		Description:    description,
		BalanceBefore:  fromBefore,
		BalanceAfter:   fromAfter,
		Status:         StatusCompleted,
		Owner:          owner,
		SessionID:      l.sessionID,
	}
	if err := l.store.Append(out); err != nil {
		return "", err
	}

	in := &Entry{
		ID:             l.store.AllocateID(),
		Account:        toAccount,
		RelatedAccount: fromAccount,
		Kind:           TransferIn,
		Amount:         amount,
		Timestamp:      l.store.Clock().Now().Format(TimestampLayout),
		Description:    description,
		BalanceBefore:  toBefore,
		BalanceAfter:   toAfter,
		Status:         StatusCompleted,
		Owner:          owner,
		SessionID:      l.sessionID,
	}
	if err := l.store.Append(in); err != nil {
		// Compensate, don't roll back: the failed attempt stays on record.
		if prev, serr := l.store.SetStatus(out.ID, StatusFailed); serr == nil {
			l.publishStatusChanged(out.ID, prev, StatusFailed)
		}
		return "", fmt.Errorf("%w: %v", ErrTransferIncomplete, err)
	}

	l.publishRecorded(out)
	l.publishRecorded(in)
	return out.ID, nil
}

// =============================================================================
// STATUS & REVERSAL
// =============================================================================

// UpdateStatus transitions an entry's status through the audited path.
func (l *Ledger) UpdateStatus(id string, status Status) error {
	prev, err := l.store.SetStatus(id, status)
	if err != nil {
		return err
	}
	if prev != status {
		l.publishStatusChanged(id, prev, status)
	}
	return nil
}

// Reverse marks a completed entry Reversed, annotates it with the reason,
// and records a compensating entry. Returns the compensating entry's id.
//
// Guard: the target must currently be Completed; any other status fails
// without mutating anything. Kinds with no compensating form fail the same
// way, before the target's status changes.
func (l *Ledger) Reverse(id, reason string) (string, error) {
	original, err := l.store.Find(id)
	if err != nil {
		return "", err
	}
	if original.Status != StatusCompleted {
		return "", fmt.Errorf("%w: %s is %s", ErrNotReversible, id, original.Status)
	}

	var compensating Kind
	switch {
	case original.Kind == Deposit:
		compensating = Withdrawal
	case original.Kind == Withdrawal:
		compensating = Deposit
	case original.IsTransfer():
		// handled below, after the status flip
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedReversal, original.Kind)
	}

	prev, err := l.store.SetStatus(id, StatusReversed)
	if err != nil {
		return "", err
	}
	l.publishStatusChanged(id, prev, StatusReversed)
	if err := l.store.SetNotes(id, "Reversed: "+reason); err != nil {
		return "", err
	}

	if original.IsTransfer() {
		// Undo by transferring back: source and destination swap, balances
		// invert algebraically from the original's recorded snapshots.
		fromBefore := original.BalanceBefore
		fromAfter := fromBefore.Add(original.Amount)
		toBefore := original.BalanceAfter
		toAfter := toBefore.Sub(original.Amount)
		return l.RecordTransfer(
			original.RelatedAccount, original.Account,
			original.Amount,
			"Reversal of transfer "+original.ID,
			fromBefore, fromAfter, toBefore, toAfter,
			original.Owner,
		)
	}

	return l.record(
		compensating,
		original.Account,
		original.RelatedAccount,
		original.Amount,
		"Reversal of "+original.ID,
		original.BalanceBefore,
		original.BalanceAfter,
		original.Owner,
	)
}

// =============================================================================
// EVENT PUBLISHING - best effort
// =============================================================================

func (l *Ledger) publishRecorded(e *Entry) {
	if l.publisher == nil {
		return
	}
	_ = l.publisher.Publish(TopicEntryRecorded, EntryRecordedEvent{
		ID:        e.ID,
		Account:   e.Account,
		Kind:      e.Kind.String(),
		Amount:    e.Amount,
		Timestamp: e.Timestamp,
		Owner:     e.Owner,
	})
}

func (l *Ledger) publishStatusChanged(id string, from, to Status) {
	if l.publisher == nil {
		return
	}
	_ = l.publisher.Publish(TopicStatusChanged, StatusChangedEvent{
		ID:   id,
		From: from.String(),
		To:   to.String(),
	})
}
