package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type capturedEvent struct {
	topic string
	event any
}

type memoryPublisher struct {
	events []capturedEvent
}

func (p *memoryPublisher) Publish(topic string, event any) error {
	p.events = append(p.events, capturedEvent{topic: topic, event: event})
	return nil
}

func newTestLedger(t *testing.T) (*ledger.Ledger, *ledger.Store) {
	t.Helper()
	store, _ := newTestStore(t)
	return ledger.NewLedger(store), store
}

// =============================================================================
// SINGLE-LEG RECORDING
// =============================================================================

func TestLedger_RecordDeposit(t *testing.T) {
	// GIVEN: an empty ledger
	// WHEN: a 200.00 deposit against SAV001 moves the balance 1000 -> 1200
	// THEN: the stored entry carries every supplied field and starts Completed

	l, store := newTestLedger(t)

	id, err := l.RecordDeposit("SAV001", amt("200.00"), "Payroll", amt("1000.00"), amt("1200.00"), "CUST001")
	require.NoError(t, err)
	assert.Equal(t, "TXN20250122001", id)

	e, err := store.Find(id)
	require.NoError(t, err)
	assert.Equal(t, "SAV001", e.Account)
	assert.Equal(t, ledger.Deposit, e.Kind)
	assert.True(t, e.Amount.Equal(amt("200.00")))
	assert.True(t, e.BalanceBefore.Equal(amt("1000.00")))
	assert.True(t, e.BalanceAfter.Equal(amt("1200.00")))
	assert.Equal(t, ledger.StatusCompleted, e.Status)
	assert.Equal(t, "CUST001", e.Owner)
	assert.Equal(t, "Payroll", e.Description)
	assert.Equal(t, "2025-01-22 10:00:00", e.Timestamp)

	assert.True(t, store.TotalDeposits("SAV001", "", "").Equal(amt("200.00")),
		"the deposit is visible to aggregates immediately")
}

func TestLedger_Record_Validation(t *testing.T) {
	l, store := newTestLedger(t)

	_, err := l.RecordDeposit("SAV001", amt("-1.00"), "", amt("0"), amt("0"), "CUST001")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = l.RecordWithdrawal("", amt("10.00"), "", amt("0"), amt("0"), "CUST001")
	assert.ErrorIs(t, err, ledger.ErrMissingAccount)

	assert.Zero(t, store.Count(), "rejected requests must not leave entries behind")
}

func TestLedger_RecordFeeAndInterest(t *testing.T) {
	l, store := newTestLedger(t)

	feeID, err := l.RecordFeeCharge("SAV001", amt("5.00"), "Monthly fee", amt("1200.00"), amt("1195.00"), "CUST001")
	require.NoError(t, err)
	intID, err := l.RecordInterestCredit("SAV001", amt("2.50"), "Interest", amt("1195.00"), amt("1197.50"), "CUST001")
	require.NoError(t, err)

	fee, _ := store.Find(feeID)
	interest, _ := store.Find(intID)
	assert.Equal(t, ledger.FeeCharge, fee.Kind)
	assert.Equal(t, ledger.InterestCredit, interest.Kind)
}

// =============================================================================
// TRANSFERS
// =============================================================================

func TestLedger_RecordTransfer_LinkedLegs(t *testing.T) {
	// A 150.00 transfer SAV001 -> CHK001 produces two entries that reference
	// each other through their related accounts and share amount and owner.

	l, store := newTestLedger(t)

	outID, err := l.RecordTransfer("SAV001", "CHK001", amt("150.00"), "Rent share",
		amt("1200.00"), amt("1050.00"), amt("300.00"), amt("450.00"), "CUST001")
	require.NoError(t, err)
	require.Equal(t, 2, store.Count())

	out, err := store.Find(outID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TransferOut, out.Kind)
	assert.Equal(t, "SAV001", out.Account)
	assert.Equal(t, "CHK001", out.RelatedAccount)
	assert.True(t, out.BalanceAfter.Equal(amt("1050.00")))

	inLegs := store.ByKind(ledger.TransferIn, 0)
	require.Len(t, inLegs, 1)
	in := inLegs[0]
	assert.Equal(t, "CHK001", in.Account)
	assert.Equal(t, "SAV001", in.RelatedAccount)
	assert.True(t, in.Amount.Equal(out.Amount))
	assert.True(t, in.BalanceBefore.Equal(amt("300.00")))
	assert.True(t, in.BalanceAfter.Equal(amt("450.00")))
	assert.Equal(t, out.Owner, in.Owner)
}

func TestLedger_RecordTransfer_Validation(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.RecordTransfer("SAV001", "", amt("10.00"), "",
		amt("0"), amt("0"), amt("0"), amt("0"), "CUST001")
	assert.ErrorIs(t, err, ledger.ErrMissingAccount)

	_, err = l.RecordTransfer("SAV001", "CHK001", amt("-10.00"), "",
		amt("0"), amt("0"), amt("0"), amt("0"), "CUST001")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

// =============================================================================
// REVERSAL
// =============================================================================

func TestLedger_Reverse_Deposit(t *testing.T) {
	l, store := newTestLedger(t)

	id, err := l.RecordDeposit("SAV001", amt("200.00"), "Payroll", amt("1000.00"), amt("1200.00"), "CUST001")
	require.NoError(t, err)

	compID, err := l.Reverse(id, "customer dispute")
	require.NoError(t, err)

	original, err := store.Find(id)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusReversed, original.Status)
	assert.Equal(t, "Reversed: customer dispute", original.Notes)

	comp, err := store.Find(compID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Withdrawal, comp.Kind)
	assert.Equal(t, "SAV001", comp.Account)
	assert.True(t, comp.Amount.Equal(amt("200.00")))
	assert.Equal(t, "Reversal of "+id, comp.Description)
	assert.Equal(t, ledger.StatusCompleted, comp.Status)
}

func TestLedger_Reverse_Withdrawal(t *testing.T) {
	l, store := newTestLedger(t)

	id, err := l.RecordWithdrawal("SAV001", amt("50.00"), "ATM", amt("1200.00"), amt("1150.00"), "CUST001")
	require.NoError(t, err)

	compID, err := l.Reverse(id, "machine error")
	require.NoError(t, err)

	comp, err := store.Find(compID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Deposit, comp.Kind)
}

func TestLedger_Reverse_Transfer(t *testing.T) {
	// Reversing a transfer leg records a fresh pair flowing the opposite way.

	l, store := newTestLedger(t)

	outID, err := l.RecordTransfer("SAV001", "CHK001", amt("150.00"), "Rent share",
		amt("1200.00"), amt("1050.00"), amt("300.00"), amt("450.00"), "CUST001")
	require.NoError(t, err)

	compID, err := l.Reverse(outID, "sent to wrong account")
	require.NoError(t, err)
	assert.Equal(t, 4, store.Count())

	original, _ := store.Find(outID)
	assert.Equal(t, ledger.StatusReversed, original.Status)

	comp, err := store.Find(compID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TransferOut, comp.Kind)
	assert.Equal(t, "CHK001", comp.Account, "reversal flows from the original destination")
	assert.Equal(t, "SAV001", comp.RelatedAccount)
	assert.Equal(t, "Reversal of transfer "+outID, comp.Description)
}

func TestLedger_Reverse_GuardRejectsNonCompleted(t *testing.T) {
	l, store := newTestLedger(t)

	for _, status := range []ledger.Status{
		ledger.StatusPending,
		ledger.StatusFailed,
		ledger.StatusCancelled,
		ledger.StatusReversed,
	} {
		id, err := l.RecordDeposit("SAV001", amt("10.00"), "", amt("0"), amt("10.00"), "CUST001")
		require.NoError(t, err)
		require.NoError(t, l.UpdateStatus(id, status))

		before := store.Count()
		_, err = l.Reverse(id, "should not happen")
		assert.ErrorIs(t, err, ledger.ErrNotReversible, "status %s", status)
		assert.Equal(t, before, store.Count(), "status %s must not gain a compensating entry", status)

		e, _ := store.Find(id)
		assert.Equal(t, status, e.Status, "guard must not mutate the target")
	}
}

func TestLedger_Reverse_UnsupportedKindLeavesTargetUntouched(t *testing.T) {
	// Fees have no compensating form; the target must stay Completed.

	l, store := newTestLedger(t)

	id, err := l.RecordFeeCharge("SAV001", amt("5.00"), "Monthly fee", amt("100.00"), amt("95.00"), "CUST001")
	require.NoError(t, err)

	_, err = l.Reverse(id, "fee waiver")
	assert.ErrorIs(t, err, ledger.ErrUnsupportedReversal)

	e, err := store.Find(id)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, e.Status)
	assert.Empty(t, e.Notes)
	assert.Equal(t, 1, store.Count())
}

func TestLedger_Reverse_UnknownID(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.Reverse("TXN20250122999", "nothing there")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// EVENT PUBLISHING
// =============================================================================

func TestLedger_PublishesRecordedAndStatusEvents(t *testing.T) {
	l, _ := newTestLedger(t)
	pub := &memoryPublisher{}
	l.SetPublisher(pub)

	id, err := l.RecordDeposit("SAV001", amt("200.00"), "", amt("0"), amt("200.00"), "CUST001")
	require.NoError(t, err)
	require.NoError(t, l.UpdateStatus(id, ledger.StatusCancelled))

	require.Len(t, pub.events, 2)
	assert.Equal(t, ledger.TopicEntryRecorded, pub.events[0].topic)
	assert.Equal(t, ledger.TopicStatusChanged, pub.events[1].topic)

	change, ok := pub.events[1].event.(ledger.StatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, id, change.ID)
	assert.Equal(t, ledger.StatusCompleted.String(), change.From)
	assert.Equal(t, ledger.StatusCancelled.String(), change.To)
}

func TestLedger_UpdateStatus_NoOpPublishesNothing(t *testing.T) {
	l, _ := newTestLedger(t)

	id, err := l.RecordDeposit("SAV001", amt("10.00"), "", amt("0"), amt("10.00"), "CUST001")
	require.NoError(t, err)

	pub := &memoryPublisher{}
	l.SetPublisher(pub)
	require.NoError(t, l.UpdateStatus(id, ledger.StatusCompleted))
	assert.Empty(t, pub.events)
}

func TestLedger_SessionStampsEntries(t *testing.T) {
	l, store := newTestLedger(t)
	l.SetSession("session-42")

	id, err := l.RecordDeposit("SAV001", amt("10.00"), "", amt("0"), amt("10.00"), "CUST001")
	require.NoError(t, err)

	e, _ := store.Find(id)
	assert.Equal(t, "session-42", e.SessionID)
}
