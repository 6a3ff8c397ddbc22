/*
dto.go - JSON types for API requests and responses

DTOs are pure data carriers decoupling the wire contract from the engine's
types; validation happens in handlers. Amounts travel as JSON numbers backed
by decimal to keep monetary precision.
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// RecordRequest is the body for single-leg operations (deposit, withdrawal,
// fee, interest).
type RecordRequest struct {
	Account       string          `json:"account"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Owner         string          `json:"owner"`
}

// TransferRequest is the body for two-leg transfers.
type TransferRequest struct {
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	FromBefore  decimal.Decimal `json:"from_balance_before"`
	FromAfter   decimal.Decimal `json:"from_balance_after"`
	ToBefore    decimal.Decimal `json:"to_balance_before"`
	ToAfter     decimal.Decimal `json:"to_balance_after"`
	Owner       string          `json:"owner"`
}

type ReverseRequest struct {
	Reason string `json:"reason"`
}

type BackupRequest struct {
	Directory string `json:"directory"`
}

type ExportRequest struct {
	Path    string `json:"path"`
	Account string `json:"account,omitempty"`
}

type CleanupRequest struct {
	Days int `json:"days"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EntryDTO is one ledger entry in API responses. Presentation defaults are
// applied here, never stored.
type EntryDTO struct {
	ID             string          `json:"id"`
	Account        string          `json:"account"`
	RelatedAccount string          `json:"related_account"`
	Kind           string          `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	Timestamp      string          `json:"timestamp"`
	Description    string          `json:"description"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	Status         string          `json:"status"`
	Owner          string          `json:"owner"`
	SessionID      string          `json:"session_id"`
	Notes          string          `json:"notes"`
}

func entryDTO(e ledger.Entry) EntryDTO {
	return EntryDTO{
		ID:             e.ID,
		Account:        e.Account,
		RelatedAccount: e.DisplayRelatedAccount(),
		Kind:           e.Kind.String(),
		Amount:         e.Amount,
		Timestamp:      e.Timestamp,
		Description:    e.DisplayDescription(),
		BalanceBefore:  e.BalanceBefore,
		BalanceAfter:   e.EffectiveBalanceAfter(),
		Status:         e.Status.String(),
		Owner:          e.DisplayOwner(),
		SessionID:      e.DisplaySessionID(),
		Notes:          e.Notes,
	}
}

func entryDTOs(es []ledger.Entry) []EntryDTO {
	out := make([]EntryDTO, len(es))
	for i, e := range es {
		out[i] = entryDTO(e)
	}
	return out
}

// RecordedResponse returns the identifier of a freshly recorded entry.
type RecordedResponse struct {
	ID string `json:"id"`
}

// ReversedResponse returns the compensating entry's identifier.
type ReversedResponse struct {
	ReversalID string `json:"reversal_id"`
}

// SummaryDTO aggregates one account's history.
type SummaryDTO struct {
	Account          string          `json:"account"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	NetFlow          decimal.Decimal `json:"net_flow"`
	Count            int             `json:"count"`
}

// StatsDTO is the system-wide view.
type StatsDTO struct {
	Total     int             `json:"total"`
	Completed int             `json:"completed"`
	Failed    int             `json:"failed"`
	Volume    decimal.Decimal `json:"volume"`
	ByKind    map[string]int  `json:"by_kind"`
}

type CleanupResponse struct {
	Removed int `json:"removed"`
}

type BackupResponse struct {
	Path string `json:"path"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
