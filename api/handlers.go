/*
handlers.go - HTTP handlers over the ledger engine

PURPOSE:
  Thin collaborator surface: each handler decodes a request, calls exactly
  one engine operation, and encodes the result. No balance arithmetic
  happens here - callers supply the before/after snapshots the engine
  records verbatim.

ERROR MAPPING:
  Client errors (bad amounts, missing accounts, reversal guard) map to 400,
  unknown identifiers to 404, duplicate ids to 409, everything else to 500.
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/persist"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger   *ledger.Ledger
	Persist  *persist.Adapter
	Archiver ledger.Archiver // optional, used by cleanup
}

// NewHandler wires a handler and stamps the ledger with a fresh session id
// so every entry recorded through this surface is traceable to one server
// session.
func NewHandler(l *ledger.Ledger, p *persist.Adapter, ar ledger.Archiver) *Handler {
	l.SetSession(uuid.NewString())
	return &Handler{Ledger: l, Persist: p, Archiver: ar}
}

// =============================================================================
// RECORDING
// =============================================================================

func (h *Handler) RecordDeposit(w http.ResponseWriter, r *http.Request) {
	h.recordSingleLeg(w, r, h.Ledger.RecordDeposit)
}

func (h *Handler) RecordWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.recordSingleLeg(w, r, h.Ledger.RecordWithdrawal)
}

func (h *Handler) RecordFeeCharge(w http.ResponseWriter, r *http.Request) {
	h.recordSingleLeg(w, r, h.Ledger.RecordFeeCharge)
}

func (h *Handler) RecordInterestCredit(w http.ResponseWriter, r *http.Request) {
	h.recordSingleLeg(w, r, h.Ledger.RecordInterestCredit)
}

// recordFunc matches the engine's single-leg signatures.
type recordFunc func(account string, amount decimal.Decimal, description string, balanceBefore, balanceAfter decimal.Decimal, owner string) (string, error)

func (h *Handler) recordSingleLeg(w http.ResponseWriter, r *http.Request, record recordFunc) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := record(req.Account, req.Amount, req.Description, req.BalanceBefore, req.BalanceAfter, req.Owner)
	if err != nil {
		writeEngineError(w, "Failed to record entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedResponse{ID: id})
}

func (h *Handler) RecordTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Ledger.RecordTransfer(req.FromAccount, req.ToAccount, req.Amount,
		req.Description, req.FromBefore, req.FromAfter, req.ToBefore, req.ToAfter, req.Owner)
	if err != nil {
		writeEngineError(w, "Failed to record transfer", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedResponse{ID: id})
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req ReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	reversalID, err := h.Ledger.Reverse(chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeEngineError(w, "Failed to reverse entry", err)
		return
	}
	writeJSON(w, http.StatusOK, ReversedResponse{ReversalID: reversalID})
}

// =============================================================================
// QUERIES
// =============================================================================

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.Ledger.Store().Find(chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Entry not found", err)
		return
	}
	writeJSON(w, http.StatusOK, entryDTO(e))
}

func (h *Handler) AccountHistory(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	limit := queryInt(r, "limit", 50)
	writeJSON(w, http.StatusOK, entryDTOs(h.Ledger.Store().AccountHistory(account, limit)))
}

func (h *Handler) OwnerHistory(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	limit := queryInt(r, "limit", 100)
	writeJSON(w, http.StatusOK, entryDTOs(h.Ledger.Store().OwnerHistory(owner, limit)))
}

func (h *Handler) ByDateRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	writeJSON(w, http.StatusOK, entryDTOs(h.Ledger.Store().ByDateRange(start, end)))
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, entryDTOs(h.Ledger.Store().Pending()))
}

func (h *Handler) Failed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, entryDTOs(h.Ledger.Store().Failed()))
}

func (h *Handler) AccountSummary(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	store := h.Ledger.Store()
	writeJSON(w, http.StatusOK, SummaryDTO{
		Account:          account,
		TotalDeposits:    store.TotalDeposits(account, start, end),
		TotalWithdrawals: store.TotalWithdrawals(account, start, end),
		NetFlow:          store.NetFlow(account, start, end),
		Count:            store.TransactionCount(account, start, end),
	})
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats := h.Ledger.Store().Statistics()
	byKind := make(map[string]int, len(stats.ByKind))
	for k, n := range stats.ByKind {
		byKind[k.String()] = n
	}
	writeJSON(w, http.StatusOK, StatsDTO{
		Total:     stats.Total,
		Completed: stats.Completed,
		Failed:    stats.Failed,
		Volume:    stats.Volume,
		ByKind:    byKind,
	})
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.Persist.Save(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save ledger", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	var req BackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	path, err := h.Persist.Backup(req.Directory)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create backup", err)
		return
	}
	writeJSON(w, http.StatusOK, BackupResponse{Path: path})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Persist.ExportCSV(req.Path, req.Account); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Days <= 0 {
		writeError(w, http.StatusBadRequest, "days must be positive", nil)
		return
	}
	removed, err := h.Ledger.Store().CleanupOlderThan(r.Context(), req.Days, h.Archiver)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Cleanup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, CleanupResponse{Removed: removed})
}

func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	h.Ledger.Store().Reindex()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrDuplicateID):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
