/*
server.go - HTTP router and middleware configuration

ROUTER: chi, with the standard middleware stack (request logging, panic
recovery, request ids) and permissive CORS for local tooling.

ROUTES:
  /api/transactions/*         record, reverse, lookup, status views
  /api/accounts/{account}/*   per-account history and aggregates
  /api/owners/{owner}/*       per-owner history
  /api/admin/*                save, backup, export, cleanup, reindex
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/deposit", h.RecordDeposit)
			r.Post("/withdrawal", h.RecordWithdrawal)
			r.Post("/fee", h.RecordFeeCharge)
			r.Post("/interest", h.RecordInterestCredit)
			r.Post("/transfer", h.RecordTransfer)
			r.Get("/range", h.ByDateRange)
			r.Get("/pending", h.Pending)
			r.Get("/failed", h.Failed)
			r.Get("/{id}", h.GetEntry)
			r.Post("/{id}/reverse", h.Reverse)
		})

		r.Route("/accounts/{account}", func(r chi.Router) {
			r.Get("/transactions", h.AccountHistory)
			r.Get("/summary", h.AccountSummary)
		})

		r.Get("/owners/{owner}/transactions", h.OwnerHistory)
		r.Get("/stats", h.Statistics)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/save", h.Save)
			r.Post("/backup", h.Backup)
			r.Post("/export", h.ExportCSV)
			r.Post("/cleanup", h.Cleanup)
			r.Post("/reindex", h.Reindex)
		})
	})

	return r
}
