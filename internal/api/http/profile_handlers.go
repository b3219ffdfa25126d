package http

import (
	"encoding/json"
	"net/http"

	authmw "github.com/coursepilot/coursepilot-lms/internal/auth/middleware"
	"github.com/coursepilot/coursepilot-lms/internal/stats"
	"github.com/coursepilot/coursepilot-lms/internal/store"
)

// ProfileHandler returns the authenticated identity.
func ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(u)
	}
}

// ProfileStatsHandler derives the profile summary (average, best, last test)
// from the user's stored results. Guests have no history by construction.
func ProfileStatsHandler(results *store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		if !u.IsValid() {
			_ = json.NewEncoder(w).Encode(stats.Summary{})
			return
		}
		rs, err := results.ListByUser(r.Context(), u.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(stats.Summarize(rs))
	}
}

type resultRow struct {
	stats.TestResult
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}

func toResultRows(rs []stats.TestResult) []resultRow {
	out := make([]resultRow, len(rs))
	for i, r := range rs {
		p := r.Percentage()
		out[i] = resultRow{TestResult: r, Percentage: stats.Round1(p), Grade: stats.Grade(p)}
	}
	return out
}

// ProfileResultsHandler lists the user's test history, newest first.
func ProfileResultsHandler(results *store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		if !u.IsValid() {
			_ = json.NewEncoder(w).Encode([]resultRow{})
			return
		}
		rs, err := results.ListByUser(r.Context(), u.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(toResultRows(rs))
	}
}
