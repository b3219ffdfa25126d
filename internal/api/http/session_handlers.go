package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/coursepilot/coursepilot-lms/internal/auth/middleware"
	"github.com/coursepilot/coursepilot-lms/internal/session"
)

// StartTopicHandler positions the learner at a topic's first question.
func StartTopicHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "bad topic index", http.StatusBadRequest)
			return
		}
		st, saved, err := mgr.StartTopic(r.Context(), u, idx)
		if err != nil {
			sessionError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"state": st, "progress_saved": saved})
	}
}

// SessionStateHandler reports where the learner currently is.
func SessionStateHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(mgr.CurrentState(r.Context(), u))
	}
}

// SessionQuestionHandler serves the active relearn-flow question.
func SessionQuestionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		q, ok := mgr.CurrentQuestion(r.Context(), u)
		if !ok {
			http.Error(w, "no active question", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(toQuestionView(q))
	}
}

// LogoutHandler drops the learner's in-memory session. Tokens are stateless,
// so the client discards its own; a running timed test is abandoned without a
// persisted result.
func LogoutHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		mgr.Detach(u)
		w.WriteHeader(http.StatusNoContent)
	}
}

// SubmitAnswerHandler drives one relearn-flow transition and renders its
// closed-enum result. A failed progress write degrades to progress_saved
// false instead of masking the result.
func SubmitAnswerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		var req struct {
			AnswerIndex int `json:"answer_index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		out, err := mgr.SubmitAnswer(r.Context(), u, req.AnswerIndex)
		if err != nil {
			sessionError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result":         out.Result.String(),
			"state":          out.State,
			"progress_saved": out.Saved,
		})
	}
}
