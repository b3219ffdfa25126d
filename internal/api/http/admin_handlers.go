package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursepilot/coursepilot-lms/internal/course"
	"github.com/coursepilot/coursepilot-lms/internal/store"
)

// ListUsersHandler is the admin view over all registered accounts.
func ListUsersHandler(users *store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := users.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// AllResultsHandler is the admin statistics table: every attempt of every
// user, newest first.
func AllResultsHandler(results *store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := results.ListAll(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(toResultRows(rs))
	}
}

// DeleteUserResultsHandler wipes one user's test history.
func DeleteUserResultsHandler(results *store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			http.Error(w, "bad user id", http.StatusBadRequest)
			return
		}
		if err := results.DeleteByUser(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func catalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, course.ErrInvalidIndex):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, course.ErrBadQuestion), errors.Is(err, course.ErrEmptyCourse):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

// AddTopicHandler appends a topic to the catalog (new immutable snapshot).
func AddTopicHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t course.Topic
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := cat.AddTopic(t); err != nil {
			catalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// UpdateTopicHandler replaces a topic's title and theory content.
func UpdateTopicHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "bad topic index", http.StatusBadRequest)
			return
		}
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := cat.UpdateTopic(idx, req.Title, req.Content); err != nil {
			catalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteTopicHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "bad topic index", http.StatusBadRequest)
			return
		}
		if err := cat.DeleteTopic(idx); err != nil {
			catalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AddQuestionHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "bad topic index", http.StatusBadRequest)
			return
		}
		var q course.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := cat.AddQuestion(idx, q); err != nil {
			catalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func UpdateQuestionHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err1 := strconv.Atoi(chi.URLParam(r, "index"))
		q, err2 := strconv.Atoi(chi.URLParam(r, "qindex"))
		if err1 != nil || err2 != nil {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		var body course.Question
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := cat.UpdateQuestion(t, q, body); err != nil {
			catalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteQuestionHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err1 := strconv.Atoi(chi.URLParam(r, "index"))
		q, err2 := strconv.Atoi(chi.URLParam(r, "qindex"))
		if err1 != nil || err2 != nil {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		if err := cat.DeleteQuestion(t, q); err != nil {
			catalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SaveCourseHandler persists the current catalog snapshot to the course file
// so edits survive a restart.
func SaveCourseHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cat.Persist(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
