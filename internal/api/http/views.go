// Package http is the thin presenter over the session manager, catalog and
// stores: it translates requests into engine transitions and renders the
// typed results. All scoring decisions stay in internal/session.
package http

import (
	"errors"
	"net/http"

	"github.com/coursepilot/coursepilot-lms/internal/course"
	"github.com/coursepilot/coursepilot-lms/internal/session"
)

// questionView is a question as served to learners: no answer key.
type questionView struct {
	Text     string   `json:"text"`
	Variants []string `json:"variants"`
}

func toQuestionView(q course.Question) questionView {
	return questionView{Text: q.Text, Variants: q.Variants}
}

type topicSummary struct {
	Index         int    `json:"index"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
}

type topicView struct {
	Index     int            `json:"index"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Questions []questionView `json:"questions"`
}

// sessionError maps engine and catalog errors onto HTTP statuses. Sequencing
// violations are conflicts, bad indices are the caller's input.
func sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrInvalidIndex), errors.Is(err, course.ErrInvalidIndex):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrNoQuestions):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrNoCourse):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
