package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursepilot/coursepilot-lms/internal/course"
)

// ListTopicsHandler returns the ordered topic index: titles plus question
// counts, enough for a selection screen.
func ListTopicsHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := cat.Snapshot()
		out := make([]topicSummary, len(snap.Topics))
		for i, t := range snap.Topics {
			out[i] = topicSummary{Index: i, Title: t.Title, QuestionCount: len(t.Questions)}
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GetTopicHandler returns one topic's theory content and its questions with
// answer keys stripped.
func GetTopicHandler(cat *course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "bad topic index", http.StatusBadRequest)
			return
		}
		snap := cat.Snapshot()
		if idx < 0 || idx >= len(snap.Topics) {
			http.Error(w, "topic not found", http.StatusNotFound)
			return
		}
		t := snap.Topics[idx]
		v := topicView{Index: idx, Title: t.Title, Content: t.Content, Questions: make([]questionView, len(t.Questions))}
		for i, q := range t.Questions {
			v.Questions[i] = toQuestionView(q)
		}
		_ = json.NewEncoder(w).Encode(v)
	}
}
