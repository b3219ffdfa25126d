package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	authmw "github.com/coursepilot/coursepilot-lms/internal/auth/middleware"
	"github.com/coursepilot/coursepilot-lms/internal/session"
	"github.com/coursepilot/coursepilot-lms/internal/stats"
)

type testViewJSON struct {
	Question     *questionView `json:"question,omitempty"`
	Position     int           `json:"position"`
	Total        int           `json:"total"`
	RemainingSec int           `json:"remaining_sec"`
	Deadline     time.Time     `json:"deadline"`
}

func toTestViewJSON(v session.TestView) testViewJSON {
	out := testViewJSON{Position: v.Position, Total: v.Total, RemainingSec: v.RemainingSec, Deadline: v.Deadline}
	if v.HasQuestion {
		q := toQuestionView(v.Question)
		out.Question = &q
	}
	return out
}

func toReportJSON(rep session.TestReport) map[string]any {
	p := stats.TestResult{Score: rep.Outcome.Score, MaxScore: rep.Outcome.MaxScore}.Percentage()
	return map[string]any{
		"score":      rep.Outcome.Score,
		"max_score":  rep.Outcome.MaxScore,
		"timed_out":  rep.Outcome.TimedOut,
		"percentage": stats.Round1(p),
		"grade":      stats.Grade(p),
		"saved":      rep.Saved,
	}
}

// StartTestHandler begins a timed test: over one topic's questions when
// topic_index is given, over the whole course otherwise.
func StartTestHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		var req struct {
			TopicIndex *int `json:"topic_index"`
		}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}
		v, err := mgr.StartTest(r.Context(), u, req.TopicIndex)
		if err != nil {
			sessionError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(toTestViewJSON(v))
	}
}

// TestStatusHandler reports the running test's position and remaining time.
func TestStatusHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		v, err := mgr.TestStatus(r.Context(), u)
		if err != nil {
			http.Error(w, "no running test", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(toTestViewJSON(v))
	}
}

// TestAnswerHandler records one timed-test answer; on the final answer the
// response carries the report instead of a next question.
func TestAnswerHandler(mgr *session.Manager) http.HandlerFunc {
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
		v, rep, err := mgr.SubmitTestAnswer(r.Context(), u, req.AnswerIndex)
		if err != nil {
			sessionError(w, err)
			return
		}
		if rep != nil {
			_ = json.NewEncoder(w).Encode(map[string]any{"finished": true, "report": toReportJSON(*rep)})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"finished": false, "test": toTestViewJSON(v)})
	}
}

// TestFinishHandler ends the running test early. Finishing twice (or racing
// the expiry timer) is not an error at the machine level; here a missing
// running test maps to 404 so the UI can fall back to the last report.
func TestFinishHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		rep, err := mgr.FinishTest(r.Context(), u)
		if err != nil {
			http.Error(w, "no running test", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(toReportJSON(rep))
	}
}

// LastTestReportHandler returns the most recent finished test of this
// session, covering the case where the expiry timer ended the test between
// the learner's requests.
func LastTestReportHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		rep, ok := mgr.LastTestReport(r.Context(), u)
		if !ok {
			http.Error(w, "no finished test", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(toReportJSON(rep))
	}
}

// TestTickerHandler streams remaining-time ticks over a websocket once per
// second while a test runs. Display only: expiry is enforced server-side by
// the manager's timer regardless of whether anyone is watching.
func TestTickerHandler(mgr *session.Manager, log *logrus.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			remaining, running := mgr.TestRemaining(r.Context(), u)
			msg := map[string]any{
				"remaining_sec": int(remaining / time.Second),
				"running":       running,
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			if !running {
				return
			}
			select {
			case <-tick.C:
			case <-r.Context().Done():
				return
			}
		}
	}
}
