package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coursepilot/coursepilot-lms/internal/auth"
	"github.com/coursepilot/coursepilot-lms/internal/course"
)

// TestView is the renderable snapshot of a running timed test.
type TestView struct {
	Question     course.Question
	HasQuestion  bool
	Position     int
	Total        int
	RemainingSec int
	Deadline     time.Time
}

// TestReport is returned once per finished test: the outcome tuple plus
// whether the attempt record reached storage.
type TestReport struct {
	Outcome Outcome
	Saved   bool
}

// StartTest begins a timed test over one topic's questions, or over the whole
// course when topicIndex is nil. It refuses to start while another test is
// running and schedules the expiry timer that delivers TimeExpired.
func (m *Manager) StartTest(ctx context.Context, u auth.User, topicIndex *int) (TestView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.attach(ctx, u)
	if s.test != nil && s.test.State() == TestRunning {
		return TestView{}, ErrInvalidState
	}

	snap := m.catalog.Snapshot()
	var questions []course.Question
	if topicIndex != nil {
		if *topicIndex < 0 || *topicIndex >= len(snap.Topics) {
			return TestView{}, ErrInvalidIndex
		}
		questions = snap.Topics[*topicIndex].Questions
	} else {
		questions = snap.AllQuestions()
	}

	tt, err := NewTimedTest(questions, m.timeLimit)
	if err != nil {
		return TestView{}, err
	}
	s.test = tt
	key := sessionKey(u)
	s.timer = time.AfterFunc(m.timeLimit, func() { m.expireTest(key) })

	m.log.WithFields(logrus.Fields{
		"user": u.Login, "questions": len(questions), "limit": m.timeLimit,
	}).Info("timed test started")
	return m.testView(s), nil
}

// TestStatus reports the running test, ErrInvalidState when none is running.
func (m *Manager) TestStatus(ctx context.Context, u auth.User) (TestView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.attach(ctx, u)
	if s.test == nil || s.test.State() != TestRunning {
		return TestView{}, ErrInvalidState
	}
	return m.testView(s), nil
}

// TestRemaining is the poll/tick hook for display timers. ok=false when no
// test is running.
func (m *Manager) TestRemaining(ctx context.Context, u auth.User) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.attach(ctx, u)
	if s.test == nil || s.test.State() != TestRunning {
		return 0, false
	}
	return s.test.Remaining(time.Now()), true
}

// SubmitTestAnswer records one answer. When the answer completes the test the
// report is returned; otherwise the view exposes the next question.
func (m *Manager) SubmitTestAnswer(ctx context.Context, u auth.User, answerIndex int) (TestView, *TestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.attach(ctx, u)
	if s.test == nil {
		return TestView{}, nil, ErrInvalidState
	}
	finished, err := s.test.SubmitAnswer(answerIndex)
	if err != nil {
		return TestView{}, nil, err
	}
	if finished {
		rep := m.finalizeTest(ctx, s)
		return TestView{}, &rep, nil
	}
	return m.testView(s), nil, nil
}

// FinishTest ends the running test early. Idempotent against the timer: if
// the test already finished, the stored report semantics stand and
// ErrInvalidState tells the caller nothing was running.
func (m *Manager) FinishTest(ctx context.Context, u auth.User) (TestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.attach(ctx, u)
	if s.test == nil || !s.test.Finish() {
		return TestReport{}, ErrInvalidState
	}
	return m.finalizeTest(ctx, s), nil
}

// expireTest fires from the timer goroutine. The TimeExpired no-op guarantee
// makes the race with a simultaneous final answer harmless.
func (m *Manager) expireTest(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok || s.test == nil {
		return
	}
	if s.test.TimeExpired() {
		m.log.WithField("user", s.user.Login).Info("test time expired")
		m.finalizeTest(context.Background(), s)
	}
}

// finalizeTest runs exactly once per test: its callers only reach it on the
// single state transition into Finished. It persists the attempt for valid
// users and stops the expiry timer.
func (m *Manager) finalizeTest(ctx context.Context, s *learnerSession) TestReport {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	out, _ := s.test.Outcome()
	rep := TestReport{Outcome: out, Saved: true}
	if s.user.IsValid() {
		if err := m.results.Append(ctx, s.user.ID, out.Score, out.MaxScore, time.Now()); err != nil {
			m.log.WithError(err).WithField("user", s.user.Login).Warn("test result not saved")
			rep.Saved = false
		}
	}
	m.appendEvent(ctx, "test_submitted", s.user, map[string]any{
		"score": out.Score, "max_score": out.MaxScore, "timed_out": out.TimedOut,
	})
	m.log.WithFields(logrus.Fields{
		"user": s.user.Login, "score": out.Score, "max": out.MaxScore, "timed_out": out.TimedOut,
	}).Info("timed test finished")
	s.lastReport = &rep
	return rep
}

// LastTestReport returns the report of the learner's most recently finished
// test in this session. Lets the UI fetch an outcome it missed because the
// timer, not an answer, ended the test.
func (m *Manager) LastTestReport(ctx context.Context, u auth.User) (TestReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.attach(ctx, u)
	if s.lastReport == nil {
		return TestReport{}, false
	}
	return *s.lastReport, true
}

func (m *Manager) testView(s *learnerSession) TestView {
	v := TestView{
		Position:     s.test.Position(),
		Total:        s.test.QuestionCount(),
		Deadline:     s.test.Deadline(),
		RemainingSec: int(s.test.Remaining(time.Now()) / time.Second),
	}
	v.Question, v.HasQuestion = s.test.CurrentQuestion()
	return v
}
