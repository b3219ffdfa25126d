package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coursepilot/coursepilot-lms/internal/auth"
	"github.com/coursepilot/coursepilot-lms/internal/course"
)

// ProgressStore persists the last topic index a user reached. Guests are
// never passed here; the Manager filters them out.
type ProgressStore interface {
	GetLastTopic(ctx context.Context, userID int64) (topicIndex int, found bool, err error)
	UpsertLastTopic(ctx context.Context, userID int64, topicIndex int) error
}

// ResultStore appends immutable test-attempt records.
type ResultStore interface {
	Append(ctx context.Context, userID int64, score, maxScore int, at time.Time) error
}

// EventLog records domain events (topic completed, test submitted). Failures
// are logged and swallowed; the log is an audit trail, not a dependency.
type EventLog interface {
	Append(ctx context.Context, typ, key string, data any) error
}

type learnerSession struct {
	user       auth.User
	engine     *Engine
	test       *TimedTest
	timer      *time.Timer
	lastReport *TestReport
}

// Manager holds one isolated Engine (and at most one running timed test) per
// authenticated learner. The engines themselves are sequential and lock-free;
// the Manager's mutex serializes all access to them, and its timer delivers
// the one asynchronous trigger, test expiry.
type Manager struct {
	catalog  *course.Catalog
	progress ProgressStore
	results  ResultStore
	events   EventLog
	log      *logrus.Logger

	timeLimit time.Duration

	mu       sync.Mutex
	sessions map[string]*learnerSession
}

func NewManager(cat *course.Catalog, progress ProgressStore, results ResultStore, events EventLog, timeLimit time.Duration, log *logrus.Logger) *Manager {
	return &Manager{
		catalog:   cat,
		progress:  progress,
		results:   results,
		events:    events,
		log:       log,
		timeLimit: timeLimit,
		sessions:  map[string]*learnerSession{},
	}
}

// Sessions are keyed by login: user logins are unique in storage and every
// guest gets a unique generated login, while all guests share the -1 id.
func sessionKey(u auth.User) string { return u.Login }

// attach returns the learner's session, creating it on first contact. A new
// session for a persisted user resumes at their stored last topic.
func (m *Manager) attach(ctx context.Context, u auth.User) *learnerSession {
	if s, ok := m.sessions[sessionKey(u)]; ok {
		return s
	}
	s := &learnerSession{user: u, engine: NewEngine(m.catalog.Snapshot())}
	if u.IsValid() {
		if last, found, err := m.progress.GetLastTopic(ctx, u.ID); err != nil {
			m.log.WithError(err).WithField("user", u.Login).Warn("load progress failed, starting fresh")
		} else if found {
			if err := s.engine.StartTopic(last); err != nil {
				m.log.WithFields(logrus.Fields{"user": u.Login, "topic": last}).Warn("stored progress out of range, ignoring")
			}
		}
	}
	m.sessions[sessionKey(u)] = s
	return s
}

// Detach drops the learner's session state (logout). A running timed test is
// abandoned without persisting a result.
func (m *Manager) Detach(u auth.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionKey(u)]; ok {
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(m.sessions, sessionKey(u))
	}
}

// State is the renderable snapshot of a learner's relearn-flow position.
type State struct {
	TopicIndex    int  `json:"topic_index"`
	QuestionIndex int  `json:"question_index"`
	ErrorsInTopic int  `json:"errors_in_topic"`
	TopicCount    int  `json:"topic_count"`
	QuestionCount int  `json:"question_count"` // questions in the active topic
	TestRunning   bool `json:"test_running"`
}

func (m *Manager) snapshotState(s *learnerSession) State {
	st := State{
		TopicIndex:    s.engine.TopicIndex(),
		QuestionIndex: s.engine.QuestionIndex(),
		ErrorsInTopic: s.engine.ErrorsInTopic(),
		TestRunning:   s.test != nil && s.test.State() == TestRunning,
	}
	st.TopicCount = len(m.catalog.Snapshot().Topics)
	if t, ok := s.engine.CurrentTopic(); ok {
		st.QuestionCount = len(t.Questions)
	}
	return st
}

// CurrentState reports where the learner is right now.
func (m *Manager) CurrentState(ctx context.Context, u auth.User) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotState(m.attach(ctx, u))
}

// StartTopic positions the learner at the topic and persists the selection as
// their last visited topic. Selecting a topic is not completing it, but the
// handoff to the Progress Store happens here so a learner who quits mid-topic
// resumes where they left off.
func (m *Manager) StartTopic(ctx context.Context, u auth.User, topicIndex int) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.attach(ctx, u)
	if err := s.engine.StartTopic(topicIndex); err != nil {
		return State{}, false, err
	}
	saved := m.saveProgress(ctx, u, topicIndex)
	return m.snapshotState(s), saved, nil
}

// CurrentQuestion returns the question the learner must answer next in the
// relearn flow, ok=false when none is active.
func (m *Manager) CurrentQuestion(ctx context.Context, u auth.User) (course.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attach(ctx, u).engine.CurrentQuestion()
}

// SubmitOutcome carries one relearn-flow transition plus whether any
// persistence it triggered succeeded. Saved stays true when nothing needed
// saving (guests, non-terminal results).
type SubmitOutcome struct {
	Result Result
	State  State
	Saved  bool
}

// SubmitAnswer drives the engine and, on topic or course completion, records
// the learner's advance. Storage failure never masks the transition result.
func (m *Manager) SubmitAnswer(ctx context.Context, u auth.User, answerIndex int) (SubmitOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.attach(ctx, u)
	res, err := s.engine.SubmitAnswer(answerIndex)
	if err != nil {
		return SubmitOutcome{}, err
	}
	out := SubmitOutcome{Result: res, Saved: true}
	switch res {
	case ResultTopicFinished:
		out.Saved = m.saveProgress(ctx, u, s.engine.TopicIndex()+1)
		m.appendEvent(ctx, "topic_completed", u, map[string]any{"topic_index": s.engine.TopicIndex()})
	case ResultCourseFinished:
		out.Saved = m.saveProgress(ctx, u, s.engine.TopicIndex())
		m.appendEvent(ctx, "course_completed", u, map[string]any{"topic_index": s.engine.TopicIndex()})
	}
	out.State = m.snapshotState(s)
	return out, nil
}

// saveProgress reports false only when a persistence attempt failed; guests
// never hit storage and count as saved.
func (m *Manager) saveProgress(ctx context.Context, u auth.User, topicIndex int) bool {
	if !u.IsValid() {
		return true
	}
	if err := m.progress.UpsertLastTopic(ctx, u.ID, topicIndex); err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{"user": u.Login, "topic": topicIndex}).
			Warn("progress not saved")
		return false
	}
	return true
}

func (m *Manager) appendEvent(ctx context.Context, typ string, u auth.User, data map[string]any) {
	if m.events == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["login"] = u.Login
	if err := m.events.Append(ctx, typ, u.Login, data); err != nil {
		m.log.WithError(err).WithField("type", typ).Warn("event not recorded")
	}
}
