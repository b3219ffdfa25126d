package session_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coursepilot/coursepilot-lms/internal/auth"
	"github.com/coursepilot/coursepilot-lms/internal/course"
	"github.com/coursepilot/coursepilot-lms/internal/session"
)

/* ---------------- in-memory fakes satisfying the manager's store interfaces ---------------- */

type fakeProgress struct {
	mu   sync.Mutex
	rows map[int64]int
	fail bool
}

func newFakeProgress() *fakeProgress { return &fakeProgress{rows: map[int64]int{}} }

func (f *fakeProgress) GetLastTopic(_ context.Context, userID int64) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, false, errors.New("progress store down")
	}
	idx, ok := f.rows[userID]
	return idx, ok, nil
}

func (f *fakeProgress) UpsertLastTopic(_ context.Context, userID int64, topicIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("progress store down")
	}
	f.rows[userID] = topicIndex
	return nil
}

type savedResult struct {
	userID          int64
	score, maxScore int
}

type fakeResults struct {
	mu    sync.Mutex
	rows  []savedResult
	fail  bool
	saves int
}

func (f *fakeResults) Append(_ context.Context, userID int64, score, maxScore int, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.fail {
		return errors.New("result store down")
	}
	f.rows = append(f.rows, savedResult{userID, score, maxScore})
	return nil
}

type fakeEvents struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeEvents) Append(_ context.Context, typ, _ string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, typ)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newManager(t *testing.T, limit time.Duration) (*session.Manager, *fakeProgress, *fakeResults, *fakeEvents) {
	t.Helper()
	cat := course.NewCatalog(testCourse(), "")
	progress := newFakeProgress()
	results := &fakeResults{}
	events := &fakeEvents{}
	mgr := session.NewManager(cat, progress, results, events, limit, quietLogger())
	return mgr, progress, results, events
}

var (
	student = auth.User{ID: 7, Login: "alice", FullName: "Alice", Role: auth.RoleStudent}
	guest   = auth.Guest("guest-abc123")
)

func TestManagerStartTopicPersistsSelection(t *testing.T) {
	mgr, progress, _, _ := newManager(t, time.Minute)
	ctx := context.Background()

	st, saved, err := mgr.StartTopic(ctx, student, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !saved || st.TopicIndex != 1 {
		t.Fatalf("start topic: saved=%v state=%+v", saved, st)
	}
	if idx := progress.rows[student.ID]; idx != 1 {
		t.Fatalf("persisted topic = %d, want 1", idx)
	}
}

func TestManagerGuestNeverHitsStores(t *testing.T) {
	mgr, progress, results, _ := newManager(t, time.Minute)
	ctx := context.Background()

	if _, saved, err := mgr.StartTopic(ctx, guest, 0); err != nil || !saved {
		t.Fatalf("guest start: saved=%v err=%v", saved, err)
	}
	if len(progress.rows) != 0 {
		t.Fatal("guest wrote to the progress store")
	}

	if _, err := mgr.StartTest(ctx, guest, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.FinishTest(ctx, guest); err != nil {
		t.Fatal(err)
	}
	if results.saves != 0 {
		t.Fatal("guest wrote to the result store")
	}
}

func TestManagerResumesStoredProgress(t *testing.T) {
	mgr, progress, _, _ := newManager(t, time.Minute)
	progress.rows[student.ID] = 1

	st := mgr.CurrentState(context.Background(), student)
	if st.TopicIndex != 1 || st.QuestionIndex != 0 {
		t.Fatalf("resume state = %+v, want topic 1 question 0", st)
	}
}

func TestManagerOutOfRangeStoredProgressIgnored(t *testing.T) {
	mgr, progress, _, _ := newManager(t, time.Minute)
	progress.rows[student.ID] = 42

	st := mgr.CurrentState(context.Background(), student)
	if st.TopicIndex != -1 {
		t.Fatalf("stale progress applied: %+v", st)
	}
}

func TestManagerTopicFinishedAdvancesProgress(t *testing.T) {
	mgr, progress, _, events := newManager(t, time.Minute)
	ctx := context.Background()

	if _, _, err := mgr.StartTopic(ctx, student, 0); err != nil {
		t.Fatal(err)
	}
	if out, err := mgr.SubmitAnswer(ctx, student, 1); err != nil || out.Result != session.ResultCorrect {
		t.Fatalf("first answer: %+v %v", out, err)
	}
	out, err := mgr.SubmitAnswer(ctx, student, 0)
	if err != nil || out.Result != session.ResultTopicFinished {
		t.Fatalf("second answer: %+v %v", out, err)
	}
	if !out.Saved {
		t.Fatal("progress save reported failed")
	}
	if idx := progress.rows[student.ID]; idx != 1 {
		t.Fatalf("persisted topic = %d, want next topic 1", idx)
	}
	if len(events.types) == 0 || events.types[len(events.types)-1] != "topic_completed" {
		t.Fatalf("events = %v, want topic_completed", events.types)
	}
}

func TestManagerStorageFailureDegradesGracefully(t *testing.T) {
	mgr, progress, _, _ := newManager(t, time.Minute)
	ctx := context.Background()

	if _, _, err := mgr.StartTopic(ctx, student, 0); err != nil {
		t.Fatal(err)
	}
	progress.fail = true
	if _, err := mgr.SubmitAnswer(ctx, student, 1); err != nil {
		t.Fatal(err)
	}
	out, err := mgr.SubmitAnswer(ctx, student, 0)
	if err != nil {
		t.Fatalf("transition must survive storage failure: %v", err)
	}
	if out.Result != session.ResultTopicFinished {
		t.Fatalf("result = %v, want TopicFinished", out.Result)
	}
	if out.Saved {
		t.Fatal("failed save not surfaced")
	}
}

func TestManagerTimedTestLifecycle(t *testing.T) {
	mgr, _, results, events := newManager(t, time.Minute)
	ctx := context.Background()
	topic := 0

	v, err := mgr.StartTest(ctx, student, &topic)
	if err != nil {
		t.Fatal(err)
	}
	if v.Total != 2 || !v.HasQuestion {
		t.Fatalf("test view = %+v", v)
	}

	// Second start while running is a sequencing error.
	if _, err := mgr.StartTest(ctx, student, &topic); !errors.Is(err, session.ErrInvalidState) {
		t.Fatalf("second start = %v, want ErrInvalidState", err)
	}

	if _, rep, err := mgr.SubmitTestAnswer(ctx, student, 1); err != nil || rep != nil {
		t.Fatalf("mid-test answer: rep=%v err=%v", rep, err)
	}
	_, rep, err := mgr.SubmitTestAnswer(ctx, student, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rep == nil || rep.Outcome.Score != 2 || rep.Outcome.MaxScore != 2 || rep.Outcome.TimedOut {
		t.Fatalf("final report = %+v", rep)
	}
	if !rep.Saved || len(results.rows) != 1 || results.rows[0] != (savedResult{student.ID, 2, 2}) {
		t.Fatalf("result not persisted: %+v", results.rows)
	}
	if events.types[len(events.types)-1] != "test_submitted" {
		t.Fatalf("events = %v", events.types)
	}

	// Finishing again: nothing running.
	if _, err := mgr.FinishTest(ctx, student); !errors.Is(err, session.ErrInvalidState) {
		t.Fatalf("finish after completion = %v, want ErrInvalidState", err)
	}
	if results.saves != 1 {
		t.Fatalf("result persisted %d times, want exactly once", results.saves)
	}

	if got, ok := mgr.LastTestReport(ctx, student); !ok || got.Outcome != rep.Outcome {
		t.Fatalf("last report = %+v %v", got, ok)
	}
}

func TestManagerWholeCourseTest(t *testing.T) {
	mgr, _, _, _ := newManager(t, time.Minute)
	v, err := mgr.StartTest(context.Background(), student, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Total != 3 { // 2 + 1 + 0 questions across the catalog
		t.Fatalf("total = %d, want 3", v.Total)
	}
}

func TestManagerTestExpiresByTimer(t *testing.T) {
	mgr, _, results, _ := newManager(t, 30*time.Millisecond)
	ctx := context.Background()
	topic := 0

	if _, err := mgr.StartTest(ctx, student, &topic); err != nil {
		t.Fatal(err)
	}
	if _, _, err := mgr.SubmitTestAnswer(ctx, student, 1); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if rep, ok := mgr.LastTestReport(ctx, student); ok {
			if !rep.Outcome.TimedOut || rep.Outcome.Score != 1 || rep.Outcome.MaxScore != 2 {
				t.Fatalf("expired report = %+v", rep)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timer never expired the test")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The expired test persisted exactly once and rejects further answers.
	if len(results.rows) != 1 {
		t.Fatalf("persisted %d results, want 1", len(results.rows))
	}
	if _, _, err := mgr.SubmitTestAnswer(ctx, student, 0); !errors.Is(err, session.ErrInvalidState) {
		t.Fatalf("answer after expiry = %v, want ErrInvalidState", err)
	}
}

func TestManagerDetachDropsState(t *testing.T) {
	mgr, progress, _, _ := newManager(t, time.Minute)
	ctx := context.Background()

	if _, _, err := mgr.StartTopic(ctx, student, 1); err != nil {
		t.Fatal(err)
	}
	mgr.Detach(student)

	// Fresh attach resumes from the store, not from dropped memory.
	progress.rows[student.ID] = 0
	st := mgr.CurrentState(ctx, student)
	if st.TopicIndex != 0 {
		t.Fatalf("state after detach = %+v, want stored topic 0", st)
	}
}

func TestManagerEmptyTopicTestRejected(t *testing.T) {
	mgr, _, _, _ := newManager(t, time.Minute)
	topic := 2 // the empty topic
	if _, err := mgr.StartTest(context.Background(), student, &topic); !errors.Is(err, session.ErrNoQuestions) {
		t.Fatalf("StartTest(empty) = %v, want ErrNoQuestions", err)
	}
}
