package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot-lms/internal/course"
	"github.com/coursepilot/coursepilot-lms/internal/session"
)

func threeQuestions() []course.Question {
	return []course.Question{question(2, 0), question(2, 1), question(3, 2)}
}

func TestTimedTestRejectsEmptyQuestionList(t *testing.T) {
	if _, err := session.NewTimedTest(nil, time.Minute); !errors.Is(err, session.ErrNoQuestions) {
		t.Fatalf("NewTimedTest(nil) = %v, want ErrNoQuestions", err)
	}
}

func TestTimedTestCompletesAfterLastAnswer(t *testing.T) {
	tt, err := session.NewTimedTest(threeQuestions(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if tt.State() != session.TestRunning {
		t.Fatalf("state = %v, want Running", tt.State())
	}

	answers := []int{0, 0, 2} // right, wrong, right
	for i, a := range answers {
		finished, err := tt.SubmitAnswer(a)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if wantFinished := i == len(answers)-1; finished != wantFinished {
			t.Fatalf("answer %d finished = %v, want %v", i, finished, wantFinished)
		}
	}

	out, ok := tt.Outcome()
	if !ok {
		t.Fatal("no outcome after completion")
	}
	if out.Score != 2 || out.MaxScore != 3 || out.TimedOut {
		t.Fatalf("outcome = %+v, want score 2/3 not timed out", out)
	}
}

func TestTimedTestSubmitAfterFinishedRejected(t *testing.T) {
	tt, _ := session.NewTimedTest([]course.Question{question(2, 0)}, time.Minute)
	if _, err := tt.SubmitAnswer(0); err != nil {
		t.Fatal(err)
	}
	if _, err := tt.SubmitAnswer(0); !errors.Is(err, session.ErrInvalidState) {
		t.Fatalf("submit after finish = %v, want ErrInvalidState", err)
	}
}

func TestTimedTestTimeExpired(t *testing.T) {
	tt, _ := session.NewTimedTest(threeQuestions(), time.Minute)
	if _, err := tt.SubmitAnswer(0); err != nil { // one correct answer in
		t.Fatal(err)
	}
	if !tt.TimeExpired() {
		t.Fatal("TimeExpired on a running test must transition")
	}
	out, ok := tt.Outcome()
	if !ok {
		t.Fatal("no outcome after expiry")
	}
	if out.Score != 1 || out.MaxScore != 3 || !out.TimedOut {
		t.Fatalf("outcome = %+v, want 1/3 timed out", out)
	}
}

func TestTimedTestExpiryAfterCompletionIsNoOp(t *testing.T) {
	tt, _ := session.NewTimedTest([]course.Question{question(2, 0)}, time.Minute)
	if _, err := tt.SubmitAnswer(0); err != nil {
		t.Fatal(err)
	}
	if tt.TimeExpired() {
		t.Fatal("TimeExpired after completion must be a no-op")
	}
	out, _ := tt.Outcome()
	if out.TimedOut {
		t.Fatal("late expiry flipped TimedOut retroactively")
	}
}

func TestTimedTestFinishIdempotent(t *testing.T) {
	tt, _ := session.NewTimedTest(threeQuestions(), time.Minute)
	if !tt.Finish() {
		t.Fatal("first Finish must transition")
	}
	before, _ := tt.Outcome()
	if tt.Finish() {
		t.Fatal("second Finish must be a no-op")
	}
	if tt.TimeExpired() {
		t.Fatal("TimeExpired after Finish must be a no-op")
	}
	after, _ := tt.Outcome()
	if before != after {
		t.Fatalf("outcome changed by repeated finish: %+v -> %+v", before, after)
	}
}

func TestTimedTestRemainingAndDeadline(t *testing.T) {
	tt, _ := session.NewTimedTest(threeQuestions(), time.Minute)
	now := time.Now()
	if rem := tt.Remaining(now); rem <= 0 || rem > time.Minute {
		t.Fatalf("remaining = %v, want within (0, 1m]", rem)
	}
	if rem := tt.Remaining(tt.Deadline().Add(time.Second)); rem != 0 {
		t.Fatalf("remaining past deadline = %v, want 0", rem)
	}
	tt.Finish()
	if rem := tt.Remaining(now); rem != 0 {
		t.Fatalf("remaining after finish = %v, want 0", rem)
	}
}

func TestTimedTestCurrentQuestionAdvances(t *testing.T) {
	qs := threeQuestions()
	tt, _ := session.NewTimedTest(qs, time.Minute)
	q, ok := tt.CurrentQuestion()
	if !ok || q.Text != qs[0].Text {
		t.Fatalf("current question = %+v %v", q, ok)
	}
	if _, err := tt.SubmitAnswer(1); err != nil {
		t.Fatal(err)
	}
	if tt.Position() != 1 {
		t.Fatalf("position = %d, want 1", tt.Position())
	}
}
