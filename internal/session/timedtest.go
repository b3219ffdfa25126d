package session

import (
	"errors"
	"time"

	"github.com/coursepilot/coursepilot-lms/internal/course"
)

// TestState is the lifecycle of one timed test run.
type TestState int

const (
	TestNotStarted TestState = iota
	TestRunning
	TestFinished
)

var ErrNoQuestions = errors.New("session: test needs at least one question")

// Outcome is the sole handoff from a finished timed test. The caller (not the
// test) persists it, so the machine stays testable without a database.
type Outcome struct {
	Score    int  `json:"score"`
	MaxScore int  `json:"max_score"`
	TimedOut bool `json:"timed_out"`
}

// TimedTest runs a fixed question list against a deadline. Unlike the relearn
// engine there is no error cutoff: every question is asked exactly once and
// wrong answers simply score nothing.
//
// TimeExpired may arrive from a timer at any point while running, racing the
// learner's final answer. Whichever transition lands first wins; everything
// after Finished is either rejected (SubmitAnswer) or a no-op (TimeExpired,
// Finish).
type TimedTest struct {
	questions []course.Question
	state     TestState
	index     int
	correct   int
	answers   []int
	deadline  time.Time
	timedOut  bool
}

// NewTimedTest starts a test over the given questions immediately; the
// deadline is now + limit.
func NewTimedTest(questions []course.Question, limit time.Duration) (*TimedTest, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &TimedTest{
		questions: questions,
		state:     TestRunning,
		answers:   make([]int, 0, len(questions)),
		deadline:  time.Now().Add(limit),
	}, nil
}

func (t *TimedTest) State() TestState    { return t.state }
func (t *TimedTest) Deadline() time.Time { return t.deadline }
func (t *TimedTest) QuestionCount() int  { return len(t.questions) }
func (t *TimedTest) Position() int       { return t.index }
func (t *TimedTest) Answers() []int      { return append([]int(nil), t.answers...) }

// Remaining reports time left at the given instant, floored at zero.
func (t *TimedTest) Remaining(now time.Time) time.Duration {
	if t.state != TestRunning {
		return 0
	}
	d := t.deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// CurrentQuestion returns the question awaiting an answer.
func (t *TimedTest) CurrentQuestion() (course.Question, bool) {
	if t.state != TestRunning || t.index >= len(t.questions) {
		return course.Question{}, false
	}
	return t.questions[t.index], true
}

// SubmitAnswer records the answer and advances. It returns finished=true when
// this was the last question; the test is then Finished with reason
// "completed". Submitting against a finished test is a sequencing error.
func (t *TimedTest) SubmitAnswer(answerIndex int) (finished bool, err error) {
	if t.state != TestRunning {
		return false, ErrInvalidState
	}
	q := t.questions[t.index]
	if q.HasValidKey() && answerIndex == q.CorrectIndex {
		t.correct++
	}
	t.answers = append(t.answers, answerIndex)
	t.index++
	if t.index >= len(t.questions) {
		t.state = TestFinished
		return true, nil
	}
	return false, nil
}

// TimeExpired forces the test to finish with the timed-out reason. Delivered
// after the test already finished it is a no-op and never flips TimedOut
// retroactively. Returns whether this call performed the transition.
func (t *TimedTest) TimeExpired() bool {
	if t.state != TestRunning {
		return false
	}
	t.state = TestFinished
	t.timedOut = true
	return true
}

// Finish ends the test without the timed-out reason (learner walked away
// early, or a double-fire with the timer). Idempotent.
func (t *TimedTest) Finish() bool {
	if t.state != TestRunning {
		return false
	}
	t.state = TestFinished
	return true
}

// Outcome is valid only once the test finished.
func (t *TimedTest) Outcome() (Outcome, bool) {
	if t.state != TestFinished {
		return Outcome{}, false
	}
	return Outcome{Score: t.correct, MaxScore: len(t.questions), TimedOut: t.timedOut}, true
}
