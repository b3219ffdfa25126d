// Package session holds the learner-facing state machines: the per-topic
// relearn engine and the timed multi-question test. Both are pure state with
// no I/O and no locking; the Manager drives them and owns persistence and
// the wall clock.
package session

import (
	"errors"

	"github.com/coursepilot/coursepilot-lms/internal/course"
)

// MaxErrors is how many wrong answers a learner may give inside one topic
// before the topic restarts from its first question. The product treats this
// as fixed policy; it is a named constant so the cutoff lives in one place.
const MaxErrors = 3

// Result is the closed outcome enumeration of a single answer submission.
type Result int

const (
	ResultCorrect Result = iota
	ResultWrong
	ResultFailRelearn
	ResultTopicFinished
	ResultCourseFinished
)

func (r Result) String() string {
	switch r {
	case ResultCorrect:
		return "correct"
	case ResultWrong:
		return "wrong"
	case ResultFailRelearn:
		return "fail_relearn"
	case ResultTopicFinished:
		return "topic_finished"
	case ResultCourseFinished:
		return "course_finished"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidState marks a call whose preconditions (course loaded, topic
	// or question active, test running) are unmet. It is always a sequencing
	// bug in the caller, never user input.
	ErrInvalidState = errors.New("session: operation not valid in current state")
	// ErrInvalidIndex marks an out-of-range topic index; callers re-prompt.
	ErrInvalidIndex = errors.New("session: index out of range")
	ErrNoCourse     = errors.New("session: course not loaded")
)

// Engine tracks where one learner is in the course: current topic, current
// question within it, and errors accumulated since the topic (re)started.
type Engine struct {
	course        *course.Course
	topicIndex    int
	questionIndex int
	errorsInTopic int
}

// NewEngine creates an idle engine over an immutable course snapshot. A nil
// course is allowed; every transition then fails with ErrNoCourse.
func NewEngine(c *course.Course) *Engine {
	return &Engine{course: c, topicIndex: -1, questionIndex: -1}
}

// Reset returns the engine to its initial no-topic state, keeping the course.
func (e *Engine) Reset() {
	e.topicIndex = -1
	e.questionIndex = -1
	e.errorsInTopic = 0
}

func (e *Engine) TopicIndex() int    { return e.topicIndex }
func (e *Engine) QuestionIndex() int { return e.questionIndex }
func (e *Engine) ErrorsInTopic() int { return e.errorsInTopic }

// StartTopic positions the learner at the first question of the topic and
// clears the error counter. Starting a topic with zero questions is legal
// (the topic is still viewable); SubmitAnswer will then refuse to run.
func (e *Engine) StartTopic(topicIndex int) error {
	if e.course == nil {
		return ErrNoCourse
	}
	if topicIndex < 0 || topicIndex >= len(e.course.Topics) {
		return ErrInvalidIndex
	}
	e.topicIndex = topicIndex
	e.questionIndex = 0
	e.errorsInTopic = 0
	return nil
}

// CurrentTopic returns the active topic, or ok=false when no topic is active.
// It never faults on stale indices.
func (e *Engine) CurrentTopic() (course.Topic, bool) {
	if e.course == nil || e.topicIndex < 0 || e.topicIndex >= len(e.course.Topics) {
		return course.Topic{}, false
	}
	return e.course.Topics[e.topicIndex], true
}

// CurrentQuestion returns the active question, or ok=false when no question
// is active (no topic, zero-question topic, or index past the end).
func (e *Engine) CurrentQuestion() (course.Question, bool) {
	t, ok := e.CurrentTopic()
	if !ok {
		return course.Question{}, false
	}
	if e.questionIndex < 0 || e.questionIndex >= len(t.Questions) {
		return course.Question{}, false
	}
	return t.Questions[e.questionIndex], true
}

// SubmitAnswer resolves one answer against the active question.
//
// An out-of-range answerIndex (a UI may send -1 for "nothing selected") and a
// corrupt CorrectIndex both resolve to ResultWrong rather than an error: the
// session must never get stuck or corrupted by bad input, only by bad
// sequencing.
func (e *Engine) SubmitAnswer(answerIndex int) (Result, error) {
	if e.course == nil {
		return 0, ErrNoCourse
	}
	t, ok := e.CurrentTopic()
	if !ok {
		return 0, ErrInvalidState
	}
	q, ok := e.CurrentQuestion()
	if !ok {
		return 0, ErrInvalidState
	}

	correct := answerIndex >= 0 && answerIndex < len(q.Variants) &&
		q.HasValidKey() && answerIndex == q.CorrectIndex

	if correct {
		e.questionIndex++
		if e.questionIndex >= len(t.Questions) {
			if e.topicIndex >= len(e.course.Topics)-1 {
				return ResultCourseFinished, nil
			}
			return ResultTopicFinished, nil
		}
		return ResultCorrect, nil
	}

	e.errorsInTopic++
	if e.errorsInTopic >= MaxErrors {
		e.questionIndex = 0
		e.errorsInTopic = 0
		return ResultFailRelearn, nil
	}
	return ResultWrong, nil
}
