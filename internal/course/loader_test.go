package course_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/coursepilot/coursepilot-lms/internal/course"
)

func sampleCourse() *course.Course {
	return &course.Course{
		Title: "HTTP Proxies",
		Topics: []course.Topic{
			{
				Title:   "Basics",
				Content: "What a proxy does.",
				Questions: []course.Question{
					{Text: "Port?", Variants: []string{"80", "443"}, CorrectIndex: 0},
				},
			},
			{Title: "Advanced", Content: "Tunnelling."},
		},
	}
}

func TestLoadSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.json")
	want := sampleCourse()
	if err := want.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := course.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != want.Title || len(got.Topics) != 2 {
		t.Fatalf("loaded %+v", got)
	}
	q := got.Topics[0].Questions[0]
	if q.Text != "Port?" || q.CorrectIndex != 0 || len(q.Variants) != 2 {
		t.Fatalf("loaded question %+v", q)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := course.Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := course.Load(path); err == nil {
		t.Fatal("Load of an empty file succeeded")
	}
}

func TestLoadRejectsZeroTopics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.json")
	if err := os.WriteFile(path, []byte(`{"title":"bare"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := course.Load(path); !errors.Is(err, course.ErrEmptyCourse) {
		t.Fatalf("Load = %v, want ErrEmptyCourse", err)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.json")
	if err := os.WriteFile(path, []byte(`{"topics": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := course.Load(path); err == nil {
		t.Fatal("Load of malformed JSON succeeded")
	}
}

func TestAllQuestions(t *testing.T) {
	c := sampleCourse()
	all := c.AllQuestions()
	if len(all) != 1 {
		t.Fatalf("AllQuestions = %d, want 1", len(all))
	}
}

func TestHasValidKey(t *testing.T) {
	q := course.Question{Variants: []string{"a", "b"}, CorrectIndex: 1}
	if !q.HasValidKey() {
		t.Fatal("in-range key reported invalid")
	}
	q.CorrectIndex = 2
	if q.HasValidKey() {
		t.Fatal("out-of-range key reported valid")
	}
	q.CorrectIndex = -1
	if q.HasValidKey() {
		t.Fatal("negative key reported valid")
	}
}
