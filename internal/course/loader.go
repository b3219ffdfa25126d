package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrEmptyCourse = errors.New("course has no topics")

// Load reads a course file. The file is plain JSON; it is produced either by
// the seed command or by the admin editor's save.
func Load(path string) (*Course, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("course file %s is empty", path)
	}
	var c Course
	if err := json.Unmarshal(buf, &c); err != nil {
		return nil, fmt.Errorf("decode course file %s: %w", path, err)
	}
	if len(c.Topics) == 0 {
		return nil, ErrEmptyCourse
	}
	return &c, nil
}

// Save writes the course back to disk, pretty-printed so diffs of the course
// file stay reviewable.
func (c *Course) Save(path string) error {
	buf, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode course: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write course file: %w", err)
	}
	return nil
}
