package course

// Question is a single multiple-choice prompt. CorrectIndex addresses
// Variants; consumers must not assume it is in range (imported course files
// are untrusted) and should treat an out-of-range value as unanswerable.
type Question struct {
	Text         string   `json:"text"`
	Variants     []string `json:"variants"`
	CorrectIndex int      `json:"correct_index"`
}

// HasValidKey reports whether CorrectIndex actually points at a variant.
func (q Question) HasValidKey() bool {
	return q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Variants)
}

// Topic pairs theory content with an ordered question sequence. A topic with
// no questions is viewable but cannot start a test.
type Topic struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"` // opaque HTML theory blob
	Questions []Question `json:"questions"`
}

type Course struct {
	Title  string  `json:"title"`
	Topics []Topic `json:"topics"`
}

// AllQuestions flattens every topic's questions in course order, used to
// assemble a whole-course timed test.
func (c *Course) AllQuestions() []Question {
	var out []Question
	for _, t := range c.Topics {
		out = append(out, t.Questions...)
	}
	return out
}

// Clone deep-copies the course so editor mutations never reach snapshots
// already handed to readers.
func (c *Course) Clone() *Course {
	out := &Course{Title: c.Title, Topics: make([]Topic, len(c.Topics))}
	for i, t := range c.Topics {
		ct := Topic{Title: t.Title, Content: t.Content}
		if t.Questions != nil {
			ct.Questions = make([]Question, len(t.Questions))
			for j, q := range t.Questions {
				cq := Question{Text: q.Text, CorrectIndex: q.CorrectIndex}
				cq.Variants = append([]string(nil), q.Variants...)
				ct.Questions[j] = cq
			}
		}
		out.Topics[i] = ct
	}
	return out
}
