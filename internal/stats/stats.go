// Package stats derives display statistics from persisted test results. All
// functions are pure; one-decimal rounding is part of the display contract.
package stats

import (
	"math"
	"time"
)

// TestResult is one immutable test attempt record.
type TestResult struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	TestDate time.Time `json:"test_date"`
	Score    int       `json:"score"`
	MaxScore int       `json:"max_score"`
}

// Percentage is score over max as 0..100. A zero MaxScore yields 0 rather
// than a division fault.
func (r TestResult) Percentage() float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return float64(r.Score) / float64(r.MaxScore) * 100
}

// Grade bands a percentage for display. Total over [0,100]; boundary values
// fall into the higher band.
func Grade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "Excellent"
	case percentage >= 75:
		return "Good"
	case percentage >= 60:
		return "Satisfactory"
	default:
		return "Unsatisfactory"
	}
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 { return math.Round(x*10) / 10 }

// Average is the arithmetic mean of percentages over results with MaxScore>0,
// 0 when there are none.
func Average(results []TestResult) float64 {
	sum, n := 0.0, 0
	for _, r := range results {
		if r.MaxScore > 0 {
			sum += r.Percentage()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Best is the result with the highest score ratio, ties broken by the most
// recent TestDate. ok=false on an empty set.
func Best(results []TestResult) (TestResult, bool) {
	if len(results) == 0 {
		return TestResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		switch {
		case ratio(r) > ratio(best):
			best = r
		case ratio(r) == ratio(best) && r.TestDate.After(best.TestDate):
			best = r
		}
	}
	return best, true
}

// Last is the most recent result by TestDate. ok=false on an empty set.
func Last(results []TestResult) (TestResult, bool) {
	if len(results) == 0 {
		return TestResult{}, false
	}
	last := results[0]
	for _, r := range results[1:] {
		if r.TestDate.After(last.TestDate) {
			last = r
		}
	}
	return last, true
}

func ratio(r TestResult) float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return float64(r.Score) / float64(r.MaxScore)
}

// Summary is the profile header block: averages rounded to one decimal.
type Summary struct {
	Count          int       `json:"count"`
	AveragePercent float64   `json:"average_percent"`
	BestPercent    float64   `json:"best_percent"`
	BestGrade      string    `json:"best_grade"`
	LastTestDate   time.Time `json:"last_test_date,omitempty"`
}

func Summarize(results []TestResult) Summary {
	s := Summary{Count: len(results), AveragePercent: Round1(Average(results))}
	if best, ok := Best(results); ok {
		p := best.Percentage()
		s.BestPercent = Round1(p)
		s.BestGrade = Grade(p)
	}
	if last, ok := Last(results); ok {
		s.LastTestDate = last.TestDate
	}
	return s
}
