package model

import (
	"math"
	"strconv"
)

// QuestionStatistics tracks how one profile performs on one question.
type QuestionStatistics struct {
	TimesAnswered          int
	TimesAnsweredCorrectly int
	Weight                 float64
}

// NewQuestionStatistics returns a record for a question that was never answered.
func NewQuestionStatistics() QuestionStatistics {
	return QuestionStatistics{Weight: DefaultWeight}
}

// Update returns the record after one scored answer. The weight moves by
// WeightIncrement and is clamped to [MinWeight, MaxWeight].
func (s QuestionStatistics) Update(correct bool) QuestionStatistics {
	if correct {
		s.Weight += WeightIncrement
	} else {
		s.Weight -= WeightIncrement
	}
	s.Weight = ClampWeight(s.Weight)
	s.TimesAnswered++
	if correct {
		s.TimesAnsweredCorrectly++
	}
	return s
}

// Validate rejects negative counters, more correct answers than answers and a
// NaN weight.
func (s QuestionStatistics) Validate() error {
	switch {
	case s.TimesAnswered < 0:
		return &ValidationError{Field: "times answered", Value: strconv.Itoa(s.TimesAnswered), Reason: "must not be negative"}
	case s.TimesAnsweredCorrectly < 0:
		return &ValidationError{Field: "times answered correctly", Value: strconv.Itoa(s.TimesAnsweredCorrectly), Reason: "must not be negative"}
	case s.TimesAnsweredCorrectly > s.TimesAnswered:
		return &ValidationError{Field: "times answered correctly", Value: strconv.Itoa(s.TimesAnsweredCorrectly), Reason: "exceeds times answered"}
	case math.IsNaN(s.Weight):
		return &ValidationError{Field: "weight", Reason: "not a number"}
	}
	return nil
}

// Score is the percentage of correct answers rounded to an integer.
func (s QuestionStatistics) Score() int {
	if s.TimesAnswered == 0 {
		return 0
	}
	return int(math.Round(float64(s.TimesAnsweredCorrectly) / float64(s.TimesAnswered) * 100))
}

// ClampWeight truncates w to the allowed weight range.
func ClampWeight(w float64) float64 {
	if w > MaxWeight {
		return MaxWeight
	}
	if w < MinWeight {
		return MinWeight
	}
	return w
}

// RoundWeight rounds a weight to two decimals for storage and display.
func RoundWeight(w float64) float64 {
	return math.Round(w*100) / 100
}
