// Package model defines shared data structures.
package model

import (
	"sort"
	"strings"
)

// Statistics weight bounds and step.
const (
	DefaultWeight   = 1.0
	MinWeight       = 0.1
	MaxWeight       = 1.0
	WeightIncrement = 0.2
)

// ChoiceSeparator joins stored distractors in flat files.
const ChoiceSeparator = "|"

// MaxChoices is the most distractors a quiz question can show. With the
// answer they use every letter from A to Z.
const MaxChoices = 25

// Question is a single quiz entry.
type Question struct {
	ID      int
	Title   string
	Answer  string
	Enabled bool
	// Choices holds distractors only; the answer is added when presenting.
	Choices []string
}

// IsQuiz reports whether the question is multiple-choice.
func (q Question) IsQuiz() bool {
	return len(q.Choices) > 0
}

// ChoicesString returns the stored form of the distractors.
func (q Question) ChoicesString() string {
	return strings.Join(q.Choices, ChoiceSeparator)
}

// ParseChoices splits a stored choices string. Empty input means free-form.
func ParseChoices(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ChoiceSeparator)
}

// NextQuestionID returns max(id)+1, or 1 for an empty bank.
func NextQuestionID(questions []Question) int {
	if len(questions) == 0 {
		return 1
	}
	maxID := 0
	for _, q := range questions {
		if q.ID > maxID {
			maxID = q.ID
		}
	}
	return maxID + 1
}

// CountEnabled returns the number of enabled questions.
func CountEnabled(questions []Question) int {
	n := 0
	for _, q := range questions {
		if q.Enabled {
			n++
		}
	}
	return n
}

// FindQuestion returns the index of the question with the given id, or -1.
func FindQuestion(questions []Question, id int) int {
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// Profile is a named collection of per-question statistics.
type Profile struct {
	ID         int
	Name       string
	Statistics map[int]QuestionStatistics
}

// DefaultProfileName is used until the user selects another profile.
const DefaultProfileName = "default"

// DefaultProfile returns the conventional fallback profile.
func DefaultProfile() Profile {
	return Profile{ID: 0, Name: DefaultProfileName, Statistics: map[int]QuestionStatistics{}}
}

// InitStatistics adds default statistics for every question the profile has not seen.
func (p *Profile) InitStatistics(questions []Question) {
	if p.Statistics == nil {
		p.Statistics = map[int]QuestionStatistics{}
	}
	for _, q := range questions {
		if _, ok := p.Statistics[q.ID]; !ok {
			p.Statistics[q.ID] = NewQuestionStatistics()
		}
	}
}

// StatisticsFor returns the statistics record for a question.
func (p Profile) StatisticsFor(questionID int) (QuestionStatistics, bool) {
	s, ok := p.Statistics[questionID]
	return s, ok
}

// Record scores an answer against the profile and returns the updated record.
func (p *Profile) Record(questionID int, correct bool) QuestionStatistics {
	if p.Statistics == nil {
		p.Statistics = map[int]QuestionStatistics{}
	}
	current, ok := p.Statistics[questionID]
	if !ok {
		current = NewQuestionStatistics()
	}
	updated := current.Update(correct)
	p.Statistics[questionID] = updated
	return updated
}

// QuestionIDs returns the ids with statistics in ascending order.
func (p Profile) QuestionIDs() []int {
	ids := make([]int, 0, len(p.Statistics))
	for id := range p.Statistics {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// NextProfileID returns max(id)+1 across the given profiles, or 0 when empty.
func NextProfileID(profiles []Profile) int {
	maxID := -1
	for _, p := range profiles {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}
