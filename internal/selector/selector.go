// Package selector draws questions for practice and test runs.
package selector

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/quizly/internal/model"
)

// Selector produces randomized question draws.
type Selector struct {
	rnd *rand.Rand
}

// New returns a Selector seeded with seed, or with the current time when seed is 0.
func New(seed int64) *Selector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewWithRand(rand.New(rand.NewSource(seed)))
}

// NewWithRand returns a Selector using rnd.
func NewWithRand(rnd *rand.Rand) *Selector {
	return &Selector{rnd: rnd}
}

// Select draws k enabled questions with replacement. Each candidate is weighted
// by the profile's stored weight, or DefaultWeight when the profile has no record.
func (s *Selector) Select(profile model.Profile, questions []model.Question, k int) ([]model.Question, error) {
	if k < 1 {
		k = 1
	}
	candidates := make([]model.Question, 0, len(questions))
	weights := make([]float64, 0, len(questions))
	total := 0.0
	for _, q := range questions {
		if !q.Enabled {
			continue
		}
		w := model.DefaultWeight
		if st, ok := profile.StatisticsFor(q.ID); ok {
			w = st.Weight
		}
		candidates = append(candidates, q)
		weights = append(weights, w)
		total += w
	}
	if len(candidates) == 0 {
		return nil, model.ErrEmptyCandidateSet
	}

	result := make([]model.Question, 0, k)
	for i := 0; i < k; i++ {
		r := s.rnd.Float64() * total
		acc := 0.0
		idx := len(candidates) - 1
		for j, w := range weights {
			acc += w
			if r < acc {
				idx = j
				break
			}
		}
		result = append(result, candidates[idx])
	}
	return result, nil
}

// Sample returns n distinct enabled questions in random order. The input slice
// is not reordered.
func (s *Selector) Sample(questions []model.Question, n int) ([]model.Question, error) {
	enabled := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if q.Enabled {
			enabled = append(enabled, q)
		}
	}
	if len(enabled) == 0 {
		return nil, model.ErrEmptyCandidateSet
	}
	s.rnd.Shuffle(len(enabled), func(i, j int) {
		enabled[i], enabled[j] = enabled[j], enabled[i]
	})
	if n > len(enabled) {
		n = len(enabled)
	}
	return enabled[:n], nil
}

// Present shuffles the correct answer in among the question's distractors.
func (s *Selector) Present(q model.Question) Presentation {
	choices := q.Choices
	if len(choices) > model.MaxChoices {
		choices = append([]string(nil), choices...)
		s.rnd.Shuffle(len(choices), func(i, j int) {
			choices[i], choices[j] = choices[j], choices[i]
		})
		choices = choices[:model.MaxChoices]
	}
	options := make([]string, 0, len(choices)+1)
	options = append(options, choices...)
	options = append(options, q.Answer)
	s.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return Presentation{Question: q, Options: options}
}
