package selector

import (
	"strings"

	"github.com/verte-zerg/quizly/internal/model"
)

// Presentation is a multiple-choice question with its options in display order.
type Presentation struct {
	Question model.Question
	Options  []string
}

// Label returns the letter shown for option i: A, B, C, ...
func Label(i int) string {
	return string(rune('A' + i))
}

// Labels returns the lower-case letters accepted as answers.
func (p Presentation) Labels() []string {
	out := make([]string, len(p.Options))
	for i := range p.Options {
		out[i] = strings.ToLower(Label(i))
	}
	return out
}

// Resolve maps an answer letter to the option text.
func (p Presentation) Resolve(letter string) (string, bool) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 {
		return "", false
	}
	idx := int(letter[0]) - 'A'
	if idx < 0 || idx >= len(p.Options) {
		return "", false
	}
	return p.Options[idx], true
}

// IsCorrect compares an answer to the question's answer ignoring case.
func IsCorrect(q model.Question, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.Answer))
}
