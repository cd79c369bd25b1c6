package stats

import (
	"context"

	"github.com/verte-zerg/quizly/internal/model"
)

// Source loads the data a report needs.
type Source interface {
	LoadQuestions(ctx context.Context) ([]model.Question, error)
	LoadProfileByName(ctx context.Context, name string) (model.Profile, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Profile model.Profile
	Rows    []Row
	Summary Summary
}

// BuildReport loads the bank and the named profile and scores every question.
func BuildReport(ctx context.Context, src Source, profileName string, order Order) (Report, error) {
	questions, err := src.LoadQuestions(ctx)
	if err != nil {
		return Report{}, err
	}
	profile, err := src.LoadProfileByName(ctx, profileName)
	if err != nil {
		return Report{}, err
	}
	return NewReport(questions, profile, order), nil
}

// NewReport scores questions for profile.
func NewReport(questions []model.Question, profile model.Profile, order Order) Report {
	rows := BuildRows(questions, profile, order)
	return Report{
		Profile: profile,
		Rows:    rows,
		Summary: Summarize(rows),
	}
}

// Sorted returns the report with rows ordered by score in the given direction.
func (r Report) Sorted(order Order) Report {
	rows := make([]Row, len(r.Rows))
	copy(rows, r.Rows)
	sortRows(rows, order)
	r.Rows = rows
	return r
}
