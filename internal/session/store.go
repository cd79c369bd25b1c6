package session

import (
	"context"

	"github.com/verte-zerg/quizly/internal/model"
)

// Store persists the question bank and profile statistics.
type Store interface {
	LoadQuestions(ctx context.Context) ([]model.Question, error)
	SaveQuestions(ctx context.Context, questions []model.Question) error
	LoadProfileByName(ctx context.Context, name string) (model.Profile, error)
	CreateProfile(ctx context.Context, profile model.Profile) (bool, error)
	LoadProfileStatistics(ctx context.Context, profile model.Profile) (model.Profile, error)
	SaveProfileStatistics(ctx context.Context, profile model.Profile) error
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	NextProfileID(ctx context.Context) (int, error)
	Close() error
}
