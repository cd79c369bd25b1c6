package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/verte-zerg/quizly/internal/model"
)

type backend interface {
	LoadQuestions(ctx context.Context) ([]model.Question, error)
	SaveQuestions(ctx context.Context, questions []model.Question) error
	LoadProfileByName(ctx context.Context, name string) (model.Profile, error)
	CreateProfile(ctx context.Context, profile model.Profile) (bool, error)
	LoadProfileStatistics(ctx context.Context, profile model.Profile) (model.Profile, error)
	SaveProfileStatistics(ctx context.Context, profile model.Profile) error
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	NextProfileID(ctx context.Context) (int, error)
	NextQuestionID(ctx context.Context) (int, error)
	Close() error
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openBackends(t *testing.T) map[string]backend {
	t.Helper()
	dir := t.TempDir()
	csvStore, err := OpenCSV(DefaultCSVPaths(filepath.Join(dir, "csv")), quietLogger())
	if err != nil {
		t.Fatalf("open csv store: %v", err)
	}
	sqliteStore, err := OpenSQLite(filepath.Join(dir, "sqlite", "quizly.db"), quietLogger())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = csvStore.Close()
		_ = sqliteStore.Close()
	})
	return map[string]backend{"csv": csvStore, "sqlite": sqliteStore}
}

func sampleQuestions() []model.Question {
	return []model.Question{
		{ID: 1, Title: "Capital of France?", Answer: "Paris", Enabled: true, Choices: []string{"Rome", "Berlin"}},
		{ID: 2, Title: "2 + 2, in words", Answer: "four", Enabled: false},
		{ID: 5, Title: `Say "hi"`, Answer: "hi", Enabled: true, Choices: []string{"hello", "hey"}},
	}
}

func TestQuestionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := st.LoadQuestions(ctx)
			if err != nil {
				t.Fatalf("load empty: %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("expected empty bank, got %v", empty)
			}
			if err := st.SaveQuestions(ctx, sampleQuestions()); err != nil {
				t.Fatalf("save questions: %v", err)
			}
			got, err := st.LoadQuestions(ctx)
			if err != nil {
				t.Fatalf("load questions: %v", err)
			}
			if !reflect.DeepEqual(got, sampleQuestions()) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, sampleQuestions())
			}
			next, err := st.NextQuestionID(ctx)
			if err != nil {
				t.Fatalf("next question id: %v", err)
			}
			if next != 6 {
				t.Fatalf("expected next id 6, got %d", next)
			}
		})
	}
}

func TestDefaultProfileSeeded(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			p, err := st.LoadProfileByName(ctx, model.DefaultProfileName)
			if err != nil {
				t.Fatalf("load default: %v", err)
			}
			if p.ID != 0 || p.Name != model.DefaultProfileName {
				t.Fatalf("unexpected default profile: %+v", p)
			}
			profiles, err := st.ListProfiles(ctx)
			if err != nil {
				t.Fatalf("list profiles: %v", err)
			}
			if len(profiles) != 1 || profiles[0].Name != model.DefaultProfileName {
				t.Fatalf("expected seeded default profile, got %+v", profiles)
			}
			missing, err := st.LoadProfileByName(ctx, "nobody")
			if err != nil {
				t.Fatalf("load missing: %v", err)
			}
			if missing.ID != 0 || missing.Name != model.DefaultProfileName {
				t.Fatalf("expected default for unknown name, got %+v", missing)
			}
		})
	}
}

func TestCreateProfileRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.LoadProfileByName(ctx, model.DefaultProfileName); err != nil {
				t.Fatalf("seed: %v", err)
			}
			next, err := st.NextProfileID(ctx)
			if err != nil {
				t.Fatalf("next profile id: %v", err)
			}
			if next != 1 {
				t.Fatalf("expected next profile id 1, got %d", next)
			}
			ok, err := st.CreateProfile(ctx, model.Profile{ID: next, Name: "alice"})
			if err != nil || !ok {
				t.Fatalf("create alice: ok=%v err=%v", ok, err)
			}
			ok, err = st.CreateProfile(ctx, model.Profile{ID: next + 1, Name: "alice"})
			if err != nil {
				t.Fatalf("create duplicate: %v", err)
			}
			if ok {
				t.Fatalf("expected duplicate name to be rejected")
			}
			profiles, err := st.ListProfiles(ctx)
			if err != nil {
				t.Fatalf("list profiles: %v", err)
			}
			if len(profiles) != 2 {
				t.Fatalf("expected 2 profiles, got %+v", profiles)
			}
			alice, err := st.LoadProfileByName(ctx, "alice")
			if err != nil {
				t.Fatalf("load alice: %v", err)
			}
			if alice.ID != 1 {
				t.Fatalf("expected alice id 1, got %d", alice.ID)
			}
		})
	}
}

func TestSaveStatisticsPreservesOtherProfiles(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			alice := model.Profile{ID: 1, Name: "alice", Statistics: map[int]model.QuestionStatistics{
				1: {TimesAnswered: 2, TimesAnsweredCorrectly: 1, Weight: 0.8},
				2: {TimesAnswered: 0, TimesAnsweredCorrectly: 0, Weight: 1.0},
			}}
			bob := model.Profile{ID: 2, Name: "bob", Statistics: map[int]model.QuestionStatistics{
				1: {TimesAnswered: 5, TimesAnsweredCorrectly: 5, Weight: 1.0},
				3: {TimesAnswered: 4, TimesAnsweredCorrectly: 1, Weight: 0.35},
			}}
			if err := st.SaveProfileStatistics(ctx, alice); err != nil {
				t.Fatalf("save alice: %v", err)
			}
			if err := st.SaveProfileStatistics(ctx, bob); err != nil {
				t.Fatalf("save bob: %v", err)
			}

			alice.Statistics[1] = alice.Statistics[1].Update(false)
			delete(alice.Statistics, 2)
			if err := st.SaveProfileStatistics(ctx, alice); err != nil {
				t.Fatalf("save alice again: %v", err)
			}

			gotBob, err := st.LoadProfileStatistics(ctx, model.Profile{ID: 2, Name: "bob"})
			if err != nil {
				t.Fatalf("load bob: %v", err)
			}
			if !reflect.DeepEqual(gotBob.Statistics, bob.Statistics) {
				t.Fatalf("bob statistics changed:\n got %+v\nwant %+v", gotBob.Statistics, bob.Statistics)
			}
			gotAlice, err := st.LoadProfileStatistics(ctx, model.Profile{ID: 1, Name: "alice"})
			if err != nil {
				t.Fatalf("load alice: %v", err)
			}
			if len(gotAlice.Statistics) != 1 {
				t.Fatalf("expected alice rows to be replaced, got %+v", gotAlice.Statistics)
			}
			if got := gotAlice.Statistics[1]; got.TimesAnswered != 3 || got.Weight != 0.6 {
				t.Fatalf("unexpected alice record: %+v", got)
			}
		})
	}
}

func TestSaveEmptyStatisticsIsNoop(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			p := model.Profile{ID: 1, Name: "alice", Statistics: map[int]model.QuestionStatistics{
				1: {TimesAnswered: 1, TimesAnsweredCorrectly: 1, Weight: 1.0},
			}}
			if err := st.SaveProfileStatistics(ctx, p); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := st.SaveProfileStatistics(ctx, model.Profile{ID: 1, Name: "alice"}); err != nil {
				t.Fatalf("save empty: %v", err)
			}
			got, err := st.LoadProfileStatistics(ctx, model.Profile{ID: 1})
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got.Statistics) != 1 {
				t.Fatalf("empty save removed rows: %+v", got.Statistics)
			}
		})
	}
}

func TestSQLiteSkipsInvalidRows(t *testing.T) {
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "quizly.db"), quietLogger())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()

	ctx := context.Background()
	stmts := []string{
		`INSERT INTO questions (id, title, answer, enabled, choices) VALUES (1, 'one', '1', 1, '')`,
		`INSERT INTO questions (id, title, answer, enabled, choices) VALUES (-2, 'negative', '2', 1, '')`,
		`INSERT INTO question_statistics VALUES (0, 1, 2, 1, 0.8)`,
		`INSERT INTO question_statistics VALUES (0, 2, 2, 5, 1.0)`,
		`INSERT INTO question_statistics VALUES (0, 3, -3, -4, 0.5)`,
		`INSERT INTO question_statistics VALUES (0, -4, 1, 1, 1.0)`,
	}
	for _, stmt := range stmts {
		if _, err := st.db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}

	questions, err := st.LoadQuestions(ctx)
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != 1 {
		t.Fatalf("expected only question 1, got %+v", questions)
	}

	profile, err := st.LoadProfileStatistics(ctx, model.DefaultProfile())
	if err != nil {
		t.Fatalf("load statistics: %v", err)
	}
	if len(profile.Statistics) != 1 {
		t.Fatalf("expected one valid record, got %+v", profile.Statistics)
	}
	if s := profile.Statistics[1]; s.TimesAnswered != 2 || s.TimesAnsweredCorrectly != 1 {
		t.Fatalf("unexpected record: %+v", s)
	}
}
