// Package store persists questions, profiles and per-profile statistics.
package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/verte-zerg/quizly/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteStore keeps the question bank and statistics in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens or creates the SQLite database and applies migrations.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapErr("create data directory", dir, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapErr("open database", path, err)
	}
	db.SetMaxOpenConns(1)
	st := &SQLiteStore{db: db, path: path, logger: logger}
	if err := st.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, wrapErr("migrate database", path, err)
	}
	return st, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			answer TEXT NOT NULL,
			enabled INTEGER NOT NULL,
			choices TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS question_statistics (
			profile_id INTEGER NOT NULL,
			question_id INTEGER NOT NULL,
			times_answered INTEGER NOT NULL,
			times_answered_correctly INTEGER NOT NULL,
			weight REAL NOT NULL,
			PRIMARY KEY (profile_id, question_id)
		);`,
		`INSERT OR IGNORE INTO profiles (id, name) VALUES (0, 'default');`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadQuestions returns the question bank ordered by id.
func (s *SQLiteStore) LoadQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, answer, enabled, choices FROM questions ORDER BY id ASC`)
	if err != nil {
		return nil, wrapErr("load questions", s.path, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var choices string
		if err := rows.Scan(&q.ID, &q.Title, &q.Answer, &q.Enabled, &choices); err != nil {
			s.logger.Warn("skipping unreadable question row", "error", err)
			continue
		}
		if q.ID < 0 {
			s.logger.Warn("invalid question id, skipping question", "id", q.ID)
			continue
		}
		q.Choices = model.ParseChoices(choices)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("load questions", s.path, err)
	}
	return questions, nil
}

// SaveQuestions replaces the stored question bank.
func (s *SQLiteStore) SaveQuestions(ctx context.Context, questions []model.Question) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("save questions", s.path, err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return wrapErr("save questions", s.path, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO questions (id, title, answer, enabled, choices) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return wrapErr("save questions", s.path, err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, q := range questions {
		if _, err = stmt.ExecContext(ctx, q.ID, q.Title, q.Answer, q.Enabled, q.ChoicesString()); err != nil {
			return wrapErr("save questions", s.path, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return wrapErr("save questions", s.path, err)
	}
	return nil
}

// LoadProfileByName returns the named profile with its statistics, or the
// default profile when no such profile exists.
func (s *SQLiteStore) LoadProfileByName(ctx context.Context, name string) (model.Profile, error) {
	profile := model.Profile{Name: name}
	err := s.db.QueryRowContext(ctx, `SELECT id FROM profiles WHERE name = ?`, name).Scan(&profile.ID)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("profile not found, using default", "name", name)
		profile = model.DefaultProfile()
	} else if err != nil {
		return model.DefaultProfile(), wrapErr("load profile", s.path, err)
	}
	return s.LoadProfileStatistics(ctx, profile)
}

// CreateProfile stores a new profile. It returns false when the name is taken.
func (s *SQLiteStore) CreateProfile(ctx context.Context, profile model.Profile) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE name = ?`, profile.Name).Scan(&count); err != nil {
		return false, wrapErr("create profile", s.path, err)
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO profiles (id, name) VALUES (?, ?)`, profile.ID, profile.Name); err != nil {
		return false, wrapErr("create profile", s.path, err)
	}
	return true, nil
}

// LoadProfileStatistics returns profile with its statistics filled from storage.
func (s *SQLiteStore) LoadProfileStatistics(ctx context.Context, profile model.Profile) (model.Profile, error) {
	out := model.Profile{ID: profile.ID, Name: profile.Name, Statistics: map[int]model.QuestionStatistics{}}
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, times_answered, times_answered_correctly, weight
		 FROM question_statistics WHERE profile_id = ?`, profile.ID)
	if err != nil {
		return out, wrapErr("load statistics", s.path, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var questionID int
		var st model.QuestionStatistics
		if err := rows.Scan(&questionID, &st.TimesAnswered, &st.TimesAnsweredCorrectly, &st.Weight); err != nil {
			s.logger.Warn("skipping unreadable statistics row", "profile_id", profile.ID, "error", err)
			continue
		}
		if err := st.Validate(); err != nil || questionID < 0 {
			s.logger.Warn("skipping invalid statistics row", "profile_id", profile.ID, "question_id", questionID, "error", err)
			continue
		}
		st.Weight = model.ClampWeight(st.Weight)
		out.Statistics[questionID] = st
	}
	if err := rows.Err(); err != nil {
		return out, wrapErr("load statistics", s.path, err)
	}
	return out, nil
}

// SaveProfileStatistics replaces the stored statistics of profile. Other
// profiles are untouched. An empty mapping is not written.
func (s *SQLiteStore) SaveProfileStatistics(ctx context.Context, profile model.Profile) (err error) {
	if len(profile.Statistics) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("save statistics", s.path, err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM question_statistics WHERE profile_id = ?`, profile.ID); err != nil {
		return wrapErr("save statistics", s.path, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO question_statistics (profile_id, question_id, times_answered, times_answered_correctly, weight)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return wrapErr("save statistics", s.path, err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, id := range profile.QuestionIDs() {
		st := profile.Statistics[id]
		if _, err = stmt.ExecContext(ctx, profile.ID, id, st.TimesAnswered, st.TimesAnsweredCorrectly, model.RoundWeight(st.Weight)); err != nil {
			return wrapErr("save statistics", s.path, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return wrapErr("save statistics", s.path, err)
	}
	return nil
}

// ListProfiles returns all profiles without statistics, ordered by id.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM profiles ORDER BY id ASC`)
	if err != nil {
		return nil, wrapErr("list profiles", s.path, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, wrapErr("list profiles", s.path, err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list profiles", s.path, err)
	}
	return profiles, nil
}

// NextProfileID returns the highest profile id plus one.
func (s *SQLiteStore) NextProfileID(ctx context.Context) (int, error) {
	var next int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), -1) + 1 FROM profiles`).Scan(&next); err != nil {
		return 0, wrapErr("read profile ids", s.path, err)
	}
	return next, nil
}

// NextQuestionID returns the highest question id plus one, or 1 for an empty bank.
func (s *SQLiteStore) NextQuestionID(ctx context.Context) (int, error) {
	var next int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM questions`).Scan(&next); err != nil {
		return 0, wrapErr("read question ids", s.path, err)
	}
	return next, nil
}
