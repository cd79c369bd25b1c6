package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/verte-zerg/quizly/internal/model"
)

var (
	questionHeaders   = []string{"id", "title", "answer", "enabled", "choices"}
	statisticsHeaders = []string{"profile_id", "question_id", "times_answered", "times_answered_correctly", "weight"}
	profileHeaders    = []string{"id", "name"}
)

// CSVPaths locates the three flat files of a CSV store.
type CSVPaths struct {
	Questions  string
	Statistics string
	Profiles   string
}

// DefaultCSVPaths returns the conventional file names inside dir.
func DefaultCSVPaths(dir string) CSVPaths {
	return CSVPaths{
		Questions:  filepath.Join(dir, "questions.csv"),
		Statistics: filepath.Join(dir, "questions_statistics.csv"),
		Profiles:   filepath.Join(dir, "profiles.csv"),
	}
}

// CSVStore keeps the question bank and statistics in flat CSV files.
type CSVStore struct {
	paths  CSVPaths
	logger *slog.Logger
}

// OpenCSV prepares a CSV store. Files are created lazily with their header row.
func OpenCSV(paths CSVPaths, logger *slog.Logger) (*CSVStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, p := range []string{paths.Questions, paths.Statistics, paths.Profiles} {
		if p == "" {
			return nil, fmt.Errorf("csv store path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, wrapErr("create data directory", filepath.Dir(p), err)
		}
	}
	return &CSVStore{paths: paths, logger: logger}, nil
}

// Close is a no-op; files are opened per operation.
func (s *CSVStore) Close() error {
	return nil
}

type tableState int

const (
	tableCreated tableState = iota
	tableValid
	tableInvalid
)

// ensureTable creates path with a header row when missing and checks the
// header of an existing file. A file with the wrong header is left as is.
func (s *CSVStore) ensureTable(path string, headers []string) (tableState, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeTable(path, headers, nil); err != nil {
			return tableInvalid, err
		}
		return tableCreated, nil
	}
	if err != nil {
		return tableInvalid, wrapErr("open", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only file.
			_ = cerr
		}
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	first, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("unreadable header, ignoring file", "path", path, "error", err)
		return tableInvalid, nil
	}
	if !slices.Equal(first, headers) {
		s.logger.Warn("unexpected header, ignoring file", "path", path, "header", first)
		return tableInvalid, nil
	}
	return tableValid, nil
}

// readRecords returns every data row of path. Rows that cannot be parsed as CSV
// or that have fewer fields than headers are skipped with a warning.
func (s *CSVStore) readRecords(path string, headers []string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, wrapErr("open", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only file.
			_ = cerr
		}
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	var records [][]string
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			s.logger.Warn("skipping malformed line", "path", path, "line", perr.Line, "error", perr.Err)
			continue
		}
		if err != nil {
			return nil, wrapErr("read", path, err)
		}
		if header {
			header = false
			continue
		}
		if len(record) < len(headers) {
			s.logger.Warn("skipping incomplete line", "path", path, "record", record)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// usesCRLF reports whether the first line of path ends with \r\n. Missing or
// single-line files report false.
func usesCRLF(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only file.
			_ = cerr
		}
	}()
	line, err := bufio.NewReader(file).ReadBytes('\n')
	if err != nil {
		return false
	}
	return bytes.HasSuffix(line, []byte("\r\n"))
}

// writeTable atomically replaces path with headers followed by rows. The line
// terminator of an existing file is kept.
func writeTable(path string, headers []string, rows [][]string) error {
	crlf := usesCRLF(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapErr("create data directory", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return wrapErr("create temp file for", path, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := csv.NewWriter(tmpFile)
	writer.UseCRLF = crlf
	if err := writer.Write(headers); err != nil {
		return wrapErr("write", path, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return wrapErr("write", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return wrapErr("close", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return wrapErr("write", path, err)
	}
	return nil
}

func appendRecord(path string, record []string) error {
	crlf := usesCRLF(path)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return wrapErr("open", path, err)
	}
	writer := csv.NewWriter(file)
	writer.UseCRLF = crlf
	if err := writer.Write(record); err != nil {
		_ = file.Close()
		return wrapErr("append to", path, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return wrapErr("append to", path, err)
	}
	if err := file.Close(); err != nil {
		return wrapErr("close", path, err)
	}
	return nil
}

// LoadQuestions returns the question bank in file order.
func (s *CSVStore) LoadQuestions(_ context.Context) ([]model.Question, error) {
	path := s.paths.Questions
	state, err := s.ensureTable(path, questionHeaders)
	if err != nil || state != tableValid {
		return nil, err
	}
	records, err := s.readRecords(path, questionHeaders)
	if err != nil {
		return nil, err
	}
	questions := make([]model.Question, 0, len(records))
	seen := make(map[int]bool, len(records))
	for _, rec := range records {
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil || id < 0 {
			s.logger.Warn("invalid question id, skipping question", "id", rec[0])
			continue
		}
		if seen[id] {
			s.logger.Warn("duplicate question id, skipping question", "id", id)
			continue
		}
		enabled, err := strconv.ParseBool(strings.TrimSpace(rec[3]))
		if err != nil {
			s.logger.Warn("invalid enabled flag, skipping question", "id", id, "enabled", rec[3])
			continue
		}
		seen[id] = true
		questions = append(questions, model.Question{
			ID:      id,
			Title:   rec[1],
			Answer:  rec[2],
			Enabled: enabled,
			Choices: model.ParseChoices(rec[4]),
		})
	}
	return questions, nil
}

// SaveQuestions replaces the question file.
func (s *CSVStore) SaveQuestions(_ context.Context, questions []model.Question) error {
	rows := make([][]string, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []string{
			strconv.Itoa(q.ID),
			q.Title,
			q.Answer,
			formatBool(q.Enabled),
			q.ChoicesString(),
		})
	}
	return writeTable(s.paths.Questions, questionHeaders, rows)
}

// LoadProfileByName returns the named profile with its statistics, or the
// default profile when no such profile exists. A new profile file is seeded
// with the default profile.
func (s *CSVStore) LoadProfileByName(ctx context.Context, name string) (model.Profile, error) {
	path := s.paths.Profiles
	state, err := s.ensureTable(path, profileHeaders)
	if err != nil {
		return model.DefaultProfile(), err
	}
	if state == tableCreated {
		def := model.DefaultProfile()
		if err := appendRecord(path, []string{strconv.Itoa(def.ID), def.Name}); err != nil {
			return def, err
		}
	}
	if state != tableValid {
		return s.LoadProfileStatistics(ctx, model.DefaultProfile())
	}

	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return model.DefaultProfile(), err
	}
	for _, p := range profiles {
		if p.Name == name {
			return s.LoadProfileStatistics(ctx, p)
		}
	}
	s.logger.Debug("profile not found, using default", "name", name)
	return s.LoadProfileStatistics(ctx, model.DefaultProfile())
}

// CreateProfile appends a profile. It returns false when the name is taken.
func (s *CSVStore) CreateProfile(ctx context.Context, profile model.Profile) (bool, error) {
	path := s.paths.Profiles
	state, err := s.ensureTable(path, profileHeaders)
	if err != nil {
		return false, err
	}
	if state == tableInvalid {
		return false, wrapErr("create profile in", path, errors.New("unexpected file header"))
	}
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range profiles {
		if p.Name == profile.Name {
			return false, nil
		}
	}
	if err := appendRecord(path, []string{strconv.Itoa(profile.ID), profile.Name}); err != nil {
		return false, err
	}
	return true, nil
}

// LoadProfileStatistics returns profile with its statistics filled from storage.
func (s *CSVStore) LoadProfileStatistics(_ context.Context, profile model.Profile) (model.Profile, error) {
	out := model.Profile{ID: profile.ID, Name: profile.Name, Statistics: map[int]model.QuestionStatistics{}}
	path := s.paths.Statistics
	state, err := s.ensureTable(path, statisticsHeaders)
	if err != nil || state != tableValid {
		return out, err
	}
	records, err := s.readRecords(path, statisticsHeaders)
	if err != nil {
		return out, err
	}
	for _, rec := range records {
		profileID, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			s.logger.Warn("failed to convert statistics line", "record", rec, "error", err)
			continue
		}
		if profileID != profile.ID {
			continue
		}
		questionID, st, err := parseStatistics(rec)
		if err != nil {
			s.logger.Warn("failed to convert statistics line", "record", rec, "error", err)
			continue
		}
		out.Statistics[questionID] = st
	}
	return out, nil
}

func parseStatistics(rec []string) (int, model.QuestionStatistics, error) {
	var st model.QuestionStatistics
	questionID, err := strconv.Atoi(strings.TrimSpace(rec[1]))
	if err != nil {
		return 0, st, err
	}
	if questionID < 0 {
		return 0, st, &model.ValidationError{Field: "question id", Value: rec[1], Reason: "must not be negative"}
	}
	if st.TimesAnswered, err = strconv.Atoi(strings.TrimSpace(rec[2])); err != nil {
		return 0, st, err
	}
	if st.TimesAnsweredCorrectly, err = strconv.Atoi(strings.TrimSpace(rec[3])); err != nil {
		return 0, st, err
	}
	if st.Weight, err = strconv.ParseFloat(strings.TrimSpace(rec[4]), 64); err != nil {
		return 0, st, err
	}
	if err := st.Validate(); err != nil {
		return 0, st, err
	}
	st.Weight = model.ClampWeight(st.Weight)
	return questionID, st, nil
}

// SaveProfileStatistics rewrites the rows of profile and keeps every other
// row as it was read. An empty mapping is not written.
func (s *CSVStore) SaveProfileStatistics(_ context.Context, profile model.Profile) error {
	if len(profile.Statistics) == 0 {
		return nil
	}
	path := s.paths.Statistics
	state, err := s.ensureTable(path, statisticsHeaders)
	if err != nil {
		return err
	}

	var rows [][]string
	if state == tableValid {
		records, err := s.readRecords(path, statisticsHeaders)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if id, err := strconv.Atoi(strings.TrimSpace(rec[0])); err == nil && id == profile.ID {
				continue
			}
			rows = append(rows, rec)
		}
	} else if state == tableInvalid {
		s.logger.Warn("replacing statistics file with unexpected header", "path", path)
	}

	for _, id := range profile.QuestionIDs() {
		st := profile.Statistics[id]
		rows = append(rows, []string{
			strconv.Itoa(profile.ID),
			strconv.Itoa(id),
			strconv.Itoa(st.TimesAnswered),
			strconv.Itoa(st.TimesAnsweredCorrectly),
			formatWeight(st.Weight),
		})
	}
	return writeTable(path, statisticsHeaders, rows)
}

// ListProfiles returns all profiles without statistics in file order.
func (s *CSVStore) ListProfiles(_ context.Context) ([]model.Profile, error) {
	path := s.paths.Profiles
	state, err := s.ensureTable(path, profileHeaders)
	if err != nil || state != tableValid {
		return nil, err
	}
	records, err := s.readRecords(path, profileHeaders)
	if err != nil {
		return nil, err
	}
	profiles := make([]model.Profile, 0, len(records))
	for _, rec := range records {
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			s.logger.Warn("failed to convert profile line", "record", rec, "error", err)
			continue
		}
		profiles = append(profiles, model.Profile{ID: id, Name: rec[1]})
	}
	return profiles, nil
}

// NextProfileID returns the highest profile id plus one.
func (s *CSVStore) NextProfileID(ctx context.Context) (int, error) {
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return 0, err
	}
	return model.NextProfileID(profiles), nil
}

// NextQuestionID returns the highest question id plus one, or 1 for an empty bank.
func (s *CSVStore) NextQuestionID(ctx context.Context) (int, error) {
	questions, err := s.LoadQuestions(ctx)
	if err != nil {
		return 0, err
	}
	return model.NextQuestionID(questions), nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// formatWeight writes the two-decimal weight as 1.0, 0.8, 0.35.
func formatWeight(w float64) string {
	s := strconv.FormatFloat(model.RoundWeight(w), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
