// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/quizly/internal/model"
)

// Order is the score sort direction of the statistics table.
type Order int

// Sort directions.
const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// ParseOrder accepts "ascending" or "descending" in any case.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	default:
		return Ascending, &model.ValidationError{Field: "order", Value: s, Reason: "enter 'ascending' or 'descending'"}
	}
}

// Row is one question of the statistics table.
type Row struct {
	ID                     int
	Title                  string
	Answer                 string
	Enabled                bool
	Score                  int
	TimesAnswered          int
	TimesAnsweredCorrectly int
	Weight                 float64
}

// BuildRows scores every question for profile and sorts by score. Questions
// with equal scores keep their bank order.
func BuildRows(questions []model.Question, profile model.Profile, order Order) []Row {
	rows := make([]Row, 0, len(questions))
	for _, q := range questions {
		st, ok := profile.StatisticsFor(q.ID)
		if !ok {
			st = model.NewQuestionStatistics()
		}
		rows = append(rows, Row{
			ID:                     q.ID,
			Title:                  q.Title,
			Answer:                 q.Answer,
			Enabled:                q.Enabled,
			Score:                  st.Score(),
			TimesAnswered:          st.TimesAnswered,
			TimesAnsweredCorrectly: st.TimesAnsweredCorrectly,
			Weight:                 st.Weight,
		})
	}
	sortRows(rows, order)
	return rows
}

func sortRows(rows []Row, order Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		if order == Descending {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Score < rows[j].Score
	})
}

// RenderQuestionTable prints the per-question score table.
func RenderQuestionTable(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No questions found.")
		return err
	}
	headers := []string{"Question ID", "Title", "Answer", "Enabled", "Score (%)"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			strconv.Itoa(r.ID),
			truncateCell(r.Title),
			truncateCell(r.Answer),
			formatEnabled(r.Enabled),
			strconv.Itoa(r.Score),
		})
	}
	return writeLines(w, formatTable(headers, tableRows, map[int]bool{0: true, 4: true}))
}

// RenderQuestionList prints questions with their enabled status.
func RenderQuestionList(w io.Writer, questions []model.Question) error {
	headers := []string{"Question ID", "Title", "Answer", "Enabled"}
	tableRows := make([][]string, 0, len(questions))
	for _, q := range questions {
		tableRows = append(tableRows, []string{
			strconv.Itoa(q.ID),
			truncateCell(q.Title),
			truncateCell(q.Answer),
			formatEnabled(q.Enabled),
		})
	}
	return writeLines(w, formatTable(headers, tableRows, map[int]bool{0: true}))
}

// RenderProfiles prints stored profiles.
func RenderProfiles(w io.Writer, profiles []model.Profile) error {
	if len(profiles) == 0 {
		_, err := fmt.Fprintln(w, "No profiles found.")
		return err
	}
	headers := []string{"Profile ID", "Name"}
	tableRows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		tableRows = append(tableRows, []string{strconv.Itoa(p.ID), p.Name})
	}
	return writeLines(w, formatTable(headers, tableRows, map[int]bool{0: true}))
}

// Summary aggregates a profile's performance over the bank.
type Summary struct {
	Questions     int
	Enabled       int
	Answered      int
	Correct       int
	Unseen        int
	AverageWeight float64
}

// Accuracy is the share of correct answers in percent.
func (s Summary) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered) * 100
}

// Summarize aggregates the rows of a statistics table.
func Summarize(rows []Row) Summary {
	var sum Summary
	var totalWeight float64
	for _, r := range rows {
		sum.Questions++
		if r.Enabled {
			sum.Enabled++
		}
		if r.TimesAnswered == 0 {
			sum.Unseen++
		}
		sum.Answered += r.TimesAnswered
		sum.Correct += r.TimesAnsweredCorrectly
		totalWeight += r.Weight
	}
	if sum.Questions > 0 {
		sum.AverageWeight = totalWeight / float64(sum.Questions)
	}
	return sum
}

// RenderSummary prints a short summary below the statistics table.
func RenderSummary(w io.Writer, sum Summary) error {
	lines := []string{
		fmt.Sprintf("Questions: %d (%d enabled, %d never answered)", sum.Questions, sum.Enabled, sum.Unseen),
		fmt.Sprintf("Answers: %d, correct: %d (%.2f%%)", sum.Answered, sum.Correct, sum.Accuracy()),
		fmt.Sprintf("Avg weight: %.2f", sum.AverageWeight),
	}
	return writeLines(w, lines)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatEnabled(enabled bool) string {
	if enabled {
		return "yes"
	}
	return "no"
}
