package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/verte-zerg/quizly/internal/model"
	"github.com/verte-zerg/quizly/internal/selector"
	"github.com/verte-zerg/quizly/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *store.CSVStore {
	t.Helper()
	st, err := store.OpenCSV(store.DefaultCSVPaths(t.TempDir()), quietLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func freeFormBank(n int, answer string) []model.Question {
	questions := make([]model.Question, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, model.Question{ID: i, Title: "Question", Answer: answer, Enabled: true})
	}
	return questions
}

func seedQuestions(t *testing.T, st Store, questions []model.Question) {
	t.Helper()
	if err := st.SaveQuestions(context.Background(), questions); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
}

func runSession(t *testing.T, st Store, input string) (string, *Controller) {
	t.Helper()
	var out bytes.Buffer
	c := New(st, Options{
		In:       strings.NewReader(input),
		Out:      &out,
		Selector: selector.New(1),
		Logger:   quietLogger(),
	})
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String(), c
}

func loadDefault(t *testing.T, st Store) model.Profile {
	t.Helper()
	p, err := st.LoadProfileByName(context.Background(), model.DefaultProfileName)
	if err != nil {
		t.Fatalf("load default profile: %v", err)
	}
	return p
}

func TestQuitSavesQuestionsAndStatistics(t *testing.T) {
	st := openStore(t)
	out, _ := runSession(t, st, "1\n2\nwhat is go?\n gopher \nn\n7\n")

	if !strings.Contains(out, "Successfully added 1 new question(s)!") {
		t.Fatalf("expected add confirmation, got:\n%s", out)
	}
	if !strings.Contains(out, "Thanks for playing!") {
		t.Fatalf("expected goodbye, got:\n%s", out)
	}
	questions, err := st.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	want := model.Question{ID: 1, Title: "What is go?", Answer: "gopher", Enabled: true}
	if len(questions) != 1 || questions[0].ID != want.ID || questions[0].Title != want.Title ||
		questions[0].Answer != want.Answer || !questions[0].Enabled || questions[0].IsQuiz() {
		t.Fatalf("unexpected saved questions: %+v", questions)
	}
	profile := loadDefault(t, st)
	if s, ok := profile.StatisticsFor(1); !ok || s.Weight != model.DefaultWeight || s.TimesAnswered != 0 {
		t.Fatalf("expected default statistics for new question, got %+v (found %v)", s, ok)
	}
}

func TestEndOfInputTakesQuitPath(t *testing.T) {
	st := openStore(t)
	out, _ := runSession(t, st, "1\n2\nTitle\nAnswer\nn\n")

	if !strings.Contains(out, "Saving...") {
		t.Fatalf("expected save on end of input, got:\n%s", out)
	}
	questions, err := st.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected question to be saved, got %+v", questions)
	}
}

// signalWriter cancels once the output contains marker.
type signalWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	marker string
	cancel context.CancelFunc
}

func (w *signalWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.buf.Write(p)
	if strings.Contains(w.buf.String(), w.marker) {
		w.cancel()
	}
	return n, err
}

func TestCancellationTakesQuitPath(t *testing.T) {
	st := openStore(t)
	seedQuestions(t, st, freeFormBank(5, "x"))

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	go func() {
		_, _ = io.WriteString(pw, "4\nx\n")
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &signalWriter{marker: "Correct!", cancel: cancel}
	c := New(st, Options{In: pr, Out: out, Selector: selector.New(1), Logger: quietLogger()})
	if err := c.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	profile := loadDefault(t, st)
	answered := 0
	for _, s := range profile.Statistics {
		answered += s.TimesAnswered
	}
	if answered != 1 {
		t.Fatalf("expected the interrupted answer to be saved, got %d answers", answered)
	}
}

func TestInvalidModeReprompts(t *testing.T) {
	st := openStore(t)
	out, _ := runSession(t, st, "0\nabc\n8\n7\n")
	if got := strings.Count(out, "Invalid number! Please select again."); got != 3 {
		t.Fatalf("expected 3 reprompts, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "Successfully selected Mode 7: Quit!") {
		t.Fatalf("expected quit selection, got:\n%s", out)
	}
}

func TestAddQuizQuestionRejectsInvalidEntry(t *testing.T) {
	st := openStore(t)
	input := "1\n" +
		"1\ncapital?\nParis\nparis\nRome\n" +
		"1\ncapital?\nParis\nRome\nBerlin\nn\n" +
		"7\n"
	out, c := runSession(t, st, input)

	if !strings.Contains(out, "must differ from the answer! Please try again.") {
		t.Fatalf("expected rejection, got:\n%s", out)
	}
	questions := c.Questions()
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %+v", questions)
	}
	q := questions[0]
	if q.Title != "Capital?" || q.Answer != "Paris" || len(q.Choices) != 2 || q.Choices[0] != "Rome" || q.Choices[1] != "Berlin" {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestAddQuestionsContinuesIDs(t *testing.T) {
	st := openStore(t)
	seedQuestions(t, st, []model.Question{{ID: 2, Title: "a", Answer: "b", Enabled: true}, {ID: 7, Title: "c", Answer: "d", Enabled: true}})
	out, c := runSession(t, st, "1\n2\nq\na\ny\n2\nr\nb\nn\n7\n")
	if !strings.Contains(out, "Question 8.") || !strings.Contains(out, "Question 9.") {
		t.Fatalf("expected ids 8 and 9, got:\n%s", out)
	}
	questions := c.Questions()
	if len(questions) != 4 || questions[2].ID != 8 || questions[3].ID != 9 {
		t.Fatalf("unexpected ids: %+v", questions)
	}
}

func TestEnableDisableFlipsWithoutTouchingStatistics(t *testing.T) {
	st := openStore(t)
	seedQuestions(t, st, freeFormBank(2, "x"))
	ctx := context.Background()
	if err := st.SaveProfileStatistics(ctx, model.Profile{ID: 0, Name: model.DefaultProfileName, Statistics: map[int]model.QuestionStatistics{
		2: {TimesAnswered: 3, TimesAnsweredCorrectly: 1, Weight: 0.6},
	}}); err != nil {
		t.Fatalf("seed statistics: %v", err)
	}

	out, c := runSession(t, st, "3\nx\n42\n2\n7\n")
	if got := strings.Count(out, "Invalid ID! Try again."); got != 2 {
		t.Fatalf("expected 2 reprompts, got %d:\n%s", got, out)
	}
	questions := c.Questions()
	if !questions[0].Enabled || questions[1].Enabled {
		t.Fatalf("expected only question 2 disabled, got %+v", questions)
	}
	s, _ := loadDefault(t, st).StatisticsFor(2)
	if s.TimesAnswered != 3 || s.TimesAnsweredCorrectly != 1 || s.Weight != 0.6 {
		t.Fatalf("statistics changed: %+v", s)
	}
}

func TestPracticeUpdatesStatistics(t *testing.T) {
	st := openStore(t)
	seedQuestions(t, st, freeFormBank(5, "x"))
	out, _ := runSession(t, st, "4\nX\nwrong\nQUIT\n7\n")

	if !strings.Contains(out, "Correct!") || !strings.Contains(out, "Incorrect!") || !strings.Contains(out, "Correct answer: x") {
		t.Fatalf("expected both verdicts, got:\n%s", out)
	}
	if !strings.Contains(out, "You can view your statistics in Statistics View!") {
		t.Fatalf("expected quit message, got:\n%s", out)
	}
	answered, correct := 0, 0
	for _, s := range loadDefault(t, st).Statistics {
		answered += s.TimesAnswered
		correct += s.TimesAnsweredCorrectly
	}
	if answered != 2 || correct != 1 {
		t.Fatalf("expected 2 answers and 1 correct, got %d and %d", answered, correct)
	}
}

func TestPracticeRequiresEnabledQuestions(t *testing.T) {
	st := openStore(t)
	questions := freeFormBank(6, "x")
	questions[0].Enabled = false
	questions[1].Enabled = false
	seedQuestions(t, st, questions)
	out, _ := runSession(t, st, "4\n7\n")
	if !strings.Contains(out, "Please enable at least 5 questions before starting Practice Mode.") {
		t.Fatalf("expected enabled guard, got:\n%s", out)
	}
}

func TestPracticeQuizRejectsUnknownLetter(t *testing.T) {
	st := openStore(t)
	questions := freeFormBank(5, "Paris")
	for i := range questions {
		questions[i].Choices = []string{"Rome", "Berlin"}
	}
	seedQuestions(t, st, questions)
	out, _ := runSession(t, st, "4\nd\nquit\n7\n")
	for _, want := range []string{"A: ", "B: ", "C: ", "Invalid choice! Enter one of: a, b, c."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "D: ") {
		t.Fatalf("unexpected fourth option:\n%s", out)
	}
}

func TestTestModeRefusesSmallBank(t *testing.T) {
	st := openStore(t)
	seedQuestions(t, st, freeFormBank(4, "x"))
	out, _ := runSession(t, st, "5\n7\n")
	if !strings.Contains(out, "Please create at least 5 questions before starting Test Mode.") {
		t.Fatalf("expected refusal, got:\n%s", out)
	}
	if strings.Contains(out, "amount of questions") {
		t.Fatalf("count prompt shown for a small bank:\n%s", out)
	}
}

func TestTestModeShortfalls(t *testing.T) {
	tests := []struct {
		name  string
		count string
		want  string
	}{
		{name: "total", count: "9", want: "Please add at least 3 more question(s)"},
		{name: "enabled", count: "5", want: "Please enable at least 1 more question(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openStore(t)
			questions := freeFormBank(6, "x")
			questions[0].Enabled = false
			questions[1].Enabled = false
			seedQuestions(t, st, questions)
			out, _ := runSession(t, st, "5\n"+tt.count+"\n7\n")
			if !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q, got:\n%s", tt.want, out)
			}
			if strings.Contains(out, "Test completed!") {
				t.Fatalf("test should not start:\n%s", out)
			}
		})
	}
}

func TestTestModeScoresDistinctQuestions(t *testing.T) {
	st := openStore(t)
	seedQuestions(t, st, freeFormBank(5, "x"))
	out, _ := runSession(t, st, "5\nabc\n0\n3\nx\nwrong\nx\n7\n")

	if got := strings.Count(out, "Invalid number! Try again."); got != 2 {
		t.Fatalf("expected 2 count reprompts, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "Test completed! You answered 2 out of 3 questions correctly!") {
		t.Fatalf("expected summary, got:\n%s", out)
	}
	answered := 0
	for id, s := range loadDefault(t, st).Statistics {
		if s.TimesAnswered > 1 {
			t.Fatalf("question %d asked twice", id)
		}
		answered += s.TimesAnswered
	}
	if answered != 3 {
		t.Fatalf("expected 3 answers, got %d", answered)
	}
}

func TestTestModeQuitSkipsSummary(t *testing.T) {
	st := openStore(t)
	seedQuestions(t, st, freeFormBank(5, "x"))
	out, _ := runSession(t, st, "5\n3\nx\nquit\n7\n")
	if strings.Contains(out, "Test completed!") {
		t.Fatalf("expected no summary after quit:\n%s", out)
	}
}

func TestViewStatistics(t *testing.T) {
	st := openStore(t)
	seedQuestions(t, st, freeFormBank(2, "x"))
	out, _ := runSession(t, st, "2\nsideways\nDescending\n7\n")
	for _, want := range []string{"Invalid ordering type!", "Displaying statistics for 'default' profile...", "Score (%)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	empty := openStore(t)
	out, _ = runSession(t, empty, "2\n7\n")
	if !strings.Contains(out, "Unable to view statistics if no questions are found!") {
		t.Fatalf("expected empty-bank refusal, got:\n%s", out)
	}
}

func TestCreateProfileRejectsTakenName(t *testing.T) {
	st := openStore(t)
	out, c := runSession(t, st, "6\ncreate\n Alice \n6\ncreate\nALICE\n\nbob\n7\n")

	if !strings.Contains(out, "Please enter a name which has not been used before.") {
		t.Fatalf("expected duplicate rejection, got:\n%s", out)
	}
	if !strings.Contains(out, "Invalid profile name: can not be empty!") {
		t.Fatalf("expected empty name rejection, got:\n%s", out)
	}
	if p := c.Profile(); p.Name != "bob" || p.ID != 2 {
		t.Fatalf("expected bob to be active, got %+v", p)
	}
	profiles, err := st.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	if strings.Join(names, ",") != "default,alice,bob" {
		t.Fatalf("unexpected profiles: %v", names)
	}
}

func TestSelectProfileSavesOutgoingStatistics(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	seedQuestions(t, st, freeFormBank(5, "x"))
	if _, err := st.LoadProfileByName(ctx, model.DefaultProfileName); err != nil {
		t.Fatalf("seed default profile: %v", err)
	}
	if _, err := st.CreateProfile(ctx, model.Profile{ID: 1, Name: "alice"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	out, c := runSession(t, st, "4\nx\nquit\n6\nselect\n9\n1\n7\n")
	if !strings.Contains(out, "Saving current profile question statistics...") {
		t.Fatalf("expected outgoing save, got:\n%s", out)
	}
	if !strings.Contains(out, "You successfully selected profile: Alice!") {
		t.Fatalf("expected selection message, got:\n%s", out)
	}
	if p := c.Profile(); p.ID != 1 || len(p.Statistics) != 5 {
		t.Fatalf("expected alice initialized against the bank, got %+v", p)
	}

	answered := 0
	for _, s := range loadDefault(t, st).Statistics {
		answered += s.TimesAnswered
	}
	if answered != 1 {
		t.Fatalf("expected default's answer to be saved, got %d", answered)
	}
}

func TestSelectProfileNeedsMoreThanOne(t *testing.T) {
	st := openStore(t)
	out, c := runSession(t, st, "6\nselect\n7\n")
	if !strings.Contains(out, "Please add more profiles before selecting!") {
		t.Fatalf("expected refusal, got:\n%s", out)
	}
	if c.Profile().Name != model.DefaultProfileName {
		t.Fatalf("profile changed: %+v", c.Profile())
	}
}

// failingStore fails question saves to check that statistics are still saved.
type failingStore struct {
	*store.CSVStore
	savedStatistics bool
}

func (f *failingStore) SaveQuestions(context.Context, []model.Question) error {
	return errors.New("disk full")
}

func (f *failingStore) SaveProfileStatistics(ctx context.Context, p model.Profile) error {
	f.savedStatistics = true
	return f.CSVStore.SaveProfileStatistics(ctx, p)
}

func TestQuitAttemptsBothSaves(t *testing.T) {
	st := &failingStore{CSVStore: openStore(t)}
	out, _ := runSession(t, st, "1\n2\nt\na\nn\n7\n")
	if !strings.Contains(out, "failed to save questions: disk full") {
		t.Fatalf("expected warning, got:\n%s", out)
	}
	if !st.savedStatistics {
		t.Fatalf("statistics save was not attempted")
	}
	if !strings.Contains(out, "Thanks for playing!") {
		t.Fatalf("expected clean exit, got:\n%s", out)
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"hello World": "Hello World",
		"élan":        "Élan",
		"1 + 1":       "1 + 1",
	}
	for in, want := range tests {
		if got := capitalize(in); got != want {
			t.Fatalf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}
