package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/quizly/internal/model"
	"github.com/verte-zerg/quizly/internal/selector"
	"github.com/verte-zerg/quizly/internal/stats"
)

func (c *Controller) viewStatistics(ctx context.Context) error {
	fmt.Fprintln(c.out, "\nWelcome to Statistics View!")
	if len(c.questions) == 0 {
		fmt.Fprintln(c.out, "Unable to view statistics if no questions are found!")
		fmt.Fprintln(c.out)
		return nil
	}

	var order stats.Order
	for {
		line, err := c.prompt.ask(ctx, "Sort questions by score 'ascending' or 'descending'?: ")
		if err != nil {
			return err
		}
		order, err = stats.ParseOrder(line)
		if err == nil {
			break
		}
		fmt.Fprintln(c.out, "Invalid ordering type! Please enter: 'ascending' or 'descending'.")
	}

	fmt.Fprintf(c.out, "Displaying statistics for '%s' profile...\n", c.profile.Name)
	report := stats.NewReport(c.questions, c.profile, order)
	if err := stats.RenderQuestionTable(c.out, report.Rows); err != nil {
		return err
	}
	fmt.Fprintln(c.out)
	if err := stats.RenderSummary(c.out, report.Summary); err != nil {
		return err
	}
	fmt.Fprintln(c.out)
	return nil
}

// ready reports whether the bank is large enough to start modeName, printing
// the shortfall otherwise.
func (c *Controller) ready(modeName string, checkEnabled bool) bool {
	minimum := c.opts.MinQuestions
	if len(c.questions) < minimum {
		fmt.Fprintf(c.out, "Please create at least %d questions before starting %s.\n\n", minimum, modeName)
		return false
	}
	if checkEnabled && model.CountEnabled(c.questions) < minimum {
		fmt.Fprintf(c.out, "Please enable at least %d questions before starting %s.\n\n", minimum, modeName)
		return false
	}
	return true
}

func (c *Controller) practice(ctx context.Context) error {
	fmt.Fprintln(c.out, "\nWelcome to Practice Mode!")
	if !c.ready("Practice Mode", true) {
		return nil
	}

	for {
		fmt.Fprintf(c.out, "If you wish to quit, type '%s'.\n\n", quitWord)
		picked, err := c.selector.Select(c.profile, c.questions, 1)
		if errors.Is(err, model.ErrEmptyCandidateSet) {
			fmt.Fprintln(c.out, "No enabled questions available.")
			return nil
		}
		if err != nil {
			return err
		}
		_, quit, err := c.askQuestion(ctx, picked[0])
		if err != nil {
			return err
		}
		if quit {
			c.leaveMode()
			return nil
		}
	}
}

func (c *Controller) test(ctx context.Context) error {
	fmt.Fprintln(c.out, "\nWelcome to Test Mode!")
	if !c.ready("Test Mode", false) {
		return nil
	}

	var count int
	for {
		line, err := c.prompt.ask(ctx, "Please enter the amount of questions in the test: ")
		if err != nil {
			return err
		}
		count, err = model.ParseInt(line, "question count")
		if err == nil && count > 0 {
			break
		}
		fmt.Fprintln(c.out, "Invalid number! Try again.")
	}

	total := len(c.questions)
	if count > total {
		fmt.Fprintf(c.out, "\nQuestion bank contains %d questions.\n", total)
		fmt.Fprintf(c.out, "Please add at least %d more question(s) to create a test of such size.\n\n", count-total)
		return nil
	}
	if enabled := model.CountEnabled(c.questions); enabled < count {
		fmt.Fprintf(c.out, "Please enable at least %d more question(s) before starting Test Mode.\n\n", count-enabled)
		return nil
	}

	picked, err := c.selector.Sample(c.questions, count)
	if err != nil {
		return err
	}
	correctAnswers := 0
	for _, q := range picked {
		fmt.Fprintf(c.out, "If you wish to quit, type '%s'.\n\n", quitWord)
		correct, quit, err := c.askQuestion(ctx, q)
		if err != nil {
			return err
		}
		if quit {
			c.leaveMode()
			return nil
		}
		if correct {
			correctAnswers++
		}
	}
	fmt.Fprintf(c.out, "Test completed! You answered %d out of %d questions correctly!\n\n", correctAnswers, count)
	return nil
}

// askQuestion presents q, scores the answer and records it in the active
// profile. quit is true when the user typed the quit word instead.
func (c *Controller) askQuestion(ctx context.Context, q model.Question) (correct, quit bool, err error) {
	fmt.Fprintln(c.out, wrapText("Question: "+q.Title, c.opts.Width))

	var answer string
	if q.IsQuiz() {
		p := c.selector.Present(q)
		fmt.Fprintln(c.out, "Choices:")
		for i, opt := range p.Options {
			fmt.Fprintln(c.out, wrapText(selector.Label(i)+": "+opt, c.opts.Width))
		}
		for {
			line, err := c.prompt.ask(ctx, "Your answer: ")
			if err != nil {
				return false, false, err
			}
			if strings.EqualFold(line, quitWord) {
				return false, true, nil
			}
			opt, ok := p.Resolve(line)
			if ok {
				answer = opt
				break
			}
			fmt.Fprintf(c.out, "Invalid choice! Enter one of: %s.\n\n", strings.Join(p.Labels(), ", "))
		}
	} else {
		line, err := c.prompt.ask(ctx, "Answer: ")
		if err != nil {
			return false, false, err
		}
		if strings.EqualFold(line, quitWord) {
			return false, true, nil
		}
		answer = line
	}

	correct = selector.IsCorrect(q, answer)
	st := c.profile.Record(q.ID, correct)
	c.logger.Debug("answer scored", "question", q.ID, "correct", correct, "weight", model.RoundWeight(st.Weight))
	if correct {
		fmt.Fprintf(c.out, "\n%s\n\n", correctStyle.Render("Correct!"))
	} else {
		fmt.Fprintf(c.out, "\n%s Correct answer: %s\n\n", incorrectStyle.Render("Incorrect!"), q.Answer)
	}
	return correct, false, nil
}

func (c *Controller) leaveMode() {
	fmt.Fprintln(c.out, "Exiting...")
	fmt.Fprintln(c.out, "You can view your statistics in Statistics View!")
	fmt.Fprintln(c.out)
}
