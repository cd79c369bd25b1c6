package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/quizly/internal/model"
	"github.com/verte-zerg/quizly/internal/stats"
)

const (
	questionTypeQuiz     = "1"
	questionTypeFreeForm = "2"
)

func (c *Controller) addQuestions(ctx context.Context) error {
	fmt.Fprintln(c.out, "Please provide following details to add new questions.")
	fmt.Fprintln(c.out)

	added := 0
	defer func() {
		fmt.Fprintf(c.out, "Exiting. Successfully added %d new question(s)!\n\n", added)
	}()
	for {
		id := model.NextQuestionID(c.questions)
		fmt.Fprintf(c.out, "Question %d.\n", id)
		q, err := c.readQuestion(ctx, id)
		if err != nil {
			var verr *model.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(c.out, "%s! Please try again.\n\n", capitalize(verr.Error()))
				continue
			}
			return err
		}
		c.questions = append(c.questions, q)
		c.profile.InitStatistics(c.questions[len(c.questions)-1:])
		added++

		more, err := c.prompt.confirm(ctx, "Would you like to enter another question? [y/n]: ")
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		fmt.Fprintln(c.out)
	}
}

// readQuestion collects every field before validating, so a rejected entry
// always consumes the same prompts.
func (c *Controller) readQuestion(ctx context.Context, id int) (model.Question, error) {
	kind, err := c.prompt.choose(ctx,
		"Please enter the type of question (1 for Quiz, 2 for Free-Form): ",
		"Invalid input! Please enter either '1' or '2'.",
		questionTypeQuiz, questionTypeFreeForm)
	if err != nil {
		return model.Question{}, err
	}
	title, err := c.prompt.ask(ctx, "Title: ")
	if err != nil {
		return model.Question{}, err
	}
	answer, err := c.prompt.ask(ctx, "Answer: ")
	if err != nil {
		return model.Question{}, err
	}
	var choices []string
	if kind == questionTypeQuiz {
		for i := 0; i < c.opts.Choices; i++ {
			choice, err := c.prompt.ask(ctx, fmt.Sprintf("Choice %d: ", i+1))
			if err != nil {
				return model.Question{}, err
			}
			choices = append(choices, choice)
		}
	}
	return newQuestion(id, title, answer, choices)
}

func newQuestion(id int, title, answer string, choices []string) (model.Question, error) {
	title, err := model.RequireText(title, "title")
	if err != nil {
		return model.Question{}, err
	}
	answer, err = model.RequireText(answer, "answer")
	if err != nil {
		return model.Question{}, err
	}
	for i, choice := range choices {
		choice, err = model.RequireText(choice, "choice")
		if err != nil {
			return model.Question{}, err
		}
		if strings.EqualFold(choice, answer) {
			return model.Question{}, &model.ValidationError{Field: "choice", Value: choice, Reason: "must differ from the answer"}
		}
		if strings.Contains(choice, model.ChoiceSeparator) {
			return model.Question{}, &model.ValidationError{Field: "choice", Value: choice, Reason: "must not contain " + model.ChoiceSeparator}
		}
		choices[i] = choice
	}
	return model.Question{
		ID:      id,
		Title:   capitalize(title),
		Answer:  answer,
		Enabled: true,
		Choices: choices,
	}, nil
}

func (c *Controller) enableDisable(ctx context.Context) error {
	if len(c.questions) == 0 {
		fmt.Fprintln(c.out, "Unable to enable/disable questions if no questions are found!")
		fmt.Fprintln(c.out)
		return nil
	}
	if err := stats.RenderQuestionList(c.out, c.questions); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "\nPlease select ID of a question you wish to disable/enable.")
	id, err := c.readID(ctx, "question", func(id int) bool {
		return model.FindQuestion(c.questions, id) >= 0
	})
	if err != nil {
		return err
	}
	idx := model.FindQuestion(c.questions, id)
	c.questions[idx].Enabled = !c.questions[idx].Enabled

	fmt.Fprintf(c.out, "\nSuccessfully changed question %d enabled status!\n\n", id)
	if err := stats.RenderQuestionList(c.out, c.questions[idx:idx+1]); err != nil {
		return err
	}
	fmt.Fprintln(c.out)
	return nil
}

// readID reprompts until the user enters an id accepted by exists.
func (c *Controller) readID(ctx context.Context, kind string, exists func(int) bool) (int, error) {
	for {
		line, err := c.prompt.ask(ctx, "ID: ")
		if err != nil {
			return 0, err
		}
		id, err := model.ParseInt(line, kind+" id")
		if err == nil && !exists(id) {
			err = &model.NotFoundError{Kind: kind, ID: id}
		}
		if err != nil {
			c.logger.Debug("invalid id", "err", err)
			fmt.Fprintln(c.out, "Invalid ID! Try again.")
			continue
		}
		return id, nil
	}
}

// capitalize upper-cases the first letter and leaves the rest untouched.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
