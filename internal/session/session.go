// Package session runs the interactive quiz menu.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/quizly/internal/model"
	"github.com/verte-zerg/quizly/internal/selector"
)

// Defaults applied to zero Options fields.
const (
	DefaultMinQuestions = 5
	DefaultChoices      = 2
)

const quitWord = "quit"

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	profileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// Options configures a Controller.
type Options struct {
	ProfileName  string
	MinQuestions int
	// Choices is the number of distractors collected for a new quiz question.
	Choices int
	// Width wraps question text to this many columns. Zero disables wrapping.
	Width int

	In       io.Reader
	Out      io.Writer
	Selector *selector.Selector
	Logger   *slog.Logger
}

// Controller owns the question bank and the active profile for one session.
type Controller struct {
	store    Store
	opts     Options
	out      io.Writer
	selector *selector.Selector
	logger   *slog.Logger
	prompt   *prompter

	questions []model.Question
	profile   model.Profile
}

// New returns a Controller reading answers from opts.In.
func New(store Store, opts Options) *Controller {
	if opts.ProfileName == "" {
		opts.ProfileName = model.DefaultProfileName
	}
	if opts.MinQuestions <= 0 {
		opts.MinQuestions = DefaultMinQuestions
	}
	if opts.Choices <= 0 {
		opts.Choices = DefaultChoices
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Selector == nil {
		opts.Selector = selector.New(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		store:    store,
		opts:     opts,
		out:      opts.Out,
		selector: opts.Selector,
		logger:   opts.Logger,
	}
}

// Run loads the bank and the startup profile, then serves the menu until the
// user quits or the session is interrupted. Both end with the questions and
// the active profile's statistics being saved.
func (c *Controller) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Welcome to Quizly!")
	c.load(ctx)

	stop := make(chan struct{})
	defer close(stop)
	c.prompt = newPrompter(c.opts.In, c.out, stop, maxLineBytes)

	for {
		fmt.Fprintln(c.out, profileStyle.Render(fmt.Sprintf("Current profile: '%s', id: %d", c.profile.Name, c.profile.ID)))
		done, err := c.step(ctx)
		if errors.Is(err, ErrInterrupted) {
			fmt.Fprintln(c.out)
			c.quit(ctx)
			return nil
		}
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			c.logger.Error("failed to read input", "err", inputErr.Err)
			fmt.Fprintln(c.out)
			c.warn("input closed", inputErr)
			c.quit(ctx)
			return nil
		}
		if err != nil {
			c.warn("mode failed", err)
			continue
		}
		if done {
			c.quit(ctx)
			return nil
		}
	}
}

func (c *Controller) load(ctx context.Context) {
	questions, err := c.store.LoadQuestions(ctx)
	if err != nil {
		c.logger.Warn("failed to load questions, starting with an empty bank", "err", err)
		questions = nil
	}
	c.questions = questions

	profile, err := c.store.LoadProfileByName(ctx, c.opts.ProfileName)
	if err != nil {
		c.logger.Warn("failed to load profile, using default", "profile", c.opts.ProfileName, "err", err)
		profile = model.DefaultProfile()
	}
	c.profile = profile
	c.profile.InitStatistics(c.questions)
	c.logger.Debug("session loaded", "questions", len(c.questions), "profile", c.profile.Name)
}

func (c *Controller) step(ctx context.Context) (bool, error) {
	mode, err := c.selectMode(ctx)
	if err != nil {
		return false, err
	}
	return c.dispatch(ctx, mode)
}

func (c *Controller) selectMode(ctx context.Context) (model.Mode, error) {
	fmt.Fprintf(c.out, "Please select a mode by entering a number (1 - %d):\n", len(model.Modes))
	for _, m := range model.Modes {
		fmt.Fprintf(c.out, "%d. %s\n", m, m)
	}
	fmt.Fprintln(c.out)
	for {
		line, err := c.prompt.ask(ctx, fmt.Sprintf("Mode (1 - %d): ", len(model.Modes)))
		if err != nil {
			return 0, err
		}
		mode, err := model.ParseMode(line)
		if err != nil {
			fmt.Fprintln(c.out, "Invalid number! Please select again.")
			continue
		}
		fmt.Fprintf(c.out, "Successfully selected Mode %d: %s!\n\n", mode, mode)
		return mode, nil
	}
}

// dispatch runs the handler for mode and reports whether the session should end.
func (c *Controller) dispatch(ctx context.Context, mode model.Mode) (bool, error) {
	switch mode {
	case model.ModeAddQuestions:
		return false, c.addQuestions(ctx)
	case model.ModeViewStatistics:
		return false, c.viewStatistics(ctx)
	case model.ModeEnableDisable:
		return false, c.enableDisable(ctx)
	case model.ModePractice:
		return false, c.practice(ctx)
	case model.ModeTest:
		return false, c.test(ctx)
	case model.ModeSelectProfile:
		return false, c.selectProfile(ctx)
	case model.ModeQuit:
		return true, nil
	default:
		return false, &model.ValidationError{Field: "mode", Value: mode.String(), Reason: "unknown mode"}
	}
}

// quit saves the bank and the active profile. Both saves are attempted and
// run even when ctx is already cancelled.
func (c *Controller) quit(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	fmt.Fprintln(c.out, "Saving...")
	if err := c.store.SaveQuestions(ctx, c.questions); err != nil {
		c.warn("failed to save questions", err)
	}
	if err := c.store.SaveProfileStatistics(ctx, c.profile); err != nil {
		c.warn("failed to save profile statistics", err)
	}
	fmt.Fprintln(c.out, "\nThanks for playing!")
}

func (c *Controller) warn(msg string, err error) {
	c.logger.Debug(msg, "err", err)
	fmt.Fprintf(c.out, "%s %s: %v\n", warningStyle.Render("Warning:"), msg, err)
}

// Questions returns a copy of the in-memory bank.
func (c *Controller) Questions() []model.Question {
	return append([]model.Question(nil), c.questions...)
}

// Profile returns the active profile.
func (c *Controller) Profile() model.Profile {
	return c.profile
}
