package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single line of input.
const maxLineBytes = 1 << 20

// ErrInterrupted is returned by a prompt when the context is cancelled or the
// input ends.
var ErrInterrupted = errors.New("session interrupted")

var errLineTooLong = errors.New("input line too long")

// InputError reports that reading from the input failed. No further lines
// follow it.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to read input: %v", e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

type inputLine struct {
	text string
	err  error
}

type prompter struct {
	out   io.Writer
	limit int
	lines <-chan inputLine
}

// newPrompter reads in line by line on its own goroutine so a blocked read
// never keeps a prompt from observing cancellation. The goroutine exits when
// in ends, a read fails or stop is closed.
func newPrompter(in io.Reader, out io.Writer, stop <-chan struct{}, limit int) *prompter {
	lines := make(chan inputLine)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			text, err := readLine(reader, limit)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil && !errors.Is(err, errLineTooLong) {
				err = &InputError{Err: err}
			}
			select {
			case lines <- inputLine{text: text, err: err}:
			case <-stop:
				return
			}
			var ierr *InputError
			if errors.As(err, &ierr) {
				return
			}
		}
	}()
	return &prompter{out: out, limit: limit, lines: lines}
}

// readLine returns the next line without its terminator. A line longer than
// limit bytes is consumed and reported as errLineTooLong.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var buf []byte
	tooLong := false
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				break
			}
			return "", err
		}
		if !tooLong {
			if len(buf)+len(frag) > limit {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", errLineTooLong
	}
	return string(buf), nil
}

// ask prints prompt and returns the next trimmed line. Over-long lines are
// rejected and the prompt is repeated.
func (p *prompter) ask(ctx context.Context, prompt string) (string, error) {
	for {
		fmt.Fprint(p.out, prompt)
		select {
		case <-ctx.Done():
			return "", ErrInterrupted
		case line, ok := <-p.lines:
			if !ok {
				return "", ErrInterrupted
			}
			if errors.Is(line.err, errLineTooLong) {
				fmt.Fprintf(p.out, "\nInput is longer than %d bytes! Please try again.\n", p.limit)
				continue
			}
			if line.err != nil {
				return "", line.err
			}
			return strings.TrimSpace(line.text), nil
		}
	}
}

// choose reprompts until the lower-cased answer is one of options.
func (p *prompter) choose(ctx context.Context, prompt, invalid string, options ...string) (string, error) {
	for {
		line, err := p.ask(ctx, prompt)
		if err != nil {
			return "", err
		}
		line = strings.ToLower(line)
		for _, opt := range options {
			if line == opt {
				return line, nil
			}
		}
		fmt.Fprintln(p.out, invalid)
	}
}

// confirm asks a y/n question.
func (p *prompter) confirm(ctx context.Context, prompt string) (bool, error) {
	answer, err := p.choose(ctx, prompt, "Please enter either 'y' or 'n'.", "y", "n")
	if err != nil {
		return false, err
	}
	return answer == "y", nil
}
