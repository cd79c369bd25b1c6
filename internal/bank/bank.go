// Package bank reads and writes portable YAML question banks.
package bank

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/quizly/internal/model"
)

// File is the on-disk layout of a question bank.
type File struct {
	Questions []Entry `yaml:"questions"`
}

// Entry is one question in a bank file. Ids are not carried over.
type Entry struct {
	Title    string   `yaml:"title"`
	Answer   string   `yaml:"answer"`
	Choices  []string `yaml:"choices,omitempty"`
	Disabled bool     `yaml:"disabled,omitempty"`
}

// Load reads and validates a bank file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes a single YAML document and validates every entry.
func Parse(data []byte) (File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return File{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return File{}, fmt.Errorf("parse yaml: %w", err)
	}
	for i, e := range f.Questions {
		if err := e.validate(); err != nil {
			return File{}, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return f, nil
}

func (e Entry) validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return &model.ValidationError{Field: "title", Reason: "can not be empty"}
	}
	if strings.TrimSpace(e.Answer) == "" {
		return &model.ValidationError{Field: "answer", Reason: "can not be empty"}
	}
	if len(e.Choices) > model.MaxChoices {
		return &model.ValidationError{Field: "choices", Value: strconv.Itoa(len(e.Choices)), Reason: "more than " + strconv.Itoa(model.MaxChoices)}
	}
	for _, c := range e.Choices {
		if strings.TrimSpace(c) == "" {
			return &model.ValidationError{Field: "choice", Reason: "can not be empty"}
		}
		if strings.Contains(c, model.ChoiceSeparator) {
			return &model.ValidationError{Field: "choice", Value: c, Reason: "must not contain " + model.ChoiceSeparator}
		}
	}
	return nil
}

// Append adds the file's questions to questions with fresh ids. Distractors
// equal to the answer are dropped so stored choices never hold the answer.
func (f File) Append(questions []model.Question) ([]model.Question, int) {
	out := append([]model.Question(nil), questions...)
	nextID := model.NextQuestionID(out)
	for _, e := range f.Questions {
		answer := strings.TrimSpace(e.Answer)
		var choices []string
		for _, c := range e.Choices {
			c = strings.TrimSpace(c)
			if strings.EqualFold(c, answer) {
				continue
			}
			choices = append(choices, c)
		}
		out = append(out, model.Question{
			ID:      nextID,
			Title:   strings.TrimSpace(e.Title),
			Answer:  answer,
			Enabled: !e.Disabled,
			Choices: choices,
		})
		nextID++
	}
	return out, len(f.Questions)
}

// FromQuestions builds a bank file from stored questions.
func FromQuestions(questions []model.Question) File {
	f := File{Questions: make([]Entry, 0, len(questions))}
	for _, q := range questions {
		f.Questions = append(f.Questions, Entry{
			Title:    q.Title,
			Answer:   q.Answer,
			Choices:  q.Choices,
			Disabled: !q.Enabled,
		})
	}
	return f
}

// Write encodes f as YAML.
func Write(w io.Writer, f File) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(f); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return encoder.Close()
}
