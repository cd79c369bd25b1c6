package model

import "strings"

// Mode is a menu entry of the session.
type Mode int

// Menu order matches the numbers shown to the user.
const (
	ModeAddQuestions Mode = iota + 1
	ModeViewStatistics
	ModeEnableDisable
	ModePractice
	ModeTest
	ModeSelectProfile
	ModeQuit
)

// Modes lists every selectable mode in menu order.
var Modes = []Mode{
	ModeAddQuestions,
	ModeViewStatistics,
	ModeEnableDisable,
	ModePractice,
	ModeTest,
	ModeSelectProfile,
	ModeQuit,
}

var modeNames = map[Mode]string{
	ModeAddQuestions:   "Add questions",
	ModeViewStatistics: "View statistics",
	ModeEnableDisable:  "Enable or disable questions",
	ModePractice:       "Practice mode",
	ModeTest:           "Test mode",
	ModeSelectProfile:  "Select profile",
	ModeQuit:           "Quit",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether m is a menu entry.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode converts a menu number into a Mode.
func ParseMode(s string) (Mode, error) {
	n, err := ParseInt(strings.TrimSpace(s), "mode")
	if err != nil {
		return 0, err
	}
	m := Mode(n)
	if !m.Valid() {
		return 0, &ValidationError{Field: "mode", Value: s, Reason: "must be between 1 and 7"}
	}
	return m, nil
}
