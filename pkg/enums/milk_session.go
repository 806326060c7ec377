package enums

import (
	"fmt"
	"strings"
)

// MilkSession is the collection shift a milk record belongs to.
type MilkSession string

const (
	MilkSessionMorning MilkSession = "morning"
	MilkSessionEvening MilkSession = "evening"
)

var validMilkSessions = []MilkSession{
	MilkSessionMorning,
	MilkSessionEvening,
}

// String implements fmt.Stringer.
func (s MilkSession) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s MilkSession) IsValid() bool {
	for _, candidate := range validMilkSessions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMilkSession converts raw input into a MilkSession. Input is
// case-insensitive since upstream spreadsheets mix "Morning" and "morning".
func ParseMilkSession(value string) (MilkSession, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validMilkSessions {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid milk session %q", value)
}
