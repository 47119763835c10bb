package entity

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const (
	MaxNameLength = 32

	BotName = "bot"
)

// Participant is a self-declared identity bound to a room.
type Participant struct {
	Name string         `json:"name"`
	Mark tictactoe.Mark `json:"mark,omitempty"`
	Bot  bool           `json:"bot,omitempty"`
}

func NewBotParticipant() Participant {
	return Participant{Name: BotName, Bot: true}
}

// NormalizeName trims surrounding whitespace and validates the display name.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("%w: name is empty", apperror.ErrInvalidName)
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name is longer than %d characters", apperror.ErrInvalidName, MaxNameLength)
	}

	return name, nil
}
