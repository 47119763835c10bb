package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const DefaultCodeLength = 4

// CodeSpace is a finite, indexable set of room codes.
type CodeSpace interface {
	Size() int
	At(i int) string
	Valid(code string) bool
}

// NumericCodes are decimal codes of a fixed length without a leading zero,
// e.g. 1000-9999 for length 4.
type NumericCodes struct {
	length int
	min    int
	size   int
}

func NewNumericCodes(length int) (*NumericCodes, error) {
	if length < 1 || length > 9 {
		return nil, fmt.Errorf("room code length must be between 1 and 9, got %d", length)
	}

	low := 1
	for range length - 1 {
		low *= 10
	}

	return &NumericCodes{length: length, min: low, size: 9 * low}, nil
}

func (that *NumericCodes) Size() int {
	return that.size
}

func (that *NumericCodes) At(i int) string {
	return strconv.Itoa(that.min + i)
}

func (that *NumericCodes) Valid(code string) bool {
	if len(code) != that.length || code[0] == '0' {
		return false
	}

	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// NormalizeRoomCode trims whatever a user pasted around the code.
func NormalizeRoomCode(code string) string {
	return strings.TrimSpace(code)
}

// ValidateRoomCode normalizes code and checks it against the code space. A
// malformed code can never name a room, so it also matches ErrRoomNotFound.
func ValidateRoomCode(codes CodeSpace, code string) (string, error) {
	code = NormalizeRoomCode(code)

	if code == "" {
		return "", apperror.ErrRoomCodeRequired
	}

	if !codes.Valid(code) {
		return "", fmt.Errorf("%w: %w: %q", apperror.ErrRoomNotFound, apperror.ErrInvalidRoomCode, code)
	}

	return code, nil
}
