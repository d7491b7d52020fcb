package domain

import (
	"fmt"
	"strings"
)

// Direction is the side of a binary market a position holds: yes or no.
type Direction string

const (
	DirectionYes Direction = "yes"
	DirectionNo  Direction = "no"
)

// ParseDirection normalizes a raw direction string to the canonical enum.
// Comparison is case-insensitive; anything other than yes/no is rejected.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return DirectionYes, nil
	case "no":
		return DirectionNo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	return string(d)
}
