// Package distribution defines the three fixed discrete distributions of the
// simulator, their outcome spaces, and the single text-to-number encoding used
// by the statistics engine.
package distribution

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Type identifies one of the fixed distributions.
//
// The string values are the persisted and exported spellings.
type Type string

const (
	Dice  Type = "dice"
	Coin  Type = "coin"
	Wheel Type = "wheel"
)

// Coin outcomes.
const (
	Heads = "Heads"
	Tails = "Tails"
)

// ErrInvalidDistributionType is returned when a name is outside {dice, coin, wheel}.
var ErrInvalidDistributionType = errors.New("invalid distribution type")

// ErrOutOfDomain is returned when a result string is not in its type's outcome space.
var ErrOutOfDomain = errors.New("result outside outcome space")

// Types returns every distribution type in display order.
func Types() []Type {
	return []Type{Dice, Coin, Wheel}
}

// Valid reports whether t is one of the fixed distribution types.
func (t Type) Valid() bool {
	switch t {
	case Dice, Coin, Wheel:
		return true
	}
	return false
}

// Label returns the human-readable name shown next to a trial.
func (t Type) Label() string {
	switch t {
	case Dice:
		return "Dice Roll"
	case Coin:
		return "Coin Flip"
	case Wheel:
		return "Wheel Spin"
	}
	return "Unknown"
}

func (t Type) String() string { return string(t) }

// ParseType resolves a user-supplied name to a Type.
//
// Matching is case-insensitive and also accepts the labels returned by Label.
// Postcondition: Returns a valid Type, or an error wrapping ErrInvalidDistributionType.
func ParseType(name string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	for _, t := range Types() {
		if s == string(t) || s == strings.ToLower(t.Label()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDistributionType, name)
}

// Section is one labeled slice of the wheel.
type Section struct {
	Name  string
	Index int
	Color string
}

// Result renders the canonical outcome string, e.g. "Blue (5)".
func (s Section) Result() string {
	return fmt.Sprintf("%s (%d)", s.Name, s.Index)
}

// wheelSections is the fixed section table. Index values feed statistics, so
// the order must never change.
var wheelSections = [8]Section{
	{Name: "Red", Index: 1, Color: "#F44336"},
	{Name: "Orange", Index: 2, Color: "#FF9800"},
	{Name: "Yellow", Index: 3, Color: "#FFEB3B"},
	{Name: "Green", Index: 4, Color: "#4CAF50"},
	{Name: "Blue", Index: 5, Color: "#2196F3"},
	{Name: "Purple", Index: 6, Color: "#9C27B0"},
	{Name: "Pink", Index: 7, Color: "#E91E63"},
	{Name: "Teal", Index: 8, Color: "#009688"},
}

// WheelSections returns a copy of the ordered wheel section table.
func WheelSections() []Section {
	out := make([]Section, len(wheelSections))
	copy(out, wheelSections[:])
	return out
}

var outcomeSpaces = map[Type][]string{
	Dice:  {"1", "2", "3", "4", "5", "6"},
	Coin:  {Heads, Tails},
	Wheel: wheelResults(),
}

func wheelResults() []string {
	out := make([]string, len(wheelSections))
	for i, s := range wheelSections {
		out[i] = s.Result()
	}
	return out
}

// Outcomes returns the ordered outcome space of t, or nil for an invalid type.
func Outcomes(t Type) []string {
	space := outcomeSpaces[t]
	if space == nil {
		return nil
	}
	out := make([]string, len(space))
	copy(out, space)
	return out
}

// Contains reports whether result is a member of t's outcome space.
func Contains(t Type, result string) bool {
	for _, o := range outcomeSpaces[t] {
		if o == result {
			return true
		}
	}
	return false
}

// Encode maps a result string to the numeric value used for expected value
// and variance: the face for dice, 1/0 for heads/tails, the section index
// for the wheel.
//
// Precondition: t is valid.
// Postcondition: Returns the encoding, or an error wrapping ErrOutOfDomain.
func Encode(t Type, result string) (float64, error) {
	switch t {
	case Dice:
		v, err := strconv.Atoi(result)
		if err != nil || v < 1 || v > 6 {
			return 0, fmt.Errorf("%w: dice result %q", ErrOutOfDomain, result)
		}
		return float64(v), nil
	case Coin:
		switch result {
		case Heads:
			return 1, nil
		case Tails:
			return 0, nil
		}
		return 0, fmt.Errorf("%w: coin result %q", ErrOutOfDomain, result)
	case Wheel:
		open := strings.LastIndexByte(result, '(')
		if open < 0 || !strings.HasSuffix(result, ")") {
			return 0, fmt.Errorf("%w: wheel result %q", ErrOutOfDomain, result)
		}
		v, err := strconv.Atoi(result[open+1 : len(result)-1])
		if err != nil || v < 1 || v > len(wheelSections) || wheelSections[v-1].Result() != result {
			return 0, fmt.Errorf("%w: wheel result %q", ErrOutOfDomain, result)
		}
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDistributionType, string(t))
}

// MustEncode is Encode for results already known to be in-domain.
func MustEncode(t Type, result string) float64 {
	v, err := Encode(t, result)
	if err != nil {
		panic("distribution: MustEncode: " + err.Error())
	}
	return v
}
