package distribution

import (
	"fmt"
	"strconv"
)

// Generator draws one outcome for a distribution type from a Source.
//
// It holds no state other than the source; Generate is safe for concurrent
// use whenever the source is.
type Generator struct {
	src Source
}

// NewGenerator returns a Generator drawing from src.
//
// Precondition: src must be non-nil.
func NewGenerator(src Source) *Generator {
	return &Generator{src: src}
}

// Generate returns one uniformly random result from t's outcome space.
//
// Postcondition: On success Contains(t, result) is true. An invalid t yields an
// error wrapping ErrInvalidDistributionType and consumes no randomness.
func (g *Generator) Generate(t Type) (string, error) {
	switch t {
	case Dice:
		return strconv.Itoa(g.src.Intn(6) + 1), nil
	case Coin:
		if g.src.Intn(2) == 0 {
			return Heads, nil
		}
		return Tails, nil
	case Wheel:
		return wheelSections[g.src.Intn(len(wheelSections))].Result(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDistributionType, string(t))
}

// GenerateN draws n independent results for t in generation order.
//
// Precondition: n >= 0.
func (g *Generator) GenerateN(t Type, n int) ([]string, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDistributionType, string(t))
	}
	out := make([]string, n)
	for i := range out {
		r, err := g.Generate(t)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
