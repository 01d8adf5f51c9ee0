package distribution

import "go.uber.org/zap"

// OutcomeGenerator is the generation contract consumed by the simulator.
type OutcomeGenerator interface {
	Generate(t Type) (string, error)
	GenerateN(t Type, n int) ([]string, error)
}

// LoggedGenerator wraps a Generator and logs every draw at debug level.
type LoggedGenerator struct {
	gen    *Generator
	logger *zap.Logger
}

// NewLoggedGenerator creates a LoggedGenerator drawing from src.
//
// Precondition: src and logger must be non-nil.
func NewLoggedGenerator(src Source, logger *zap.Logger) *LoggedGenerator {
	return &LoggedGenerator{gen: NewGenerator(src), logger: logger}
}

// Generate draws one result and logs the type, result, and numeric encoding.
func (g *LoggedGenerator) Generate(t Type) (string, error) {
	result, err := g.gen.Generate(t)
	if err != nil {
		return "", err
	}
	g.logger.Debug("outcome generated",
		zap.String("type", string(t)),
		zap.String("result", result),
		zap.Float64("encoding", MustEncode(t, result)),
	)
	return result, nil
}

// GenerateN draws n results and logs a single summary line.
func (g *LoggedGenerator) GenerateN(t Type, n int) ([]string, error) {
	results, err := g.gen.GenerateN(t, n)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("outcomes generated",
		zap.String("type", string(t)),
		zap.Int("count", n),
		zap.Strings("results", results),
	)
	return results, nil
}
