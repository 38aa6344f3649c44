package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

// Middleware inspects a parsed municipality record before it joins the
// result set. Records are never modified; a middleware either accepts the
// record or returns an error that aborts the run.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process checks a record.
	Process(record *types.MunicipalityRecord) error
}

// Pipeline chains middleware checks together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// NewDefault creates a pipeline with the built-in data quality checks.
func NewDefault(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(NewIdentityCheck(logger))
	p.Use(NewTurnoutCheck(logger))
	p.Use(NewVoteTotalCheck(logger))
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(record *types.MunicipalityRecord) error {
	for _, mw := range p.middlewares {
		if err := mw.Process(record); err != nil {
			return fmt.Errorf("pipeline stage %s (municipality %s): %w", mw.Name(), record.Code, err)
		}
	}
	return nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
