package storage

import (
	"github.com/IshaanNene/volbyscrape/internal/types"
)

// Storage is the interface for result table writers.
type Storage interface {
	// Store persists a complete result table.
	Store(table *types.ResultTable) error

	// Close releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}
