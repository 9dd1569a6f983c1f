package constants

import "time"

// Pagination
const (
	MinPage         = 1
	CatalogPageSize = 10
	MaxPageSize     = 100

	// MaxLoadPages bounds how many catalog pages a board load will walk.
	MaxLoadPages = 200

	// LoadConcurrency caps the per-task log reads of a board load.
	LoadConcurrency = 8
)

// Client
const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultAPIURL         = "http://localhost:8080"

	// MaxRememberedMoves is how many recent move ids are kept for duplicate detection.
	MaxRememberedMoves = 256
)

// Collaborator
const (
	DefaultCollabAddr = ":8080"

	ContextKeyProject = "project"
	ContextKeyTask    = "task"
	ContextKeyLog     = "time_log"
)

const DateLayout = "2006-01-02"
