package store

import (
	"errors"

	"github.com/logtools/ingressparse/pkg/filter"
	"github.com/logtools/ingressparse/pkg/models"
	"github.com/logtools/ingressparse/pkg/nginx"
)

// Store persists import runs and their parsed entries.
// SQLite, PostgreSQL, and the in-memory store implement this interface.
type Store interface {
	// Run operations
	CreateRun(run *models.ImportRun) error
	GetRun(id string) (*models.ImportRun, error)
	ListRuns() ([]*models.ImportRun, error)
	DeleteRun(id string) error

	// Entry operations
	InsertEntries(runID string, entries []*nginx.Entry) error
	GetEntries(runID string, q EntryQuery) ([]*nginx.Entry, error)
	CountEntries(runID string) (int, error)

	// Lifecycle
	Close() error
	HealthCheck() error
}

// EntryQuery narrows and pages a GetEntries call. A zero Limit applies
// DefaultQueryLimit; the filter semantics match the CLI flags.
type EntryQuery struct {
	Filter filter.Filter
	Offset int
	Limit  int
}

// DefaultQueryLimit caps unpaged entry queries.
const DefaultQueryLimit = 1000

var (
	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("import run not found")
	// ErrUnsupportedDatabase is returned for an unknown store type.
	ErrUnsupportedDatabase = errors.New("unsupported database type")
)

// Config holds database configuration.
type Config struct {
	Type string `yaml:"type"` // "sqlite", "postgres", or "memory"
	DSN  string `yaml:"dsn"`  // connection string (postgres) or file path (sqlite)

	// SQLite convenience alias for DSN.
	Path string `yaml:"path"`
}

// New creates a store based on configuration. SQLite is the default and
// keeps its data in ingressparse.db next to the process.
func New(config Config) (Store, error) {
	switch config.Type {
	case "postgres", "postgresql":
		return NewPostgresStore(config.DSN)
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		path := config.Path
		if path == "" {
			path = config.DSN
		}
		if path == "" {
			path = "ingressparse.db"
		}
		return NewSQLiteStore(path)
	default:
		return nil, ErrUnsupportedDatabase
	}
}
