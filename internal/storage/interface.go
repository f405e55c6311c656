package storage

import (
	"context"

	"tradeops/internal/models"
)

// ReportStore archives generated sector reports. Implementations must be safe
// for concurrent use.
type ReportStore interface {
	// SaveReport persists report. Backends may fill in report.FileName.
	SaveReport(ctx context.Context, report *models.Report) error

	// ListReports returns the reports owned by owner, newest first.
	ListReports(ctx context.Context, owner string) ([]*models.Report, error)

	// GetReport returns a report by ID or ErrNotFound.
	GetReport(ctx context.Context, id string) (*models.Report, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Config holds configuration for report store backends
type Config struct {
	// Type specifies the backend (file, memory, sqlite, postgres)
	Type string `json:"type" yaml:"type"`

	// Path is the report directory for the file backend
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`
}
