package storage

import (
	"fmt"

	"tradeops/internal/models"
)

// Factory creates report stores based on configuration.
type Factory struct{}

// NewFactory creates a new storage factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a report store for config.Type.
// Supported providers:
//   - file: Markdown files plus a JSON index (default)
//   - memory: In-memory storage (for testing/development)
//   - postgres: PostgreSQL via pgx
//   - sqlite: SQLite via modernc.org/sqlite
func (f *Factory) Create(config models.ReportsConfig) (ReportStore, error) {
	if err := f.ValidateConfig(config); err != nil {
		return nil, err
	}

	storageConfig := Config{
		Type:             config.Type,
		Path:             config.Path,
		ConnectionString: config.DSN,
	}

	switch config.Type {
	case models.ReportStoreFile:
		return NewFileStorage(storageConfig)
	case models.ReportStoreMemory:
		return NewMemoryStorage(storageConfig)
	case models.ReportStorePostgres:
		return NewPostgresStorage(storageConfig)
	case models.ReportStoreSQLite:
		return NewSQLiteStorage(storageConfig)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// GetSupportedProviders returns a list of all supported storage provider types
func (f *Factory) GetSupportedProviders() []string {
	return []string{models.ReportStoreFile, models.ReportStoreMemory, models.ReportStorePostgres, models.ReportStoreSQLite}
}

// ValidateConfig validates that a storage configuration is valid for its type
func (f *Factory) ValidateConfig(config models.ReportsConfig) error {
	switch config.Type {
	case models.ReportStoreFile:
		if config.Path == "" {
			return fmt.Errorf("path is required for file storage")
		}
	case models.ReportStoreMemory:
		// Memory storage requires no additional configuration
	case models.ReportStorePostgres, models.ReportStoreSQLite:
		if config.DSN == "" {
			return fmt.Errorf("database DSN is required for %s storage", config.Type)
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", config.Type)
	}
	return nil
}
