package storage

import (
	"context"
	"sync"

	"tradeops/internal/models"
)

// MemoryStorage implements ReportStore using in-memory maps.
// This provider is ideal for development and testing; reports are lost on restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	reports map[string]*models.Report
	byOwner map[string][]string // owner -> report IDs
}

// NewMemoryStorage creates a new memory-based report store
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	return &MemoryStorage{
		reports: make(map[string]*models.Report),
		byOwner: make(map[string][]string),
	}, nil
}

func (m *MemoryStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if err := validateReport(report); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.reports[report.ID]; !exists {
		m.byOwner[report.Owner] = append(m.byOwner[report.Owner], report.ID)
	}
	m.reports[report.ID] = copyReport(report)
	return nil
}

func (m *MemoryStorage) ListReports(ctx context.Context, owner string) ([]*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byOwner[owner]
	reports := make([]*models.Report, 0, len(ids))
	for _, id := range ids {
		reports = append(reports, copyReport(m.reports[id]))
	}
	sortNewestFirst(reports)
	return reports, nil
}

func (m *MemoryStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report, exists := m.reports[id]
	if !exists {
		return nil, ErrNotFound
	}
	return copyReport(report), nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage
func (m *MemoryStorage) Close() error {
	return nil
}
