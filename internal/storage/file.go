package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tradeops/internal/models"
)

const indexFileName = "index.json"

// FileStorage writes each report as a Markdown file in a directory and keeps
// report metadata in an index.json file next to them.
type FileStorage struct {
	dir       string
	indexPath string
	mu        sync.RWMutex
	data      *fileIndex
}

// fileIndex represents the structure of index.json
type fileIndex struct {
	Reports     []*indexEntry `json:"reports"`
	LastUpdated time.Time     `json:"last_updated"`
}

// indexEntry is a report without its Markdown body, which lives in FileName.
type indexEntry struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Sector    string    `json:"sector"`
	Model     string    `json:"model"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileStorage creates a file-backed report store rooted at config.Path.
func NewFileStorage(config Config) (*FileStorage, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("path is required for file storage")
	}

	storage := &FileStorage{
		dir:       config.Path,
		indexPath: filepath.Join(config.Path, indexFileName),
	}

	if err := storage.ensureIndexExists(); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	if err := storage.loadIndex(); err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}

	return storage, nil
}

// ReportFileName is the preferred file name for a report on sector by model.
func ReportFileName(sector, model string) string {
	return fmt.Sprintf("%s_sector_report_by_%s.md", sector, sanitizeFileComponent(model))
}

// CollisionName returns the n-th alternative for name. The counter goes
// before the last "_by_" when present, otherwise before the extension.
func CollisionName(name string, n int) string {
	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		base, ext = name[:i], name[i:]
	}

	if i := strings.LastIndex(base, "_by_"); i >= 0 {
		return fmt.Sprintf("%s_(%d)_by_%s%s", base[:i], n, base[i+len("_by_"):], ext)
	}
	return fmt.Sprintf("%s_(%d)%s", base, n, ext)
}

func sanitizeFileComponent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, s)
}

// ensureIndexExists creates the directory and an empty index if missing.
func (f *FileStorage) ensureIndexExists() error {
	if err := os.MkdirAll(f.dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(f.indexPath); errors.Is(err, fs.ErrNotExist) {
		return f.saveIndex(&fileIndex{Reports: []*indexEntry{}})
	}
	return nil
}

func (f *FileStorage) loadIndex() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.indexPath)
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	var data fileIndex
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to unmarshal index: %w", err)
	}
	if data.Reports == nil {
		data.Reports = []*indexEntry{}
	}

	f.data = &data
	return nil
}

// saveIndex writes the index atomically via a temp file and rename.
func (f *FileStorage) saveIndex(data *fileIndex) error {
	data.LastUpdated = time.Now().UTC()

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp := f.indexPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp, f.indexPath); err != nil {
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}

// writeReportFile creates a new file for text, picking the first free name
// in the collision sequence. It returns the chosen base name.
func (f *FileStorage) writeReportFile(name, text string) (string, error) {
	candidate := name
	for n := 2; ; n++ {
		path := filepath.Join(f.dir, candidate)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
		if errors.Is(err, fs.ErrExist) {
			candidate = CollisionName(name, n)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create report file: %w", err)
		}

		if _, err := file.WriteString(text); err != nil {
			file.Close()
			return "", fmt.Errorf("failed to write report file: %w", err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("failed to close report file: %w", err)
		}
		return candidate, nil
	}
}

// SaveReport writes the stripped Markdown to a new file and records it in
// the index. report.FileName is set to the chosen file name.
func (f *FileStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if err := validateReport(report); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	name := report.FileName
	if name == "" {
		name = ReportFileName(report.Sector, report.Model)
	}

	chosen, err := f.writeReportFile(name, strings.TrimSpace(report.Markdown))
	if err != nil {
		return err
	}
	report.FileName = chosen

	f.data.Reports = append(f.data.Reports, &indexEntry{
		ID:        report.ID,
		Owner:     report.Owner,
		Sector:    report.Sector,
		Model:     report.Model,
		FileName:  chosen,
		CreatedAt: report.CreatedAt,
	})

	if err := f.saveIndex(f.data); err != nil {
		f.data.Reports = f.data.Reports[:len(f.data.Reports)-1]
		return err
	}
	return nil
}

func (f *FileStorage) ListReports(ctx context.Context, owner string) ([]*models.Report, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	reports := make([]*models.Report, 0)
	for _, e := range f.data.Reports {
		if e.Owner != owner {
			continue
		}
		reports = append(reports, e.toReport(""))
	}
	sortNewestFirst(reports)
	return reports, nil
}

// GetReport loads the report's Markdown body from its file.
func (f *FileStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, e := range f.data.Reports {
		if e.ID != id {
			continue
		}
		body, err := os.ReadFile(filepath.Join(f.dir, e.FileName))
		if err != nil {
			return nil, fmt.Errorf("failed to read report %s: %w", id, err)
		}
		return e.toReport(string(body)), nil
	}
	return nil, ErrNotFound
}

// Ping verifies the report directory is still accessible.
func (f *FileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("report directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("report path %s is not a directory", f.dir)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

func (e *indexEntry) toReport(markdown string) *models.Report {
	return &models.Report{
		ID:        e.ID,
		Owner:     e.Owner,
		Sector:    e.Sector,
		Model:     e.Model,
		Markdown:  markdown,
		FileName:  e.FileName,
		CreatedAt: e.CreatedAt,
	}
}
