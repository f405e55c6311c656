package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradeops/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	sector     TEXT NOT NULL,
	model      TEXT NOT NULL DEFAULT '',
	markdown   TEXT NOT NULL,
	file_name  TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_owner_created ON reports (owner, created_at DESC);
`

// SQLiteStorage implements ReportStore on a SQLite database via the pure-Go
// modernc.org/sqlite driver.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database and creates the reports table if needed.
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (ss *SQLiteStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if err := validateReport(report); err != nil {
		return err
	}

	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO reports (id, owner, sector, model, markdown, file_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			markdown = excluded.markdown,
			file_name = excluded.file_name`,
		report.ID, report.Owner, report.Sector, report.Model, report.Markdown, report.FileName,
		formatTime(report.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

func (ss *SQLiteStorage) ListReports(ctx context.Context, owner string) ([]*models.Report, error) {
	rows, err := ss.db.QueryContext(ctx, `
		SELECT id, owner, sector, model, '', file_name, created_at
		FROM reports WHERE owner = ?
		ORDER BY created_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.Report, 0)
	for rows.Next() {
		r, err := scanTextReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

func (ss *SQLiteStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	row := ss.db.QueryRowContext(ctx, `
		SELECT id, owner, sector, model, markdown, file_name, created_at
		FROM reports WHERE id = ?`, id)

	r, err := scanTextReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return r, nil
}

func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}
