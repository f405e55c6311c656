package storage

import (
	"context"
	"errors"
	"fmt"

	"tradeops/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	sector     TEXT NOT NULL,
	model      TEXT NOT NULL DEFAULT '',
	markdown   TEXT NOT NULL,
	file_name  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_owner_created ON reports (owner, created_at DESC);
`

// PostgresStorage implements ReportStore using a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects, pings and creates the reports table if needed.
func NewPostgresStorage(config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func (ps *PostgresStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if err := validateReport(report); err != nil {
		return err
	}

	_, err := ps.pool.Exec(ctx, `
		INSERT INTO reports (id, owner, sector, model, markdown, file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			markdown = EXCLUDED.markdown,
			file_name = EXCLUDED.file_name`,
		report.ID, report.Owner, report.Sector, report.Model, report.Markdown, report.FileName,
		report.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

func (ps *PostgresStorage) ListReports(ctx context.Context, owner string) ([]*models.Report, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, owner, sector, model, '', file_name, created_at
		FROM reports WHERE owner = $1
		ORDER BY created_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.Report, 0)
	for rows.Next() {
		r, err := scanTimeReport(rows)
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

func (ps *PostgresStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	row := ps.pool.QueryRow(ctx, `
		SELECT id, owner, sector, model, markdown, file_name, created_at
		FROM reports WHERE id = $1`, id)

	r, err := scanTimeReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return r, nil
}

func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the connection pool.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}
