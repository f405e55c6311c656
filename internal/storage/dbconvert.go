package storage

import (
	"fmt"
	"sort"
	"time"

	"tradeops/internal/models"
)

// rowScanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// validateReport checks the fields every backend needs to key a report.
func validateReport(report *models.Report) error {
	if report == nil || report.ID == "" || report.Owner == "" || report.Sector == "" {
		return ErrInvalidReport
	}
	return nil
}

// copyReport returns a detached copy so callers cannot mutate stored state.
func copyReport(report *models.Report) *models.Report {
	c := *report
	return &c
}

// sortNewestFirst orders reports by creation time, newest first, breaking
// ties by ID so listings are stable.
func sortNewestFirst(reports []*models.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID > reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}

// sortableTime is RFC 3339 with a fixed-width fraction so text order matches
// time order.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime stores timestamps as sortable UTC text.
func formatTime(t time.Time) string {
	return t.UTC().Format(sortableTime)
}

// parseTime reverses formatTime.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// scanTextReport reads a row whose created_at column is RFC 3339 text.
func scanTextReport(row rowScanner) (*models.Report, error) {
	var (
		r       models.Report
		created string
	)
	if err := row.Scan(&r.ID, &r.Owner, &r.Sector, &r.Model, &r.Markdown, &r.FileName, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = t
	return &r, nil
}

// scanTimeReport reads a row whose created_at column is a native timestamp.
func scanTimeReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	if err := row.Scan(&r.ID, &r.Owner, &r.Sector, &r.Model, &r.Markdown, &r.FileName, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
