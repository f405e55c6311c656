package models

import (
	"time"

	"github.com/google/uuid"
)

// Snippet is one piece of collected web content fed into a report prompt.
type Snippet struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Report is an archived model-generated sector report.
type Report struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Sector    string    `json:"sector"`
	Model     string    `json:"model"`
	Markdown  string    `json:"markdown"`
	FileName  string    `json:"file_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReport creates a report with a fresh UUID and the current UTC time.
func NewReport(owner, sector, model, markdown string) *Report {
	return &Report{
		ID:        uuid.New().String(),
		Owner:     owner,
		Sector:    sector,
		Model:     model,
		Markdown:  markdown,
		CreatedAt: time.Now().UTC(),
	}
}

// User is a registered account. Only the bcrypt hash of the password is kept.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
