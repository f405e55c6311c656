// Package models - API request types and input validation.
// This file defines incoming API request structures with their validation.
//
// Validation Philosophy:
// - Fail fast with clear error messages for invalid input
// - Normalize input data for consistent processing (trimmed, lower-cased sectors)
// - Separate validation from normalization for clear error reporting
package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Credential and sector limits.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	PasswordMinLength = 6
	PasswordMaxLength = 100
	SectorMinLength   = 2
	SectorMaxLength   = 30
)

// CredentialsRequest is the body of the register endpoint and the JSON form
// of the token endpoint.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate returns per-field messages keyed by field name; an empty map means
// the request is valid.
func (r *CredentialsRequest) Validate() map[string]string {
	problems := make(map[string]string)

	if n := utf8.RuneCountInString(r.Username); n < UsernameMinLength || n > UsernameMaxLength {
		problems["username"] = fmt.Sprintf("username must be %d-%d characters", UsernameMinLength, UsernameMaxLength)
	}

	if n := utf8.RuneCountInString(r.Password); n < PasswordMinLength || n > PasswordMaxLength {
		problems["password"] = fmt.Sprintf("password must be %d-%d characters", PasswordMinLength, PasswordMaxLength)
	}

	return problems
}

// SectorParam is the path parameter of the analyze endpoint.
type SectorParam struct {
	Sector string `json:"sector"`
}

func (p *SectorParam) Validate() error {
	if p.Sector == "" {
		return errors.New("sector is required")
	}

	for _, r := range p.Sector {
		if !isASCIILetter(r) {
			return errors.New("sector must contain only alphabetic characters")
		}
	}

	if len(p.Sector) < SectorMinLength {
		return fmt.Errorf("sector must be at least %d characters long", SectorMinLength)
	}

	if len(p.Sector) > SectorMaxLength {
		return fmt.Errorf("sector must not exceed %d characters", SectorMaxLength)
	}

	return nil
}

// Normalize lower-cases the sector so "Technology" and "technology" share
// report file names and prompts.
func (p *SectorParam) Normalize() {
	p.Sector = strings.ToLower(strings.TrimSpace(p.Sector))
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
