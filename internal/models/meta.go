// Package models defines the domain types for Almanac.
package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/almanac/internal/dates"
)

// Meta is the identity and bookkeeping shared by every owned record.
type Meta struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Base exposes the embedded metadata through the Record interface.
func (m *Meta) Base() *Meta { return m }

// Touch refreshes UpdatedAt, never letting it fall behind CreatedAt.
func (m *Meta) Touch(now time.Time) {
	if now.Before(m.CreatedAt) {
		now = m.CreatedAt
	}
	m.UpdatedAt = now
}

// Record is implemented by pointers to every entity that embeds Meta.
type Record interface {
	Base() *Meta
	Validate() error
}

var dateRule = validation.By(func(v any) error {
	s, _ := v.(string)
	if !dates.Valid(s) {
		return errors.New("must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return nil
})

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
