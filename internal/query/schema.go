// Package query implements the client-side filter, sort and aggregate
// pipeline applied uniformly to every record collection.
//
// The engine is pure: every function takes the already-fetched collection and
// returns a new slice, leaving the input untouched.
package query

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies how a field participates in filtering.
type Kind int

const (
	KindText Kind = iota
	KindEnum
	KindBool
	KindDate
	KindYear // calendar year derived from a date string
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindEnum:
		return "enum"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindYear:
		return "year"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	ErrUnknownField = errors.New("query: unknown field")
	ErrFieldKind    = errors.New("query: field kind mismatch")
	ErrTimeline     = errors.New("query: unknown timeline")
)

// Field maps one record attribute to a filter kind.
//
// Get returns the scalar value (text, enum, date, or the source date of a year
// field). List returns array values such as tags. Flag returns bool values.
type Field[T any] struct {
	Name       string
	Kind       Kind
	Searchable bool
	Get        func(T) string
	List       func(T) []string
	Flag       func(T) bool
}

// Schema is the declarative field mapping for one entity type.
type Schema[T any] struct {
	Entity string
	Fields []Field[T]

	// Timeline names the date field that drives timeline filters.
	Timeline string
	// Done reports completion; overdue windows exclude done records.
	Done func(T) bool

	// Pinned and Timestamp define the default two-key ordering.
	Pinned    func(T) bool
	Timestamp func(T) time.Time
}

// Field looks up a field definition by name.
func (s *Schema[T]) Field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// FieldsOf returns the names of all fields of the given kind, in schema order.
func (s *Schema[T]) FieldsOf(kind Kind) []string {
	var out []string
	for _, f := range s.Fields {
		if f.Kind == kind {
			out = append(out, f.Name)
		}
	}
	return out
}

func (s *Schema[T]) fieldOf(name string, kinds ...Kind) (Field[T], error) {
	f, ok := s.Field(name)
	if !ok {
		return Field[T]{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Entity, name)
	}
	for _, k := range kinds {
		if f.Kind == k {
			return f, nil
		}
	}
	return Field[T]{}, fmt.Errorf("%w: %s.%s is %s", ErrFieldKind, s.Entity, name, f.Kind)
}
