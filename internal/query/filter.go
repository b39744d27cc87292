package query

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/starford/almanac/internal/dates"
)

// Predicate reports whether a record belongs in the result.
type Predicate[T any] func(T) bool

// Filter keeps the records matching every predicate, preserving order.
// With no predicates it returns a copy of items.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	if len(preds) == 0 {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchAll(item, preds) {
			out = append(out, item)
		}
	}
	return out
}

func matchAll[T any](item T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if p != nil && !p(item) {
			return false
		}
	}
	return true
}

// Search matches records where any searchable field contains term,
// case-insensitively.
func (s *Schema[T]) Search(term string) Predicate[T] {
	needle := strings.ToLower(term)
	return func(item T) bool {
		for _, f := range s.Fields {
			if !f.Searchable {
				continue
			}
			if f.Get != nil && strings.Contains(strings.ToLower(f.Get(item)), needle) {
				return true
			}
			if f.List != nil {
				for _, v := range f.List(item) {
					if strings.Contains(strings.ToLower(v), needle) {
						return true
					}
				}
			}
		}
		return false
	}
}

// Equals matches records whose enum field equals value exactly. For year
// fields the year is extracted from the source date first.
func (s *Schema[T]) Equals(field, value string) (Predicate[T], error) {
	f, err := s.fieldOf(field, KindEnum, KindYear)
	if err != nil {
		return nil, err
	}
	if f.Kind == KindYear {
		return func(item T) bool {
			y, ok := yearOf(f.Get(item))
			return ok && y == value
		}, nil
	}
	return func(item T) bool {
		return f.Get(item) == value
	}, nil
}

// Flagged matches records whose bool field is true.
func (s *Schema[T]) Flagged(field string) (Predicate[T], error) {
	f, err := s.fieldOf(field, KindBool)
	if err != nil {
		return nil, err
	}
	return func(item T) bool { return f.Flag(item) }, nil
}

// Within matches records whose timeline date falls in the window tl computed
// relative to now. Records without a parseable date never match.
func (s *Schema[T]) Within(tl Timeline, now time.Time) (Predicate[T], error) {
	if tl == TimelineAll || tl == "" {
		return nil, nil
	}
	f, err := s.fieldOf(s.Timeline, KindDate)
	if err != nil {
		return nil, err
	}
	win, err := tl.Window(now)
	if err != nil {
		return nil, err
	}
	return func(item T) bool {
		t, ok := dates.Parse(f.Get(item), now.Location())
		if !ok || !win.Contains(t) {
			return false
		}
		if tl == TimelineOverdue && s.Done != nil && s.Done(item) {
			return false
		}
		return true
	}, nil
}

func yearOf(s string) (string, bool) {
	t, ok := dates.Parse(s, time.UTC)
	if !ok {
		return "", false
	}
	return strconv.Itoa(t.Year()), true
}
