package query

import (
	"slices"
	"sort"
)

// Sort returns a copy ordered by the schema's default two-key ordering:
// pinned first, then newest timestamp first. Ties keep their input order.
func Sort[T any](items []T, s *Schema[T]) []T {
	out := slices.Clone(items)
	sort.SliceStable(out, func(i, j int) bool {
		if s.Pinned != nil {
			pi, pj := s.Pinned(out[i]), s.Pinned(out[j])
			if pi != pj {
				return pi
			}
		}
		if s.Timestamp != nil {
			return s.Timestamp(out[i]).After(s.Timestamp(out[j]))
		}
		return false
	})
	return out
}

// DistinctValues lists the non-empty values present for field, deduplicated
// and sorted. Year fields yield the year of their source date; list-valued
// text fields contribute every element.
func DistinctValues[T any](items []T, s *Schema[T], field string) ([]string, error) {
	f, ok := s.Field(field)
	if !ok {
		return nil, ErrUnknownField
	}
	if f.Kind == KindBool {
		return nil, ErrFieldKind
	}
	seen := make(map[string]struct{})
	add := func(v string) {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	for _, item := range items {
		switch {
		case f.Kind == KindYear:
			if y, ok := yearOf(f.Get(item)); ok {
				add(y)
			}
		case f.Get != nil:
			add(f.Get(item))
		}
		if f.List != nil {
			for _, v := range f.List(item) {
				add(v)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}

// Options collects the distinct values of every enum and year field, which
// list views use to populate their filter controls.
func Options[T any](items []T, s *Schema[T]) map[string][]string {
	out := make(map[string][]string)
	for _, f := range s.Fields {
		if f.Kind != KindEnum && f.Kind != KindYear {
			continue
		}
		vals, err := DistinctValues(items, s, f.Name)
		if err == nil {
			out[f.Name] = vals
		}
	}
	return out
}
