package query

import (
	"net/url"
	"time"
)

// Params is the parsed form of a list request's filter controls.
type Params struct {
	Search   string
	Equals   map[string]string
	Flags    []string
	Timeline Timeline
}

// ParamsFromValues reads filters from URL values using the schema to decide
// which keys are meaningful. Unknown keys, empty values and "all" are ignored;
// bool fields are active only when set to "true".
func ParamsFromValues[T any](s *Schema[T], v url.Values) (Params, error) {
	p := Params{Search: v.Get("q"), Equals: map[string]string{}}
	for _, f := range s.Fields {
		raw := v.Get(f.Name)
		if raw == "" || raw == string(TimelineAll) {
			continue
		}
		switch f.Kind {
		case KindEnum, KindYear:
			p.Equals[f.Name] = raw
		case KindBool:
			if raw == "true" {
				p.Flags = append(p.Flags, f.Name)
			}
		}
	}
	tl, err := ParseTimeline(v.Get("timeline"))
	if err != nil {
		return Params{}, err
	}
	p.Timeline = tl
	return p, nil
}

// Predicates turns params into the predicate set for Filter.
func (s *Schema[T]) Predicates(p Params, now time.Time) ([]Predicate[T], error) {
	var preds []Predicate[T]
	if p.Search != "" {
		preds = append(preds, s.Search(p.Search))
	}
	for field, value := range p.Equals {
		pred, err := s.Equals(field, value)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	for _, field := range p.Flags {
		pred, err := s.Flagged(field)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if p.Timeline != "" && p.Timeline != TimelineAll {
		pred, err := s.Within(p.Timeline, now)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}
