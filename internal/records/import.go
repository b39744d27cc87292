package records

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/sheet"
)

// RowIssue describes a spreadsheet row that was not imported.
type RowIssue struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportReport summarises a people import.
type ImportReport struct {
	Imported   int        `json:"imported"`
	Duplicates []RowIssue `json:"duplicates"`
	Invalid    []RowIssue `json:"invalid"`
}

// personKey is the duplicate-detection key: the email when present, else the
// name, lower-cased and trimmed.
func personKey(p *models.Person) string {
	if e := strings.ToLower(strings.TrimSpace(p.Email)); e != "" {
		return "email:" + e
	}
	return "name:" + strings.ToLower(strings.TrimSpace(p.Name))
}

// ImportPeople creates a person per row, skipping rows that duplicate an
// existing contact or an earlier row, and rows that fail validation.
func (s *Service) ImportPeople(ctx context.Context, userID string, rows []sheet.Row) (*ImportReport, error) {
	existing, err := s.People.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing)+len(rows))
	for _, p := range existing {
		seen[personKey(p)] = struct{}{}
	}

	rep := &ImportReport{Duplicates: []RowIssue{}, Invalid: []RowIssue{}}
	for _, row := range rows {
		key := personKey(row.Person)
		if _, dup := seen[key]; dup {
			rep.Duplicates = append(rep.Duplicates, RowIssue{Line: row.Line, Name: row.Person.Name, Reason: "duplicate " + strings.SplitN(key, ":", 2)[0]})
			continue
		}
		if _, err := s.People.Create(ctx, userID, row.Person); err != nil {
			if errors.Is(err, apperr.ErrValidation) {
				rep.Invalid = append(rep.Invalid, RowIssue{Line: row.Line, Name: row.Person.Name, Reason: err.Error()})
				continue
			}
			return rep, err
		}
		seen[key] = struct{}{}
		rep.Imported++
	}
	return rep, nil
}

// ImportPeopleSheet reads an .xlsx workbook and imports its rows.
func (s *Service) ImportPeopleSheet(ctx context.Context, userID string, r io.Reader) (*ImportReport, error) {
	rows, err := sheet.ReadPeople(r)
	if err != nil {
		return nil, apperr.Validation(err)
	}
	return s.ImportPeople(ctx, userID, rows)
}

// ExportPeople writes the user's contacts as an .xlsx workbook.
func (s *Service) ExportPeople(ctx context.Context, userID string, w io.Writer) error {
	people, err := s.People.All(ctx, userID)
	if err != nil {
		return err
	}
	return sheet.WritePeople(w, people)
}
