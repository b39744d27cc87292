// Package sheet reads and writes People as .xlsx workbooks.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/starford/almanac/internal/models"
)

const sheetName = "People"

// Header is the column layout written on export. Import matches columns by
// header name, case-insensitively, so reordered sheets still load.
var Header = []string{
	"Name", "Email", "Phone", "Profession", "Company",
	"Location", "Relationship", "Skills", "Tags", "Notes",
}

var ErrNoNameColumn = errors.New("sheet: header row has no Name column")

// Row is one data row with its 1-based spreadsheet line number.
type Row struct {
	Line   int
	Person *models.Person
}

// WritePeople encodes people as a single-sheet workbook.
func WritePeople(w io.Writer, people []*models.Person) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("sheet: rename: %w", err)
	}
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("sheet: header: %w", err)
	}
	for i, p := range people {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			p.Name, p.Email, p.Phone, p.Profession, p.Company, p.Location, p.Relationship,
			strings.Join(p.Skills, ", "), strings.Join(p.Tags, ", "), p.Notes,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("sheet: row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("sheet: write: %w", err)
	}
	return nil
}

// ReadPeople decodes the first sheet of a workbook. Blank rows are skipped;
// no validation is applied here.
func ReadPeople(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("sheet: open: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sheet: read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["name"]; !ok {
		return nil, ErrNoNameColumn
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Row
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, Row{
			Line: i + 2,
			Person: &models.Person{
				Name:         get(row, "name"),
				Email:        get(row, "email"),
				Phone:        get(row, "phone"),
				Profession:   get(row, "profession"),
				Company:      get(row, "company"),
				Location:     get(row, "location"),
				Relationship: strings.ToLower(get(row, "relationship")),
				Skills:       splitList(get(row, "skills")),
				Tags:         splitList(get(row, "tags")),
				Notes:        get(row, "notes"),
			},
		})
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
