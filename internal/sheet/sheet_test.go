package sheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/starford/almanac/internal/models"
)

func TestWriteThenRead(t *testing.T) {
	var buf bytes.Buffer
	in := []*models.Person{
		{Name: "Ada", Email: "ada@example.com", Relationship: models.RelationshipMentor, Skills: []string{"math", "iot"}},
		{Name: "Bo", Tags: []string{"web"}},
	}
	if err := WritePeople(&buf, in); err != nil {
		t.Fatalf("WritePeople: %v", err)
	}
	rows, err := ReadPeople(&buf)
	if err != nil {
		t.Fatalf("ReadPeople: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Line != 2 || rows[1].Line != 3 {
		t.Errorf("lines = %d, %d", rows[0].Line, rows[1].Line)
	}
	ada := rows[0].Person
	if ada.Email != "ada@example.com" || len(ada.Skills) != 2 || ada.Skills[1] != "iot" {
		t.Errorf("ada = %+v", ada)
	}
	if len(rows[1].Person.Tags) != 1 || rows[1].Person.Tags[0] != "web" {
		t.Errorf("bo tags = %v", rows[1].Person.Tags)
	}
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestRead_ReorderedHeaderAndBlankRows(t *testing.T) {
	buf := workbook(t, [][]any{
		{"email", "NAME", "Relationship"},
		{"cy@example.com", "Cy", "Friend"},
		{"", "", ""},
		{"", "Di", ""},
	})
	rows, err := ReadPeople(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Person.Name != "Cy" || rows[0].Person.Relationship != "friend" {
		t.Errorf("row 0 = %+v", rows[0].Person)
	}
	if rows[1].Line != 4 {
		t.Errorf("line = %d, want 4", rows[1].Line)
	}
}

func TestRead_NoNameColumn(t *testing.T) {
	buf := workbook(t, [][]any{{"Email"}, {"x@example.com"}})
	if _, err := ReadPeople(buf); !errors.Is(err, ErrNoNameColumn) {
		t.Errorf("err = %v, want ErrNoNameColumn", err)
	}
}
