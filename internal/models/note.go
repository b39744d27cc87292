package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Note types.
const (
	NoteFormula         = "formula"
	NoteTutorial        = "tutorial"
	NoteConcept         = "concept"
	NoteTroubleshooting = "troubleshooting"
	NoteReference       = "reference"
	NoteCodeSnippet     = "code-snippet"
	NoteOther           = "other"
)

// NoteTypes lists every accepted note_type value.
var NoteTypes = []string{
	NoteFormula, NoteTutorial, NoteConcept, NoteTroubleshooting,
	NoteReference, NoteCodeSnippet, NoteOther,
}

// Note is a versioned knowledge base entry with Markdown content.
type Note struct {
	Meta
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Category    string   `json:"category,omitempty"`
	NoteType    string   `json:"note_type"`
	Tags        []string `json:"tags"`
	Attachments []string `json:"attachments"`
	SkillID     string   `json:"skill_id,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	EventID     string   `json:"event_id,omitempty"`
	TaskID      string   `json:"task_id,omitempty"`
	IsPinned    bool     `json:"is_pinned"`
	IsFavorite  bool     `json:"is_favorite"`
	ViewCount   int      `json:"view_count"`
	Version     int      `json:"version"`
}

// Validate checks required content fields. Title and content must be non-blank.
func (n *Note) Validate() error {
	if n.NoteType == "" {
		n.NoteType = NoteOther
	}
	n.Tags = nonNil(n.Tags)
	n.Attachments = nonNil(n.Attachments)
	types := make([]any, len(NoteTypes))
	for i, t := range NoteTypes {
		types[i] = t
	}
	return validation.ValidateStruct(n,
		validation.Field(&n.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&n.Content, validation.Required, validation.By(notBlank)),
		validation.Field(&n.NoteType, validation.In(types...)),
		validation.Field(&n.Attachments, validation.Each(is.URL)),
	)
}

// NoteVersion is an immutable snapshot of a note's superseded state.
type NoteVersion struct {
	ID            string    `json:"id"`
	NoteID        string    `json:"note_id"`
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ContentHash   string    `json:"content_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

func notBlank(v any) error {
	if s, _ := v.(string); strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
}
