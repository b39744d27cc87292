package records

import (
	"context"

	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/versioning"
)

const notesEntity = "notes"

// CreateNote stores a new note through the versioning engine.
func (s *Service) CreateNote(ctx context.Context, userID string, draft *models.Note) (*models.Note, error) {
	n, err := s.Versions.CreateNote(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	s.Publish(userID, notesEntity, Created, n.ID)
	return n, nil
}

// UpdateNote snapshots and updates a note.
func (s *Service) UpdateNote(ctx context.Context, userID, noteID string, ch versioning.NoteChanges) (*models.Note, error) {
	n, err := s.Versions.UpdateNote(ctx, userID, noteID, ch)
	if err != nil {
		return nil, err
	}
	s.Publish(userID, notesEntity, Updated, n.ID)
	return n, nil
}

// RestoreVersion rolls a note's content back to a stored snapshot.
func (s *Service) RestoreVersion(ctx context.Context, userID, noteID string, version int) (*models.Note, error) {
	n, err := s.Versions.RestoreVersion(ctx, userID, noteID, version)
	if err != nil {
		return nil, err
	}
	s.Publish(userID, notesEntity, Updated, n.ID)
	return n, nil
}

// DeleteNote removes a note and its history.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID string) error {
	if err := s.Versions.DeleteNote(ctx, userID, noteID); err != nil {
		return err
	}
	s.Publish(userID, notesEntity, Deleted, noteID)
	return nil
}

// TogglePin flips a note's pinned flag.
func (s *Service) TogglePin(ctx context.Context, userID, noteID string) (*models.Note, error) {
	n, err := s.Versions.TogglePin(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	s.Publish(userID, notesEntity, Updated, n.ID)
	return n, nil
}

// ToggleFavorite flips a note's favorite flag.
func (s *Service) ToggleFavorite(ctx context.Context, userID, noteID string) (*models.Note, error) {
	n, err := s.Versions.ToggleFavorite(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	s.Publish(userID, notesEntity, Updated, n.ID)
	return n, nil
}
