// Package repository stores judges' in-progress evaluations (drafts) so that
// local edits survive failed submissions and restarts.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/jury/internal/domain/model"
)

// Store provides read/write access to drafts.
type Store interface {
	// Save inserts or replaces the draft for its key.
	Save(ctx context.Context, d model.Draft) error

	// Get returns the draft for key, or ErrNotFound.
	Get(ctx context.Context, key model.DraftKey) (model.Draft, error)

	// Delete removes the draft for key. Deleting a missing draft is not an error.
	Delete(ctx context.Context, key model.DraftKey) error

	// List returns a judge's drafts for an event ordered by application id.
	List(ctx context.Context, eventID, judgeID string) ([]model.Draft, error)

	// Count returns the number of stored drafts.
	Count(ctx context.Context) int

	Close() error
}

func validateKey(key model.DraftKey) error {
	if key.EventID == "" || key.JudgeID == "" || key.ApplicationID == "" {
		return fmt.Errorf("%w: %+v", ErrInvalidKey, key)
	}
	return nil
}
