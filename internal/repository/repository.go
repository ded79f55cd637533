// Package repository declares the store interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/thought-journal/internal/model"
)

// EntryRepository persists journal entries and their competency links.
//
// Each mutation is a single transaction over the entries and
// entry_competencies tables: the parent row and its association rows
// commit or roll back together.
type EntryRepository interface {
	// Create inserts the entry plus one association row per competency id
	// and fills in the generated ID and CreatedAt.
	Create(ctx context.Context, entry *model.Entry, competencyIDs []int64) error

	// ListByUser returns all entries owned by userID, newest first, each
	// with its competency id list (empty, never nil, when untagged).
	ListByUser(ctx context.Context, userID string) ([]model.Entry, error)

	// Update overwrites the text and replaces the full association set of
	// the entry matching id AND userID. Zero matched rows is
	// apperror.ErrNotFound regardless of whether the id exists at all.
	Update(ctx context.Context, id int64, userID, text string, competencyIDs []int64) error

	// Delete removes the entry matching id AND userID along with all of
	// its association rows. Zero matched rows is apperror.ErrNotFound.
	Delete(ctx context.Context, id int64, userID string) error
}

// CompetencyRepository reads the fixed skill catalog.
type CompetencyRepository interface {
	ListCompetencies(ctx context.Context) ([]model.Competency, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	// UpsertGitHub inserts on first OAuth login, updates profile fields on
	// subsequent logins, keyed by github_id. Fills in the internal ID.
	UpsertGitHub(ctx context.Context, user *model.User) error

	// CreateUser inserts a local account. Returns apperror.ErrConflict if
	// the login is taken.
	CreateUser(ctx context.Context, user *model.User) error

	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
}
