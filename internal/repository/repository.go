// Package repository declares the storage contracts the service layer
// depends on. The sqlite subpackage is the only implementation; services and
// their tests see nothing but these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/sakif/game-list/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores accounts. Lookups by email and username are exact,
// case-sensitive matches and return apperror.ErrNotFound when nothing matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetAdmin(ctx context.Context, username string, admin bool) error
}

// GameRepository reads the catalog. Every returned game carries its
// organization names and tag labels.
type GameRepository interface {
	GetGame(ctx context.Context, id int64) (*model.Game, error)
	// ReleasedBetween returns up to limit games with from <= release < to,
	// in random order.
	ReleasedBetween(ctx context.Context, from, to time.Time, limit int) ([]model.Game, error)
	RandomGames(ctx context.Context, limit int) ([]model.Game, error)
	// SearchTitles matches titles against a LIKE pattern supplied verbatim.
	SearchTitles(ctx context.Context, pattern string, limit int) ([]model.Game, error)
}

// SavedListRepository is the user↔game join relation. Both mutations are
// idempotent and report whether a row actually changed.
type SavedListRepository interface {
	SavedGames(ctx context.Context, userID int64) ([]model.Game, error)
	AddToList(ctx context.Context, userID, gameID int64) (bool, error)
	RemoveFromList(ctx context.Context, userID, gameID int64) (bool, error)
}

// Record is one row of an admin-managed table keyed by column name.
type Record map[string]any

// RecordRepository is the generic table access the admin console is built
// on. Table and column names come from the admin registry, never from the
// request, and values have already been checked against the column kinds.
type RecordRepository interface {
	ListRecords(ctx context.Context, table string, columns []string, opts ListOptions) ([]Record, error)
	GetRecord(ctx context.Context, table string, columns []string, id int64) (Record, error)
	InsertRecord(ctx context.Context, table string, values Record) (int64, error)
	UpdateRecord(ctx context.Context, table string, id int64, values Record) error
	DeleteRecord(ctx context.Context, table string, id int64) error
	SetGameTags(ctx context.Context, gameID int64, kind model.TagKind, tagIDs []int64) error
}
