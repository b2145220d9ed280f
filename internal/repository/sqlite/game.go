package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
)

var _ repository.GameRepository = (*DB)(nil)

// gameSelect is the shared projection for every game query. Organization
// names come along via LEFT JOIN so a game without a developer or publisher
// still shows up.
const gameSelect = `
	SELECT g.id, g.title, g.description, g.release_date,
	       g.developer_id, COALESCE(d.name, '') AS developer,
	       g.publisher_id, COALESCE(p.name, '') AS publisher
	FROM games g
	LEFT JOIN developers d ON d.id = g.developer_id
	LEFT JOIN publishers p ON p.id = g.publisher_id`

// gameRow mirrors one row of gameSelect. release_date is stored as
// "YYYY-MM-DD" text, so it is scanned as a string and parsed in toModel.
type gameRow struct {
	ID          int64         `db:"id"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	ReleaseDate string        `db:"release_date"`
	DeveloperID sql.NullInt64 `db:"developer_id"`
	Developer   string        `db:"developer"`
	PublisherID sql.NullInt64 `db:"publisher_id"`
	Publisher   string        `db:"publisher"`
}

func (r gameRow) toModel() (model.Game, error) {
	released, err := time.Parse(model.DateLayout, r.ReleaseDate)
	if err != nil {
		return model.Game{}, fmt.Errorf("sqlite: game %d has malformed release_date %q: %w", r.ID, r.ReleaseDate, err)
	}

	g := model.Game{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ReleaseDate: released,
		Developer:   r.Developer,
		Publisher:   r.Publisher,
		Genres:      []string{},
		Models:      []string{},
		Platforms:   []string{},
	}
	if r.DeveloperID.Valid {
		id := r.DeveloperID.Int64
		g.DeveloperID = &id
	}
	if r.PublisherID.Valid {
		id := r.PublisherID.Int64
		g.PublisherID = &id
	}
	return g, nil
}

// GetGame retrieves one game by id.
// Returns apperror.ErrNotFound if no game exists with that ID.
func (db *DB) GetGame(ctx context.Context, id int64) (*model.Game, error) {
	var row gameRow
	err := db.conn.GetContext(ctx, &row, gameSelect+` WHERE g.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %d: %w", id, err)
	}

	games, err := db.finishGames(ctx, []gameRow{row})
	if err != nil {
		return nil, err
	}
	return &games[0], nil
}

// ReleasedBetween returns up to limit games released in [from, to), shuffled.
func (db *DB) ReleasedBetween(ctx context.Context, from, to time.Time, limit int) ([]model.Game, error) {
	return db.selectGames(ctx,
		gameSelect+` WHERE g.release_date >= ? AND g.release_date < ? ORDER BY RANDOM() LIMIT ?`,
		from.Format(model.DateLayout), to.Format(model.DateLayout), limit,
	)
}

// RandomGames draws up to limit games uniformly from the whole catalog.
func (db *DB) RandomGames(ctx context.Context, limit int) ([]model.Game, error) {
	return db.selectGames(ctx, gameSelect+` ORDER BY RANDOM() LIMIT ?`, limit)
}

// SearchTitles runs `title LIKE pattern`. The pattern is passed through
// untouched: wildcards typed by the user widen the match, and that is fine.
// SQLite's LIKE folds ASCII case.
func (db *DB) SearchTitles(ctx context.Context, pattern string, limit int) ([]model.Game, error) {
	return db.selectGames(ctx, gameSelect+` WHERE g.title LIKE ? ORDER BY g.title, g.id LIMIT ?`, pattern, limit)
}

// selectGames runs a gameSelect-based query and finishes the rows.
func (db *DB) selectGames(ctx context.Context, query string, args ...any) ([]model.Game, error) {
	var rows []gameRow
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sqlite: selecting games: %w", err)
	}
	return db.finishGames(ctx, rows)
}

// finishGames converts rows to models and attaches tag labels, preserving
// the order of rows.
func (db *DB) finishGames(ctx context.Context, rows []gameRow) ([]model.Game, error) {
	games := make([]model.Game, 0, len(rows))
	if len(rows) == 0 {
		return games, nil
	}

	index := make(map[int64]int, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		g, err := r.toModel()
		if err != nil {
			return nil, err
		}
		index[g.ID] = len(games)
		ids = append(ids, g.ID)
		games = append(games, g)
	}

	for _, kind := range model.TagKinds {
		labels, err := db.tagLabels(ctx, kind, ids)
		if err != nil {
			return nil, err
		}
		for _, l := range labels {
			g := &games[index[l.GameID]]
			switch kind {
			case model.TagGenre:
				g.Genres = append(g.Genres, l.Name)
			case model.TagModel:
				g.Models = append(g.Models, l.Name)
			case model.TagPlatform:
				g.Platforms = append(g.Platforms, l.Name)
			}
		}
	}

	return games, nil
}

type tagLabel struct {
	GameID int64  `db:"game_id"`
	Name   string `db:"name"`
}

// tagLabels loads every label of one kind for a batch of games in a single
// query. sqlx.In expands the IN (?) placeholder to one bindvar per id.
func (db *DB) tagLabels(ctx context.Context, kind model.TagKind, gameIDs []int64) ([]tagLabel, error) {
	query, args, err := sqlx.In(fmt.Sprintf(
		`SELECT gt.game_id, t.name
		 FROM %s gt JOIN %s t ON t.id = gt.tag_id
		 WHERE gt.game_id IN (?)
		 ORDER BY t.name`,
		quoteIdent("game_"+string(kind)), quoteIdent(string(kind)),
	), gameIDs)
	if err != nil {
		return nil, fmt.Errorf("sqlite: building %s query: %w", kind, err)
	}

	var labels []tagLabel
	if err := db.conn.SelectContext(ctx, &labels, db.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlite: loading %s: %w", kind, err)
	}
	return labels, nil
}
