package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
)

var _ repository.SavedListRepository = (*DB)(nil)

// SavedGames returns the user's saved list in the order games were added.
// The join table's rowid grows with every insert, so ordering by it is
// insertion order without needing a timestamp tiebreak.
func (db *DB) SavedGames(ctx context.Context, userID int64) ([]model.Game, error) {
	return db.selectGames(ctx,
		gameSelect+` JOIN user_games ug ON ug.game_id = g.id WHERE ug.user_id = ? ORDER BY ug.rowid`,
		userID,
	)
}

// AddToList appends a game to the user's saved list.
//
// INSERT OR IGNORE against the (user_id, game_id) primary key gives set-union
// semantics in one statement: two concurrent adds of the same game cannot
// produce two rows. The bool reports whether a row was inserted.
func (db *DB) AddToList(ctx context.Context, userID, gameID int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_games (user_id, game_id) VALUES (?, ?)`,
		userID, gameID,
	)
	if err != nil {
		// The game vanished between the caller's lookup and this insert.
		if isForeignKeyViolation(err) {
			return false, apperror.NotFound("game", gameID)
		}
		return false, fmt.Errorf("sqlite: adding game %d to user %d: %w", gameID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveFromList deletes a game from the user's saved list. Removing a game
// that is not on the list is a no-op, reported as false.
func (db *DB) RemoveFromList(ctx context.Context, userID, gameID int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_games WHERE user_id = ? AND game_id = ?`,
		userID, gameID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing game %d from user %d: %w", gameID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}
