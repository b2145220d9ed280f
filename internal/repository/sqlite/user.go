package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, username, password, is_admin, created_at`

// CreateUser inserts a new account and fills in user.ID and user.CreatedAt.
//
// The UNIQUE constraints on email and username are the last line against two
// registrations racing past the service's duplicate checks; a violation comes
// back as an apperror.ErrConflict whose Field names the column.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, username, password, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Email,
		user.Username,
		user.Password,
		user.IsAdmin,
		user.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users.email"):
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "email already registered", Field: "email"}
		case isUniqueViolation(err, "users.username"):
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "username already registered", Field: "username"}
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByID retrieves a user by primary key.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by exact email match.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, "email", email)
}

// GetUserByUsername retrieves a user by exact, case-sensitive username match.
// "USERX" and "userX" are different accounts.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username", username)
}

// getUser is shared by the three lookups. column is always one of our own
// literals, never user input.
func (db *DB) getUser(ctx context.Context, column string, value any) (*model.User, error) {
	var u model.User

	err := db.conn.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`,
		value,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}

	return &u, nil
}

// UpdatePassword replaces the stored hash. Sessions are keyed by user id, so
// any other session the user has stays valid.
func (db *DB) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password = ? WHERE id = ?`, hash, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %d: %w", id, err)
	}
	return expectRow(res, "user", id)
}

// SetAdmin grants or revokes the admin flag by username.
func (db *DB) SetAdmin(ctx context.Context, username string, admin bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE username = ?`, admin, username,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting admin flag for %q: %w", username, err)
	}
	return expectRow(res, "user", username)
}

// expectRow turns "zero rows affected" into apperror.ErrNotFound.
func expectRow(res sql.Result, resource string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
