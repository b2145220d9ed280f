package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
)

var _ repository.RecordRepository = (*DB)(nil)

// ListRecords returns rows of table ordered by id. Each record holds exactly
// the requested columns, which lets the admin console leave the password
// hash out of the users listing by simply not asking for it.
func (db *DB) ListRecords(ctx context.Context, table string, columns []string, opts repository.ListOptions) ([]repository.Record, error) {
	rows, err := db.conn.QueryxContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY id LIMIT ? OFFSET ?`, columnList(columns), quoteIdent(table)),
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", table, err)
	}
	defer rows.Close()

	records := []repository.Record{}
	for rows.Next() {
		rec := repository.Record{}
		if err := rows.MapScan(rec); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s rows: %w", table, err)
	}

	return records, nil
}

// GetRecord returns one row of table by id.
func (db *DB) GetRecord(ctx context.Context, table string, columns []string, id int64) (repository.Record, error) {
	row := db.conn.QueryRowxContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, columnList(columns), quoteIdent(table)),
		id,
	)

	rec := repository.Record{}
	if err := row.MapScan(rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(table, id)
		}
		return nil, fmt.Errorf("sqlite: getting %s %d: %w", table, id, err)
	}
	return rec, nil
}

// InsertRecord inserts values into table and returns the new id.
func (db *DB) InsertRecord(ctx context.Context, table string, values repository.Record) (int64, error) {
	if len(values) == 0 {
		return 0, apperror.ValidationFailed("", "no values to insert")
	}

	cols, args := splitRecord(values)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, quoteIdent(table), columnList(cols), placeholders),
		args...,
	)
	if err != nil {
		return 0, translateWriteError(table, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading new %s id: %w", table, err)
	}
	return id, nil
}

// UpdateRecord sets the given columns on one row.
func (db *DB) UpdateRecord(ctx context.Context, table string, id int64, values repository.Record) error {
	if len(values) == 0 {
		return apperror.ValidationFailed("", "no values to update")
	}

	cols, args := splitRecord(values)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quoteIdent(c) + " = ?"
	}
	args = append(args, id)

	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, quoteIdent(table), strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return translateWriteError(table, err)
	}
	return expectRow(res, table, id)
}

// DeleteRecord removes one row. Foreign keys cascade to join tables and null
// out organization references on games.
func (db *DB) DeleteRecord(ctx context.Context, table string, id int64) error {
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, quoteIdent(table)), id,
	)
	if err != nil {
		return translateWriteError(table, err)
	}
	return expectRow(res, table, id)
}

// SetGameTags replaces the full tag set of one kind on a game, inside a
// transaction so readers never see a half-replaced set.
func (db *DB) SetGameTags(ctx context.Context, gameID int64, kind model.TagKind, tagIDs []int64) error {
	if !kind.Valid() {
		return apperror.ValidationFailed("kind", fmt.Sprintf("unknown tag kind %q", kind))
	}
	join := quoteIdent("game_" + string(kind))

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM games WHERE id = ?`, gameID); err != nil {
		return fmt.Errorf("sqlite: checking game %d: %w", gameID, err)
	}
	if exists == 0 {
		return apperror.NotFound("game", gameID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+join+` WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("sqlite: clearing %s for game %d: %w", kind, gameID, err)
	}
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO `+join+` (game_id, tag_id) VALUES (?, ?)`, gameID, tagID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperror.ValidationFailed("ids", fmt.Sprintf("unknown %s id %d", kind, tagID))
			}
			return fmt.Errorf("sqlite: tagging game %d: %w", gameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing %s for game %d: %w", kind, gameID, err)
	}
	return nil
}

// splitRecord returns the columns of values in a stable order together with
// the matching arguments.
func splitRecord(values repository.Record) ([]string, []any) {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = values[c]
	}
	return cols, args
}

func columnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// translateWriteError maps constraint failures to domain errors the admin
// console can show.
func translateWriteError(table string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return apperror.Conflict(fmt.Sprintf("%s: a row with that value already exists", table))
	case isForeignKeyViolation(err):
		return apperror.ValidationFailed("", fmt.Sprintf("%s: referenced row does not exist", table))
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return apperror.ValidationFailed("", fmt.Sprintf("%s: a required column is missing", table))
	case isCheckViolation(err):
		return apperror.ValidationFailed("", fmt.Sprintf("%s: a value is out of range", table))
	}
	return fmt.Errorf("sqlite: writing %s: %w", table, err)
}
