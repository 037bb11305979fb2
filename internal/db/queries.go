package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/scribe/internal/errors"
)

// ActionItem is an action raised in a set of minutes.
type ActionItem struct {
	ID        string  `json:"id"`        // ULID
	ActionID  string  `json:"action_id"` // "action<N>" within the minutes
	Meeting   string  `json:"meeting"`
	Date      string  `json:"date"`
	Message   string  `json:"message"`
	Assignee  string  `json:"assignee"`
	GitHub    *string `json:"github,omitempty"`
	Repo      *string `json:"repo,omitempty"`
	Source    *string `json:"source,omitempty"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
	ClosedAt  *int64  `json:"closed_at,omitempty"`
}

// ActionFilters narrows ListActions. Empty fields match everything.
type ActionFilters struct {
	Date          string
	Meeting       string
	Assignee      string // case-insensitive exact match
	IncludeClosed bool
}

const actionColumns = `id, action_id, meeting, date, message, assignee,
	github, repo, source, created_at, updated_at, closed_at`

// ReplaceActions makes the stored actions of one meeting and date match items,
// in one transaction. An action already recorded under the same action id is
// refreshed and keeps its ID; the ID of each item is updated to the stored one.
// Rows whose action id is no longer among items are deleted.
func ReplaceActions(ctx context.Context, db *sql.DB, meeting, date string, items []*ActionItem) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO actions (` + actionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(meeting, date, action_id) DO UPDATE SET
			message = excluded.message,
			assignee = excluded.assignee,
			github = excluded.github,
			repo = excluded.repo,
			source = excluded.source,
			updated_at = excluded.updated_at
		RETURNING id
	`

	keep := make([]any, 0, len(items)+2)
	keep = append(keep, meeting, date)
	for _, a := range items {
		a.Meeting, a.Date = meeting, date
		keep = append(keep, a.ActionID)
		err := tx.QueryRowContext(ctx, query,
			a.ID, a.ActionID, a.Meeting, a.Date, a.Message, a.Assignee,
			toNullString(a.GitHub), toNullString(a.Repo), toNullString(a.Source),
			a.CreatedAt, a.UpdatedAt,
		).Scan(&a.ID)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	prune := `DELETE FROM actions WHERE meeting = ? AND date = ?`
	if len(items) > 0 {
		prune += ` AND action_id NOT IN (?` + strings.Repeat(", ?", len(items)-1) + `)`
	}
	if _, err := tx.ExecContext(ctx, prune, keep...); err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetAction retrieves an action by its ULID.
func GetAction(db *sql.DB, id string) (*ActionItem, error) {
	row := db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id)
	a, err := scanAction(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return a, nil
}

// ListActions returns actions newest meeting first, with the total count of
// matching rows for pagination.
func ListActions(db *sql.DB, filters ActionFilters, limit, offset int) ([]*ActionItem, int, error) {
	var (
		where []string
		args  []any
	)
	if filters.Date != "" {
		where = append(where, "date = ?")
		args = append(args, filters.Date)
	}
	if filters.Meeting != "" {
		where = append(where, "meeting = ?")
		args = append(args, filters.Meeting)
	}
	if filters.Assignee != "" {
		where = append(where, "assignee = ? COLLATE NOCASE")
		args = append(args, filters.Assignee)
	}
	if !filters.IncludeClosed {
		where = append(where, "closed_at IS NULL")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM actions`+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + actionColumns + ` FROM actions` + clause +
		` ORDER BY date DESC, meeting, CAST(SUBSTR(action_id, 7) AS INTEGER), id LIMIT ? OFFSET ?`
	rows, err := db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []*ActionItem
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return items, total, nil
}

// CloseAction marks an open action as done by setting closed_at.
func CloseAction(db *sql.DB, id string) error {
	now := time.Now().Unix()

	result, err := db.Exec(`
		UPDATE actions
		SET closed_at = ?, updated_at = ?
		WHERE id = ? AND closed_at IS NULL
	`, now, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanAction scans a single row into an ActionItem.
func scanAction(row scanner) (*ActionItem, error) {
	var (
		a        ActionItem
		github   sql.NullString
		repo     sql.NullString
		source   sql.NullString
		closedAt sql.NullInt64
	)

	err := row.Scan(
		&a.ID, &a.ActionID, &a.Meeting, &a.Date, &a.Message, &a.Assignee,
		&github, &repo, &source, &a.CreatedAt, &a.UpdatedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}

	a.GitHub = fromNullString(github)
	a.Repo = fromNullString(repo)
	a.Source = fromNullString(source)
	if closedAt.Valid {
		a.ClosedAt = &closedAt.Int64
	}

	return &a, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
