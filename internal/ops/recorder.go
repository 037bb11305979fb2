package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/scribe/internal/db"
	"github.com/hpungsan/scribe/internal/minutes"
)

// ActionRecorder buffers the actions raised during a conversion and stores
// them once the conversion is done. It implements minutes.ActionTracker.
type ActionRecorder struct {
	repo   string
	source string
	date   string
	items  []minutes.Action
}

var _ minutes.ActionTracker = (*ActionRecorder)(nil)

// NewActionRecorder creates a recorder. repo is the "org/repo" actions are
// tracked in; source is the log the minutes were produced from. Either may be empty.
func NewActionRecorder(repo, source string) *ActionRecorder {
	return &ActionRecorder{repo: repo, source: source}
}

// SetDate records the date of the minutes.
func (r *ActionRecorder) SetDate(date string) {
	r.date = date
}

// AddAction buffers one action.
func (r *ActionRecorder) AddAction(id, message, name, githubName string) {
	r.items = append(r.items, minutes.Action{
		ID:       id,
		Message:  message,
		Assignee: name,
		GitHub:   githubName,
	})
}

// Pending returns the number of buffered actions.
func (r *ActionRecorder) Pending() int {
	return len(r.items)
}

// Commit stores the buffered actions for meeting and clears the buffer.
// Re-converting the same minutes refreshes the stored rows instead of
// duplicating them, and drops actions the minutes no longer raise.
func (r *ActionRecorder) Commit(ctx context.Context, database *sql.DB, meeting string) ([]*db.ActionItem, error) {
	now := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)

	records := make([]*db.ActionItem, 0, len(r.items))
	for _, a := range r.items {
		id, err := ulid.New(ulid.Timestamp(now), entropy)
		if err != nil {
			return nil, err
		}
		records = append(records, &db.ActionItem{
			ID:        id.String(),
			ActionID:  a.ID,
			Meeting:   meeting,
			Date:      r.date,
			Message:   a.Message,
			Assignee:  a.Assignee,
			GitHub:    optionalString(a.GitHub),
			Repo:      optionalString(r.repo),
			Source:    optionalString(r.source),
			CreatedAt: now.Unix(),
			UpdatedAt: now.Unix(),
		})
	}

	if err := db.ReplaceActions(ctx, database, meeting, r.date, records); err != nil {
		return nil, err
	}
	r.items = nil
	return records, nil
}

// optionalString maps "" to nil.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
