package ops

import (
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/scribe/internal/db"
	"github.com/hpungsan/scribe/internal/errors"
)

// ListActionsInput contains parameters for the ListActions operation.
type ListActionsInput struct {
	Date          string // optional, YYYY-MM-DD
	Meeting       string // optional
	Assignee      string // optional, case-insensitive
	IncludeClosed bool
	Limit         int // default: 20, max: 100
	Offset        int // default: 0
}

// ListActionsOutput contains the result of the ListActions operation.
type ListActionsOutput struct {
	Items      []*db.ActionItem `json:"items"`
	Pagination Pagination       `json:"pagination"`
	Sort       string           `json:"sort"`
}

// ListActions retrieves recorded action items with pagination.
func ListActions(database *sql.DB, input ListActionsInput) (*ListActionsOutput, error) {
	date := strings.TrimSpace(input.Date)
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, errors.NewInvalidRequest("date must be YYYY-MM-DD")
		}
	}

	limit := clampLimit(input.Limit)
	offset := max(input.Offset, 0)

	items, total, err := db.ListActions(database, db.ActionFilters{
		Date:          date,
		Meeting:       strings.TrimSpace(input.Meeting),
		Assignee:      strings.TrimSpace(input.Assignee),
		IncludeClosed: input.IncludeClosed,
	}, limit, offset)
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []*db.ActionItem{}
	}

	return &ListActionsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "date_desc",
	}, nil
}

// CloseActionInput contains parameters for the CloseAction operation.
type CloseActionInput struct {
	ID string // required, ULID of the stored action
}

// CloseActionOutput contains the result of the CloseAction operation.
type CloseActionOutput struct {
	ID       string `json:"id"`
	ActionID string `json:"action_id"`
	Closed   bool   `json:"closed"`
}

// CloseAction marks a recorded action as done.
func CloseAction(database *sql.DB, input CloseActionInput) (*CloseActionOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := db.CloseAction(database, id); err != nil {
		return nil, err
	}

	item, err := db.GetAction(database, id)
	if err != nil {
		return nil, err
	}

	return &CloseActionOutput{
		ID:       item.ID,
		ActionID: item.ActionID,
		Closed:   item.ClosedAt != nil,
	}, nil
}
