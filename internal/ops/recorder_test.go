package ops

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/scribe/internal/db"
)

func TestActionRecorder_Commit(t *testing.T) {
	database := openTestDB(t)

	r := NewActionRecorder("w3c/wpub", "https://example.org/irc.txt")
	r.SetDate("2024-05-01")
	r.AddAction("action1", "draft text", "Alice Smith", "asmith")
	r.AddAction("action2", "review the draft", "Ivan Herman", "")
	require.Equal(t, 2, r.Pending())

	recorded, err := r.Commit(context.Background(), database, "Publishing WG")
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.Equal(t, 0, r.Pending())

	for _, item := range recorded {
		_, err := ulid.Parse(item.ID)
		assert.NoError(t, err, "id %q should be a ULID", item.ID)
	}

	got, err := db.GetAction(database, recorded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Publishing WG", got.Meeting)
	assert.Equal(t, "2024-05-01", got.Date)
	require.NotNil(t, got.GitHub)
	assert.Equal(t, "asmith", *got.GitHub)
	require.NotNil(t, got.Source)
	assert.Equal(t, "https://example.org/irc.txt", *got.Source)

	second, err := db.GetAction(database, recorded[1].ID)
	require.NoError(t, err)
	assert.Nil(t, second.GitHub)
}

func TestActionRecorder_CommitEmpty(t *testing.T) {
	database := openTestDB(t)

	recorded, err := NewActionRecorder("", "").Commit(context.Background(), database, "Publishing WG")
	require.NoError(t, err)
	assert.Empty(t, recorded)
}
