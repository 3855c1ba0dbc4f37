package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Record(Roll{
		RunID:     "run-1",
		Namespace: "dungeon",
		Pattern:   "{{creature}}",
		Output:    "goblin",
		Seed:      42,
	}))
	require.NoError(t, s.Record(Roll{
		RunID:     "run-2",
		Namespace: "dungeon",
		Pattern:   "{{creature}}",
		Output:    "ogre",
		Seed:      43,
	}))

	rolls, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, rolls, 2)

	// Newest first.
	assert.Equal(t, "run-2", rolls[0].RunID)
	assert.Equal(t, "run-1", rolls[1].RunID)
	assert.Equal(t, "goblin", rolls[1].Output)
	assert.Equal(t, int64(42), rolls[1].Seed)
	assert.False(t, rolls[0].CreatedAt.IsZero())
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(Roll{RunID: "r", Namespace: "d", Pattern: "p", Output: "o"}))
	}

	rolls, err := s.Recent(3)
	require.NoError(t, err)
	assert.Len(t, rolls, 3)
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)
	rolls, err := s.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, rolls)
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Record(Roll{RunID: "r", Namespace: "d", Pattern: "p", Output: "o"}))
	}

	require.NoError(t, s.Prune(4))
	rolls, err := s.Recent(100)
	require.NoError(t, err)
	assert.Len(t, rolls, 4)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(Roll{RunID: "r", Namespace: "d", Pattern: "p", Output: "o"}))
	require.NoError(t, s.Close())

	// Reopening the same file must keep existing rows.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	rolls, err := s.Recent(10)
	require.NoError(t, err)
	assert.Len(t, rolls, 1)
}
