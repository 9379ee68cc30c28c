package localtodo

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "todos.json"))
	require.NoError(t, err)
	return s
}

func titles(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}

func TestAddEditRemove(t *testing.T) {
	s := newTestStore(t)

	item, err := s.Add("buy milk", nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)

	require.NoError(t, s.Edit(item.ID, "buy oat milk"))
	assert.Equal(t, []string{"buy oat milk"}, titles(s.Items()))

	require.NoError(t, s.Remove(item.ID))
	assert.Empty(t, s.Items())

	_, err = s.Add("", nil, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.ErrorIs(t, s.Edit("missing", "x"), models.ErrNotFound)
}

func TestMoveUpDown(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.Add("a", nil, nil)
	b, _ := s.Add("b", nil, nil)
	_, _ = s.Add("c", nil, nil)

	require.NoError(t, s.MoveDown(b.ID))
	assert.Equal(t, []string{"a", "c", "b"}, titles(s.Items()))

	require.NoError(t, s.MoveUp(a.ID)) // already first, no-op
	assert.Equal(t, []string{"a", "c", "b"}, titles(s.Items()))
}

func TestUndoRedoScenario(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("first", nil, nil)
	require.NoError(t, err)
	_, err = s.Add("second", nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Undo())
	assert.Equal(t, []string{"first"}, titles(s.Items()))

	require.NoError(t, s.Redo())
	assert.Equal(t, []string{"first", "second"}, titles(s.Items()))

	// A fresh mutation after redo clears the redo stack.
	require.NoError(t, s.Undo())
	_, err = s.Add("third", nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Redo()) // nothing to redo anymore
	assert.Equal(t, []string{"first", "third"}, titles(s.Items()))
}

func TestUndoOnEmptyHistoryIsNoop(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Undo())
	require.NoError(t, s.Redo())
	assert.Empty(t, s.Items())
}

func TestUndoRestoreCreatesNoHistory(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("only", nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Undo())
	assert.Empty(t, s.Items())
	// The restore itself must not have pushed a snapshot.
	assert.Len(t, s.undoStack, 0)
	assert.Len(t, s.redoStack, 1)
}

func TestToggleCompletesAndReopens(t *testing.T) {
	s := newTestStore(t)

	item, err := s.Add("stretch", nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Toggle(item.ID))
	assert.True(t, s.Items()[0].Completed)

	require.NoError(t, s.Toggle(item.ID))
	assert.False(t, s.Items()[0].Completed)
}

func TestToggleRecurringAppendsNextOccurrence(t *testing.T) {
	s := newTestStore(t)

	due := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	item, err := s.Add("water plants", &due, &Recurrence{Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	require.NoError(t, s.Toggle(item.ID))

	items := s.Items()
	require.Len(t, items, 2)
	assert.True(t, items[0].Completed)
	assert.False(t, items[1].Completed)
	require.NotNil(t, items[1].DueDate)
	assert.Equal(t, due.AddDate(0, 0, 1), *items[1].DueDate)
}

func TestToggleRecurringRespectsEndDate(t *testing.T) {
	s := newTestStore(t)

	due := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	item, err := s.Add("water plants", &due, &Recurrence{Frequency: models.FrequencyDaily, EndDate: &end})
	require.NoError(t, err)

	require.NoError(t, s.Toggle(item.ID))
	assert.Len(t, s.Items(), 1)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")

	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.Add("first", nil, nil)
	require.NoError(t, err)
	_, err = s.Add("second", nil, nil)
	require.NoError(t, err)

	reopened, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, titles(reopened.Items()))

	// History stacks survive the reopen too.
	require.NoError(t, reopened.Undo())
	assert.Equal(t, []string{"first"}, titles(reopened.Items()))
}
