// Package localtodo is the single-user offline variant of the task list. It
// keeps the whole list in one JSON document on disk, the way a browser client
// keeps it in localStorage, and layers snapshot-based undo/redo on top of
// every mutation.
package localtodo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"task-manager/models"
)

// Item is the reduced task shape the offline list works with.
type Item struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Completed bool                `json:"completed"`
	DueDate   *time.Time          `json:"dueDate,omitempty"`
	Recurring *Recurrence         `json:"recurring,omitempty"`
	Priority  models.TaskPriority `json:"priority,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

type Recurrence struct {
	Frequency models.RecurrenceFrequency `json:"frequency"`
	EndDate   *time.Time                 `json:"endDate,omitempty"`
}

// Store persists the list plus both history stacks as a single JSON file.
// Snapshots are full serialized copies of the item list, pushed before every
// mutation; restoring never counts as a mutation itself.
type Store struct {
	path      string
	items     []Item
	undoStack []string
	redoStack []string
	restoring bool
	now       func() time.Time
}

type storeState struct {
	Items     []Item   `json:"items"`
	UndoStack []string `json:"undoStack"`
	RedoStack []string `json:"redoStack"`
}

func NewStore(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	var state storeState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decode store: %w", err)
	}
	s.items = state.Items
	s.undoStack = state.UndoStack
	s.redoStack = state.RedoStack
	return nil
}

func (s *Store) save() error {
	state := storeState{Items: s.items, UndoStack: s.undoStack, RedoStack: s.redoStack}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

// Items returns a copy of the current list in display order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// snapshot pushes the current list onto the undo stack and clears the redo
// stack. Skipped while an undo/redo restore is in flight, so that restoring
// old state does not itself create history.
func (s *Store) snapshot() {
	if s.restoring {
		return
	}
	data, err := json.Marshal(s.items)
	if err != nil {
		return
	}
	s.undoStack = append(s.undoStack, string(data))
	s.redoStack = nil
}

func (s *Store) Add(title string, dueDate *time.Time, recurring *Recurrence) (Item, error) {
	if title == "" {
		return Item{}, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	s.snapshot()
	item := Item{
		ID:        uuid.NewString(),
		Title:     title,
		DueDate:   dueDate,
		Recurring: recurring,
		CreatedAt: s.now(),
	}
	s.items = append(s.items, item)
	return item, s.save()
}

func (s *Store) Edit(id, title string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: item not found", models.ErrNotFound)
	}
	if title == "" {
		return fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	s.snapshot()
	s.items[idx].Title = title
	return s.save()
}

// Toggle flips completion. Completing a recurring item appends its next
// occurrence, unless the recurrence end date has already passed.
func (s *Store) Toggle(id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: item not found", models.ErrNotFound)
	}
	s.snapshot()
	item := &s.items[idx]
	item.Completed = !item.Completed

	if item.Completed && item.Recurring != nil && item.DueDate != nil {
		if next := nextDue(*item.DueDate, item.Recurring.Frequency); item.Recurring.EndDate == nil || !next.After(*item.Recurring.EndDate) {
			successor := Item{
				ID:        uuid.NewString(),
				Title:     item.Title,
				DueDate:   &next,
				Recurring: item.Recurring,
				Priority:  item.Priority,
				CreatedAt: s.now(),
			}
			s.items = append(s.items, successor)
		}
	}
	return s.save()
}

func (s *Store) Remove(id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: item not found", models.ErrNotFound)
	}
	s.snapshot()
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return s.save()
}

func (s *Store) MoveUp(id string) error {
	return s.move(id, -1)
}

func (s *Store) MoveDown(id string) error {
	return s.move(id, 1)
}

func (s *Store) move(id string, delta int) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: item not found", models.ErrNotFound)
	}
	target := idx + delta
	if target < 0 || target >= len(s.items) {
		return nil
	}
	s.snapshot()
	s.items[idx], s.items[target] = s.items[target], s.items[idx]
	return s.save()
}

// Undo restores the most recent snapshot and pushes the current state onto
// the redo stack. A no-op when there is nothing to undo.
func (s *Store) Undo() error {
	if len(s.undoStack) == 0 {
		return nil
	}
	current, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	prev := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	s.redoStack = append(s.redoStack, string(current))
	return s.restore(prev)
}

// Redo re-applies the most recently undone state. A no-op when nothing has
// been undone since the last mutation.
func (s *Store) Redo() error {
	if len(s.redoStack) == 0 {
		return nil
	}
	current, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	next := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.undoStack = append(s.undoStack, string(current))
	return s.restore(next)
}

func (s *Store) restore(snapshot string) error {
	s.restoring = true
	defer func() { s.restoring = false }()

	var items []Item
	if err := json.Unmarshal([]byte(snapshot), &items); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	s.items = items
	return s.save()
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func nextDue(due time.Time, freq models.RecurrenceFrequency) time.Time {
	switch freq {
	case models.FrequencyDaily:
		return due.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return due.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return due.AddDate(0, 1, 0)
	default:
		return due.AddDate(0, 0, 1)
	}
}
