package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/models"
)

func newQueueOnlyReminderService() *ReminderService {
	// No mongo and no push client: these tests exercise the queue alone and
	// never reach fire().
	return NewReminderService(nil, nil)
}

func reminderTask(due *time.Time) models.Task {
	return models.Task{ID: primitive.NewObjectID(), Title: "write report", DueDate: due}
}

func TestScheduleSkipsTasksWithoutLead(t *testing.T) {
	s := newQueueOnlyReminderService()
	now := time.Now()

	s.Schedule(reminderTask(nil), now)

	soon := now.Add(30 * time.Minute)
	s.Schedule(reminderTask(&soon), now)

	assert.Empty(t, s.collectDue(now.Add(24*time.Hour)))
}

func TestScheduleAndCollectDue(t *testing.T) {
	s := newQueueOnlyReminderService()
	now := time.Now()
	due := now.Add(2 * time.Hour)

	task := reminderTask(&due)
	s.Schedule(task, now)

	// Fire time is due minus one hour: nothing due before that.
	assert.Empty(t, s.collectDue(now.Add(30*time.Minute)))

	collected := s.collectDue(now.Add(time.Hour))
	require.Len(t, collected, 1)
	assert.Equal(t, task.ID, collected[0].task.ID)

	// Collection removes the entry.
	assert.Empty(t, s.collectDue(now.Add(time.Hour)))
}

func TestScheduleReplacesExistingEntry(t *testing.T) {
	s := newQueueOnlyReminderService()
	now := time.Now()

	first := now.Add(2 * time.Hour)
	task := reminderTask(&first)
	s.Schedule(task, now)

	later := now.Add(6 * time.Hour)
	task.DueDate = &later
	s.Schedule(task, now)

	// Old fire time must not trigger anymore.
	assert.Empty(t, s.collectDue(now.Add(90*time.Minute)))

	collected := s.collectDue(now.Add(5*time.Hour + time.Minute))
	require.Len(t, collected, 1)
	assert.Equal(t, later, *collected[0].task.DueDate)
}

func TestCancelRemovesEntry(t *testing.T) {
	s := newQueueOnlyReminderService()
	now := time.Now()
	due := now.Add(2 * time.Hour)

	task := reminderTask(&due)
	s.Schedule(task, now)
	s.Cancel(task.ID.Hex())

	assert.Empty(t, s.collectDue(now.Add(24*time.Hour)))
}
