package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/models"
	"task-manager/nlp"
)

func newBuildOnlyTaskService() *TaskService {
	// Inference and the reminder queue are pure; nothing here touches the
	// database.
	return &TaskService{
		Inference: nlp.NewService(),
		Reminders: NewReminderService(nil, nil),
	}
}

func TestBuildTaskSchemaDefaults(t *testing.T) {
	s := newBuildOnlyTaskService()
	creator := models.User{ID: primitive.NewObjectID()}

	task, err := s.buildTask(creator, TaskCreateInput{Title: "Pay rent"}, time.Now())
	require.NoError(t, err)

	// Title carries no keywords: inference yields nothing, schema defaults
	// apply.
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Nil(t, task.DueDate)
	assert.Empty(t, task.Category)
	assert.Equal(t, creator.ID, task.Creator)
	assert.Nil(t, task.CompletedAt)
}

func TestBuildTaskInferenceFillsUnsetFields(t *testing.T) {
	s := newBuildOnlyTaskService()
	creator := models.User{ID: primitive.NewObjectID()}

	task, err := s.buildTask(creator, TaskCreateInput{Title: "urgent work deadline tomorrow"}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, "work", task.Category)
	require.NotNil(t, task.DueDate)
}

func TestBuildTaskCallerValuesBeatInference(t *testing.T) {
	s := newBuildOnlyTaskService()
	creator := models.User{ID: primitive.NewObjectID()}

	task, err := s.buildTask(creator, TaskCreateInput{
		Title:    "urgent work deadline tomorrow",
		Priority: models.PriorityLow,
		Category: "finance",
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.PriorityLow, task.Priority)
	assert.Equal(t, "finance", task.Category)
}

func TestBuildTaskRejectsBadInput(t *testing.T) {
	s := newBuildOnlyTaskService()
	creator := models.User{ID: primitive.NewObjectID()}
	now := time.Now()

	_, err := s.buildTask(creator, TaskCreateInput{Title: "   "}, now)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.buildTask(creator, TaskCreateInput{Title: "ok", Status: "done"}, now)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.buildTask(creator, TaskCreateInput{Title: "ok", Priority: "urgent"}, now)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestApplyUpdateIgnoresProgressWithSubtasks(t *testing.T) {
	s := newBuildOnlyTaskService()
	task := &models.Task{
		Status:   models.StatusInProgress,
		Progress: 50,
		Subtasks: []models.Subtask{{Completed: true}, {Completed: false}},
	}

	progress := 80
	ch, err := s.applyUpdate(task, TaskUpdate{
		Progress: &progress,
		Present:  map[string]bool{"progress": true},
	}, time.Now())
	require.NoError(t, err)

	assert.False(t, ch.Progress)
	task.Normalize(ch, time.Now())
	assert.Equal(t, 50, task.Progress)
	assert.Equal(t, models.StatusInProgress, task.Status)
}

func TestApplyUpdateAppliesProgressWithoutSubtasks(t *testing.T) {
	s := newBuildOnlyTaskService()
	task := &models.Task{Status: models.StatusPending}

	progress := 80
	ch, err := s.applyUpdate(task, TaskUpdate{
		Progress: &progress,
		Present:  map[string]bool{"progress": true},
	}, time.Now())
	require.NoError(t, err)

	assert.True(t, ch.Progress)
	task.Normalize(ch, time.Now())
	assert.Equal(t, 80, task.Progress)
	assert.Equal(t, models.StatusInProgress, task.Status)
}

func TestCompletionCancelsPendingReminder(t *testing.T) {
	s := newBuildOnlyTaskService()
	now := time.Now()
	due := now.Add(3 * time.Hour)
	task := &models.Task{
		ID:      primitive.NewObjectID(),
		Title:   "file taxes",
		Status:  models.StatusPending,
		DueDate: &due,
	}

	s.Reminders.Schedule(*task, now)

	task.Status = models.StatusCompleted
	s.handleCompletion(context.Background(), task, false, now)

	assert.Empty(t, s.Reminders.collectDue(now.Add(24*time.Hour)))
}

func TestCompletionHandlerOnlyFiresOnTransition(t *testing.T) {
	s := newBuildOnlyTaskService()
	now := time.Now()
	due := now.Add(3 * time.Hour)
	task := &models.Task{
		ID:      primitive.NewObjectID(),
		Title:   "file taxes",
		Status:  models.StatusCompleted,
		DueDate: &due,
	}

	s.Reminders.Schedule(*task, now)

	// Already completed before this mutation: nothing is cancelled.
	s.handleCompletion(context.Background(), task, true, now)
	assert.Len(t, s.Reminders.collectDue(now.Add(24*time.Hour)), 1)
}
