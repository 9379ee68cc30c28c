package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusArchived   TaskStatus = "archived"
)

// ValidStatus reports whether s is one of the four task statuses.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type RecurrenceFrequency string

const (
	FrequencyDaily   RecurrenceFrequency = "daily"
	FrequencyWeekly  RecurrenceFrequency = "weekly"
	FrequencyMonthly RecurrenceFrequency = "monthly"
)

// Recurrence describes automatic successor creation on completion.
type Recurrence struct {
	Enabled   bool                `bson:"enabled" json:"enabled"`
	Frequency RecurrenceFrequency `bson:"frequency,omitempty" json:"frequency,omitempty"`
	EndDate   *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
}

// Subtask is a checklist item contributing to the parent's derived progress.
// It keeps its own timestamps, independent of the parent task's.
type Subtask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Completed   bool               `bson:"completed" json:"completed"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Text      string             `bson:"text" json:"text"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Attachment carries metadata only; file storage is out of scope.
type Attachment struct {
	Name       string             `bson:"name" json:"name"`
	URL        string             `bson:"url" json:"url"`
	Type       string             `bson:"type" json:"type"`
	Size       int64              `bson:"size" json:"size"`
	UploadedBy primitive.ObjectID `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`
	UploadedAt time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

type Task struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description,omitempty" json:"description,omitempty"`
	Status          TaskStatus           `bson:"status" json:"status"`
	Priority        TaskPriority         `bson:"priority" json:"priority"`
	Category        string               `bson:"category,omitempty" json:"category,omitempty"`
	DueDate         *time.Time           `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	CompletedAt     *time.Time           `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Creator         primitive.ObjectID   `bson:"creator" json:"creator"`
	AssignedTo      *primitive.ObjectID  `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	SharedWith      []primitive.ObjectID `bson:"sharedWith,omitempty" json:"sharedWith,omitempty"`
	Subtasks        []Subtask            `bson:"subtasks,omitempty" json:"subtasks,omitempty"`
	Comments        []Comment            `bson:"comments,omitempty" json:"comments,omitempty"`
	Attachments     []Attachment         `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Tags            []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	Progress        int                  `bson:"progress" json:"progress"`
	Recurring       Recurrence           `bson:"recurring" json:"recurring"`
	CalendarEventID string               `bson:"calendarEventId,omitempty" json:"-"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CanAccess reports whether userID is the creator, the assignee, or a member
// of the shared-with set. Creator membership is permanent.
func (t *Task) CanAccess(userID primitive.ObjectID) bool {
	if t.Creator == userID {
		return true
	}
	if t.AssignedTo != nil && *t.AssignedTo == userID {
		return true
	}
	for _, id := range t.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// RecomputeProgress derives progress from the subtask list. With no subtasks,
// progress mirrors the completed status.
func (t *Task) RecomputeProgress() {
	if len(t.Subtasks) == 0 {
		if t.Status == StatusCompleted {
			t.Progress = 100
		} else {
			t.Progress = 0
		}
		return
	}

	done := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	t.Progress = int(math.Round(float64(done) / float64(len(t.Subtasks)) * 100))
}

// TaskChange records which lifecycle inputs a mutation touched, so Normalize
// can apply the transition rules in a fixed order.
type TaskChange struct {
	Subtasks bool
	Progress bool
	Status   bool
}

// Normalize is the single atomic lifecycle step run before every persist.
// Rule order: subtask-derived progress first, then status derived from
// progress, then explicit status. An explicit status in the same mutation
// wins over the progress-derived one, so the derivation step is skipped when
// Status is set.
func (t *Task) Normalize(ch TaskChange, now time.Time) {
	if ch.Subtasks {
		t.RecomputeProgress()
		ch.Progress = true
	}

	if ch.Progress && !ch.Status {
		switch {
		case t.Progress == 100:
			if t.Status != StatusCompleted {
				t.Status = StatusCompleted
				t.CompletedAt = &now
			} else if t.CompletedAt == nil {
				t.CompletedAt = &now
			}
		case t.Progress > 0:
			t.Status = StatusInProgress
			t.CompletedAt = nil
		default:
			t.Status = StatusPending
			t.CompletedAt = nil
		}
	}

	if ch.Status {
		if t.Status == StatusCompleted {
			if t.CompletedAt == nil {
				t.CompletedAt = &now
			}
			t.Progress = 100
		} else {
			t.CompletedAt = nil
		}
	}

	t.UpdatedAt = now
}

// NextOccurrence builds the successor of a recurring task, or returns nil
// when recurrence is off, the task has no due date, or the advanced due date
// falls past the recurrence end date. Monthly advancement uses calendar
// arithmetic with native overflow (Jan 31 + 1 month rolls into March).
func (t *Task) NextOccurrence(now time.Time) *Task {
	if !t.Recurring.Enabled || t.Recurring.Frequency == "" || t.DueDate == nil {
		return nil
	}

	var due time.Time
	switch t.Recurring.Frequency {
	case FrequencyDaily:
		due = t.DueDate.AddDate(0, 0, 1)
	case FrequencyWeekly:
		due = t.DueDate.AddDate(0, 0, 7)
	case FrequencyMonthly:
		due = t.DueDate.AddDate(0, 1, 0)
	default:
		return nil
	}

	if t.Recurring.EndDate != nil && due.After(*t.Recurring.EndDate) {
		return nil
	}

	shared := make([]primitive.ObjectID, len(t.SharedWith))
	copy(shared, t.SharedWith)
	tags := make([]string, len(t.Tags))
	copy(tags, t.Tags)

	return &Task{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		Status:      StatusPending,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     &due,
		Creator:     t.Creator,
		AssignedTo:  t.AssignedTo,
		SharedWith:  shared,
		Tags:        tags,
		Progress:    0,
		Recurring:   t.Recurring,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
