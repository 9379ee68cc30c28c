package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/utils"
)

// reminderLead is how long before the due date a reminder fires.
const reminderLead = time.Hour

type reminderEntry struct {
	at   time.Time
	task models.Task
}

// ReminderService holds an explicit queue of due-time entries and fires them
// from a once-a-minute cron sweep. The queue is in-memory only: a process
// restart drops scheduled-but-unfired reminders. That gap is inherited from
// the source system and deliberate.
type ReminderService struct {
	mu      sync.Mutex
	entries map[string]reminderEntry

	cron  *cron.Cron
	users *mongo.Collection
	push  *utils.PushService
}

func NewReminderService(users *mongo.Collection, push *utils.PushService) *ReminderService {
	return &ReminderService{
		entries: make(map[string]reminderEntry),
		cron:    cron.New(),
		users:   users,
		push:    push,
	}
}

// Start begins the minute sweep.
func (s *ReminderService) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", func() { s.sweep(time.Now()) }); err != nil {
		return fmt.Errorf("failed to register reminder sweep: %v", err)
	}
	s.cron.Start()
	logging.Logger.Info("Event ID: REMINDER_SWEEP_STARTED, Description: Reminder sweep scheduled every minute")
	return nil
}

func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
}

// Schedule queues a reminder at dueDate minus one hour. Tasks due in less
// than an hour, or with no due date, are not scheduled. Rescheduling the
// same task replaces its entry.
func (s *ReminderService) Schedule(task models.Task, now time.Time) {
	if task.DueDate == nil {
		return
	}
	if task.DueDate.Sub(now) < reminderLead {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[task.ID.Hex()] = reminderEntry{
		at:   task.DueDate.Add(-reminderLead),
		task: task,
	}
}

// Cancel removes any pending reminder for the task.
func (s *ReminderService) Cancel(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, taskID)
}

// collectDue removes and returns every entry whose fire time has passed.
func (s *ReminderService) collectDue(now time.Time) []reminderEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []reminderEntry
	for id, entry := range s.entries {
		if !entry.at.After(now) {
			due = append(due, entry)
			delete(s.entries, id)
		}
	}
	return due
}

func (s *ReminderService) sweep(now time.Time) {
	for _, entry := range s.collectDue(now) {
		s.fire(entry.task)
	}
}

// fire delivers one reminder. Preferences and the push subscription are
// re-read at fire time so changes made after scheduling are honored.
// Delivery failures never propagate: email errors are logged and swallowed,
// and a permanently invalid push subscription is cleared, not retried.
func (s *ReminderService) fire(task models.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": task.Creator}).Decode(&user); err != nil {
		logging.Logger.Warnf("Event ID: REMINDER_USER_LOOKUP_FAILED, Description: Could not load user for task %s reminder: %v", task.ID.Hex(), err)
		return
	}

	if !user.NotificationPreferences.TaskReminders {
		return
	}

	if user.NotificationPreferences.EmailNotifications {
		if err := utils.SendTaskReminder(task, user); err != nil {
			logging.Logger.Warnf("Event ID: REMINDER_EMAIL_FAILED, Description: Failed to email reminder for task %s: %v", task.ID.Hex(), err)
		}
	}

	if user.NotificationPreferences.PushNotifications && user.PushSubscription != nil {
		delivered := s.push.Send(user.PushSubscription, utils.PushPayload{
			Title: "Task Due Soon",
			Body:  fmt.Sprintf("Task %q is due in 1 hour", task.Title),
			Icon:  "/icon.png",
			Data:  map[string]string{"url": "/tasks/" + task.ID.Hex()},
		})
		if !delivered {
			if _, err := s.users.UpdateOne(ctx, bson.M{"_id": user.ID},
				bson.M{"$unset": bson.M{"pushSubscription": ""}}); err != nil {
				logging.Logger.Warnf("Event ID: PUSH_SUBSCRIPTION_CLEAR_FAILED, Description: Failed to clear expired subscription for user %s: %v", user.ID.Hex(), err)
			}
		}
	}
}
