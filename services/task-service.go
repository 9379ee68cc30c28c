package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/nlp"
	"task-manager/realtime"
	"task-manager/utils"
)

type TaskService struct {
	TasksCollection *mongo.Collection
	UsersCollection *mongo.Collection
	Inference       *nlp.Service
	Reminders       *ReminderService
	Calendar        *utils.CalendarService
	Push            *utils.PushService
	Hub             *realtime.Hub
}

func NewTaskService(
	tasksCollection *mongo.Collection,
	usersCollection *mongo.Collection,
	inference *nlp.Service,
	reminders *ReminderService,
	calendar *utils.CalendarService,
	push *utils.PushService,
	hub *realtime.Hub,
) *TaskService {
	return &TaskService{
		TasksCollection: tasksCollection,
		UsersCollection: usersCollection,
		Inference:       inference,
		Reminders:       reminders,
		Calendar:        calendar,
		Push:            push,
		Hub:             hub,
	}
}

// AccessFilter selects every task the user can see: created by, assigned to,
// or shared with them. List routes self-filter with this instead of running
// the per-task permission check.
func AccessFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": []bson.M{
		{"creator": userID},
		{"assignedTo": userID},
		{"sharedWith": userID},
	}}
}

// TaskCreateInput is the creation payload. Empty priority/category/dueDate
// may be filled from title inference.
type TaskCreateInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.TaskStatus    `json:"status"`
	Priority    models.TaskPriority  `json:"priority"`
	Category    string               `json:"category"`
	DueDate     *time.Time           `json:"dueDate"`
	AssignedTo  *primitive.ObjectID  `json:"assignedTo"`
	SharedWith  []primitive.ObjectID `json:"sharedWith"`
	Tags        []string             `json:"tags"`
	Recurring   models.Recurrence    `json:"recurring"`
}

// Create builds a task for the creator. Inference runs once, against the
// title, and only fills fields the caller left empty; caller-supplied values
// always win.
func (s *TaskService) Create(ctx context.Context, creator models.User, input TaskCreateInput) (*models.Task, error) {
	now := time.Now()
	task, err := s.buildTask(creator, input, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.TasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	if task.DueDate != nil && task.Status != models.StatusCompleted && creator.NotificationPreferences.TaskReminders {
		s.Reminders.Schedule(*task, now)
	}
	s.syncCalendar(ctx, task, &creator)
	if task.AssignedTo != nil && *task.AssignedTo != creator.ID {
		s.notifyAssignment(ctx, task)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", task.ID.Hex(), creator.Username)
	return task, nil
}

// buildTask validates input and assembles the task document before it is
// persisted: inference fills fields the caller left empty, schema defaults
// (medium priority, pending status) apply after that, and the lifecycle is
// normalized once.
func (s *TaskService) buildTask(creator models.User, input TaskCreateInput, now time.Time) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if input.Status != "" && !models.ValidStatus(input.Status) {
		return nil, fmt.Errorf("%w: invalid status %q", models.ErrValidation, input.Status)
	}
	if input.Priority != "" && !models.ValidPriority(input.Priority) {
		return nil, fmt.Errorf("%w: invalid priority %q", models.ErrValidation, input.Priority)
	}

	inferred := s.Inference.Infer(title, now)

	task := &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		Category:    input.Category,
		DueDate:     input.DueDate,
		Creator:     creator.ID,
		AssignedTo:  input.AssignedTo,
		SharedWith:  input.SharedWith,
		Tags:        input.Tags,
		Recurring:   input.Recurring,
		CreatedAt:   now,
	}

	if task.Priority == "" && inferred.Priority != "" {
		task.Priority = models.TaskPriority(inferred.Priority)
	}
	if task.Category == "" && inferred.Category != "" {
		task.Category = inferred.Category
	}
	if task.DueDate == nil && inferred.DueDate != nil {
		task.DueDate = inferred.DueDate
	}

	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	statusSupplied := task.Status != ""
	if !statusSupplied {
		task.Status = models.StatusPending
	}
	task.Normalize(models.TaskChange{Status: statusSupplied}, now)

	return task, nil
}

// TaskFilter narrows and orders the task list.
type TaskFilter struct {
	Status   string
	Priority string
	Category string
	DueDate  *time.Time // matches tasks due on that calendar day
	SortBy   string     // "field:asc" or "field:desc"
	Skip     int64
	Limit    int64
}

var sortableFields = map[string]string{
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"category":  "category",
	"dueDate":   "dueDate",
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
	"progress":  "progress",
}

// List returns the user's tasks across all three access relations, filtered
// and sorted.
func (s *TaskService) List(ctx context.Context, userID primitive.ObjectID, filter TaskFilter) ([]models.Task, error) {
	match := AccessFilter(userID)
	if filter.Status != "" {
		match["status"] = filter.Status
	}
	if filter.Priority != "" {
		match["priority"] = filter.Priority
	}
	if filter.Category != "" {
		match["category"] = filter.Category
	}
	if filter.DueDate != nil {
		day := time.Date(filter.DueDate.Year(), filter.DueDate.Month(), filter.DueDate.Day(), 0, 0, 0, 0, filter.DueDate.Location())
		match["dueDate"] = bson.M{"$gte": day, "$lt": day.AddDate(0, 0, 1)}
	}

	opts := options.Find()
	if filter.SortBy != "" {
		parts := strings.SplitN(filter.SortBy, ":", 2)
		field, ok := sortableFields[parts[0]]
		if !ok {
			return nil, fmt.Errorf("%w: cannot sort by %q", models.ErrValidation, parts[0])
		}
		direction := 1
		if len(parts) == 2 && parts[1] == "desc" {
			direction = -1
		}
		opts.SetSort(bson.D{{Key: field, Value: direction}})
	}
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := s.TasksCollection.Find(ctx, match, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// AllForUser fetches the user's full task set, deduplicated by the query
// (each task matches the $or once).
func (s *TaskService) AllForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.List(ctx, userID, TaskFilter{})
}

// Get loads a task by id. Used by the permission middleware before any
// single-task route runs.
func (s *TaskService) Get(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: task not found", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load task: %v", err)
	}
	return &task, nil
}

// TaskUpdate is a task patch. Pointer fields distinguish "unchanged" from
// "set"; Present records which keys appeared in the request body so explicit
// nulls (clear due date, unassign) are honored. Progress only applies to
// tasks without subtasks: with subtasks present, progress is derived from
// them and a patched value is ignored.
type TaskUpdate struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Status      *models.TaskStatus    `json:"status"`
	Priority    *models.TaskPriority  `json:"priority"`
	Category    *string               `json:"category"`
	DueDate     *time.Time            `json:"dueDate"`
	AssignedTo  *primitive.ObjectID   `json:"assignedTo"`
	SharedWith  *[]primitive.ObjectID `json:"sharedWith"`
	Tags        *[]string             `json:"tags"`
	Progress    *int                  `json:"progress"`
	Recurring   *models.Recurrence    `json:"recurring"`

	Present map[string]bool `json:"-"`
}

func (u TaskUpdate) has(key string) bool {
	return u.Present[key]
}

// Update applies a patch, renormalizes the lifecycle, and persists.
// Concurrent edits are last-write-wins per field: the $set below carries
// only the patched and derived fields, with no version check.
func (s *TaskService) Update(ctx context.Context, task *models.Task, actor models.User, update TaskUpdate) (*models.Task, error) {
	now := time.Now()
	wasCompleted := task.Status == models.StatusCompleted
	prevAssignee := task.AssignedTo

	ch, err := s.applyUpdate(task, update, now)
	if err != nil {
		return nil, err
	}

	task.Normalize(ch, now)

	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, lifecycleUpdate(task)); err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}

	s.handleCompletion(ctx, task, wasCompleted, now)

	if update.has("dueDate") && actor.ID == task.Creator {
		if task.DueDate != nil && task.Status != models.StatusCompleted && actor.NotificationPreferences.TaskReminders {
			s.Reminders.Schedule(*task, now)
		} else {
			s.Reminders.Cancel(task.ID.Hex())
		}
	}
	if actor.ID == task.Creator {
		s.syncCalendar(ctx, task, &actor)
	}
	if update.has("assignedTo") && task.AssignedTo != nil &&
		(prevAssignee == nil || *prevAssignee != *task.AssignedTo) &&
		*task.AssignedTo != actor.ID {
		s.notifyAssignment(ctx, task)
	}

	s.Hub.Publish(task.ID.Hex(), realtime.EventTaskUpdated, task)
	return task, nil
}

// applyUpdate validates the patch and copies the patched fields onto task,
// reporting which lifecycle inputs changed.
func (s *TaskService) applyUpdate(task *models.Task, update TaskUpdate, now time.Time) (models.TaskChange, error) {
	var ch models.TaskChange

	if update.Status != nil && !models.ValidStatus(*update.Status) {
		return ch, fmt.Errorf("%w: invalid status %q", models.ErrValidation, *update.Status)
	}
	if update.Priority != nil && !models.ValidPriority(*update.Priority) {
		return ch, fmt.Errorf("%w: invalid priority %q", models.ErrValidation, *update.Priority)
	}
	if update.Progress != nil && (*update.Progress < 0 || *update.Progress > 100) {
		return ch, fmt.Errorf("%w: progress must be between 0 and 100", models.ErrValidation)
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return ch, fmt.Errorf("%w: title is required", models.ErrValidation)
		}
		task.Title = title

		// Re-run inference on the new title; inferred values only fill
		// fields the patch itself does not set.
		inferred := s.Inference.Infer(title, now)
		if !update.has("priority") && inferred.Priority != "" {
			task.Priority = models.TaskPriority(inferred.Priority)
		}
		if !update.has("category") && inferred.Category != "" {
			task.Category = inferred.Category
		}
		if !update.has("dueDate") && inferred.DueDate != nil {
			task.DueDate = inferred.DueDate
		}
	}
	if update.Description != nil {
		task.Description = strings.TrimSpace(*update.Description)
	}
	if update.has("status") && update.Status != nil {
		task.Status = *update.Status
		ch.Status = true
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.Category != nil {
		task.Category = *update.Category
	}
	if update.has("dueDate") {
		task.DueDate = update.DueDate
	}
	if update.has("assignedTo") {
		task.AssignedTo = update.AssignedTo
	}
	if update.SharedWith != nil {
		task.SharedWith = *update.SharedWith
	}
	if update.Tags != nil {
		task.Tags = *update.Tags
	}
	// Progress is derived when subtasks exist; the patched value is
	// ignored there, not rejected, matching the pre-save recompute in the
	// source system.
	if update.Progress != nil && len(task.Subtasks) == 0 {
		task.Progress = *update.Progress
		ch.Progress = true
	}
	if update.Recurring != nil {
		task.Recurring = *update.Recurring
	}

	return ch, nil
}

// Delete removes the task along with its pending reminder and calendar event.
func (s *TaskService) Delete(ctx context.Context, task *models.Task, actor models.User) error {
	result, err := s.TasksCollection.DeleteOne(ctx, bson.M{"_id": task.ID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: task not found", models.ErrNotFound)
	}

	s.Reminders.Cancel(task.ID.Hex())
	if actor.ID == task.Creator {
		s.Calendar.RemoveTask(ctx, task, &actor)
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", task.ID.Hex(), actor.Username)
	return nil
}

// AddComment appends a comment with its own timestamp and broadcasts it.
func (s *TaskService) AddComment(ctx context.Context, task *models.Task, author models.User, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrValidation)
	}

	now := time.Now()
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Text:      text,
		User:      author.ID,
		CreatedAt: now,
	}

	_, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": now},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %v", err)
	}
	task.Comments = append(task.Comments, comment)

	s.Hub.Publish(task.ID.Hex(), realtime.EventNewComment, comment)
	s.notifyAccessSet(ctx, task, author.ID, utils.PushPayload{
		Title: "New Comment",
		Body:  fmt.Sprintf("New comment on task %q by %s", task.Title, author.FirstName),
		Icon:  "/icon.png",
		Data:  map[string]string{"url": "/tasks/" + task.ID.Hex() + "#comments"},
	})

	return &comment, nil
}

// RemoveComment deletes a comment. Only the comment's author or the task
// creator may remove it.
func (s *TaskService) RemoveComment(ctx context.Context, task *models.Task, actor models.User, commentID primitive.ObjectID) error {
	idx := -1
	for i := range task.Comments {
		if task.Comments[i].ID == commentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: comment not found", models.ErrNotFound)
	}
	if task.Comments[idx].User != actor.ID && task.Creator != actor.ID {
		return fmt.Errorf("%w: only the author or the task creator can delete a comment", models.ErrForbidden)
	}

	now := time.Now()
	_, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
		"$set":  bson.M{"updatedAt": now},
	})
	if err != nil {
		return fmt.Errorf("failed to remove comment: %v", err)
	}
	task.Comments = append(task.Comments[:idx], task.Comments[idx+1:]...)
	task.UpdatedAt = now
	return nil
}

// AddSubtask appends a checklist item and renormalizes the parent.
func (s *TaskService) AddSubtask(ctx context.Context, task *models.Task, title string) (*models.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: subtask title is required", models.ErrValidation)
	}

	now := time.Now()
	subtask := models.Subtask{
		ID:        primitive.NewObjectID(),
		Title:     title,
		CreatedAt: now,
	}
	task.Subtasks = append(task.Subtasks, subtask)

	if err := s.persistSubtaskChange(ctx, task, false, now); err != nil {
		return nil, err
	}
	return &subtask, nil
}

// SubtaskUpdate patches one subtask.
type SubtaskUpdate struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// UpdateSubtask edits or toggles a subtask. Toggling can complete the parent
// (all subtasks done), which follows the normal completion path including
// recurrence.
func (s *TaskService) UpdateSubtask(ctx context.Context, task *models.Task, subtaskID primitive.ObjectID, update SubtaskUpdate) (*models.Subtask, error) {
	idx := -1
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: subtask not found", models.ErrNotFound)
	}

	now := time.Now()
	wasCompleted := task.Status == models.StatusCompleted
	subtask := &task.Subtasks[idx]

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: subtask title is required", models.ErrValidation)
		}
		subtask.Title = title
	}
	if update.Completed != nil && *update.Completed != subtask.Completed {
		subtask.Completed = *update.Completed
		if subtask.Completed {
			subtask.CompletedAt = &now
		} else {
			subtask.CompletedAt = nil
		}
	}

	if err := s.persistSubtaskChange(ctx, task, wasCompleted, now); err != nil {
		return nil, err
	}
	return subtask, nil
}

// RemoveSubtask drops a subtask and renormalizes; removing the last open
// subtask can complete the parent.
func (s *TaskService) RemoveSubtask(ctx context.Context, task *models.Task, subtaskID primitive.ObjectID) error {
	idx := -1
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: subtask not found", models.ErrNotFound)
	}

	now := time.Now()
	wasCompleted := task.Status == models.StatusCompleted
	task.Subtasks = append(task.Subtasks[:idx], task.Subtasks[idx+1:]...)

	return s.persistSubtaskChange(ctx, task, wasCompleted, now)
}

func (s *TaskService) persistSubtaskChange(ctx context.Context, task *models.Task, wasCompleted bool, now time.Time) error {
	task.Normalize(models.TaskChange{Subtasks: true}, now)

	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, lifecycleUpdate(task)); err != nil {
		return fmt.Errorf("failed to update subtasks: %v", err)
	}

	s.handleCompletion(ctx, task, wasCompleted, now)
	s.Hub.Publish(task.ID.Hex(), realtime.EventTaskUpdated, task)
	return nil
}

// handleCompletion runs once when a task transitions into completed: the
// pending reminder is dropped and, for recurring tasks, the successor is
// created.
func (s *TaskService) handleCompletion(ctx context.Context, task *models.Task, wasCompleted bool, now time.Time) {
	if wasCompleted || task.Status != models.StatusCompleted {
		return
	}

	s.Reminders.Cancel(task.ID.Hex())

	next := task.NextOccurrence(now)
	if next == nil {
		return
	}

	if _, err := s.TasksCollection.InsertOne(ctx, next); err != nil {
		logging.Logger.Warnf("Event ID: RECURRENCE_SPAWN_FAILED, Description: Failed to create successor for task %s: %v", task.ID.Hex(), err)
		return
	}
	logging.Logger.Infof("Event ID: RECURRENCE_SPAWNED, Description: Task %s spawned successor %s due %s", task.ID.Hex(), next.ID.Hex(), next.DueDate.Format(time.RFC3339))
}

// lifecycleUpdate builds the $set/$unset pair for a task's mutable fields.
func lifecycleUpdate(task *models.Task) bson.M {
	set := bson.M{
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"priority":    task.Priority,
		"category":    task.Category,
		"subtasks":    task.Subtasks,
		"tags":        task.Tags,
		"progress":    task.Progress,
		"recurring":   task.Recurring,
		"sharedWith":  task.SharedWith,
		"updatedAt":   task.UpdatedAt,
	}
	unset := bson.M{}

	if task.DueDate != nil {
		set["dueDate"] = task.DueDate
	} else {
		unset["dueDate"] = ""
	}
	if task.CompletedAt != nil {
		set["completedAt"] = task.CompletedAt
	} else {
		unset["completedAt"] = ""
	}
	if task.AssignedTo != nil {
		set["assignedTo"] = task.AssignedTo
	} else {
		unset["assignedTo"] = ""
	}
	if task.CalendarEventID != "" {
		set["calendarEventId"] = task.CalendarEventID
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// syncCalendar pushes the task's event to the owner's calendar and records
// the event id. Failures stay inside the calendar service.
func (s *TaskService) syncCalendar(ctx context.Context, task *models.Task, owner *models.User) {
	eventID := s.Calendar.SyncTask(ctx, task, owner)
	if eventID == task.CalendarEventID {
		return
	}
	task.CalendarEventID = eventID

	update := bson.M{"$set": bson.M{"calendarEventId": eventID}}
	if eventID == "" {
		update = bson.M{"$unset": bson.M{"calendarEventId": ""}}
	}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, update); err != nil {
		logging.Logger.Warnf("Event ID: CALENDAR_EVENT_ID_PERSIST_FAILED, Description: Failed to store calendar event id for task %s: %v", task.ID.Hex(), err)
	}
}

// notifyAssignment pushes a notification to a newly assigned user.
func (s *TaskService) notifyAssignment(ctx context.Context, task *models.Task) {
	var assignee models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": *task.AssignedTo}).Decode(&assignee); err != nil {
		logging.Logger.Warnf("Event ID: ASSIGNMENT_NOTIFY_FAILED, Description: Could not load assignee for task %s: %v", task.ID.Hex(), err)
		return
	}
	s.pushTo(ctx, assignee, utils.PushPayload{
		Title: "New Task Assignment",
		Body:  fmt.Sprintf("You have been assigned the task %q", task.Title),
		Icon:  "/icon.png",
		Data:  map[string]string{"url": "/tasks/" + task.ID.Hex()},
	})
}

// notifyAccessSet pushes a notification to every user with access to the
// task except the acting user.
func (s *TaskService) notifyAccessSet(ctx context.Context, task *models.Task, exclude primitive.ObjectID, payload utils.PushPayload) {
	ids := make([]primitive.ObjectID, 0, len(task.SharedWith)+2)
	ids = append(ids, task.Creator)
	if task.AssignedTo != nil {
		ids = append(ids, *task.AssignedTo)
	}
	ids = append(ids, task.SharedWith...)

	cursor, err := s.UsersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids, "$ne": exclude}})
	if err != nil {
		logging.Logger.Warnf("Event ID: ACCESS_SET_NOTIFY_FAILED, Description: Could not load users for task %s notification: %v", task.ID.Hex(), err)
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		logging.Logger.Warnf("Event ID: ACCESS_SET_NOTIFY_FAILED, Description: Could not decode users for task %s notification: %v", task.ID.Hex(), err)
		return
	}

	for i := range users {
		s.pushTo(ctx, users[i], payload)
	}
}

// pushTo delivers one push notification, clearing the stored subscription on
// permanent failure.
func (s *TaskService) pushTo(ctx context.Context, user models.User, payload utils.PushPayload) {
	if !user.NotificationPreferences.PushNotifications || user.PushSubscription == nil {
		return
	}
	if delivered := s.Push.Send(user.PushSubscription, payload); !delivered {
		if _, err := s.UsersCollection.UpdateOne(ctx, bson.M{"_id": user.ID},
			bson.M{"$unset": bson.M{"pushSubscription": ""}}); err != nil {
			logging.Logger.Warnf("Event ID: PUSH_SUBSCRIPTION_CLEAR_FAILED, Description: Failed to clear expired subscription for user %s: %v", user.ID.Hex(), err)
		}
	}
}
