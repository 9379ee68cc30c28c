package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/middleware"
	"task-manager/models"
	"task-manager/services"
)

type TaskHandler struct {
	TaskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{TaskService: taskService}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var input services.TaskCreateInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.TaskService.Create(r.Context(), user, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	query := r.URL.Query()

	filter := services.TaskFilter{
		Status:   query.Get("status"),
		Priority: query.Get("priority"),
		Category: query.Get("category"),
		SortBy:   query.Get("sortBy"),
	}
	if raw := query.Get("dueDate"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, errValidationf("dueDate must be YYYY-MM-DD"))
			return
		}
		filter.DueDate = &day
	}
	if raw := query.Get("skip"); raw != "" {
		skip, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || skip < 0 {
			writeError(w, errValidationf("skip must be a non-negative integer"))
			return
		}
		filter.Skip = skip
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			writeError(w, errValidationf("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	tasks, err := h.TaskService.List(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, _ := middleware.TaskFromContext(r.Context())
	writeJSON(w, http.StatusOK, task)
}

var taskAllowedUpdates = []string{
	"title", "description", "status", "priority", "category",
	"dueDate", "assignedTo", "sharedWith", "tags", "progress", "recurring",
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	task, _ := middleware.TaskFromContext(r.Context())

	var update services.TaskUpdate
	present, err := decodePatch(r, taskAllowedUpdates, &update)
	if err != nil {
		writeError(w, err)
		return
	}
	update.Present = present

	updated, err := h.TaskService.Update(r.Context(), task, user, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	task, _ := middleware.TaskFromContext(r.Context())

	if err := h.TaskService.Delete(r.Context(), task, user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	task, _ := middleware.TaskFromContext(r.Context())

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.TaskService.AddComment(r.Context(), task, user, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *TaskHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	task, _ := middleware.TaskFromContext(r.Context())

	commentID, err := primitive.ObjectIDFromHex(mux.Vars(r)["commentId"])
	if err != nil {
		writeError(w, errNotFoundf("comment not found"))
		return
	}

	if err := h.TaskService.RemoveComment(r.Context(), task, user, commentID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted"})
}

func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	task, _ := middleware.TaskFromContext(r.Context())

	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	subtask, err := h.TaskService.AddSubtask(r.Context(), task, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, subtask)
}

func (h *TaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	task, _ := middleware.TaskFromContext(r.Context())

	subtaskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["subtaskId"])
	if err != nil {
		writeError(w, errNotFoundf("subtask not found"))
		return
	}

	var update services.SubtaskUpdate
	if err := decodeBody(r, &update); err != nil {
		writeError(w, err)
		return
	}

	subtask, err := h.TaskService.UpdateSubtask(r.Context(), task, subtaskID, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, subtask)
}

func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	task, _ := middleware.TaskFromContext(r.Context())

	subtaskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["subtaskId"])
	if err != nil {
		writeError(w, errNotFoundf("subtask not found"))
		return
	}

	if err := h.TaskService.RemoveSubtask(r.Context(), task, subtaskID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Subtask deleted"})
}

func errValidationf(message string) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, message)
}

func errNotFoundf(message string) error {
	return fmt.Errorf("%w: %s", models.ErrNotFound, message)
}
