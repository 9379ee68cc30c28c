package handlers

import (
	"net/http"

	"task-manager/logging"
	"task-manager/middleware"
	"task-manager/models"
	"task-manager/services"
	"task-manager/utils"
)

type UserHandler struct {
	UserService     *services.UserService
	TaskService     *services.TaskService
	StatsService    *services.StatsService
	CalendarService *utils.CalendarService
}

func NewUserHandler(userService *services.UserService, taskService *services.TaskService, statsService *services.StatsService, calendarService *utils.CalendarService) *UserHandler {
	return &UserHandler{
		UserService:     userService,
		TaskService:     taskService,
		StatsService:    statsService,
		CalendarService: calendarService,
	}
}

var preferencesAllowedUpdates = []string{
	"taskReminders", "emailNotifications", "pushNotifications",
}

func (h *UserHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var update services.PreferencesUpdate
	if _, err := decodePatch(r, preferencesAllowedUpdates, &update); err != nil {
		writeError(w, err)
		return
	}

	if err := h.UserService.UpdateNotificationPreferences(r.Context(), &user, update); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.NotificationPreferences)
}

func (h *UserHandler) SetPushSubscription(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var sub models.PushSubscription
	if err := decodeBody(r, &sub); err != nil {
		writeError(w, err)
		return
	}
	if sub.Endpoint == "" {
		writeError(w, errValidationf("subscription endpoint is required"))
		return
	}

	if err := h.UserService.SetPushSubscription(r.Context(), user.ID, sub); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Push subscription saved"})
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	term := r.URL.Query().Get("q")
	if term == "" {
		writeError(w, errValidationf("search term is required"))
		return
	}

	users, err := h.UserService.Search(r.Context(), user.ID, term)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]models.User, 0, len(users))
	for _, u := range users {
		results = append(results, u.Public())
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	stats, err := h.StatsService.ForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	tasks, err := h.TaskService.AllForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := utils.SendWeeklySummary(user, tasks); err != nil {
		logging.Logger.Warnf("Event ID: WEEKLY_SUMMARY_SEND_FAILED, Description: Could not send weekly summary to %s: %v", user.Email, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Weekly summary sent"})
}

func (h *UserHandler) CalendarAuthURL(w http.ResponseWriter, r *http.Request) {
	url := h.CalendarService.AuthURL()
	if url == "" {
		writeError(w, errValidationf("calendar integration is not configured"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *UserHandler) CalendarConnect(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Code == "" {
		writeError(w, errValidationf("authorization code is required"))
		return
	}

	if err := h.CalendarService.Connect(r.Context(), &user, req.Code); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Calendar connected"})
}
