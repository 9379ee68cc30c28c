package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/models"
	"task-manager/services"
)

const taskContextKey contextKey = "task"

// CheckTaskPermission runs before every route that targets a single task by
// id: it loads the task, rejects with NotFound when absent and Forbidden
// when the acting user is neither creator, assignee, nor shared with, and
// hands the task to the route via context. List and create routes never pass
// through here — creation has no task yet and listing self-filters by the
// same three relations at the query level.
func CheckTaskPermission(taskService *services.TaskService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, models.ErrUnauthenticated.Error(), "Authentication required")
				return
			}

			taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
			if err != nil {
				writeAuthError(w, http.StatusNotFound, models.ErrNotFound.Error(), "Task not found")
				return
			}

			task, err := taskService.Get(r.Context(), taskID)
			if err != nil {
				writeAuthError(w, http.StatusNotFound, models.ErrNotFound.Error(), "Task not found")
				return
			}

			if !task.CanAccess(user.ID) {
				writeAuthError(w, http.StatusForbidden, models.ErrForbidden.Error(), "Access denied")
				return
			}

			ctx := context.WithValue(r.Context(), taskContextKey, task)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TaskFromContext returns the task loaded by the permission middleware.
func TaskFromContext(ctx context.Context) (*models.Task, bool) {
	task, ok := ctx.Value(taskContextKey).(*models.Task)
	return task, ok
}
