package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"task-manager/logging"
	"task-manager/models"
)

// CalendarService keeps at most one calendar event per task in the user's
// primary calendar. All failures are logged and degraded, never surfaced to
// the request that triggered the sync. On an expired access token it
// refreshes and retries exactly once, then disables the integration for the
// user if the retry also fails.
type CalendarService struct {
	config  *oauth2.Config
	users   *mongo.Collection
	breaker *gobreaker.CircuitBreaker
	enabled bool
}

func NewCalendarService(users *mongo.Collection) *CalendarService {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	enabled := clientID != "" && clientSecret != ""
	if !enabled {
		logging.Logger.Info("Event ID: CALENDAR_DISABLED, Description: Calendar sync disabled, Google OAuth client not configured")
	}

	return &CalendarService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URI"),
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		users: users,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "calendar-cb",
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
			},
		}),
		enabled: enabled,
	}
}

// AuthURL returns the consent URL the client opens to connect a calendar.
func (c *CalendarService) AuthURL() string {
	if !c.enabled {
		return ""
	}
	return c.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// Connect exchanges an authorization code and stores the integration tokens.
func (c *CalendarService) Connect(ctx context.Context, user *models.User, code string) error {
	if !c.enabled {
		return fmt.Errorf("%w: calendar integration is not configured", models.ErrValidation)
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: invalid authorization code", models.ErrValidation)
	}

	user.Calendar = models.CalendarIntegration{
		Enabled:      true,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	_, err = c.users.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"calendar": user.Calendar, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to store calendar integration: %v", err)
	}
	return nil
}

// SyncTask creates or updates the task's calendar event and returns the
// event ID, or "" when nothing was synced. A task whose due date was removed
// has its event deleted.
func (c *CalendarService) SyncTask(ctx context.Context, task *models.Task, user *models.User) string {
	if !c.enabled || !user.Calendar.Enabled {
		return task.CalendarEventID
	}

	if task.DueDate == nil {
		if task.CalendarEventID != "" {
			c.RemoveTask(ctx, task, user)
		}
		return ""
	}

	event := c.buildEvent(task, user)

	eventID, err := c.withRetry(ctx, user, func(srv *calendar.Service) (string, error) {
		if task.CalendarEventID != "" {
			updated, err := srv.Events.Update("primary", task.CalendarEventID, event).Context(ctx).Do()
			if err != nil {
				return "", err
			}
			return updated.Id, nil
		}
		created, err := srv.Events.Insert("primary", event).Context(ctx).Do()
		if err != nil {
			return "", err
		}
		return created.Id, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: CALENDAR_SYNC_FAILED, Description: Failed to sync task %s to calendar: %v", task.ID.Hex(), err)
		return task.CalendarEventID
	}

	return eventID
}

// RemoveTask deletes the task's calendar event, if any.
func (c *CalendarService) RemoveTask(ctx context.Context, task *models.Task, user *models.User) {
	if !c.enabled || !user.Calendar.Enabled || task.CalendarEventID == "" {
		return
	}

	_, err := c.withRetry(ctx, user, func(srv *calendar.Service) (string, error) {
		return "", srv.Events.Delete("primary", task.CalendarEventID).Context(ctx).Do()
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: CALENDAR_REMOVE_FAILED, Description: Failed to remove calendar event for task %s: %v", task.ID.Hex(), err)
	}
}

// withRetry runs call with the stored access token; on an auth failure it
// refreshes the token, persists it, and retries once. A failed refresh or
// failed retry disables the integration.
func (c *CalendarService) withRetry(ctx context.Context, user *models.User, call func(*calendar.Service) (string, error)) (string, error) {
	result, err := c.execute(ctx, user.Calendar.AccessToken, call)
	if !isAuthError(err) {
		return result, err
	}

	token, refreshErr := c.config.TokenSource(ctx, &oauth2.Token{
		RefreshToken: user.Calendar.RefreshToken,
	}).Token()
	if refreshErr != nil {
		c.disable(ctx, user)
		return "", fmt.Errorf("token refresh failed: %v", refreshErr)
	}

	user.Calendar.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.Calendar.RefreshToken = token.RefreshToken
	}
	if _, err := c.users.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"calendar": user.Calendar}}); err != nil {
		logging.Logger.Warnf("Event ID: CALENDAR_TOKEN_PERSIST_FAILED, Description: Failed to persist refreshed token: %v", err)
	}

	result, err = c.execute(ctx, user.Calendar.AccessToken, call)
	if err != nil {
		c.disable(ctx, user)
	}
	return result, err
}

func (c *CalendarService) execute(ctx context.Context, accessToken string, call func(*calendar.Service) (string, error)) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		srv, err := calendar.NewService(ctx, option.WithTokenSource(
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})))
		if err != nil {
			return "", err
		}
		return call(srv)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *CalendarService) disable(ctx context.Context, user *models.User) {
	user.Calendar.Enabled = false
	if _, err := c.users.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"calendar.enabled": false}}); err != nil {
		logging.Logger.Warnf("Event ID: CALENDAR_DISABLE_FAILED, Description: Failed to disable calendar integration for user %s: %v", user.ID.Hex(), err)
	}
	logging.Logger.Infof("Event ID: CALENDAR_INTEGRATION_DISABLED, Description: Calendar integration disabled for user %s after repeated auth failures", user.ID.Hex())
}

func (c *CalendarService) buildEvent(task *models.Task, user *models.User) *calendar.Event {
	start := *task.DueDate
	end := start.Add(time.Hour)

	category := task.Category
	if category == "" {
		category = "Uncategorized"
	}

	return &calendar.Event{
		Summary: task.Title,
		Description: fmt.Sprintf("%s\n\nPriority: %s\nCategory: %s\n\nView task: %s/tasks/%s",
			task.Description, task.Priority, category, os.Getenv("APP_URL"), task.ID.Hex()),
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: user.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: user.Timezone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ColorId: colorIDForPriority(task.Priority),
	}
}

func colorIDForPriority(priority models.TaskPriority) string {
	switch priority {
	case models.PriorityHigh:
		return "4" // red
	case models.PriorityMedium:
		return "6" // orange
	case models.PriorityLow:
		return "2" // green
	default:
		return "1" // blue
	}
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401
	}
	return false
}
