package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/handlers"
	"task-manager/logging"
	"task-manager/middleware"
	"task-manager/nlp"
	"task-manager/realtime"
	"task-manager/services"
	"task-manager/utils"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "task_manager"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	usersCollection := db.Collection("users")
	tasksCollection := db.Collection("tasks")

	jwtService := services.NewJWTService()
	userService := services.NewUserService(usersCollection, jwtService)
	pushService := utils.NewPushService()
	calendarService := utils.NewCalendarService(usersCollection)
	inference := nlp.NewService()
	hub := realtime.NewHub()

	reminderService := services.NewReminderService(usersCollection, pushService)
	if err := reminderService.Start(); err != nil {
		logging.Logger.Fatalf("Event ID: REMINDER_START_FAILED, Description: Could not start reminder scheduler: %v", err)
	}

	taskService := services.NewTaskService(tasksCollection, usersCollection, inference, reminderService, calendarService, pushService, hub)
	statsService := services.NewStatsService(tasksCollection)

	authHandler := handlers.NewAuthHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService, taskService, statsService, calendarService)

	authenticate := middleware.JWTAuthMiddleware(jwtService, userService)
	checkTask := middleware.CheckTaskPermission(taskService)

	r := mux.NewRouter()

	// Public routes.
	r.HandleFunc("/api/users/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/users/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/users/forgot-password", authHandler.RequestPasswordReset).Methods(http.MethodPost)
	r.HandleFunc("/api/users/reset-password/{token}", authHandler.ResetPassword).Methods(http.MethodPost)

	// Authenticated user routes.
	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(authenticate)
	authed.HandleFunc("/users/me", authHandler.Me).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", authHandler.UpdateMe).Methods(http.MethodPatch)
	authed.HandleFunc("/users/logout", authHandler.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/users/logout-all", authHandler.LogoutAll).Methods(http.MethodPost)
	authed.HandleFunc("/users/change-password", authHandler.ChangePassword).Methods(http.MethodPost)
	authed.HandleFunc("/users/notifications", userHandler.UpdateNotifications).Methods(http.MethodPatch)
	authed.HandleFunc("/users/push-subscription", userHandler.SetPushSubscription).Methods(http.MethodPost)
	authed.HandleFunc("/users/search", userHandler.Search).Methods(http.MethodGet)
	authed.HandleFunc("/users/statistics", userHandler.Stats).Methods(http.MethodGet)
	authed.HandleFunc("/users/weekly-summary", userHandler.WeeklySummary).Methods(http.MethodPost)
	authed.HandleFunc("/users/calendar/auth-url", userHandler.CalendarAuthURL).Methods(http.MethodGet)
	authed.HandleFunc("/users/calendar/connect", userHandler.CalendarConnect).Methods(http.MethodPost)

	authed.HandleFunc("/tasks", taskHandler.Create).Methods(http.MethodPost)
	authed.HandleFunc("/tasks", taskHandler.List).Methods(http.MethodGet)

	// Routes that target one task run the per-task permission check.
	taskRoutes := authed.PathPrefix("/tasks/{id}").Subrouter()
	taskRoutes.Use(checkTask)
	taskRoutes.HandleFunc("", taskHandler.Get).Methods(http.MethodGet)
	taskRoutes.HandleFunc("", taskHandler.Update).Methods(http.MethodPatch)
	taskRoutes.HandleFunc("", taskHandler.Delete).Methods(http.MethodDelete)
	taskRoutes.HandleFunc("/comments", taskHandler.AddComment).Methods(http.MethodPost)
	taskRoutes.HandleFunc("/comments/{commentId}", taskHandler.DeleteComment).Methods(http.MethodDelete)
	taskRoutes.HandleFunc("/subtasks", taskHandler.AddSubtask).Methods(http.MethodPost)
	taskRoutes.HandleFunc("/subtasks/{subtaskId}", taskHandler.UpdateSubtask).Methods(http.MethodPatch)
	taskRoutes.HandleFunc("/subtasks/{subtaskId}", taskHandler.DeleteSubtask).Methods(http.MethodDelete)

	r.Handle("/ws", authenticate(http.HandlerFunc(hub.HandleWS)))

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      enableCORS(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logging.Logger.Infof("Event ID: SERVER_START, Description: Server running on port %s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Logger.Fatalf("Event ID: SERVER_FAILED, Description: Server failed to start: %v", err)
	}
}
