package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/utils"
)

type UserService struct {
	UserCollection *mongo.Collection
	JWTService     *JWTService
	validate       *validator.Validate
}

func NewUserService(userCollection *mongo.Collection, jwtService *JWTService) *UserService {
	return &UserService{
		UserCollection: userCollection,
		JWTService:     jwtService,
		validate:       validator.New(),
	}
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// Register creates a user, issues the first session token, and sends a
// welcome email best-effort.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (models.User, string, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.User{}, "", fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	count, err := s.UserCollection.CountDocuments(ctx, bson.M{
		"$or": []bson.M{{"email": req.Email}, {"username": req.Username}},
	})
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to check existing users: %v", err)
	}
	if count > 0 {
		return models.User{}, "", fmt.Errorf("%w: user already exists with this email or username", models.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := models.User{
		ID:                      primitive.NewObjectID(),
		Username:                req.Username,
		Email:                   req.Email,
		Password:                string(hashed),
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		NotificationPreferences: models.DefaultNotificationPreferences(),
		Timezone:                "UTC",
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	token, err := s.JWTService.GenerateAuthToken(user.ID.Hex())
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to generate token: %v", err)
	}
	user.Tokens = []models.SessionToken{{Token: token}}

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, "", fmt.Errorf("%w: user already exists with this email or username", models.ErrConflict)
		}
		return models.User{}, "", fmt.Errorf("failed to save user: %v", err)
	}

	if err := utils.SendWelcomeEmail(user); err != nil {
		logging.Logger.Warnf("Event ID: WELCOME_EMAIL_FAILED, Description: Failed to send welcome email to %s: %v", user.Email, err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: New user registered: %s", user.Username)
	return user, token, nil
}

// Login verifies credentials, appends a new session token, and stamps the
// last login time.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return models.User{}, "", fmt.Errorf("%w: invalid login credentials", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, "", fmt.Errorf("%w: invalid login credentials", models.ErrUnauthenticated)
	}

	token, err := s.JWTService.GenerateAuthToken(user.ID.Hex())
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to generate token: %v", err)
	}

	now := time.Now()
	_, err = s.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$push": bson.M{"tokens": models.SessionToken{Token: token}},
		"$set":  bson.M{"lastLogin": now, "updatedAt": now},
	})
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to store session: %v", err)
	}

	user.Tokens = append(user.Tokens, models.SessionToken{Token: token})
	user.LastLogin = &now
	return user, token, nil
}

// Logout removes a single session token.
func (s *UserService) Logout(ctx context.Context, userID primitive.ObjectID, token string) error {
	_, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"tokens": bson.M{"token": token}}})
	if err != nil {
		return fmt.Errorf("failed to log out: %v", err)
	}
	return nil
}

// LogoutAll removes every session token.
func (s *UserService) LogoutAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"tokens": []models.SessionToken{}}})
	if err != nil {
		return fmt.Errorf("failed to log out all sessions: %v", err)
	}
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return models.User{}, fmt.Errorf("%w: user not found", models.ErrNotFound)
	}
	return user, nil
}

// ProfileUpdate carries the patchable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FirstName               *string                         `json:"firstName"`
	LastName                *string                         `json:"lastName"`
	Email                   *string                         `json:"email"`
	Password                *string                         `json:"password"`
	NotificationPreferences *models.NotificationPreferences `json:"notificationPreferences"`
	Timezone                *string                         `json:"timezone"`
}

// UpdateProfile applies a validated profile patch. Password changes are
// re-hashed before persisting.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, update ProfileUpdate) error {
	set := bson.M{"updatedAt": time.Now()}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
		set["firstName"] = user.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
		set["lastName"] = user.LastName
	}
	if update.Email != nil {
		if err := s.validate.Var(*update.Email, "required,email"); err != nil {
			return fmt.Errorf("%w: invalid email address", models.ErrValidation)
		}
		count, err := s.UserCollection.CountDocuments(ctx, bson.M{
			"email": *update.Email, "_id": bson.M{"$ne": user.ID},
		})
		if err != nil {
			return fmt.Errorf("failed to check email uniqueness: %v", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: email already in use", models.ErrConflict)
		}
		user.Email = *update.Email
		set["email"] = user.Email
	}
	if update.Password != nil {
		if len(*update.Password) < 6 {
			return fmt.Errorf("%w: password must be at least 6 characters", models.ErrValidation)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %v", err)
		}
		user.Password = string(hashed)
		set["password"] = user.Password
	}
	if update.NotificationPreferences != nil {
		user.NotificationPreferences = *update.NotificationPreferences
		set["notificationPreferences"] = user.NotificationPreferences
	}
	if update.Timezone != nil {
		user.Timezone = *update.Timezone
		set["timezone"] = user.Timezone
	}

	if _, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to update profile: %v", err)
	}
	return nil
}

// PreferencesUpdate merges into the stored preference set; nil fields keep
// their current value.
type PreferencesUpdate struct {
	TaskReminders      *bool `json:"taskReminders"`
	EmailNotifications *bool `json:"emailNotifications"`
	PushNotifications  *bool `json:"pushNotifications"`
}

func (s *UserService) UpdateNotificationPreferences(ctx context.Context, user *models.User, update PreferencesUpdate) error {
	if update.TaskReminders != nil {
		user.NotificationPreferences.TaskReminders = *update.TaskReminders
	}
	if update.EmailNotifications != nil {
		user.NotificationPreferences.EmailNotifications = *update.EmailNotifications
	}
	if update.PushNotifications != nil {
		user.NotificationPreferences.PushNotifications = *update.PushNotifications
	}

	_, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"notificationPreferences": user.NotificationPreferences,
		"updatedAt":               time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to update notification preferences: %v", err)
	}
	return nil
}

// SetPushSubscription stores the browser push subscription payload.
func (s *UserService) SetPushSubscription(ctx context.Context, userID primitive.ObjectID, sub models.PushSubscription) error {
	if sub.Endpoint == "" {
		return fmt.Errorf("%w: push subscription endpoint is required", models.ErrValidation)
	}
	_, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"pushSubscription": sub,
		"updatedAt":        time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to store push subscription: %v", err)
	}
	return nil
}

// RequestPasswordReset stores a one-hour reset token and emails it.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return fmt.Errorf("%w: user not found", models.ErrNotFound)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate reset token: %v", err)
	}
	token := hex.EncodeToString(buf)
	expires := time.Now().Add(time.Hour)

	_, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": expires,
	}})
	if err != nil {
		return fmt.Errorf("failed to store reset token: %v", err)
	}

	if err := utils.SendPasswordResetEmail(user, token); err != nil {
		return fmt.Errorf("failed to send password reset email: %v", err)
	}
	return nil
}

// ResetPassword consumes a valid, unexpired reset token.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", models.ErrValidation)
	}

	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gt": time.Now()},
	}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: password reset token is invalid or has expired", models.ErrValidation)
		}
		return fmt.Errorf("failed to look up reset token: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	_, err = s.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set":   bson.M{"password": string(hashed), "updatedAt": time.Now()},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	})
	if err != nil {
		return fmt.Errorf("failed to reset password: %v", err)
	}
	return nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", models.ErrValidation)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", models.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = string(hashed)

	_, err = s.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"password": user.Password, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to change password: %v", err)
	}
	return nil
}

// Search finds up to 10 users matching term by username, email, or name,
// excluding the searching user. Only public identity fields are returned.
func (s *UserService) Search(ctx context.Context, selfID primitive.ObjectID, term string) ([]models.User, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term required", models.ErrValidation)
	}

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	filter := bson.M{
		"$and": []bson.M{
			{"$or": []bson.M{
				{"username": pattern},
				{"email": pattern},
				{"firstName": pattern},
				{"lastName": pattern},
			}},
			{"_id": bson.M{"$ne": selfID}},
		},
	}

	opts := options.Find().
		SetProjection(bson.M{"username": 1, "email": 1, "firstName": 1, "lastName": 1}).
		SetLimit(10)

	cursor, err := s.UserCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}
