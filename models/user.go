package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationPreferences controls which delivery channels a user receives.
type NotificationPreferences struct {
	TaskReminders      bool `bson:"taskReminders" json:"taskReminders"`
	EmailNotifications bool `bson:"emailNotifications" json:"emailNotifications"`
	PushNotifications  bool `bson:"pushNotifications" json:"pushNotifications"`
}

// DefaultNotificationPreferences matches the registration defaults.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		TaskReminders:      true,
		EmailNotifications: true,
		PushNotifications:  false,
	}
}

// PushSubscriptionKeys are the client keys of a web-push subscription.
type PushSubscriptionKeys struct {
	P256dh string `bson:"p256dh" json:"p256dh"`
	Auth   string `bson:"auth" json:"auth"`
}

// PushSubscription is the browser push subscription payload stored verbatim.
type PushSubscription struct {
	Endpoint string               `bson:"endpoint" json:"endpoint"`
	Keys     PushSubscriptionKeys `bson:"keys" json:"keys"`
}

// CalendarIntegration holds the per-user calendar sync state. Tokens are
// never serialized to API responses.
type CalendarIntegration struct {
	Enabled      bool   `bson:"enabled" json:"enabled"`
	AccessToken  string `bson:"accessToken,omitempty" json:"-"`
	RefreshToken string `bson:"refreshToken,omitempty" json:"-"`
}

// SessionToken is one active login session.
type SessionToken struct {
	Token string `bson:"token" json:"token"`
}

type User struct {
	ID                      primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	Username                string                  `bson:"username" json:"username"`
	Email                   string                  `bson:"email" json:"email"`
	Password                string                  `bson:"password" json:"password,omitempty"`
	FirstName               string                  `bson:"firstName" json:"firstName"`
	LastName                string                  `bson:"lastName" json:"lastName"`
	NotificationPreferences NotificationPreferences `bson:"notificationPreferences" json:"notificationPreferences"`
	PushSubscription        *PushSubscription       `bson:"pushSubscription,omitempty" json:"pushSubscription,omitempty"`
	Timezone                string                  `bson:"timezone" json:"timezone"`
	LastLogin               *time.Time              `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	Tokens                  []SessionToken          `bson:"tokens" json:"tokens,omitempty"`
	ResetPasswordToken      string                  `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpires    *time.Time              `bson:"resetPasswordExpires,omitempty" json:"-"`
	Calendar                CalendarIntegration     `bson:"calendar" json:"calendar"`
	CreatedAt               time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time               `bson:"updatedAt" json:"updatedAt"`
}

// Public strips credentials and session state before the user is written to
// a response body.
func (u User) Public() User {
	u.Password = ""
	u.Tokens = nil
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
	u.Calendar.AccessToken = ""
	u.Calendar.RefreshToken = ""
	return u
}

// HasToken reports whether token is one of the user's active sessions.
func (u User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t.Token == token {
			return true
		}
	}
	return false
}
