package utils

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sony/gobreaker"

	"task-manager/logging"
	"task-manager/models"
)

// PushPayload is the notification body delivered to the browser.
type PushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon"`
	Data  map[string]string `json:"data,omitempty"`
}

// PushService sends web-push notifications. It is disabled (all sends report
// delivered) when VAPID keys are not configured.
type PushService struct {
	enabled      bool
	subscriber   string
	vapidPublic  string
	vapidPrivate string
	breaker      *gobreaker.CircuitBreaker
}

func NewPushService() *PushService {
	public := os.Getenv("VAPID_PUBLIC_KEY")
	private := os.Getenv("VAPID_PRIVATE_KEY")
	enabled := public != "" && private != ""
	if enabled {
		logging.Logger.Info("Event ID: PUSH_CONFIGURED, Description: Web push notifications configured")
	} else {
		logging.Logger.Info("Event ID: PUSH_DISABLED, Description: Web push notifications disabled, VAPID keys not configured")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "push-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	return &PushService{
		enabled:      enabled,
		subscriber:   "mailto:" + os.Getenv("SMTP_USER"),
		vapidPublic:  public,
		vapidPrivate: private,
		breaker:      breaker,
	}
}

// Send delivers payload to the subscription. The returned bool reports
// whether the subscription is still valid: false only on permanent
// invalidity (endpoint gone), in which case the caller should clear the
// stored subscription. Transient failures are logged and swallowed.
func (p *PushService) Send(sub *models.PushSubscription, payload PushPayload) bool {
	if !p.enabled || sub == nil {
		return true
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logging.Logger.Warnf("Event ID: PUSH_MARSHAL_FAILED, Description: Failed to encode push payload: %v", err)
		return true
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		resp, err := webpush.SendNotification(body, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.Keys.P256dh,
				Auth:   sub.Keys.Auth,
			},
		}, &webpush.Options{
			Subscriber:      p.subscriber,
			VAPIDPublicKey:  p.vapidPublic,
			VAPIDPrivateKey: p.vapidPrivate,
			TTL:             60,
		})
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return resp.StatusCode, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: PUSH_SEND_FAILED, Description: Failed to send push notification: %v", err)
		return true
	}

	status := result.(int)
	if status == http.StatusGone || status == http.StatusNotFound {
		logging.Logger.Infof("Event ID: PUSH_SUBSCRIPTION_EXPIRED, Description: Push subscription no longer valid (status %d)", status)
		return false
	}

	return true
}
