package fanout

import "time"

const (
	EventNotification = "notification"
	EventSystemAlert  = "system_alert"

	channelPrefix = "user_"
)

// Event is a named payload pushed to a session.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

// Alert is the payload of a system_alert broadcast.
type Alert struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// ChannelName returns the channel a user's sessions are bound to.
func ChannelName(userID string) string {
	return channelPrefix + userID
}
