package model

import "time"

// NotificationType is the severity of a transient message.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
)

// DefaultNotificationDuration applies when a caller passes no duration.
const DefaultNotificationDuration = 5 * time.Second

// Notification is an ephemeral message. A Duration <= 0 keeps it until it is
// dismissed explicitly.
type Notification struct {
	ID       string
	Type     NotificationType
	Message  string
	Duration time.Duration
	Actions  []NotificationAction
}

// NotificationAction is a button attached to a notification.
type NotificationAction struct {
	Label  string
	Action func()
}
