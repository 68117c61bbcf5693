package enums

import "fmt"

// NotificationKind maps to the notification_kind enum in Postgres.
type NotificationKind string

const (
	NotificationKindWelcome       NotificationKind = "welcome"
	NotificationKindOvertaken     NotificationKind = "overtaken"
	NotificationKindPasswordReset NotificationKind = "password_reset"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindWelcome,
	NotificationKindOvertaken,
	NotificationKindPasswordReset,
}

// IsValid checks whether the given kind matches the canonical enum.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw strings into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
