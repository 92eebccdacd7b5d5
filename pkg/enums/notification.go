package enums

import "fmt"

// NotificationKind classifies a user-facing notification.
type NotificationKind string

const (
	NotificationKindInfo    NotificationKind = "info"
	NotificationKindSuccess NotificationKind = "success"
	NotificationKindWarning NotificationKind = "warning"
	NotificationKindError   NotificationKind = "error"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindInfo,
	NotificationKindSuccess,
	NotificationKindWarning,
	NotificationKindError,
}

// String implements fmt.Stringer.
func (v NotificationKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known NotificationKind.
func (v NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification %q", value)
}
