package enums

// NotificationKind labels dashboard notification entries.
type NotificationKind string

const (
	NotificationKindApplicationSubmitted NotificationKind = "application-submitted"
	NotificationKindLowStock             NotificationKind = "low-stock"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindApplicationSubmitted,
	NotificationKindLowStock,
}

func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}
