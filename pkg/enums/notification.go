package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeProductSold     NotificationType = "product_sold"
	NotificationTypeLowStock        NotificationType = "low_stock"
	NotificationTypePaymentReceived NotificationType = "payment_received"
	NotificationTypeHubArrival      NotificationType = "hub_arrival"
	NotificationTypeBulkAccepted    NotificationType = "bulk_accepted"
	NotificationTypeBulkRejected    NotificationType = "bulk_rejected"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeProductSold,
	NotificationTypeLowStock,
	NotificationTypePaymentReceived,
	NotificationTypeHubArrival,
	NotificationTypeBulkAccepted,
	NotificationTypeBulkRejected,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationPriority orders in-app notifications for display.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

var validNotificationPriorities = []NotificationPriority{
	NotificationPriorityLow,
	NotificationPriorityNormal,
	NotificationPriorityHigh,
}

// IsValid checks whether the given priority matches the canonical enum.
func (p NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseNotificationPriority converts raw strings into NotificationPriority.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}
