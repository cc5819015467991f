// internal/domain/models/notification.go
package models

// Notification function identifiers understood by the delivery layer.
const (
	FunctionEmailNotifications = "emailNotifications"
)

// NotificationMetadata records who initiated the action that produced the
// notification and the request it belongs to.
type NotificationMetadata struct {
	Initiator string `json:"initiator"`
	ReqID     string `json:"reqId"`
}

// NotificationPayload is the email to deliver.
type NotificationPayload struct {
	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	Content string   `json:"content"`
}

// Notification is a descriptor for out-of-band delivery. Sagas return one on
// success instead of sending email inline; the caller hands it to a Notifier.
type Notification struct {
	Function string               `json:"function"`
	Metadata NotificationMetadata `json:"metadata"`
	Payload  NotificationPayload  `json:"payload"`
}
