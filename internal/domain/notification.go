package domain

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
	NotifyInfo    NotificationKind = "info"
)

// Notification is an ephemeral UI message. Displayed notifications expire on
// their own after a fixed delay unless dismissed first.
type Notification struct {
	ID          string           `json:"id"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	Title       string           `json:"title,omitempty"`
	AutoDismiss bool             `json:"auto_dismiss"`
}
