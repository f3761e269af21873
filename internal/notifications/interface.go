package notifications

import "github.com/aegis-sec/aegis-analyzer/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendAlert(alert *models.Alert) error
}
