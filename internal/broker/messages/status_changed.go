package messages

import "time"

// Notification kinds carried on the order.status_changed topic.
const (
	KindOrderStatus     = "order_status"
	KindContainerStatus = "container_status"
)

// OrderStatusChanged is published whenever an order's status actually moved,
// either from a tracking event, a manual dashboard edit, or a container-wide
// broadcast. The notify-worker turns it into a client email.
type OrderStatusChanged struct {
	Kind string `json:"kind"`

	OrderID     uint64 `json:"order_id"`
	OrderNumber string `json:"order_number"`

	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status"`

	// Set for container_status notifications.
	ContainerCode   string `json:"container_code,omitempty"`
	ContainerStatus string `json:"container_status,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}
