package models

import "time"

// Order statuses. Progress is generally forward-only, but staff can force
// corrections (see CanTransition).
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	ServiceFretMaritime = "fret_maritime"
	ServiceFretAerien   = "fret_aerien"
	ServiceDemenagement = "demenagement"
	ServiceDedouanement = "dedouanement"
	ServiceNegoce       = "negoce"
	ServiceColis        = "colis"
)

// OrderNumberPrefix starts every generated order number (DN<year><seq>).
const OrderNumberPrefix = "DN"

type Order struct {
	ID          uint64  `json:"id"`
	OrderNumber string  `json:"order_number"`
	QRCode      *string `json:"qr_code,omitempty"`

	ClientName  string  `json:"client_name"`
	ClientEmail string  `json:"client_email"`
	ClientPhone *string `json:"client_phone,omitempty"`

	RecipientName       string  `json:"recipient_name"`
	RecipientEmail      string  `json:"recipient_email"`
	RecipientPhone      *string `json:"recipient_phone,omitempty"`
	RecipientAddress    *string `json:"recipient_address,omitempty"`
	RecipientCity       *string `json:"recipient_city,omitempty"`
	RecipientPostalCode *string `json:"recipient_postal_code,omitempty"`
	RecipientCountry    *string `json:"recipient_country,omitempty"`

	ServiceType string `json:"service_type"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	Weight *float64 `json:"weight,omitempty"`
	Value  *float64 `json:"value,omitempty"`

	Status            string     `json:"status"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`

	ContainerID   *uint64 `json:"container_id,omitempty"`
	ContainerCode *string `json:"container_code,omitempty"`
	CustomerID    *uint64 `json:"customer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderCreateInput struct {
	ClientName  string  `json:"client_name"`
	ClientEmail string  `json:"client_email"`
	ClientPhone *string `json:"client_phone"`

	RecipientName       *string `json:"recipient_name"`
	RecipientEmail      *string `json:"recipient_email"`
	RecipientPhone      *string `json:"recipient_phone"`
	RecipientAddress    *string `json:"recipient_address"`
	RecipientCity       *string `json:"recipient_city"`
	RecipientPostalCode *string `json:"recipient_postal_code"`
	RecipientCountry    *string `json:"recipient_country"`

	ServiceType string `json:"service_type"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	Weight *float64 `json:"weight"`
	Value  *float64 `json:"value"`

	EstimatedDelivery *time.Time `json:"estimated_delivery"`

	ContainerID *uint64 `json:"container_id"`
	CustomerID  *uint64 `json:"customer_id"`
}

// OrderPatch is a partial update. Nil fields are left untouched.
// ContainerID set to 0 detaches the order from its container.
type OrderPatch struct {
	ClientName  *string `json:"client_name"`
	ClientEmail *string `json:"client_email"`
	ClientPhone *string `json:"client_phone"`

	RecipientName       *string `json:"recipient_name"`
	RecipientEmail      *string `json:"recipient_email"`
	RecipientPhone      *string `json:"recipient_phone"`
	RecipientAddress    *string `json:"recipient_address"`
	RecipientCity       *string `json:"recipient_city"`
	RecipientPostalCode *string `json:"recipient_postal_code"`
	RecipientCountry    *string `json:"recipient_country"`

	ServiceType *string `json:"service_type"`
	Origin      *string `json:"origin"`
	Destination *string `json:"destination"`

	Weight *float64 `json:"weight"`
	Value  *float64 `json:"value"`

	Status            *string    `json:"status"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`

	ContainerID *uint64 `json:"container_id"`

	// Force skips the status transition check (staff correction).
	Force bool `json:"force"`
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidServiceType(s string) bool {
	switch s {
	case ServiceFretMaritime, ServiceFretAerien, ServiceDemenagement,
		ServiceDedouanement, ServiceNegoce, ServiceColis:
		return true
	}
	return false
}

var statusRank = map[string]int{
	OrderStatusPending:    1,
	OrderStatusConfirmed:  2,
	OrderStatusInProgress: 3,
	OrderStatusCompleted:  4,
}

// CanTransition reports whether an order may move from one status to another
// without a force override. Forward moves may skip stages (a pending order can
// jump straight to in_progress); going backward or leaving a terminal state
// needs force.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	if from == OrderStatusCancelled || from == OrderStatusCompleted {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}
