package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dnlogistics/freightdesk/internal/broker/messages"
	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id uint64) (*models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
	DeleteOrder(ctx context.Context, id uint64) error
	ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error)
	SearchOrders(ctx context.Context, query string) ([]*models.Order, error)
	FilterOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error)
	FilterOrdersByDateFrom(ctx context.Context, from time.Time) ([]*models.Order, error)
	MaxOrderNumber(ctx context.Context, prefix string) (string, error)
	GetContainer(ctx context.Context, id uint64) (*models.Container, error)
	UpsertCustomerByEmail(ctx context.Context, name, email string, phone *string) (*models.Customer, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	repo     Repository
	producer Publisher
	topic    string
	now      func() time.Time
}

func New(repo Repository, producer Publisher, topic string) *Service {
	return &Service{repo: repo, producer: producer, topic: topic, now: time.Now}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateOrder(ctx context.Context, in models.OrderCreateInput) (*models.Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	qr := NewQRToken()
	o := &models.Order{
		QRCode:      &qr,
		ClientName:  clip(in.ClientName, maxName),
		ClientEmail: clip(in.ClientEmail, maxEmail),
		ClientPhone: clipPtr(in.ClientPhone, maxPhone),

		RecipientPhone:      clipPtr(in.RecipientPhone, maxPhone),
		RecipientAddress:    clipPtr(in.RecipientAddress, maxAddress),
		RecipientCity:       clipPtr(in.RecipientCity, maxCity),
		RecipientPostalCode: clipPtr(in.RecipientPostalCode, maxPostalCode),
		RecipientCountry:    clipPtr(in.RecipientCountry, maxCity),

		ServiceType: in.ServiceType,
		Origin:      clip(in.Origin, maxCity),
		Destination: clip(in.Destination, maxCity),

		Weight: in.Weight,
		Value:  in.Value,

		Status:            models.OrderStatusPending,
		EstimatedDelivery: in.EstimatedDelivery,
		CustomerID:        in.CustomerID,
	}

	// The recipient falls back to the client when not separately supplied.
	o.RecipientName = o.ClientName
	if in.RecipientName != nil && *in.RecipientName != "" {
		o.RecipientName = clip(*in.RecipientName, maxName)
	}
	o.RecipientEmail = o.ClientEmail
	if in.RecipientEmail != nil && *in.RecipientEmail != "" {
		o.RecipientEmail = clip(*in.RecipientEmail, maxEmail)
	}

	if in.ContainerID != nil {
		cont, err := s.repo.GetContainer(ctx, *in.ContainerID)
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewValidationError(fmt.Sprintf("unknown container id: %d", *in.ContainerID))
		}
		if err != nil {
			return nil, err
		}
		o.ContainerID = &cont.ID
		o.ContainerCode = &cont.Code
	}

	if o.CustomerID == nil {
		cust, err := s.repo.UpsertCustomerByEmail(ctx, o.ClientName, o.ClientEmail, o.ClientPhone)
		if err != nil {
			return nil, err
		}
		o.CustomerID = &cust.ID
	}

	o.OrderNumber = s.nextOrderNumber(ctx)
	err := s.repo.CreateOrder(ctx, o)
	if errors.Is(err, models.ErrDuplicateOrderNumber) {
		// Another writer took the number; regenerate once off the fresh max.
		o.OrderNumber = s.nextOrderNumber(ctx)
		err = s.repo.CreateOrder(ctx, o)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) UpdateOrder(ctx context.Context, id uint64, patch models.OrderPatch) (*models.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var problems []string

	// Fields required at creation cannot be patched to empty.
	var cleared []string
	if patch.ClientName != nil && strings.TrimSpace(*patch.ClientName) == "" {
		cleared = append(cleared, "client_name")
	}
	if patch.Origin != nil && strings.TrimSpace(*patch.Origin) == "" {
		cleared = append(cleared, "origin")
	}
	if patch.Destination != nil && strings.TrimSpace(*patch.Destination) == "" {
		cleared = append(cleared, "destination")
	}
	if len(cleared) > 0 {
		problems = append(problems, "cannot clear required fields: "+strings.Join(cleared, ", "))
	}

	if patch.ClientEmail != nil && !emailShaped(*patch.ClientEmail) {
		problems = append(problems, "client_email must be a valid email address")
	}
	if patch.RecipientEmail != nil && !emailShaped(*patch.RecipientEmail) {
		problems = append(problems, "recipient_email must be a valid email address")
	}
	if patch.ServiceType != nil && !models.ValidServiceType(*patch.ServiceType) {
		problems = append(problems, "invalid service_type: "+*patch.ServiceType)
	}
	if patch.Status != nil && !models.ValidOrderStatus(*patch.Status) {
		problems = append(problems, "invalid status: "+*patch.Status)
	}
	if len(problems) > 0 {
		return nil, &models.ValidationError{Problems: problems}
	}

	oldStatus := o.Status
	if patch.Status != nil && *patch.Status != o.Status {
		if !patch.Force && !models.CanTransition(o.Status, *patch.Status) {
			return nil, models.NewValidationError(
				fmt.Sprintf("status cannot move from %s to %s without force", o.Status, *patch.Status))
		}
		o.Status = *patch.Status
	}

	applyText(&o.ClientName, patch.ClientName, maxName)
	applyText(&o.ClientEmail, patch.ClientEmail, maxEmail)
	applyTextPtr(&o.ClientPhone, patch.ClientPhone, maxPhone)
	applyText(&o.RecipientName, patch.RecipientName, maxName)
	applyText(&o.RecipientEmail, patch.RecipientEmail, maxEmail)
	applyTextPtr(&o.RecipientPhone, patch.RecipientPhone, maxPhone)
	applyTextPtr(&o.RecipientAddress, patch.RecipientAddress, maxAddress)
	applyTextPtr(&o.RecipientCity, patch.RecipientCity, maxCity)
	applyTextPtr(&o.RecipientPostalCode, patch.RecipientPostalCode, maxPostalCode)
	applyTextPtr(&o.RecipientCountry, patch.RecipientCountry, maxCity)
	applyText(&o.Origin, patch.Origin, maxCity)
	applyText(&o.Destination, patch.Destination, maxCity)
	if patch.ServiceType != nil {
		o.ServiceType = *patch.ServiceType
	}
	if patch.Weight != nil {
		o.Weight = patch.Weight
	}
	if patch.Value != nil {
		o.Value = patch.Value
	}
	if patch.EstimatedDelivery != nil {
		o.EstimatedDelivery = patch.EstimatedDelivery
	}

	if patch.ContainerID != nil {
		if *patch.ContainerID == 0 {
			o.ContainerID = nil
			o.ContainerCode = nil
		} else {
			cont, err := s.repo.GetContainer(ctx, *patch.ContainerID)
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError(fmt.Sprintf("unknown container id: %d", *patch.ContainerID))
			}
			if err != nil {
				return nil, err
			}
			o.ContainerID = &cont.ID
			o.ContainerCode = &cont.Code
		}
	}

	if err := s.repo.UpdateOrder(ctx, o); err != nil {
		return nil, err
	}

	if o.Status != oldStatus {
		s.publishStatusChange(ctx, o, oldStatus)
	}
	return o, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id uint64) error {
	return s.repo.DeleteOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	return s.repo.ListOrders(ctx, limit, offset)
}

func (s *Service) SearchOrders(ctx context.Context, query string) ([]*models.Order, error) {
	return s.repo.SearchOrders(ctx, clip(query, maxSearch))
}

func (s *Service) FilterByStatus(ctx context.Context, status string) ([]*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, models.NewValidationError("invalid status: " + status)
	}
	return s.repo.FilterOrdersByStatus(ctx, status)
}

func (s *Service) FilterByDateFrom(ctx context.Context, from time.Time) ([]*models.Order, error) {
	return s.repo.FilterOrdersByDateFrom(ctx, from)
}

// publishStatusChange hands the change to the notification topic. Failures are
// logged and swallowed: the order write already succeeded and must stay that
// way for the caller.
func (s *Service) publishStatusChange(ctx context.Context, o *models.Order, oldStatus string) {
	if s.producer == nil {
		return
	}
	msg := messages.OrderStatusChanged{
		Kind:        messages.KindOrderStatus,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OldStatus:   oldStatus,
		NewStatus:   o.Status,
		OccurredAt:  s.now().UTC(),
	}
	b, _ := json.Marshal(msg)
	if err := s.producer.Publish(ctx, s.topic, []byte(o.OrderNumber), b); err != nil {
		slog.Error("publish order status change failed", "order_id", o.ID, "err", err)
	}
}
