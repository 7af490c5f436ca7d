package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dnlogistics/freightdesk/internal/broker/messages"
	"github.com/dnlogistics/freightdesk/internal/models"
)

type Repository interface {
	GetOrder(ctx context.Context, id uint64) (*models.Order, error)
	AppendTrackingEvent(ctx context.Context, ev *models.TrackingEvent) (prevStatus string, err error)
	ListTrackingEvents(ctx context.Context, orderID uint64, limit, offset int) ([]*models.TrackingEvent, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Service is the append-only tracking ledger. Appending an event moves the
// parent order to the event's status and, when the status actually changed,
// hands a notification off to the broker.
type Service struct {
	repo     Repository
	producer Publisher
	topic    string
	now      func() time.Time
}

func New(repo Repository, producer Publisher, topic string) *Service {
	return &Service{repo: repo, producer: producer, topic: topic, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

const (
	maxLocation    = 200
	maxDescription = 500
	maxOperator    = 100
)

func (s *Service) AppendEvent(ctx context.Context, orderID uint64, in models.TrackingEventInput) (*models.TrackingEvent, error) {
	status := strings.TrimSpace(in.Status)
	if status == "" {
		return nil, models.NewValidationError("Missing required fields: status")
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Event statuses are free-form, but when both sides are known order
	// statuses the transition table applies unless the operator forces it.
	if models.ValidOrderStatus(status) && models.ValidOrderStatus(o.Status) &&
		!in.Force && !models.CanTransition(o.Status, status) {
		return nil, models.NewValidationError(
			fmt.Sprintf("status cannot move from %s to %s without force", o.Status, status))
	}

	ev := &models.TrackingEvent{
		OrderID:     orderID,
		Status:      status,
		Location:    clipPtr(in.Location, maxLocation),
		Description: clipPtr(in.Description, maxDescription),
		Operator:    clipPtr(in.Operator, maxOperator),
		EventDate:   s.now().UTC(),
	}
	if in.EventDate != nil && !in.EventDate.IsZero() {
		ev.EventDate = in.EventDate.UTC()
	}

	prev, err := s.repo.AppendTrackingEvent(ctx, ev)
	if err != nil {
		return nil, err
	}

	if prev != ev.Status {
		s.publishStatusChange(ctx, o, prev, ev.Status)
	}
	return ev, nil
}

func (s *Service) ListEvents(ctx context.Context, orderID uint64, limit, offset int) ([]*models.TrackingEvent, error) {
	return s.repo.ListTrackingEvents(ctx, orderID, limit, offset)
}

// Fire-and-forget: the ledger write already committed, a broker hiccup must
// not fail the caller.
func (s *Service) publishStatusChange(ctx context.Context, o *models.Order, oldStatus, newStatus string) {
	if s.producer == nil {
		return
	}
	msg := messages.OrderStatusChanged{
		Kind:        messages.KindOrderStatus,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		OccurredAt:  s.now().UTC(),
	}
	b, _ := json.Marshal(msg)
	if err := s.producer.Publish(ctx, s.topic, []byte(o.OrderNumber), b); err != nil {
		slog.Error("publish order status change failed", "order_id", o.ID, "err", err)
	}
}

func clipPtr(s *string, max int) *string {
	if s == nil {
		return nil
	}
	c := strings.TrimSpace(*s)
	r := []rune(c)
	if len(r) > max {
		c = string(r[:max])
	}
	return &c
}
