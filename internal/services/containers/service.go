package containers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/dnlogistics/freightdesk/internal/broker/messages"
	"github.com/dnlogistics/freightdesk/internal/models"
)

type Repository interface {
	CreateContainer(ctx context.Context, c *models.Container) error
	GetContainer(ctx context.Context, id uint64) (*models.Container, error)
	GetContainerByCode(ctx context.Context, code string) (*models.Container, error)
	ListContainers(ctx context.Context, limit, offset int) ([]*models.Container, error)
	UpdateContainer(ctx context.Context, c *models.Container) error
	ListOrdersByContainer(ctx context.Context, containerID uint64) ([]*models.Order, error)
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

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, in models.ContainerInput) (*models.Container, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, models.NewValidationError("Missing required fields: code")
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = models.ContainerStatusPlanned
	}
	if !models.ValidContainerStatus(status) {
		return nil, models.NewValidationError("invalid status: " + status)
	}

	c := &models.Container{
		Code:          code,
		Vessel:        in.Vessel,
		DeparturePort: in.DeparturePort,
		ArrivalPort:   in.ArrivalPort,
		ETD:           in.ETD,
		ETA:           in.ETA,
		Status:        status,
		ClientID:      in.ClientID,
	}
	if err := s.repo.CreateContainer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*models.Container, error) {
	return s.repo.GetContainer(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*models.Container, error) {
	return s.repo.GetContainerByCode(ctx, strings.TrimSpace(code))
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Container, error) {
	return s.repo.ListContainers(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uint64, in models.ContainerInput) (*models.Container, error) {
	c, err := s.repo.GetContainer(ctx, id)
	if err != nil {
		return nil, err
	}

	if code := strings.TrimSpace(in.Code); code != "" {
		c.Code = code
	}
	if in.Status != "" {
		if !models.ValidContainerStatus(in.Status) {
			return nil, models.NewValidationError("invalid status: " + in.Status)
		}
		c.Status = in.Status
	}
	if in.Vessel != nil {
		c.Vessel = in.Vessel
	}
	if in.DeparturePort != nil {
		c.DeparturePort = in.DeparturePort
	}
	if in.ArrivalPort != nil {
		c.ArrivalPort = in.ArrivalPort
	}
	if in.ETD != nil {
		c.ETD = in.ETD
	}
	if in.ETA != nil {
		c.ETA = in.ETA
	}
	if in.ClientID != nil {
		c.ClientID = in.ClientID
	}

	if err := s.repo.UpdateContainer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BroadcastStatus moves the container to the given status and queues one
// notification per attached order. Returns how many notifications went out.
func (s *Service) BroadcastStatus(ctx context.Context, id uint64, status string) (*models.Container, int, error) {
	if !models.ValidContainerStatus(status) {
		return nil, 0, models.NewValidationError("invalid status: " + status)
	}

	c, err := s.repo.GetContainer(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if c.Status != status {
		c.Status = status
		if err := s.repo.UpdateContainer(ctx, c); err != nil {
			return nil, 0, err
		}
	}

	orders, err := s.repo.ListOrdersByContainer(ctx, c.ID)
	if err != nil {
		return nil, 0, err
	}

	notified := 0
	for _, o := range orders {
		if s.publishContainerStatus(ctx, c, o) {
			notified++
		}
	}
	return c, notified, nil
}

func (s *Service) publishContainerStatus(ctx context.Context, c *models.Container, o *models.Order) bool {
	if s.producer == nil {
		return false
	}
	msg := messages.OrderStatusChanged{
		Kind:            messages.KindContainerStatus,
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		NewStatus:       c.Status,
		ContainerCode:   c.Code,
		ContainerStatus: c.Status,
		OccurredAt:      s.now().UTC(),
	}
	b, _ := json.Marshal(msg)
	if err := s.producer.Publish(ctx, s.topic, []byte(o.OrderNumber), b); err != nil {
		slog.Error("publish container status failed",
			"container_id", c.ID, "order_id", o.ID, "err", err)
		return false
	}
	return true
}
