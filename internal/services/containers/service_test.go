package containers

import (
	"context"
	"testing"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	containers map[uint64]*models.Container
	orders     map[uint64][]*models.Order
	nextID     uint64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		containers: map[uint64]*models.Container{},
		orders:     map[uint64][]*models.Order{},
	}
}

func (f *fakeRepo) CreateContainer(ctx context.Context, c *models.Container) error {
	f.nextID++
	c.ID = f.nextID
	cp := *c
	f.containers[c.ID] = &cp
	return nil
}

func (f *fakeRepo) GetContainer(ctx context.Context, id uint64) (*models.Container, error) {
	c, ok := f.containers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) GetContainerByCode(ctx context.Context, code string) (*models.Container, error) {
	for _, c := range f.containers {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRepo) ListContainers(ctx context.Context, limit, offset int) ([]*models.Container, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateContainer(ctx context.Context, c *models.Container) error {
	if _, ok := f.containers[c.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *c
	f.containers[c.ID] = &cp
	return nil
}

func (f *fakeRepo) ListOrdersByContainer(ctx context.Context, containerID uint64) ([]*models.Order, error) {
	return f.orders[containerID], nil
}

type fakeProducer struct {
	published [][]byte
	err       error
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, value)
	return nil
}

func TestCreate_DefaultsStatusToPlanned(t *testing.T) {
	s := New(newFakeRepo(), nil, "")
	c, err := s.Create(context.Background(), models.ContainerInput{Code: "MSKU1234567"})
	require.NoError(t, err)
	require.Equal(t, models.ContainerStatusPlanned, c.Status)
	require.NotZero(t, c.ID)
}

func TestCreate_RequiresCode(t *testing.T) {
	s := New(newFakeRepo(), nil, "")
	_, err := s.Create(context.Background(), models.ContainerInput{Code: "  "})
	require.True(t, models.IsValidation(err))
}

func TestCreate_RejectsUnknownStatus(t *testing.T) {
	s := New(newFakeRepo(), nil, "")
	_, err := s.Create(context.Background(), models.ContainerInput{Code: "X", Status: "teleported"})
	require.True(t, models.IsValidation(err))
}

func TestUpdate_PartialFields(t *testing.T) {
	r := newFakeRepo()
	s := New(r, nil, "")
	c, err := s.Create(context.Background(), models.ContainerInput{Code: "MSKU1234567"})
	require.NoError(t, err)

	vessel := "CMA CGM Jacques"
	got, err := s.Update(context.Background(), c.ID, models.ContainerInput{
		Status: models.ContainerStatusDeparted,
		Vessel: &vessel,
	})
	require.NoError(t, err)
	require.Equal(t, "MSKU1234567", got.Code)
	require.Equal(t, models.ContainerStatusDeparted, got.Status)
	require.Equal(t, "CMA CGM Jacques", *got.Vessel)
}

func TestBroadcastStatus_NotifiesEachAttachedOrder(t *testing.T) {
	r := newFakeRepo()
	p := &fakeProducer{}
	s := New(r, p, "order.status_changed")

	c, err := s.Create(context.Background(), models.ContainerInput{Code: "MSKU1234567"})
	require.NoError(t, err)
	r.orders[c.ID] = []*models.Order{
		{ID: 1, OrderNumber: "DN2026000001"},
		{ID: 2, OrderNumber: "DN2026000002"},
	}

	got, notified, err := s.BroadcastStatus(context.Background(), c.ID, models.ContainerStatusArrived)
	require.NoError(t, err)
	require.Equal(t, models.ContainerStatusArrived, got.Status)
	require.Equal(t, 2, notified)
	require.Len(t, p.published, 2)
	require.Equal(t, models.ContainerStatusArrived, r.containers[c.ID].Status)
}

func TestBroadcastStatus_PublishFailureNotCounted(t *testing.T) {
	r := newFakeRepo()
	p := &fakeProducer{err: errors.New("broker down")}
	s := New(r, p, "order.status_changed")

	c, err := s.Create(context.Background(), models.ContainerInput{Code: "X"})
	require.NoError(t, err)
	r.orders[c.ID] = []*models.Order{{ID: 1, OrderNumber: "DN2026000001"}}

	_, notified, err := s.BroadcastStatus(context.Background(), c.ID, models.ContainerStatusDelayed)
	require.NoError(t, err)
	require.Equal(t, 0, notified)
}

func TestBroadcastStatus_InvalidStatus(t *testing.T) {
	s := New(newFakeRepo(), nil, "")
	_, _, err := s.BroadcastStatus(context.Background(), 1, "lost_at_sea")
	require.True(t, models.IsValidation(err))
}
