package tracking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dnlogistics/freightdesk/internal/broker/messages"
	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	order     *models.Order
	events    []*models.TrackingEvent
	appendErr error
}

func (f *fakeRepo) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, models.ErrNotFound
	}
	cp := *f.order
	return &cp, nil
}

func (f *fakeRepo) AppendTrackingEvent(ctx context.Context, ev *models.TrackingEvent) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	prev := f.order.Status
	f.order.Status = ev.Status
	ev.ID = uint64(len(f.events) + 1)
	ev.CreatedAt = time.Now().UTC()
	f.events = append(f.events, ev)
	return prev, nil
}

func (f *fakeRepo) ListTrackingEvents(ctx context.Context, orderID uint64, limit, offset int) ([]*models.TrackingEvent, error) {
	return f.events, nil
}

type fakeProducer struct {
	published [][]byte
	err       error
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.published = append(p.published, value)
	return p.err
}

func pendingOrder() *models.Order {
	return &models.Order{ID: 1, OrderNumber: "DN2026000001", Status: models.OrderStatusPending}
}

func TestAppendEvent_UpdatesOrderAndPublishesOnce(t *testing.T) {
	r := &fakeRepo{order: pendingOrder()}
	p := &fakeProducer{}
	s := New(r, p, "order.status_changed")

	ev, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status:   models.OrderStatusConfirmed,
		Location: ptr("Port de Douala"),
	})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, r.order.Status)
	require.NotZero(t, ev.ID)
	require.Len(t, p.published, 1)

	var msg messages.OrderStatusChanged
	require.NoError(t, json.Unmarshal(p.published[0], &msg))
	require.Equal(t, messages.KindOrderStatus, msg.Kind)
	require.Equal(t, "DN2026000001", msg.OrderNumber)
	require.Equal(t, models.OrderStatusPending, msg.OldStatus)
	require.Equal(t, models.OrderStatusConfirmed, msg.NewStatus)
}

func TestAppendEvent_SameStatusAppendsWithoutPublishing(t *testing.T) {
	r := &fakeRepo{order: pendingOrder()}
	p := &fakeProducer{}
	s := New(r, p, "order.status_changed")

	_, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status: models.OrderStatusPending,
	})
	require.NoError(t, err)
	require.Len(t, r.events, 1)
	require.Empty(t, p.published)
}

func TestAppendEvent_MissingStatus(t *testing.T) {
	s := New(&fakeRepo{order: pendingOrder()}, nil, "")
	_, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{Status: "  "})
	require.True(t, models.IsValidation(err))
	require.Contains(t, err.Error(), "Missing required fields: status")
}

func TestAppendEvent_OrderNotFound(t *testing.T) {
	s := New(&fakeRepo{}, nil, "")
	_, err := s.AppendEvent(context.Background(), 7, models.TrackingEventInput{Status: "confirmed"})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestAppendEvent_SkipsStageForward(t *testing.T) {
	r := &fakeRepo{order: pendingOrder()}
	p := &fakeProducer{}
	s := New(r, p, "order.status_changed")

	// A pending order can jump straight to in_progress without force.
	ev, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status:   models.OrderStatusInProgress,
		Location: ptr("Port d'Anvers"),
	})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusInProgress, r.order.Status)
	require.Equal(t, "Port d'Anvers", *ev.Location)
	require.Len(t, p.published, 1)
}

func TestAppendEvent_TransitionGuard(t *testing.T) {
	r := &fakeRepo{order: pendingOrder()}
	r.order.Status = models.OrderStatusInProgress
	s := New(r, nil, "")

	// Going backward needs force.
	_, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status: models.OrderStatusConfirmed,
	})
	require.True(t, models.IsValidation(err))

	_, err = s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status: models.OrderStatusConfirmed,
		Force:  true,
	})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, r.order.Status)
}

func TestAppendEvent_FreeFormStatusBypassesGuard(t *testing.T) {
	r := &fakeRepo{order: pendingOrder()}
	p := &fakeProducer{}
	s := New(r, p, "order.status_changed")

	// Custom milestone labels are not part of the transition table.
	_, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status: "arrive_au_port",
	})
	require.NoError(t, err)
	require.Equal(t, "arrive_au_port", r.order.Status)
	require.Len(t, p.published, 1)
}

func TestAppendEvent_ExplicitEventDateWins(t *testing.T) {
	r := &fakeRepo{order: pendingOrder()}
	s := New(r, nil, "")

	when := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ev, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status:    models.OrderStatusConfirmed,
		EventDate: &when,
	})
	require.NoError(t, err)
	require.Equal(t, when, ev.EventDate)
}

func TestAppendEvent_PublishFailureDoesNotFailAppend(t *testing.T) {
	r := &fakeRepo{order: pendingOrder()}
	p := &fakeProducer{err: errors.New("broker down")}
	s := New(r, p, "order.status_changed")

	_, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status: models.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, r.events, 1)
}

func TestAppendEvent_AppendErrorPropagates(t *testing.T) {
	r := &fakeRepo{order: pendingOrder(), appendErr: errors.New("db down")}
	s := New(r, nil, "")
	_, err := s.AppendEvent(context.Background(), 1, models.TrackingEventInput{
		Status: models.OrderStatusConfirmed,
	})
	require.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
