package orders

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	orders     map[uint64]*models.Order
	containers map[uint64]*models.Container
	nextID     uint64

	maxNumber    string
	maxNumberErr error

	dupOnce bool // fail the first create with a duplicate-number error

	created   []*models.Order
	updated   []*models.Order
	customers []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:     map[uint64]*models.Order{},
		containers: map[uint64]*models.Container{},
	}
}

func (f *fakeRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	if f.dupOnce {
		f.dupOnce = false
		return models.ErrDuplicateOrderNumber
	}
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	f.orders[o.ID] = &cp
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeRepo) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) UpdateOrder(ctx context.Context, o *models.Order) error {
	if _, ok := f.orders[o.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *o
	f.orders[o.ID] = &cp
	f.updated = append(f.updated, &cp)
	return nil
}

func (f *fakeRepo) DeleteOrder(ctx context.Context, id uint64) error {
	if _, ok := f.orders[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeRepo) ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	return nil, nil
}
func (f *fakeRepo) SearchOrders(ctx context.Context, q string) ([]*models.Order, error) {
	return nil, nil
}
func (f *fakeRepo) FilterOrdersByStatus(ctx context.Context, st string) ([]*models.Order, error) {
	return nil, nil
}
func (f *fakeRepo) FilterOrdersByDateFrom(ctx context.Context, from time.Time) ([]*models.Order, error) {
	return nil, nil
}

func (f *fakeRepo) MaxOrderNumber(ctx context.Context, prefix string) (string, error) {
	if f.maxNumberErr != nil {
		return "", f.maxNumberErr
	}
	return f.maxNumber, nil
}

func (f *fakeRepo) GetContainer(ctx context.Context, id uint64) (*models.Container, error) {
	c, ok := f.containers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) UpsertCustomerByEmail(ctx context.Context, name, email string, phone *string) (*models.Customer, error) {
	f.customers = append(f.customers, email)
	return &models.Customer{ID: 42, Name: name, Email: email}, nil
}

type fakeProducer struct {
	published [][]byte
	err       error
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.published = append(p.published, value)
	return p.err
}

func validInput() models.OrderCreateInput {
	return models.OrderCreateInput{
		ClientName:  "Jean Dupont",
		ClientEmail: "jean@example.com",
		ServiceType: models.ServiceFretMaritime,
		Origin:      "Paris",
		Destination: "Douala",
	}
}

func TestCreateOrder_OK(t *testing.T) {
	r := newFakeRepo()
	s := New(r, nil, "")

	o, err := s.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, o.Status)
	require.Regexp(t, regexp.MustCompile(`^DN\d{4}\d{6}$`), o.OrderNumber)
	require.Nil(t, o.ContainerCode)
	require.NotNil(t, o.QRCode)

	// Recipient defaults to the client.
	require.Equal(t, "Jean Dupont", o.RecipientName)
	require.Equal(t, "jean@example.com", o.RecipientEmail)

	// No customer_id supplied: upserted by client email.
	require.Equal(t, []string{"jean@example.com"}, r.customers)
	require.NotNil(t, o.CustomerID)
}

func TestCreateOrder_ValidationAggregatesProblems(t *testing.T) {
	r := newFakeRepo()
	s := New(r, nil, "")

	in := validInput()
	in.ClientEmail = "not-an-email"
	in.Origin = ""
	_, err := s.CreateOrder(context.Background(), in)
	require.Error(t, err)

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, err.Error(), "Missing required fields: origin")
	require.Contains(t, err.Error(), "client_email")
	require.Empty(t, r.created)
}

func TestCreateOrder_InvalidServiceType(t *testing.T) {
	s := New(newFakeRepo(), nil, "")
	in := validInput()
	in.ServiceType = "teleportation"
	_, err := s.CreateOrder(context.Background(), in)
	require.True(t, models.IsValidation(err))
}

func TestCreateOrder_SanitizesLongFields(t *testing.T) {
	r := newFakeRepo()
	s := New(r, nil, "")
	in := validInput()
	in.ClientName = "  " + strings.Repeat("x", 500) + "  "
	o, err := s.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, o.ClientName, 100)
}

func TestCreateOrder_ResolvesContainerCode(t *testing.T) {
	r := newFakeRepo()
	r.containers[9] = &models.Container{ID: 9, Code: "MSKU1234567", Status: models.ContainerStatusPlanned}
	s := New(r, nil, "")

	in := validInput()
	id := uint64(9)
	in.ContainerID = &id
	o, err := s.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, o.ContainerCode)
	require.Equal(t, "MSKU1234567", *o.ContainerCode)

	in.ContainerID = ptr(uint64(777))
	_, err = s.CreateOrder(context.Background(), in)
	require.True(t, models.IsValidation(err))
}

func TestCreateOrder_RetriesOnDuplicateNumber(t *testing.T) {
	r := newFakeRepo()
	r.dupOnce = true
	s := New(r, nil, "")

	o, err := s.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	require.NotZero(t, o.ID)
}

func TestUpdateOrder_ContainerCodeFollowsContainerID(t *testing.T) {
	r := newFakeRepo()
	r.containers[3] = &models.Container{ID: 3, Code: "CMAU0000001"}
	s := New(r, nil, "")

	o, err := s.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	got, err := s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{ContainerID: ptr(uint64(3))})
	require.NoError(t, err)
	require.Equal(t, "CMAU0000001", *got.ContainerCode)

	// ContainerID 0 detaches and clears the denormalized code.
	got, err = s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{ContainerID: ptr(uint64(0))})
	require.NoError(t, err)
	require.Nil(t, got.ContainerID)
	require.Nil(t, got.ContainerCode)
}

func TestUpdateOrder_StatusChangePublishesNotification(t *testing.T) {
	r := newFakeRepo()
	p := &fakeProducer{}
	s := New(r, p, "order.status_changed")

	o, err := s.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	_, err = s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{Status: ptr(models.OrderStatusConfirmed)})
	require.NoError(t, err)
	require.Len(t, p.published, 1)

	// Same status again: no transition, no notification.
	_, err = s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{Status: ptr(models.OrderStatusConfirmed)})
	require.NoError(t, err)
	require.Len(t, p.published, 1)
}

func TestUpdateOrder_TransitionGuard(t *testing.T) {
	r := newFakeRepo()
	s := New(r, nil, "")
	o, err := s.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	// Forward moves may skip stages.
	got, err := s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{Status: ptr(models.OrderStatusCompleted)})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCompleted, got.Status)

	// Reopening a completed order needs force.
	_, err = s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{Status: ptr(models.OrderStatusInProgress)})
	require.True(t, models.IsValidation(err))

	got, err = s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{
		Status: ptr(models.OrderStatusInProgress),
		Force:  true,
	})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusInProgress, got.Status)
}

func TestUpdateOrder_RejectsClearingRequiredFields(t *testing.T) {
	r := newFakeRepo()
	s := New(r, nil, "")
	o, err := s.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	_, err = s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{
		ClientName: ptr("  "),
		Origin:     ptr(""),
	})
	require.True(t, models.IsValidation(err))
	require.Contains(t, err.Error(), "cannot clear required fields: client_name, origin")

	got, err := s.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.ClientName)
	require.NotEmpty(t, got.Origin)
}

func TestUpdateOrder_NotFound(t *testing.T) {
	s := New(newFakeRepo(), nil, "")
	_, err := s.UpdateOrder(context.Background(), 404, models.OrderPatch{})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateOrder_PublishFailureDoesNotFailUpdate(t *testing.T) {
	r := newFakeRepo()
	p := &fakeProducer{err: errors.New("broker down")}
	s := New(r, p, "order.status_changed")

	o, err := s.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	got, err := s.UpdateOrder(context.Background(), o.ID, models.OrderPatch{Status: ptr(models.OrderStatusConfirmed)})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, got.Status)
}

func TestFilterByStatus_RejectsUnknown(t *testing.T) {
	s := New(newFakeRepo(), nil, "")
	_, err := s.FilterByStatus(context.Background(), "shipped")
	require.True(t, models.IsValidation(err))
}

func ptr[T any](v T) *T { return &v }
