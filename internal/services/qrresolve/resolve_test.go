package qrresolve

import (
	"context"
	"testing"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	orders     map[string]*models.Order
	packages   map[string]*models.Package
	containers map[uint64]*models.Container
	events     map[uint64][]*models.TrackingEvent

	touched []uint64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:     map[string]*models.Order{},
		packages:   map[string]*models.Package{},
		containers: map[uint64]*models.Container{},
		events:     map[uint64][]*models.TrackingEvent{},
	}
}

func (f *fakeRepo) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	o, ok := f.orders[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	return o, nil
}

func (f *fakeRepo) ListTrackingEvents(ctx context.Context, orderID uint64, limit, offset int) ([]*models.TrackingEvent, error) {
	return f.events[orderID], nil
}

func (f *fakeRepo) GetPackageByQR(ctx context.Context, qr string) (*models.Package, error) {
	p, ok := f.packages[qr]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) TouchPackageScan(ctx context.Context, id uint64, at time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeRepo) GetContainer(ctx context.Context, id uint64) (*models.Container, error) {
	c, ok := f.containers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

type memCache struct {
	data map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func TestResolve_OrderNumberWithEventsAndContainer(t *testing.T) {
	r := newFakeRepo()
	cid := uint64(5)
	r.orders["DN2026000001"] = &models.Order{
		ID: 1, OrderNumber: "DN2026000001", Status: models.OrderStatusInProgress, ContainerID: &cid,
	}
	r.containers[5] = &models.Container{ID: 5, Code: "MSKU1234567"}
	r.events[1] = []*models.TrackingEvent{{ID: 10, OrderID: 1, Status: "confirmed"}}

	res, err := New(r).Resolve(context.Background(), "DN2026000001")
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	require.Nil(t, res.Package)
	require.Len(t, res.Events, 1)
	require.Equal(t, "MSKU1234567", res.Container.Code)
	require.Equal(t, "DN2026000001", res.Decoded)
	require.Equal(t, DecodedRaw, res.DecodedVia)
}

func TestResolve_URLWrappedOrderNumber(t *testing.T) {
	r := newFakeRepo()
	r.orders["ORD-2024-000123"] = &models.Order{ID: 2, OrderNumber: "ORD-2024-000123"}

	res, err := New(r).Resolve(context.Background(), `https://site/qr?code=ORD-2024-000123`)
	require.NoError(t, err)
	require.Equal(t, "ORD-2024-000123", res.Decoded)
	require.Equal(t, DecodedURL, res.DecodedVia)
	require.NotNil(t, res.Order)
}

func TestResolve_PackageQRTouchesScan(t *testing.T) {
	r := newFakeRepo()
	r.packages["QR-abc"] = &models.Package{ID: 7, QRCode: "QR-abc", Status: models.PackageStatusEnTransit}

	res, err := New(r).Resolve(context.Background(), "QR-abc")
	require.NoError(t, err)
	require.NotNil(t, res.Package)
	require.Nil(t, res.Order)
	require.Equal(t, []uint64{7}, r.touched)
}

func TestResolve_OrderQRTokenFallsBackToOrderLookup(t *testing.T) {
	r := newFakeRepo()
	qr := "QR-3f2a6f2e-9d7b-4c4e-8a3a-111122223333"
	r.orders[qr] = &models.Order{ID: 3, OrderNumber: "DN2026000003"}

	res, err := New(r).Resolve(context.Background(), qr)
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	require.Equal(t, "DN2026000003", res.Order.OrderNumber)
}

func TestResolve_UnknownCode(t *testing.T) {
	_, err := New(newFakeRepo()).Resolve(context.Background(), "QR-nope")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolve_EmptyInput(t *testing.T) {
	_, err := New(newFakeRepo()).Resolve(context.Background(), "   ")
	require.True(t, models.IsValidation(err))
}

func TestResolve_CacheMemoizesDecodeStep(t *testing.T) {
	r := newFakeRepo()
	r.orders["DN2026000001"] = &models.Order{ID: 1, OrderNumber: "DN2026000001", Status: models.OrderStatusPending}
	c := &memCache{data: map[string][]byte{}}
	s := New(r).WithCache(c, time.Minute)

	raw := `https://site/qr?code=DN2026000001`
	res, err := s.Resolve(context.Background(), raw)
	require.NoError(t, err)
	require.Contains(t, c.data, "qr:decode:"+raw)

	// The cached entry carries only the raw -> code mapping.
	require.JSONEq(t, `{"code":"DN2026000001","via":"url"}`, string(c.data["qr:decode:"+raw]))

	// A repeat scan uses the cached decode but reads the order fresh.
	r.orders["DN2026000001"].Status = models.OrderStatusInProgress
	res, err = s.Resolve(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, DecodedURL, res.DecodedVia)
	require.Equal(t, models.OrderStatusInProgress, res.Order.Status)
}

func TestResolve_PackageScanTouchesEvenWhenCached(t *testing.T) {
	r := newFakeRepo()
	r.packages["QR-abc"] = &models.Package{ID: 7, QRCode: "QR-abc"}
	s := New(r).WithCache(&memCache{data: map[string][]byte{}}, time.Minute)

	_, err := s.Resolve(context.Background(), "QR-abc")
	require.NoError(t, err)
	_, err = s.Resolve(context.Background(), "QR-abc")
	require.NoError(t, err)
	require.Equal(t, []uint64{7, 7}, r.touched)
}
