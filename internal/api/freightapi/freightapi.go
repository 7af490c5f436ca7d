package freightapi

import (
	"context"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/dnlogistics/freightdesk/internal/services/qrresolve"
	"github.com/go-chi/chi/v5"
)

type OrdersService interface {
	CreateOrder(ctx context.Context, in models.OrderCreateInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uint64) (*models.Order, error)
	UpdateOrder(ctx context.Context, id uint64, patch models.OrderPatch) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uint64) error
	ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error)
	SearchOrders(ctx context.Context, query string) ([]*models.Order, error)
	FilterByStatus(ctx context.Context, status string) ([]*models.Order, error)
	FilterByDateFrom(ctx context.Context, from time.Time) ([]*models.Order, error)
}

type TrackingService interface {
	AppendEvent(ctx context.Context, orderID uint64, in models.TrackingEventInput) (*models.TrackingEvent, error)
	ListEvents(ctx context.Context, orderID uint64, limit, offset int) ([]*models.TrackingEvent, error)
}

type ContainersService interface {
	Create(ctx context.Context, in models.ContainerInput) (*models.Container, error)
	Get(ctx context.Context, id uint64) (*models.Container, error)
	List(ctx context.Context, limit, offset int) ([]*models.Container, error)
	Update(ctx context.Context, id uint64, in models.ContainerInput) (*models.Container, error)
	BroadcastStatus(ctx context.Context, id uint64, status string) (*models.Container, int, error)
}

type Resolver interface {
	Resolve(ctx context.Context, raw string) (*qrresolve.Resolution, error)
}

// BillingStore covers the records the API writes without a dedicated service.
type BillingStore interface {
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	ListInvoicesByOrder(ctx context.Context, orderID uint64) ([]*models.Invoice, error)
	CreatePackage(ctx context.Context, p *models.Package) error
}

type API struct {
	orders     OrdersService
	tracking   TrackingService
	containers ContainersService
	resolver   Resolver
	billing    BillingStore
}

func New(orders OrdersService, tracking TrackingService, containers ContainersService, resolver Resolver, billing BillingStore) *API {
	return &API{
		orders:     orders,
		tracking:   tracking,
		containers: containers,
		resolver:   resolver,
		billing:    billing,
	}
}

func (a *API) Routes(r chi.Router) {
	r.Get("/healthz", a.handleHealthz)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", a.handleListOrders)
		r.Post("/", a.handleCreateOrder)
		r.Get("/{id}", a.handleGetOrder)
		r.Put("/{id}", a.handleUpdateOrder)
		r.Delete("/{id}", a.handleDeleteOrder)
		r.Get("/{id}/tracking", a.handleListTracking)
		r.Post("/{id}/tracking", a.handleAppendTracking)
		r.Get("/{id}/invoices", a.handleListInvoices)
	})

	r.Route("/containers", func(r chi.Router) {
		r.Get("/", a.handleListContainers)
		r.Post("/", a.handleCreateContainer)
		r.Get("/{id}", a.handleGetContainer)
		r.Put("/{id}", a.handleUpdateContainer)
	})
	r.Post("/notifications/container-status", a.handleBroadcastContainerStatus)

	r.Post("/invoices", a.handleCreateInvoice)
	r.Post("/packages", a.handleCreatePackage)

	r.Get("/track/{code}", a.handlePublicTrack)
	r.Post("/qr/resolve", a.handleResolveQR)
}
