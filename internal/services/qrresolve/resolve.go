package qrresolve

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/dnlogistics/freightdesk/internal/cache"
	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	ListTrackingEvents(ctx context.Context, orderID uint64, limit, offset int) ([]*models.TrackingEvent, error)
	GetPackageByQR(ctx context.Context, qr string) (*models.Package, error)
	TouchPackageScan(ctx context.Context, id uint64, at time.Time) error
	GetContainer(ctx context.Context, id uint64) (*models.Container, error)
}

type Service struct {
	repo  Repository
	cache cache.BytesCache
	ttl   time.Duration
	now   func() time.Time
}

func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithCache memoizes the decode step for repeat scans of the same payload.
// Only the raw -> code mapping is cached; the order, its events and the scan
// timestamp are looked up fresh on every resolve.
func (s *Service) WithCache(c cache.BytesCache, ttl time.Duration) *Service {
	s.cache = c
	s.ttl = ttl
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Resolution is what a scanned code points at. Exactly one of Order or
// Package is set; Container rides along when the match has one attached.
type Resolution struct {
	Decoded    string `json:"decoded"`
	DecodedVia string `json:"decoded_via"`

	Order     *models.Order           `json:"order,omitempty"`
	Events    []*models.TrackingEvent `json:"events,omitempty"`
	Package   *models.Package         `json:"package,omitempty"`
	Container *models.Container       `json:"container,omitempty"`
}

func (s *Service) Resolve(ctx context.Context, raw string) (*Resolution, error) {
	code, how := s.decode(ctx, raw)
	if code == "" {
		return nil, models.NewValidationError("Missing required fields: qr_code")
	}

	res, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	res.Decoded = code
	res.DecodedVia = how
	return res, nil
}

type cachedDecode struct {
	Code string `json:"code"`
	Via  string `json:"via"`
}

func (s *Service) decode(ctx context.Context, raw string) (string, string) {
	if s.cache == nil {
		return Decode(raw)
	}

	if b, ok, err := s.cache.Get(ctx, cacheKey(raw)); err == nil && ok {
		var d cachedDecode
		if json.Unmarshal(b, &d) == nil && d.Code != "" {
			return d.Code, d.Via
		}
	}

	code, how := Decode(raw)
	if code != "" {
		b, _ := json.Marshal(cachedDecode{Code: code, Via: how})
		if err := s.cache.Set(ctx, cacheKey(raw), b, s.ttl); err != nil {
			slog.Warn("qr decode cache set failed", "err", err)
		}
	}
	return code, how
}

// Order numbers resolve straight to the order; anything else is tried as a
// package QR first, then as an order code (order QR tokens land here).
func (s *Service) lookup(ctx context.Context, code string) (*Resolution, error) {
	if strings.HasPrefix(code, models.OrderNumberPrefix) {
		o, err := s.repo.GetOrderByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		return s.orderResolution(ctx, o)
	}

	p, err := s.repo.GetPackageByQR(ctx, code)
	if err == nil {
		return s.packageResolution(ctx, p)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	o, err := s.repo.GetOrderByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.orderResolution(ctx, o)
}

func (s *Service) orderResolution(ctx context.Context, o *models.Order) (*Resolution, error) {
	res := &Resolution{Order: o}

	events, err := s.repo.ListTrackingEvents(ctx, o.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	res.Events = events

	if o.ContainerID != nil {
		if c, err := s.repo.GetContainer(ctx, *o.ContainerID); err == nil {
			res.Container = c
		}
	}
	return res, nil
}

func (s *Service) packageResolution(ctx context.Context, p *models.Package) (*Resolution, error) {
	// Scan timestamps are informational; a failed touch never fails the scan.
	if err := s.repo.TouchPackageScan(ctx, p.ID, s.now().UTC()); err != nil {
		slog.Warn("package scan touch failed", "package_id", p.ID, "err", err)
	}

	res := &Resolution{Package: p}
	if p.ContainerID != nil {
		if c, err := s.repo.GetContainer(ctx, *p.ContainerID); err == nil {
			res.Container = c
		}
	}
	return res, nil
}

func cacheKey(raw string) string {
	return "qr:decode:" + raw
}
