package pgfreight

import (
	"context"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const pgUniqueViolation = "23505"

const orderColumns = `
  id, order_number, qr_code,
  client_name, client_email, client_phone,
  recipient_name, recipient_email, recipient_phone,
  recipient_address, recipient_city, recipient_postal_code, recipient_country,
  service_type, origin, destination,
  weight, value,
  status, estimated_delivery,
  container_id, container_code, customer_id,
  created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.QRCode,
		&o.ClientName, &o.ClientEmail, &o.ClientPhone,
		&o.RecipientName, &o.RecipientEmail, &o.RecipientPhone,
		&o.RecipientAddress, &o.RecipientCity, &o.RecipientPostalCode, &o.RecipientCountry,
		&o.ServiceType, &o.Origin, &o.Destination,
		&o.Weight, &o.Value,
		&o.Status, &o.EstimatedDelivery,
		&o.ContainerID, &o.ContainerCode, &o.CustomerID,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*models.Order, error) {
	defer rows.Close()
	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	err := s.db.QueryRow(ctx, `
INSERT INTO orders (
  order_number, qr_code,
  client_name, client_email, client_phone,
  recipient_name, recipient_email, recipient_phone,
  recipient_address, recipient_city, recipient_postal_code, recipient_country,
  service_type, origin, destination,
  weight, value,
  status, estimated_delivery,
  container_id, container_code, customer_id,
  created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$23)
RETURNING id, created_at, updated_at
`,
		o.OrderNumber, o.QRCode,
		o.ClientName, o.ClientEmail, o.ClientPhone,
		o.RecipientName, o.RecipientEmail, o.RecipientPhone,
		o.RecipientAddress, o.RecipientCity, o.RecipientPostalCode, o.RecipientCountry,
		o.ServiceType, o.Origin, o.Destination,
		o.Weight, o.Value,
		o.Status, o.EstimatedDelivery,
		o.ContainerID, o.ContainerCode, o.CustomerID,
		now,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "orders_order_number_key" {
			return models.ErrDuplicateOrderNumber
		}
		return errors.Wrap(err, "insert order")
	}
	return nil
}

func (s *Storage) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}
	return o, nil
}

// GetOrderByCode resolves a public code against order_number first, then the
// QR token.
func (s *Storage) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `
SELECT`+orderColumns+` FROM orders WHERE order_number = $1 OR qr_code = $1 LIMIT 1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order by code")
	}
	return o, nil
}

func (s *Storage) UpdateOrder(ctx context.Context, o *models.Order) error {
	tag, err := s.db.Exec(ctx, `
UPDATE orders
SET
  client_name = $2, client_email = $3, client_phone = $4,
  recipient_name = $5, recipient_email = $6, recipient_phone = $7,
  recipient_address = $8, recipient_city = $9, recipient_postal_code = $10, recipient_country = $11,
  service_type = $12, origin = $13, destination = $14,
  weight = $15, value = $16,
  status = $17, estimated_delivery = $18,
  container_id = $19, container_code = $20, customer_id = $21,
  updated_at = now()
WHERE id = $1
`,
		o.ID,
		o.ClientName, o.ClientEmail, o.ClientPhone,
		o.RecipientName, o.RecipientEmail, o.RecipientPhone,
		o.RecipientAddress, o.RecipientCity, o.RecipientPostalCode, o.RecipientCountry,
		o.ServiceType, o.Origin, o.Destination,
		o.Weight, o.Value,
		o.Status, o.EstimatedDelivery,
		o.ContainerID, o.ContainerCode, o.CustomerID,
	)
	if err != nil {
		return errors.Wrap(err, "update order")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteOrder(ctx context.Context, id uint64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	return collectOrders(rows)
}

func (s *Storage) SearchOrders(ctx context.Context, query string) ([]*models.Order, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumns+`
FROM orders
WHERE order_number ILIKE $1
   OR client_name ILIKE $1
   OR client_email ILIKE $1
   OR recipient_name ILIKE $1
   OR recipient_email ILIKE $1
ORDER BY created_at DESC
`, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "search orders")
	}
	return collectOrders(rows)
}

func (s *Storage) FilterOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, errors.Wrap(err, "filter orders by status")
	}
	return collectOrders(rows)
}

func (s *Storage) FilterOrdersByDateFrom(ctx context.Context, from time.Time) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumns+` FROM orders WHERE created_at >= $1 ORDER BY created_at DESC`, from.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "filter orders by date")
	}
	return collectOrders(rows)
}

func (s *Storage) ListOrdersByContainer(ctx context.Context, containerID uint64) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumns+` FROM orders WHERE container_id = $1 ORDER BY created_at DESC`, containerID)
	if err != nil {
		return nil, errors.Wrap(err, "select orders by container")
	}
	return collectOrders(rows)
}

// MaxOrderNumber returns the lexicographically greatest order_number for the
// given prefix, or "" when none exists.
func (s *Storage) MaxOrderNumber(ctx context.Context, prefix string) (string, error) {
	var n string
	err := s.db.QueryRow(ctx, `
SELECT order_number FROM orders WHERE order_number LIKE $1 ORDER BY order_number DESC LIMIT 1`,
		prefix+"%").Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "select max order number")
	}
	return n, nil
}
