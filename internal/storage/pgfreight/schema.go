package pgfreight

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS customers (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NULL,
  address TEXT NULL,
  city TEXT NULL,
  country TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_customers_email ON customers(lower(email))`,
		`
CREATE TABLE IF NOT EXISTS containers (
  id BIGSERIAL PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  vessel TEXT NULL,
  departure_port TEXT NULL,
  arrival_port TEXT NULL,
  etd TIMESTAMPTZ NULL,
  eta TIMESTAMPTZ NULL,
  status TEXT NOT NULL,
  client_id BIGINT NULL REFERENCES customers(id) ON DELETE SET NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS orders (
  id BIGSERIAL PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  qr_code TEXT NULL UNIQUE,
  client_name TEXT NOT NULL,
  client_email TEXT NOT NULL,
  client_phone TEXT NULL,
  recipient_name TEXT NOT NULL,
  recipient_email TEXT NOT NULL,
  recipient_phone TEXT NULL,
  recipient_address TEXT NULL,
  recipient_city TEXT NULL,
  recipient_postal_code TEXT NULL,
  recipient_country TEXT NULL,
  service_type TEXT NOT NULL,
  origin TEXT NOT NULL,
  destination TEXT NOT NULL,
  weight DOUBLE PRECISION NULL,
  value DOUBLE PRECISION NULL,
  status TEXT NOT NULL,
  estimated_delivery TIMESTAMPTZ NULL,
  container_id BIGINT NULL REFERENCES containers(id) ON DELETE SET NULL,
  container_code TEXT NULL,
  customer_id BIGINT NULL REFERENCES customers(id) ON DELETE SET NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_container_id ON orders(container_id)`,
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id BIGSERIAL PRIMARY KEY,
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  status TEXT NOT NULL,
  location TEXT NULL,
  description TEXT NULL,
  operator TEXT NULL,
  event_date TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_order_id_event_date ON tracking_events(order_id, event_date ASC)`,
		`
CREATE TABLE IF NOT EXISTS packages (
  id BIGSERIAL PRIMARY KEY,
  qr_code TEXT NOT NULL UNIQUE,
  description TEXT NULL,
  status TEXT NOT NULL,
  client_id BIGINT NULL REFERENCES customers(id) ON DELETE SET NULL,
  container_id BIGINT NULL REFERENCES containers(id) ON DELETE SET NULL,
  last_scan_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS invoices (
  id BIGSERIAL PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  order_id BIGINT NULL REFERENCES orders(id) ON DELETE SET NULL,
  customer_id BIGINT NULL REFERENCES customers(id) ON DELETE SET NULL,
  amount DOUBLE PRECISION NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'XAF',
  issued_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
