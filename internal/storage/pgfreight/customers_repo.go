package pgfreight

import (
	"context"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// UpsertCustomerByEmail creates the customer record or refreshes the existing
// one matched case-insensitively by email.
func (s *Storage) UpsertCustomerByEmail(ctx context.Context, name, email string, phone *string) (*models.Customer, error) {
	now := time.Now().UTC()
	var c models.Customer
	err := s.db.QueryRow(ctx, `
INSERT INTO customers (name, email, phone, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (lower(email))
DO UPDATE SET name = EXCLUDED.name, phone = COALESCE(EXCLUDED.phone, customers.phone)
RETURNING id, name, email, phone, address, city, country, created_at
`, name, email, phone, now).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.Country, &c.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "upsert customer")
	}
	return &c, nil
}

func (s *Storage) GetCustomer(ctx context.Context, id uint64) (*models.Customer, error) {
	var c models.Customer
	err := s.db.QueryRow(ctx, `
SELECT id, name, email, phone, address, city, country, created_at FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.Country, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select customer")
	}
	return &c, nil
}
