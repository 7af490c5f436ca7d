package pgfreight

import (
	"context"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

func (s *Storage) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	now := time.Now().UTC()
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = now
	}
	err := s.db.QueryRow(ctx, `
INSERT INTO invoices (number, order_id, customer_id, amount, currency, issued_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id, created_at
`, inv.Number, inv.OrderID, inv.CustomerID, inv.Amount, inv.Currency, inv.IssuedAt.UTC(), now).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.NewValidationError("invoice number already exists: " + inv.Number)
		}
		return errors.Wrap(err, "insert invoice")
	}
	return nil
}

func (s *Storage) ListInvoicesByOrder(ctx context.Context, orderID uint64) ([]*models.Invoice, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, number, order_id, customer_id, amount, currency, issued_at, created_at
FROM invoices WHERE order_id = $1 ORDER BY issued_at DESC`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select invoices")
	}
	defer rows.Close()

	var out []*models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.Number, &inv.OrderID, &inv.CustomerID,
			&inv.Amount, &inv.Currency, &inv.IssuedAt, &inv.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan invoice")
		}
		out = append(out, &inv)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
