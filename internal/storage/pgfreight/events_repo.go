package pgfreight

import (
	"context"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// AppendTrackingEvent inserts the event and moves the order to the event's
// status in one transaction, so the ledger and the denormalized status can
// never drift apart. Returns the order's status before the write.
func (s *Storage) AppendTrackingEvent(ctx context.Context, ev *models.TrackingEvent) (string, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var prev string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, ev.OrderID).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "select order status")
	}

	err = tx.QueryRow(ctx, `
INSERT INTO tracking_events (order_id, status, location, description, operator, event_date, created_at)
VALUES ($1,$2,$3,$4,$5,$6, now())
RETURNING id, created_at
`, ev.OrderID, ev.Status, ev.Location, ev.Description, ev.Operator, ev.EventDate.UTC()).
		Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return "", errors.Wrap(err, "insert tracking event")
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		ev.OrderID, ev.Status); err != nil {
		return "", errors.Wrap(err, "update order status")
	}

	if err := tx.Commit(ctx); err != nil {
		return "", errors.Wrap(err, "commit tx")
	}
	return prev, nil
}

// ListTrackingEvents returns the order's history oldest-first. Callers that
// need the latest status reverse on their side.
func (s *Storage) ListTrackingEvents(ctx context.Context, orderID uint64, limit, offset int) ([]*models.TrackingEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT id, order_id, status, location, description, operator, event_date, created_at
FROM tracking_events
WHERE order_id = $1
ORDER BY event_date ASC
LIMIT $2 OFFSET $3
`, orderID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	var out []*models.TrackingEvent
	for rows.Next() {
		var e models.TrackingEvent
		if err := rows.Scan(
			&e.ID, &e.OrderID, &e.Status, &e.Location, &e.Description, &e.Operator,
			&e.EventDate, &e.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
