package pgfreight

import (
	"context"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const containerColumns = `
  id, code, vessel, departure_port, arrival_port, etd, eta, status, client_id, created_at`

func scanContainer(row rowScanner) (*models.Container, error) {
	var c models.Container
	if err := row.Scan(
		&c.ID, &c.Code, &c.Vessel, &c.DeparturePort, &c.ArrivalPort,
		&c.ETD, &c.ETA, &c.Status, &c.ClientID, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Storage) CreateContainer(ctx context.Context, c *models.Container) error {
	now := time.Now().UTC()
	err := s.db.QueryRow(ctx, `
INSERT INTO containers (code, vessel, departure_port, arrival_port, etd, eta, status, client_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id, created_at
`, c.Code, c.Vessel, c.DeparturePort, c.ArrivalPort, c.ETD, c.ETA, c.Status, c.ClientID, now).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.NewValidationError("container code already exists: " + c.Code)
		}
		return errors.Wrap(err, "insert container")
	}
	return nil
}

func (s *Storage) GetContainer(ctx context.Context, id uint64) (*models.Container, error) {
	c, err := scanContainer(s.db.QueryRow(ctx, `SELECT`+containerColumns+` FROM containers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select container")
	}
	return c, nil
}

func (s *Storage) GetContainerByCode(ctx context.Context, code string) (*models.Container, error) {
	c, err := scanContainer(s.db.QueryRow(ctx, `SELECT`+containerColumns+` FROM containers WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select container by code")
	}
	return c, nil
}

func (s *Storage) ListContainers(ctx context.Context, limit, offset int) ([]*models.Container, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.Query(ctx,
		`SELECT`+containerColumns+` FROM containers ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select containers")
	}
	defer rows.Close()

	var out []*models.Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan container")
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// UpdateContainer also refreshes the denormalized container_code copy on
// every attached order, in the same transaction.
func (s *Storage) UpdateContainer(ctx context.Context, c *models.Container) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE containers
SET code = $2, vessel = $3, departure_port = $4, arrival_port = $5,
    etd = $6, eta = $7, status = $8, client_id = $9
WHERE id = $1
`, c.ID, c.Code, c.Vessel, c.DeparturePort, c.ArrivalPort, c.ETD, c.ETA, c.Status, c.ClientID)
	if err != nil {
		return errors.Wrap(err, "update container")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
UPDATE orders SET container_code = $2, updated_at = now() WHERE container_id = $1`,
		c.ID, c.Code); err != nil {
		return errors.Wrap(err, "sync order container codes")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}
