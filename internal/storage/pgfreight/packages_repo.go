package pgfreight

import (
	"context"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

func (s *Storage) CreatePackage(ctx context.Context, p *models.Package) error {
	now := time.Now().UTC()
	err := s.db.QueryRow(ctx, `
INSERT INTO packages (qr_code, description, status, client_id, container_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id, created_at
`, p.QRCode, p.Description, p.Status, p.ClientID, p.ContainerID, now).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.NewValidationError("package qr code already exists")
		}
		return errors.Wrap(err, "insert package")
	}
	return nil
}

func (s *Storage) GetPackageByQR(ctx context.Context, qrCode string) (*models.Package, error) {
	var p models.Package
	err := s.db.QueryRow(ctx, `
SELECT id, qr_code, description, status, client_id, container_id, last_scan_at, created_at
FROM packages WHERE qr_code = $1`, qrCode).
		Scan(&p.ID, &p.QRCode, &p.Description, &p.Status, &p.ClientID, &p.ContainerID, &p.LastScanAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select package by qr")
	}
	return &p, nil
}

// TouchPackageScan records that the package QR was just scanned.
func (s *Storage) TouchPackageScan(ctx context.Context, id uint64, at time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE packages SET last_scan_at = $2 WHERE id = $1`, id, at.UTC())
	return errors.Wrap(err, "touch package scan")
}
