package models

import "time"

// Package statuses (non-order trackable items scanned at each hop).
const (
	PackageStatusPreparation = "preparation"
	PackageStatusExpedie     = "expedie"
	PackageStatusEnTransit   = "en_transit"
	PackageStatusArrivePort  = "arrive_port"
	PackageStatusDedouane    = "dedouane"
	PackageStatusLivre       = "livre"
)

type Package struct {
	ID          uint64     `json:"id"`
	QRCode      string     `json:"qr_code"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	ClientID    *uint64    `json:"client_id,omitempty"`
	ContainerID *uint64    `json:"container_id,omitempty"`
	LastScanAt  *time.Time `json:"last_scan_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PackageInput struct {
	Description *string `json:"description"`
	Status      string  `json:"status"`
	ClientID    *uint64 `json:"client_id"`
	ContainerID *uint64 `json:"container_id"`
}

func ValidPackageStatus(s string) bool {
	switch s {
	case PackageStatusPreparation, PackageStatusExpedie, PackageStatusEnTransit,
		PackageStatusArrivePort, PackageStatusDedouane, PackageStatusLivre:
		return true
	}
	return false
}
