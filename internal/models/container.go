package models

import "time"

const (
	ContainerStatusPlanned   = "planned"
	ContainerStatusDeparted  = "departed"
	ContainerStatusInTransit = "in_transit"
	ContainerStatusArrived   = "arrived"
	ContainerStatusDelivered = "delivered"
	ContainerStatusDelayed   = "delayed"
)

type Container struct {
	ID            uint64     `json:"id"`
	Code          string     `json:"code"`
	Vessel        *string    `json:"vessel,omitempty"`
	DeparturePort *string    `json:"departure_port,omitempty"`
	ArrivalPort   *string    `json:"arrival_port,omitempty"`
	ETD           *time.Time `json:"etd,omitempty"`
	ETA           *time.Time `json:"eta,omitempty"`
	Status        string     `json:"status"`
	ClientID      *uint64    `json:"client_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ContainerInput struct {
	Code          string     `json:"code"`
	Vessel        *string    `json:"vessel"`
	DeparturePort *string    `json:"departure_port"`
	ArrivalPort   *string    `json:"arrival_port"`
	ETD           *time.Time `json:"etd"`
	ETA           *time.Time `json:"eta"`
	Status        string     `json:"status"`
	ClientID      *uint64    `json:"client_id"`
}

func ValidContainerStatus(s string) bool {
	switch s {
	case ContainerStatusPlanned, ContainerStatusDeparted, ContainerStatusInTransit,
		ContainerStatusArrived, ContainerStatusDelivered, ContainerStatusDelayed:
		return true
	}
	return false
}
