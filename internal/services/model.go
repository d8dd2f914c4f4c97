package services

import (
	"time"
)

// Status tracks the lifecycle of a transport service.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusInTransit Status = "in_transit"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusConfirmed, StatusInTransit, StatusCompleted, StatusCancelled}
}

// TransportService represents a booked transport job from origin to destination.
type TransportService struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"reference"`
	ClientID     int64     `json:"client_id"`
	ClientName   string    `json:"client_name"`
	SupplierID   int64     `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Vehicle      string    `json:"vehicle"`
	Driver       string    `json:"driver"`
	Price        float64   `json:"price"`
	Status       Status    `json:"status"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanTransition reports whether the service may move to the target status.
func (s Status) CanTransition(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusInTransit || target == StatusCancelled
	case StatusInTransit:
		return target == StatusCompleted
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}
