package invoices

import (
	"time"
)

// Status tracks the billing lifecycle of an invoice.
type Status string

const (
	StatusIssued   Status = "issued"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusVoid     Status = "void"
)

// Invoice represents a client invoice raised against a completed transport service.
type Invoice struct {
	ID               int64     `json:"id"`
	Number           string    `json:"number"`
	ServiceID        int64     `json:"service_id"`
	ServiceReference string    `json:"service_reference"`
	ClientID         int64     `json:"client_id"`
	ClientName       string    `json:"client_name"`
	Amount           float64   `json:"amount"`
	Tax              float64   `json:"tax"`
	Total            float64   `json:"total"`
	Status           Status    `json:"status"`
	IssuedAt         time.Time `json:"issued_at"`
	DueAt            time.Time `json:"due_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanTransition reports whether the invoice may move to the target status.
func (s Status) CanTransition(target Status) bool {
	switch s {
	case StatusIssued:
		return target == StatusApproved || target == StatusVoid
	case StatusApproved:
		return target == StatusPaid || target == StatusVoid
	default:
		return false
	}
}
