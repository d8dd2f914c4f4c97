package settings

import "time"

// Settings holds the organization-wide configuration edited from the UI.
type Settings struct {
	OrgName        string    `json:"org_name"`
	BillingEmail   string    `json:"billing_email"`
	Currency       string    `json:"currency"`
	InvoiceDueDays int       `json:"invoice_due_days"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Defaults returns the settings used before any save.
func Defaults() Settings {
	return Settings{
		OrgName:        "Haulboard",
		Currency:       "EUR",
		InvoiceDueDays: 30,
	}
}
