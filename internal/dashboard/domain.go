package dashboard

// Summary holds the headline numbers shown at the top of the dashboard.
type Summary struct {
	ActiveServices  int     `json:"active_services"`
	OpenInvoices    int     `json:"open_invoices"`
	RevenueMTD      float64 `json:"revenue_mtd"`
	OverdueInvoices int     `json:"overdue_invoices"`
}

// RevenuePoint is one month of invoiced versus paid revenue.
type RevenuePoint struct {
	Month    string  `json:"month"`
	Invoiced float64 `json:"invoiced"`
	Paid     float64 `json:"paid"`
}

// StatusCount is the number of transport services in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}
