package invoices

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"number", "client", "service", "amount", "tax", "total", "status", "issued_at", "due_at"}

// WriteCSV streams the invoices as CSV.
func WriteCSV(w io.Writer, list []Invoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, inv := range list {
		record := []string{
			inv.Number,
			inv.ClientName,
			inv.ServiceReference,
			strconv.FormatFloat(inv.Amount, 'f', 2, 64),
			strconv.FormatFloat(inv.Tax, 'f', 2, 64),
			strconv.FormatFloat(inv.Total, 'f', 2, 64),
			string(inv.Status),
			inv.IssuedAt.Format(time.RFC3339),
			inv.DueAt.Format("2006-01-02"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
