package invoices

import (
	"bytes"
	"html/template"
)

var pdfTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 48px; color: #1a1a1a; }
h1 { font-size: 22px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #ddd; }
td.num, th.num { text-align: right; }
.meta { color: #555; font-size: 13px; }
.total td { font-weight: bold; border-top: 2px solid #1a1a1a; }
</style>
</head>
<body>
<h1>Invoice {{.Number}}</h1>
<p class="meta">Issued {{.IssuedAt.Format "02 Jan 2006"}} &middot; Due {{.DueAt.Format "02 Jan 2006"}} &middot; Status {{.Status}}</p>
<p><strong>{{.ClientName}}</strong><br>Transport service {{.ServiceReference}}</p>
<table>
<tr><th>Description</th><th class="num">Amount</th></tr>
<tr><td>Transport service {{.ServiceReference}}</td><td class="num">{{printf "%.2f" .Amount}}</td></tr>
<tr><td>Tax</td><td class="num">{{printf "%.2f" .Tax}}</td></tr>
<tr class="total"><td>Total</td><td class="num">{{printf "%.2f" .Total}}</td></tr>
</table>
</body>
</html>`))

// PDFHTML renders the printable HTML document sent to the PDF service.
func PDFHTML(inv Invoice) (string, error) {
	var buf bytes.Buffer
	if err := pdfTemplate.Execute(&buf, inv); err != nil {
		return "", err
	}
	return buf.String(), nil
}
