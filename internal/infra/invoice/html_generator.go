package invoice

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"counseling-platform/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.InvoiceGenerator = (*HTMLGenerator)(nil)

// HTMLGenerator renders a self-contained HTML invoice. No external assets,
// so the artifact stays valid however long it sits in the cache.
type HTMLGenerator struct {
	businessName string
}

func NewHTMLGenerator(businessName string) *HTMLGenerator {
	if businessName == "" {
		businessName = "Counseling Platform"
	}
	return &HTMLGenerator{businessName: businessName}
}

var page = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": formatMinorUnits,
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Invoice {{.Data.Receipt}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;color:#222}
.card{max-width:640px;border:1px solid #ddd;border-radius:12px;padding:24px}
h1{font-size:20px;margin:0 0 4px}
table{width:100%;border-collapse:collapse;margin-top:16px}
td,th{padding:8px 4px;border-bottom:1px solid #eee;text-align:left}
.total{font-weight:bold}
.small{font-size:12px;color:#666;margin-top:16px}
</style>
</head>
<body>
<div class="card">
  <h1>{{.BusinessName}}</h1>
  <div class="small">Receipt {{.Data.Receipt}} &middot; {{.Data.PaidAt.Format "02 Jan 2006"}}</div>
  <table>
    <tr><th>Billed to</th><td>{{.Data.UserFullName}} ({{.Data.UserEmail}})</td></tr>
    <tr><th>Order</th><td>{{.Data.OrderID}}</td></tr>
    <tr><th>Payment</th><td>{{.Data.PaymentID}}</td></tr>
    <tr><th>Item</th><td>{{.Data.PlanTitle}}</td></tr>
    {{if .Data.CouponUsed}}<tr><th>Coupon</th><td>{{.Data.CouponUsed}}</td></tr>{{end}}
    <tr class="total"><th>Amount paid</th><td>{{money .Data.Amount}} {{.Data.Currency}}</td></tr>
  </table>
  <div class="small">This is a system-generated invoice and needs no signature.</div>
</div>
</body>
</html>`))

func (g *HTMLGenerator) Render(_ context.Context, data adapter.InvoiceData) ([]byte, string, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		BusinessName string
		Data         adapter.InvoiceData
	}{
		BusinessName: g.businessName,
		Data:         data,
	})
	if err != nil {
		return nil, "", fmt.Errorf("render invoice template: %w", err)
	}
	return buf.Bytes(), "text/html; charset=utf-8", nil
}

// formatMinorUnits renders an amount held in minor units (paise) as the
// major unit with two decimals, e.g. 29900 -> "299.00".
func formatMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
