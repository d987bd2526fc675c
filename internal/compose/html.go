package compose

import (
	"bytes"
	"fmt"
	"html/template"

	"lumiere-assistant-backend/internal/ledger"
	"lumiere-assistant-backend/internal/session"
)

const (
	BillSubject        = "🍽️ Your Maison Lumière Bill - Thank You!"
	ReservationSubject = "✅ Reservation Confirmed - Maison Lumière Restaurant"
)

var funcs = template.FuncMap{
	"eur": ledger.FormatEUR,
}

var billTemplate = template.Must(template.New("bill").Funcs(funcs).Parse(`<!DOCTYPE html><html><head><style>
body{font-family:'Segoe UI',Arial,sans-serif;margin:0;padding:20px;background:#f5f5f5;}
.container{max-width:650px;margin:0 auto;background:white;padding:40px;border-radius:12px;}
h2{color:#667eea;text-align:center;}
table{width:100%;border-collapse:collapse;margin:25px 0;}
th{background:#667eea;color:white;padding:14px;text-align:left;}
td{padding:12px;border-bottom:1px solid #e0e0e0;}
.totals{text-align:right;margin-top:25px;}
.grand-total{font-size:26px;font-weight:bold;color:#27ae60;}
</style></head><body><div class="container">
<h2>🍽️ Maison Lumière - Your Bill</h2>
{{- with .Reservation}}
<div class="reservation">
<h3>📅 Your Reservation</h3>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Party:</strong> {{.PartySize}} people</p>
</div>
{{- end}}
<table><tr><th>Dish</th><th>Qty</th><th>Price</th><th>Total</th></tr>
{{- range .Lines}}
<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{eur .UnitPriceCents}}</td><td>{{eur .TotalCents}}</td></tr>
{{- end}}
</table>
<div class="totals">
<p><strong>Subtotal:</strong> {{eur .Totals.Subtotal}}</p>
<p><strong>VAT ({{.Rate}}):</strong> {{eur .Totals.VAT}}</p>
<p class="grand-total">Total: {{eur .Totals.Total}}</p>
</div>
<p><strong>Thank you for dining with us!</strong></p>
</div></body></html>`))

var reservationTemplate = template.Must(template.New("reservation").Funcs(funcs).Parse(`<!DOCTYPE html><html><head><style>
body{font-family:Arial;padding:20px;background:#f5f5f5;}
.container{max-width:600px;margin:0 auto;background:white;padding:30px;border-radius:10px;}
h2{color:#667eea;}
</style></head><body><div class="container">
<h2>🎉 Reservation Confirmed!</h2>
<p>Thank you for booking with us!</p>
<p><strong>📅 Date:</strong> {{.Reservation.Date}}</p>
<p><strong>🕐 Time:</strong> {{.Reservation.Time}}</p>
<p><strong>👥 Party Size:</strong> {{.Reservation.PartySize}} people</p>
{{- if .Lines}}
<h3>Your Pre-Order:</h3><ul>
{{- range .Lines}}
<li>{{.Quantity}}x {{.Name}} - {{eur .TotalCents}}</li>
{{- end}}
</ul>
{{- end}}
<p>We look forward to serving you! 😊</p>
</div></body></html>`))

type billView struct {
	Reservation *session.Reservation
	Lines       []session.OrderLine
	Totals      ledger.Totals
	Rate        string
}

// BillHTML renders the email bill. The reservation block is included when
// the session has one.
func BillHTML(st *session.State, rate float64) (string, error) {
	var buf bytes.Buffer
	err := billTemplate.Execute(&buf, billView{
		Reservation: st.Reservation,
		Lines:       st.Order,
		Totals:      ledger.Compute(st.SubtotalCents, rate),
		Rate:        ledger.RatePercent(rate),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render bill: %w", err)
	}
	return buf.String(), nil
}

// ReservationHTML renders the confirmation email, listing order as a pre-order when non-empty.
func ReservationHTML(res session.Reservation, order []session.OrderLine) (string, error) {
	var buf bytes.Buffer
	err := reservationTemplate.Execute(&buf, struct {
		Reservation session.Reservation
		Lines       []session.OrderLine
	}{res, order})
	if err != nil {
		return "", fmt.Errorf("failed to render reservation: %w", err)
	}
	return buf.String(), nil
}
