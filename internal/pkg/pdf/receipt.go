// internal/pkg/pdf/receipt.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/vision-studio/storefront-backend/internal/domain/order"
)

// Service generates order receipt PDFs
type Service struct{}

// NewService creates a new PDF service
func NewService() *Service {
	return &Service{}
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 40px; }
  h1 { font-size: 22px; letter-spacing: 2px; }
  .meta { margin: 20px 0; font-size: 13px; color: #555; }
  table { width: 100%; border-collapse: collapse; margin-top: 20px; }
  th { text-align: left; border-bottom: 2px solid #222; padding: 8px 4px; font-size: 12px; text-transform: uppercase; }
  td { border-bottom: 1px solid #ddd; padding: 8px 4px; font-size: 13px; }
  .amount { text-align: right; }
  .totals { margin-top: 20px; width: 40%; margin-left: auto; }
  .totals td { border: none; }
  .grand { font-weight: bold; border-top: 2px solid #222; }
</style>
</head>
<body>
  <h1>VISION STUDIO</h1>
  <div class="meta">
    <div>Order {{.Order.OrderNumber}}</div>
    <div>Placed {{.Order.CreatedAt.Format "2 Jan 2006"}}</div>
    <div>Delivery {{.Order.DeliveryDate.Format "2 Jan 2006"}} &mdash; {{.Order.Street}}, {{.Order.District}}</div>
    <div>{{.Order.CustomerName}} &middot; {{.Order.Email}} &middot; {{.Order.Phone}}</div>
    <div>Payment: {{.PaymentLabel}}</div>
  </div>
  <table>
    <tr><th>Item</th><th>Qty</th><th class="amount">Unit</th><th class="amount">Total</th></tr>
    {{range .Order.Items}}
    <tr>
      <td>{{.Name}}</td>
      <td>{{.Quantity}}</td>
      <td class="amount">{{money .Price}}</td>
      <td class="amount">{{money .TotalPrice}}</td>
    </tr>
    {{end}}
  </table>
  <table class="totals">
    <tr><td>Subtotal</td><td class="amount">{{money .Order.Subtotal}}</td></tr>
    <tr><td>Shipping</td><td class="amount">{{money .Order.Shipping}}</td></tr>
    <tr class="grand"><td>Total</td><td class="amount">{{money .Order.TotalAmount}}</td></tr>
  </table>
</body>
</html>`

// formatMoney renders cents as a dollar amount
func formatMoney(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// GenerateReceipt renders an order receipt as a PDF
func (s *Service) GenerateReceipt(o *order.Order) ([]byte, error) {
	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"money": formatMoney,
	}).Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt template: %w", err)
	}

	paymentLabel := o.PaymentMethod
	if o.PaymentDetails != "" {
		paymentLabel = fmt.Sprintf("%s (%s)", o.PaymentMethod, o.PaymentDetails)
	}
	paymentLabel = strings.ToUpper(paymentLabel[:1]) + paymentLabel[1:]

	var html bytes.Buffer
	err = tmpl.Execute(&html, map[string]any{
		"Order":        o,
		"PaymentLabel": paymentLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.MarginTop.Set(10)
	pdfg.MarginBottom.Set(10)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to generate pdf: %w", err)
	}
	return pdfg.Bytes(), nil
}
