package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateAdminNewOrder     = "admin_new_order"
	TemplateOrderShipped      = "order_shipped"
	TemplateOrderDelivered    = "order_delivered"
	TemplateOrderCancelled    = "order_cancelled"
)

// OrderInfo contains all the information needed for order email templates
type OrderInfo struct {
	OrderID         string
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShopName        string
	ShopURL         string
	OrderURL        string
	ShippingAddress string
	TrackingNumber  string
	TrackingURL     string
	TrackingCarrier string
	OrderDate       string
	PaymentMethod   string
	Items           []OrderItem
	Subtotal        string
	Shipping        string
	Total           string
	Refunded        bool
}

type OrderItem struct {
	Name       string
	Size       string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

type emailTemplate struct {
	Subject string
	HTML    string
	Text    string
}

var emailTemplates = map[string]emailTemplate{
	TemplateOrderConfirmation: {
		Subject: "Order Confirmed - {{.OrderNumber}} - {{.ShopName}}",
		HTML:    orderConfirmationHTML,
		Text:    orderConfirmationText,
	},
	TemplateAdminNewOrder: {
		Subject: "New order {{.OrderNumber}} - {{.Total}}",
		HTML:    adminNewOrderHTML,
		Text:    adminNewOrderText,
	},
	TemplateOrderShipped: {
		Subject: "Your Order Has Shipped - {{.OrderNumber}} - {{.ShopName}}",
		HTML:    orderShippedHTML,
		Text:    orderShippedText,
	},
	TemplateOrderDelivered: {
		Subject: "Your Order Has Been Delivered - {{.OrderNumber}}",
		HTML:    orderDeliveredHTML,
		Text:    orderDeliveredText,
	},
	TemplateOrderCancelled: {
		Subject: "Your Order Was Cancelled - {{.OrderNumber}}",
		HTML:    orderCancelledHTML,
		Text:    orderCancelledText,
	},
}

// Renderer renders the built-in order templates. HTML bodies are escaped.
type Renderer struct {
	subjects *template.Template
	text     *template.Template
	html     *htmltemplate.Template
}

func NewRenderer() (*Renderer, error) {
	subjects := template.New("subjects")
	text := template.New("text")
	html := htmltemplate.New("html")

	for key, t := range emailTemplates {
		if _, err := subjects.New(key).Parse(t.Subject); err != nil {
			return nil, fmt.Errorf("failed to parse subject template %s: %w", key, err)
		}
		if _, err := text.New(key).Parse(t.Text); err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", key, err)
		}
		if _, err := html.New(key).Parse(t.HTML); err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", key, err)
		}
	}

	return &Renderer{subjects: subjects, text: text, html: html}, nil
}

// Render renders templateName for data, addressed to the customer.
func (r *Renderer) Render(ctx context.Context, templateName string, data *OrderInfo) (*Email, error) {
	if data == nil {
		return nil, fmt.Errorf("order info is required")
	}
	if _, ok := emailTemplates[templateName]; !ok {
		return nil, fmt.Errorf("unknown email template %q", templateName)
	}

	var subjectBuf, htmlBuf, textBuf bytes.Buffer

	if err := r.subjects.ExecuteTemplate(&subjectBuf, templateName, data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := r.html.ExecuteTemplate(&htmlBuf, templateName, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}
	if err := r.text.ExecuteTemplate(&textBuf, templateName, data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	return &Email{
		To:      data.CustomerEmail,
		Subject: subjectBuf.String(),
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
		Tags:    map[string]string{"template": templateName, "order_id": data.OrderID},
	}, nil
}

func send(ctx context.Context, p Provider, templateName, to string, orderInfo *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	email, err := renderer.Render(ctx, templateName, orderInfo)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	if to != "" {
		email.To = to
	}
	if email.To == "" {
		return fmt.Errorf("email recipient is required")
	}

	return p.SendEmail(ctx, email)
}

func SendOrderConfirmation(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, TemplateOrderConfirmation, "", orderInfo)
}

// SendAdminNewOrder notifies the shop owner at adminEmail about a placed order.
func SendAdminNewOrder(ctx context.Context, p Provider, adminEmail string, orderInfo *OrderInfo) error {
	if adminEmail == "" {
		return nil
	}
	return send(ctx, p, TemplateAdminNewOrder, adminEmail, orderInfo)
}

func SendOrderShipped(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, TemplateOrderShipped, "", orderInfo)
}

func SendOrderDelivered(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, TemplateOrderDelivered, "", orderInfo)
}

func SendOrderCancelled(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, TemplateOrderCancelled, "", orderInfo)
}

const orderConfirmationText = `Thank you for your order, {{.CustomerName}}!

Order Number: {{.OrderNumber}}
Order Date: {{.OrderDate}}
Payment: {{.PaymentMethod}}

Items:
{{range .Items}}- {{.Name}}{{if .Size}} (Size {{.Size}}){{end}} x{{.Quantity}} - {{.TotalPrice}}
{{end}}
Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Total: {{.Total}}

Shipping to:
{{.ShippingAddress}}

{{if .OrderURL}}View your order: {{.OrderURL}}{{end}}

We'll send you another email when your order ships.

Thank you for shopping with {{.ShopName}}!
{{.ShopURL}}
`

const orderConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Order Confirmation</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #f59e0b; color: #111827; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #fffbeb; padding: 20px; border: 1px solid #fde68a; }
    .items { width: 100%; border-collapse: collapse; margin: 15px 0; }
    .items th, .items td { text-align: left; padding: 8px; border-bottom: 1px solid #fde68a; }
    .total { font-weight: bold; text-align: right; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Order Confirmed!</h1>
    <p>Thank you for your order, {{.CustomerName}}</p>
  </div>
  <div class="content">
    <p><strong>Order Number:</strong> {{.OrderNumber}}<br>
    <strong>Order Date:</strong> {{.OrderDate}}<br>
    <strong>Payment:</strong> {{.PaymentMethod}}</p>
    <table class="items">
      <thead><tr><th>Item</th><th>Qty</th><th>Price</th></tr></thead>
      <tbody>
        {{range .Items}}<tr><td>{{.Name}}{{if .Size}} <small>Size {{.Size}}</small>{{end}}</td><td>{{.Quantity}}</td><td>{{.TotalPrice}}</td></tr>
        {{end}}
      </tbody>
    </table>
    <div class="total">
      <p>Subtotal: {{.Subtotal}}<br>Shipping: {{.Shipping}}<br>Total: {{.Total}}</p>
    </div>
    <h3>Shipping to</h3>
    <p style="white-space: pre-line">{{.ShippingAddress}}</p>
    {{if .OrderURL}}<p><a href="{{.OrderURL}}">View your order</a></p>{{end}}
  </div>
  <div class="footer">
    <p>Thank you for shopping with <a href="{{.ShopURL}}">{{.ShopName}}</a></p>
  </div>
</body>
</html>
`

const adminNewOrderText = `New order received on {{.ShopName}}.

Order Number: {{.OrderNumber}}
Order Date: {{.OrderDate}}
Payment: {{.PaymentMethod}}
Customer: {{.CustomerName}} <{{.CustomerEmail}}> {{.CustomerPhone}}

Items:
{{range .Items}}- {{.Name}}{{if .Size}} (Size {{.Size}}){{end}} x{{.Quantity}} @ {{.UnitPrice}} = {{.TotalPrice}}
{{end}}
Total: {{.Total}}

Ship to:
{{.ShippingAddress}}
`

const adminNewOrderHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>New Order</title></head>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>New order {{.OrderNumber}}</h2>
  <p>{{.OrderDate}} &middot; {{.PaymentMethod}} &middot; <strong>{{.Total}}</strong></p>
  <p>{{.CustomerName}} &lt;{{.CustomerEmail}}&gt; {{.CustomerPhone}}</p>
  <ul>
    {{range .Items}}<li>{{.Name}}{{if .Size}} (Size {{.Size}}){{end}} x{{.Quantity}} @ {{.UnitPrice}} = {{.TotalPrice}}</li>
    {{end}}
  </ul>
  <p style="white-space: pre-line">{{.ShippingAddress}}</p>
</body>
</html>
`

const orderShippedText = `Great news! Your order has shipped!

Order Number: {{.OrderNumber}}

{{if .TrackingNumber}}Tracking Number: {{.TrackingNumber}}
Carrier: {{.TrackingCarrier}}
{{if .TrackingURL}}Track your package: {{.TrackingURL}}{{end}}
{{end}}
Shipping Address:
{{.ShippingAddress}}

We'll let you know when your package is delivered!

Thank you for shopping with {{.ShopName}}!
{{.ShopURL}}
`

const orderShippedHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order Shipped</title></head>
<body style="font-family: sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto;">
  <h1>Your order is on its way, {{.CustomerName}}!</h1>
  <p><strong>Order Number:</strong> {{.OrderNumber}}</p>
  {{if .TrackingNumber}}
  <p><strong>Carrier:</strong> {{.TrackingCarrier}}<br><strong>Tracking:</strong> {{.TrackingNumber}}</p>
  {{if .TrackingURL}}<p><a href="{{.TrackingURL}}">Track your package</a></p>{{end}}
  {{end}}
  <h3>Shipping Address</h3>
  <p style="white-space: pre-line">{{.ShippingAddress}}</p>
  <p>Thank you for shopping with <a href="{{.ShopURL}}">{{.ShopName}}</a></p>
</body>
</html>
`

const orderDeliveredText = `Your order has been delivered!

Order Number: {{.OrderNumber}}

Your package should have arrived at:
{{.ShippingAddress}}

We hope you enjoy your purchase!

Thank you for shopping with {{.ShopName}}!
{{.ShopURL}}
`

const orderDeliveredHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order Delivered</title></head>
<body style="font-family: sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto;">
  <h1>Delivered!</h1>
  <p>Your package has arrived, {{.CustomerName}}.</p>
  <p><strong>Order Number:</strong> {{.OrderNumber}}</p>
  <p style="white-space: pre-line">{{.ShippingAddress}}</p>
  <p>Thank you for shopping with <a href="{{.ShopURL}}">{{.ShopName}}</a></p>
</body>
</html>
`

const orderCancelledText = `Your order {{.OrderNumber}} has been cancelled.
{{if .Refunded}}
A refund of {{.Total}} has been initiated to your original payment method.
{{end}}
If this is unexpected, reply to this email and we'll help.

{{.ShopName}}
{{.ShopURL}}
`

const orderCancelledHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order Cancelled</title></head>
<body style="font-family: sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto;">
  <h1>Order cancelled</h1>
  <p>Your order {{.OrderNumber}} has been cancelled.</p>
  {{if .Refunded}}<p>A refund of <strong>{{.Total}}</strong> has been initiated to your original payment method.</p>{{end}}
  <p>If this is unexpected, reply to this email and we'll help.</p>
  <p><a href="{{.ShopURL}}">{{.ShopName}}</a></p>
</body>
</html>
`
