package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

type recordingProvider struct {
	sent []*Email
	err  error
}

func (r *recordingProvider) SendEmail(_ context.Context, email *Email) error {
	r.sent = append(r.sent, email)
	return r.err
}

func (r *recordingProvider) ValidateAPIKey(context.Context) error {
	return nil
}

func sampleOrderInfo() *OrderInfo {
	return &OrderInfo{
		OrderID:         "3f1c0d3e-0000-0000-0000-000000000001",
		OrderNumber:     "3F1C0D3E",
		CustomerName:    "Asha <b>Rao</b>",
		CustomerEmail:   "asha@example.com",
		ShopName:        "BEE BOO",
		ShopURL:         "https://beeboo.in",
		ShippingAddress: "12, Hive Apartments\nMG Road\nBengaluru, Karnataka 560001",
		PaymentMethod:   "Razorpay",
		Items: []OrderItem{
			{Name: "Bee Tee", Size: "M", Quantity: 2, UnitPrice: "₹500.00", TotalPrice: "₹1,000.00"},
		},
		Subtotal: "₹1,000.00",
		Shipping: "₹70.00",
		Total:    "₹1,070.00",
	}
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	tests := []struct {
		template    string
		wantSubject string
	}{
		{template: TemplateOrderConfirmation, wantSubject: "Order Confirmed - 3F1C0D3E - BEE BOO"},
		{template: TemplateAdminNewOrder, wantSubject: "New order 3F1C0D3E - ₹1,070.00"},
		{template: TemplateOrderShipped, wantSubject: "Your Order Has Shipped - 3F1C0D3E - BEE BOO"},
		{template: TemplateOrderDelivered, wantSubject: "Your Order Has Been Delivered - 3F1C0D3E"},
		{template: TemplateOrderCancelled, wantSubject: "Your Order Was Cancelled - 3F1C0D3E"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.template, func(t *testing.T) {
			t.Parallel()

			email, err := renderer.Render(context.Background(), tc.template, sampleOrderInfo())
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if email.Subject != tc.wantSubject {
				t.Fatalf("subject = %q, want %q", email.Subject, tc.wantSubject)
			}
			if email.To != "asha@example.com" {
				t.Fatalf("to = %q", email.To)
			}
			if strings.Contains(email.HTML, "<b>Rao</b>") {
				t.Fatalf("HTML body was not escaped")
			}
			if email.Tags["template"] != tc.template {
				t.Fatalf("tags = %v", email.Tags)
			}
		})
	}
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	if _, err := renderer.Render(context.Background(), "nope", sampleOrderInfo()); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestSendOrderConfirmationIncludesItems(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{}
	if err := SendOrderConfirmation(context.Background(), provider, sampleOrderInfo()); err != nil {
		t.Fatalf("SendOrderConfirmation() error = %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(provider.sent))
	}
	if !strings.Contains(provider.sent[0].Text, "Bee Tee (Size M) x2 - ₹1,000.00") {
		t.Fatalf("unexpected text body:\n%s", provider.sent[0].Text)
	}
}

func TestSendAdminNewOrder(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{}
	if err := SendAdminNewOrder(context.Background(), provider, "", sampleOrderInfo()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.sent) != 0 {
		t.Fatalf("expected no email without an admin address")
	}

	if err := SendAdminNewOrder(context.Background(), provider, "owner@beeboo.in", sampleOrderInfo()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.sent[0].To != "owner@beeboo.in" {
		t.Fatalf("to = %q", provider.sent[0].To)
	}
}

func TestSendPropagatesProviderError(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{err: errors.New("smtp down")}
	if err := SendOrderShipped(context.Background(), provider, sampleOrderInfo()); err == nil {
		t.Fatal("expected provider error")
	}
	if err := SendOrderShipped(context.Background(), nil, sampleOrderInfo()); err != nil {
		t.Fatalf("nil provider should be a no-op, got %v", err)
	}
}

func TestFormatINR(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "₹0.00"},
		{in: "70", want: "₹70.00"},
		{in: "1070", want: "₹1,070.00"},
		{in: "107000.5", want: "₹1,07,000.50"},
		{in: "12345678", want: "₹1,23,45,678.00"},
		{in: "-500", want: "-₹500.00"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			if got := FormatINR(decimal.RequireFromString(tc.in)); got != tc.want {
				t.Fatalf("FormatINR(%s) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	if _, err := NewProvider(Config{Provider: ProviderLog}, nil); err != nil {
		t.Fatalf("log provider: %v", err)
	}
	if _, err := NewProvider(Config{Provider: ProviderResend}, nil); err == nil {
		t.Fatal("expected error for resend without api key")
	}
	if _, err := NewProvider(Config{Provider: "postmark"}, nil); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
