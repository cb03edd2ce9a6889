package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIsFestivalTheme(t *testing.T) {
	tests := []struct {
		theme string
		want  bool
	}{
		{theme: ThemeNone, want: true},
		{theme: "diwali", want: true},
		{theme: "makar-sankranti", want: true},
		{theme: "Diwali", want: false},
		{theme: "christmas", want: false},
		{theme: "", want: false},
	}

	for _, tt := range tests {
		if got := IsFestivalTheme(tt.theme); got != tt.want {
			t.Errorf("IsFestivalTheme(%q) = %v, want %v", tt.theme, got, tt.want)
		}
	}
}

func TestOrderJSONUsesCheckoutFieldNames(t *testing.T) {
	order := Order{
		Items:           []OrderItem{{ProductID: "p1", Name: "Bee Tee", Quantity: 1}},
		ShippingAddress: ShippingAddress{Phone: "9876543210"},
	}

	raw, err := json.Marshal(order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"products":[`, `"productId":"p1"`, `"phoneNumber":"9876543210"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in %s", want, body)
		}
	}

	var decoded ShippingAddress
	if err := json.Unmarshal([]byte(`{"phoneNumber":"9123456789"}`), &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Phone != "9123456789" {
		t.Errorf("expected phoneNumber to decode, got %q", decoded.Phone)
	}
}
