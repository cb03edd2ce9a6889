package services

import (
	"strings"
	"testing"
)

func TestResolveShippingCarrier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		provider     string
		carrier      string
		otherCarrier string
		want         string
	}{
		{
			name:     "known provider india post",
			provider: "india-post",
			want:     "India Post",
		},
		{
			name:     "speed post maps to india post",
			provider: "Speed Post",
			want:     "India Post",
		},
		{
			name:     "known provider blue dart",
			provider: "BLUEDART",
			want:     "Blue Dart",
		},
		{
			name:     "known provider delhivery",
			provider: "Delhivery",
			want:     "Delhivery",
		},
		{
			name:         "other provider uses custom value",
			provider:     "other",
			otherCarrier: "Ekart",
			want:         "Ekart",
		},
		{
			name:    "carrier fallback normalizes known names",
			carrier: "dtdc",
			want:    "DTDC",
		},
		{
			name:    "carrier fallback keeps custom names",
			carrier: "Shadowfax",
			want:    "Shadowfax",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ResolveShippingCarrier(tc.provider, tc.carrier, tc.otherCarrier)
			if got != tc.want {
				t.Fatalf("ResolveShippingCarrier() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildTrackingURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		carrier    string
		tracking   string
		wantPrefix string
	}{
		{
			name:       "india post",
			carrier:    "India Post",
			tracking:   "EE123456789IN",
			wantPrefix: "https://www.indiapost.gov.in/",
		},
		{
			name:       "delhivery",
			carrier:    "Delhivery",
			tracking:   "1234567890",
			wantPrefix: "https://www.delhivery.com/track/package/1234567890",
		},
		{
			name:       "blue dart escapes number",
			carrier:    "Blue Dart",
			tracking:   "AB 12",
			wantPrefix: "https://www.bluedart.com/trackdartresultthirdparty?trackFor=0&trackNo=AB+12",
		},
		{
			name:     "unknown carrier",
			carrier:  "Shadowfax",
			tracking: "SF1",
		},
		{
			name:    "missing tracking number",
			carrier: "DTDC",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := BuildTrackingURL(tc.carrier, tc.tracking)
			if tc.wantPrefix == "" {
				if got != "" {
					t.Fatalf("BuildTrackingURL() = %q, want empty", got)
				}
				return
			}
			if !strings.HasPrefix(got, tc.wantPrefix) {
				t.Fatalf("BuildTrackingURL() = %q, want prefix %q", got, tc.wantPrefix)
			}
		})
	}
}
