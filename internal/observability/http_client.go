package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	sentryhttpclient "github.com/getsentry/sentry-go/httpclient"
)

// Outbound providers that receive trace headers.
var tracePropagationTargets = []string{
	"api.razorpay.com",
	"api.stripe.com",
	"api.resend.com",
}

// NewProviderClient returns the HTTP client for calls to an external provider
// such as the payment gateway or the mail API. Each call is traced as a child
// span and counted under provider by status class.
func NewProviderClient(provider string, timeout time.Duration) *http.Client {
	client := &http.Client{
		Transport: &providerTransport{
			provider: provider,
			next: sentryhttpclient.NewSentryRoundTripper(
				http.DefaultTransport,
				sentryhttpclient.WithTracePropagationTargets(tracePropagationTargets),
			),
		},
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

type providerTransport struct {
	provider string
	next     http.RoundTripper
}

func (t *providerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	outcome := "error"
	if err == nil {
		outcome = fmt.Sprintf("%dxx", resp.StatusCode/100)
	}
	ctx := req.Context()
	meter := MeterFromContext(ctx)
	meter.Count("provider.requests", 1, sentry.WithAttributes(
		attribute.String("provider", t.provider),
		attribute.String("outcome", outcome),
	))
	meter.Distribution(
		"provider.duration",
		float64(time.Since(start).Milliseconds()),
		sentry.WithUnit(sentry.UnitMillisecond),
		sentry.WithAttributes(attribute.String("provider", t.provider)),
	)
	return resp, err
}
