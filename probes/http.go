package probes

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jonwraymond/healthwatch/health"
)

// HTTP checks an HTTP endpoint with a GET request.
//
// 2xx is Healthy, 4xx is Warning (usually a misconfigured probe) and 5xx or
// a transport error is Critical.
type HTTP struct {
	component string
	url       string
	client    *http.Client
}

// NewHTTP creates a probe for url. A nil client uses http.DefaultClient;
// the runner's timeout bounds the request through its context.
func NewHTTP(component, url string, client *http.Client) *HTTP {
	if component == "" {
		component = "application"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{component: component, url: url, client: client}
}

// Name returns the component name.
func (h *HTTP) Name() string { return h.component }

// Check performs the request.
func (h *HTTP) Check(ctx context.Context) health.CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return health.Critical("invalid probe request", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return health.Critical(fmt.Sprintf("GET %s failed", h.url), err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	code := resp.StatusCode
	msg := fmt.Sprintf("GET %s: %d", h.url, code)

	var result health.CheckResult
	switch {
	case code >= 200 && code < 300:
		result = health.Healthy(msg)
	case code >= 400 && code < 500:
		result = health.Warning(msg)
	default:
		result = health.Critical(msg, fmt.Errorf("%w: %d", ErrUnexpectedStatus, code))
	}
	return result.WithMetric(MetricStatusCode, float64(code))
}
