package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"gopkg.in/mail.v2"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/config"
	"github.com/jonwraymond/healthwatch/observe"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testAlert() alert.Alert {
	return alert.Alert{
		ID:              "a-1",
		Type:            alert.TypeComponentUnhealthy,
		Component:       "database",
		Severity:        alert.SeverityCritical,
		PeakSeverity:    alert.SeverityCritical,
		Message:         "database unreachable",
		FirstSeenAt:     t0,
		LastSeenAt:      t0.Add(time.Minute),
		OccurrenceCount: 2,
		Context:         map[string]any{"error": "connection refused", "attempt": 2},
	}
}

func resolved(a alert.Alert) alert.Alert {
	at := t0.Add(5 * time.Minute)
	a.ResolvedAt = &at
	return a
}

// scriptedGateway returns errs in order, then nil.
type scriptedGateway struct {
	mu    sync.Mutex
	errs  []error
	calls int
	sent  []alert.Alert
}

func (g *scriptedGateway) Send(ctx context.Context, a alert.Alert) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return err
		}
	}
	g.sent = append(g.sent, a)
	return nil
}

func TestSubjectAndBody(t *testing.T) {
	a := testAlert()
	if got := Subject(a); got != "[CRITICAL] component_unhealthy on database" {
		t.Errorf("Subject() = %q", got)
	}
	if got := Subject(resolved(a)); !strings.HasPrefix(got, "[RESOLVED]") {
		t.Errorf("resolved Subject() = %q", got)
	}

	body := Body(a)
	for _, want := range []string{"database unreachable", "Occurrences: 2", "attempt: 2\n  error: connection refused"} {
		if !strings.Contains(body, want) {
			t.Errorf("Body() missing %q:\n%s", want, body)
		}
	}
}

func TestNewEvent(t *testing.T) {
	if e := NewEvent(testAlert(), t0); e.Event != EventFiring {
		t.Errorf("Event = %q, want firing", e.Event)
	}
	if e := NewEvent(resolved(testAlert()), t0); e.Event != EventResolved {
		t.Errorf("Event = %q, want resolved", e.Event)
	}
}

func TestWebhook(t *testing.T) {
	var got Event
	var header, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		header = r.Header.Get("X-Token")
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{URL: srv.URL, Headers: map[string]string{"X-Token": "abc"}, Client: srv.Client()})
	if err := wh.Send(context.Background(), testAlert()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if header != "abc" || contentType != "application/json" {
		t.Errorf("headers = %q, %q", header, contentType)
	}
	if got.Event != EventFiring || got.Alert.ID != "a-1" || got.Alert.Severity != alert.SeverityCritical {
		t.Errorf("event = %+v", got)
	}
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(WebhookConfig{URL: srv.URL}).Send(context.Background(), testAlert())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("Send() error = %v, want ErrUnexpectedStatus", err)
	}
}

type fakeDialer struct {
	msgs []*mail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*mail.Message) error {
	d.msgs = append(d.msgs, m...)
	return d.err
}

func TestMail(t *testing.T) {
	d := &fakeDialer{}
	m := newMail("healthwatch@example.com", []string{"oncall@example.com", "ops@example.com"}, d)

	if err := m.Send(context.Background(), testAlert()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(d.msgs) != 1 {
		t.Fatalf("sent %d messages", len(d.msgs))
	}
	msg := d.msgs[0]
	if got := msg.GetHeader("Subject"); len(got) != 1 || got[0] != Subject(testAlert()) {
		t.Errorf("Subject = %v", got)
	}
	if got := msg.GetHeader("To"); len(got) != 2 {
		t.Errorf("To = %v", got)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "database unreachable") {
		t.Error("body missing alert message")
	}

	d.err = errors.New("535 auth failed")
	if err := m.Send(context.Background(), testAlert()); err == nil {
		t.Error("dial failure not reported")
	}
}

func TestMail_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := newMail("a@b.c", []string{"d@e.f"}, d).Send(ctx, testAlert()); !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v", err)
	}
	if len(d.msgs) != 0 {
		t.Error("message sent despite cancelled context")
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { w.closed = true; return nil }

func TestKafka(t *testing.T) {
	w := &fakeWriter{}
	k := NewKafka(w)

	if err := k.Send(context.Background(), resolved(testAlert())); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "a-1" {
		t.Fatalf("messages = %+v", w.msgs)
	}
	var e Event
	if err := json.Unmarshal(w.msgs[0].Value, &e); err != nil {
		t.Fatal(err)
	}
	if e.Event != EventResolved {
		t.Errorf("Event = %q, want resolved", e.Event)
	}

	w.err = errors.New("leader not available")
	if err := k.Send(context.Background(), testAlert()); err == nil {
		t.Error("write failure not reported")
	}
	_ = k.Close()
	if !w.closed {
		t.Error("writer not closed")
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(observe.NewLoggerWithWriter("debug", &buf))

	a := testAlert()
	_ = l.Send(context.Background(), a)
	a.Severity = alert.SeverityWarning
	_ = l.Send(context.Background(), a)
	_ = l.Send(context.Background(), resolved(a))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("logged %d lines:\n%s", len(lines), buf.String())
	}
	wantLevels := []string{"error", "warn", "info"}
	for i, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatal(err)
		}
		if entry["level"] != wantLevels[i] {
			t.Errorf("line %d level = %v, want %s", i, entry["level"], wantLevels[i])
		}
		if entry["alert_id"] != "a-1" {
			t.Errorf("line %d alert_id = %v", i, entry["alert_id"])
		}
	}
}

func TestRetry(t *testing.T) {
	transient := errors.New("503")
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"succeeds first", nil, 1, nil},
		{"recovers", []error{transient, transient}, 3, nil},
		{"exhausted", []error{transient, transient, transient, transient}, 3, transient},
		{"circuit open not retried", []error{ErrCircuitOpen}, 1, ErrCircuitOpen},
		{"throttled not retried", []error{ErrThrottled}, 1, ErrThrottled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &scriptedGateway{errs: tt.errs}
			var delays []time.Duration
			r := NewRetry(g, RetryConfig{
				InitialDelay: 10 * time.Millisecond,
				OnRetry:      func(_ int, _ error, d time.Duration) { delays = append(delays, d) },
			})
			r.sleep = func(context.Context, time.Duration) error { return nil }

			err := r.Send(context.Background(), testAlert())
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Send() error = %v, want %v", err, tt.wantErr)
			}
			if g.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", g.calls, tt.wantCalls)
			}
			if len(delays) == 2 && delays[1] != 2*delays[0] {
				t.Errorf("delays = %v, want exponential", delays)
			}
		})
	}
}

func TestRetry_DelayCap(t *testing.T) {
	r := NewRetry(&scriptedGateway{}, RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second})
	if got := r.delay(5); got != 3*time.Second {
		t.Errorf("delay(5) = %v, want cap 3s", got)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	g := &scriptedGateway{errs: []error{errors.New("down"), errors.New("down")}}
	r := NewRetry(g, RetryConfig{InitialDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := r.Send(ctx, testAlert())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() error = %v, want deadline", err)
	}
	if g.calls != 1 {
		t.Errorf("calls = %d, want 1", g.calls)
	}
}

func TestBreaker(t *testing.T) {
	now := t0
	g := &scriptedGateway{errs: []error{errors.New("x"), errors.New("x"), errors.New("x")}}
	var transitions []string
	b := NewBreaker(g, BreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
		OnStateChange: func(from, to BreakerState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Send(ctx, testAlert())
	_ = b.Send(ctx, testAlert())
	if b.State() != BreakerOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}
	if err := b.Send(ctx, testAlert()); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open Send() error = %v", err)
	}
	if g.calls != 2 {
		t.Errorf("calls = %d, want 2", g.calls)
	}

	// Trial send fails and reopens.
	now = now.Add(time.Minute)
	if b.State() != BreakerHalfOpen {
		t.Fatalf("State() = %v, want half-open", b.State())
	}
	_ = b.Send(ctx, testAlert())
	if b.State() != BreakerOpen {
		t.Fatalf("State() = %v after failed trial, want open", b.State())
	}

	// Trial send succeeds and closes.
	now = now.Add(time.Minute)
	if err := b.Send(ctx, testAlert()); err != nil {
		t.Fatalf("trial Send() error = %v", err)
	}
	if b.State() != BreakerClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->open", "open->half-open", "half-open->closed"}
	if strings.Join(transitions, ",") != strings.Join(want, ",") {
		t.Errorf("transitions = %v, want %v", transitions, want)
	}
}

func TestThrottle(t *testing.T) {
	g := &scriptedGateway{}
	th := NewThrottle(g, 0.001, 2)

	for i := range 2 {
		if err := th.Send(context.Background(), testAlert()); err != nil {
			t.Fatalf("send %d error = %v", i, err)
		}
	}
	if err := th.Send(context.Background(), testAlert()); !errors.Is(err, ErrThrottled) {
		t.Errorf("third Send() error = %v, want ErrThrottled", err)
	}
	if g.calls != 2 {
		t.Errorf("calls = %d, want 2", g.calls)
	}
}

func TestMulti(t *testing.T) {
	ok := &scriptedGateway{}
	bad := &scriptedGateway{errs: []error{errors.New("down"), errors.New("down")}}

	var buf bytes.Buffer
	m := NewMulti(observe.NewLoggerWithWriter("warn", &buf), Channel{Name: "ok", Gateway: ok}, Channel{Name: "bad", Gateway: bad})

	if err := m.Send(context.Background(), testAlert()); err != nil {
		t.Errorf("partial failure Send() error = %v, want nil", err)
	}
	if len(ok.sent) != 1 || bad.calls != 1 {
		t.Errorf("ok sent %d, bad calls %d", len(ok.sent), bad.calls)
	}
	if !strings.Contains(buf.String(), `"channel":"bad"`) {
		t.Errorf("partial failure not logged: %s", buf.String())
	}

	allBad := NewMulti(nil, Channel{Name: "bad", Gateway: bad})
	if err := allBad.Send(context.Background(), testAlert()); !errors.Is(err, ErrAllChannelsFailed) {
		t.Errorf("all failed Send() error = %v", err)
	}

	if err := NewMulti(nil).Send(context.Background(), testAlert()); err != nil {
		t.Errorf("empty Send() error = %v", err)
	}
}

func TestBuild(t *testing.T) {
	gw, closer, err := Build(config.NotifyConfig{}, nil)
	if err != nil || gw != nil {
		t.Fatalf("Build(empty) = %v, %v", gw, err)
	}
	_ = closer.Close()

	gw, closer, err = Build(config.NotifyConfig{
		Log:       true,
		Webhooks:  []config.WebhookNotify{{URL: "http://127.0.0.1:1/hook"}},
		Mail:      &config.MailNotify{Host: "smtp.example.com", From: "a@b.c", To: []string{"d@e.f"}},
		Kafka:     &config.KafkaNotify{Brokers: []string{"127.0.0.1:1"}, Topic: "alerts"},
		RateLimit: 5,
		Burst:     10,
	}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer closer.Close()

	th, ok := gw.(*Throttle)
	if !ok {
		t.Fatalf("gateway = %T, want *Throttle", gw)
	}
	multi, ok := th.next.(*Multi)
	if !ok {
		t.Fatalf("throttled gateway = %T, want *Multi", th.next)
	}
	names := make([]string, 0, len(multi.channels))
	for _, ch := range multi.channels {
		names = append(names, ch.Name)
	}
	if got := strings.Join(names, ","); got != "log,webhook[0],mail,kafka" {
		t.Errorf("channels = %s", got)
	}
	if _, ok := multi.channels[1].Gateway.(*Retry); !ok {
		t.Errorf("webhook channel = %T, want *Retry", multi.channels[1].Gateway)
	}
}

func TestBuild_LogOnlyDelivers(t *testing.T) {
	gw, _, err := Build(config.NotifyConfig{Log: true}, observe.NewLoggerWithWriter("info", io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if err := gw.Send(context.Background(), testAlert()); err != nil {
		t.Errorf("Send() error = %v", err)
	}
}
