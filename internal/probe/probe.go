package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"

	"github.com/kzgceremony/seqdeploy/internal/config"
	"github.com/kzgceremony/seqdeploy/internal/util/async"
	"github.com/kzgceremony/seqdeploy/internal/util/retry"
)

// Result is the outcome of checking one target.
type Result struct {
	Target   Target
	Status   int
	Location string
	Families int
	Attempts int
	Duration time.Duration
	Err      error
}

// OK reports whether the check passed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Prober runs checks and records their results.
type Prober struct {
	app      string
	client   *http.Client
	insecure bool
	dialer   *net.Dialer
	timeouts *config.Timeouts
	registry *prometheus.Registry
	metrics  *metrics
	retries  int
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient bases the prober's client on a copy of c. Redirects are
// never followed regardless of c's CheckRedirect; c itself is not modified.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) {
		p.client = c
	}
}

// WithTimeouts sets custom timeouts.
func WithTimeouts(t *config.Timeouts) Option {
	return func(p *Prober) {
		p.timeouts = t
	}
}

// WithInsecureTLS skips certificate verification, for self-signed local runs.
// It applies to a clone of the client's transport; transports other than
// *http.Transport are used as given.
func WithInsecureTLS() Option {
	return func(p *Prober) {
		p.insecure = true
	}
}

// WithRetries sets how many times a failing check is retried.
func WithRetries(n int) Option {
	return func(p *Prober) {
		p.retries = n
	}
}

// New creates a Prober for app.
func New(app string, opts ...Option) *Prober {
	reg := prometheus.NewRegistry()
	p := &Prober{
		app:      app,
		dialer:   &net.Dialer{},
		timeouts: config.LoadTimeouts(),
		registry: reg,
		metrics:  newMetrics(reg),
	}
	p.retries = p.timeouts.RetryMaxAttempts
	for _, opt := range opts {
		opt(p)
	}
	p.client = p.buildClient()
	return p
}

// buildClient copies the configured client and applies the prober's
// redirect and TLS settings to the copy.
func (p *Prober) buildClient() *http.Client {
	client := &http.Client{}
	if p.client != nil {
		copied := *p.client
		client = &copied
	}
	if p.insecure {
		client.Transport = insecureTransport(client.Transport)
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}

func insecureTransport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	base, ok := rt.(*http.Transport)
	if !ok {
		return rt
	}
	t := base.Clone()
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	// #nosec G402 -- opt-in for local endpoints with self-signed certificates
	t.TLSClientConfig.InsecureSkipVerify = true
	return t
}

// Registry returns the registry holding probe metrics.
func (p *Prober) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the probe metrics in the Prometheus exposition format.
func (p *Prober) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// errNotChecked marks a target whose check never ran.
var errNotChecked = errors.New("not checked")

// Run checks all targets in parallel and returns results in target order.
// Targets skipped because ctx ended report the context error.
func (p *Prober) Run(ctx context.Context, targets []Target) []Result {
	results := make([]Result, len(targets))
	tasks := make([]async.Task, len(targets))
	for i, t := range targets {
		results[i] = Result{Target: t, Err: errNotChecked}
		tasks[i] = async.Task{Name: t.Name, Func: func(ctx context.Context) error {
			results[i] = p.Check(ctx, t)
			return nil
		}}
	}
	if err := async.RunParallel(ctx, tasks, 0); err != nil {
		for i := range results {
			if errors.Is(results[i].Err, errNotChecked) {
				results[i].Err = fmt.Errorf("%w: %w", errNotChecked, err)
			}
		}
	}
	return results
}

// Check runs a single target, retrying failures with backoff.
func (p *Prober) Check(ctx context.Context, t Target) Result {
	log := logr.FromContextOrDiscard(ctx).WithValues("target", t.Name)
	start := time.Now()

	var r Result
	attempts := 0
	err := retry.WithExponentialBackoff(ctx, func() error {
		attempts++
		r = p.checkOnce(ctx, t)
		return r.Err
	},
		retry.WithName("probe "+t.Name),
		retry.WithLogger(log),
		retry.WithMaxRetries(p.retries),
		retry.WithInitialDelay(p.timeouts.RetryInitialDelay))

	r.Target = t
	r.Attempts = attempts
	r.Duration = time.Since(start)
	if err != nil {
		r.Err = err
	}

	p.metrics.record(p.app, r)
	if r.OK() {
		log.V(1).Info("check passed", "status", r.Status, "attempts", attempts)
	} else {
		log.Info("check failed", "error", r.Err.Error(), "attempts", attempts)
	}
	return r
}

func (p *Prober) checkOnce(ctx context.Context, t Target) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Probe)
	defer cancel()

	r := Result{Target: t}
	switch t.Kind {
	case KindTCP:
		conn, err := p.dialer.DialContext(ctx, "tcp", t.Address)
		if err != nil {
			r.Err = fmt.Errorf("connect %s: %w", t.Address, err)
			return r
		}
		_ = conn.Close()
	case KindRedirect:
		resp, err := p.get(ctx, t)
		if err != nil {
			r.Err = err
			return r
		}
		r.Status, r.Location = resp.StatusCode, resp.Header.Get("Location")
		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			r.Err = retry.Fatal(fmt.Errorf("expected a redirect to https, got status %d", resp.StatusCode))
		} else if !strings.HasPrefix(r.Location, "https://") {
			r.Err = retry.Fatal(fmt.Errorf("redirect location %q is not https", r.Location))
		}
	case KindHTTP, KindHTTPS:
		resp, err := p.get(ctx, t)
		if err != nil {
			r.Err = err
			return r
		}
		r.Status = resp.StatusCode
		if resp.StatusCode >= 500 {
			r.Err = fmt.Errorf("server error: status %d", resp.StatusCode)
		}
	case KindMetrics:
		r.Families, r.Status, r.Err = p.scrape(ctx, t)
	default:
		r.Err = retry.Fatal(fmt.Errorf("unknown check kind %q", t.Kind))
	}
	return r
}

// get performs the request and drains the body.
func (p *Prober) get(ctx context.Context, t Target) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL(), nil)
	if err != nil {
		return nil, retry.Fatal(err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp, nil
}

// scrape fetches the metrics endpoint and returns the number of metric families.
func (p *Prober) scrape(ctx context.Context, t Target) (int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL(), nil)
	if err != nil {
		return 0, 0, retry.Fatal(err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, resp.StatusCode, fmt.Errorf("metrics endpoint returned status %d", resp.StatusCode)
	}

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return 0, resp.StatusCode, retry.Fatal(fmt.Errorf("metrics endpoint did not serve the text format: %w", err))
	}
	if len(families) == 0 {
		return 0, resp.StatusCode, errors.New("metrics endpoint exposed no metric families")
	}
	return len(families), resp.StatusCode, nil
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
