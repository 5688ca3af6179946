package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// REST is the shared plumbing of the exchange adapters: base URL resolution,
// request pacing, JSON decoding and a per-instance market cache.
type REST struct {
	id      string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter

	markets Markets
}

// Limit describes a public request budget of Actions per Interval.
type Limit struct {
	Interval time.Duration
	Actions  int
}

// NewREST builds the REST helper for exchange id. defaultBase is used when
// opts carries no BaseURL override and budget applies only when
// opts.RateLimit is set.
func NewREST(id, defaultBase string, budget Limit, opts Options) *REST {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBase
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit {
		limiter = NewRateLimit(budget.Interval, budget.Actions)
	}

	return &REST{
		id:      id,
		baseURL: base,
		http:    client,
		limiter: limiter,
	}
}

// NewRateLimit converts a budget of actions per interval into a limiter with
// a burst of one. A non-positive budget is unlimited.
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}

	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// ID returns the exchange id.
func (r *REST) ID() string {
	return r.id
}

// BaseURL returns the resolved REST endpoint.
func (r *REST) BaseURL() string {
	return r.baseURL
}

// GetJSON issues a paced GET request to path and decodes the JSON body into
// out.
func (r *REST) GetJSON(ctx context.Context, path string, q url.Values, out any) error {
	u, err := url.Parse(r.baseURL + path)
	if err != nil {
		return fmt.Errorf("%s: parse url: %w", r.id, err)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", r.id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", r.id, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http get: %w", r.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return fmt.Errorf("%s: http %d: %s", r.id, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", r.id, err)
	}
	return nil
}

// CachedMarkets returns the cached markets, calling load on first use.
func (r *REST) CachedMarkets(ctx context.Context, load func(context.Context) (Markets, error)) (Markets, error) {
	if r.markets != nil {
		return r.markets, nil
	}

	m, err := load(ctx)
	if err != nil {
		return nil, err
	}
	r.markets = m
	return m, nil
}

// Resolve maps a unified pair to its market, loading markets if needed.
// Pairs are matched case-insensitively and "-" or "_" separators are
// accepted in place of "/".
func (r *REST) Resolve(ctx context.Context, pair string, load func(context.Context) (Markets, error)) (Market, error) {
	markets, err := r.CachedMarkets(ctx, load)
	if err != nil {
		return Market{}, err
	}

	sym := UnifiedSymbol(pair)
	if m, ok := markets[sym]; ok {
		return m, nil
	}
	for _, m := range markets {
		if strings.EqualFold(m.ID, strings.TrimSpace(pair)) {
			return m, nil
		}
	}
	return Market{}, fmt.Errorf("%w: %s on %s", ErrUnknownPair, pair, r.id)
}

// UnifiedSymbol normalises "btc-usdt", "BTC_USDT" and "BTC/USDT" to
// "BTC/USDT".
func UnifiedSymbol(pair string) string {
	s := strings.ToUpper(strings.TrimSpace(pair))
	return strings.NewReplacer("-", "/", "_", "/").Replace(s)
}
