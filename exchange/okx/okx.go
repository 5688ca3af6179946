// Package okx implements the exchange gateway for OKX spot markets.
package okx

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rustyeddy/charti/exchange"
	"github.com/rustyeddy/charti/market"
)

const (
	ID = "okx"

	baseURL         = "https://www.okx.com"
	instrumentsPath = "/api/v5/public/instruments"
	klinePath       = "/api/v5/market/history-candles"
	maxLimit        = 100
)

// history-candles allows 20 requests per 2 seconds.
var budget = exchange.Limit{Interval: 2 * time.Second, Actions: 20}

// Bars of six hours and longer use the UTC aligned variants so daily candles
// open at 00:00 UTC.
var intervals = map[string]struct {
	bar string
	dur time.Duration
}{
	"1m":  {"1m", time.Minute},
	"3m":  {"3m", 3 * time.Minute},
	"5m":  {"5m", 5 * time.Minute},
	"15m": {"15m", 15 * time.Minute},
	"30m": {"30m", 30 * time.Minute},
	"1h":  {"1H", time.Hour},
	"2h":  {"2H", 2 * time.Hour},
	"4h":  {"4H", 4 * time.Hour},
	"6h":  {"6Hutc", 6 * time.Hour},
	"12h": {"12Hutc", 12 * time.Hour},
	"1d":  {"1Dutc", 24 * time.Hour},
	"1w":  {"1Wutc", 7 * 24 * time.Hour},
	"1M":  {"1Mutc", 31 * 24 * time.Hour},
}

func init() {
	exchange.Register(ID, func(opts exchange.Options) (exchange.Exchange, error) {
		return New(opts), nil
	})
}

// OKX is the OKX V5 REST client.
type OKX struct {
	*exchange.REST

	now func() time.Time
}

// New returns an OKX client configured by opts.
func New(opts exchange.Options) *OKX {
	return &OKX{REST: exchange.NewREST(ID, baseURL, budget, opts), now: time.Now}
}

// MaxBatch is the most candles one request returns.
func (o *OKX) MaxBatch() int {
	return maxLimit
}

type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func (e envelope[T]) err() error {
	if e.Code != "0" {
		return fmt.Errorf("okx: api error %s: %s", e.Code, e.Msg)
	}
	return nil
}

// LoadMarkets returns the live and suspended spot instruments.
func (o *OKX) LoadMarkets(ctx context.Context) (exchange.Markets, error) {
	return o.CachedMarkets(ctx, o.loadMarkets)
}

func (o *OKX) loadMarkets(ctx context.Context) (exchange.Markets, error) {
	var resp envelope[[]struct {
		InstID   string `json:"instId"`
		BaseCcy  string `json:"baseCcy"`
		QuoteCcy string `json:"quoteCcy"`
		State    string `json:"state"`
	}]

	q := url.Values{}
	q.Set("instType", "SPOT")
	if err := o.GetJSON(ctx, instrumentsPath, q, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	markets := make(exchange.Markets, len(resp.Data))
	for _, s := range resp.Data {
		sym := s.BaseCcy + "/" + s.QuoteCcy
		markets[sym] = exchange.Market{
			Symbol: sym,
			ID:     s.InstID,
			Base:   s.BaseCcy,
			Quote:  s.QuoteCcy,
			Active: s.State == "live",
		}
	}
	return markets, nil
}

// FetchOHLCV returns up to limit candles opening at or after since, oldest
// first. history-candles only answers for a before/after window and keeps the
// newest records of it, so windows are walked forward with a Pager.
func (o *OKX) FetchOHLCV(ctx context.Context, pair, interval string, since int64, limit int) ([]market.Candle, error) {
	iv, ok := intervals[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", exchange.ErrUnsupportedInterval, interval, ID)
	}
	m, err := o.Resolve(ctx, pair, o.loadMarkets)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	p := exchange.Pager{Step: iv.dur, Grow: true, Now: o.now}
	return p.Fetch(ctx, since, limit, func(ctx context.Context, from, to int64, limit int) ([]market.Candle, error) {
		return o.window(ctx, m.ID, iv.bar, from, to, limit)
	})
}

// window fetches the candles opening in [from, to]. before and after are
// exclusive bounds.
func (o *OKX) window(ctx context.Context, instID, bar string, from, to int64, limit int) ([]market.Candle, error) {
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("bar", bar)
	q.Set("before", strconv.FormatInt(from-1, 10))
	q.Set("after", strconv.FormatInt(to+1, 10))
	q.Set("limit", strconv.Itoa(limit))

	var resp envelope[[][]string]
	if err := o.GetJSON(ctx, klinePath, q, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	return parseKlines(resp.Data)
}

// parseKlines converts the OKX wire format and returns candles oldest first.
//
//	[0] ts (ms)  [1] o  [2] h  [3] l  [4] c  [5] vol (base)  [6..8] unused
func parseKlines(rows [][]string) ([]market.Candle, error) {
	out := make([]market.Candle, 0, len(rows))
	for i, r := range rows {
		if len(r) < 6 {
			return nil, fmt.Errorf("okx: kline[%d] has %d fields, want >=6", i, len(r))
		}

		ts, err := strconv.ParseInt(r[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("okx: kline[%d] ts: %w", i, err)
		}
		op, h, l, c, v, err := exchange.ParseOHLCV(r[1], r[2], r[3], r[4], r[5])
		if err != nil {
			return nil, fmt.Errorf("okx: kline[%d]: %w", i, err)
		}
		out = append(out, market.Candle{Timestamp: ts, Open: op, High: h, Low: l, Close: c, Volume: v})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}
