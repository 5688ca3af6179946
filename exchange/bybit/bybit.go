// Package bybit implements the exchange gateway for Bybit spot markets.
package bybit

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
	ID = "bybit"

	baseURL         = "https://api.bybit.com"
	instrumentsPath = "/v5/market/instruments-info"
	klinePath       = "/v5/market/kline"
	category        = "spot"
	maxLimit        = 1000
)

var budget = exchange.Limit{Interval: time.Second, Actions: 10}

// unified interval -> bybit interval, and the bucket length used to bound
// each request.
var intervals = map[string]struct {
	code string
	dur  time.Duration
}{
	"1m":  {"1", time.Minute},
	"3m":  {"3", 3 * time.Minute},
	"5m":  {"5", 5 * time.Minute},
	"15m": {"15", 15 * time.Minute},
	"30m": {"30", 30 * time.Minute},
	"1h":  {"60", time.Hour},
	"2h":  {"120", 2 * time.Hour},
	"4h":  {"240", 4 * time.Hour},
	"6h":  {"360", 6 * time.Hour},
	"12h": {"720", 12 * time.Hour},
	"1d":  {"D", 24 * time.Hour},
	"1w":  {"W", 7 * 24 * time.Hour},
	"1M":  {"M", 31 * 24 * time.Hour},
}

func init() {
	exchange.Register(ID, func(opts exchange.Options) (exchange.Exchange, error) {
		return New(opts), nil
	})
}

// Bybit is the Bybit V5 REST client.
type Bybit struct {
	*exchange.REST

	now func() time.Time
}

// New returns a Bybit client configured by opts.
func New(opts exchange.Options) *Bybit {
	return &Bybit{REST: exchange.NewREST(ID, baseURL, budget, opts), now: time.Now}
}

// MaxBatch is the most candles one request returns.
func (b *Bybit) MaxBatch() int {
	return maxLimit
}

type envelope[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
}

func (e envelope[T]) err() error {
	if e.RetCode != 0 {
		return fmt.Errorf("bybit: api error %d: %s", e.RetCode, e.RetMsg)
	}
	return nil
}

// LoadMarkets returns the spot instruments keyed by unified symbol.
func (b *Bybit) LoadMarkets(ctx context.Context) (exchange.Markets, error) {
	return b.CachedMarkets(ctx, b.loadMarkets)
}

func (b *Bybit) loadMarkets(ctx context.Context) (exchange.Markets, error) {
	var resp envelope[struct {
		List []struct {
			Symbol    string `json:"symbol"`
			BaseCoin  string `json:"baseCoin"`
			QuoteCoin string `json:"quoteCoin"`
			Status    string `json:"status"`
		} `json:"list"`
	}]

	q := url.Values{}
	q.Set("category", category)
	if err := b.GetJSON(ctx, instrumentsPath, q, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	markets := make(exchange.Markets, len(resp.Result.List))
	for _, s := range resp.Result.List {
		sym := s.BaseCoin + "/" + s.QuoteCoin
		markets[sym] = exchange.Market{
			Symbol: sym,
			ID:     s.Symbol,
			Base:   s.BaseCoin,
			Quote:  s.QuoteCoin,
			Active: s.Status == "Trading",
		}
	}
	return markets, nil
}

// FetchOHLCV returns up to limit candles opening at or after since, oldest
// first. Bybit answers with the newest candles of a start/end range, so
// bounded windows are walked forward with a Pager.
func (b *Bybit) FetchOHLCV(ctx context.Context, pair, interval string, since int64, limit int) ([]market.Candle, error) {
	iv, ok := intervals[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", exchange.ErrUnsupportedInterval, interval, ID)
	}
	m, err := b.Resolve(ctx, pair, b.loadMarkets)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	p := exchange.Pager{Step: iv.dur, Grow: true, Now: b.now}
	return p.Fetch(ctx, since, limit, func(ctx context.Context, from, to int64, limit int) ([]market.Candle, error) {
		return b.window(ctx, m.ID, iv.code, from, to, limit)
	})
}

// window fetches the candles opening in [from, to]; both bounds are
// inclusive.
func (b *Bybit) window(ctx context.Context, symbol, code string, from, to int64, limit int) ([]market.Candle, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", symbol)
	q.Set("interval", code)
	q.Set("start", strconv.FormatInt(from, 10))
	q.Set("end", strconv.FormatInt(to, 10))
	q.Set("limit", strconv.Itoa(limit))

	var resp envelope[struct {
		List [][]string `json:"list"`
	}]
	if err := b.GetJSON(ctx, klinePath, q, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	return parseKlines(resp.Result.List)
}

// parseKlines converts the Bybit wire format and returns candles oldest
// first.
//
//	[0] start time (ms)  [1] open  [2] high  [3] low  [4] close  [5] volume
//	[6] turnover (unused)
func parseKlines(rows [][]string) ([]market.Candle, error) {
	out := make([]market.Candle, 0, len(rows))
	for i, r := range rows {
		if len(r) < 6 {
			return nil, fmt.Errorf("bybit: kline[%d] has %d fields, want >=6", i, len(r))
		}

		ts, err := strconv.ParseInt(r[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bybit: kline[%d] start time: %w", i, err)
		}
		o, h, l, c, v, err := exchange.ParseOHLCV(r[1], r[2], r[3], r[4], r[5])
		if err != nil {
			return nil, fmt.Errorf("bybit: kline[%d]: %w", i, err)
		}
		out = append(out, market.Candle{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: v})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}
