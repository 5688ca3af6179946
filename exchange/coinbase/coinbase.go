// Package coinbase implements the exchange gateway for the Coinbase Exchange
// public market data API.
package coinbase

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/charti/exchange"
	"github.com/rustyeddy/charti/market"
)

const (
	ID = "coinbase"

	baseURL      = "https://api.exchange.coinbase.com"
	productsPath = "/products"
	candlesPath  = "/products/%s/candles"
	maxLimit     = 300
)

var budget = exchange.Limit{Interval: time.Second, Actions: 10}

// Coinbase only serves these granularities (seconds).
var granularities = map[string]int64{
	"1m":  60,
	"5m":  300,
	"15m": 900,
	"1h":  3600,
	"6h":  21600,
	"1d":  86400,
}

func init() {
	exchange.Register(ID, func(opts exchange.Options) (exchange.Exchange, error) {
		return New(opts), nil
	})
}

// Coinbase is the Coinbase Exchange REST client.
type Coinbase struct {
	*exchange.REST

	now func() time.Time
}

// New returns a Coinbase client configured by opts.
func New(opts exchange.Options) *Coinbase {
	return &Coinbase{REST: exchange.NewREST(ID, baseURL, budget, opts), now: time.Now}
}

// MaxBatch is the most candles one request returns.
func (c *Coinbase) MaxBatch() int {
	return maxLimit
}

type product struct {
	ID            string `json:"id"`
	BaseCurrency  string `json:"base_currency"`
	QuoteCurrency string `json:"quote_currency"`
	Status        string `json:"status"`
}

// LoadMarkets returns every product keyed by unified symbol.
func (c *Coinbase) LoadMarkets(ctx context.Context) (exchange.Markets, error) {
	return c.CachedMarkets(ctx, c.loadMarkets)
}

func (c *Coinbase) loadMarkets(ctx context.Context) (exchange.Markets, error) {
	var products []product
	if err := c.GetJSON(ctx, productsPath, nil, &products); err != nil {
		return nil, err
	}

	markets := make(exchange.Markets, len(products))
	for _, p := range products {
		sym := p.BaseCurrency + "/" + p.QuoteCurrency
		markets[sym] = exchange.Market{
			Symbol: sym,
			ID:     p.ID,
			Base:   p.BaseCurrency,
			Quote:  p.QuoteCurrency,
			Active: p.Status == "online",
		}
	}
	return markets, nil
}

// FetchOHLCV returns up to limit candles opening at or after since, oldest
// first. Coinbase rejects ranges wider than maxLimit buckets, so windows of
// limit buckets are walked forward with a Pager.
func (c *Coinbase) FetchOHLCV(ctx context.Context, pair, interval string, since int64, limit int) ([]market.Candle, error) {
	gran, ok := granularities[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", exchange.ErrUnsupportedInterval, interval, ID)
	}
	m, err := c.Resolve(ctx, pair, c.loadMarkets)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	// Coinbase rounds start down to a bucket boundary; round up instead so
	// the candle at since-1 is not served again.
	step := gran * 1000
	aligned := (since + step - 1) / step * step

	p := exchange.Pager{Step: time.Duration(gran) * time.Second, Now: c.now}
	return p.Fetch(ctx, aligned, limit, func(ctx context.Context, from, to int64, _ int) ([]market.Candle, error) {
		return c.window(ctx, m.ID, gran, from, to)
	})
}

// window fetches the candles opening in [from, to]. end names the open time
// of the last bucket.
func (c *Coinbase) window(ctx context.Context, productID string, gran, from, to int64) ([]market.Candle, error) {
	step := gran * 1000
	last := to - (to-from)%step

	q := url.Values{}
	q.Set("granularity", strconv.FormatInt(gran, 10))
	q.Set("start", time.UnixMilli(from).UTC().Format(time.RFC3339))
	q.Set("end", time.UnixMilli(last).UTC().Format(time.RFC3339))

	var rows [][]decimal.Decimal
	if err := c.GetJSON(ctx, fmt.Sprintf(candlesPath, url.PathEscape(productID)), q, &rows); err != nil {
		return nil, err
	}
	return parseCandles(rows, from)
}

// parseCandles converts the Coinbase wire format.
//
//	[0] time (s)  [1] low  [2] high  [3] open  [4] close  [5] volume
//
// Coinbase rounds start down to the bucket boundary, so candles opening
// before since are dropped.
func parseCandles(rows [][]decimal.Decimal, since int64) ([]market.Candle, error) {
	out := make([]market.Candle, 0, len(rows))
	for i, r := range rows {
		if len(r) < 6 {
			return nil, fmt.Errorf("coinbase: candle[%d] has %d fields, want 6", i, len(r))
		}

		ts := r[0].IntPart() * 1000
		if ts < since {
			continue
		}
		out = append(out, market.Candle{
			Timestamp: ts,
			Open:      r[3].InexactFloat64(),
			High:      r[2].InexactFloat64(),
			Low:       r[1].InexactFloat64(),
			Close:     r[4].InexactFloat64(),
			Volume:    r[5].InexactFloat64(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}
