// Package binance implements the exchange gateway for Binance spot markets.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/charti/exchange"
	"github.com/rustyeddy/charti/market"
)

const (
	ID = "binance"

	baseURL      = "https://api.binance.com"
	exchangeInfo = "/api/v3/exchangeInfo"
	klinePath    = "/api/v3/klines"
	maxLimit     = 1000
)

// 1200 request weight per minute, klines cost 2.
var budget = exchange.Limit{Interval: time.Minute, Actions: 600}

var intervals = map[string]bool{
	"1s": true, "1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

func init() {
	exchange.Register(ID, func(opts exchange.Options) (exchange.Exchange, error) {
		return New(opts), nil
	})
}

// Binance is the Binance REST client.
type Binance struct {
	*exchange.REST
}

// New returns a Binance client configured by opts.
func New(opts exchange.Options) *Binance {
	return &Binance{REST: exchange.NewREST(ID, baseURL, budget, opts)}
}

// MaxBatch is the most candles one request returns.
func (b *Binance) MaxBatch() int {
	return maxLimit
}

type symbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// LoadMarkets returns every spot symbol keyed by unified symbol.
func (b *Binance) LoadMarkets(ctx context.Context) (exchange.Markets, error) {
	return b.CachedMarkets(ctx, b.loadMarkets)
}

func (b *Binance) loadMarkets(ctx context.Context) (exchange.Markets, error) {
	var resp struct {
		Symbols []symbolInfo `json:"symbols"`
	}
	if err := b.GetJSON(ctx, exchangeInfo, nil, &resp); err != nil {
		return nil, err
	}

	markets := make(exchange.Markets, len(resp.Symbols))
	for _, s := range resp.Symbols {
		sym := s.BaseAsset + "/" + s.QuoteAsset
		markets[sym] = exchange.Market{
			Symbol: sym,
			ID:     s.Symbol,
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
			Active: s.Status == "TRADING",
		}
	}
	return markets, nil
}

// FetchOHLCV returns up to limit candles opening at or after since, oldest
// first. startTime already skips gaps, so one request is enough.
func (b *Binance) FetchOHLCV(ctx context.Context, pair, interval string, since int64, limit int) ([]market.Candle, error) {
	if !intervals[interval] {
		return nil, fmt.Errorf("%w: %s on %s", exchange.ErrUnsupportedInterval, interval, ID)
	}
	m, err := b.Resolve(ctx, pair, b.loadMarkets)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	q := url.Values{}
	q.Set("symbol", m.ID)
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(since, 10))
	q.Set("limit", strconv.Itoa(limit))

	// Each kline is a JSON array of mixed numbers and strings.
	var raw [][]json.RawMessage
	if err := b.GetJSON(ctx, klinePath, q, &raw); err != nil {
		return nil, err
	}
	return parseKlines(raw)
}

// parseKlines converts the Binance wire format.
//
//	[0] open time (ms)  [1] open  [2] high  [3] low  [4] close  [5] volume
//	[6] close time      [7..11] unused
func parseKlines(raw [][]json.RawMessage) ([]market.Candle, error) {
	out := make([]market.Candle, 0, len(raw))
	for i, r := range raw {
		if len(r) < 6 {
			return nil, fmt.Errorf("binance: kline[%d] has %d fields, want >=6", i, len(r))
		}

		var ts int64
		if err := json.Unmarshal(r[0], &ts); err != nil {
			return nil, fmt.Errorf("binance: kline[%d] open time: %w", i, err)
		}

		var s [5]string
		for j := range s {
			if err := json.Unmarshal(r[j+1], &s[j]); err != nil {
				return nil, fmt.Errorf("binance: kline[%d] field %d: %w", i, j+1, err)
			}
		}

		o, h, l, c, v, err := exchange.ParseOHLCV(s[0], s[1], s[2], s[3], s[4])
		if err != nil {
			return nil, fmt.Errorf("binance: kline[%d]: %w", i, err)
		}
		out = append(out, market.Candle{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: v})
	}
	return out, nil
}
