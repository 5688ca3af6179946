// Package exchange is the gateway to exchange market data. Each supported
// exchange lives in its own sub-package and registers a Factory under its id;
// callers resolve an id through New instead of looking exchanges up by name
// at runtime.
package exchange

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/rustyeddy/charti/market"
)

var (
	ErrUnknownExchange     = errors.New("unknown exchange")
	ErrUnknownPair         = errors.New("unknown pair")
	ErrUnsupportedInterval = errors.New("unsupported interval")
)

// Exchange is the subset of an exchange API needed to list markets and to
// page through historical candles.
type Exchange interface {
	// ID returns the registry id, e.g. "binance".
	ID() string

	// LoadMarkets returns every tradable pair keyed by unified symbol.
	LoadMarkets(ctx context.Context) (Markets, error)

	// FetchOHLCV returns at most limit candles for pair and interval whose
	// open time is at or after since (ms), oldest first. An empty slice means
	// there is no more data.
	FetchOHLCV(ctx context.Context, pair, interval string, since int64, limit int) ([]market.Candle, error)
}

// Market describes one tradable pair.
type Market struct {
	Symbol string // unified symbol, e.g. BTC/USDT
	ID     string // exchange native id, e.g. BTCUSDT or BTC-USDT
	Base   string
	Quote  string
	Active bool
}

// Markets maps unified symbols to markets.
type Markets map[string]Market

// Pairs returns the unified symbols in sorted order.
func (m Markets) Pairs() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Options configures an exchange client.
type Options struct {
	BaseURL    string        // override the public REST endpoint
	Timeout    time.Duration // per request timeout, default 30s
	RateLimit  bool          // pace requests to the exchange's public budget
	HTTPClient *http.Client
}
