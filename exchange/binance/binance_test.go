package binance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/charti/exchange"
)

const exchangeInfoBody = `{"symbols":[
	{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
	{"symbol":"ETHBTC","status":"BREAK","baseAsset":"ETH","quoteAsset":"BTC"}
]}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(exchangeInfo, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(exchangeInfoBody))
	})
	mux.HandleFunc(klinePath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "BTCUSDT", q.Get("symbol"))
		require.Equal(t, "1d", q.Get("interval"))
		require.Equal(t, "1672531200000", q.Get("startTime"))
		require.Equal(t, "500", q.Get("limit"))

		_, _ = w.Write([]byte(`[
			[1672531200000,"16541.77","16628.00","16499.01","16616.75","96925.41",1672617599999,"0",1,"0","0","0"],
			[1672617600000,"16617.17","16799.23","16548.70","16672.87","121888.57",1672703999999,"0",1,"0","0","0"]
		]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, exchange.IDs(), ID)
}

func TestLoadMarkets(t *testing.T) {
	srv := newServer(t)
	b := New(exchange.Options{BaseURL: srv.URL})

	markets, err := b.LoadMarkets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/BTC"}, markets.Pairs())
	assert.Equal(t, exchange.Market{Symbol: "BTC/USDT", ID: "BTCUSDT", Base: "BTC", Quote: "USDT", Active: true}, markets["BTC/USDT"])
	assert.False(t, markets["ETH/BTC"].Active)
}

func TestFetchOHLCV(t *testing.T) {
	srv := newServer(t)
	b := New(exchange.Options{BaseURL: srv.URL})

	candles, err := b.FetchOHLCV(context.Background(), "BTC/USDT", "1d", 1672531200000, 500)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, int64(1672531200000), candles[0].Timestamp)
	assert.Equal(t, 16541.77, candles[0].Open)
	assert.Equal(t, 16628.0, candles[0].High)
	assert.Equal(t, 16499.01, candles[0].Low)
	assert.Equal(t, 16616.75, candles[0].Close)
	assert.Equal(t, 96925.41, candles[0].Volume)
	assert.Equal(t, int64(1672617600000), candles[1].Timestamp)
}

func TestFetchOHLCVErrors(t *testing.T) {
	srv := newServer(t)
	b := New(exchange.Options{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := b.FetchOHLCV(ctx, "BTC/USDT", "7m", 0, 500)
	assert.True(t, errors.Is(err, exchange.ErrUnsupportedInterval))

	_, err = b.FetchOHLCV(ctx, "XRP/JPY", "1d", 0, 500)
	assert.True(t, errors.Is(err, exchange.ErrUnknownPair))
}

func TestParseKlinesBadRows(t *testing.T) {
	_, err := parseKlines([][]json.RawMessage{{json.RawMessage(`1`)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kline[0] has 1 fields")

	row := []json.RawMessage{
		json.RawMessage(`1`), json.RawMessage(`"x"`), json.RawMessage(`"1"`),
		json.RawMessage(`"1"`), json.RawMessage(`"1"`), json.RawMessage(`"1"`),
	}
	_, err = parseKlines([][]json.RawMessage{row})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binance: kline[0]")
}
