package coinbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/charti/download"
	"github.com/rustyeddy/charti/exchange"
	"github.com/rustyeddy/charti/market"
)

func TestCoinbase(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(productsPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"BTC-USD","base_currency":"BTC","quote_currency":"USD","status":"online"}
		]`))
	})
	mux.HandleFunc("/products/BTC-USD/candles", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "3600", q.Get("granularity"))
		require.Equal(t, "2023-01-01T00:00:00Z", q.Get("start"))
		require.Equal(t, "2023-01-01T02:00:00Z", q.Get("end"))
		_, _ = w.Write([]byte(`[
			[1672538400, 16500.5, 16520, 16510, 16515.25, 12.5],
			[1672534800, 16490, 16515, 16500, 16510, 10],
			[1672531200, 16480, 16505, 16495, 16500, 8.25]
		]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(exchange.Options{BaseURL: srv.URL})
	ctx := context.Background()

	markets, err := c.LoadMarkets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", markets["BTC/USD"].ID)

	candles, err := c.FetchOHLCV(ctx, "BTC/USD", "1h", 1672531200000, 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	first := candles[0]
	assert.Equal(t, int64(1672531200000), first.Timestamp)
	assert.Equal(t, 16495.0, first.Open)
	assert.Equal(t, 16505.0, first.High)
	assert.Equal(t, 16480.0, first.Low)
	assert.Equal(t, 16500.0, first.Close)
	assert.Equal(t, 8.25, first.Volume)
	assert.Equal(t, int64(1672538400000), candles[2].Timestamp)
}

func TestUnsupportedInterval(t *testing.T) {
	c := New(exchange.Options{BaseURL: "http://unused"})
	_, err := c.FetchOHLCV(context.Background(), "BTC/USD", "4h", 0, 10)
	assert.True(t, errors.Is(err, exchange.ErrUnsupportedInterval))
}

// candleServer answers like Coinbase: daily buckets in [start, end], newest
// first, rejecting ranges wider than maxLimit buckets.
func candleServer(t *testing.T, series []time.Time) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(productsPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"BTC-USD","base_currency":"BTC","quote_currency":"USD","status":"online"}]`))
	})
	mux.HandleFunc("/products/BTC-USD/candles", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "86400", q.Get("granularity"))
		start, err := time.Parse(time.RFC3339, q.Get("start"))
		require.NoError(t, err)
		end, err := time.Parse(time.RFC3339, q.Get("end"))
		require.NoError(t, err)
		if end.Sub(start)/(24*time.Hour) >= maxLimit {
			http.Error(w, `{"message":"granularity too small for the requested time range"}`, http.StatusBadRequest)
			return
		}

		var hits []time.Time
		for _, ts := range series {
			if !ts.Before(start) && !ts.After(end) {
				hits = append(hits, ts)
			}
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i].After(hits[j]) })

		rows := make([]string, len(hits))
		for i, ts := range hits {
			rows[i] = fmt.Sprintf("[%d, 1, 2, 1.5, 1.75, 10]", ts.Unix())
		}
		fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func days(first, last string, skip ...string) []time.Time {
	from, _ := time.Parse("2006-01-02", first)
	to, _ := time.Parse("2006-01-02", last)
	skipped := map[string]bool{}
	for _, s := range skip {
		skipped[s] = true
	}
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !skipped[d.Format("2006-01-02")] {
			out = append(out, d)
		}
	}
	return out
}

func TestDownloadAcrossGapsAndLateListing(t *testing.T) {
	w, err := market.ParseWindow("2023-01-01", "2023-12-31")
	require.NoError(t, err)
	now, _ := time.Parse("2006-01-02", "2024-01-01")

	tests := []struct {
		name   string
		series []time.Time
		want   int
		first  string
	}{
		{"missing days", days("2023-01-01", "2023-12-31", "2023-02-14", "2023-02-15"), 363, "2023-01-01"},
		{"listed in may", days("2023-05-01", "2023-12-31"), 245, "2023-05-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(exchange.Options{BaseURL: candleServer(t, tt.series).URL})
			c.now = func() time.Time { return now }
			f := &download.Fetcher{Source: c, BatchSize: 30}

			got, _, err := f.FetchRange(context.Background(), "BTC/USD", "1d", w)
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			assert.Equal(t, tt.first+" 00:00:00", got[0].Date())
		})
	}
}
