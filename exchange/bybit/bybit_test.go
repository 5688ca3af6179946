package bybit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/charti/download"
	"github.com/rustyeddy/charti/exchange"
	"github.com/rustyeddy/charti/market"
)

func newServer(t *testing.T, klineBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(instrumentsPath, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "spot", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[
			{"symbol":"BTCUSDT","baseCoin":"BTC","quoteCoin":"USDT","status":"Trading"}
		]}}`))
	})
	mux.HandleFunc(klinePath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "BTCUSDT", q.Get("symbol"))
		require.Equal(t, "60", q.Get("interval"))
		require.Equal(t, "0", q.Get("start"))
		require.Equal(t, "7199999", q.Get("end"))
		require.Equal(t, "2", q.Get("limit"))
		_, _ = w.Write([]byte(klineBody))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchOHLCVReversesNewestFirst(t *testing.T) {
	srv := newServer(t, `{"retCode":0,"retMsg":"OK","result":{"list":[
		["3600000","2","3","1","2.5","20","0"],
		["0","1","2","0.5","1.5","10","0"]
	]}}`)
	b := New(exchange.Options{BaseURL: srv.URL})

	candles, err := b.FetchOHLCV(context.Background(), "btc/usdt", "1h", 0, 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(0), candles[0].Timestamp)
	assert.Equal(t, 1.5, candles[0].Close)
	assert.Equal(t, int64(3600000), candles[1].Timestamp)
	assert.Equal(t, 20.0, candles[1].Volume)
}

func TestFetchOHLCVAPIError(t *testing.T) {
	srv := newServer(t, `{"retCode":10001,"retMsg":"params error","result":{}}`)
	b := New(exchange.Options{BaseURL: srv.URL})

	_, err := b.FetchOHLCV(context.Background(), "BTC/USDT", "1h", 0, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bybit: api error 10001: params error")
}

func TestFetchOHLCVUnsupportedInterval(t *testing.T) {
	b := New(exchange.Options{BaseURL: "http://unused"})
	_, err := b.FetchOHLCV(context.Background(), "BTC/USDT", "8h", 0, 2)
	assert.True(t, errors.Is(err, exchange.ErrUnsupportedInterval))
}

func TestParseKlinesBadRow(t *testing.T) {
	_, err := parseKlines([][]string{{"0", "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has 2 fields")
}

const hour = int64(3_600_000)

func ms(date string) int64 {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return t.UnixMilli()
}

// klineServer answers like Bybit: candles in [start, end], newest first,
// keeping the newest limit of them.
func klineServer(t *testing.T, series []int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(instrumentsPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[
			{"symbol":"BTCUSDT","baseCoin":"BTC","quoteCoin":"USDT","status":"Trading"}
		]}}`))
	})
	mux.HandleFunc(klinePath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		start, _ := strconv.ParseInt(q.Get("start"), 10, 64)
		end, _ := strconv.ParseInt(q.Get("end"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))

		var hits []int64
		for _, ts := range series {
			if ts >= start && ts <= end {
				hits = append(hits, ts)
			}
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i] > hits[j] })
		if len(hits) > limit {
			hits = hits[:limit]
		}

		rows := make([]string, len(hits))
		for i, ts := range hits {
			rows[i] = fmt.Sprintf(`["%d","1","2","0.5","1.5","10","0"]`, ts)
		}
		fmt.Fprintf(w, `{"retCode":0,"retMsg":"OK","result":{"list":[%s]}}`, strings.Join(rows, ","))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// hourly returns hourly open times in [first, last), minus skipped ones.
func hourly(first, last int64, skip ...int64) []int64 {
	skipped := map[int64]bool{}
	for _, s := range skip {
		skipped[s] = true
	}
	var out []int64
	for ts := first; ts < last; ts += hour {
		if !skipped[ts] {
			out = append(out, ts)
		}
	}
	return out
}

func TestDownloadAcrossGapsAndLateListing(t *testing.T) {
	w, err := market.ParseWindow("2023-01-01", "2023-01-31")
	require.NoError(t, err)
	jan := ms("2023-01-01")
	feb := ms("2023-02-01")

	// A six hour outage on Jan 3 and a listing on Jan 20.
	outage := []int64{}
	for ts := ms("2023-01-03"); ts < ms("2023-01-03")+6*hour; ts += hour {
		outage = append(outage, ts)
	}

	tests := []struct {
		name   string
		series []int64
		want   int
		first  int64
	}{
		{"outage", hourly(jan, feb, outage...), 31*24 - 6, jan},
		{"listed late", hourly(ms("2023-01-20"), feb), 12 * 24, ms("2023-01-20")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(exchange.Options{BaseURL: klineServer(t, tt.series).URL})
			b.now = func() time.Time { return time.UnixMilli(feb) }
			f := &download.Fetcher{Source: b, BatchSize: 100}

			got, _, err := f.FetchRange(context.Background(), "BTC/USDT", "1h", w)
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			assert.Equal(t, tt.first, got[0].Timestamp)
			for i := 1; i < len(got); i++ {
				assert.Less(t, got[i-1].Timestamp, got[i].Timestamp)
			}
		})
	}
}
