// Package download assembles the complete candle history of a pair over a
// date window by paging through an exchange in bounded batches.
package download

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/charti/market"
)

// DefaultBatchSize is the number of candles requested per call.
const DefaultBatchSize = 500

// Source is the candle fetch operation of an exchange.
type Source interface {
	FetchOHLCV(ctx context.Context, pair, interval string, since int64, limit int) ([]market.Candle, error)
}

// batchCapper is implemented by sources that serve fewer candles per call
// than the configured batch size.
type batchCapper interface {
	MaxBatch() int
}

// Fetcher pages through a Source one interval at a time.
type Fetcher struct {
	Source    Source
	BatchSize int
	Log       logrus.FieldLogger
}

// Outcome is the result of downloading one interval. Err is set when a fetch
// failed, in which case Candles is empty.
type Outcome struct {
	Interval string
	Candles  []market.Candle
	Dropped  int // candles discarded because they did not advance the cursor
	Err      error
}

// Result holds one Outcome per requested interval, in request order.
type Result struct {
	Pair     string
	Window   market.Window
	Outcomes []Outcome
}

// Succeeded returns the outcomes without an error.
func (r Result) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes that carry an error.
func (r Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

func (f *Fetcher) batchSize() int {
	n := f.BatchSize
	if n <= 0 {
		n = DefaultBatchSize
	}
	if c, ok := f.Source.(batchCapper); ok {
		if limit := c.MaxBatch(); limit > 0 && limit < n {
			n = limit
		}
	}
	return n
}

func (f *Fetcher) log() logrus.FieldLogger {
	if f.Log == nil {
		return logrus.StandardLogger()
	}
	return f.Log
}

// FetchRange returns every candle of pair and interval that opens inside w,
// strictly ascending by timestamp.
//
// The cursor starts at the window start and moves to one millisecond past the
// newest accepted candle after each batch. Pagination stops on an empty
// batch, a batch shorter than the batch size, a batch that does not move the
// cursor, or once the cursor passes the window end. Candles older than the
// cursor are dropped and counted.
func (f *Fetcher) FetchRange(ctx context.Context, pair, interval string, w market.Window) ([]market.Candle, int, error) {
	limit := f.batchSize()

	var (
		out     []market.Candle
		dropped int
		cursor  = w.StartMs
	)

	for cursor <= w.EndMs {
		batch, err := f.Source.FetchOHLCV(ctx, pair, interval, cursor, limit)
		if err != nil {
			return nil, 0, err
		}
		if len(batch) == 0 {
			break
		}

		start := cursor
		for _, c := range batch {
			if c.Timestamp < cursor {
				dropped++
				continue
			}
			cursor = c.Timestamp + 1
			if c.Timestamp > w.EndMs {
				break
			}
			out = append(out, c)
		}

		if cursor == start || len(batch) < limit {
			break
		}
	}

	return out, dropped, nil
}

// Download fetches every interval in turn. A failing interval is logged and
// recorded in its Outcome; the remaining intervals are still fetched.
// Repeated intervals are fetched once, at their first position.
func (f *Fetcher) Download(ctx context.Context, pair string, intervals []string, w market.Window) Result {
	intervals = Unique(intervals)
	res := Result{
		Pair:     pair,
		Window:   w,
		Outcomes: make([]Outcome, 0, len(intervals)),
	}

	for _, interval := range intervals {
		log := f.log().WithFields(logrus.Fields{
			"pair":     pair,
			"interval": interval,
			"window":   w.String(),
		})
		log.Infof("Downloading %s data for interval: %s...", pair, interval)

		began := time.Now()
		candles, dropped, err := f.FetchRange(ctx, pair, interval, w)
		if err != nil {
			log.WithError(err).Errorf("Error fetching data for %s", interval)
			res.Outcomes = append(res.Outcomes, Outcome{Interval: interval, Err: err})
			continue
		}

		if dropped > 0 {
			log.WithField("dropped", dropped).Warn("exchange returned candles out of order")
		}
		reportGaps(log, interval, candles)

		log.WithFields(logrus.Fields{
			"candles": len(candles),
			"elapsed": time.Since(began).Round(time.Millisecond),
		}).Info("interval complete")

		res.Outcomes = append(res.Outcomes, Outcome{
			Interval: interval,
			Candles:  candles,
			Dropped:  dropped,
		})
	}

	return res
}

// Unique drops repeated intervals, keeping the order of first occurrence.
func Unique(intervals []string) []string {
	seen := make(map[string]bool, len(intervals))
	out := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		if seen[iv] {
			continue
		}
		seen[iv] = true
		out = append(out, iv)
	}
	return out
}

func reportGaps(log logrus.FieldLogger, interval string, candles []market.Candle) {
	step, ok := market.IntervalDuration(interval)
	if !ok {
		return
	}

	s := market.FindGaps(candles, step)
	if s.GapCount == 0 {
		return
	}
	log.WithFields(logrus.Fields{
		"gaps":        s.GapCount,
		"missing":     s.Missing,
		"longest_gap": s.LongestGap,
		"first_gap":   time.UnixMilli(s.Gaps[0].Start).UTC().Format(market.DateLayout),
	}).Warn("candle history has gaps")
}
