package exchange

import (
	"context"
	"time"

	"github.com/rustyeddy/charti/market"
)

// WindowFunc fetches the candles opening in [from, to] (ms), oldest first.
// When the window holds more than limit candles the exchange may keep only
// the newest limit of them.
type WindowFunc func(ctx context.Context, from, to int64, limit int) ([]market.Candle, error)

// Pager serves FetchOHLCV for exchanges whose candle endpoint only answers
// for a bounded time window. It walks windows of limit buckets forward from
// since until it has limit candles or the window passes the present, so gaps
// in the history and late listings do not end a download early.
type Pager struct {
	// Step is the bucket length of the interval.
	Step time.Duration

	// Grow doubles the window across empty stretches. Only for exchanges
	// that accept windows wider than limit buckets.
	Grow bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Fetch returns at most limit candles opening at or after since, oldest
// first.
func (p Pager) Fetch(ctx context.Context, since int64, limit int, fetch WindowFunc) ([]market.Candle, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	end := now().UnixMilli()

	span := int64(limit) * p.Step.Milliseconds()
	width := span
	from := since

	var out []market.Candle
	for len(out) < limit && from <= end {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		to := from + width - 1
		batch, err := fetch(ctx, from, to, limit)
		if err != nil {
			return nil, err
		}

		// A full page from a widened window may have lost its oldest
		// candles; retry narrower from the same start.
		if width > span && len(batch) >= limit {
			width = max(width/2, span)
			continue
		}

		for _, c := range batch {
			if c.Timestamp >= from && c.Timestamp <= to {
				out = append(out, c)
			}
		}
		from = to + 1

		if len(batch) == 0 && p.Grow {
			width *= 2
		} else {
			width = span
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
