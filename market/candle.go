package market

import "time"

// DateLayout is the layout used for human readable candle timestamps.
const DateLayout = "2006-01-02 15:04:05"

// Candle represents OHLCV (Open, High, Low, Close, Volume) data for one
// time bucket. Timestamp is the bucket open time in milliseconds since epoch.
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// Date formats the candle open time at second granularity.
func (c Candle) Date() string {
	return c.Time().Format(DateLayout)
}
