// Package export turns downloaded candles into display records and writes
// them to disk.
package export

import (
	"github.com/rustyeddy/charti/download"
	"github.com/rustyeddy/charti/market"
)

// Record is the display form of one candle. Field order is fixed.
type Record struct {
	Date   string  `json:"Date" yaml:"Date" csv:"Date"`
	Open   float64 `json:"Open" yaml:"Open" csv:"Open"`
	High   float64 `json:"High" yaml:"High" csv:"High"`
	Low    float64 `json:"Low" yaml:"Low" csv:"Low"`
	Close  float64 `json:"Close" yaml:"Close" csv:"Close"`
	Volume float64 `json:"Volume" yaml:"Volume" csv:"Volume"`
}

// NewRecord converts a candle, replacing its timestamp with a UTC date
// string.
func NewRecord(c market.Candle) Record {
	return Record{
		Date:   c.Date(),
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
	}
}

// Series is the records of one interval.
type Series struct {
	Interval string
	Records  []Record
}

// Document is an ordered mapping of interval to records, plus the metadata
// of the download that produced it.
type Document struct {
	Exchange string
	Pair     string
	Window   market.Window
	Series   []Series
}

// NewDocument builds a Document from a download result. Failed intervals are
// left out; the others keep their request order. An interval appears at most
// once.
func NewDocument(exchange string, res download.Result) Document {
	doc := Document{
		Exchange: exchange,
		Pair:     res.Pair,
		Window:   res.Window,
	}

	seen := map[string]bool{}
	for _, o := range res.Succeeded() {
		if seen[o.Interval] {
			continue
		}
		seen[o.Interval] = true

		recs := make([]Record, 0, len(o.Candles))
		for _, c := range o.Candles {
			recs = append(recs, NewRecord(c))
		}
		doc.Series = append(doc.Series, Series{Interval: o.Interval, Records: recs})
	}
	return doc
}

// distinct returns the series with repeated intervals dropped; the first
// occurrence wins.
func (d Document) distinct() []Series {
	seen := make(map[string]bool, len(d.Series))
	out := make([]Series, 0, len(d.Series))
	for _, s := range d.Series {
		if seen[s.Interval] {
			continue
		}
		seen[s.Interval] = true
		out = append(out, s)
	}
	return out
}

// Intervals returns the distinct interval keys in order.
func (d Document) Intervals() []string {
	out := make([]string, 0, len(d.Series))
	for _, s := range d.distinct() {
		out = append(out, s.Interval)
	}
	return out
}

// Records returns the records of interval, or nil.
func (d Document) Records(interval string) []Record {
	for _, s := range d.Series {
		if s.Interval == interval {
			return s.Records
		}
	}
	return nil
}
