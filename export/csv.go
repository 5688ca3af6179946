package export

import (
	"io"

	"github.com/gocarina/gocsv"
)

type csvRow struct {
	Interval string  `csv:"interval"`
	Date     string  `csv:"Date"`
	Open     float64 `csv:"Open"`
	High     float64 `csv:"High"`
	Low      float64 `csv:"Low"`
	Close    float64 `csv:"Close"`
	Volume   float64 `csv:"Volume"`
}

// WriteCSV writes one row per record with the interval as first column.
func WriteCSV(w io.Writer, d Document) error {
	rows := make([]*csvRow, 0)
	for _, s := range d.distinct() {
		for _, r := range s.Records {
			rows = append(rows, &csvRow{
				Interval: s.Interval,
				Date:     r.Date,
				Open:     r.Open,
				High:     r.High,
				Low:      r.Low,
				Close:    r.Close,
				Volume:   r.Volume,
			})
		}
	}
	return gocsv.Marshal(&rows, w)
}

// ReadCSV parses a file written by WriteCSV back into a document.
func ReadCSV(r io.Reader) (Document, error) {
	var rows []*csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return Document{}, err
	}

	var doc Document
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.Interval]
		if !ok {
			i = len(doc.Series)
			index[row.Interval] = i
			doc.Series = append(doc.Series, Series{Interval: row.Interval})
		}
		doc.Series[i].Records = append(doc.Series[i].Records, Record{
			Date:   row.Date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return doc, nil
}
