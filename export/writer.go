package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/charti/pkg/id"
	"github.com/rustyeddy/charti/store"
)

// Format names an output encoding.
type Format string

const (
	JSON   Format = "json"
	CSV    Format = "csv"
	YAML   Format = "yaml"
	SQLite Format = "sqlite"
)

// Formats lists the supported formats.
var Formats = []Format{JSON, CSV, YAML, SQLite}

// ParseFormat validates a format name. An empty name infers the format from
// the output path extension and falls back to JSON.
func ParseFormat(name, path string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return FormatFromPath(path), nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "yaml", "yml":
		return YAML, nil
	case "sqlite", "sqlite3", "db":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unknown format %q (use json, csv, yaml or sqlite)", name)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV
	case ".yaml", ".yml":
		return YAML
	case ".db", ".sqlite", ".sqlite3":
		return SQLite
	default:
		return JSON
	}
}

// Write encodes the document to w. SQLite has no stream form and is rejected.
func Write(w io.Writer, f Format, d Document) error {
	switch f {
	case JSON:
		return WriteJSON(w, d)
	case CSV:
		return WriteCSV(w, d)
	case YAML:
		return WriteYAML(w, d)
	default:
		return fmt.Errorf("format %q cannot be streamed", f)
	}
}

// WriteFile writes the document to path, replacing any existing file. For
// SQLite the document is added to the database as a new run and the run id
// is returned.
func WriteFile(ctx context.Context, path string, f Format, d Document) (string, error) {
	if f == SQLite {
		return writeSQLite(ctx, path, d)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	if err := Write(file, f, d); err != nil {
		file.Close()
		return "", fmt.Errorf("write %s: %w", f, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close output: %w", err)
	}
	return "", nil
}

func writeSQLite(ctx context.Context, path string, d Document) (string, error) {
	s, err := store.Open(path)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	now := time.Now().UTC()
	run := store.Run{
		ID:        id.New(now),
		Exchange:  d.Exchange,
		Pair:      d.Pair,
		StartDate: d.Window.Start.Format("2006-01-02"),
		EndDate:   d.Window.End.Format("2006-01-02"),
		CreatedAt: now,
		Intervals: d.Intervals(),
	}

	var rows []store.Row
	for _, ser := range d.distinct() {
		for _, r := range ser.Records {
			rows = append(rows, store.Row{
				Interval: ser.Interval,
				Date:     r.Date,
				Open:     r.Open,
				High:     r.High,
				Low:      r.Low,
				Close:    r.Close,
				Volume:   r.Volume,
			})
		}
	}

	if err := s.SaveRun(ctx, run, rows); err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return run.ID, nil
}

// ReadSQLite loads a stored run back into a document.
func ReadSQLite(ctx context.Context, path, runID string) (Document, error) {
	s, err := store.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer s.Close()

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Exchange: run.Exchange, Pair: run.Pair}

	intervals, err := s.Intervals(ctx, runID)
	if err != nil {
		return Document{}, err
	}
	for _, iv := range intervals {
		rows, err := s.Candles(ctx, runID, iv)
		if err != nil {
			return Document{}, err
		}
		recs := make([]Record, 0, len(rows))
		for _, r := range rows {
			recs = append(recs, Record{Date: r.Date, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
		}
		doc.Series = append(doc.Series, Series{Interval: iv, Records: recs})
	}
	return doc, nil
}
