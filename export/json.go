package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const indent = "    "

// MarshalJSON encodes the document as an object keyed by interval, in
// document order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d.distinct() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Interval)
		if err != nil {
			return nil, err
		}
		recs := s.Records
		if recs == nil {
			recs = []Record{}
		}
		val, err := json.Marshal(recs)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", s.Interval, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes the document with four space indentation.
func WriteJSON(w io.Writer, d Document) error {
	raw, err := d.MarshalJSON()
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", indent); err != nil {
		return err
	}
	out.WriteByte('\n')

	_, err = out.WriteTo(w)
	return err
}

// ReadJSON parses a document written by WriteJSON, keeping key order.
func ReadJSON(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)

	var doc Document
	if err := expectDelim(dec, '{'); err != nil {
		return doc, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return doc, err
		}
		key, ok := tok.(string)
		if !ok {
			return doc, fmt.Errorf("expected interval key, got %v", tok)
		}

		var recs []Record
		if err := dec.Decode(&recs); err != nil {
			return doc, fmt.Errorf("decode %s: %w", key, err)
		}
		doc.Series = append(doc.Series, Series{Interval: key, Records: recs})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return doc, err
	}
	return doc, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
