package export

import (
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes the document as a YAML mapping keyed by interval, in
// document order.
func WriteYAML(w io.Writer, d Document) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range d.distinct() {
		recs := s.Records
		if recs == nil {
			recs = []Record{}
		}

		var val yaml.Node
		if err := val.Encode(recs); err != nil {
			return err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Interval},
			&val,
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(4)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

// ReadYAML parses a document written by WriteYAML, keeping key order.
func ReadYAML(r io.Reader) (Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return Document{}, err
	}

	var doc Document
	if len(root.Content) == 0 {
		return doc, nil
	}
	m := root.Content[0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		var recs []Record
		if err := m.Content[i+1].Decode(&recs); err != nil {
			return doc, err
		}
		doc.Series = append(doc.Series, Series{Interval: m.Content[i].Value, Records: recs})
	}
	return doc, nil
}
