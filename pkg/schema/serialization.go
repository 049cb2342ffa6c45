package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format selects the text encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the format from a file extension. JSON is the default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Unmarshal decodes text into generic data suitable for Validate.
// Only syntax errors are reported here.
func Unmarshal(data []byte, format Format) (any, error) {
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// Parse validates generic data and decodes it into a Document.
// The required string fields are trimmed. Validation failures are returned as
// an *AggregateError.
func Parse(raw any) (Document, error) {
	if result := Validate(raw); !result.Valid {
		return Document{}, newAggregateError(result)
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &doc,
		TagName: "mapstructure",
	})
	if err != nil {
		return Document{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc.trimmed(), nil
}

// Check validates a typed document. Failures are returned as an *AggregateError.
func Check(doc Document) error {
	if result := ValidateDocument(doc); !result.Valid {
		return newAggregateError(result)
	}
	return nil
}

// ParseBytes is Unmarshal followed by Parse.
func ParseBytes(data []byte, format Format) (Document, error) {
	raw, err := Unmarshal(data, format)
	if err != nil {
		return Document{}, err
	}
	return Parse(raw)
}

// Marshal encodes a document. JSON output is indented with two spaces.
func Marshal(doc Document, format Format) ([]byte, error) {
	doc = doc.normalized()
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(doc, "", "  ")
	}
}

func (d Document) trimmed() Document {
	d.StartNodeID = strings.TrimSpace(d.StartNodeID)
	nodes := make([]Node, len(d.Nodes))
	for i, n := range d.Nodes {
		n.ID = strings.TrimSpace(n.ID)
		if n.Label != nil {
			n.Label = StringPtr(strings.TrimSpace(*n.Label))
		}
		n.Description = strings.TrimSpace(n.Description)
		n.Prompt = strings.TrimSpace(n.Prompt)
		edges := make([]Edge, len(n.Edges))
		for j, e := range n.Edges {
			e.ToNodeID = strings.TrimSpace(e.ToNodeID)
			e.Condition = strings.TrimSpace(e.Condition)
			edges[j] = e
		}
		n.Edges = edges
		nodes[i] = n
	}
	d.Nodes = nodes
	return d
}
