package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a query document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// FormatForPath picks a document format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported query file extension %q (expected .yaml, .yml, .json or .cue)", filepath.Ext(path))
	}
}

// LoadFile reads a query document from path and converts it into a tree.
func LoadFile(path string) (Node, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	node, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return node, nil
}

// Parse decodes a query document in the given format and converts it into a
// tree. Unknown fields are rejected.
func Parse(data []byte, format Format) (Node, error) {
	doc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return doc.Node()
}

// Decode decodes a query document without converting it.
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("empty query document")
			}
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case FormatCUE:
		value := cuecontext.New().CompileBytes(data)
		if err := value.Err(); err != nil {
			return nil, fmt.Errorf("compile CUE: %w", err)
		}
		if err := value.Validate(); err != nil {
			return nil, fmt.Errorf("validate CUE: %w", err)
		}
		if err := value.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode CUE: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported query format %q", format)
	}

	return &doc, nil
}
