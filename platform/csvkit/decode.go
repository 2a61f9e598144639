// Package csvkit provides CSV decoding utilities for bulk imports.
// This is part of the platform layer and contains no business logic.
package csvkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeToUTF8 converts raw CSV bytes to UTF-8 text. It tries UTF-8 first
// (stripping a BOM if present), then falls back to Windows-1252 and
// ISO-8859-1. Single-byte decodes cannot fail, so every input yields text.
func DecodeToUTF8(raw []byte) (string, error) {
	trimmed := bytes.TrimPrefix(raw, utf8BOM)

	if utf8.Valid(trimmed) {
		return string(trimmed), nil
	}

	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		decoded, err := cm.NewDecoder().Bytes(trimmed)
		if err == nil {
			return string(decoded), nil
		}
	}

	return "", fmt.Errorf("unable to decode file contents")
}

// Rows holds a parsed CSV with a normalized header.
type Rows struct {
	// Header contains the column names, trimmed and lowercased.
	Header []string
	// Records contains the data rows, in file order.
	Records [][]string

	index map[string]int
}

// Parse reads raw CSV bytes into Rows. Rows shorter than the header are
// accepted; missing cells read as empty strings via Get.
func Parse(raw []byte) (*Rows, error) {
	text, err := DecodeToUTF8(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	normalized := make([]string, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		normalized[i] = key
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return &Rows{Header: normalized, Records: records, index: index}, nil
}

// HasColumns reports the header columns from required that are absent.
func (r *Rows) HasColumns(required ...string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := r.index[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Get returns the trimmed cell value for the named column in the given
// record, or "" when the column or cell is absent.
func (r *Rows) Get(record []string, column string) string {
	i, ok := r.index[strings.ToLower(column)]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
