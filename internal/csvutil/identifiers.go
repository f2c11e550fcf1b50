// Package csvutil reads product code lists.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoIdentifiers is returned when a source holds no usable product codes.
var ErrNoIdentifiers = errors.New("no product codes found")

// ReadIdentifiers reads a comma separated list of product codes from a file.
// Records may span several lines and have any number of fields; there is no
// header row.
func ReadIdentifiers(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open identifier file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ids, err := ParseIdentifierReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier file %s: %w", filename, err)
	}
	return ids, nil
}

// ParseIdentifiers splits an inline comma separated list of product codes.
func ParseIdentifiers(inline string) ([]string, error) {
	ids := collect(strings.Split(inline, ","), nil)
	if len(ids) == 0 {
		return nil, ErrNoIdentifiers
	}
	return ids, nil
}

// ParseIdentifierReader reads every CSV field from r as a product code.
func ParseIdentifierReader(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var ids []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ids = collect(record, ids)
	}

	if len(ids) == 0 {
		return nil, ErrNoIdentifiers
	}
	return ids, nil
}

// collect appends trimmed, non-empty tokens to dst.
func collect(tokens []string, dst []string) []string {
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		dst = append(dst, token)
	}
	return dst
}
