// Package report renders found products as the CSV report and prints the
// operator summary.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lepinkainen/lcsc-lookup/internal/batch"
	"github.com/lepinkainen/lcsc-lookup/internal/catalog"
	"github.com/lepinkainen/lcsc-lookup/internal/fileutil"
)

// Header lists the report columns in output order.
var Header = []string{
	"LCSC Product Code",
	"Amount in Stock",
	"Package",
	"Manufacturer",
	"Manufacturer Part Number",
	"Product Description",
	"Product Page",
}

// NoProductsMessage is printed instead of a summary when nothing was found.
const NoProductsMessage = "No products were found."

// ErrOutputExists is returned when the output file exists and overwriting is disabled.
var ErrOutputExists = errors.New("output file already exists")

// Row returns the report fields for one product in column order.
func Row(p catalog.Product) []string {
	return []string{
		p.Code,
		p.Stock,
		p.Package,
		p.Manufacturer,
		p.ManufacturerPartNumber,
		p.Description,
		p.PageURL,
	}
}

// HeaderLine is the first line of every report. Column names are written
// unquoted.
var HeaderLine = strings.Join(Header, ",")

// RenderCSV renders the header and one row per product. Every row field is
// quoted with embedded quotes doubled, and each record ends with a newline.
func RenderCSV(products []catalog.Product) []byte {
	var buf bytes.Buffer
	buf.WriteString(HeaderLine)
	buf.WriteByte('\n')
	for _, p := range products {
		writeRecord(&buf, Row(p))
	}
	return buf.Bytes()
}

func writeRecord(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// PrintSummary prints how many identifiers resolved and lists the dropped ones.
func PrintSummary(w io.Writer, result batch.Result) error {
	if _, err := fmt.Fprintf(w, "Found %d out of %d products.\n", len(result.Valid), result.Total()); err != nil {
		return err
	}

	dropped := result.DroppedIdentifiers()
	if len(dropped) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, "Dropping the following product codes:"); err != nil {
		return err
	}
	for _, id := range dropped {
		if _, err := fmt.Fprintf(w, "  - %s\n", id); err != nil {
			return err
		}
	}
	return nil
}

// PrintNoProducts prints the message used when a batch found nothing.
func PrintNoProducts(w io.Writer) error {
	_, err := fmt.Fprintln(w, NoProductsMessage)
	return err
}

// PrintWritten confirms where the report went.
func PrintWritten(w io.Writer, path string) error {
	_, err := fmt.Fprintf(w, "Output written to %s\n", path)
	return err
}

// Write renders products and writes them to path.
func Write(path string, products []catalog.Product, overwrite bool) error {
	data := RenderCSV(products)

	written, err := fileutil.WriteFileWithOverwrite(path, data, 0644, overwrite)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if !written {
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	}

	slog.Debug("Report written", "path", path, "rows", len(products), "bytes", len(data))
	return nil
}
