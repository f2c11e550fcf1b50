package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/lcsc-lookup/internal/batch"
	"github.com/lepinkainen/lcsc-lookup/internal/catalog"
	"github.com/lepinkainen/lcsc-lookup/internal/testutil"
)

func sampleProducts() []catalog.Product {
	return []catalog.Product{
		{
			Code:                   "C100000",
			Manufacturer:           "Yageo",
			ManufacturerPartNumber: "RC0603FR-0710KL",
			Package:                "0603",
			Description:            "10kΩ ±1% 100mW Thick Film Resistor",
			Stock:                  "1500",
			PageURL:                "https://www.lcsc.com/product-detail/C100000.html",
		},
		{
			Code:                   "C300000",
			Manufacturer:           "Acme, Inc.",
			ManufacturerPartNumber: `ACME-"Q"-1`,
			Package:                "SOT-23",
			Description:            "Line one\nline two",
			Stock:                  "",
			PageURL:                "https://www.lcsc.com/product-detail/C300000.html",
		},
	}
}

func TestRenderCSV_Golden(t *testing.T) {
	golden := testutil.NewGoldenHelper(t, "testdata")

	golden.AssertGolden("report.golden.csv", RenderCSV(sampleProducts()))
}

func TestRenderCSV_HeaderOnly(t *testing.T) {
	out := string(RenderCSV(nil))

	assert.Equal(t, "LCSC Product Code,Amount in Stock,Package,Manufacturer,Manufacturer Part Number,Product Description,Product Page\n", out)
}

func TestRenderCSV_ParsesBack(t *testing.T) {
	products := sampleProducts()

	records, err := csv.NewReader(bytes.NewReader(RenderCSV(products))).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, len(products)+1)
	assert.Equal(t, Header, records[0])
	for i, p := range products {
		assert.Equal(t, Row(p), records[i+1])
	}
}

func TestRenderCSV_HeaderUnquotedRowsQuoted(t *testing.T) {
	lines := strings.SplitN(string(RenderCSV(sampleProducts())), "\n", 3)

	require.Len(t, lines, 3)
	assert.Equal(t, "LCSC Product Code,Amount in Stock,Package,Manufacturer,Manufacturer Part Number,Product Description,Product Page", lines[0])
	assert.Equal(t, HeaderLine, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"C100000","1500","0603","Yageo"`))
}

func TestRenderCSV_Deterministic(t *testing.T) {
	assert.Equal(t, RenderCSV(sampleProducts()), RenderCSV(sampleProducts()))
}

func TestPrintSummary(t *testing.T) {
	result := batch.Result{
		Valid: []catalog.Outcome{catalog.NewFound("C100000", catalog.Product{Code: "C100000"})},
		Dropped: []catalog.Outcome{
			catalog.NewNotFound("C200000", nil),
			catalog.NewNotFound("C999999", nil),
		},
	}

	var out bytes.Buffer
	require.NoError(t, PrintSummary(&out, result))

	assert.Equal(t, "Found 1 out of 3 products.\n"+
		"Dropping the following product codes:\n"+
		"  - C200000\n"+
		"  - C999999\n", out.String())
}

func TestPrintSummary_NothingDropped(t *testing.T) {
	result := batch.Result{
		Valid: []catalog.Outcome{catalog.NewFound("C1", catalog.Product{Code: "C1"})},
	}

	var out bytes.Buffer
	require.NoError(t, PrintSummary(&out, result))

	assert.Equal(t, "Found 1 out of 1 products.\n", out.String())
}

func TestPrintMessages(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PrintNoProducts(&out))
	require.NoError(t, PrintWritten(&out, "parts.txt.csv"))

	assert.Equal(t, "No products were found.\nOutput written to parts.txt.csv\n", out.String())
}

func TestWrite(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("out", "output.csv")

	require.NoError(t, Write(path, sampleProducts(), true))
	assert.Equal(t, string(RenderCSV(sampleProducts())), env.ReadFileString("out/output.csv"))

	// A rerun over identical input produces identical bytes.
	require.NoError(t, Write(path, sampleProducts(), true))
	assert.Equal(t, string(RenderCSV(sampleProducts())), env.ReadFileString("out/output.csv"))
}

func TestWrite_RefusesOverwrite(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("output.csv", "keep me")

	err := Write(env.Path("output.csv"), sampleProducts(), false)

	require.ErrorIs(t, err, ErrOutputExists)
	assert.Equal(t, "keep me", env.ReadFileString("output.csv"))
}
