package biometric

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadExport_CSV(t *testing.T) {
	data := "\n,,\nID,First Name,Department,1,2\nE1,Ana,Assembly,09:00-17:00\nE2,Ben,Packing,,8-12\n"

	export, err := ReadExport(strings.NewReader(data), "June.CSV")
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "First Name", "Department", "1", "2"}, export.Header)
	require.Len(t, export.Rows, 2)
	assert.Equal(t, []string{"E1", "Ana", "Assembly", "09:00-17:00"}, export.Rows[0])
}

func TestReadExport_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"ID", "First Name", "Department", 16, 17}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"E1", "Ana", "Assembly", "09:00-18:30", "9-13"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	export, err := ReadExport(bytes.NewReader(buf.Bytes()), "june.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "First Name", "Department", "16", "17"}, export.Header)
	require.Len(t, export.Rows, 1)

	records, err := NormalizeBiometricExport(export.Header, export.Rows, time.June, 2025, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, time.Date(2025, time.June, 17, 13, 0, 0, 0, time.UTC), *records[1].PunchOut)
}

func TestReadExport_Errors(t *testing.T) {
	_, err := ReadExport(strings.NewReader("a,b"), "export.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadExport(strings.NewReader(" , \n\n"), "export.csv")
	assert.ErrorIs(t, err, ErrMissingImportHeader)

	_, err = ReadExport(strings.NewReader("not a zip"), "export.xlsx")
	assert.ErrorIs(t, err, ErrUnreadableExport)

	_, err = ReadExport(strings.NewReader("not a workbook"), "export.xls")
	assert.ErrorIs(t, err, ErrUnreadableExport)
}

func TestReadExport_CSVStrayQuoteKeepsOtherCells(t *testing.T) {
	data := "ID,Name,Dept,1,2\nE1,Ann,Ops,09:00-18:00,9\"00-18:00\nE2,Bob,Ops,08:00-17:00,\n"

	export, err := ReadExport(strings.NewReader(data), "june.csv")
	require.NoError(t, err)
	require.Len(t, export.Rows, 2)
	assert.Empty(t, export.Skipped)

	res, err := Normalize(export.Header, export.Rows, Options{Month: time.June, Year: 2025, HeaderRow: export.HeaderRow})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "E1", res.Records[0].EmployeeID)
	assert.Equal(t, time.Date(2025, time.June, 1, 18, 0, 0, 0, time.UTC), *res.Records[0].PunchOut)
	assert.Equal(t, "E2", res.Records[1].EmployeeID)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2, res.Skipped[0].Row)
	assert.Equal(t, 4, res.Skipped[0].Column)
	assert.Equal(t, `9"00-18:00`, res.Skipped[0].Value)
}

func TestReadExport_HeaderRowAnchorsSkippedRows(t *testing.T) {
	data := "\n,,\nID,Name,Dept,1\nE1,Ann,Ops,09:00-18:00\nE2,Bob,Ops,late\n"

	export, err := ReadExport(strings.NewReader(data), "june.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, export.HeaderRow)

	res, err := Normalize(export.Header, export.Rows, Options{Month: time.June, Year: 2025, HeaderRow: export.HeaderRow})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 5, res.Skipped[0].Row)
	assert.Equal(t, "E2", res.Skipped[0].EmployeeID)
}

func TestXLSRowLimitCoversWholeSheet(t *testing.T) {
	// .xls row indexes are uint16, so the limit must reach past the last one.
	assert.Greater(t, xlsRowLimit, math.MaxUint16)
}
