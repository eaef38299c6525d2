package biometric

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// xlsRowLimit covers every row a .xls sheet can hold; row indexes are 16 bit.
const xlsRowLimit = math.MaxUint16 + 1

var (
	ErrUnsupportedFormat = errors.New("unsupported export format, expected .xlsx, .xls or .csv")

	// ErrUnreadableExport means the upload is not a readable workbook or CSV.
	ErrUnreadableExport = errors.New("export file could not be read")
)

// Export is a raw table: the header row plus every row below it.
type Export struct {
	Header []string
	Rows   [][]string
	// HeaderRow is the 1-based sheet row the header was found on.
	HeaderRow int
	// Skipped lists lines the reader could not split into cells. Each one
	// keeps its place in Rows as an empty row.
	Skipped []MalformedImportRow
}

// ReadExport reads the first worksheet of an uploaded export. The format is
// picked from the file extension.
func ReadExport(r io.Reader, filename string) (Export, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Export{}, fmt.Errorf("failed to read export: %w", err)
	}

	var (
		rows    [][]string
		skipped []MalformedImportRow
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".csv":
		rows, skipped, err = readCSV(data)
	default:
		return Export{}, ErrUnsupportedFormat
	}
	if err != nil {
		return Export{}, err
	}

	export, err := splitHeader(rows)
	if err != nil {
		return Export{}, err
	}
	for _, s := range skipped {
		if s.Row > export.HeaderRow {
			export.Skipped = append(export.Skipped, s)
		}
	}
	return export, nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open xlsx: %w", ErrUnreadableExport, err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrMissingImportHeader
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", ErrUnreadableExport, sheetName, err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open xls: %w", ErrUnreadableExport, err)
	}
	if workbook.NumSheets() == 0 {
		return nil, ErrMissingImportHeader
	}
	// ReadAllCells concatenates every sheet, so only single-sheet workbooks
	// can be read unambiguously.
	if workbook.NumSheets() > 1 {
		return nil, fmt.Errorf("%w: found %d worksheets, upload a file with a single sheet", ErrUnreadableExport, workbook.NumSheets())
	}
	return workbook.ReadAllCells(xlsRowLimit), nil
}

// readCSV reads record by record so one broken line does not lose the rest.
// Stray quotes inside a cell are kept as text and left to the cell parser.
// Rows are placed at their source line; lines the csv reader drops (empty or
// unreadable) become empty rows.
func readCSV(data []byte) ([][]string, []MalformedImportRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var (
		rows    [][]string
		skipped []MalformedImportRow
	)
	padTo := func(line int) {
		for len(rows) < line-1 {
			rows = append(rows, nil)
		}
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			padTo(parseErr.StartLine)
			skipped = append(skipped, MalformedImportRow{Row: len(rows) + 1, Column: -1, Reason: parseErr.Err.Error()})
			rows = append(rows, nil)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to read csv: %w", ErrUnreadableExport, err)
		}
		line, _ := reader.FieldPos(0)
		padTo(line)
		rows = append(rows, record)
	}
	return rows, skipped, nil
}

// splitHeader treats the first non-blank row as the header.
func splitHeader(rows [][]string) (Export, error) {
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		return Export{Header: row, Rows: rows[i+1:], HeaderRow: i + 1}, nil
	}
	return Export{}, ErrMissingImportHeader
}
