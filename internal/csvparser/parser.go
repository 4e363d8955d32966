// =============================================================================
// Report Export - CSV Parser Module
// =============================================================================
//
// This module parses member payment exports in CSV form into validated
// ReportRows. It handles:
//   - Different delimiters (comma, semicolon, pipe, tab)
//   - A header row that is not the first line (exports with a title block)
//   - Header-mapped columns in any order, matched case-insensitively
//   - A UTF-8 byte order mark on the first header
//
// FEATURES:
//   - Streaming: rows are read one at a time
//   - Per-row validation errors carry the 1-indexed CSV record number
//   - Up to MaxRowErrors invalid rows are reported in one pass
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/renang/report-export/internal/config"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

// byteOrderMark is stripped from the first header cell.
const byteOrderMark = "\ufeff"

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed member export.
type CSVData struct {
	// Headers contains the column headers from the CSV file.
	Headers []string

	// Rows contains the validated rows, in file order.
	Rows []types.ReportRow

	// SourceFile is the path to the source CSV file, if any.
	SourceFile string

	// RowCount is the number of data rows read (excluding headers).
	RowCount int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the validated rows.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings.
//   - maxErrors: How many invalid rows to collect before giving up (0 = all).
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - An error if the file cannot be read, a required column is missing, or
//     any row is invalid. Row errors are joined and keep their kinds.
func Parse(filePath string, settings config.CSVSettings, maxErrors int) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(file, settings, maxErrors)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	data.SourceFile = filePath

	return data, nil
}

// ParseReader parses CSV content from r. See Parse.
func ParseReader(r io.Reader, settings config.CSVSettings, maxErrors int) (*CSVData, error) {
	parser, err := NewStreamingParser(r, settings)
	if err != nil {
		return nil, err
	}

	collector := validation.Collector{Limit: maxErrors}
	rows := make([]types.ReportRow, 0)
	count := 0

	for parser.Next() {
		count++
		row, err := parser.Row()
		if err != nil {
			collector.Add(err)
			continue
		}
		rows = append(rows, row)
	}

	if err := parser.Err(); err != nil {
		return nil, err
	}
	if err := collector.Err(); err != nil {
		return nil, err
	}

	return &CSVData{
		Headers:  parser.Headers(),
		Rows:     rows,
		RowCount: count,
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims headers and strips a leading byte order mark.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, byteOrderMark)
		}
		cleaned[i] = strings.TrimSpace(header)
	}

	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func headerKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads member rows one at a time.
//
// USAGE:
//   parser, err := NewStreamingParser(r, settings)
//   if err != nil {
//       return err
//   }
//
//   for parser.Next() {
//       row, err := parser.Row()
//       // Handle the row or its validation error...
//   }
//
//   if err := parser.Err(); err != nil {
//       return err
//   }
type StreamingParser struct {
	reader    *csv.Reader
	headers   []string
	index     map[string]int
	columns   config.ColumnNames
	required  []string
	record    []string
	current   types.ReportRow
	rowErr    error
	rowNumber int
	err       error
	settings  config.CSVSettings
}

// requiredColumns are the fields a member export must carry.
func requiredColumns(c config.ColumnNames) []string {
	return []string{c.PaymentDate, c.MemberName, c.Amount, c.Status}
}

// NewStreamingParser reads the header row from r and prepares the parser.
//
// RETURNS:
//   - The parser, positioned before the first data row.
//   - A *validation.ValidationError if the input has no header row or lacks
//     a required column; other errors for malformed CSV.
func NewStreamingParser(r io.Reader, settings config.CSVSettings) (*StreamingParser, error) {
	return newParser(r, settings, requiredColumns(settings.Columns))
}

func newParser(r io.Reader, settings config.CSVSettings, required []string) (*StreamingParser, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	configureReader(reader, settings)

	parser := &StreamingParser{
		reader:   reader,
		columns:  settings.Columns,
		required: required,
		settings: settings,
	}

	if err := parser.readHeaders(); err != nil {
		return nil, err
	}

	if err := parser.skipToDataStart(); err != nil {
		return nil, err
	}

	return parser, nil
}

// readHeaders skips to the header row and indexes its columns.
func (p *StreamingParser) readHeaders() error {
	headerRow := p.settings.HeaderRow
	if headerRow <= 0 {
		headerRow = 1
	}

	var row []string
	for p.rowNumber < headerRow {
		next, err := p.reader.Read()
		if err == io.EOF {
			return &validation.ValidationError{Field: "header", Message: "file has no header row"}
		}
		if err != nil {
			return fmt.Errorf("error reading header row %d: %w", p.rowNumber+1, err)
		}
		row = next
		p.rowNumber++
	}

	p.headers = cleanHeaders(row)
	p.index = make(map[string]int, len(p.headers))
	for i, h := range p.headers {
		if _, dup := p.index[headerKey(h)]; !dup {
			p.index[headerKey(h)] = i
		}
	}

	for _, col := range p.required {
		if _, ok := p.index[headerKey(col)]; !ok {
			return &validation.ValidationError{Field: "header", Value: col, Message: "required column is missing"}
		}
	}

	return nil
}

// skipToDataStart skips rows until the data start row.
func (p *StreamingParser) skipToDataStart() error {
	targetRow := p.settings.DataStartRow
	if targetRow <= 0 {
		targetRow = p.rowNumber + 1
	}

	for p.rowNumber < targetRow-1 {
		_, err := p.reader.Read()
		if err == io.EOF {
			return nil // No data rows
		}
		if err != nil {
			return fmt.Errorf("error skipping to data start: %w", err)
		}
		p.rowNumber++
	}

	return nil
}

// Next advances to the next non-empty row. Returns false when there are no
// more rows or reading failed.
func (p *StreamingParser) Next() bool {
	if !p.nextRecord() {
		return false
	}

	p.current, p.rowErr = types.NewReportRow(p.columns.RawRow(p.value))
	if p.rowErr != nil {
		p.rowErr = fmt.Errorf("row %d: %w", p.rowNumber, p.rowErr)
	}
	return true
}

// nextRecord reads the next non-empty record.
func (p *StreamingParser) nextRecord() bool {
	if p.err != nil {
		return false
	}

	for {
		row, err := p.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row %d: %w", p.rowNumber+1, err)
			return false
		}
		p.rowNumber++

		if isRowEmpty(row) {
			continue
		}
		p.record = row
		return true
	}
}

// value returns the current record's cell under column, or "".
func (p *StreamingParser) value(column string) string {
	i, ok := p.index[headerKey(column)]
	if !ok || i >= len(p.record) {
		return ""
	}
	return p.record[i]
}

// Row returns the current row, or its validation error.
func (p *StreamingParser) Row() (types.ReportRow, error) {
	return p.current, p.rowErr
}

// Headers returns the parsed headers.
func (p *StreamingParser) Headers() []string {
	return p.headers
}

// RowNumber returns the current row number (1-indexed).
func (p *StreamingParser) RowNumber() int {
	return p.rowNumber
}

// Err returns any read error that occurred during parsing.
func (p *StreamingParser) Err() error {
	return p.err
}
