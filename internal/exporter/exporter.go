// =============================================================================
// Report Export - Export Pipeline
// =============================================================================
//
// This module orchestrates report generation. For the member workbook:
//   1. Load rows (CSV, XLSX or the payments store)
//   2. Keep the rows inside the reporting period
//   3. Split into sheets and render each one
//   4. Serialize to XLSX
//   5. Optionally write the file to the output directory
//
// The financial report follows the same shape with a request document or the
// payments store as input and XLSX or HTML as output.
//
// =============================================================================

package exporter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/renang/report-export/internal/config"
	"github.com/renang/report-export/internal/csvparser"
	"github.com/renang/report-export/internal/markup"
	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
	"github.com/renang/report-export/internal/xlsxparser"
	"github.com/renang/report-export/internal/xlsxwriter"
	"github.com/renang/report-export/pkg/utils"
)

// =============================================================================
// OUTPUT AND RESULT TYPES
// =============================================================================

// Output is a finished report ready to be saved or sent.
type Output struct {
	// Filename is the suggested file name, with extension.
	Filename string

	// ContentType is the MIME type of Data.
	ContentType string

	// Data is the serialized report.
	Data []byte
}

// Result contains the outcome of a file-to-file export run.
type Result struct {
	// Source is the input file or database path.
	Source string

	// OutputFile is the path to the written report (if successful).
	OutputFile string

	// Success indicates whether the export was successful.
	Success bool

	// Error contains any error that occurred.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the export.
type ProcessingStats struct {
	// RowsProcessed is the number of valid rows loaded from the source.
	RowsProcessed int

	// RowsInPeriod is the number of rows inside the reporting period.
	RowsInPeriod int

	// SheetsCreated is the number of worksheets in the output.
	SheetsCreated int

	// ProcessingTime is the total time taken.
	ProcessingTime time.Duration
}

// Format is a financial report output format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// ParseFormat accepts "xlsx" (the default for an empty value) or "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", &validation.ValidationError{Field: "format", Value: s, Message: "must be xlsx or html"}
	}
}

// MemberSource provides member payment rows for a period.
type MemberSource interface {
	MemberRows(ctx context.Context, period report.Period) ([]types.ReportRow, error)
}

// FinancialSource provides the financial figures for a period.
type FinancialSource interface {
	FinancialInput(ctx context.Context, period report.Period) (report.FinancialInput, error)
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter renders and saves reports with one configuration.
type Exporter struct {
	cfg      *config.MainConfig
	renderer *report.Renderer
	now      func() time.Time
}

// New creates an Exporter from a validated configuration.
func New(cfg *config.MainConfig) (*Exporter, error) {
	renderer, err := cfg.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Exporter{cfg: cfg, renderer: renderer, now: time.Now}, nil
}

// Renderer returns the renderer built from the configuration.
func (e *Exporter) Renderer() *report.Renderer {
	return e.renderer
}

// MemberWorkbook renders rows within [startDate, endDate] as a member
// workbook. Rows outside the period are dropped.
//
// RETURNS:
//   - The workbook and processing statistics.
//   - A *validation.FormatError for malformed dates, a
//     *validation.NamingCollisionError under the fail policy, or a
//     serialization error.
func (e *Exporter) MemberWorkbook(ctx context.Context, rows []types.ReportRow, startDate, endDate string) (*Output, ProcessingStats, error) {
	started := e.now()
	logger := zerolog.Ctx(ctx)
	stats := ProcessingStats{RowsProcessed: len(rows)}

	period, err := report.ParsePeriod(startDate, endDate)
	if err != nil {
		return nil, stats, err
	}

	inPeriod := report.FilterByPeriod(rows, period)
	stats.RowsInPeriod = len(inPeriod)
	if dropped := len(rows) - len(inPeriod); dropped > 0 {
		logger.Debug().Int("dropped", dropped).Msg("rows outside the reporting period")
	}

	docs, err := e.renderer.Assemble(inPeriod, startDate, endDate)
	if err != nil {
		return nil, stats, err
	}
	stats.SheetsCreated = len(docs)

	data, err := xlsxwriter.WriteMemberWorkbook(docs)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to write member workbook: %w", err)
	}

	stats.ProcessingTime = e.now().Sub(started)
	logger.Info().
		Int("rows", stats.RowsInPeriod).
		Int("sheets", stats.SheetsCreated).
		Dur("took", stats.ProcessingTime).
		Msg("member workbook rendered")

	return &Output{
		Filename:    e.fileName("members", startDate, endDate, ".xlsx"),
		ContentType: xlsxwriter.ContentType,
		Data:        data,
	}, stats, nil
}

// MembersFromSource loads the period's rows from src and renders them.
func (e *Exporter) MembersFromSource(ctx context.Context, src MemberSource, startDate, endDate string) (*Output, ProcessingStats, error) {
	period, err := report.ParsePeriod(startDate, endDate)
	if err != nil {
		return nil, ProcessingStats{}, err
	}

	rows, err := src.MemberRows(ctx, period)
	if err != nil {
		return nil, ProcessingStats{}, fmt.Errorf("failed to load member rows: %w", err)
	}

	return e.MemberWorkbook(ctx, rows, startDate, endDate)
}

// FinancialReport validates req and renders it in format.
func (e *Exporter) FinancialReport(ctx context.Context, req report.FinancialRequest, format Format) (*Output, error) {
	doc, err := e.renderer.RenderFinancialRequest(req)
	if err != nil {
		return nil, err
	}
	return e.financialOutput(ctx, doc, format, req.StartDate, req.EndDate)
}

// FinancialFromSource computes the period's figures from src and renders
// them in format.
func (e *Exporter) FinancialFromSource(ctx context.Context, src FinancialSource, startDate, endDate string, format Format) (*Output, error) {
	period, err := report.ParsePeriod(startDate, endDate)
	if err != nil {
		return nil, err
	}

	in, err := src.FinancialInput(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load financial figures: %w", err)
	}

	doc := e.renderer.RenderFinancialReport(e.renderer.FormatDateRange(period), in.Summary, in.Income, in.Expense)
	return e.financialOutput(ctx, doc, format, startDate, endDate)
}

func (e *Exporter) financialOutput(ctx context.Context, doc *report.FinancialDocument, format Format, startDate, endDate string) (*Output, error) {
	out := &Output{}

	var err error
	switch format {
	case FormatHTML:
		out.Data, err = markup.RenderFinancialHTML(doc, e.renderer.Locale())
		out.ContentType = markup.ContentType
	default:
		out.Data, err = xlsxwriter.WriteFinancialWorkbook(doc)
		out.ContentType = xlsxwriter.ContentType
		format = FormatXLSX
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write financial report: %w", err)
	}

	out.Filename = e.fileName("financial", startDate, endDate, "."+string(format))

	zerolog.Ctx(ctx).Info().
		Str("format", string(format)).
		Str("net_profit", doc.NetProfit().Amount.String()).
		Str("style", doc.NetProfit().Style.String()).
		Msg("financial report rendered")

	return out, nil
}

// Save writes out to the configured output directory and returns its path.
func (e *Exporter) Save(out *Output) (string, error) {
	return utils.WriteOutput(e.cfg.OutputDir, out.Filename, out.Data)
}

func (e *Exporter) fileName(kind, startDate, endDate, ext string) string {
	params := map[string]string{
		"report": kind,
		"start":  strings.TrimSpace(startDate),
		"end":    strings.TrimSpace(endDate),
	}
	name := utils.GenerateOutputFileName(e.cfg.FileNameFormat, ext, params, e.now())
	if strings.TrimSuffix(name, ext) == "" {
		name = kind + ext
	}
	return name
}

// =============================================================================
// FILE PIPELINE
// =============================================================================

// LoadMemberFile reads member rows from a .csv or .xlsx file. A missing
// file is a ValidationError on "input", like an unsupported extension.
func (e *Exporter) LoadMemberFile(path string) ([]types.ReportRow, error) {
	if !utils.FileExists(path) {
		return nil, &validation.ValidationError{Field: "input", Value: path, Message: "file does not exist"}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		data, err := csvparser.Parse(path, e.cfg.CSVSettings, e.cfg.MaxRowErrors)
		if err != nil {
			return nil, err
		}
		return data.Rows, nil
	case ".xlsx", ".xlsm":
		data, err := xlsxparser.Parse(path, e.cfg.XLSXColumns, e.cfg.MaxRowErrors)
		if err != nil {
			return nil, err
		}
		return data.Rows, nil
	default:
		return nil, &validation.ValidationError{Field: "input", Value: path, Message: "unsupported file type, expected .csv or .xlsx"}
	}
}

// LoadMemberFiles reads every path concurrently and concatenates the rows in
// argument order. Every failing file is reported.
func (e *Exporter) LoadMemberFiles(ctx context.Context, paths []string) ([]types.ReportRow, error) {
	type loaded struct {
		index int
		rows  []types.ReportRow
		err   error
	}

	var wg sync.WaitGroup
	results := make(chan loaded, len(paths))

	for i, path := range paths {
		wg.Add(1)

		go func(index int, path string) {
			defer wg.Done()

			rows, err := e.LoadMemberFile(path)
			results <- loaded{index: index, rows: rows, err: err}
		}(i, path)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	perFile := make([][]types.ReportRow, len(paths))
	var errs []error
	for res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		perFile[res.index] = res.rows
		zerolog.Ctx(ctx).Debug().Str("input", paths[res.index]).Int("rows", len(res.rows)).Msg("input loaded")
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var rows []types.ReportRow
	for _, r := range perFile {
		rows = append(rows, r...)
	}

	return rows, nil
}

// RunMembers loads the input files, renders the member workbook for the
// period and writes it to the output directory.
func (e *Exporter) RunMembers(ctx context.Context, inputPaths []string, startDate, endDate string) Result {
	result := Result{Source: strings.Join(inputPaths, ", ")}
	logger := zerolog.Ctx(ctx)

	if len(inputPaths) == 0 {
		result.Error = &validation.ValidationError{Field: "input", Message: "at least one input file is required"}
		return result
	}

	logger.Info().Strs("inputs", inputPaths).Msg("processing member export")

	rows, err := e.LoadMemberFiles(ctx, inputPaths)
	if err != nil {
		result.Error = fmt.Errorf("failed to load input: %w", err)
		return result
	}

	return e.finishMembers(ctx, result, rows, startDate, endDate)
}

// RunMembersFromSource is RunMembers with rows read from src.
func (e *Exporter) RunMembersFromSource(ctx context.Context, src MemberSource, name, startDate, endDate string) Result {
	result := Result{Source: name}

	period, err := report.ParsePeriod(startDate, endDate)
	if err != nil {
		result.Error = err
		return result
	}

	rows, err := src.MemberRows(ctx, period)
	if err != nil {
		result.Error = fmt.Errorf("failed to load member rows: %w", err)
		return result
	}

	return e.finishMembers(ctx, result, rows, startDate, endDate)
}

func (e *Exporter) finishMembers(ctx context.Context, result Result, rows []types.ReportRow, startDate, endDate string) Result {
	out, stats, err := e.MemberWorkbook(ctx, rows, startDate, endDate)
	result.Stats = stats
	if err != nil {
		result.Error = err
		return result
	}

	path, err := e.Save(out)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}

	result.OutputFile = path
	result.Success = true
	zerolog.Ctx(ctx).Info().Str("output", path).Msg("wrote member workbook")

	return result
}
