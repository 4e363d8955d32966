package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

// =============================================================================
// REQUEST DOCUMENT
// =============================================================================

// Figure is a money amount as written in a request document. JSON numbers
// and strings are both accepted; the text is validated by Build.
type Figure string

// UnmarshalJSON accepts a JSON string, number or null.
func (f *Figure) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Figure(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = Figure(b)
	return nil
}

// UnmarshalYAML accepts any scalar.
func (f *Figure) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	*f = Figure(node.Value)
	return nil
}

// SummaryInput holds the totals of a request.
type SummaryInput struct {
	TotalIncome  Figure `json:"total_income" yaml:"total_income"`
	TotalExpense Figure `json:"total_expense" yaml:"total_expense"`
	NetProfit    Figure `json:"net_profit" yaml:"net_profit"`
	Receivables  Figure `json:"receivables" yaml:"receivables"`
}

// BreakdownInput is one breakdown line of a request.
type BreakdownInput struct {
	Name   string `json:"name" yaml:"name"`
	Amount Figure `json:"amount" yaml:"amount"`
}

// FinancialRequest is the financial report input read from a YAML or JSON
// document (or an HTTP request body).
//
// The period is shown either as the free-text Period, or, when Period is
// empty, as the formatted StartDate/EndDate range.
type FinancialRequest struct {
	Period    string           `json:"period" yaml:"period"`
	StartDate string           `json:"start_date" yaml:"start_date"`
	EndDate   string           `json:"end_date" yaml:"end_date"`
	Summary   SummaryInput     `json:"summary" yaml:"summary"`
	Income    []BreakdownInput `json:"income" yaml:"income"`
	Expense   []BreakdownInput `json:"expense" yaml:"expense"`
}

// FinancialInput is a validated FinancialRequest.
type FinancialInput struct {
	Summary types.FinancialSummary
	Income  []types.BreakdownEntry
	Expense []types.BreakdownEntry
}

// Build validates every figure of req.
//
// Total income and total expense are required. A missing net profit is
// taken as income minus expense and missing receivables as zero.
//
// RETURNS:
//   - The typed input.
//   - A *validation.ValidationError naming the first malformed figure.
func (req FinancialRequest) Build() (FinancialInput, error) {
	var in FinancialInput
	var err error

	if in.Summary.TotalIncome, err = types.ParseMoney("summary.total_income", string(req.Summary.TotalIncome)); err != nil {
		return FinancialInput{}, err
	}
	if in.Summary.TotalExpense, err = types.ParseMoney("summary.total_expense", string(req.Summary.TotalExpense)); err != nil {
		return FinancialInput{}, err
	}

	if strings.TrimSpace(string(req.Summary.NetProfit)) == "" {
		in.Summary.NetProfit = in.Summary.TotalIncome.Sub(in.Summary.TotalExpense)
	} else if in.Summary.NetProfit, err = types.ParseMoney("summary.net_profit", string(req.Summary.NetProfit)); err != nil {
		return FinancialInput{}, err
	}

	if strings.TrimSpace(string(req.Summary.Receivables)) == "" {
		in.Summary.Receivables = types.MoneyFromInt(0)
	} else if in.Summary.Receivables, err = types.ParseMoney("summary.receivables", string(req.Summary.Receivables)); err != nil {
		return FinancialInput{}, err
	}

	if in.Income, err = buildBreakdown("income", req.Income); err != nil {
		return FinancialInput{}, err
	}
	if in.Expense, err = buildBreakdown("expense", req.Expense); err != nil {
		return FinancialInput{}, err
	}

	return in, nil
}

func buildBreakdown(section string, lines []BreakdownInput) ([]types.BreakdownEntry, error) {
	entries := make([]types.BreakdownEntry, 0, len(lines))
	for i, line := range lines {
		field := fmt.Sprintf("%s[%d]", section, i)
		if err := validation.RequireNonEmpty(field+".name", line.Name); err != nil {
			return nil, err
		}
		amount, err := types.ParseMoney(field+".amount", string(line.Amount))
		if err != nil {
			return nil, err
		}
		entries = append(entries, types.BreakdownEntry{Name: strings.TrimSpace(line.Name), Amount: amount})
	}
	return entries, nil
}

// PeriodLabel returns the text shown after the period prefix for req.
func (r *Renderer) PeriodLabel(req FinancialRequest) (string, error) {
	if label := strings.TrimSpace(req.Period); label != "" {
		return label, nil
	}
	p, err := ParsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return "", err
	}
	return r.FormatDateRange(p), nil
}

// RenderFinancialRequest validates req and renders it.
func (r *Renderer) RenderFinancialRequest(req FinancialRequest) (*FinancialDocument, error) {
	label, err := r.PeriodLabel(req)
	if err != nil {
		return nil, err
	}
	in, err := req.Build()
	if err != nil {
		return nil, err
	}
	return r.RenderFinancialReport(label, in.Summary, in.Income, in.Expense), nil
}

// LoadFinancialRequest reads a request document. Files ending in .json are
// decoded as JSON, everything else as YAML.
func LoadFinancialRequest(path string) (FinancialRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FinancialRequest{}, fmt.Errorf("failed to read financial request: %w", err)
	}

	var req FinancialRequest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &req)
	} else {
		err = yaml.Unmarshal(data, &req)
	}
	if err != nil {
		return FinancialRequest{}, fmt.Errorf("failed to parse financial request %s: %w", path, err)
	}

	return req, nil
}
