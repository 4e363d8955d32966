package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/renang/report-export/internal/exporter"
	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

// kindRequest marks malformed request bodies in error responses.
const kindRequest = "bad_request"

// MembersRequest is the body of POST /api/v1/reports/members.
type MembersRequest struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Rows      []types.RawRow `json:"rows"`
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type handler struct {
	exporter     *exporter.Exporter
	members      exporter.MemberSource
	financial    exporter.FinancialSource
	maxBodyBytes int64
	maxRowErrors int
}

func newHandler(config Config) *handler {
	return &handler{
		exporter:     config.Dependencies.Exporter,
		members:      config.Dependencies.Members,
		financial:    config.Dependencies.Financial,
		maxBodyBytes: config.MaxBodyBytes,
		maxRowErrors: config.MaxRowErrors,
	}
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) PostMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body MembersRequest
	if !h.decode(w, r, &body) {
		return
	}

	rows, err := buildRows(body.Rows, h.maxRowErrors)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, _, err := h.exporter.MemberWorkbook(ctx, rows, body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOutput(w, r, out)
}

func (h *handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	out, _, err := h.exporter.MembersFromSource(ctx, h.members, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOutput(w, r, out)
}

func (h *handler) PostFinance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body report.FinancialRequest
	if !h.decode(w, r, &body) {
		return
	}

	out, err := h.exporter.FinancialReport(ctx, body, format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOutput(w, r, out)
}

func (h *handler) GetFinance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	format, err := exporter.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.exporter.FinancialFromSource(ctx, h.financial, q.Get("start_date"), q.Get("end_date"), format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOutput(w, r, out)
}

// decode reads a JSON body into v. On failure it writes the response and
// returns false.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rejected request body")
	writeJSON(w, r, status, ErrorResponse{Error: "invalid JSON body: " + err.Error(), Kind: kindRequest})
	return false
}

// buildRows validates every raw row, collecting up to limit errors.
func buildRows(raw []types.RawRow, limit int) ([]types.ReportRow, error) {
	collector := validation.Collector{Limit: limit}
	rows := make([]types.ReportRow, 0, len(raw))

	for i, r := range raw {
		row, err := types.NewReportRow(r)
		if err != nil {
			collector.Add(fmt.Errorf("rows[%d]: %w", i, err))
			continue
		}
		rows = append(rows, row)
	}

	return rows, collector.Err()
}

func writeOutput(w http.ResponseWriter, r *http.Request, out *exporter.Output) {
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(out.Data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("file", out.Filename).Msg("failed to write report")
	}
}

// writeError maps input errors to 422 and everything else to 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())
	kind := validation.KindOf(err)

	if validation.IsInputError(err) {
		logger.Info().Err(err).Str("kind", kind).Msg("report request rejected")
		writeJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: kind})
		return
	}

	logger.Error().Err(err).Msg("report generation failed")
	writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Kind: kind})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
