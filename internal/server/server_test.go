package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/renang/report-export/internal/config"
	"github.com/renang/report-export/internal/exporter"
	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) MemberRows(ctx context.Context, period report.Period) ([]types.ReportRow, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ReportRow), args.Error(1)
}

func (m *mockSource) FinancialInput(ctx context.Context, period report.Period) (report.FinancialInput, error) {
	args := m.Called(ctx, period)
	return args.Get(0).(report.FinancialInput), args.Error(1)
}

func newTestServer(t *testing.T, src *mockSource, mutate func(*config.MainConfig)) *httptest.Server {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t))

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	exp, err := exporter.New(cfg)
	require.NoError(t, err)

	deps := Dependencies{Exporter: exp}
	if src != nil {
		deps.Members = src
		deps.Financial = src
	}

	api := NewWebAPI(logger, Config{
		Addr:         ":0",
		MaxBodyBytes: cfg.MaxBodyBytes,
		MaxRowErrors: cfg.MaxRowErrors,
		Dependencies: deps,
	})
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func readSheets(t *testing.T, resp *http.Response) []string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	return f.GetSheetList()
}

const membersBody = `{
  "start_date": "2024-01-01",
  "end_date": "2024-01-31",
  "rows": [
    {"payment_date": "2024-01-05", "class_name": "Renang Dasar", "member_name": "Budi", "amount": "400000", "status": "on_progress"},
    {"payment_date": "2024-01-06", "class_name": "Renang Lanjut", "member_name": "Ani", "amount": "250000", "status": "completed"}
  ]
}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestPostMembers(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp := post(t, ts.URL+"/api/v1/reports/members", membersBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Equal(t, `attachment; filename=members_2024-01-01_2024-01-31.xlsx`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, []string{"Renang Dasar", "Renang Lanjut"}, readSheets(t, resp))
}

func TestPostMembersErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mutate     func(*config.MainConfig)
		wantStatus int
		wantKind   string
	}{
		{
			name:       "malformed JSON",
			body:       `{"rows": [`,
			wantStatus: http.StatusBadRequest,
			wantKind:   kindRequest,
		},
		{
			name:       "bad start date",
			body:       `{"start_date": "01/01/2024", "end_date": "2024-01-31", "rows": []}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   validation.KindFormat,
		},
		{
			name:       "unknown status",
			body:       `{"start_date": "2024-01-01", "end_date": "2024-01-31", "rows": [{"payment_date": "2024-01-02", "member_name": "Budi", "amount": "1", "status": "paused"}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   validation.KindValidation,
		},
		{
			name: "collision with fail policy",
			body: `{"start_date": "2024-01-01", "end_date": "2024-01-31", "rows": [
				{"payment_date": "2024-01-02", "class_name": "A/B", "member_name": "Budi", "amount": "1", "status": "completed"},
				{"payment_date": "2024-01-02", "class_name": "A?B", "member_name": "Ani", "amount": "1", "status": "completed"}]}`,
			mutate:     func(c *config.MainConfig) { c.CollisionPolicy = "fail" },
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   validation.KindNamingCollision,
		},
		{
			name:       "body too large",
			body:       membersBody,
			mutate:     func(c *config.MainConfig) { c.MaxBodyBytes = 16 },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantKind:   kindRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil, tt.mutate)

			resp := post(t, ts.URL+"/api/v1/reports/members", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestPostFinance(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	body := `{"period": "Januari 2024", "summary": {"total_income": 5000000, "total_expense": "3000000"},
		"income": [{"name": "Renang Dasar", "amount": "5000000"}]}`

	resp := post(t, ts.URL+"/api/v1/reports/finance?format=html", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	html, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(html), `class="amount positive">2,000,000`)

	resp = post(t, ts.URL+"/api/v1/reports/finance", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, readSheets(t, resp), 1)

	resp = post(t, ts.URL+"/api/v1/reports/finance?format=pdf", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = post(t, ts.URL+"/api/v1/reports/finance", `{"summary": {"total_income": "banyak"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, validation.KindValidation, decodeError(t, resp).Kind)
}

func TestGetRoutesFromSource(t *testing.T) {
	src := new(mockSource)
	ts := newTestServer(t, src, nil)

	src.On("MemberRows", mock.Anything, mock.Anything).Return([]types.ReportRow{{
		PaymentDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		ClassName:   "Renang Anak",
		MemberName:  "Sari",
		Amount:      types.MoneyFromInt(150000),
		Status:      types.StatusCompleted,
	}}, nil).Once()

	resp := get(t, ts.URL+"/api/v1/reports/members?start_date=2024-01-01&end_date=2024-01-31")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Renang Anak"}, readSheets(t, resp))

	src.On("FinancialInput", mock.Anything, mock.Anything).Return(report.FinancialInput{
		Summary: types.FinancialSummary{NetProfit: types.MoneyFromInt(-5)},
	}, nil).Once()

	resp = get(t, ts.URL+"/api/v1/reports/finance?start_date=2024-01-01&end_date=2024-01-31&format=html")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	html, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(html), `class="amount negative">-5`)

	src.AssertExpectations(t)
}

func TestGetRoutesSourceFailure(t *testing.T) {
	src := new(mockSource)
	ts := newTestServer(t, src, nil)
	src.On("MemberRows", mock.Anything, mock.Anything).Return(nil, errors.New("database is locked"))

	resp := get(t, ts.URL+"/api/v1/reports/members?start_date=2024-01-01&end_date=2024-01-31")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, validation.KindInternal, body.Kind)
	assert.Equal(t, "internal error", body.Error)
}

func TestGetRoutesWithoutSource(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp := get(t, ts.URL+"/api/v1/reports/members?start_date=2024-01-01&end_date=2024-01-31")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	cfg := config.Default()
	exp, err := exporter.New(cfg)
	require.NoError(t, err)

	api := NewWebAPI(zerolog.Nop(), Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second, Dependencies: Dependencies{Exporter: exp}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
