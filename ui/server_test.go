package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosetl/app"
	"gosetl/domain/report"
	"gosetl/internal/analysis"
	"gosetl/internal/testkit"
)

func testServer() *Server {
	store := testkit.NewMemoryStore(
		testkit.ConcentratedPlates("texel", "sp-a", 10, 13)...,
	)
	cfg := analysis.Config{Alpha: 0.05, Repeats: 10}
	analyses := app.NewAnalysisService(store, cfg)
	analyses.SetSeed(1)
	batches := app.NewBatchService(store, cfg, 2)
	batches.SetSeed(1)
	return NewServer(analyses, batches)
}

func TestHealthz(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunAndFetchReport(t *testing.T) {
	srv := testServer()

	body := `{"kind":"spot_preference","selections":[{"locations":["texel"],"species":["sp-a"]}]}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var rep report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.NotEmpty(t, rep.ID)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+string(rep.ID), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+string(rep.ID)+"/markdown", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Spot preference")
}

func TestRunRejectsBadBody(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunNoDataMapsTo422(t *testing.T) {
	srv := testServer()
	body := `{"kind":"attraction_intra","selections":[{"species":["missing"]}]}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUnknownReportIs404(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
