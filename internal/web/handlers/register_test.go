package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyregister/internal/analysis"
	"github.com/propertyregister/internal/importer"
	"github.com/propertyregister/internal/matcher"
	"github.com/propertyregister/internal/register"
	"github.com/propertyregister/internal/store"
)

func newTestHandler(t *testing.T, records ...register.SaleRecord) *RegisterHandler {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	mem := store.NewMemoryStore()
	require.NoError(t, mem.InsertBatch(records))

	return &RegisterHandler{
		Store:    mem,
		Matcher:  matcher.NewTieredEngine(mem, log),
		Analyzer: analysis.NewAnalyzer(mem, log),
		Importer: importer.NewImporter(mem, log),
		Log:      log,
	}
}

func saleRecord(address, county string, year int, priceEuros int64) register.SaleRecord {
	return register.SaleRecord{
		SaleDate:   time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC),
		Address:    address,
		County:     county,
		PriceCents: priceEuros * 100,
		Year:       year,
	}
}

func TestSearchEndpoint(t *testing.T) {
	h := newTestHandler(t,
		saleRecord("18 Seagreen Park, Greystones", "Wicklow", 2024, 450000),
		saleRecord("2 Patrick Street, Cork", "Cork", 2024, 310000),
	)

	req := httptest.NewRequest("GET", "/api/register/search?address=Seagreen+Park&county=Wicklow", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var records []register.SaleRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "18 Seagreen Park, Greystones", records[0].Address)
}

func TestSearchRequiresAddress(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/register/search", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchNoMatchesReturnsEmptyArray(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/register/search?address=Nowhere+Lane", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestPriceHistoryEndpoint(t *testing.T) {
	h := newTestHandler(t,
		saleRecord("18 Seagreen Park, Greystones", "Wicklow", 2023, 400000),
		saleRecord("18 Seagreen Park, Greystones", "Wicklow", 2024, 440000),
	)

	req := httptest.NewRequest("GET", "/api/register/price-history?address=Seagreen+Park", nil)
	rec := httptest.NewRecorder()
	h.PriceHistory(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var history []analysis.YearlyAggregate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)

	assert.Equal(t, 2024, history[0].Year)
	assert.Equal(t, int64(440000), history[0].AveragePriceEuros)
	assert.Equal(t, "+10.0%", history[0].Change)
	assert.Equal(t, 2023, history[1].Year)
}

func TestPriceAnalysisEndpoint(t *testing.T) {
	h := newTestHandler(t,
		saleRecord("1 Patrick Street, Cork", "Cork", 2024, 300000),
		saleRecord("2 Patrick Street, Cork", "Cork", 2024, 320000),
	)

	req := httptest.NewRequest("GET", "/api/register/price-analysis?location=Cork&year=2024", nil)
	rec := httptest.NewRecorder()
	h.PriceAnalysis(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result analysis.PriceAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(310000), result.AveragePriceEuros)
	assert.Equal(t, 2, result.Count)
}

func TestPriceAnalysisValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		url  string
	}{
		{name: "missing location", url: "/api/register/price-analysis?year=2024"},
		{name: "missing year", url: "/api/register/price-analysis?location=Cork"},
		{name: "bad year", url: "/api/register/price-analysis?location=Cork&year=soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			rec := httptest.NewRecorder()
			h.PriceAnalysis(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestImportEndpoint(t *testing.T) {
	h := newTestHandler(t)

	csv := "Date of Sale (dd/mm/yyyy),Address,County,Eircode,Price (€),Not Full Market Price,VAT Exclusive,Description of Property,Property Size Description\n" +
		`02/01/2024,"1 Main Street, Cork",Cork,,"€250,000",No,No,Second-Hand Dwelling,` + "\n"

	req := httptest.NewRequest("POST", "/api/register/import?year=2024", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	h.Import(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result["imported"])

	count, err := h.Store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImportRequiresYear(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("POST", "/api/register/import", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.Import(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestHandler(t,
		saleRecord("1 Main Street", "Cork", 2024, 200000),
		saleRecord("2 Main Street", "Cork", 2024, 210000),
	)

	req := httptest.NewRequest("GET", "/api/register/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result["records"])
}
