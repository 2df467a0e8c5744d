package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/propertyregister/internal/analysis"
	"github.com/propertyregister/internal/importer"
	"github.com/propertyregister/internal/matcher"
	"github.com/propertyregister/internal/register"
	"github.com/propertyregister/internal/store"
)

// maxImportBody bounds the raw CSV accepted over HTTP (64 MB).
const maxImportBody = 64 << 20

// RegisterHandler serves the property register query and import endpoints.
type RegisterHandler struct {
	Store    store.RecordStore
	Matcher  matcher.Matcher
	Analyzer *analysis.Analyzer
	Importer *importer.Importer
	Log      *logrus.Logger
}

// Search handles GET /api/register/search?address=&county=&eircode=.
// Missing county/eircode parameters are recovered from the address text
// when possible.
func (h *RegisterHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	records, err := h.Matcher.Match(q.Address, q.County, q.Eircode)
	if err != nil {
		h.Log.WithError(err).Error("register search failed")
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []register.SaleRecord{}
	}
	writeJSON(w, records)
}

// PriceHistory handles GET /api/register/price-history with the same
// parameters as Search, composing the matcher with per-year aggregation.
func (h *RegisterHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	records, err := h.Matcher.Match(q.Address, q.County, q.Eircode)
	if err != nil {
		h.Log.WithError(err).Error("price history search failed")
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	history := analysis.YearOverYear(analysis.PriceHistory(records))
	if history == nil {
		history = []analysis.YearlyAggregate{}
	}
	writeJSON(w, history)
}

// PriceAnalysis handles GET /api/register/price-analysis?location=&year=.
func (h *RegisterHandler) PriceAnalysis(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	location := strings.TrimSpace(query.Get("location"))
	if location == "" {
		http.Error(w, "location parameter required", http.StatusBadRequest)
		return
	}
	year, err := strconv.Atoi(query.Get("year"))
	if err != nil {
		http.Error(w, "year parameter must be an integer", http.StatusBadRequest)
		return
	}

	result, err := h.Analyzer.Analyze(location, year)
	if err != nil {
		h.Log.WithError(err).Error("price analysis failed")
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// Import handles POST /api/register/import?year= with the raw CSV as body.
func (h *RegisterHandler) Import(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, "year parameter must be an integer", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	imported, err := h.Importer.ImportBatch(string(body), year)
	if err != nil {
		h.Log.WithError(err).Error("register import failed")
		http.Error(w, "import failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]int{"imported": imported})
}

// Stats handles GET /api/register/stats.
func (h *RegisterHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.Store.Count()
	if err != nil {
		h.Log.WithError(err).Error("stats query failed")
		http.Error(w, "stats failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{"records": total})
}

// parseQuery reads address/county/eircode parameters, falling back to
// extracting county and eircode from the address text the way the search
// UI submits it.
func (h *RegisterHandler) parseQuery(w http.ResponseWriter, r *http.Request) (register.Query, bool) {
	params := r.URL.Query()
	address := strings.TrimSpace(params.Get("address"))
	if address == "" {
		http.Error(w, "address parameter required", http.StatusBadRequest)
		return register.Query{}, false
	}

	q := register.ParseQuery(address)
	if county := register.CanonicalCounty(params.Get("county")); county != "" {
		q.County = county
	}
	if eircode := params.Get("eircode"); eircode != "" {
		q.Eircode = register.NormalizeEircode(eircode)
	}
	return q, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}
