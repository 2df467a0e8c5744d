package analysis

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/propertyregister/internal/register"
	"github.com/propertyregister/internal/store"
)

// topResultsCap bounds the locality analysis to the most expensive sales.
const topResultsCap = 20

// PriceAnalysis is the average-of-the-most-expensive-N view for a locality
// and year. The mean covers exactly TopRecords, not the full match set.
type PriceAnalysis struct {
	Locality          string                `json:"locality"`
	Year              int                   `json:"year"`
	AveragePriceEuros int64                 `json:"average_price"`
	Count             int                   `json:"count"`
	TopRecords        []register.SaleRecord `json:"top_records"`
}

// Analyzer computes locality price analyses against a record store.
type Analyzer struct {
	store store.RecordStore
	log   *logrus.Logger
}

// NewAnalyzer creates a locality price analyzer.
func NewAnalyzer(s store.RecordStore, log *logrus.Logger) *Analyzer {
	return &Analyzer{store: s, log: log}
}

// Analyze returns the mean over the up-to-20 highest-priced sales whose
// address contains locality in the given year. Zero matches is not an
// error: the zero-valued analysis comes back with an empty record list.
func (a *Analyzer) Analyze(locality string, year int) (PriceAnalysis, error) {
	result := PriceAnalysis{
		Locality:   locality,
		Year:       year,
		TopRecords: []register.SaleRecord{},
	}

	records, err := a.store.TopByPrice(locality, year, topResultsCap)
	if err != nil {
		return result, fmt.Errorf("price analysis query failed: %w", err)
	}
	if len(records) == 0 {
		return result, nil
	}

	total := 0.0
	for _, rec := range records {
		total += rec.PriceEuros()
	}

	result.TopRecords = records
	result.Count = len(records)
	result.AveragePriceEuros = int64(math.Round(total / float64(len(records))))

	a.log.WithFields(logrus.Fields{
		"locality":      locality,
		"year":          year,
		"count":         result.Count,
		"average_price": result.AveragePriceEuros,
	}).Info("locality price analysis")
	return result, nil
}
