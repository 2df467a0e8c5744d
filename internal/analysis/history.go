// Package analysis computes aggregate price views over matched sale records.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/propertyregister/internal/register"
)

// YearlyAggregate is the per-year price summary for a match set.
type YearlyAggregate struct {
	Year              int    `json:"year"`
	AveragePriceEuros int64  `json:"average_price"`
	Count             int    `json:"count"`
	Change            string `json:"change,omitempty"`
}

// PriceHistory groups records by sale year and computes each year's mean
// price in euros, rounded to the nearest euro, most recent year first.
// Years with no records are absent rather than zero-filled.
func PriceHistory(records []register.SaleRecord) []YearlyAggregate {
	type bucket struct {
		total float64
		count int
	}
	buckets := make(map[int]*bucket)

	for _, rec := range records {
		b := buckets[rec.Year]
		if b == nil {
			b = &bucket{}
			buckets[rec.Year] = b
		}
		b.total += rec.PriceEuros()
		b.count++
	}

	out := make([]YearlyAggregate, 0, len(buckets))
	for year, b := range buckets {
		out = append(out, YearlyAggregate{
			Year:              year,
			AveragePriceEuros: int64(math.Round(b.total / float64(b.count))),
			Count:             b.count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}

// YearOverYear annotates each aggregate with the percentage change against
// the preceding year present in the series. The input must already be
// sorted most recent year first, as PriceHistory returns it.
func YearOverYear(aggregates []YearlyAggregate) []YearlyAggregate {
	for i := 0; i < len(aggregates)-1; i++ {
		current := aggregates[i]
		previous := aggregates[i+1]
		if previous.AveragePriceEuros == 0 {
			continue
		}
		change := float64(current.AveragePriceEuros-previous.AveragePriceEuros) /
			float64(previous.AveragePriceEuros) * 100
		sign := ""
		if change > 0 {
			sign = "+"
		}
		aggregates[i].Change = fmt.Sprintf("%s%.1f%%", sign, change)
	}
	return aggregates
}
