package matcher

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"github.com/sirupsen/logrus"

	"github.com/propertyregister/internal/register"
	"github.com/propertyregister/internal/store"
)

const (
	// fuzzyPoolLimit is how many recent county-scoped records are scored.
	fuzzyPoolLimit = 1000
	// fuzzyMinScore drops weak candidates; anything at or below is noise.
	fuzzyMinScore = 50
	// fuzzyMaxResults caps the survivors.
	fuzzyMaxResults = 20

	// Market sanity band for downstream aggregation, in euros.
	minMarketEuros = 50_000
	maxMarketEuros = 5_000_000
	// Prices above this are assumed to have been stored in cents twice over
	// and are repaired by dividing by 100.
	centsMixupEuros = 10_000_000
)

// ScoredRecord is a sale record with its fuzzy match score.
type ScoredRecord struct {
	register.SaleRecord
	Score float64 `json:"score"`
}

// FuzzyEngine scores every recent record in scope against the query using
// word overlap and Levenshtein similarity. Slower than the tiered cascade
// but survives misspelled street names.
type FuzzyEngine struct {
	store store.RecordStore
	log   *logrus.Logger
}

// NewFuzzyEngine creates the edit-distance scoring engine.
func NewFuzzyEngine(s store.RecordStore, log *logrus.Logger) *FuzzyEngine {
	return &FuzzyEngine{store: s, log: log}
}

// Match implements Matcher; the eircode argument is unused because this path
// exists for queries where no eircode matched.
func (e *FuzzyEngine) Match(address, county, _ string) ([]register.SaleRecord, error) {
	scored, err := e.Score(address, county)
	if err != nil {
		return nil, err
	}
	out := make([]register.SaleRecord, len(scored))
	for i, s := range scored {
		out[i] = s.SaleRecord
	}
	return out, nil
}

// Score ranks recent county-scoped records against the address and returns
// the top survivors, highest score first.
func (e *FuzzyEngine) Score(address, county string) ([]ScoredRecord, error) {
	clean := strings.ToLower(strings.TrimSpace(address))
	street := streetName(clean)

	pool, err := e.store.RecentByCounty(county, fuzzyPoolLimit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy candidate query failed: %w", err)
	}

	var scored []ScoredRecord
	for _, rec := range pool {
		score := scoreRecord(rec, clean, street)
		if score > fuzzyMinScore {
			scored = append(scored, ScoredRecord{SaleRecord: rec, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})
	if len(scored) > fuzzyMaxResults {
		scored = scored[:fuzzyMaxResults]
	}

	e.log.WithFields(logrus.Fields{
		"street":  street,
		"county":  county,
		"matches": len(scored),
	}).Debug("fuzzy scoring complete")
	return scored, nil
}

// scoreRecord computes the match score for one record:
// verbatim street substring +200; +50 per significant street word found,
// +100 when all are found; street similarity above 0.7 adds up to 30;
// full-address similarity above 0.5 adds up to 20; recent sales get a
// small bonus.
func scoreRecord(rec register.SaleRecord, cleanQuery, street string) float64 {
	recAddress := strings.ToLower(rec.Address)
	score := 0.0

	if len(street) > 3 {
		if strings.Contains(recAddress, street) {
			score += 200
		}

		words := splitWords(street, 2)
		found := 0
		for _, word := range words {
			if strings.Contains(recAddress, word) {
				found++
				score += 50
			}
		}
		if len(words) > 1 && found == len(words) {
			score += 100
		}

		if sim := similarity(street, recAddress); sim > 0.7 {
			score += sim * 30
		}
	}

	if sim := similarity(cleanQuery, recAddress); sim > 0.5 {
		score += sim * 20
	}

	if rec.Year >= 2020 {
		score += 5
	}
	if rec.Year >= 2023 {
		score += 10
	}
	return score
}

// streetName drops a leading house number from the cleaned query.
func streetName(clean string) string {
	return strings.TrimSpace(leadingNumber.ReplaceAllString(clean, ""))
}

// similarity is normalized Levenshtein similarity: 1 - distance/max(len).
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	distance := edlib.LevenshteinDistance(a, b)
	return 1 - float64(distance)/float64(maxLen)
}

// FilterMarketBand repairs prices that were mistakenly stored in cents and
// drops records priced outside the 50k-5M euro sanity band. It is applied
// to fuzzy matches before any aggregation; register prices are noisy enough
// at the tails to wreck a mean.
func FilterMarketBand(records []register.SaleRecord) []register.SaleRecord {
	var out []register.SaleRecord
	for _, rec := range records {
		if rec.PriceEuros() > centsMixupEuros {
			rec.PriceCents /= 100
		}
		euros := rec.PriceEuros()
		if euros < minMarketEuros || euros > maxMarketEuros {
			continue
		}
		out = append(out, rec)
	}
	return out
}
