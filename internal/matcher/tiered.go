package matcher

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/propertyregister/internal/register"
	"github.com/propertyregister/internal/store"
)

const (
	// maxResults caps the final deduplicated candidate list.
	maxResults = 200
	// levelLimit caps each keyword level's store query.
	levelLimit = 100
	// wordLimit caps each fallback single-word query.
	wordLimit = 20

	// weightEircode outranks every keyword level: an exact postal match is
	// the most authoritative signal the register has.
	weightEircode = 5
	// fallbackLevel sorts untagged fallback rows after every tagged level.
	fallbackLevel = 999
)

var leadingNumber = regexp.MustCompile(`^\d+\s+`)

// candidate tags a record with the weight and level of the search that
// found it. Tags live only for the duration of one Match call.
type candidate struct {
	rec    register.SaleRecord
	weight int
	level  int
}

// TieredEngine matches addresses through an ordered cascade of searches:
// exact eircode, then four keyword levels of decreasing specificity, then a
// single-word fallback that only runs when everything else came up empty.
// Results from all tiers are pooled, deduplicated and ranked together.
type TieredEngine struct {
	store store.RecordStore
	log   *logrus.Logger

	// FailOpen makes store failures during a search degrade to an empty
	// result instead of an error. On by default to keep the search surface
	// available when the store hiccups; turn off to surface the failure.
	FailOpen bool
}

// NewTieredEngine creates the default matching engine.
func NewTieredEngine(s store.RecordStore, log *logrus.Logger) *TieredEngine {
	return &TieredEngine{store: s, log: log, FailOpen: true}
}

// Match returns up to 200 records ranked by how plausibly they correspond
// to the queried address. An empty address with no eircode yields an empty
// list, not an error.
func (e *TieredEngine) Match(address, county, eircode string) ([]register.SaleRecord, error) {
	var pool []candidate

	// Tier 1: exact eircode match.
	if eircode != "" {
		recs, err := e.store.FindByEircode(eircode)
		if err != nil {
			if failErr := e.searchFailure("eircode lookup", err); failErr != nil {
				return nil, failErr
			}
		}
		for _, rec := range recs {
			pool = append(pool, candidate{rec: rec, weight: weightEircode, level: 0})
		}
	}

	cleaned := leadingNumber.ReplaceAllString(strings.ToLower(strings.TrimSpace(address)), "")
	cleaned = strings.TrimSpace(cleaned)

	// Tier 2: keyword levels of increasing breadth. Every level that can be
	// built runs; its rows carry the level's weight into the final ranking.
	for _, level := range buildLevels(cleaned) {
		recs, err := e.store.SearchAddress(level.term, county, levelLimit)
		if err != nil {
			if failErr := e.searchFailure("keyword search", err); failErr != nil {
				return nil, failErr
			}
			continue
		}
		for _, rec := range recs {
			pool = append(pool, candidate{rec: rec, weight: level.weight, level: level.level})
		}
	}

	// Tier 3: single-word fallback, only when the ranked tiers found nothing.
	if len(pool) == 0 {
		for _, word := range splitWords(strings.ToLower(address), 3) {
			recs, err := e.store.SearchAddress(word, county, wordLimit)
			if err != nil {
				if failErr := e.searchFailure("fallback word search", err); failErr != nil {
					return nil, failErr
				}
				continue
			}
			for _, rec := range recs {
				pool = append(pool, candidate{rec: rec, weight: 0, level: fallbackLevel})
			}
		}
	}

	return rankAndDedup(pool, cleaned), nil
}

// searchFailure applies the engine's degradation policy to a store error.
// It returns nil when the engine should continue with partial results.
func (e *TieredEngine) searchFailure(stage string, err error) error {
	if !e.FailOpen {
		return fmt.Errorf("%s failed: %w", stage, err)
	}
	e.log.WithError(err).Warnf("%s failed, continuing without its results", stage)
	return nil
}

type searchLevel struct {
	term   string
	weight int
	level  int
}

// buildLevels constructs up to four search terms from the cleaned address:
// the first keyword alone, the first two joined, the first three joined,
// and the full remaining string. Narrower terms rank higher.
func buildLevels(cleaned string) []searchLevel {
	parts := splitWords(cleaned, 2)

	var levels []searchLevel
	if len(parts) > 0 {
		levels = append(levels, searchLevel{term: parts[0], weight: 4, level: 1})
	}
	if len(parts) > 1 {
		levels = append(levels, searchLevel{term: parts[0] + " " + parts[1], weight: 3, level: 2})
	}
	if len(parts) > 2 {
		levels = append(levels, searchLevel{term: strings.Join(parts[:3], " "), weight: 2, level: 3})
	}
	if len(parts) > 3 {
		levels = append(levels, searchLevel{term: cleaned, weight: 1, level: 4})
	}
	return levels
}

// splitWords tokenizes on commas and whitespace, keeping words longer than
// minLen characters.
func splitWords(s string, minLen int) []string {
	raw := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	var words []string
	for _, w := range raw {
		if len(w) > minLen {
			words = append(words, w)
		}
	}
	return words
}

// rankAndDedup collapses the pooled tiers into the final ordered list:
// dedup by record id (first occurrence wins, and tiers are pooled in
// priority order), then sort by weight, exact-substring containment, level
// specificity and recency, then cap at maxResults.
func rankAndDedup(pool []candidate, query string) []register.SaleRecord {
	seen := make(map[int64]bool, len(pool))
	deduped := pool[:0]
	for _, c := range pool {
		if seen[c.rec.ID] {
			continue
		}
		seen[c.rec.ID] = true
		deduped = append(deduped, c)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.weight != b.weight {
			return a.weight > b.weight
		}
		aContains := query != "" && strings.Contains(strings.ToLower(a.rec.Address), query)
		bContains := query != "" && strings.Contains(strings.ToLower(b.rec.Address), query)
		if aContains != bContains {
			return aContains
		}
		if a.level != b.level {
			return a.level < b.level
		}
		return a.rec.SaleDate.After(b.rec.SaleDate)
	})

	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}

	out := make([]register.SaleRecord, len(deduped))
	for i, c := range deduped {
		out[i] = c.rec
	}
	return out
}
