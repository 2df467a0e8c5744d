// Package matcher ranks sale records against free-text address queries.
//
// Two engines live here with different trade-offs: TieredEngine runs a fast,
// deterministic cascade of substring searches; FuzzyEngine scores every
// county-scoped record with Levenshtein similarity and tolerates
// misspellings at higher cost. TieredEngine is the default; both satisfy
// Matcher so callers can swap strategies.
package matcher

import "github.com/propertyregister/internal/register"

// Matcher finds sale records plausibly corresponding to an address.
// county and eircode are optional; empty strings disable their filters.
type Matcher interface {
	Match(address, county, eircode string) ([]register.SaleRecord, error)
}
