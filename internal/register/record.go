package register

import "time"

// SaleRecord is one row of the residential property price register.
// Records are append-only: once imported they are never updated or deleted,
// so concurrent readers never observe a partially written row.
type SaleRecord struct {
	ID                 int64     `json:"id"`
	SaleDate           time.Time `json:"sale_date"`
	Address            string    `json:"address"`
	County             string    `json:"county"`
	Eircode            string    `json:"eircode,omitempty"`
	PriceCents         int64     `json:"price_cents"`
	NotFullMarketPrice bool      `json:"not_full_market_price"`
	VATExclusive       bool      `json:"vat_exclusive"`
	Description        string    `json:"description,omitempty"`
	SizeDescription    string    `json:"size_description,omitempty"`
	Year               int       `json:"year"`
}

// PriceEuros returns the sale price in euros. Prices are stored in cents to
// avoid floating-point rounding drift; conversion happens only at read time.
func (r SaleRecord) PriceEuros() float64 {
	return float64(r.PriceCents) / 100
}
