// Package store provides the append-only sale record table behind the
// matching and analysis engines. Consumers depend on the RecordStore
// interface, not on a concrete implementation.
package store

import "github.com/propertyregister/internal/register"

// RecordStore is the read/append surface over the property register table.
// Rows are immutable once inserted; there is no update or delete.
type RecordStore interface {
	// InsertBatch appends a batch of records and assigns their ids.
	InsertBatch(records []register.SaleRecord) error

	// FindByEircode returns records whose eircode equals code in lookup form
	// (uppercase, no whitespace), most recent sale first.
	FindByEircode(code string) ([]register.SaleRecord, error)

	// SearchAddress returns records whose address contains term
	// (case-insensitive), optionally scoped to a county, most recent sale
	// first, capped at limit. A non-positive limit applies no cap; the same
	// holds for every limited query below.
	SearchAddress(term, county string, limit int) ([]register.SaleRecord, error)

	// TopByPrice returns records for an exact year whose address contains
	// locality (case-insensitive), highest price first, capped at limit.
	TopByPrice(locality string, year, limit int) ([]register.SaleRecord, error)

	// RecentByCounty returns records for a county (or all records when county
	// is empty), most recent sale first, capped at limit.
	RecentByCounty(county string, limit int) ([]register.SaleRecord, error)

	// Count returns the total number of stored records.
	Count() (int, error)

	// CountByYear returns the number of stored records for a sale year.
	CountByYear(year int) (int, error)
}
