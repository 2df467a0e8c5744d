package store

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/propertyregister/internal/register"
)

// PostgresStore implements RecordStore on top of the property_register
// table. Substring search relies on the pg_trgm GIN index created by the
// schema bootstrap; without it ILIKE on arbitrary positions degrades to a
// sequential scan.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `
	id, sale_date, address, county, eircode,
	price_cents, not_full_market_price, vat_exclusive,
	description, size_description, year
`

// InsertBatch appends records in a single multi-row insert. The eircode
// lookup column is derived here so equality search never has to normalize
// at query time.
func (p *PostgresStore) InsertBatch(records []register.SaleRecord) error {
	if len(records) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO property_register (
			sale_date, address, county, eircode, eircode_lookup,
			price_cents, not_full_market_price, vat_exclusive,
			description, size_description, year
		) VALUES `)

	args := make([]interface{}, 0, len(records)*11)
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 11
		sb.WriteString("(")
		for j := 1; j <= 11; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j)
		}
		sb.WriteString(")")

		args = append(args,
			rec.SaleDate, rec.Address, rec.County,
			nullable(rec.Eircode), nullable(register.NormalizeEircode(rec.Eircode)),
			rec.PriceCents, rec.NotFullMarketPrice, rec.VATExclusive,
			nullable(rec.Description), nullable(rec.SizeDescription), rec.Year,
		)
	}

	if _, err := p.db.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert record batch: %w", err)
	}
	return nil
}

func (p *PostgresStore) FindByEircode(code string) ([]register.SaleRecord, error) {
	rows, err := p.db.Query(`
		SELECT `+recordColumns+`
		FROM property_register
		WHERE eircode_lookup = $1
		ORDER BY sale_date DESC, id DESC
	`, register.NormalizeEircode(code))
	if err != nil {
		return nil, fmt.Errorf("eircode lookup failed: %w", err)
	}
	return scanRecords(rows)
}

func (p *PostgresStore) SearchAddress(term, county string, limit int) ([]register.SaleRecord, error) {
	pattern := "%" + term + "%"
	limit = queryLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if county != "" {
		rows, err = p.db.Query(`
			SELECT `+recordColumns+`
			FROM property_register
			WHERE county = $1 AND address ILIKE $2
			ORDER BY sale_date DESC, id DESC
			LIMIT $3
		`, county, pattern, limit)
	} else {
		rows, err = p.db.Query(`
			SELECT `+recordColumns+`
			FROM property_register
			WHERE address ILIKE $1
			ORDER BY sale_date DESC, id DESC
			LIMIT $2
		`, pattern, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("address search failed: %w", err)
	}
	return scanRecords(rows)
}

func (p *PostgresStore) TopByPrice(locality string, year, limit int) ([]register.SaleRecord, error) {
	rows, err := p.db.Query(`
		SELECT `+recordColumns+`
		FROM property_register
		WHERE year = $1 AND address ILIKE $2
		ORDER BY price_cents DESC, id ASC
		LIMIT $3
	`, year, "%"+locality+"%", queryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("locality price query failed: %w", err)
	}
	return scanRecords(rows)
}

func (p *PostgresStore) RecentByCounty(county string, limit int) ([]register.SaleRecord, error) {
	limit = queryLimit(limit)
	var (
		rows *sql.Rows
		err  error
	)
	if county != "" {
		rows, err = p.db.Query(`
			SELECT `+recordColumns+`
			FROM property_register
			WHERE county = $1
			ORDER BY sale_date DESC, id DESC
			LIMIT $2
		`, county, limit)
	} else {
		rows, err = p.db.Query(`
			SELECT `+recordColumns+`
			FROM property_register
			ORDER BY sale_date DESC, id DESC
			LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("county query failed: %w", err)
	}
	return scanRecords(rows)
}

func (p *PostgresStore) Count() (int, error) {
	var count int
	err := p.db.QueryRow(`SELECT COUNT(*) FROM property_register`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

func (p *PostgresStore) CountByYear(year int) (int, error) {
	var count int
	err := p.db.QueryRow(`SELECT COUNT(*) FROM property_register WHERE year = $1`, year).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by year failed: %w", err)
	}
	return count, nil
}

func scanRecords(rows *sql.Rows) ([]register.SaleRecord, error) {
	defer rows.Close()

	var out []register.SaleRecord
	for rows.Next() {
		var (
			rec                     register.SaleRecord
			eircode, desc, sizeDesc sql.NullString
		)
		err := rows.Scan(
			&rec.ID, &rec.SaleDate, &rec.Address, &rec.County, &eircode,
			&rec.PriceCents, &rec.NotFullMarketPrice, &rec.VATExclusive,
			&desc, &sizeDesc, &rec.Year,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Eircode = eircode.String
		rec.Description = desc.String
		rec.SizeDescription = sizeDesc.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record iteration failed: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// queryLimit maps the interface's non-positive no-cap convention onto a
// concrete LIMIT value.
func queryLimit(limit int) int {
	if limit <= 0 {
		return math.MaxInt32
	}
	return limit
}
