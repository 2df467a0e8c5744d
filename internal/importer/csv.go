// Package importer loads yearly property register CSV extracts into the
// record store. A malformed row never aborts an import: it is logged,
// skipped, and excluded from the returned count.
package importer

import (
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/propertyregister/internal/register"
	"github.com/propertyregister/internal/store"
)

const defaultBatchSize = 100

// Importer parses raw register CSV text and appends the rows to a store.
type Importer struct {
	store     store.RecordStore
	log       *logrus.Logger
	batchSize int
}

// NewImporter creates an importer flushing to the store in batches.
func NewImporter(s store.RecordStore, log *logrus.Logger) *Importer {
	return &Importer{store: s, log: log, batchSize: defaultBatchSize}
}

// ImportBatch parses the raw CSV for a yearly extract and stores every valid
// row, returning the number of records imported. The first line is a header.
// targetYear identifies the source file for logging only; the stored year is
// always derived from the parsed sale date, so a stray 2024-dated row in a
// "2025" file lands under 2024.
//
// Columns: sale date (DD/MM/YYYY), address, county, eircode, price,
// not-full-market-price flag, VAT-exclusive flag, description, size
// description. Quoted fields may contain embedded commas.
func (im *Importer) ImportBatch(raw string, targetYear int) (int, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) <= 1 {
		return 0, nil
	}

	imported := 0
	skipped := 0
	batch := make([]register.SaleRecord, 0, im.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.store.InsertBatch(batch); err != nil {
			return fmt.Errorf("failed to store import batch: %w", err)
		}
		imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for i, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseRow(line)
		if err != nil {
			skipped++
			im.log.WithFields(logrus.Fields{
				"line":   i + 2,
				"reason": err,
			}).Warn("skipping malformed register row")
			continue
		}

		batch = append(batch, rec)
		if len(batch) >= im.batchSize {
			if err := flush(); err != nil {
				return imported, err
			}
		}
	}

	if err := flush(); err != nil {
		return imported, err
	}

	im.log.WithFields(logrus.Fields{
		"target_year": targetYear,
		"imported":    imported,
		"skipped":     skipped,
	}).Info("register import complete")
	return imported, nil
}

// parseRow converts a single CSV line into a SaleRecord.
func parseRow(line string) (register.SaleRecord, error) {
	fields, err := splitFields(line)
	if err != nil {
		return register.SaleRecord{}, err
	}
	if len(fields) < 5 {
		return register.SaleRecord{}, fmt.Errorf("expected at least 5 fields, got %d", len(fields))
	}

	saleDate, err := parseDate(fields[0])
	if err != nil {
		return register.SaleRecord{}, err
	}

	cents, err := parsePriceCents(fields[4])
	if err != nil {
		return register.SaleRecord{}, err
	}

	rec := register.SaleRecord{
		SaleDate:   saleDate,
		Address:    fields[1],
		County:     fields[2],
		Eircode:    fields[3],
		PriceCents: cents,
		Year:       saleDate.Year(),
	}
	if len(fields) > 5 {
		rec.NotFullMarketPrice = parseYesNo(fields[5])
	}
	if len(fields) > 6 {
		rec.VATExclusive = parseYesNo(fields[6])
	}
	if len(fields) > 7 {
		rec.Description = fields[7]
	}
	if len(fields) > 8 {
		rec.SizeDescription = fields[8]
	}
	return rec, nil
}

// splitFields splits one CSV line, honouring quoted fields with embedded
// commas.
func splitFields(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	fields, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("unparseable CSV line: %w", err)
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields, nil
}

// parseDate accepts the register's day-first date formats.
func parseDate(s string) (time.Time, error) {
	formats := []string{
		"02/01/2006",
		"2/1/2006",
		"02/01/06",
		"2/1/06",
		"2006-01-02",
	}
	s = strings.TrimSpace(s)
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable sale date %q", s)
}

// parsePriceCents strips the currency symbol (including the mangled form
// some extracts carry) and thousands separators, then converts euros to
// cents rounding to the nearest cent.
func parsePriceCents(s string) (int64, error) {
	cleaned := strings.NewReplacer("€", "", "�", "", ",", "", " ", "").Replace(s)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q", s)
	}
	if value <= 0 {
		return 0, fmt.Errorf("non-positive price %q", s)
	}
	return int64(math.Round(value * 100)), nil
}

func parseYesNo(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}
