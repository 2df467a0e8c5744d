package matcher

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyregister/internal/register"
	"github.com/propertyregister/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func saleOn(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func record(address, county, eircode string, date time.Time, priceEuros int64) register.SaleRecord {
	return register.SaleRecord{
		SaleDate:   date,
		Address:    address,
		County:     county,
		Eircode:    eircode,
		PriceCents: priceEuros * 100,
		Year:       date.Year(),
	}
}

func seededStore(t *testing.T, records ...register.SaleRecord) *store.MemoryStore {
	t.Helper()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.InsertBatch(records))
	return mem
}

func TestMatchEircodeOutranksAddressMatch(t *testing.T) {
	mem := seededStore(t,
		record("4 Somewhere Else, Bray", "Wicklow", "A63 NX62", saleOn(2021, 3, 1), 300000),
		record("18 Seagreen Park, Greystones", "Wicklow", "", saleOn(2024, 6, 1), 450000),
	)
	engine := NewTieredEngine(mem, testLogger())

	records, err := engine.Match("18 Seagreen Park", "", "A63NX62")
	require.NoError(t, err)
	require.NotEmpty(t, records)

	// The eircode match wins despite being older and not containing the
	// queried street.
	assert.Equal(t, "4 Somewhere Else, Bray", records[0].Address)
	assert.Equal(t, "18 Seagreen Park, Greystones", records[1].Address)
}

func TestMatchDeduplicatesAcrossLevels(t *testing.T) {
	// One record matches every keyword level of the query.
	mem := seededStore(t,
		record("18 Seagreen Park Upper, Greystones", "Wicklow", "", saleOn(2024, 2, 10), 400000),
	)
	engine := NewTieredEngine(mem, testLogger())

	records, err := engine.Match("18 seagreen park upper greystones", "", "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	seen := make(map[int64]bool)
	for _, rec := range records {
		assert.False(t, seen[rec.ID], "record id %d returned twice", rec.ID)
		seen[rec.ID] = true
	}
}

func TestMatchFullSubstringBeatsPartialAtSameWeight(t *testing.T) {
	mem := seededStore(t,
		// Newer, but only shares the first keyword.
		record("10 Seagreen Close, Greystones", "Wicklow", "", saleOn(2025, 1, 5), 500000),
		// Older, but contains the full query string.
		record("5 Seagreen Park, Greystones", "Wicklow", "", saleOn(2020, 1, 5), 350000),
	)
	engine := NewTieredEngine(mem, testLogger())

	records, err := engine.Match("18 Seagreen Park", "", "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "5 Seagreen Park, Greystones", records[0].Address)
}

func TestMatchCappedAt200(t *testing.T) {
	var records []register.SaleRecord
	for i := 0; i < 250; i++ {
		records = append(records,
			record(fmt.Sprintf("%d Harbour View, Wexford", i), "Wexford", "Y35 T2K9",
				saleOn(2024, 1, 1+i%27), 200000))
	}
	mem := seededStore(t, records...)
	engine := NewTieredEngine(mem, testLogger())

	out, err := engine.Match("Harbour View", "Wexford", "Y35T2K9")
	require.NoError(t, err)
	assert.Len(t, out, 200)
}

func TestMatchCountyScope(t *testing.T) {
	mem := seededStore(t,
		record("2 Main Street, Cork", "Cork", "", saleOn(2024, 5, 1), 310000),
		record("2 Main Street, Sligo", "Sligo", "", saleOn(2024, 5, 1), 210000),
	)
	engine := NewTieredEngine(mem, testLogger())

	records, err := engine.Match("Main Street", "Cork", "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Cork", records[0].County)
}

func TestMatchFallbackWordSearch(t *testing.T) {
	mem := seededStore(t,
		record("Ballycotton Cottage", "Cork", "", saleOn(2023, 8, 1), 275000),
	)
	engine := NewTieredEngine(mem, testLogger())

	// Neither keyword level hits: "rose" alone matches nothing and neither
	// does the joined phrase. The single-word fallback on "ballycotton" does.
	records, err := engine.Match("rose ballycotton", "", "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ballycotton Cottage", records[0].Address)
}

func TestMatchEmptyAddress(t *testing.T) {
	mem := seededStore(t,
		record("2 Main Street, Cork", "Cork", "", saleOn(2024, 5, 1), 310000),
	)
	engine := NewTieredEngine(mem, testLogger())

	records, err := engine.Match("", "", "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMatchIdempotentOrdering(t *testing.T) {
	var records []register.SaleRecord
	for i := 0; i < 40; i++ {
		records = append(records,
			record(fmt.Sprintf("%d Seagreen Park, Greystones", i), "Wicklow", "",
				saleOn(2020+i%6, 1+i%12, 1+i%28), 300000))
	}
	mem := seededStore(t, records...)
	engine := NewTieredEngine(mem, testLogger())

	first, err := engine.Match("18 Seagreen Park", "Wicklow", "")
	require.NoError(t, err)
	second, err := engine.Match("18 Seagreen Park", "Wicklow", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// failingStore errors on every operation, standing in for an unreachable
// database.
type failingStore struct{}

var errStoreDown = errors.New("store unavailable")

func (failingStore) InsertBatch([]register.SaleRecord) error { return errStoreDown }
func (failingStore) FindByEircode(string) ([]register.SaleRecord, error) {
	return nil, errStoreDown
}
func (failingStore) SearchAddress(string, string, int) ([]register.SaleRecord, error) {
	return nil, errStoreDown
}
func (failingStore) TopByPrice(string, int, int) ([]register.SaleRecord, error) {
	return nil, errStoreDown
}
func (failingStore) RecentByCounty(string, int) ([]register.SaleRecord, error) {
	return nil, errStoreDown
}
func (failingStore) Count() (int, error)          { return 0, errStoreDown }
func (failingStore) CountByYear(int) (int, error) { return 0, errStoreDown }

func TestMatchFailOpenPolicy(t *testing.T) {
	engine := NewTieredEngine(failingStore{}, testLogger())

	records, err := engine.Match("18 Seagreen Park", "Wicklow", "A63NX62")
	require.NoError(t, err)
	assert.Empty(t, records)

	engine.FailOpen = false
	_, err = engine.Match("18 Seagreen Park", "Wicklow", "A63NX62")
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
}
