package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/propertyregister/internal/register"
)

// MemoryStore is an in-process RecordStore. It backs tests and small
// deployments that load a register extract at startup.
type MemoryStore struct {
	mu        sync.RWMutex
	records   []register.SaleRecord
	byEircode map[string][]int
	nextID    int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEircode: make(map[string][]int),
		nextID:    1,
	}
}

// InsertBatch appends records, assigning sequential ids. Ids are never
// reused, even across batches.
func (m *MemoryStore) InsertBatch(records []register.SaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		rec.ID = m.nextID
		m.nextID++

		idx := len(m.records)
		m.records = append(m.records, rec)

		if code := register.NormalizeEircode(rec.Eircode); code != "" {
			m.byEircode[code] = append(m.byEircode[code], idx)
		}
	}
	return nil
}

func (m *MemoryStore) FindByEircode(code string) ([]register.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []register.SaleRecord
	for _, idx := range m.byEircode[register.NormalizeEircode(code)] {
		out = append(out, m.records[idx])
	}
	sortByDateDesc(out)
	return out, nil
}

func (m *MemoryStore) SearchAddress(term, county string, limit int) ([]register.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(term)
	var out []register.SaleRecord
	for _, rec := range m.records {
		if county != "" && !strings.EqualFold(rec.County, county) {
			continue
		}
		if !strings.Contains(strings.ToLower(rec.Address), needle) {
			continue
		}
		out = append(out, rec)
	}
	sortByDateDesc(out)
	return capSlice(out, limit), nil
}

func (m *MemoryStore) TopByPrice(locality string, year, limit int) ([]register.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(locality)
	var out []register.SaleRecord
	for _, rec := range m.records {
		if rec.Year != year {
			continue
		}
		if !strings.Contains(strings.ToLower(rec.Address), needle) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriceCents != out[j].PriceCents {
			return out[i].PriceCents > out[j].PriceCents
		}
		return out[i].ID < out[j].ID
	})
	return capSlice(out, limit), nil
}

func (m *MemoryStore) RecentByCounty(county string, limit int) ([]register.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []register.SaleRecord
	for _, rec := range m.records {
		if county != "" && !strings.EqualFold(rec.County, county) {
			continue
		}
		out = append(out, rec)
	}
	sortByDateDesc(out)
	return capSlice(out, limit), nil
}

func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryStore) CountByYear(year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.records {
		if rec.Year == year {
			count++
		}
	}
	return count, nil
}

// sortByDateDesc orders most recent sale first, breaking ties on id so that
// identical queries always return identical orderings.
func sortByDateDesc(records []register.SaleRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].SaleDate.Equal(records[j].SaleDate) {
			return records[i].SaleDate.After(records[j].SaleDate)
		}
		return records[i].ID > records[j].ID
	})
}

func capSlice(records []register.SaleRecord, limit int) []register.SaleRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
