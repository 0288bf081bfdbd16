package store

import (
	"sync"

	"scarletbooks/pkg/domain"
)

// MemoryStore keeps tables in-process. It mirrors GormStore's observable
// behavior (storage-order FetchAll, ErrInvalidFilter, lazy tables) so app
// and server tests run without a database file.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]domain.Record
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]domain.Record)}
}

func (m *MemoryStore) TableExists(table string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[table]
	return ok, nil
}

func (m *MemoryStore) EnsureTable(table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked(table)
	return nil
}

func (m *MemoryStore) ensureLocked(table string) {
	if _, ok := m.tables[table]; !ok {
		m.tables[table] = nil
	}
}

func (m *MemoryStore) Insert(table string, rec domain.Record) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked(table)
	stored := make(domain.Record, len(rec))
	for col, v := range rec {
		stored[col] = normalizeValue(v)
	}
	m.tables[table] = append(m.tables[table], stored)
	return rec, nil
}

func (m *MemoryStore) DeleteWhere(table string, filter domain.Record) (int64, error) {
	if len(filter) == 0 {
		return 0, ErrInvalidFilter
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tables[table]
	if !ok {
		return 0, nil
	}
	var kept []domain.Record
	var deleted int64
	for _, rec := range rows {
		if matchesFilter(rec, filter) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.tables[table] = kept
	return deleted, nil
}

func (m *MemoryStore) DeleteAll(table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table]; ok {
		m.tables[table] = nil
	}
	return nil
}

func (m *MemoryStore) FetchAll(table string, columnOrder []string) ([]domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[table]
	out := make([]domain.Record, 0, len(rows))
	for _, rec := range rows {
		clone := make(domain.Record, len(columnOrder))
		for _, col := range columnOrder {
			if v, ok := rec[col]; ok {
				clone[col] = v
			} else {
				clone[col] = nil
			}
		}
		out = append(out, clone)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (m *MemoryStore) Exists(table string, columnOrder []string, filter domain.Record) (bool, error) {
	recs, err := m.FetchAll(table, columnOrder)
	if err != nil {
		return false, err
	}
	for _, rec := range recs {
		if matchesFilter(rec, filter) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) Close() error { return nil }
