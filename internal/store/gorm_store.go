package store

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scarletbooks/pkg/domain"
)

// GormStore implements Store on SQLite through GORM. SQL is built from
// table names and placeholders, never from record values, so the store
// stays generic over entity kinds.
type GormStore struct {
	db  *gorm.DB
	ddl map[string]string // table -> column DDL fragment
}

// NewGormStore opens (or creates) the SQLite database at path. ddl maps
// each known table to the column fragment used for lazy creation.
func NewGormStore(path string, ddl map[string]string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &GormStore{db: db, ddl: ddl}, nil
}

func (s *GormStore) TableExists(table string) (bool, error) {
	return s.db.Migrator().HasTable(table), nil
}

func (s *GormStore) EnsureTable(table string) error {
	if s.db.Migrator().HasTable(table) {
		return nil
	}
	ddl, ok := s.ddl[table]
	if !ok {
		return persistErr("create table", table, fmt.Errorf("no DDL registered"))
	}
	if err := s.db.Exec("CREATE TABLE " + table + " " + ddl).Error; err != nil {
		return persistErr("create table", table, err)
	}
	return nil
}

func (s *GormStore) Insert(table string, rec domain.Record) (domain.Record, error) {
	if err := s.EnsureTable(table); err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	placeholders := make([]string, len(cols))
	values := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		values[i] = rec[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if err := s.db.Exec(query, values...).Error; err != nil {
		return nil, persistErr("insert", table, err)
	}
	return rec, nil
}

func (s *GormStore) DeleteWhere(table string, filter domain.Record) (int64, error) {
	if len(filter) == 0 {
		return 0, ErrInvalidFilter
	}
	// A table that was never created holds no matching rows.
	if !s.db.Migrator().HasTable(table) {
		return 0, nil
	}
	conds := make([]string, 0, len(filter))
	values := make([]any, 0, len(filter))
	cols := make([]string, 0, len(filter))
	for col := range filter {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		conds = append(conds, col+" = ?")
		values = append(values, filter[col])
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, strings.Join(conds, " AND "))
	tx := s.db.Exec(query, values...)
	if tx.Error != nil {
		return 0, persistErr("delete", table, tx.Error)
	}
	return tx.RowsAffected, nil
}

func (s *GormStore) DeleteAll(table string) error {
	if !s.db.Migrator().HasTable(table) {
		return nil
	}
	if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
		return persistErr("delete all", table, err)
	}
	return nil
}

func (s *GormStore) FetchAll(table string, columnOrder []string) ([]domain.Record, error) {
	if !s.db.Migrator().HasTable(table) {
		return nil, nil
	}
	rows, err := s.db.Raw("SELECT * FROM " + table).Rows()
	if err != nil {
		return nil, persistErr("fetch", table, err)
	}
	defer rows.Close()

	actual, err := rows.Columns()
	if err != nil {
		return nil, persistErr("fetch", table, err)
	}
	width := len(actual)
	if len(columnOrder) < width {
		width = len(columnOrder)
	}

	var out []domain.Record
	for rows.Next() {
		raw := make([]any, len(actual))
		ptrs := make([]any, len(actual))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, persistErr("fetch", table, err)
		}
		rec := make(domain.Record, width)
		for i := 0; i < width; i++ {
			rec[columnOrder[i]] = normalizeValue(raw[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("fetch", table, err)
	}
	return out, nil
}

func (s *GormStore) Exists(table string, columnOrder []string, filter domain.Record) (bool, error) {
	recs, err := s.FetchAll(table, columnOrder)
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

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// matchesFilter reports whether rec carries every filter key with an equal
// value, after scalar normalization.
func matchesFilter(rec, filter domain.Record) bool {
	for col, want := range filter {
		got, ok := rec[col]
		if !ok {
			return false
		}
		if !valueEqual(got, want) {
			return false
		}
	}
	return true
}

// valueEqual compares two scalars the way SQLite's numeric affinity does:
// ints and floats carrying the same number are equal.
func valueEqual(a, b any) bool {
	a, b = normalizeValue(a), normalizeValue(b)
	if af, ok := asNumeric(a); ok {
		if bf, ok := asNumeric(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asNumeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// normalizeValue collapses driver scalar variants so equality checks and
// positional decoding behave the same across store implementations.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case float32:
		return float64(x)
	default:
		return v
	}
}
