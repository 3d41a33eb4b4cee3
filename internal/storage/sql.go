package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLStore keeps assets as JSON documents in a single sqlite table. Reads are
// served from an in-memory cache that Reload refreshes.
type SQLStore[T ValidatingSpec] struct {
	db      *sql.DB
	table   string
	records map[string]T

	mu sync.RWMutex
}

func NewSQLStore[T ValidatingSpec](path string, table Identifier) (*SQLStore[T], error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("table name: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLStore[T]{
		db:      db,
		table:   table.String(),
		records: map[string]T{},
	}

	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := s.Reload(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLStore[T]) initialize() error {
	_, err := s.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %q (
		id TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		asset BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`, s.table))
	if err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore[T]) Reload() error {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT id, asset FROM %q`, s.table))
	if err != nil {
		return fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	records := map[string]T{}
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		asset, err := decodeAsset[T](data)
		if err != nil {
			return fmt.Errorf("loading %s: %w", id, err)
		}
		if err := asset.Validate(); err != nil {
			return fmt.Errorf("validating %s: %w", id, err)
		}
		if asset.Id().String() != id {
			return fmt.Errorf("row %s holds asset %s", id, asset.Id())
		}

		records[id] = asset.Spec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	return nil
}

func (s *SQLStore[T]) Save(id string, o T) error {
	asset := &Asset[T]{
		Version:    1,
		Identifier: Identifier(id),
		Spec:       o,
	}
	if err := asset.Validate(); err != nil {
		return fmt.Errorf("validating %s: %w", id, err)
	}

	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(fmt.Sprintf(`
	INSERT INTO %q (id, version, asset, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		version = excluded.version,
		asset = excluded.asset,
		updated_at = CURRENT_TIMESTAMP`, s.table), id, asset.Version, data)
	if err != nil {
		return fmt.Errorf("saving %s: %w", id, err)
	}
	s.records[id] = o

	return nil
}

func (s *SQLStore[T]) Get(id string) T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.records[id]
}

func (s *SQLStore[T]) GetAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.records)
}

func (s *SQLStore[T]) Close() error {
	return s.db.Close()
}
