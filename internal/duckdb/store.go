// Package duckdb persists typing runs.
// Reference panels are cached as gob files (fast, pure Go).
// Candidate and sequence count results are stored in DuckDB (queryable, append-only).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for typing results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS candidates (
		sample VARCHAR,
		gene VARCHAR,
		stage VARCHAR,
		allele VARCHAR,
		PRIMARY KEY (sample, gene, stage, allele)
	)`,
	`CREATE TABLE IF NOT EXISTS sequence_counts (
		sample VARCHAR,
		gene VARCHAR,
		kind VARCHAR,
		locus INTEGER,
		residue VARCHAR,
		count INTEGER,
		PRIMARY KEY (sample, gene, kind, locus, residue)
	)`,
	`CREATE TABLE IF NOT EXISTS unmatched_haplotypes (
		sample VARCHAR,
		gene VARCHAR,
		loci VARCHAR,
		residues VARCHAR,
		count INTEGER
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
