// Package storage maintains the ephemeral SQLite query cache. The
// cache is always rebuilt from the canonical Markdown index and is
// never a source of truth.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tech4life-beyond/product-registry/internal/product"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectProductFields contains the standard field list for SELECT queries.
const selectProductFields = `toil_id, product_name, category, lead_creator,
	status, license_state, aliases_json, legacy_ids_json`

// Open opens or creates the cache database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS products (
			toil_id TEXT PRIMARY KEY,
			product_name TEXT NOT NULL,
			category TEXT NOT NULL,
			lead_creator TEXT NOT NULL,
			status TEXT NOT NULL,
			license_state TEXT NOT NULL,
			aliases_json TEXT,
			legacy_ids_json TEXT
		);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS products_fts USING fts5(
			toil_id,
			product_name,
			category,
			lead_creator,
			aliases_text,
			legacy_ids_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the cache and refills it from the given products.
// Returns the number of products inserted.
func (d *DB) Rebuild(products []product.Product) (int, error) {
	if _, err := d.db.Exec("DELETE FROM products"); err != nil {
		return 0, fmt.Errorf("clearing products table: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM products_fts"); err != nil {
		return 0, fmt.Errorf("clearing products_fts table: %w", err)
	}

	productsStmt, err := d.db.Prepare(`
		INSERT INTO products (
			toil_id, product_name, category, lead_creator,
			status, license_state, aliases_json, legacy_ids_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing products insert: %w", err)
	}
	defer productsStmt.Close()

	ftsStmt, err := d.db.Prepare(`
		INSERT INTO products_fts (toil_id, product_name, category, lead_creator, aliases_text, legacy_ids_text)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, p := range products {
		aliasesJSON, err := marshalList(p.Aliases)
		if err != nil {
			return 0, fmt.Errorf("marshaling aliases for %s: %w", p.TOILID, err)
		}
		legacyJSON, err := marshalList(p.LegacyIDs)
		if err != nil {
			return 0, fmt.Errorf("marshaling legacy IDs for %s: %w", p.TOILID, err)
		}

		_, err = productsStmt.Exec(
			p.TOILID, p.ProductName, p.Category, p.LeadCreator,
			p.Status, p.LicenseState, aliasesJSON, legacyJSON,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting product %s: %w", p.TOILID, err)
		}

		_, err = ftsStmt.Exec(
			p.TOILID, p.ProductName, p.Category, p.LeadCreator,
			product.JoinList(p.Aliases), product.JoinList(p.LegacyIDs),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", p.TOILID, err)
		}
	}

	return len(products), nil
}

// GetByID retrieves a product by its TOIL ID. Returns (nil, nil) when
// the ID is not cached.
func (d *DB) GetByID(id string) (*product.Product, error) {
	row := d.db.QueryRow(`SELECT `+selectProductFields+` FROM products WHERE toil_id = ?`, id)
	return scanProduct(row)
}

// Filters contains optional filters for List and Search.
// Category and Creator match substrings; Status matches exactly.
type Filters struct {
	Category string
	Status   string
	Creator  string
}

func (f Filters) apply(query string, args []interface{}) (string, []interface{}) {
	if f.Category != "" {
		query += " AND category LIKE ?"
		args = append(args, "%"+f.Category+"%")
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Creator != "" {
		query += " AND lead_creator LIKE ?"
		args = append(args, "%"+f.Creator+"%")
	}
	return query, args
}

// List returns cached products ordered by TOIL ID, optionally filtered
// and limited.
func (d *DB) List(filters Filters, limit int) ([]product.Product, error) {
	query := `SELECT ` + selectProductFields + ` FROM products WHERE 1=1`
	var args []interface{}

	query, args = filters.apply(query, args)
	query += " ORDER BY toil_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Search performs a full-text search over names, categories, creators,
// aliases and legacy IDs, with the same optional filters as List.
func (d *DB) Search(query string, filters Filters, limit int) ([]product.Product, error) {
	ftsQuery := prepareFTSQuery(query)

	sqlQuery := `SELECT ` + selectProductFields + `
		FROM products
		WHERE toil_id IN (SELECT toil_id FROM products_fts WHERE products_fts MATCH ?)`
	args := []interface{}{ftsQuery}

	sqlQuery, args = filters.apply(sqlQuery, args)
	sqlQuery += " ORDER BY toil_id"
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Count returns the total number of cached products.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (*product.Product, error) {
	var p product.Product
	var aliasesJSON, legacyJSON sql.NullString

	err := s.Scan(
		&p.TOILID, &p.ProductName, &p.Category, &p.LeadCreator,
		&p.Status, &p.LicenseState, &aliasesJSON, &legacyJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if aliasesJSON.Valid && aliasesJSON.String != "" {
		if err := json.Unmarshal([]byte(aliasesJSON.String), &p.Aliases); err != nil {
			return nil, fmt.Errorf("parsing aliases JSON for %s: %w", p.TOILID, err)
		}
	}
	if legacyJSON.Valid && legacyJSON.String != "" {
		if err := json.Unmarshal([]byte(legacyJSON.String), &p.LegacyIDs); err != nil {
			return nil, fmt.Errorf("parsing legacy IDs JSON for %s: %w", p.TOILID, err)
		}
	}

	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]product.Product, error) {
	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		if p != nil {
			products = append(products, *p)
		}
	}
	return products, rows.Err()
}

// marshalList JSON-encodes a list column, treating empty as NULL.
func marshalList(items []string) (sql.NullString, error) {
	if len(items) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	// For simple queries, just quote the terms
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		// Escape internal quotes and wrap in quotes
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
