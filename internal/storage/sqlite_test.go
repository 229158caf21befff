package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tech4life-beyond/product-registry/internal/product"
)

var testProducts = []product.Product{
	{
		TOILID:       "T4L-TOIL-001-CDD",
		ProductName:  "Clean Drain Device",
		Category:     "HVAC Hardware",
		LeadCreator:  "Ariel Martin",
		Status:       "Active",
		LicenseState: "Open for Licensing",
		Aliases:      []string{"DrainClean T Adapter"},
		LegacyIDs:    []string{"T4L-2025-001"},
	},
	{
		TOILID:       "T4L-TOIL-002-AQS",
		ProductName:  "Air Quality Sensor",
		Category:     "Monitoring",
		LeadCreator:  "Ariel Martin",
		Status:       "Active",
		LicenseState: "Open for Licensing",
	},
	{
		TOILID:       "T4L-TOIL-014-AQ-PRO2",
		ProductName:  "Air Quality Pro 2",
		Category:     "Monitoring",
		LeadCreator:  "Jordan Lee",
		Status:       "Retired",
		LicenseState: "Closed",
	},
}

// setupTestDB creates a cache database filled with the test products.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "registry.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, err := db.Rebuild(testProducts); err != nil {
		db.Close()
		t.Fatalf("Rebuild() error = %v", err)
	}

	return db, func() { db.Close() }
}

func TestOpen_CreatesSchemaAndDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".toil", "cache", "registry.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Open() did not create database file")
	}
}

func TestRebuild(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	// Rebuilding replaces everything.
	n, err := db.Rebuild(testProducts[:1])
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Rebuild() = %d, want 1", n)
	}
	count, err = db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() after rebuild = %d, want 1", count)
	}
}

func TestGetByID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	p, err := db.GetByID("T4L-TOIL-001-CDD")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if p == nil {
		t.Fatal("GetByID() = nil, want product")
	}
	if !product.Equal(*p, testProducts[0]) {
		t.Errorf("GetByID() = %+v, want %+v", *p, testProducts[0])
	}

	missing, err := db.GetByID("T4L-TOIL-999-NO")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetByID() for unknown ID = %+v, want nil", missing)
	}
}

func TestGetByID_EmptyLists(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	p, err := db.GetByID("T4L-TOIL-002-AQS")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if p.Aliases != nil || p.LegacyIDs != nil {
		t.Errorf("empty list columns should scan as nil, got aliases=%v legacy=%v", p.Aliases, p.LegacyIDs)
	}
}

func TestList(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tests := []struct {
		name    string
		filters Filters
		limit   int
		wantIDs []string
	}{
		{
			name:    "all ordered by id",
			wantIDs: []string{"T4L-TOIL-001-CDD", "T4L-TOIL-002-AQS", "T4L-TOIL-014-AQ-PRO2"},
		},
		{
			name:    "category substring",
			filters: Filters{Category: "Monitor"},
			wantIDs: []string{"T4L-TOIL-002-AQS", "T4L-TOIL-014-AQ-PRO2"},
		},
		{
			name:    "status exact",
			filters: Filters{Status: "Retired"},
			wantIDs: []string{"T4L-TOIL-014-AQ-PRO2"},
		},
		{
			name:    "status must match exactly",
			filters: Filters{Status: "Retire"},
			wantIDs: nil,
		},
		{
			name:    "creator substring",
			filters: Filters{Creator: "Jordan"},
			wantIDs: []string{"T4L-TOIL-014-AQ-PRO2"},
		},
		{
			name:    "combined filters",
			filters: Filters{Category: "Monitoring", Status: "Active"},
			wantIDs: []string{"T4L-TOIL-002-AQS"},
		},
		{
			name:    "limit",
			limit:   1,
			wantIDs: []string{"T4L-TOIL-001-CDD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.List(tt.filters, tt.limit)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("List() returned %d products, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].TOILID != want {
					t.Errorf("List()[%d] = %s, want %s", i, got[i].TOILID, want)
				}
			}
		})
	}
}

func TestSearch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tests := []struct {
		name    string
		query   string
		filters Filters
		wantIDs []string
	}{
		{
			name:    "by name word",
			query:   "Drain",
			wantIDs: []string{"T4L-TOIL-001-CDD"},
		},
		{
			name:    "by alias",
			query:   "DrainClean",
			wantIDs: []string{"T4L-TOIL-001-CDD"},
		},
		{
			name:    "by legacy id",
			query:   "T4L-2025-001",
			wantIDs: []string{"T4L-TOIL-001-CDD"},
		},
		{
			name:    "by toil id",
			query:   "T4L-TOIL-002-AQS",
			wantIDs: []string{"T4L-TOIL-002-AQS"},
		},
		{
			name:    "shared word ordered by id",
			query:   "Quality",
			wantIDs: []string{"T4L-TOIL-002-AQS", "T4L-TOIL-014-AQ-PRO2"},
		},
		{
			name:    "search with status filter",
			query:   "Quality",
			filters: Filters{Status: "Retired"},
			wantIDs: []string{"T4L-TOIL-014-AQ-PRO2"},
		},
		{
			name:    "no matches",
			query:   "Refrigerator",
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Search(tt.query, tt.filters, 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Search() returned %d products, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].TOILID != want {
					t.Errorf("Search()[%d] = %s, want %s", i, got[i].TOILID, want)
				}
			}
		})
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"drain", "drain"},
		{"  drain  ", "drain"},
		{"", ""},
		{"T4L-2025-001", `"T4L-2025-001"`},
		{`say "hi"`, `"say ""hi"""`},
	}

	for _, tt := range tests {
		if got := prepareFTSQuery(tt.in); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
