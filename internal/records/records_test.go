package records

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tech4life-beyond/product-registry/internal/product"
)

var testProduct = product.Product{
	TOILID:       "T4L-TOIL-001-CDD",
	ProductName:  "Clean Drain Device",
	Category:     "HVAC Hardware",
	LeadCreator:  "Ariel Martin",
	Status:       "Active",
	LicenseState: "Open for Licensing",
	Aliases:      []string{"DrainClean T Adapter"},
	LegacyIDs:    []string{"T4L-2025-001"},
}

func TestScaffoldLoadRoundTrip(t *testing.T) {
	data, err := Scaffold(testProduct)
	if err != nil {
		t.Fatalf("Scaffold() error = %v", err)
	}

	dir := t.TempDir()
	path := Path(dir, testProduct.TOILID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing record: %v", err)
	}

	rec, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !product.Equal(rec.Product, testProduct) {
		t.Errorf("round trip product = %+v, want %+v", rec.Product, testProduct)
	}
	if !strings.Contains(rec.Body, "# Clean Drain Device") {
		t.Errorf("body missing title skeleton: %q", rec.Body)
	}
	if strings.Contains(rec.Body, "---") {
		t.Errorf("body still contains frontmatter delimiters: %q", rec.Body)
	}
}

func TestLoad_MissingFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "T4L-TOIL-001-CDD.md")
	if err := os.WriteFile(path, []byte("# Just a body\n"), 0644); err != nil {
		t.Fatalf("writing record: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() = nil error for record without frontmatter")
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	recordsDir := filepath.Join(dir, "records")

	path, created, err := Write(recordsDir, testProduct)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !created {
		t.Error("Write() created = false for new record")
	}
	if path != Path(recordsDir, testProduct.TOILID) {
		t.Errorf("Write() path = %q", path)
	}

	// A second write must not clobber the existing record.
	if err := os.WriteFile(path, []byte("---\ntoil_id: T4L-TOIL-001-CDD\n---\n\nEdited by hand.\n"), 0644); err != nil {
		t.Fatalf("editing record: %v", err)
	}
	_, created, err = Write(recordsDir, testProduct)
	if err != nil {
		t.Fatalf("Write() second call error = %v", err)
	}
	if created {
		t.Error("Write() created = true for existing record")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	if !strings.Contains(string(data), "Edited by hand.") {
		t.Error("existing record was overwritten")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	second := testProduct
	second.TOILID = "T4L-TOIL-002-AQS"
	second.ProductName = "Air Quality Sensor"
	second.Aliases = nil
	second.LegacyIDs = nil

	for _, p := range []product.Product{second, testProduct} {
		if _, _, err := Write(dir, p); err != nil {
			t.Fatalf("Write(%s) error = %v", p.TOILID, err)
		}
	}
	// Non-record files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}

	recs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("LoadDir() returned %d records, want 2", len(recs))
	}
	if recs[0].Product.TOILID != "T4L-TOIL-001-CDD" || recs[1].Product.TOILID != "T4L-TOIL-002-AQS" {
		t.Errorf("records out of order: %s, %s", recs[0].Product.TOILID, recs[1].Product.TOILID)
	}
}

func TestLoadDir_FilenameMismatch(t *testing.T) {
	dir := t.TempDir()
	data, err := Scaffold(testProduct)
	if err != nil {
		t.Fatalf("Scaffold() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "T4L-TOIL-999-XX.md"), data, 0644); err != nil {
		t.Fatalf("writing record: %v", err)
	}

	if _, err := LoadDir(dir); err == nil {
		t.Error("LoadDir() = nil error for filename/frontmatter mismatch")
	}
}

func TestLoadDir_Missing(t *testing.T) {
	recs, err := LoadDir(filepath.Join(t.TempDir(), "records"))
	if err != nil {
		t.Fatalf("LoadDir() on missing dir error = %v", err)
	}
	if recs != nil {
		t.Errorf("LoadDir() on missing dir = %v, want nil", recs)
	}
}

func TestCompare(t *testing.T) {
	record := testProduct
	record.Status = "Retired"
	record.Aliases = []string{"Other Name"}

	mismatches := Compare(testProduct, record)
	if len(mismatches) != 2 {
		t.Fatalf("Compare() returned %d mismatches, want 2: %+v", len(mismatches), mismatches)
	}
	if mismatches[0].Field != "status" || mismatches[0].IndexValue != "Active" || mismatches[0].RecordValue != "Retired" {
		t.Errorf("status mismatch = %+v", mismatches[0])
	}
	if mismatches[1].Field != "aliases" {
		t.Errorf("aliases mismatch = %+v", mismatches[1])
	}

	if ms := Compare(testProduct, testProduct); ms != nil {
		t.Errorf("Compare() of identical products = %+v, want nil", ms)
	}
}
