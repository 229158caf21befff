package validate

import (
	"os"
	"strings"
	"testing"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/exports"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
	"github.com/tech4life-beyond/product-registry/internal/product"
	"github.com/tech4life-beyond/product-registry/internal/records"
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
}

// writeRegistry lays down a fully consistent registry for the given
// products: index, one record per product, both exports.
func writeRegistry(t *testing.T, products []product.Product) string {
	t.Helper()
	root := t.TempDir()

	if err := mdtable.WriteFile(config.IndexPath(root), products); err != nil {
		t.Fatalf("writing index: %v", err)
	}
	for _, p := range products {
		if _, _, err := records.Write(config.RecordsPath(root), p); err != nil {
			t.Fatalf("writing record %s: %v", p.TOILID, err)
		}
	}
	if err := exports.WriteAll(config.LegacyExportPath(root), config.V1ExportPath(root), products); err != nil {
		t.Fatalf("writing exports: %v", err)
	}
	return root
}

func issuesOfType(result *Result, issueType string) []Issue {
	var found []Issue
	for _, issue := range result.Issues {
		if issue.Type == issueType {
			found = append(found, issue)
		}
	}
	return found
}

func mustValidate(t *testing.T, root string) *Result {
	t.Helper()
	result, err := Registry(root)
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	return result
}

func TestRegistry_Valid(t *testing.T) {
	root := writeRegistry(t, testProducts)
	result := mustValidate(t, root)

	if !result.OK() {
		t.Fatalf("Registry() found issues in a consistent registry: %+v", result.Issues)
	}
	if result.Status != "ok" {
		t.Errorf("Status = %q, want ok", result.Status)
	}
	if result.Products != 2 {
		t.Errorf("Products = %d, want 2", result.Products)
	}
	if result.Records != 2 {
		t.Errorf("Records = %d, want 2", result.Records)
	}
	if result.Issues == nil {
		t.Error("Issues must be an empty list, not nil")
	}
}

func TestRegistry_MissingRecord(t *testing.T) {
	root := writeRegistry(t, testProducts)
	if err := os.Remove(records.Path(config.RecordsPath(root), "T4L-TOIL-002-AQS")); err != nil {
		t.Fatalf("removing record: %v", err)
	}

	result := mustValidate(t, root)
	missing := issuesOfType(result, "missing_record")
	if len(missing) != 1 || missing[0].ID != "T4L-TOIL-002-AQS" {
		t.Errorf("missing_record issues = %+v, want one for T4L-TOIL-002-AQS", missing)
	}
}

func TestRegistry_OrphanRecord(t *testing.T) {
	root := writeRegistry(t, testProducts)
	orphan := product.Product{
		TOILID:       "T4L-TOIL-099-GONE",
		ProductName:  "Removed Product",
		LeadCreator:  "Ariel Martin",
		Status:       "Retired",
		LicenseState: "Closed",
	}
	if _, _, err := records.Write(config.RecordsPath(root), orphan); err != nil {
		t.Fatalf("writing orphan record: %v", err)
	}

	result := mustValidate(t, root)
	orphans := issuesOfType(result, "orphan_record")
	if len(orphans) != 1 || orphans[0].ID != "T4L-TOIL-099-GONE" {
		t.Errorf("orphan_record issues = %+v, want one for T4L-TOIL-099-GONE", orphans)
	}
}

func TestRegistry_RecordMismatch(t *testing.T) {
	root := writeRegistry(t, testProducts)

	changed := testProducts[1]
	changed.Status = "Retired"
	data, err := records.Scaffold(changed)
	if err != nil {
		t.Fatalf("Scaffold() error = %v", err)
	}
	if err := os.WriteFile(records.Path(config.RecordsPath(root), changed.TOILID), data, 0644); err != nil {
		t.Fatalf("rewriting record: %v", err)
	}

	result := mustValidate(t, root)
	mismatches := issuesOfType(result, "record_mismatch")
	if len(mismatches) != 1 {
		t.Fatalf("record_mismatch issues = %+v, want exactly one", mismatches)
	}
	if mismatches[0].ID != "T4L-TOIL-002-AQS" || mismatches[0].Field != "status" {
		t.Errorf("record_mismatch = %+v, want status field of T4L-TOIL-002-AQS", mismatches[0])
	}
	if !strings.Contains(mismatches[0].Reason, "Active") || !strings.Contains(mismatches[0].Reason, "Retired") {
		t.Errorf("record_mismatch reason %q should carry both values", mismatches[0].Reason)
	}
}

func TestRegistry_DuplicateID(t *testing.T) {
	withDup := append([]product.Product(nil), testProducts...)
	withDup = append(withDup, testProducts[0])
	root := writeRegistry(t, withDup)

	result := mustValidate(t, root)
	dups := issuesOfType(result, "duplicate_toil_id")
	if len(dups) != 1 || dups[0].ID != "T4L-TOIL-001-CDD" {
		t.Errorf("duplicate_toil_id issues = %+v, want one for T4L-TOIL-001-CDD", dups)
	}
}

func TestRegistry_InvalidID(t *testing.T) {
	bad := append([]product.Product(nil), testProducts...)
	bad[1].TOILID = "T4L-TOIL-02-X"
	root := t.TempDir()
	if err := mdtable.WriteFile(config.IndexPath(root), bad); err != nil {
		t.Fatalf("writing index: %v", err)
	}
	for _, p := range bad {
		if _, _, err := records.Write(config.RecordsPath(root), p); err != nil {
			t.Fatalf("writing record: %v", err)
		}
	}
	if err := exports.WriteAll(config.LegacyExportPath(root), config.V1ExportPath(root), bad); err != nil {
		t.Fatalf("writing exports: %v", err)
	}

	result := mustValidate(t, root)
	invalid := issuesOfType(result, "invalid_toil_id")
	if len(invalid) != 1 || invalid[0].ID != "T4L-TOIL-02-X" {
		t.Errorf("invalid_toil_id issues = %+v, want one for T4L-TOIL-02-X", invalid)
	}
	// The embedded schema rejects the malformed ID in the export too.
	if len(issuesOfType(result, "schema_validation")) == 0 {
		t.Error("expected schema_validation issue for malformed ID in v1 export")
	}
}

func TestRegistry_MissingExports(t *testing.T) {
	root := writeRegistry(t, testProducts)
	if err := os.Remove(config.LegacyExportPath(root)); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(config.V1ExportPath(root)); err != nil {
		t.Fatal(err)
	}

	result := mustValidate(t, root)
	if got := issuesOfType(result, "missing_export"); len(got) != 2 {
		t.Errorf("missing_export issues = %+v, want 2", got)
	}
}

func TestRegistry_ExportsDrift(t *testing.T) {
	root := writeRegistry(t, testProducts)

	// Rewrite the legacy export from a diverged product list.
	diverged := append([]product.Product(nil), testProducts...)
	diverged[0].Status = "Retired"
	if err := exports.WriteLegacy(config.LegacyExportPath(root), diverged); err != nil {
		t.Fatalf("rewriting legacy export: %v", err)
	}

	result := mustValidate(t, root)
	if len(issuesOfType(result, "exports_drift")) != 1 {
		t.Errorf("exports_drift missing from issues: %+v", result.Issues)
	}
	// Legacy no longer matches the index either.
	stale := issuesOfType(result, "stale_export")
	if len(stale) != 1 || !strings.Contains(stale[0].Path, "product_index.json") {
		t.Errorf("stale_export issues = %+v, want one for the legacy export", stale)
	}
}

func TestRegistry_SchemaVersion(t *testing.T) {
	root := writeRegistry(t, testProducts)

	raw, err := os.ReadFile(config.V1ExportPath(root))
	if err != nil {
		t.Fatal(err)
	}
	edited := strings.Replace(string(raw), `"schema_version": "1.0.0"`, `"schema_version": "2.0.0"`, 1)
	if err := os.WriteFile(config.V1ExportPath(root), []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	result := mustValidate(t, root)
	versions := issuesOfType(result, "schema_version")
	if len(versions) != 1 {
		t.Fatalf("schema_version issues = %+v, want one", versions)
	}
	if !strings.Contains(versions[0].Reason, "2.0.0") {
		t.Errorf("schema_version reason %q should carry the found value", versions[0].Reason)
	}
}

func TestRegistry_RetiredField(t *testing.T) {
	root := writeRegistry(t, testProducts)

	raw, err := os.ReadFile(config.V1ExportPath(root))
	if err != nil {
		t.Fatal(err)
	}
	edited := strings.Replace(string(raw), `"lead_creator": "Ariel Martin"`, `"primary_owner": "Ariel Martin"`, 1)
	if err := os.WriteFile(config.V1ExportPath(root), []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	result := mustValidate(t, root)
	retired := issuesOfType(result, "retired_field")
	if len(retired) != 1 || retired[0].Field != "primary_owner" {
		t.Errorf("retired_field issues = %+v, want one for primary_owner", retired)
	}
}

func TestRegistry_StaleExports(t *testing.T) {
	root := writeRegistry(t, testProducts)

	// Grow the index without rebuilding exports.
	grown := append([]product.Product(nil), testProducts...)
	grown = append(grown, product.Product{
		TOILID:       "T4L-TOIL-003-NEW",
		ProductName:  "New Product",
		Category:     "Misc",
		LeadCreator:  "Ariel Martin",
		Status:       "Active",
		LicenseState: "Open for Licensing",
	})
	if err := mdtable.WriteFile(config.IndexPath(root), grown); err != nil {
		t.Fatalf("rewriting index: %v", err)
	}
	if _, _, err := records.Write(config.RecordsPath(root), grown[2]); err != nil {
		t.Fatalf("writing record: %v", err)
	}

	result := mustValidate(t, root)
	if got := issuesOfType(result, "stale_export"); len(got) != 2 {
		t.Errorf("stale_export issues = %+v, want one per export", got)
	}
}

func TestRegistry_EmptyIndex(t *testing.T) {
	root := t.TempDir()
	if err := mdtable.WriteFile(config.IndexPath(root), nil); err != nil {
		t.Fatalf("writing index: %v", err)
	}
	if err := exports.WriteAll(config.LegacyExportPath(root), config.V1ExportPath(root), nil); err != nil {
		t.Fatalf("writing exports: %v", err)
	}

	result := mustValidate(t, root)
	if len(issuesOfType(result, "empty_index")) != 1 {
		t.Errorf("empty_index missing from issues: %+v", result.Issues)
	}
	if len(issuesOfType(result, "empty_products")) != 1 {
		t.Errorf("empty_products missing from issues: %+v", result.Issues)
	}
}

func TestRegistry_UnparseableIndex(t *testing.T) {
	root := writeRegistry(t, testProducts)

	// Break a row so strict parsing fails.
	raw, err := os.ReadFile(config.IndexPath(root))
	if err != nil {
		t.Fatal(err)
	}
	edited := strings.Replace(string(raw), "| Monitoring ", "", 1)
	if err := os.WriteFile(config.IndexPath(root), []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	result := mustValidate(t, root)
	if len(issuesOfType(result, "index_parse")) != 1 {
		t.Fatalf("index_parse missing from issues: %+v", result.Issues)
	}
	// Row-dependent checks are skipped when the index cannot be parsed.
	if len(issuesOfType(result, "missing_record")) != 0 {
		t.Errorf("missing_record reported despite unparseable index: %+v", result.Issues)
	}
	if len(issuesOfType(result, "stale_export")) != 0 {
		t.Errorf("stale_export reported despite unparseable index: %+v", result.Issues)
	}
}
