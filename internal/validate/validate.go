// Package validate implements the cross-artifact consistency checks
// between the index table, record files, and JSON exports.
package validate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/exports"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
	"github.com/tech4life-beyond/product-registry/internal/product"
	"github.com/tech4life-beyond/product-registry/internal/records"
)

// RetiredFields are field names that must never appear in exports.
// primary_owner predates the lead_creator rename.
var RetiredFields = []string{"primary_owner"}

// Issue represents a single consistency failure.
type Issue struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Result is the response for a full registry validation.
type Result struct {
	Status   string  `json:"status"` // ok | issues
	Products int     `json:"products"`
	Records  int     `json:"records"`
	Issues   []Issue `json:"issues"`
}

// OK reports whether validation found no issues.
func (r *Result) OK() bool {
	return len(r.Issues) == 0
}

// Registry runs every consistency check against the registry at root,
// collecting all failures instead of stopping at the first. Checks that
// depend on a parseable index are skipped when parsing fails; export
// shape checks always run.
func Registry(root string) (*Result, error) {
	result := &Result{}
	add := func(issue Issue) {
		result.Issues = append(result.Issues, issue)
	}

	indexRel := filepath.Join(config.IndexDir, config.IndexFile)
	legacyRel := filepath.Join(config.ExportsDir, config.LegacyExportFile)
	v1Rel := filepath.Join(config.ExportsDir, config.V1ExportFile)

	// Index table: strict parse, non-empty, valid IDs, no duplicates.
	var indexProducts []product.Product
	indexParsed := false

	indexData, err := os.ReadFile(config.IndexPath(root))
	switch {
	case os.IsNotExist(err):
		add(Issue{Type: "index_parse", Path: indexRel, Reason: "index file missing"})
	case err != nil:
		return nil, fmt.Errorf("reading index: %w", err)
	default:
		table, parseErr := mdtable.ParseString(string(indexData), mdtable.Strict)
		if parseErr != nil {
			add(Issue{Type: "index_parse", Path: indexRel, Reason: parseErr.Error()})
			break
		}
		indexParsed = true
		indexProducts = table.Products()
		result.Products = len(indexProducts)

		if len(table.Rows) == 0 {
			add(Issue{Type: "empty_index", Path: indexRel, Reason: "index table has zero rows"})
		}
		for _, row := range table.Rows {
			if product.ValidateID(row.Product.TOILID) != nil {
				add(Issue{
					Type:   "invalid_toil_id",
					ID:     row.Product.TOILID,
					Reason: fmt.Sprintf("line %d: does not match T4L-TOIL-NNN-SUFFIX", row.Line),
				})
			}
		}
		for _, id := range product.DuplicateIDs(indexProducts) {
			add(Issue{Type: "duplicate_toil_id", ID: id, Reason: "appears more than once in the index"})
		}
	}

	// Record files: every file parses and matches its filename; every
	// index row has a record whose fields agree; no orphans.
	knownIDs := make(map[string]bool, len(indexProducts))
	for _, p := range indexProducts {
		knownIDs[p.TOILID] = true
	}

	recordFiles, err := records.Files(config.RecordsPath(root))
	if err != nil {
		return nil, err
	}

	parsed := make(map[string]*records.Record, len(recordFiles))
	for _, path := range recordFiles {
		stem := strings.TrimSuffix(filepath.Base(path), ".md")
		rel := filepath.Join(config.RecordsDir, filepath.Base(path))

		rec, err := records.Load(path)
		if err != nil {
			add(Issue{Type: "record_parse", ID: stem, Path: rel, Reason: err.Error()})
		} else {
			result.Records++
			if rec.Product.TOILID != stem {
				add(Issue{
					Type:   "record_mismatch",
					ID:     stem,
					Path:   rel,
					Field:  "toil_id",
					Reason: fmt.Sprintf("frontmatter toil_id %q does not match filename", rec.Product.TOILID),
				})
			}
			parsed[stem] = rec
		}

		if indexParsed && !knownIDs[stem] {
			add(Issue{Type: "orphan_record", ID: stem, Path: rel, Reason: "record has no matching index row"})
		}
	}

	if indexParsed {
		for _, p := range indexProducts {
			recordRel := filepath.Join(config.RecordsDir, p.TOILID+".md")
			if _, err := os.Stat(records.Path(config.RecordsPath(root), p.TOILID)); os.IsNotExist(err) {
				add(Issue{Type: "missing_record", ID: p.TOILID, Path: recordRel})
				continue
			}
			rec, ok := parsed[p.TOILID]
			if !ok {
				continue // parse failure already reported
			}
			for _, m := range records.Compare(p, rec.Product) {
				add(Issue{
					Type:   "record_mismatch",
					ID:     p.TOILID,
					Path:   recordRel,
					Field:  m.Field,
					Reason: fmt.Sprintf("index has %q, record has %q", m.IndexValue, m.RecordValue),
				})
			}
		}
	}

	// Exports: both exist, parse, and carry no retired field names.
	var legacyProducts []product.Product
	legacyOK := false

	legacyRaw, err := os.ReadFile(config.LegacyExportPath(root))
	switch {
	case os.IsNotExist(err):
		add(Issue{Type: "missing_export", Path: legacyRel})
		legacyRaw = nil
	case err != nil:
		return nil, fmt.Errorf("reading legacy export: %w", err)
	default:
		legacyProducts, err = exports.DecodeLegacy(legacyRaw)
		if err != nil {
			add(Issue{Type: "export_parse", Path: legacyRel, Reason: err.Error()})
		} else {
			legacyOK = true
		}
		addRetiredFieldIssues(add, legacyRaw, legacyRel)
	}

	var v1 *exports.V1

	v1Raw, err := os.ReadFile(config.V1ExportPath(root))
	switch {
	case os.IsNotExist(err):
		add(Issue{Type: "missing_export", Path: v1Rel})
		v1Raw = nil
	case err != nil:
		return nil, fmt.Errorf("reading versioned export: %w", err)
	default:
		v1, err = exports.DecodeV1(v1Raw)
		if err != nil {
			add(Issue{Type: "export_parse", Path: v1Rel, Reason: err.Error()})
			break
		}
		if v1.SchemaVersion != exports.SchemaVersion {
			add(Issue{
				Type:   "schema_version",
				Path:   v1Rel,
				Reason: fmt.Sprintf("schema_version must be %s (got %q)", exports.SchemaVersion, v1.SchemaVersion),
			})
		}
		if len(v1.Products) == 0 {
			add(Issue{Type: "empty_products", Path: v1Rel, Reason: "products must be a non-empty list"})
		}
		if err := exports.ValidateV1Document(v1Raw); err != nil {
			add(Issue{Type: "schema_validation", Path: v1Rel, Reason: err.Error()})
		}
		addRetiredFieldIssues(add, v1Raw, v1Rel)
	}

	// Legacy export must equal v1.products after canonical re-encoding.
	if legacyOK && v1 != nil {
		equal, err := exports.EqualCanonical(legacyProducts, v1.Products)
		if err != nil {
			return nil, err
		}
		if !equal {
			add(Issue{Type: "exports_drift", Reason: "legacy export does not match v1 products list"})
		}
	}

	// Exports must byte-match what the current index regenerates.
	if indexParsed {
		if legacyRaw != nil {
			want, err := exports.EncodeLegacy(indexProducts)
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(want, legacyRaw) {
				add(Issue{Type: "stale_export", Path: legacyRel, Reason: "export does not match the current index (run toil build)"})
			}
		}
		if v1Raw != nil {
			want, err := exports.EncodeV1(indexProducts)
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(want, v1Raw) {
				add(Issue{Type: "stale_export", Path: v1Rel, Reason: "export does not match the current index (run toil build)"})
			}
		}
	}

	result.Status = "ok"
	if len(result.Issues) > 0 {
		result.Status = "issues"
	}
	if result.Issues == nil {
		result.Issues = []Issue{}
	}
	return result, nil
}

func addRetiredFieldIssues(add func(Issue), raw []byte, rel string) {
	for _, field := range RetiredFields {
		found, err := exports.ContainsField(raw, field)
		if err != nil {
			continue // invalid JSON already reported as export_parse
		}
		if found {
			add(Issue{
				Type:   "retired_field",
				Path:   rel,
				Field:  field,
				Reason: fmt.Sprintf("retired field name %q must not appear in exports", field),
			})
		}
	}
}
