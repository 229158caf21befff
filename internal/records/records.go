// Package records loads, scaffolds, and compares per-product record
// files under records/. A record is YAML frontmatter carrying the
// product fields, followed by a free Markdown body.
package records

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/tech4life-beyond/product-registry/internal/product"
)

// Record is one parsed record file.
type Record struct {
	Product product.Product
	Body    string // Markdown body without the frontmatter block
	Path    string
}

// Path returns the canonical record path for a TOIL ID.
func Path(dir, toilID string) string {
	return filepath.Join(dir, toilID+".md")
}

// Load reads and parses a single record file. Frontmatter is required.
func Load(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening record: %w", err)
	}
	defer f.Close()

	var p product.Product
	body, err := frontmatter.MustParse(f, &p)
	if err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", filepath.Base(path), err)
	}

	return &Record{Product: p, Body: string(body), Path: path}, nil
}

// Files returns the sorted paths of all *.md files in a records
// directory. A missing directory yields no paths.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading records directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads every record in dir, sorted by filename. The filename
// stem must equal the frontmatter toil_id.
func LoadDir(dir string) ([]*Record, error) {
	paths, err := Files(dir)
	if err != nil {
		return nil, err
	}

	var recs []*Record
	for _, path := range paths {
		rec, err := Load(path)
		if err != nil {
			return nil, err
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".md")
		if rec.Product.TOILID != stem {
			return nil, fmt.Errorf("record %s: frontmatter toil_id %q does not match filename", filepath.Base(path), rec.Product.TOILID)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Scaffold renders a fresh record document for a product: the product
// fields as frontmatter, then a titled body skeleton.
func Scaffold(p product.Product) ([]byte, error) {
	meta, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding record frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n", p.ProductName)
	return buf.Bytes(), nil
}

// Write scaffolds a record for p into dir unless one already exists,
// creating the directory if needed. It reports whether a file was
// created.
func Write(dir string, p product.Product) (string, bool, error) {
	path := Path(dir, p.TOILID)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("checking record: %w", err)
	}

	data, err := Scaffold(p)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, fmt.Errorf("creating records directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", false, fmt.Errorf("writing record: %w", err)
	}
	return path, true, nil
}

// Mismatch is one field differing between an index row and its record.
type Mismatch struct {
	Field       string `json:"field"`
	IndexValue  string `json:"index_value"`
	RecordValue string `json:"record_value"`
}

// Compare reports field-level differences between an index row and the
// record frontmatter for the same TOIL ID. The ID itself is the join
// key and is not compared.
func Compare(index, record product.Product) []Mismatch {
	var mismatches []Mismatch
	add := func(field, indexValue, recordValue string) {
		if indexValue != recordValue {
			mismatches = append(mismatches, Mismatch{Field: field, IndexValue: indexValue, RecordValue: recordValue})
		}
	}

	add("product_name", index.ProductName, record.ProductName)
	add("category", index.Category, record.Category)
	add("lead_creator", index.LeadCreator, record.LeadCreator)
	add("status", index.Status, record.Status)
	add("license_state", index.LicenseState, record.LicenseState)
	add("aliases", product.JoinList(index.Aliases), product.JoinList(record.Aliases))
	add("legacy_ids", product.JoinList(index.LegacyIDs), product.JoinList(record.LegacyIDs))
	return mismatches
}
