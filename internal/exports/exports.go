// Package exports writes and checks the JSON export artifacts derived
// from the product index: the legacy list export and the versioned v1
// envelope. Both are canonical encodings — two-space indent, no HTML
// escaping, trailing newline — so regeneration is byte-reproducible.
package exports

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tech4life-beyond/product-registry/internal/product"
)

// SchemaVersion is the only schema version the v1 export carries.
const SchemaVersion = "1.0.0"

// Export shape errors.
var (
	ErrNotList   = errors.New("legacy export must be a JSON list")
	ErrNotObject = errors.New("versioned export must be a JSON object")
)

// V1 is the versioned export envelope. It intentionally carries no
// generated_at or other unstable fields, so regeneration is
// reproducible.
type V1 struct {
	SchemaVersion string            `json:"schema_version"`
	Products      []product.Product `json:"products"`
}

//go:embed schema_v1.json
var schemaV1 []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("product_index_v1.json", bytes.NewReader(schemaV1)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("product_index_v1.json")
	})
	return schema, schemaErr
}

// encode produces the canonical JSON encoding.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeLegacy returns the canonical bytes of the legacy list export.
func EncodeLegacy(products []product.Product) ([]byte, error) {
	if products == nil {
		products = []product.Product{}
	}
	return encode(products)
}

// EncodeV1 returns the canonical bytes of the versioned export.
func EncodeV1(products []product.Product) ([]byte, error) {
	if products == nil {
		products = []product.Product{}
	}
	return encode(V1{SchemaVersion: SchemaVersion, Products: products})
}

// DecodeLegacy parses legacy export bytes. Field order is irrelevant;
// the top-level value must be a list.
func DecodeLegacy(data []byte) ([]product.Product, error) {
	var shape any
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := shape.([]any); !ok {
		return nil, ErrNotList
	}

	var products []product.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return products, nil
}

// DecodeV1 parses versioned export bytes. The top-level value must be
// an object; schema_version is returned as found for callers to check.
func DecodeV1(data []byte) (*V1, error) {
	var shape any
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := shape.(map[string]any); !ok {
		return nil, ErrNotObject
	}

	var v1 V1
	if err := json.Unmarshal(data, &v1); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	return &v1, nil
}

// ReadLegacy reads and parses the legacy export at path.
func ReadLegacy(path string) ([]product.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading legacy export: %w", err)
	}
	return DecodeLegacy(data)
}

// ReadV1 reads and parses the versioned export at path.
func ReadV1(path string) (*V1, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading versioned export: %w", err)
	}
	return DecodeV1(data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating exports directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// WriteLegacy writes the canonical legacy export to path.
func WriteLegacy(path string, products []product.Product) error {
	data, err := EncodeLegacy(products)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteV1 writes the canonical versioned export to path.
func WriteV1(path string, products []product.Product) error {
	data, err := EncodeV1(products)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteAll writes both exports from the same product list.
func WriteAll(legacyPath, v1Path string, products []product.Product) error {
	if err := WriteLegacy(legacyPath, products); err != nil {
		return err
	}
	return WriteV1(v1Path, products)
}

// EqualCanonical reports whether two product lists serialize to
// identical canonical bytes. This is the drift test between the legacy
// export and the v1 products list.
func EqualCanonical(a, b []product.Product) (bool, error) {
	aBytes, err := EncodeLegacy(a)
	if err != nil {
		return false, err
	}
	bBytes, err := EncodeLegacy(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(aBytes, bBytes), nil
}

// Drift categorizes differences between the index and an export,
// keyed by TOIL ID.
type Drift struct {
	MissingFromExport []string `json:"missing_from_export,omitempty"`
	ExtraInExport     []string `json:"extra_in_export,omitempty"`
	Changed           []string `json:"changed,omitempty"`
}

// Empty reports whether no drift was found.
func (d *Drift) Empty() bool {
	return len(d.MissingFromExport) == 0 && len(d.ExtraInExport) == 0 && len(d.Changed) == 0
}

// CompareProducts diffs the products regenerated from the index
// against the products an export currently carries.
func CompareProducts(index, export []product.Product) *Drift {
	drift := &Drift{}

	exported := make(map[string]product.Product, len(export))
	for _, p := range export {
		exported[p.TOILID] = p
	}
	indexed := make(map[string]product.Product, len(index))
	for _, p := range index {
		indexed[p.TOILID] = p
	}

	for _, p := range index {
		got, ok := exported[p.TOILID]
		if !ok {
			drift.MissingFromExport = append(drift.MissingFromExport, p.TOILID)
			continue
		}
		if !product.Equal(p, got) {
			drift.Changed = append(drift.Changed, p.TOILID)
		}
	}
	for _, p := range export {
		if _, ok := indexed[p.TOILID]; !ok {
			drift.ExtraInExport = append(drift.ExtraInExport, p.TOILID)
		}
	}

	return drift
}

// ContainsField reports whether any object anywhere in a JSON document
// carries the given key. Used to reject exports that still carry
// retired field names.
func ContainsField(data []byte, field string) (bool, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}
	return containsField(doc, field), nil
}

func containsField(node any, field string) bool {
	switch typed := node.(type) {
	case map[string]any:
		if _, ok := typed[field]; ok {
			return true
		}
		for _, value := range typed {
			if containsField(value, field) {
				return true
			}
		}
	case []any:
		for _, value := range typed {
			if containsField(value, field) {
				return true
			}
		}
	}
	return false
}

// ValidateV1Document checks raw versioned-export bytes against the
// embedded JSON Schema.
func ValidateV1Document(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling export schema: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
