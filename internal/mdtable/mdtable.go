// Package mdtable parses and renders the canonical product index table
// in index/TOIL_Product_Index.md.
package mdtable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tech4life-beyond/product-registry/internal/product"
)

// Canonical header cells. A table header must contain all of them;
// extra columns are tolerated and ignored.
const (
	HeaderTOILID       = "TOIL ID"
	HeaderProductName  = "Product Name"
	HeaderCategory     = "Category"
	HeaderLeadCreator  = "Lead Creator"
	HeaderStatus       = "Status"
	HeaderLicenseState = "License State"
	HeaderAliases      = "Aliases (Optional)"
	HeaderLegacyIDs    = "Legacy IDs (Optional)"
)

// Headers lists the canonical header cells in column order.
var Headers = []string{
	HeaderTOILID,
	HeaderProductName,
	HeaderCategory,
	HeaderLeadCreator,
	HeaderStatus,
	HeaderLicenseState,
	HeaderAliases,
	HeaderLegacyIDs,
}

// Marker separates a hand-written prologue from the generated table.
// Rewrites preserve everything above it.
const Marker = "<!-- AUTO-GENERATED: PRODUCT INDEX TABLE (DO NOT EDIT BELOW) -->"

// Generated rows are byte-identical across regenerations.
const (
	headerRow    = "| TOIL ID | Product Name | Category | Lead Creator | Status | License State | Aliases (Optional) | Legacy IDs (Optional) |"
	separatorRow = "|-------|-------------|----------|--------------|--------|---------------|-------------------|-----------------------|"
)

// ErrNoTable is returned when no row contains all canonical headers.
var ErrNoTable = errors.New("no product index table found with expected headers")

// Mode selects how row cell counts are treated.
type Mode int

const (
	// Lenient pads rows shorter than the header with empty cells and
	// ignores extra cells. Used when building exports from the index.
	Lenient Mode = iota
	// Strict rejects any row whose cell count differs from the header's.
	// Used by validation to surface malformed rows.
	Strict
)

// ParseError reports a malformed table row.
type ParseError struct {
	Line    int    // 1-indexed line in the source document
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Row is one parsed data row with its source position.
type Row struct {
	Line    int // 1-indexed line in the source document
	Product product.Product
}

// Table is the parse result for one index document.
type Table struct {
	HeaderLine int // 1-indexed line of the header row
	Rows       []Row
}

// Products returns the parsed products in table order.
func (t *Table) Products() []product.Product {
	products := make([]product.Product, len(t.Rows))
	for i, row := range t.Rows {
		products[i] = row.Product
	}
	return products
}

// ValidateIDs checks every row's TOIL ID against the canonical pattern.
// Returns a ParseError naming the first offending row.
func (t *Table) ValidateIDs() error {
	for _, row := range t.Rows {
		if err := product.ValidateID(row.Product.TOILID); err != nil {
			return ParseError{Line: row.Line, Message: fmt.Sprintf("invalid TOIL ID %q", row.Product.TOILID)}
		}
	}
	return nil
}

var separatorCell = regexp.MustCompile(`^:?-{3,}:?$`)

// Parse reads a Markdown document and extracts the first (and only)
// canonical product table: the first row containing all canonical
// headers, an optional separator row, then data rows until the first
// non-table line. The rest of the document is ignored.
func Parse(r io.Reader, mode Mode) (*Table, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return parseLines(lines, mode)
}

// ParseString is a convenience function that parses from a string.
func ParseString(content string, mode Mode) (*Table, error) {
	return Parse(strings.NewReader(content), mode)
}

// ParseFile parses the index document at path.
func ParseFile(path string, mode Mode) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()
	return Parse(f, mode)
}

func parseLines(lines []string, mode Mode) (*Table, error) {
	headerIdx := -1
	var index map[string]int
	var headerWidth int

	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "|") {
			continue
		}
		cells := splitRow(line)
		if idx, ok := headerIndex(cells); ok {
			headerIdx = i
			index = idx
			headerWidth = len(cells)
			break
		}
	}
	if headerIdx == -1 {
		return nil, ErrNoTable
	}

	table := &Table{HeaderLine: headerIdx + 1}

	i := headerIdx + 1
	if i < len(lines) && strings.Contains(lines[i], "|") {
		if isSeparatorRow(splitRow(lines[i])) {
			i++
		}
	}

	for ; i < len(lines); i++ {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
			break
		}
		cells := splitRow(lines[i])
		if isSeparatorRow(cells) {
			continue
		}
		if mode == Strict && len(cells) != headerWidth {
			return nil, ParseError{
				Line:    i + 1,
				Message: fmt.Sprintf("malformed row: %d cells, want %d", len(cells), headerWidth),
			}
		}
		table.Rows = append(table.Rows, Row{Line: i + 1, Product: rowProduct(cells, index)})
	}

	return table, nil
}

// splitRow trims the line, strips enclosing pipes, and splits into
// trimmed cells.
func splitRow(line string) []string {
	inner := strings.Trim(strings.TrimSpace(line), "|")
	parts := strings.Split(inner, "|")
	cells := make([]string, len(parts))
	for i, part := range parts {
		cells[i] = strings.TrimSpace(part)
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if !separatorCell.MatchString(cell) {
			return false
		}
	}
	return len(cells) > 0
}

// headerIndex maps each canonical header to its column position, or
// reports false if any canonical header is missing.
func headerIndex(cells []string) (map[string]int, bool) {
	index := make(map[string]int, len(Headers))
	for _, header := range Headers {
		pos := -1
		for i, cell := range cells {
			if cell == header {
				pos = i
				break
			}
		}
		if pos == -1 {
			return nil, false
		}
		index[header] = pos
	}
	return index, true
}

func rowProduct(cells []string, index map[string]int) product.Product {
	cell := func(header string) string {
		idx := index[header]
		if idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}
	return product.Product{
		TOILID:       cell(HeaderTOILID),
		ProductName:  cell(HeaderProductName),
		Category:     cell(HeaderCategory),
		LeadCreator:  cell(HeaderLeadCreator),
		Status:       cell(HeaderStatus),
		LicenseState: cell(HeaderLicenseState),
		Aliases:      product.SplitList(cell(HeaderAliases)),
		LegacyIDs:    product.SplitList(cell(HeaderLegacyIDs)),
	}
}

// Render produces the canonical table: fixed header and separator rows,
// one row per product, list cells joined with ", ", trailing newline.
func Render(products []product.Product) string {
	var b strings.Builder
	b.WriteString(headerRow)
	b.WriteByte('\n')
	b.WriteString(separatorRow)
	b.WriteByte('\n')
	for _, p := range products {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			p.TOILID, p.ProductName, p.Category, p.LeadCreator,
			p.Status, p.LicenseState,
			product.JoinList(p.Aliases), product.JoinList(p.LegacyIDs))
	}
	return b.String()
}

// RewriteDocument replaces the generated table in an index document,
// preserving everything above the marker. Content below the marker is
// regenerated; a document without a marker keeps its full text as the
// prologue.
func RewriteDocument(existing string, products []product.Product) string {
	var prologue string
	if i := strings.Index(existing, Marker); i >= 0 {
		prologue = strings.TrimRight(existing[:i], " \t\r\n")
	} else {
		prologue = strings.TrimRight(existing, " \t\r\n")
	}

	table := Render(products)
	if prologue == "" {
		return Marker + "\n\n" + table
	}
	return prologue + "\n\n" + Marker + "\n\n" + table
}

// WriteFile rewrites the index document at path with the given products,
// creating the file (and its directory) if needed.
func WriteFile(path string, products []product.Product) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading index file: %w", err)
	}

	updated := RewriteDocument(string(existing), products)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	return nil
}
