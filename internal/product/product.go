// Package product defines the core domain types for registry products.
package product

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Product represents one entry in the Tech4Life product registry.
// JSON field names are the canonical wire names shared by the index
// exports, record frontmatter, and pack metadata files.
type Product struct {
	TOILID       string   `json:"toil_id" yaml:"toil_id"`             // Required, unique, matches IDPattern
	ProductName  string   `json:"product_name" yaml:"product_name"`   // Required, human-readable display name
	Category     string   `json:"category" yaml:"category"`           // May be empty (packs without a category)
	LeadCreator  string   `json:"lead_creator" yaml:"lead_creator"`   // Required
	Status       string   `json:"status" yaml:"status"`               // Required
	LicenseState string   `json:"license_state" yaml:"license_state"` // Required
	Aliases      []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	LegacyIDs    []string `json:"legacy_ids,omitempty" yaml:"legacy_ids,omitempty"`
}

// Defaults applied by sync when a product pack omits the field.
const (
	DefaultLeadCreator  = "Ariel Martin"
	DefaultStatus       = "Active"
	DefaultLicenseState = "Open for Licensing"
)

// IDPattern is the canonical TOIL ID format: three-digit serial followed by
// one or more uppercase alphanumeric suffix segments.
var IDPattern = regexp.MustCompile(`^T4L-TOIL-\d{3}(?:-[A-Z0-9]+)+$`)

// ScanPattern locates TOIL IDs inside free text (pack READMEs, datasheets).
var ScanPattern = regexp.MustCompile(`T4L-TOIL-\d{3}(?:-[A-Z0-9]+)+`)

// Validation errors.
var (
	ErrEmptyID   = errors.New("toil_id is required")
	ErrInvalidID = errors.New("toil_id must match T4L-TOIL-NNN-SUFFIX")
)

// Validate checks field-level invariants on a single product.
func (p Product) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.TOILID, validation.Required.Error("toil_id is required"),
			validation.Match(IDPattern).Error("must match T4L-TOIL-NNN-SUFFIX")),
		validation.Field(&p.ProductName, validation.Required.Error("product_name is required")),
		validation.Field(&p.LeadCreator, validation.Required.Error("lead_creator is required")),
		validation.Field(&p.Status, validation.Required.Error("status is required")),
		validation.Field(&p.LicenseState, validation.Required.Error("license_state is required")),
	)
}

// ValidateID validates just the TOIL ID (useful for lookup operations).
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if !IDPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// SplitList normalizes a comma-separated cell value into a list:
// split on ",", trim each part, drop empties. Empty input returns nil.
func SplitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

// JoinList renders a list value back into its canonical cell form.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

// Sort orders products by TOIL ID (bytewise ascending), the canonical
// order for the index table and both exports.
func Sort(products []Product) {
	sort.Slice(products, func(i, j int) bool {
		return products[i].TOILID < products[j].TOILID
	})
}

// DuplicateIDs returns the sorted set of TOIL IDs that appear more than
// once in the given products.
func DuplicateIDs(products []Product) []string {
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.TOILID]++
	}

	var dups []string
	for id, n := range counts {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}

// FindByID returns the index of the product with the given TOIL ID.
func FindByID(products []Product, id string) (int, bool) {
	for i, p := range products {
		if p.TOILID == id {
			return i, true
		}
	}
	return -1, false
}

// Equal reports whether two products carry identical field values,
// including order-sensitive list fields.
func Equal(a, b Product) bool {
	return a.TOILID == b.TOILID &&
		a.ProductName == b.ProductName &&
		a.Category == b.Category &&
		a.LeadCreator == b.LeadCreator &&
		a.Status == b.Status &&
		a.LicenseState == b.LicenseState &&
		equalLists(a.Aliases, b.Aliases) &&
		equalLists(a.LegacyIDs, b.LegacyIDs)
}

func equalLists(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
