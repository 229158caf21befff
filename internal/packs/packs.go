// Package packs reads product packs out of a products repository
// checkout. A pack is a top-level folder with a README.md; metadata
// comes from metadata.json when present, README key/value lines
// otherwise, with registry defaults filling the rest.
package packs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tech4life-beyond/product-registry/internal/datasheet"
	"github.com/tech4life-beyond/product-registry/internal/product"
)

const (
	readmeFile   = "README.md"
	metadataFile = "metadata.json"
)

var keyValueLine = regexp.MustCompile(`^\s*[-*]?\s*([^:]+)\s*:\s*(.+)$`)

// Pack is one product folder in the products repository.
type Pack struct {
	Name string
	Dir  string
}

// Discover returns the product packs directly under repoDir, in name
// order. Folders matching an exclude glob are skipped; a trailing /**
// excludes the folder itself as well.
func Discover(repoDir string, exclude []string) ([]Pack, error) {
	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return nil, err
	}

	var found []Pack
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skip, err := excluded(entry.Name(), exclude)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		dir := filepath.Join(repoDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, readmeFile)); err != nil {
			continue
		}
		found = append(found, Pack{Name: entry.Name(), Dir: dir})
	}
	return found, nil
}

func excluded(name string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if !match && strings.HasSuffix(pattern, "/**") {
			match, err = doublestar.Match(strings.TrimSuffix(pattern, "/**"), name)
			if err != nil {
				return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
			}
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// Parse reads one pack into a Product. metadata.json wins over README
// key/value lines; defaults fill whatever is left. The TOIL ID may come
// from metadata.json, the README text, or a PDF datasheet in the pack —
// a pack without one anywhere is an error.
func Parse(pack Pack) (product.Product, error) {
	var p product.Product

	metaPath := filepath.Join(pack.Dir, metadataFile)
	data, err := os.ReadFile(metaPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &p); err != nil {
			return product.Product{}, fmt.Errorf("%s: %w", metaPath, err)
		}
	case !os.IsNotExist(err):
		return product.Product{}, err
	}

	content, err := os.ReadFile(filepath.Join(pack.Dir, readmeFile))
	if err != nil {
		return product.Product{}, err
	}

	if p.TOILID == "" {
		p.TOILID = product.ScanPattern.FindString(string(content))
	}

	meta := extractMetadata(strings.Split(string(content), "\n"))
	if p.ProductName == "" {
		p.ProductName = meta.productName
	}
	if p.Category == "" {
		p.Category = meta.category
	}
	if p.LeadCreator == "" {
		p.LeadCreator = meta.leadCreator
	}
	if p.Status == "" {
		p.Status = meta.status
	}
	if p.LicenseState == "" {
		p.LicenseState = meta.licenseState
	}
	if len(p.Aliases) == 0 {
		p.Aliases = meta.aliases
	}
	if len(p.LegacyIDs) == 0 {
		p.LegacyIDs = meta.legacyIDs
	}

	if p.TOILID == "" {
		id, err := datasheet.ScanDir(pack.Dir)
		if err != nil {
			return product.Product{}, err
		}
		p.TOILID = id
	}
	if p.TOILID == "" {
		return product.Product{}, fmt.Errorf("no TOIL ID found in %s", pack.Name)
	}

	if p.ProductName == "" {
		p.ProductName = TitleCaseFolder(pack.Name)
	}
	if p.LeadCreator == "" {
		p.LeadCreator = product.DefaultLeadCreator
	}
	if p.Status == "" {
		p.Status = product.DefaultStatus
	}
	if p.LicenseState == "" {
		p.LicenseState = product.DefaultLicenseState
	}

	if err := p.Validate(); err != nil {
		return product.Product{}, fmt.Errorf("pack %s: %w", pack.Name, err)
	}

	return p, nil
}

// Load discovers and parses every pack under repoDir and returns the
// products sorted by TOIL ID.
func Load(repoDir string, exclude []string) ([]product.Product, error) {
	found, err := Discover(repoDir, exclude)
	if err != nil {
		return nil, err
	}

	products := make([]product.Product, 0, len(found))
	for _, pack := range found {
		p, err := Parse(pack)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	product.Sort(products)
	return products, nil
}

type readmeMetadata struct {
	productName  string
	category     string
	leadCreator  string
	status       string
	licenseState string
	aliases      []string
	legacyIDs    []string
}

// extractMetadata scans README lines for "Key: value" pairs, optionally
// bulleted. Keys are matched case-insensitively; later lines override
// earlier ones.
func extractMetadata(lines []string) readmeMetadata {
	var meta readmeMetadata
	for _, line := range lines {
		m := keyValueLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])
		switch strings.ToLower(strings.TrimSpace(m[1])) {
		case "product name":
			meta.productName = value
		case "category":
			meta.category = value
		case "lead creator":
			meta.leadCreator = value
		case "status":
			meta.status = value
		case "license state":
			meta.licenseState = value
		case "aliases":
			meta.aliases = product.SplitList(value)
		case "legacy ids":
			meta.legacyIDs = product.SplitList(value)
		}
	}
	return meta
}

// TitleCaseFolder derives a product name from a folder name:
// "clean-drain-device" becomes "Clean Drain Device".
func TitleCaseFolder(name string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(name))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
