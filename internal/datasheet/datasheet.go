// Package datasheet pulls TOIL IDs out of product datasheet PDFs.
package datasheet

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tech4life-beyond/product-registry/internal/product"
)

// IDs are expected near the top of a datasheet, so only the first few
// pages are scanned.
const maxPages = 3

// ExtractTOILID extracts the first TOIL ID from a PDF file.
// A PDF without an ID returns "" and no error.
func ExtractTOILID(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := maxPages
	if r.NumPage() < pages {
		pages = r.NumPage()
	}

	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if id := product.ScanPattern.FindString(text); id != "" {
			return id, nil
		}
	}

	return "", nil
}

// ScanDir scans every PDF directly inside dir, in name order, and
// returns the first TOIL ID found. Unreadable PDFs are skipped: a
// datasheet is a fallback source, not a required one.
func ScanDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var pdfs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(pdfs)

	for _, path := range pdfs {
		id, err := ExtractTOILID(path)
		if err != nil {
			continue
		}
		if id != "" {
			return id, nil
		}
	}

	return "", nil
}
