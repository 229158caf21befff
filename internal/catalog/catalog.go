// Package catalog renders the registry as a standalone HTML catalog
// page: a summary table of every product followed by one section per
// product with its record body rendered from Markdown.
package catalog

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
	"github.com/tech4life-beyond/product-registry/internal/product"
	"github.com/tech4life-beyond/product-registry/internal/records"
)

// DefaultTitle is the page title when none is configured.
const DefaultTitle = "Tech4Life Product Catalog"

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("catalog").Parse(htmlTemplate))
}

// engine renders record bodies. WithUnsafe passes raw HTML in records
// through unchanged; records are trusted repository content.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(ghtml.WithUnsafe()),
)

// Options configures catalog generation.
type Options struct {
	Title string
}

// DefaultOptions returns default catalog generation options.
func DefaultOptions() Options {
	return Options{Title: DefaultTitle}
}

// PageData contains all data needed to render the catalog page.
type PageData struct {
	Title   string
	Entries []Entry
}

// Entry is one product prepared for rendering. List fields are joined
// for display; BodyHTML is the record body, empty when no record file
// exists for the product.
type Entry struct {
	TOILID       string
	ProductName  string
	Category     string
	LeadCreator  string
	Status       string
	LicenseState string
	Aliases      string
	LegacyIDs    string
	BodyHTML     template.HTML
}

// IsEmpty returns true if the page has no product entries.
func (p *PageData) IsEmpty() bool {
	return len(p.Entries) == 0
}

// Build assembles page data from the canonical index and the record
// files under root. Entries keep the index order; products without a
// record file get an empty body.
func Build(root string, opts Options) (*PageData, error) {
	table, err := mdtable.ParseFile(config.IndexPath(root), mdtable.Lenient)
	if err != nil {
		return nil, err
	}

	recs, err := records.LoadDir(config.RecordsPath(root))
	if err != nil {
		return nil, err
	}
	bodies := make(map[string]string, len(recs))
	for _, rec := range recs {
		bodies[rec.Product.TOILID] = rec.Body
	}

	page := &PageData{Title: opts.Title}
	if page.Title == "" {
		page.Title = DefaultTitle
	}
	for _, p := range table.Products() {
		body, err := renderMarkdown(bodies[p.TOILID])
		if err != nil {
			return nil, fmt.Errorf("rendering record body for %s: %w", p.TOILID, err)
		}
		page.Entries = append(page.Entries, Entry{
			TOILID:       p.TOILID,
			ProductName:  p.ProductName,
			Category:     p.Category,
			LeadCreator:  p.LeadCreator,
			Status:       p.Status,
			LicenseState: p.LicenseState,
			Aliases:      product.JoinList(p.Aliases),
			LegacyIDs:    product.JoinList(p.LegacyIDs),
			BodyHTML:     body,
		})
	}
	return page, nil
}

// renderMarkdown converts a record body to HTML.
func renderMarkdown(md string) (template.HTML, error) {
	if md == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := engine.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// GenerateHTML generates a self-contained HTML catalog page.
func GenerateHTML(page *PageData) (string, error) {
	if page == nil {
		return "", fmt.Errorf("page cannot be nil")
	}

	if page.IsEmpty() {
		return generateEmptyHTML(page.Title), nil
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, page); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteFile renders page and writes the result to path.
func WriteFile(path string, page *PageData) error {
	html, err := GenerateHTML(page)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

// generateEmptyHTML returns HTML for a registry with no products.
func generateEmptyHTML(title string) string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>` + template.HTMLEscapeString(title) + ` - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No products</h2>
    <p>The registry index has no product rows yet.</p>
    <p>Run <code>toil sync</code> to pull products from the products repo.</p>
  </div>
</body>
</html>`
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
      color: #333;
    }
    .page {
      max-width: 960px;
      margin: 0 auto;
      padding: 24px 16px 64px;
    }
    header h1 {
      margin-bottom: 0.2em;
    }
    header .count {
      color: #666;
      margin-top: 0;
    }
    table.summary {
      width: 100%;
      border-collapse: collapse;
      background: white;
      font-size: 14px;
      box-shadow: 0 1px 3px rgba(0,0,0,0.1);
    }
    table.summary th, table.summary td {
      text-align: left;
      padding: 8px 10px;
      border-bottom: 1px solid #e0e0e0;
    }
    table.summary th {
      background: #fafafa;
      font-size: 12px;
      text-transform: uppercase;
      color: #888;
    }
    table.summary td code {
      background: #eef3f8;
      padding: 1px 5px;
      border-radius: 3px;
      font-size: 13px;
    }
    .status-Active { color: #27AE60; font-weight: bold; }
    .status-Retired { color: #95A5A6; }
    section.product {
      background: white;
      margin-top: 24px;
      padding: 16px 20px;
      border-radius: 4px;
      box-shadow: 0 1px 3px rgba(0,0,0,0.1);
    }
    section.product h2 {
      margin-top: 0;
    }
    section.product h2 code {
      font-size: 0.7em;
      color: #888;
      margin-left: 8px;
    }
    dl.fields {
      display: grid;
      grid-template-columns: max-content 1fr;
      gap: 4px 16px;
      font-size: 14px;
    }
    dl.fields dt {
      color: #888;
    }
    dl.fields dd {
      margin: 0;
    }
    .record-body {
      border-top: 1px solid #e0e0e0;
      margin-top: 12px;
      padding-top: 4px;
      font-size: 14px;
    }
    .record-body h1 {
      font-size: 1.3em;
    }
    a {
      color: #337AB7;
    }
  </style>
</head>
<body>
  <div class="page">
    <header>
      <h1>{{.Title}}</h1>
      <p class="count">{{len .Entries}} products</p>
    </header>
    <table class="summary">
      <thead>
        <tr>
          <th>TOIL ID</th>
          <th>Product Name</th>
          <th>Category</th>
          <th>Lead Creator</th>
          <th>Status</th>
          <th>License State</th>
        </tr>
      </thead>
      <tbody>
        {{range .Entries}}
        <tr>
          <td><a href="#{{.TOILID}}"><code>{{.TOILID}}</code></a></td>
          <td>{{.ProductName}}</td>
          <td>{{.Category}}</td>
          <td>{{.LeadCreator}}</td>
          <td class="status-{{.Status}}">{{.Status}}</td>
          <td>{{.LicenseState}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{range .Entries}}
    <section class="product" id="{{.TOILID}}">
      <h2>{{.ProductName}}<code>{{.TOILID}}</code></h2>
      <dl class="fields">
        <dt>Category</dt><dd>{{if .Category}}{{.Category}}{{else}}&mdash;{{end}}</dd>
        <dt>Lead Creator</dt><dd>{{.LeadCreator}}</dd>
        <dt>Status</dt><dd>{{.Status}}</dd>
        <dt>License State</dt><dd>{{.LicenseState}}</dd>
        {{if .Aliases}}<dt>Aliases</dt><dd>{{.Aliases}}</dd>{{end}}
        {{if .LegacyIDs}}<dt>Legacy IDs</dt><dd>{{.LegacyIDs}}</dd>{{end}}
      </dl>
      {{if .BodyHTML}}
      <div class="record-body">{{.BodyHTML}}</div>
      {{end}}
    </section>
    {{end}}
  </div>
</body>
</html>`
