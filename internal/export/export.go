// internal/export/export.go
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/record-harvest/harvest/pkg/models"
)

// Exporter serializes a run result to a destination. The orchestration
// core never writes files; only the CLI picks an exporter and invokes
// it.
type Exporter interface {
	Export(result *models.RunResult, dest string) error
	Name() string
}

// ForPath picks an exporter from the destination's file extension.
// Unknown extensions default to JSON.
func ForPath(path string) Exporter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV{}
	case ".md":
		return Markdown{}
	default:
		return JSON{}
	}
}

// Save writes a run result in the format implied by the file extension.
func Save(result *models.RunResult, path string) error {
	return ForPath(path).Export(result, path)
}

// JSON writes the full result, stats included, as indented JSON.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Export(result *models.RunResult, dest string) error {
	content, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(dest, content, 0o644)
}

// CSV writes one row per record. The header is the union of field names
// across all records so late-appearing enrichment fields still get a
// column; missing values render as the NotFound sentinel.
type CSV struct{}

func (CSV) Name() string { return "csv" }

func (CSV) Export(result *models.RunResult, dest string) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := fieldColumns(result.Records)
	if err := writer.Write(append([]string{"term"}, headers...)); err != nil {
		return err
	}

	for _, rec := range result.Records {
		row := make([]string, 0, len(headers)+1)
		row = append(row, rec.Term)
		for _, h := range headers {
			row = append(row, rec.Get(h))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Markdown writes a human-readable report grouped by search term.
type Markdown struct{}

func (Markdown) Name() string { return "markdown" }

func (Markdown) Export(result *models.RunResult, dest string) error {
	var b strings.Builder
	b.WriteString("# Harvest results\n\n")

	byTerm := make(map[string][]models.Record)
	var order []string
	for _, rec := range result.Records {
		if _, seen := byTerm[rec.Term]; !seen {
			order = append(order, rec.Term)
		}
		byTerm[rec.Term] = append(byTerm[rec.Term], rec)
	}

	for _, term := range order {
		fmt.Fprintf(&b, "## %s\n\n", term)
		for _, rec := range byTerm[term] {
			title := rec.Get(models.FieldTitle)
			if url := rec.URL(); url != "" {
				fmt.Fprintf(&b, "- [%s](%s)", title, url)
			} else {
				fmt.Fprintf(&b, "- %s", title)
			}
			if rec.Has(models.FieldPrice) {
				fmt.Fprintf(&b, " - %s", rec.Get(models.FieldPrice))
			} else if rec.Has(models.FieldCompany) {
				fmt.Fprintf(&b, " - %s", rec.Get(models.FieldCompany))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(result.Stats) > 0 {
		b.WriteString("## Run stats\n\n")
		for _, s := range result.Stats {
			fmt.Fprintf(&b, "- %s: %d records over %d pages", s.Term, s.Extracted, s.Pages)
			if s.Err != "" {
				fmt.Fprintf(&b, " (error: %s)", s.Err)
			}
			b.WriteString("\n")
		}
	}

	return os.WriteFile(dest, []byte(b.String()), 0o644)
}

// fieldColumns returns the sorted union of field names, with the most
// useful columns pinned to the front.
func fieldColumns(records []models.Record) []string {
	pinned := []string{models.FieldTitle, models.FieldPrice, models.FieldCompany, models.FieldURL}
	pinnedSet := make(map[string]bool, len(pinned))
	for _, p := range pinned {
		pinnedSet[p] = true
	}

	seen := make(map[string]bool)
	for _, rec := range records {
		for field := range rec.Fields {
			seen[field] = true
		}
	}

	var headers []string
	for _, p := range pinned {
		if seen[p] {
			headers = append(headers, p)
		}
	}
	var rest []string
	for field := range seen {
		if !pinnedSet[field] {
			rest = append(rest, field)
		}
	}
	sort.Strings(rest)
	return append(headers, rest...)
}
