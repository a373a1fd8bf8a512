// Package ingest produces RawRecord streams from the non-crawl sources:
// state DOT prequalification rosters, the Overpass geodata service, and the
// Common Crawl index used to seed web discovery.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/macadam-io/macadam/internal/model"
)

// rosterSources maps supported region codes to their roster source tag and
// the filename fragment used to locate roster files in a directory.
var rosterSources = map[string]struct {
	tag  string
	glob string
}{
	"TX": {tag: "txdot", glob: "*tx*"},
	"MI": {tag: "mdot", glob: "*mi*"},
	"CO": {tag: "cdot", glob: "*co*"},
}

// LoadRoster reads one DOT roster CSV and maps its columns onto the canonical
// schema by header keyword heuristics. Column layouts differ per agency;
// unmappable columns are skipped. Every record carries the DOT flag.
func LoadRoster(path, sourceTag string) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	mapping := mapColumns(rows[0])
	if _, ok := mapping["name"]; !ok {
		return nil, fmt.Errorf("roster %s: no name-like column", path)
	}

	records := make([]model.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := model.RawRecord{SourceName: sourceTag, HasDOTFlag: true}
		for field, col := range mapping {
			if col >= len(row) {
				continue
			}
			val := strings.TrimSpace(row[col])
			switch field {
			case "name":
				rec.Name = val
			case "address":
				rec.Address = val
			case "city":
				rec.City = val
			case "state":
				rec.State = val
			case "postal_code":
				rec.PostalCode = val
			case "phone":
				rec.Phone = val
			case "website":
				rec.Website = val
			case "work_types":
				rec.WorkTypes = val
			}
		}
		if rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// mapColumns assigns canonical fields to header indexes. Later headers win a
// contested field, matching a left-to-right scan where each column claims
// the first field it resembles.
func mapColumns(header []string) map[string]int {
	mapping := make(map[string]int)
	for i, raw := range header {
		col := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "\n", " "))
		switch {
		case containsAnyOf(col, "firm", "vendor", "company", "name"):
			mapping["name"] = i
		case strings.Contains(col, "address") || strings.Contains(col, "street"):
			mapping["address"] = i
		case strings.Contains(col, "city"):
			mapping["city"] = i
		case col == "state":
			mapping["state"] = i
		case strings.Contains(col, "zip") || strings.Contains(col, "postal"):
			mapping["postal_code"] = i
		case strings.Contains(col, "phone") || strings.Contains(col, "telephone"):
			mapping["phone"] = i
		case strings.Contains(col, "web") || strings.Contains(col, "url"):
			mapping["website"] = i
		case containsAnyOf(col, "work", "code", "class", "category"):
			mapping["work_types"] = i
		}
	}
	return mapping
}

func containsAnyOf(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// LoadRosterDir loads every roster file in dir matching the requested
// regions. A missing directory is a soft no-op; an unsupported region code
// is a precondition failure.
func LoadRosterDir(dir string, regions []string) ([]model.RawRecord, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var records []model.RawRecord
	for _, region := range regions {
		src, ok := rosterSources[strings.ToUpper(region)]
		if !ok {
			return nil, fmt.Errorf("unsupported region %q", region)
		}
		paths, err := filepath.Glob(filepath.Join(dir, src.glob+".csv"))
		if err != nil {
			return nil, fmt.Errorf("glob rosters: %w", err)
		}
		for _, path := range paths {
			recs, err := LoadRoster(path, src.tag)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}
	return records, nil
}
