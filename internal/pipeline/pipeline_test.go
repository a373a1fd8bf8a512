package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/macadam-io/macadam/internal/model"
	"github.com/macadam-io/macadam/internal/normalize"
	"github.com/macadam-io/macadam/internal/resolve"
	"github.com/macadam-io/macadam/internal/score"
)

// Two views of the same contractor, one from a DOT roster and one from web
// discovery, must converge to a single canonical record.
func TestCrossSourceResolution(t *testing.T) {
	raws := []model.RawRecord{
		{
			SourceName: "txdot",
			Name:       "Acme Paving LLC",
			Phone:      "5125550100",
			HasDOTFlag: true,
		},
		{
			SourceName: "web",
			Name:       "Acme Paving LLC",
			Phone:      "(512) 555-0100",
			Website:    "acmepaving.com",
		},
	}

	scorer := score.NewScorer(model.MarketConfig{
		IncludeTerms: []string{"paving"},
	})

	var canonical []model.CanonicalRecord
	for _, raw := range raws {
		rec := normalize.Record(raw)
		rec.MarketFitScore, rec.FitLabel = scorer.Calculate(rec)
		canonical = append(canonical, rec)
	}

	for _, rec := range canonical {
		if rec.PhoneE164 != "+15125550100" {
			t.Errorf("%s: PhoneE164 = %q", rec.SourceName, rec.PhoneE164)
		}
		if rec.MarketFitScore < 0.5 {
			t.Errorf("%s: score = %v, want >= 0.5", rec.SourceName, rec.MarketFitScore)
		}
	}

	var pruned []model.CanonicalRecord
	for _, rec := range canonical {
		if rec.FitLabel != model.LabelExclude {
			pruned = append(pruned, rec)
		}
	}

	out := resolve.NewResolver().Resolve(pruned)
	if len(out) != 1 {
		t.Fatalf("expected 1 canonical record, got %d", len(out))
	}
}

func TestRun_RosterOnly(t *testing.T) {
	dir := t.TempDir()
	rosterDir := filepath.Join(dir, "dot")
	if err := os.MkdirAll(rosterDir, 0o755); err != nil {
		t.Fatal(err)
	}
	roster := "Firm Name,City,State,Zip Code,Telephone\n" +
		"Acme Paving LLC,Austin,TX,78701,(512) 555-0100\n" +
		"Acme Paving LLC,Austin,TX,78701,512-555-0100\n" + // duplicate in other format
		"Generic Supplies,Austin,TX,78702,(512) 555-0999\n"
	if err := os.WriteFile(filepath.Join(rosterDir, "tx_roster.csv"), []byte(roster), 0o644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "out", "registry.csv")
	evidencePath := filepath.Join(dir, "out", "evidence.jsonl")

	cfg := model.DefaultConfig()
	cfg.Market = model.MarketConfig{
		IncludeTerms: []string{"paving"},
		ExcludeTerms: []string{"supplies"},
	}

	p := New(cfg, nil)
	result, err := p.Run(context.Background(), RunParams{
		Regions:      []string{"TX"},
		RosterDir:    rosterDir,
		OutPath:      outPath,
		EvidencePath: evidencePath,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Evidence != 3 {
		t.Errorf("Evidence = %d, want 3", result.Evidence)
	}
	// The supplier is excluded (0.4 - 0.9 < 0.2) and the duplicate merges.
	if result.Canonical != 1 {
		t.Errorf("Canonical = %d, want 1", result.Canonical)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read registry: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[1][1] != "Acme Paving LLC" {
		t.Errorf("surviving record = %v", rows[1])
	}
	if rows[1][6] != "+15125550100" {
		t.Errorf("phone column = %q, want the normalized number", rows[1][6])
	}

	// Evidence dump carries the full unpruned set.
	evidence, err := os.ReadFile(evidencePath)
	if err != nil {
		t.Fatalf("read evidence: %v", err)
	}
	if len(evidence) == 0 {
		t.Error("expected evidence dump")
	}
}

func TestRun_NothingToDo(t *testing.T) {
	dir := t.TempDir()

	p := New(model.DefaultConfig(), nil)
	result, err := p.Run(context.Background(), RunParams{
		Regions:   []string{"TX"},
		RosterDir: filepath.Join(dir, "absent"),
		OutPath:   filepath.Join(dir, "registry.csv"),
	})
	if err != nil {
		t.Fatalf("empty run must be soft: %v", err)
	}
	if result.Evidence != 0 || result.Canonical != 0 {
		t.Errorf("result = %+v, want zeros", result)
	}
}

func TestRun_UnsupportedRegionFailsFast(t *testing.T) {
	dir := t.TempDir()
	rosterDir := filepath.Join(dir, "dot")
	if err := os.MkdirAll(rosterDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(rosterDir, "tx_roster.csv"),
		[]byte("Firm,City\nAcme Paving,Austin\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New(model.DefaultConfig(), nil)
	_, err := p.Run(context.Background(), RunParams{
		Regions:   []string{"XX"},
		RosterDir: rosterDir,
		OutPath:   filepath.Join(dir, "registry.csv"),
	})
	if err == nil {
		t.Fatal("expected error for unsupported region")
	}
}
