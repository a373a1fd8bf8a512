package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestLoadRoster_MapsHeterogeneousColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeTempCSV(t, dir, "tx_roster.csv",
		"Firm Name,Street Address,City,State,Zip Code,Telephone,Web Site,Work Class\n"+
			"Acme Paving LLC,100 Main St,Austin,TX,78701,(512) 555-0100,acmepaving.com,Asphalt\n"+
			"Beta Asphalt,200 Oak Ave,Dallas,TX,75201,(214) 555-0188,betaasphalt.com,Paving\n")

	records, err := LoadRoster(path, "txdot")
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	rec := records[0]
	if rec.SourceName != "txdot" {
		t.Errorf("SourceName = %q", rec.SourceName)
	}
	if !rec.HasDOTFlag {
		t.Error("expected DOT flag set")
	}
	if rec.Name != "Acme Paving LLC" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.Address != "100 Main St" || rec.City != "Austin" || rec.State != "TX" {
		t.Errorf("address fields = %q/%q/%q", rec.Address, rec.City, rec.State)
	}
	if rec.PostalCode != "78701" {
		t.Errorf("PostalCode = %q", rec.PostalCode)
	}
	if rec.Phone != "(512) 555-0100" {
		t.Errorf("Phone = %q", rec.Phone)
	}
	if rec.Website != "acmepaving.com" {
		t.Errorf("Website = %q", rec.Website)
	}
	if rec.WorkTypes != "Asphalt" {
		t.Errorf("WorkTypes = %q", rec.WorkTypes)
	}
}

func TestLoadRoster_AlternateHeaders(t *testing.T) {
	dir := t.TempDir()
	path := writeTempCSV(t, dir, "mi_roster.csv",
		"Vendor,Postal Code,Phone Number\n"+
			"Gamma Sealcoating,48226,313-555-0122\n")

	records, err := LoadRoster(path, "mdot")
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Name != "Gamma Sealcoating" {
		t.Errorf("Name = %q", records[0].Name)
	}
	if records[0].PostalCode != "48226" {
		t.Errorf("PostalCode = %q", records[0].PostalCode)
	}
	if records[0].Phone != "313-555-0122" {
		t.Errorf("Phone = %q", records[0].Phone)
	}
}

func TestLoadRoster_NamelessRowsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeTempCSV(t, dir, "tx.csv",
		"Company,City\n"+
			",Austin\n"+
			"Acme Paving,Austin\n")

	records, err := LoadRoster(path, "txdot")
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected nameless row skipped, got %d records", len(records))
	}
}

func TestLoadRoster_NoNameColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeTempCSV(t, dir, "bad.csv", "City,State\nAustin,TX\n")

	if _, err := LoadRoster(path, "txdot"); err == nil {
		t.Error("expected error for roster with no name-like column")
	}
}

func TestLoadRosterDir_UnsupportedRegion(t *testing.T) {
	dir := t.TempDir()
	writeTempCSV(t, dir, "tx_roster.csv", "Firm,City\nAcme,Austin\n")

	if _, err := LoadRosterDir(dir, []string{"ZZ"}); err == nil {
		t.Error("expected error for unsupported region")
	}
}

func TestLoadRosterDir_MissingDirSoftNoop(t *testing.T) {
	records, err := LoadRosterDir(filepath.Join(t.TempDir(), "absent"), []string{"TX"})
	if err != nil {
		t.Fatalf("expected soft no-op, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestLoadRosterDir_FiltersByRegion(t *testing.T) {
	dir := t.TempDir()
	writeTempCSV(t, dir, "tx_roster.csv", "Firm,City\nAcme TX,Austin\n")
	writeTempCSV(t, dir, "mi_roster.csv", "Firm,City\nAcme MI,Detroit\n")

	records, err := LoadRosterDir(dir, []string{"TX"})
	if err != nil {
		t.Fatalf("LoadRosterDir: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].SourceName != "txdot" {
		t.Errorf("SourceName = %q", records[0].SourceName)
	}
}
