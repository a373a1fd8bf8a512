// Package storage persists the canonical registry and the evidence set.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/macadam-io/macadam/internal/model"
)

// WriteRegistry writes the canonical registry as CSV in the fixed column
// order, creating parent directories as needed.
func WriteRegistry(path string, records []model.CanonicalRecord) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create registry file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close registry file: %w", closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(model.RegistryColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(registryRow(rec)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush registry: %w", err)
	}
	return nil
}

func registryRow(rec model.CanonicalRecord) []string {
	return []string{
		rec.SourceName,
		rec.Name,
		rec.Address,
		rec.City,
		rec.State,
		rec.PostalCode,
		rec.PhoneE164,
		rec.Website,
		rec.WebsiteRoot,
		rec.WorkTypes,
		strconv.FormatBool(rec.HasDOTFlag),
		strconv.FormatFloat(rec.MarketFitScore, 'f', -1, 64),
		string(rec.FitLabel),
	}
}

// WriteEvidence dumps the full pre-prune, pre-dedup record set as JSON
// lines for audit and debugging.
func WriteEvidence(path string, records []model.CanonicalRecord) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create evidence file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close evidence file: %w", closeErr)
		}
	}()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode evidence record: %w", err)
		}
	}
	return nil
}
