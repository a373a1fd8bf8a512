package normalize

import (
	"testing"

	"github.com/macadam-io/macadam/internal/model"
)

func TestName_CollapsesWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Acme   Paving  LLC ", "Acme Paving LLC"},
		{"Acme\tPaving\n LLC", "Acme Paving LLC"},
		{"", ""},
		{"   ", ""},
		{"Acme", "Acme"},
	}

	for _, tt := range tests {
		if got := Name(tt.in); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToE164_EquivalentFormats(t *testing.T) {
	// All common formats of the same number normalize identically.
	formats := []string{
		"(512) 555-0100",
		"512-555-0100",
		"512.555.0100",
		"5125550100",
		"+1 512 555 0100",
		"1-512-555-0100",
	}
	for _, f := range formats {
		if got := ToE164(f); got != "+15125550100" {
			t.Errorf("ToE164(%q) = %q, want +15125550100", f, got)
		}
	}
}

func TestToE164_Invalid(t *testing.T) {
	tests := []string{"", "   ", "not a phone", "123", "0000000000"}
	for _, in := range tests {
		if got := ToE164(in); got != "" {
			t.Errorf("ToE164(%q) = %q, want empty", in, got)
		}
	}
}

func TestRootDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://WWW.AcmePaving.com/contact", "acmepaving.com"},
		{"http://acmepaving.com", "acmepaving.com"},
		{"acmepaving.com", "acmepaving.com"},
		{"www.acmepaving.com", "acmepaving.com"},
		{"sub.deep.acmepaving.co.uk", "acmepaving.co.uk"},
		{"", ""},
		{"   ", ""},
		{"://bad", ""},
	}

	for _, tt := range tests {
		if got := RootDomain(tt.in); got != tt.want {
			t.Errorf("RootDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecord_FillsDerivedFields(t *testing.T) {
	raw := model.RawRecord{
		SourceName: "web",
		Name:       "  Acme   Paving ",
		Phone:      "(512) 555-0100",
		Website:    "https://WWW.AcmePaving.com/contact",
	}

	rec := Record(raw)

	if rec.Name != "Acme Paving" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.PhoneE164 != "+15125550100" {
		t.Errorf("PhoneE164 = %q", rec.PhoneE164)
	}
	if rec.WebsiteRoot != "acmepaving.com" {
		t.Errorf("WebsiteRoot = %q", rec.WebsiteRoot)
	}
}

func TestRecord_MissingFieldsStayEmpty(t *testing.T) {
	rec := Record(model.RawRecord{SourceName: "osm", Name: "Acme"})

	if rec.PhoneE164 != "" || rec.WebsiteRoot != "" {
		t.Errorf("expected empty derived fields, got phone=%q root=%q",
			rec.PhoneE164, rec.WebsiteRoot)
	}
}
