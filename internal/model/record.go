package model

// RawRecord is a business entity as reported by a single source, before any
// normalization. Every field is optional; adapters fill what they have.
// A record is immutable once emitted by its source.
type RawRecord struct {
	SourceName string `json:"source_name"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Website    string `json:"website,omitempty"`
	WorkTypes  string `json:"work_types,omitempty"`

	// HasDOTFlag marks records that came from an authoritative DOT
	// prequalification roster rather than discovery.
	HasDOTFlag bool `json:"has_dot_flag"`
}

// CanonicalRecord is a RawRecord plus the derived identity and fit fields.
type CanonicalRecord struct {
	RawRecord

	PhoneE164      string   `json:"phone_e164,omitempty"`   // empty or valid E.164
	WebsiteRoot    string   `json:"website_root,omitempty"` // lowercase registrable domain or empty
	MarketFitScore float64  `json:"market_fit_score"`       // clamped to [-1, 1]
	FitLabel       FitLabel `json:"fit_label"`
}

// FitLabel is the categorical outcome derived from the market-fit score.
type FitLabel string

const (
	LabelInclude FitLabel = "include"
	LabelExclude FitLabel = "exclude"
	LabelReview  FitLabel = "review"
)

// ResolutionKey groups likely-duplicate records absent a shared identifier.
// Empty components are preserved as empty segments.
func (r CanonicalRecord) ResolutionKey() string {
	return r.PhoneE164 + "|" + r.WebsiteRoot + "|" + r.PostalCode
}

// RegistryColumns is the output registry schema, in column order.
var RegistryColumns = []string{
	"source_name", "name", "address", "city", "state", "postal_code",
	"phone", "website", "website_root", "work_types", "has_dot_flag",
	"market_fit_score", "fit_label",
}
