// Package normalize canonicalizes name, phone, and website fields so records
// from heterogeneous sources become comparable.
package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/macadam-io/macadam/internal/model"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/publicsuffix"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Name trims and collapses internal whitespace to single spaces.
func Name(name string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
}

// ToE164 parses a phone string in a US default context and returns the E.164
// form, or "" for anything unparseable or invalid.
func ToE164(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	num, err := phonenumbers.Parse(phone, "US")
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// RootDomain extracts the lowercase registrable domain from a URL or bare
// host, assuming https when no scheme is present. Invalid input yields "".
func RootDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	host := hostOf(raw)
	if host == "" {
		return ""
	}

	root, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(host))
	if err != nil {
		return ""
	}
	return root
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// Record fills a CanonicalRecord's derived fields from its raw ones. Missing
// optional fields stay empty strings, so every record exposes the full
// canonical field set regardless of source.
func Record(raw model.RawRecord) model.CanonicalRecord {
	rec := model.CanonicalRecord{RawRecord: raw}
	rec.Name = Name(raw.Name)
	rec.PhoneE164 = ToE164(raw.Phone)
	rec.WebsiteRoot = RootDomain(raw.Website)
	return rec
}
