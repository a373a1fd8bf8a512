// Package extract turns fetched pages into candidate business records.
// Structured markup is the primary signal; page text heuristics fill the
// gaps.
package extract

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/macadam-io/macadam/internal/model"
	"github.com/macadam-io/macadam/internal/normalize"
	"golang.org/x/net/html"
)

// businessTypes is the JSON-LD @type vocabulary matched case-insensitively.
var businessTypes = map[string]bool{
	"localbusiness":               true,
	"contractor":                  true,
	"homeandconstructionbusiness": true,
}

// workTypeVocab is the fixed vocabulary scanned for work-type tags.
var workTypeVocab = []string{
	"asphalt", "paving", "sealcoat", "sealcoating", "chip seal",
	"driveway", "parking lot", "milling", "overlay",
}

// nanpPhoneRe matches North-American phone numbers in common formats.
var nanpPhoneRe = regexp.MustCompile(`(\+?1[\s\-.]?)?\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}`)

var workTypeRes = buildVocabMatchers()

func buildVocabMatchers() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp, len(workTypeVocab))
	for _, kw := range workTypeVocab {
		res[kw] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return res
}

// PageExtractor parses one fetched page into a RawRecord.
type PageExtractor struct{}

// NewPageExtractor creates a page extractor.
func NewPageExtractor() *PageExtractor {
	return &PageExtractor{}
}

// Extract parses body into a candidate record. JSON-LD blocks describing a
// local business override defaults; the walk runs in document order and the
// last matching block wins per field. Identical input bytes always produce
// an identical record.
func (e *PageExtractor) Extract(body, baseURL string) model.RawRecord {
	rec := model.RawRecord{Website: baseURL}
	if body == "" {
		return rec
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return rec
	}

	rec.Name = truncate(pageTitle(doc), 200)

	for _, block := range jsonLDBlocks(doc) {
		var data interface{}
		if err := json.Unmarshal([]byte(block), &data); err != nil {
			continue
		}
		applyStructured(&rec, data)
	}

	text := visibleText(doc)

	if rec.Phone == "" {
		if m := nanpPhoneRe.FindString(text); m != "" {
			rec.Phone = normalize.ToE164(m)
		}
	}

	rec.WorkTypes = tagWorkTypes(text)

	return rec
}

// pageTitle returns the first <title> text in document order.
func pageTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

// jsonLDBlocks collects the contents of application/ld+json scripts in
// document order.
func jsonLDBlocks(doc *html.Node) []string {
	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key == "type" && strings.EqualFold(strings.TrimSpace(attr.Val), "application/ld+json") {
					if n.FirstChild != nil {
						blocks = append(blocks, n.FirstChild.Data)
					}
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return blocks
}

// applyStructured walks a decoded JSON-LD tree depth-first and copies fields
// from any node whose @type matches the business vocabulary. Nested nodes
// are visited after their parent, so deeper matches override shallower ones.
func applyStructured(rec *model.RawRecord, node interface{}) {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			applyStructured(rec, item)
		}
	case map[string]interface{}:
		if isBusinessNode(v) {
			setIfPresent(&rec.Name, v, "name")
			setIfPresent(&rec.Phone, v, "telephone")
			if addr, ok := v["address"].(map[string]interface{}); ok {
				setIfPresent(&rec.Address, addr, "streetAddress")
				setIfPresent(&rec.City, addr, "addressLocality")
				setIfPresent(&rec.State, addr, "addressRegion")
				setIfPresent(&rec.PostalCode, addr, "postalCode")
			}
		}
		for _, child := range sortedValues(v) {
			applyStructured(rec, child)
		}
	}
}

// sortedValues returns map values in key order so the walk is deterministic.
func sortedValues(m map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, m[k])
	}
	return vals
}

func isBusinessNode(node map[string]interface{}) bool {
	switch typ := node["@type"].(type) {
	case string:
		return businessTypes[strings.ToLower(typ)]
	case []interface{}:
		for _, t := range typ {
			if s, ok := t.(string); ok && businessTypes[strings.ToLower(s)] {
				return true
			}
		}
	}
	return false
}

func setIfPresent(dst *string, node map[string]interface{}, key string) {
	if s, ok := node[key].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			*dst = s
		}
	}
}

// visibleText flattens the document's text nodes, skipping script and style
// subtrees, with single-space separators.
func visibleText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// tagWorkTypes scans text against the fixed vocabulary and returns the
// matches as a sorted, de-duplicated, comma-joined list.
func tagWorkTypes(text string) string {
	var tags []string
	for _, kw := range workTypeVocab {
		if workTypeRes[kw].MatchString(text) {
			tags = append(tags, kw)
		}
	}
	sort.Strings(tags)
	return strings.Join(tags, ", ")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
