package connect

import (
	"strings"
	"time"
)

// FieldProbe extracts transaction fields from a schema-less record (a map
// of user-named fields, as returned by Airtable and similar sources). Field
// names vary per user, so each field is resolved through an ordered list of
// candidates; the first hit wins. Records missing a date or amount are
// skipped by the caller; a description is always produced.
type FieldProbe struct {
	DateFields        []string
	AmountFields      []string
	DescriptionFields []string
	TypeFields        []string
	// Fallback is the description used when no candidate and no string
	// field yields one.
	Fallback string
}

// airtableProbe matches the field names Airtable bases commonly use.
var airtableProbe = FieldProbe{
	DateFields:        []string{"Date", "date", "Transaction Date", "Created", "createdTime"},
	AmountFields:      []string{"Amount", "amount", "Total", "Price", "Cost", "Value"},
	DescriptionFields: []string{"Description", "description", "Name", "name", "Title", "Notes", "Memo"},
	TypeFields:        []string{"Type", "type", "Category", "category"},
	Fallback:          "Airtable Record",
}

var incomeKeywords = []string{"income", "revenue", "payment received"}
var expenseKeywords = []string{"expense", "cost", "payment made"}

// dateLayouts covers the formats schema-less sources report dates in.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Date returns the first parseable date among the candidate fields.
func (p FieldProbe) Date(fields map[string]any) (time.Time, bool) {
	for _, name := range p.DateFields {
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// Amount returns the first numeric value among the candidate fields. The
// sign is preserved; callers store the absolute value and use the sign for
// type inference.
func (p FieldProbe) Amount(fields map[string]any) (float64, bool) {
	for _, name := range p.AmountFields {
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return val, true
		case int:
			return float64(val), true
		case string:
			if f, err := parseMoney(val); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Description returns the first non-empty candidate field, then the first
// non-empty string-typed field in iteration-stable order, then the probe's
// fallback label. It never fails.
func (p FieldProbe) Description(fields map[string]any) string {
	for _, name := range p.DescriptionFields {
		if s, ok := fields[name].(string); ok && s != "" {
			return s
		}
	}
	// Map order is not stable in Go, so pick the lexically first non-empty
	// string field to keep re-syncs deterministic.
	best := ""
	bestKey := ""
	for key, v := range fields {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if best == "" || key < bestKey {
			best, bestKey = s, key
		}
	}
	if best != "" {
		return best
	}
	return p.Fallback
}

// Type infers income vs expense: first from keyword matches on a
// type/category field, then from the sign of the amount. Returns "" when
// neither applies; the connector decides the default at the upsert site.
func (p FieldProbe) Type(fields map[string]any) string {
	for _, name := range p.TypeFields {
		s, ok := fields[name].(string)
		if !ok {
			continue
		}
		if t := classifyTypeText(s); t != "" {
			return t
		}
	}
	if amount, ok := p.Amount(fields); ok {
		if amount < 0 {
			return "expense"
		}
		return "income"
	}
	return ""
}

func classifyTypeText(s string) string {
	lower := strings.ToLower(s)
	for _, kw := range incomeKeywords {
		if strings.Contains(lower, kw) {
			return "income"
		}
	}
	for _, kw := range expenseKeywords {
		if strings.Contains(lower, kw) {
			return "expense"
		}
	}
	return ""
}
