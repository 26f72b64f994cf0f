package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CarrierUnknown is the key for licensees no rule matches.
const CarrierUnknown = "unknown"

// Rule assigns Key to any licensee whose uppercased name contains one of
// the patterns.
type Rule struct {
	Key      string   `yaml:"key"`
	Patterns []string `yaml:"patterns"`
}

// RuleSet is an ordered rule list. The first matching rule wins, so
// order resolves licensees that match more than one pattern.
type RuleSet []Rule

// DefaultRules returns the New Zealand operator rules.
func DefaultRules() RuleSet {
	return RuleSet{
		{Key: "2degrees", Patterns: []string{"TWO DEGREES"}},
		{Key: "spark", Patterns: []string{"SPARK"}},
		{Key: "one", Patterns: []string{"ONE NEW ZEALAND", "ONE NZ", "VODAFONE"}},
		{Key: "rcg", Patterns: []string{"RURAL"}},
		{Key: "tuatea", Patterns: []string{"TŪ ĀTEA", "TU ATEA"}},
		{Key: "uber", Patterns: []string{"UBER"}},
	}
}

// toUpper folds with Unicode rules so macronised names match. Casers keep
// state, so each call gets its own.
func toUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Carrier returns the carrier key for a licensee name.
func (rs RuleSet) Carrier(licensee string) string {
	if licensee == "" {
		return CarrierUnknown
	}
	s := toUpper(licensee)
	for _, r := range rs {
		for _, p := range r.Patterns {
			if strings.Contains(s, p) {
				return r.Key
			}
		}
	}
	return CarrierUnknown
}

// Keys returns the rule keys in order.
func (rs RuleSet) Keys() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Key)
	}
	return out
}

// CarrierMeta is the display metadata of a carrier key.
type CarrierMeta struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

var carrierMeta = map[string]CarrierMeta{
	"2degrees":     {Key: "2degrees", Label: "2degrees", Color: "#009ED8"},
	"spark":        {Key: "spark", Label: "Spark", Color: "rgb(64, 14, 125)"},
	"one":          {Key: "one", Label: "One NZ", Color: "#00A45F"},
	"rcg":          {Key: "rcg", Label: "RCG", Color: "#f68b1f"},
	"tuatea":       {Key: "tuatea", Label: "Tu Atea", Color: "#000000"},
	"uber":         {Key: "uber", Label: "Uber", Color: "#ec008c"},
	CarrierUnknown: {Key: CarrierUnknown, Label: "Unknown", Color: "#666666"},
}

// Meta returns display metadata for a carrier key. Unrecognised keys get
// the unknown colour with the key as label.
func Meta(key string) CarrierMeta {
	if m, ok := carrierMeta[key]; ok {
		return m
	}
	m := carrierMeta[CarrierUnknown]
	m.Key = key
	m.Label = key
	return m
}

// Carrier button rows: primary operators first, then the secondary row.
var (
	PrimaryCarriers   = []string{"2degrees", "one", "spark"}
	SecondaryCarriers = []string{"rcg", "tuatea"}
)
