// Package classify maps reference frequencies to band codes and licensee
// names to carrier keys.
package classify

import (
	"fmt"
	"strings"
)

// Band codes that are not entries in a BandTable.
const (
	BandUnknown = "unknown"
	BandOther   = "other"
)

// Band is one entry of the band table. Both bounds are inclusive, in MHz.
type Band struct {
	Code   string  `yaml:"code"`
	Label  string  `yaml:"label"`
	MinMHz float64 `yaml:"min_mhz"`
	MaxMHz float64 `yaml:"max_mhz"`
}

// Contains reports whether mhz lies inside the band.
func (b Band) Contains(mhz float64) bool {
	return b.MinMHz <= mhz && mhz <= b.MaxMHz
}

// ShortLabel renders the band for compact buttons, e.g. "b28 / 700".
func (b Band) ShortLabel() string {
	l := b.Label
	if i := strings.LastIndex(l, "("); i >= 0 && strings.HasSuffix(l, ")") {
		return fmt.Sprintf("%s / %s", b.Code, l[i+1:len(l)-1])
	}
	return b.Code
}

// BandTable is an ordered band list. Ranges may overlap; the first match wins.
type BandTable []Band

// DefaultBands returns the mobile band plan.
func DefaultBands() BandTable {
	return BandTable{
		{Code: "b28", Label: "LTE B28 (700)", MinMHz: 703, MaxMHz: 803},
		{Code: "b5", Label: "LTE B5 (850)", MinMHz: 824, MaxMHz: 894},
		{Code: "b8", Label: "LTE B8 (900)", MinMHz: 880, MaxMHz: 960},
		{Code: "b3", Label: "LTE B3 (1800)", MinMHz: 1710, MaxMHz: 1880},
		{Code: "b1", Label: "LTE/UMTS B1 (2100)", MinMHz: 1920, MaxMHz: 2170},
		{Code: "b40", Label: "LTE B40 (2300)", MinMHz: 2300, MaxMHz: 2400},
		{Code: "b7", Label: "LTE B7 (2600)", MinMHz: 2500, MaxMHz: 2690},
		{Code: "n78", Label: "NR n78 (3500)", MinMHz: 3300, MaxMHz: 3800},
		{Code: "n258", Label: "NR n258 (26GHz)", MinMHz: 24250, MaxMHz: 27500},
	}
}

// Classify returns the band code for a reference frequency: "unknown" when
// the frequency is absent, the first containing band, otherwise "other".
func (t BandTable) Classify(mhz *float64) string {
	if mhz == nil {
		return BandUnknown
	}
	for _, b := range t {
		if b.Contains(*mhz) {
			return b.Code
		}
	}
	return BandOther
}

// Lookup returns the band with the given code.
func (t BandTable) Lookup(code string) (Band, bool) {
	for _, b := range t {
		if b.Code == code {
			return b, true
		}
	}
	return Band{}, false
}

// Label returns the display label for any band code, including the
// synthetic "unknown" and "other" codes.
func (t BandTable) Label(code string) string {
	if b, ok := t.Lookup(code); ok {
		return b.Label
	}
	switch code {
	case BandUnknown:
		return "Unknown"
	case BandOther:
		return "Other"
	}
	return code
}

// Codes returns the band codes in table order.
func (t BandTable) Codes() []string {
	out := make([]string, len(t))
	for i, b := range t {
		out[i] = b.Code
	}
	return out
}
