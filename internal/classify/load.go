package classify

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadBands reads a band table from YAML. The document is a top-level
// "bands" list; list order is match order.
func LoadBands(r io.Reader) (BandTable, error) {
	var wrapper struct {
		Bands BandTable `yaml:"bands"`
	}
	if err := yaml.NewDecoder(r).Decode(&wrapper); err != nil {
		return nil, eris.Wrap(err, "classify: parse bands")
	}
	if err := wrapper.Bands.Validate(); err != nil {
		return nil, err
	}
	return wrapper.Bands, nil
}

// LoadRules reads carrier rules from YAML under a top-level "carriers" list.
func LoadRules(r io.Reader) (RuleSet, error) {
	var wrapper struct {
		Carriers RuleSet `yaml:"carriers"`
	}
	if err := yaml.NewDecoder(r).Decode(&wrapper); err != nil {
		return nil, eris.Wrap(err, "classify: parse carriers")
	}
	if err := wrapper.Carriers.Validate(); err != nil {
		return nil, err
	}
	return wrapper.Carriers, nil
}

// LoadBandsFile is LoadBands on a file path. An empty path returns the
// default table.
func LoadBandsFile(path string) (BandTable, error) {
	if path == "" {
		return DefaultBands(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: open bands %s", path)
	}
	defer f.Close() //nolint:errcheck
	return LoadBands(f)
}

// LoadRulesFile is LoadRules on a file path. An empty path returns the
// default rules.
func LoadRulesFile(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: open carriers %s", path)
	}
	defer f.Close() //nolint:errcheck
	return LoadRules(f)
}

// Validate checks codes are present, unique and ranges are ordered.
func (t BandTable) Validate() error {
	if len(t) == 0 {
		return eris.New("classify: band table is empty")
	}
	seen := make(map[string]bool, len(t))
	for i, b := range t {
		if b.Code == "" {
			return eris.Errorf("classify: band %d has no code", i)
		}
		if b.Code == BandUnknown || b.Code == BandOther {
			return eris.Errorf("classify: band code %q is reserved", b.Code)
		}
		if seen[b.Code] {
			return eris.Errorf("classify: duplicate band code %q", b.Code)
		}
		seen[b.Code] = true
		if b.MinMHz > b.MaxMHz {
			return eris.Errorf("classify: band %q has min %v > max %v", b.Code, b.MinMHz, b.MaxMHz)
		}
	}
	return nil
}

// Validate checks every rule has a key and at least one pattern. Patterns
// must already be uppercase since licensees are uppercased before matching.
func (rs RuleSet) Validate() error {
	for i, r := range rs {
		if r.Key == "" {
			return eris.Errorf("classify: carrier rule %d has no key", i)
		}
		if r.Key == CarrierUnknown {
			return eris.Errorf("classify: carrier key %q is reserved", r.Key)
		}
		if len(r.Patterns) == 0 {
			return eris.Errorf("classify: carrier rule %q has no patterns", r.Key)
		}
		for _, p := range r.Patterns {
			if p == "" || toUpper(p) != p {
				return eris.Errorf("classify: carrier rule %q pattern %q must be non-empty uppercase", r.Key, p)
			}
		}
	}
	return nil
}
