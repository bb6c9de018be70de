// Cheap advisory risk screening that runs before any provider call. The
// result is attached to moderation output as a hint for reviewers but never
// drives the routing decision.
package prefilter

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Neil2813/Content-Room/moderation/keyword"
	"github.com/Neil2813/Content-Room/moderation/visual"
)

type Risk string

const (
	RiskLow     Risk = "LOW"
	RiskMedium  Risk = "MEDIUM"
	RiskHigh    Risk = "HIGH"
	RiskUnknown Risk = "UNKNOWN"
)

// Config holds the denylist and thresholds. All fields are data, not code,
// so deployments can tune them without rebuilding.
type Config struct {
	Denylist []string `yaml:"denylist"`

	// match counts for text risk bands
	MediumMatches int `yaml:"medium_matches"`
	HighMatches   int `yaml:"high_matches"`

	// skin-tone ratio cutoffs for image risk bands
	MediumSkinRatio float64 `yaml:"medium_skin_ratio"`
	HighSkinRatio   float64 `yaml:"high_skin_ratio"`
}

func DefaultConfig() Config {
	return Config{
		Denylist: []string{
			"kill", "murder", "attack", "bomb", "shoot", "stab", "torture",
			"rape", "assault", "massacre", "behead", "lynch",
			"nude", "naked", "porn", "explicit", "xxx",
			"suicide", "selfharm", "overdose",
			"nazi", "genocide", "ethnic_cleansing",
		},
		MediumMatches:   1,
		HighMatches:     3,
		MediumSkinRatio: 0.3,
		HighSkinRatio:   0.5,
	}
}

// LoadConfig reads a yaml config file, filling unset fields from defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	if cfg.MediumMatches <= 0 {
		cfg.MediumMatches = 1
	}
	if cfg.HighMatches <= cfg.MediumMatches {
		cfg.HighMatches = cfg.MediumMatches + 2
	}
	return cfg, nil
}

// ScanText tokenizes the text and counts denylist hits. Zero hits is LOW,
// a handful is MEDIUM, and at or above HighMatches is HIGH.
func (cfg Config) ScanText(text string) Risk {
	toks := keyword.TokenizeText(text)
	hits := 0
	for _, tok := range toks {
		if keyword.TokenInSet(tok, cfg.Denylist) {
			hits++
		}
	}
	switch {
	case hits >= cfg.HighMatches:
		return RiskHigh
	case hits >= cfg.MediumMatches:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ScanImage estimates risk from the skin-tone pixel ratio. A payload that
// does not decode as an image yields UNKNOWN, not an error: the prefilter is
// advisory and the providers get their own chance at the bytes.
func (cfg Config) ScanImage(data []byte) Risk {
	st, _, err := visual.DecodeStats(data)
	if err != nil {
		return RiskUnknown
	}
	switch {
	case st.Skin > cfg.HighSkinRatio:
		return RiskHigh
	case st.Skin > cfg.MediumSkinRatio:
		return RiskMedium
	default:
		return RiskLow
	}
}
