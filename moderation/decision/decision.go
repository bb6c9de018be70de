// Decision layer for the moderation pipeline: a pure mapping from an
// aggregated safety score and flag set to a terminal decision. Keeping this a
// side-effect-free function makes the threshold policy trivially testable and
// keeps threshold constants out of pipeline call sites.
package decision

import "strings"

type Decision string

const (
	Allow    Decision = "ALLOW"
	Flag     Decision = "FLAG"
	Escalate Decision = "ESCALATE"
)

// Config holds the threshold bands and the critical flag set. Critical flags
// force ESCALATE regardless of score; everything else is band lookup.
type Config struct {
	AllowThreshold float64  `yaml:"allow_threshold"`
	FlagThreshold  float64  `yaml:"flag_threshold"`
	CriticalFlags  []string `yaml:"critical_flags"`
}

func DefaultConfig() Config {
	return Config{
		AllowThreshold: 70,
		FlagThreshold:  40,
		CriticalFlags: []string{
			"child_abuse",
			"child_exploitation",
			"csam",
			"sexual_minors",
			"terrorism",
			"self_harm",
		},
	}
}

// Decide maps (score, flags) to a decision. Matching against the critical set
// is case-insensitive substring match, so vendor-prefixed variants like
// "hive:terrorism_glorification" still trip the override.
func Decide(score float64, flags []string, cfg Config) Decision {
	for _, f := range flags {
		lf := strings.ToLower(f)
		for _, crit := range cfg.CriticalFlags {
			if strings.Contains(lf, crit) {
				return Escalate
			}
		}
	}

	switch {
	case score >= cfg.AllowThreshold:
		return Allow
	case score >= cfg.FlagThreshold:
		return Flag
	default:
		return Escalate
	}
}
