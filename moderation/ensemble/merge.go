package ensemble

import (
	"math"

	"github.com/Neil2813/Content-Room/moderation/analysis"
)

// When providers disagree, flagged content reporting a near-perfect score is
// implausible; the aggregate is capped so flagged content never reads as
// fully safe.
const (
	flaggedScoreCeiling = 80.0
	flaggedScoreCap     = 75.0
)

// Merge combines valid provider results conservatively: minimum safety score
// wins, flags are unioned across all results (not just the winner's), and a
// high score is capped when any flag is present. Merge is commutative, so
// completion order never affects the outcome. Results with an invalid score
// are discarded; callers should not pass nil entries.
//
// The returned result's Provider is left as the winning provider's name;
// Gather overwrites it with an ensemble(N) attribution.
func Merge(results []*analysis.ProviderResult) *analysis.ProviderResult {
	var (
		winner   *analysis.ProviderResult
		allFlags []string
	)
	for _, r := range results {
		if r == nil || math.IsNaN(r.SafetyScore) {
			continue
		}
		allFlags = append(allFlags, r.Flags...)
		if winner == nil || analysis.ClampScore(r.SafetyScore) < analysis.ClampScore(winner.SafetyScore) {
			winner = r
		}
	}
	if winner == nil {
		return &analysis.ProviderResult{
			SafetyScore: 0,
			Flags:       []string{"analysis_failed"},
			Provider:    "error",
		}
	}

	merged := &analysis.ProviderResult{
		SafetyScore: analysis.ClampScore(winner.SafetyScore),
		Flags:       analysis.NormalizeFlags(allFlags),
		Confidence:  winner.Confidence,
		Provider:    winner.Provider,
		Metadata:    winner.Metadata,
	}
	if len(merged.Flags) > 0 && merged.SafetyScore > flaggedScoreCeiling {
		merged.SafetyScore = flaggedScoreCap
	}
	return merged
}
