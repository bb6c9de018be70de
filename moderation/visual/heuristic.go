package visual

import (
	"context"

	"github.com/Neil2813/Content-Room/moderation/analysis"
)

// ColorHeuristic is the last-resort image provider: pure pixel statistics,
// no model, no network. It is deliberately biased toward safe verdicts on
// nature and flower imagery, where naive skin/red detectors produce the
// worst false positives.
type ColorHeuristic struct{}

var _ analysis.ImageAnalyzer = (*ColorHeuristic)(nil)

func (ColorHeuristic) Name() string {
	return "color_heuristic"
}

func (ColorHeuristic) Available() bool {
	return true
}

func (h ColorHeuristic) AnalyzeImage(ctx context.Context, data []byte) (*analysis.ProviderResult, error) {
	st, format, err := DecodeStats(data)
	if err != nil {
		heuristicScanCount.WithLabelValues("decode_error").Inc()
		return nil, &analysis.DecodeError{Kind: "image", Err: err}
	}
	heuristicScanCount.WithLabelValues("ok").Inc()

	// even a small amount of green strongly suggests nature; flowers carry
	// stems, leaves, or nature backgrounds
	isNature := st.Green > 0.05
	isFlowerLike := (st.Red > 0.1 || st.Pink > 0.1) && st.Green > 0.02
	isBrightColorful := st.Bright > 0.3 && (st.Red+st.Pink+st.Green) > 0.2
	isLikelySafe := isNature || isFlowerLike || isBrightColorful

	// only flag violence on the worst combination: dark and red with no
	// nature context at all
	isPotentiallyViolent := st.Dark > 0.5 &&
		st.Red > 0.15 &&
		st.Green < 0.02 &&
		!isBrightColorful

	risk := 0.0
	var flags []string
	if isPotentiallyViolent {
		risk += 40
		flags = append(flags, "violence")
	}
	if st.Skin > 0.6 && !isNature {
		risk += 30
		flags = append(flags, "suggestive")
	}
	if isLikelySafe && risk > 0 {
		risk -= 30
		if risk < 0 {
			risk = 0
		}
	}

	return &analysis.ProviderResult{
		SafetyScore: analysis.ClampScore(100 - risk),
		Flags:       flags,
		Confidence:  0.5,
		Provider:    h.Name(),
		Metadata: map[string]any{
			"format":       format,
			"skin_ratio":   st.Skin,
			"red_ratio":    st.Red,
			"green_ratio":  st.Green,
			"pink_ratio":   st.Pink,
			"dark_ratio":   st.Dark,
			"bright_ratio": st.Bright,
			"is_nature":    isNature,
			"is_flower":    isFlowerLike,
			"likely_safe":  isLikelySafe,
		},
	}, nil
}
