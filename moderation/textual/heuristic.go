package textual

import (
	"context"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/keyword"
)

// KeywordHeuristic is the last-resort text provider: denylist token matching
// with severity stepped by match count. Works offline, costs nothing, and is
// intentionally blunt.
type KeywordHeuristic struct {
	Denylist []string
}

var _ analysis.TextAnalyzer = (*KeywordHeuristic)(nil)

func (kh *KeywordHeuristic) Name() string {
	return "keyword_heuristic"
}

func (kh *KeywordHeuristic) Available() bool {
	return len(kh.Denylist) > 0
}

func (kh *KeywordHeuristic) AnalyzeText(ctx context.Context, text string) (*analysis.ProviderResult, error) {
	if len(kh.Denylist) == 0 {
		return nil, analysis.ErrProviderUnavailable
	}

	hits := 0
	var matched []string
	for _, tok := range keyword.TokenizeText(text) {
		if keyword.TokenInSet(tok, kh.Denylist) {
			hits++
			matched = append(matched, tok)
		}
	}

	// severity stepped by match count: clean 100, one hit 60, a couple 40,
	// saturated 10
	score := 100.0
	var flags []string
	switch {
	case hits >= 3:
		score = 10
		flags = []string{"unsafe_content"}
	case hits == 2:
		score = 40
		flags = []string{"unsafe_content"}
	case hits == 1:
		score = 60
		flags = []string{"unsafe_content"}
	}

	return &analysis.ProviderResult{
		SafetyScore: score,
		Flags:       flags,
		Confidence:  0.4,
		Provider:    kh.Name(),
		Metadata: map[string]any{
			"matched_tokens": matched,
		},
	}, nil
}
