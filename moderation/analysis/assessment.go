package analysis

import (
	"strconv"
	"strings"
)

// Assessment is the parsed form of a constrained generative-model moderation
// response. Generative backends are prompted to answer in a fixed line
// format:
//
//	SAFETY_SCORE: 85
//	FLAGS: violence, hate_speech
//	EXPLANATION: short reason
//
// ParseAssessment is deliberately strict: a malformed or partial response
// degrades to a neutral score with an "analysis_unavailable" flag rather than
// crashing or silently skewing the pipeline.
type Assessment struct {
	SafetyScore float64
	Flags       []string
	Explanation string
}

// Neutral score used when a generative response could not be parsed. Matches
// the conservative middle of the ALLOW band so unparseable output never
// auto-escalates but still reads as degraded confidence.
const assessmentDefaultScore = 75.0

func ParseAssessment(raw string) Assessment {
	out := Assessment{SafetyScore: assessmentDefaultScore}
	scoreParsed := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case matchField(line, "SAFETY_SCORE:"):
			val := fieldValue(line)
			val = strings.TrimSuffix(val, "%")
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				out.SafetyScore = ClampScore(f)
				scoreParsed = true
			}
		case matchField(line, "FLAGS:"):
			val := fieldValue(line)
			if strings.EqualFold(val, "none") || val == "" {
				continue
			}
			for _, f := range strings.Split(val, ",") {
				if f = strings.TrimSpace(f); f != "" {
					out.Flags = append(out.Flags, f)
				}
			}
		case matchField(line, "EXPLANATION:"):
			out.Explanation = fieldValue(line)
		}
	}

	out.Flags = NormalizeFlags(out.Flags)
	if !scoreParsed {
		out.SafetyScore = assessmentDefaultScore
		out.Flags = NormalizeFlags(append(out.Flags, "analysis_unavailable"))
	}
	return out
}

func matchField(line, prefix string) bool {
	if len(line) < len(prefix) {
		return false
	}
	return strings.EqualFold(line[:len(prefix)], prefix)
}

func fieldValue(line string) string {
	_, val, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(val)
}
