package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAssessment(t *testing.T) {
	assert := assert.New(t)

	a := ParseAssessment("SAFETY_SCORE: 85\nFLAGS: Violence, hate_speech\nEXPLANATION: contains threats")
	assert.Equal(85.0, a.SafetyScore)
	assert.Equal([]string{"violence", "hate_speech"}, a.Flags)
	assert.Equal("contains threats", a.Explanation)

	// "none" flags and percent suffix
	a = ParseAssessment("safety_score: 92%\nflags: none")
	assert.Equal(92.0, a.SafetyScore)
	assert.Empty(a.Flags)

	// scores outside range clamp
	a = ParseAssessment("SAFETY_SCORE: 9000")
	assert.Equal(100.0, a.SafetyScore)
}

func TestParseAssessmentMalformed(t *testing.T) {
	assert := assert.New(t)

	for _, raw := range []string{
		"",
		"I think this content is fine, probably.",
		"SAFETY_SCORE: not-a-number",
	} {
		a := ParseAssessment(raw)
		assert.Equal(75.0, a.SafetyScore, "input: %q", raw)
		assert.Contains(a.Flags, "analysis_unavailable", "input: %q", raw)
	}
}

func TestParseAssessmentPartial(t *testing.T) {
	assert := assert.New(t)

	// flags without a score: keep the flags, add the degraded marker
	a := ParseAssessment("FLAGS: nsfw")
	assert.Equal(75.0, a.SafetyScore)
	assert.Contains(a.Flags, "nsfw")
	assert.Contains(a.Flags, "analysis_unavailable")
}
