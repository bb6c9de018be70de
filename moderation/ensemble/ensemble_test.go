package ensemble

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neil2813/Content-Room/moderation/analysis"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixedCandidate(name string, score float64, flags ...string) Candidate {
	return Candidate{
		Name: name,
		Run: func(ctx context.Context) (*analysis.ProviderResult, error) {
			return &analysis.ProviderResult{
				SafetyScore: score,
				Flags:       flags,
				Provider:    name,
			}, nil
		},
	}
}

func failingCandidate(name string) Candidate {
	return Candidate{
		Name: name,
		Run: func(ctx context.Context) (*analysis.ProviderResult, error) {
			return nil, &analysis.ProviderError{Provider: name, Err: errors.New("vendor 500")}
		},
	}
}

func TestGatherMinScoreUnionFlags(t *testing.T) {
	assert := assert.New(t)
	agg := New(discardLogger(), time.Second)

	res, _ := agg.Gather(context.Background(), []Candidate{
		fixedCandidate("a", 90, "suggestive"),
		fixedCandidate("b", 30, "violence"),
		fixedCandidate("c", 85),
	})
	assert.Equal(30.0, res.SafetyScore)
	assert.ElementsMatch([]string{"suggestive", "violence"}, res.Flags)
	assert.Equal("ensemble(3)", res.Provider)
}

func TestGatherToleratesPartialFailure(t *testing.T) {
	assert := assert.New(t)
	agg := New(discardLogger(), time.Second)

	res, _ := agg.Gather(context.Background(), []Candidate{
		failingCandidate("broken"),
		fixedCandidate("ok", 60, "hate_speech"),
	})
	assert.Equal(60.0, res.SafetyScore)
	assert.Equal([]string{"hate_speech"}, res.Flags)
	assert.Equal("ensemble(1)", res.Provider)
}

func TestGatherToleratesPanic(t *testing.T) {
	assert := assert.New(t)
	agg := New(discardLogger(), time.Second)

	res, _ := agg.Gather(context.Background(), []Candidate{
		{Name: "panicky", Run: func(ctx context.Context) (*analysis.ProviderResult, error) {
			panic("boom")
		}},
		fixedCandidate("ok", 55),
	})
	assert.Equal(55.0, res.SafetyScore)
	assert.Equal("ensemble(1)", res.Provider)
}

func TestGatherNoCandidates(t *testing.T) {
	assert := assert.New(t)
	agg := New(discardLogger(), time.Second)

	res, _ := agg.Gather(context.Background(), nil)
	assert.Equal(0.0, res.SafetyScore)
	assert.Equal([]string{"configuration_error"}, res.Flags)
	assert.Equal("error", res.Provider)
}

func TestGatherAllFailed(t *testing.T) {
	assert := assert.New(t)
	agg := New(discardLogger(), time.Second)

	res, _ := agg.Gather(context.Background(), []Candidate{
		failingCandidate("a"),
		failingCandidate("b"),
	})
	assert.Equal(0.0, res.SafetyScore)
	assert.Equal([]string{"analysis_failed"}, res.Flags)
	assert.Equal("error", res.Provider)
}

func TestGatherTimeout(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	agg := New(discardLogger(), 50*time.Millisecond)

	stall := Candidate{
		Name: "stall",
		Run: func(ctx context.Context) (*analysis.ProviderResult, error) {
			select {
			case <-time.After(5 * time.Second):
				return &analysis.ProviderResult{SafetyScore: 100, Provider: "stall"}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	start := time.Now()
	res, _ := agg.Gather(context.Background(), []Candidate{stall, stall})
	require.NotNil(res)

	assert.Equal(0.0, res.SafetyScore)
	assert.Equal([]string{"timeout"}, res.Flags)
	assert.Equal("timeout", res.Provider)
	// returns within the deadline bound plus modest overhead, not after the
	// providers eventually finish
	assert.Less(time.Since(start), time.Second)
}

func TestGatherTimeoutKeepsPartialResults(t *testing.T) {
	assert := assert.New(t)
	agg := New(discardLogger(), 100*time.Millisecond)

	fast := fixedCandidate("fast", 65, "nsfw")
	slow := Candidate{
		Name: "slow",
		Run: func(ctx context.Context) (*analysis.ProviderResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	res, _ := agg.Gather(context.Background(), []Candidate{fast, slow})
	assert.Equal(65.0, res.SafetyScore)
	assert.Equal("ensemble(1)", res.Provider)
}

func TestGatherReturnsEvidence(t *testing.T) {
	assert := assert.New(t)
	agg := New(discardLogger(), time.Second)

	_, evidence := agg.Gather(context.Background(), []Candidate{
		fixedCandidate("a", 90),
		failingCandidate("broken"),
		fixedCandidate("b", 40, "violence"),
	})
	assert.Len(evidence, 2)
	providers := []string{evidence[0].Provider, evidence[1].Provider}
	assert.ElementsMatch([]string{"a", "b"}, providers)
}

func TestMergeCapsFlaggedHighScore(t *testing.T) {
	assert := assert.New(t)

	res := Merge([]*analysis.ProviderResult{
		{SafetyScore: 95, Flags: []string{"suggestive"}, Provider: "a"},
		{SafetyScore: 92, Provider: "b"},
	})
	assert.Equal(75.0, res.SafetyScore)
	assert.Equal([]string{"suggestive"}, res.Flags)
}

func TestMergeClampsRogueScores(t *testing.T) {
	assert := assert.New(t)

	res := Merge([]*analysis.ProviderResult{
		{SafetyScore: -40, Provider: "buggy"},
		{SafetyScore: 300, Provider: "also-buggy"},
	})
	assert.GreaterOrEqual(res.SafetyScore, 0.0)
	assert.LessOrEqual(res.SafetyScore, 100.0)
}
