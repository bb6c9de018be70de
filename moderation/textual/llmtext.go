package textual

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/chain"
)

// Generator is the generative-text capability the LLM analyzer is built on.
// Implementations wrap one hosted or local model endpoint.
type Generator interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

const llmTextPromptFormat = `Analyze the following text for content safety.
Rate it on a scale of 0-100 where 100 is completely safe.
List any concerning content categories (hate speech, violence, harassment, etc.).

Text: %s

Respond in this exact format:
SAFETY_SCORE: [number]
FLAGS: [comma-separated list or "none"]
EXPLANATION: [brief explanation]`

// LLMTextAnalyzer moderates text by asking a generative model for a
// constrained assessment. Generators are tried as a fallback chain; if every
// generator fails, the analyzer returns a conservative "assume mostly safe,
// recommend review" verdict instead of an error, since a generative outage
// should degrade the signal rather than the whole batch.
type LLMTextAnalyzer struct {
	Logger     *slog.Logger
	Generators []Generator
}

var _ analysis.TextAnalyzer = (*LLMTextAnalyzer)(nil)

func NewLLMTextAnalyzer(logger *slog.Logger, gens ...Generator) *LLMTextAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMTextAnalyzer{Logger: logger, Generators: gens}
}

func (la *LLMTextAnalyzer) Name() string {
	return "llm_text"
}

func (la *LLMTextAnalyzer) Available() bool {
	for _, g := range la.Generators {
		if g.Available() {
			return true
		}
	}
	return false
}

type generation struct {
	text      string
	generator string
}

func (la *LLMTextAnalyzer) AnalyzeText(ctx context.Context, text string) (*analysis.ProviderResult, error) {
	if !la.Available() {
		return nil, analysis.ErrProviderUnavailable
	}

	prompt := fmt.Sprintf(llmTextPromptFormat, text)
	cands := make([]chain.Candidate[generation], 0, len(la.Generators))
	for _, g := range la.Generators {
		g := g
		cands = append(cands, chain.Candidate[generation]{
			Name:      g.Name(),
			Available: g.Available,
			Run: func(ctx context.Context) (generation, error) {
				start := time.Now()
				out, err := g.Generate(ctx, prompt)
				llmTextAPIDuration.Observe(time.Since(start).Seconds())
				if err != nil {
					llmTextAPICount.WithLabelValues(g.Name(), "error").Inc()
					return generation{}, err
				}
				llmTextAPICount.WithLabelValues(g.Name(), "ok").Inc()
				return generation{text: out, generator: g.Name()}, nil
			},
		})
	}

	gen, err := chain.New(la.Logger, cands...).Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		la.Logger.Warn("all generators failed, returning review fallback", "err", err)
		return &analysis.ProviderResult{
			SafetyScore: 70,
			Flags:       []string{"analysis_unavailable"},
			Confidence:  0.1,
			Provider:    la.Name() + ":fallback",
			Metadata: map[string]any{
				"explanation": "AI analysis unavailable, manual review recommended",
			},
		}, nil
	}

	assessment := analysis.ParseAssessment(gen.text)
	return &analysis.ProviderResult{
		SafetyScore: assessment.SafetyScore,
		Flags:       assessment.Flags,
		Confidence:  0.8,
		Provider:    la.Name() + ":" + gen.generator,
		Metadata: map[string]any{
			"explanation": assessment.Explanation,
		},
	}, nil
}
