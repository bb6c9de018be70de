package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/decision"
	"github.com/Neil2813/Content-Room/moderation/prefilter"
	"github.com/Neil2813/Content-Room/moderation/resultcache"
	"github.com/Neil2813/Content-Room/moderation/speech"
)

// ScriptedAnalyzer implements both analyzer interfaces with a canned result,
// for wiring engines in tests. Intentionally exported, for use in other
// packages.
type ScriptedAnalyzer struct {
	ProviderName string
	Offline      bool
	Result       *analysis.ProviderResult
	Err          error

	// Scores maps exact payloads (text, or image bytes as string) to scores,
	// overriding Result.SafetyScore when the payload matches.
	Scores map[string]float64

	Calls int
}

var _ analysis.TextAnalyzer = (*ScriptedAnalyzer)(nil)
var _ analysis.ImageAnalyzer = (*ScriptedAnalyzer)(nil)

func (sa *ScriptedAnalyzer) Name() string {
	return sa.ProviderName
}

func (sa *ScriptedAnalyzer) Available() bool {
	return !sa.Offline
}

func (sa *ScriptedAnalyzer) AnalyzeText(ctx context.Context, text string) (*analysis.ProviderResult, error) {
	return sa.analyze(text)
}

func (sa *ScriptedAnalyzer) AnalyzeImage(ctx context.Context, data []byte) (*analysis.ProviderResult, error) {
	return sa.analyze(string(data))
}

func (sa *ScriptedAnalyzer) analyze(payload string) (*analysis.ProviderResult, error) {
	sa.Calls++
	if sa.Err != nil {
		return nil, sa.Err
	}
	out := *sa.Result
	out.Provider = sa.ProviderName
	if score, ok := sa.Scores[payload]; ok {
		out.SafetyScore = score
	}
	return &out, nil
}

// ScriptedTranscriber returns a canned transcript.
type ScriptedTranscriber struct {
	ProviderName string
	Offline      bool
	Transcript   *speech.Transcript
	Err          error
}

var _ speech.Transcriber = (*ScriptedTranscriber)(nil)

func (st *ScriptedTranscriber) Name() string    { return st.ProviderName }
func (st *ScriptedTranscriber) Available() bool { return !st.Offline }

func (st *ScriptedTranscriber) Transcribe(ctx context.Context, data []byte, filename string) (*speech.Transcript, error) {
	if st.Err != nil {
		return nil, st.Err
	}
	out := *st.Transcript
	out.Provider = st.ProviderName
	return &out, nil
}

// EngineTestFixture builds an engine with one safe-leaning scripted provider
// per modality, an in-memory result cache, and default configs.
func EngineTestFixture() Engine {
	return Engine{
		Logger: slog.New(slog.DiscardHandler),
		Text: []analysis.TextAnalyzer{
			&ScriptedAnalyzer{
				ProviderName: "scripted_text",
				Result:       &analysis.ProviderResult{SafetyScore: 95, Confidence: 0.9},
			},
		},
		Image: []analysis.ImageAnalyzer{
			&ScriptedAnalyzer{
				ProviderName: "scripted_image",
				Result:       &analysis.ProviderResult{SafetyScore: 95, Confidence: 0.9},
			},
		},
		Transcribers: []speech.Transcriber{
			&ScriptedTranscriber{
				ProviderName: "scripted_speech",
				Transcript:   &speech.Transcript{Text: "hello there"},
			},
		},
		Cache:     resultcache.NewMemStore[*Result](100),
		Prefilter: prefilter.DefaultConfig(),
		Decision:  decision.DefaultConfig(),
		Timeout:   5 * time.Second,
	}
}
