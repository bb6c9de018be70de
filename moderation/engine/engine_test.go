package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/decision"
	"github.com/Neil2813/Content-Room/moderation/prefilter"
	"github.com/Neil2813/Content-Room/moderation/speech"
	"github.com/Neil2813/Content-Room/moderation/video"
)

type scriptedFrames struct {
	info   video.Info
	frames []video.Frame
	err    error
}

func (sf *scriptedFrames) Name() string    { return "scripted_frames" }
func (sf *scriptedFrames) Available() bool { return true }

func (sf *scriptedFrames) Sample(ctx context.Context, data []byte, filename string) (*video.Info, []video.Frame, error) {
	if sf.err != nil {
		return nil, nil, sf.err
	}
	return &sf.info, sf.frames, nil
}

func TestModerateTextAllow(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()

	res, err := eng.ModerateText(context.Background(), "a perfectly nice sentence")
	assert.NoError(err)
	assert.Equal(decision.Allow, res.Decision)
	assert.Equal(95.0, res.SafetyScore)
	assert.Equal("ensemble(1)", res.Provider)
	assert.Equal(prefilter.RiskLow, res.PrefilterRisk)
	assert.Len(res.Evidence, 1)
	assert.Equal("scripted_text", res.Evidence[0].Provider)
}

func TestModerateTextMinScoreWins(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Text = []analysis.TextAnalyzer{
		&ScriptedAnalyzer{ProviderName: "lenient", Result: &analysis.ProviderResult{SafetyScore: 90, Confidence: 0.9}},
		&ScriptedAnalyzer{ProviderName: "strict", Result: &analysis.ProviderResult{SafetyScore: 45, Flags: []string{"harassment"}, Confidence: 0.7}},
	}

	res, err := eng.ModerateText(context.Background(), "borderline content")
	assert.NoError(err)
	assert.Equal(decision.Flag, res.Decision)
	assert.Equal(45.0, res.SafetyScore)
	assert.Equal([]string{"harassment"}, res.Flags)
	assert.Equal("ensemble(2)", res.Provider)
	assert.Len(res.Evidence, 2)
}

func TestModerateTextCriticalFlagEscalates(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Text = []analysis.TextAnalyzer{
		&ScriptedAnalyzer{ProviderName: "p", Result: &analysis.ProviderResult{SafetyScore: 95, Flags: []string{"terrorism"}, Confidence: 0.9}},
	}

	res, err := eng.ModerateText(context.Background(), "anything")
	assert.NoError(err)
	assert.Equal(decision.Escalate, res.Decision)
}

func TestModerateTextNoProviders(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Text = nil

	res, err := eng.ModerateText(context.Background(), "anything")
	assert.NoError(err)
	assert.Equal(decision.Escalate, res.Decision)
	assert.Equal(0.0, res.SafetyScore)
	assert.Equal([]string{"configuration_error"}, res.Flags)
	assert.Equal("error", res.Provider)
}

func TestModerateTextSkipsOfflineProviders(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	offline := &ScriptedAnalyzer{ProviderName: "offline", Offline: true, Result: &analysis.ProviderResult{SafetyScore: 5}}
	eng.Text = append(eng.Text, offline)

	res, err := eng.ModerateText(context.Background(), "fine text")
	assert.NoError(err)
	assert.Equal(95.0, res.SafetyScore)
	assert.Equal(0, offline.Calls)
}

func TestModerateTextPrefilterRiskAdvisoryOnly(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()

	// denylist tokens raise the advisory risk but the decision follows the
	// providers
	res, err := eng.ModerateText(context.Background(), "kill murder bomb")
	assert.NoError(err)
	assert.Equal(prefilter.RiskHigh, res.PrefilterRisk)
	assert.Equal(decision.Allow, res.Decision)
}

func TestModerateImageCaching(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	provider := eng.Image[0].(*ScriptedAnalyzer)

	payload := []byte("image-bytes")
	first, err := eng.ModerateImage(context.Background(), payload)
	assert.NoError(err)
	assert.False(first.Cached)
	assert.Equal(1, provider.Calls)

	second, err := eng.ModerateImage(context.Background(), payload)
	assert.NoError(err)
	assert.True(second.Cached)
	assert.Equal(first.SafetyScore, second.SafetyScore)
	assert.Equal(first.Decision, second.Decision)
	// no additional provider call
	assert.Equal(1, provider.Calls)

	// different payload misses
	_, err = eng.ModerateImage(context.Background(), []byte("other-bytes"))
	assert.NoError(err)
	assert.Equal(2, provider.Calls)
}

func TestModerateImageWithoutCache(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Cache = nil
	provider := eng.Image[0].(*ScriptedAnalyzer)

	payload := []byte("image-bytes")
	for i := 0; i < 2; i++ {
		res, err := eng.ModerateImage(context.Background(), payload)
		assert.NoError(err)
		assert.False(res.Cached)
	}
	assert.Equal(2, provider.Calls)
}

func TestModerateAudio(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()

	res, err := eng.ModerateAudio(context.Background(), []byte("audio"), "clip.mp3")
	assert.NoError(err)
	assert.Equal(decision.Allow, res.Decision)
	assert.Equal("speech:scripted_speech+text:ensemble(1)", res.Provider)
	assert.NotNil(res.Transcript)
	assert.Equal("hello there", res.Transcript.Text)
	assert.Empty(res.Transcript.FlaggedSegments)
}

func TestModerateAudioFlaggedSegments(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Transcribers = []speech.Transcriber{
		&ScriptedTranscriber{
			ProviderName: "scripted_speech",
			Transcript: &speech.Transcript{
				Text: "hello there and now I will kill you",
				Segments: []speech.Segment{
					{Start: 0, End: 2, Text: "hello there"},
					{Start: 2, End: 4, Text: "and now I will kill you"},
				},
			},
		},
	}
	eng.Text = []analysis.TextAnalyzer{
		&ScriptedAnalyzer{ProviderName: "strict", Result: &analysis.ProviderResult{SafetyScore: 30, Flags: []string{"violence"}, Confidence: 0.9}},
	}

	res, err := eng.ModerateAudio(context.Background(), []byte("audio"), "clip.mp3")
	assert.NoError(err)
	assert.Equal(decision.Escalate, res.Decision)
	assert.Len(res.Transcript.FlaggedSegments, 1)
	assert.Equal(2.0, res.Transcript.FlaggedSegments[0].Start)
}

func TestModerateAudioEmptyTranscript(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Transcribers = []speech.Transcriber{
		&ScriptedTranscriber{ProviderName: "scripted_speech", Transcript: &speech.Transcript{Text: ""}},
	}
	provider := eng.Text[0].(*ScriptedAnalyzer)

	res, err := eng.ModerateAudio(context.Background(), []byte("silence"), "quiet.wav")
	assert.NoError(err)
	assert.Equal(decision.Allow, res.Decision)
	assert.Equal(100.0, res.SafetyScore)
	assert.Equal("no speech detected", res.Explanation)
	assert.Equal(0, provider.Calls)
}

func TestModerateAudioTranscribersExhausted(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Transcribers = []speech.Transcriber{
		&ScriptedTranscriber{ProviderName: "down", Err: fmt.Errorf("backend gone")},
	}

	_, err := eng.ModerateAudio(context.Background(), []byte("audio"), "clip.mp3")
	assert.Error(err)
	var afe *analysis.AllFailedError
	assert.ErrorAs(err, &afe)
}

func TestModerateVideoMinAcrossFrames(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()

	frameScores := []float64{90, 85, 30, 88, 91}
	scores := make(map[string]float64, len(frameScores))
	frames := make([]video.Frame, 0, len(frameScores))
	for i, s := range frameScores {
		payload := fmt.Sprintf("frame-%d", i)
		scores[payload] = s
		frames = append(frames, video.Frame{Index: i * 20, Timestamp: float64(i), Data: []byte(payload)})
	}
	eng.Image = []analysis.ImageAnalyzer{
		&ScriptedAnalyzer{
			ProviderName: "scripted_image",
			Result:       &analysis.ProviderResult{SafetyScore: 95, Confidence: 0.9},
			Scores:       scores,
		},
	}
	eng.Frames = &scriptedFrames{
		info:   video.Info{Duration: 10, TotalFrames: 100},
		frames: frames,
	}

	res, err := eng.ModerateVideo(context.Background(), []byte("video"), "clip.mp4")
	assert.NoError(err)
	assert.Equal(30.0, res.SafetyScore)
	assert.Equal(decision.Escalate, res.Decision)
	assert.NotNil(res.Video)
	assert.Equal(100, res.Video.TotalFrames)
	assert.Equal(5, res.Video.FramesAnalyzed)
	assert.Len(res.Video.Frames, 5)
	assert.Equal(30.0, res.Video.Frames[2].SafetyScore)
	assert.Equal(40, res.Video.Frames[2].Index)
}

func TestModerateVideoDecodeErrorFailsFast(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Frames = &scriptedFrames{err: &analysis.DecodeError{Kind: "video", Err: fmt.Errorf("bad container")}}

	_, err := eng.ModerateVideo(context.Background(), []byte("junk"), "junk.bin")
	assert.Error(err)
	var de *analysis.DecodeError
	assert.ErrorAs(err, &de)
}

func TestModerateVideoNoFrameSource(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Frames = nil

	_, err := eng.ModerateVideo(context.Background(), []byte("video"), "clip.mp4")
	assert.ErrorIs(err, analysis.ErrProviderUnavailable)
}

func TestModerateParts(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()
	eng.Image = []analysis.ImageAnalyzer{
		&ScriptedAnalyzer{ProviderName: "strict_image", Result: &analysis.ProviderResult{SafetyScore: 50, Flags: []string{"suggestive"}, Confidence: 0.8}},
	}

	res, err := eng.ModerateParts(context.Background(), map[string]Part{
		"caption": {Modality: analysis.ModalityText, Text: "nice caption"},
		"photo":   {Modality: analysis.ModalityImage, Data: []byte("photo-bytes")},
	})
	assert.NoError(err)
	assert.Equal(50.0, res.SafetyScore)
	assert.Equal(decision.Flag, res.Decision)
	assert.Equal([]string{"suggestive"}, res.Flags)
	assert.Equal("multimodal(2)", res.Provider)
	assert.Len(res.Parts, 2)
	assert.Equal(decision.Allow, res.Parts["caption"].Decision)
	assert.Equal(decision.Flag, res.Parts["photo"].Decision)
}

func TestModeratePartsEmpty(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()

	_, err := eng.ModerateParts(context.Background(), nil)
	assert.Error(err)
}

func TestModeratePartsUnsupportedModality(t *testing.T) {
	assert := assert.New(t)
	eng := EngineTestFixture()

	_, err := eng.ModerateParts(context.Background(), map[string]Part{
		"weird": {Modality: analysis.Modality("hologram")},
	})
	assert.ErrorContains(err, "unsupported modality")
}
