package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/audit"
	"github.com/Neil2813/Content-Room/moderation/chain"
	"github.com/Neil2813/Content-Room/moderation/decision"
	"github.com/Neil2813/Content-Room/moderation/ensemble"
	"github.com/Neil2813/Content-Room/moderation/prefilter"
	"github.com/Neil2813/Content-Room/moderation/resultcache"
	"github.com/Neil2813/Content-Room/moderation/speech"
	"github.com/Neil2813/Content-Room/moderation/video"
)

// Engine orchestrates the full moderation pipeline for every modality:
// prefilter, provider ensemble, decision, cache, and audit. All fields are
// plumbed in by the daemon at startup; the zero value of the optional ones
// (Cache, Audit, Transcribers, Frames) disables that stage.
type Engine struct {
	Logger *slog.Logger

	Text         []analysis.TextAnalyzer
	Image        []analysis.ImageAnalyzer
	Transcribers []speech.Transcriber
	Frames       video.FrameSource

	Cache     resultcache.Store[*Result]
	Prefilter prefilter.Config
	Decision  decision.Config
	Timeout   time.Duration

	Audit audit.Recorder
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// ModerateText runs the text pipeline: advisory prefilter, concurrent
// ensemble over all registered text providers, then the routing decision.
func (e *Engine) ModerateText(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	risk := e.Prefilter.ScanText(text)

	cands := make([]ensemble.Candidate, 0, len(e.Text))
	for _, ta := range e.Text {
		if !ta.Available() {
			continue
		}
		ta := ta
		cands = append(cands, ensemble.Candidate{
			Name: ta.Name(),
			Run: func(ctx context.Context) (*analysis.ProviderResult, error) {
				return ta.AnalyzeText(ctx, text)
			},
		})
	}

	merged, evidence := ensemble.New(e.logger(), e.Timeout).Gather(ctx, cands)
	res := e.buildResult(merged, evidence, risk, start)
	e.record(ctx, string(analysis.ModalityText), analysis.Fingerprint([]byte(text)), res)
	requestCount.WithLabelValues(string(analysis.ModalityText), string(res.Decision)).Inc()
	requestDuration.WithLabelValues(string(analysis.ModalityText)).Observe(time.Since(start).Seconds())
	return res, nil
}

// ModerateImage runs the image pipeline. The result cache is consulted first
// by content fingerprint: a hit skips prefilter and providers entirely.
func (e *Engine) ModerateImage(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()
	fp := analysis.Fingerprint(data)

	if e.Cache != nil {
		if cached, hit, err := e.Cache.Get(ctx, fp); err != nil {
			e.logger().Warn("result cache get failed", "err", err)
		} else if hit {
			out := *cached
			out.Cached = true
			out.ProcessingTimeMS = time.Since(start).Milliseconds()
			requestCount.WithLabelValues(string(analysis.ModalityImage), string(out.Decision)).Inc()
			cacheHits.Inc()
			return &out, nil
		}
	}

	risk := e.Prefilter.ScanImage(data)

	cands := make([]ensemble.Candidate, 0, len(e.Image))
	for _, ia := range e.Image {
		if !ia.Available() {
			continue
		}
		ia := ia
		cands = append(cands, ensemble.Candidate{
			Name: ia.Name(),
			Run: func(ctx context.Context) (*analysis.ProviderResult, error) {
				return ia.AnalyzeImage(ctx, data)
			},
		})
	}

	merged, evidence := ensemble.New(e.logger(), e.Timeout).Gather(ctx, cands)
	res := e.buildResult(merged, evidence, risk, start)

	if e.Cache != nil {
		if err := e.Cache.Put(ctx, fp, res); err != nil {
			e.logger().Warn("result cache put failed", "err", err)
		}
	}
	e.record(ctx, string(analysis.ModalityImage), fp, res)
	requestCount.WithLabelValues(string(analysis.ModalityImage), string(res.Decision)).Inc()
	requestDuration.WithLabelValues(string(analysis.ModalityImage)).Observe(time.Since(start).Seconds())
	return res, nil
}

// ModerateAudio transcribes the payload (first usable transcriber wins) and
// moderates the transcript through the text pipeline. The verdict carries
// the transcript; when the decision is not ALLOW, segments matching the
// prefilter denylist are singled out with their timestamps.
func (e *Engine) ModerateAudio(ctx context.Context, data []byte, filename string) (*Result, error) {
	start := time.Now()

	cands := make([]chain.Candidate[*speech.Transcript], 0, len(e.Transcribers))
	for _, tr := range e.Transcribers {
		tr := tr
		cands = append(cands, chain.Candidate[*speech.Transcript]{
			Name:      tr.Name(),
			Available: tr.Available,
			Run: func(ctx context.Context) (*speech.Transcript, error) {
				return tr.Transcribe(ctx, data, filename)
			},
		})
	}
	transcript, err := chain.New(e.logger(), cands...).Run(ctx)
	if err != nil {
		return nil, err
	}

	detail := &TranscriptDetail{
		Text:     transcript.Text,
		Language: transcript.Language,
		Provider: transcript.Provider,
	}

	if transcript.Text == "" {
		res := &Result{
			Decision:         decision.Decide(100, nil, e.Decision),
			SafetyScore:      100,
			Confidence:       0.5,
			Explanation:      "no speech detected",
			Provider:         "speech:" + transcript.Provider,
			PrefilterRisk:    prefilter.RiskLow,
			ProcessingTimeMS: time.Since(start).Milliseconds(),
			Transcript:       detail,
		}
		e.record(ctx, string(analysis.ModalityAudio), analysis.Fingerprint(data), res)
		requestCount.WithLabelValues(string(analysis.ModalityAudio), string(res.Decision)).Inc()
		return res, nil
	}

	res, err := e.ModerateText(ctx, transcript.Text)
	if err != nil {
		return nil, err
	}
	if res.Decision != decision.Allow {
		for _, seg := range transcript.Segments {
			if e.Prefilter.ScanText(seg.Text) != prefilter.RiskLow {
				detail.FlaggedSegments = append(detail.FlaggedSegments, seg)
			}
		}
	}
	res.Transcript = detail
	res.Provider = fmt.Sprintf("speech:%s+text:%s", transcript.Provider, res.Provider)
	res.ProcessingTimeMS = time.Since(start).Milliseconds()

	e.record(ctx, string(analysis.ModalityAudio), analysis.Fingerprint(data), res)
	requestDuration.WithLabelValues(string(analysis.ModalityAudio)).Observe(time.Since(start).Seconds())
	return res, nil
}

// ModerateVideo samples up to video.MaxSampledFrames evenly spaced frames
// and runs each through the image pipeline. The clip verdict is the most
// conservative frame verdict: minimum score, union of flags.
func (e *Engine) ModerateVideo(ctx context.Context, data []byte, filename string) (*Result, error) {
	start := time.Now()
	if e.Frames == nil || !e.Frames.Available() {
		return nil, analysis.ErrProviderUnavailable
	}

	info, frames, err := e.Frames.Sample(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	detail := &VideoDetail{
		Duration:       info.Duration,
		TotalFrames:    info.TotalFrames,
		FramesAnalyzed: len(frames),
	}

	minScore := 100.0
	var flags []string
	var worst *Result
	for _, frame := range frames {
		fr, err := e.ModerateImage(ctx, frame.Data)
		if err != nil {
			return nil, err
		}
		detail.Frames = append(detail.Frames, FrameResult{
			Index:       frame.Index,
			Timestamp:   frame.Timestamp,
			SafetyScore: fr.SafetyScore,
			Flags:       fr.Flags,
		})
		flags = append(flags, fr.Flags...)
		if worst == nil || fr.SafetyScore < minScore {
			minScore = fr.SafetyScore
			worst = fr
		}
	}

	if worst == nil {
		return nil, &analysis.DecodeError{Kind: "video", Err: fmt.Errorf("no frames analyzed")}
	}

	flags = analysis.NormalizeFlags(flags)
	res := &Result{
		Decision:         decision.Decide(minScore, flags, e.Decision),
		SafetyScore:      minScore,
		Confidence:       worst.Confidence,
		Flags:            flags,
		Explanation:      worst.Explanation,
		Provider:         worst.Provider,
		PrefilterRisk:    worst.PrefilterRisk,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		Video:            detail,
	}

	e.record(ctx, string(analysis.ModalityVideo), analysis.Fingerprint(data), res)
	requestCount.WithLabelValues(string(analysis.ModalityVideo), string(res.Decision)).Inc()
	requestDuration.WithLabelValues(string(analysis.ModalityVideo)).Observe(time.Since(start).Seconds())
	return res, nil
}

// Part is one component of a multimodal submission.
type Part struct {
	Modality analysis.Modality
	Text     string
	Data     []byte
	Filename string
}

// ModerateParts moderates each part through its modality pipeline and
// reduces to the most conservative combined verdict: minimum score, union of
// flags, decision recomputed over the combination.
func (e *Engine) ModerateParts(ctx context.Context, parts map[string]Part) (*Result, error) {
	start := time.Now()
	if len(parts) == 0 {
		return nil, fmt.Errorf("no parts to moderate")
	}

	combined := &Result{SafetyScore: 100, Parts: make(map[string]*Result, len(parts))}
	var flags []string
	var worst *Result
	for name, part := range parts {
		var res *Result
		var err error
		switch part.Modality {
		case analysis.ModalityText:
			res, err = e.ModerateText(ctx, part.Text)
		case analysis.ModalityImage:
			res, err = e.ModerateImage(ctx, part.Data)
		case analysis.ModalityAudio:
			res, err = e.ModerateAudio(ctx, part.Data, part.Filename)
		case analysis.ModalityVideo:
			res, err = e.ModerateVideo(ctx, part.Data, part.Filename)
		default:
			err = fmt.Errorf("unsupported modality: %s", part.Modality)
		}
		if err != nil {
			return nil, fmt.Errorf("part %q: %w", name, err)
		}
		combined.Parts[name] = res
		flags = append(flags, res.Flags...)
		if worst == nil || res.SafetyScore < combined.SafetyScore {
			combined.SafetyScore = res.SafetyScore
			worst = res
		}
	}

	combined.Flags = analysis.NormalizeFlags(flags)
	combined.Decision = decision.Decide(combined.SafetyScore, combined.Flags, e.Decision)
	combined.Confidence = worst.Confidence
	combined.Provider = fmt.Sprintf("multimodal(%d)", len(parts))
	combined.ProcessingTimeMS = time.Since(start).Milliseconds()
	requestCount.WithLabelValues("multimodal", string(combined.Decision)).Inc()
	requestDuration.WithLabelValues("multimodal").Observe(time.Since(start).Seconds())
	return combined, nil
}

func (e *Engine) buildResult(merged *analysis.ProviderResult, evidence []*analysis.ProviderResult, risk prefilter.Risk, start time.Time) *Result {
	dec := decision.Decide(merged.SafetyScore, merged.Flags, e.Decision)

	explanation := ""
	if merged.Metadata != nil {
		if s, ok := merged.Metadata["explanation"].(string); ok {
			explanation = s
		}
	}

	res := &Result{
		Decision:         dec,
		SafetyScore:      merged.SafetyScore,
		Confidence:       merged.Confidence,
		Flags:            merged.Flags,
		Explanation:      explanation,
		Provider:         merged.Provider,
		PrefilterRisk:    risk,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
	for _, ev := range evidence {
		res.Evidence = append(res.Evidence, *ev)
	}
	return res
}

func (e *Engine) record(ctx context.Context, modality, fingerprint string, res *Result) {
	if e.Audit == nil {
		return
	}
	e.Audit.Record(ctx, &audit.ContentRecord{
		Fingerprint: fingerprint,
		Modality:    modality,
		Decision:    string(res.Decision),
		SafetyScore: res.SafetyScore,
		Flags:       audit.JoinFlags(res.Flags),
		Provider:    res.Provider,
		Cached:      res.Cached,
		ElapsedMS:   res.ProcessingTimeMS,
	})
}
