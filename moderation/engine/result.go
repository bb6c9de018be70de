package engine

import (
	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/decision"
	"github.com/Neil2813/Content-Room/moderation/prefilter"
	"github.com/Neil2813/Content-Room/moderation/speech"
)

// Result is the full moderation outcome for one payload: the routing
// decision plus everything a reviewer needs to understand it.
type Result struct {
	Decision         decision.Decision         `json:"decision"`
	SafetyScore      float64                   `json:"safety_score"`
	Confidence       float64                   `json:"confidence"`
	Flags            []string                  `json:"flags,omitempty"`
	Explanation      string                    `json:"explanation,omitempty"`
	Provider         string                    `json:"provider"`
	PrefilterRisk    prefilter.Risk            `json:"prefilter_risk,omitempty"`
	ProcessingTimeMS int64                     `json:"processing_time_ms"`
	Cached           bool                      `json:"cached"`
	Evidence         []analysis.ProviderResult `json:"evidence,omitempty"`

	Transcript *TranscriptDetail  `json:"transcript,omitempty"`
	Video      *VideoDetail       `json:"video,omitempty"`
	Parts      map[string]*Result `json:"parts,omitempty"`
}

// TranscriptDetail carries the speech-to-text outcome behind an audio
// decision. FlaggedSegments is only populated when the decision was not
// ALLOW, so reviewers can jump to the offending timestamps.
type TranscriptDetail struct {
	Text            string           `json:"text"`
	Language        string           `json:"language,omitempty"`
	Provider        string           `json:"provider"`
	FlaggedSegments []speech.Segment `json:"flagged_segments,omitempty"`
}

// VideoDetail carries the frame sampling breakdown behind a video decision.
type VideoDetail struct {
	Duration       float64       `json:"duration"`
	TotalFrames    int           `json:"total_frames"`
	FramesAnalyzed int           `json:"frames_analyzed"`
	Frames         []FrameResult `json:"frames,omitempty"`
}

// FrameResult is the per-frame row of a video verdict.
type FrameResult struct {
	Index       int      `json:"index"`
	Timestamp   float64  `json:"timestamp"`
	SafetyScore float64  `json:"safety_score"`
	Flags       []string `json:"flags,omitempty"`
}
