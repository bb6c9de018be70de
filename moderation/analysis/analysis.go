package analysis

import (
	"context"
	"math"
	"strings"
)

// Content modality being analyzed.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
	ModalityVideo Modality = "video"
)

// ProviderResult is the normalized output of a single analyzer. Every adapter
// translates its vendor-specific response shape into this struct at the
// boundary; heterogeneous shapes must not leak past the adapter layer.
//
// SafetyScore is on a 0-100 scale where higher is safer. Adapters holding a
// vendor risk probability p must report InvertRisk(p), never the raw value.
type ProviderResult struct {
	SafetyScore float64        `json:"safety_score"`
	Flags       []string       `json:"flags,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	Provider    string         `json:"provider"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// TextAnalyzer is the capability contract for text moderation backends.
//
// Available reports whether required configuration, credentials, or model
// artifacts are present. It must not perform network I/O; adapters that load
// local models do so lazily on first AnalyzeText call.
type TextAnalyzer interface {
	Name() string
	Available() bool
	AnalyzeText(ctx context.Context, text string) (*ProviderResult, error)
}

// ImageAnalyzer is the capability contract for image moderation backends.
type ImageAnalyzer interface {
	Name() string
	Available() bool
	AnalyzeImage(ctx context.Context, data []byte) (*ProviderResult, error)
}

// ClampScore forces a safety score into [0, 100]. NaN maps to zero, which is
// the conservative end of the scale.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// InvertRisk maps a vendor risk probability in [0, 1] to the safety scale.
func InvertRisk(p float64) float64 {
	return ClampScore((1.0 - p) * 100.0)
}

// NormalizeFlags lower-cases, trims, and de-duplicates flags, preserving
// first-seen order. Empty entries are dropped.
func NormalizeFlags(flags []string) []string {
	if len(flags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(flags))
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
