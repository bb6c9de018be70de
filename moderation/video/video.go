// Frame extraction for video moderation. Videos are never scored as streams:
// a handful of evenly spaced frames is pulled here and each goes through the
// image pipeline.
package video

import "context"

// MaxSampledFrames is the ceiling on frames extracted per video; analysis
// cost is bounded regardless of clip length.
const MaxSampledFrames = 5

// Frame is one extracted still, encoded as an image payload (PNG or JPEG),
// with its position in the source.
type Frame struct {
	Index     int     `json:"index"`
	Timestamp float64 `json:"timestamp"`
	Data      []byte  `json:"-"`
}

// Info describes the probed container.
type Info struct {
	Duration    float64 `json:"duration"`
	TotalFrames int     `json:"total_frames"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
}

// FrameSource opens a video payload and returns container info plus sampled
// frames. Implementations must fail with analysis.DecodeError when the
// payload is not a readable container.
type FrameSource interface {
	Name() string
	Available() bool
	Sample(ctx context.Context, data []byte, filename string) (*Info, []Frame, error)
}

// SampleIndices picks up to max evenly spaced frame indices out of total.
// When the clip has no more frames than max, every frame is selected.
func SampleIndices(total, max int) []int {
	if total <= 0 || max <= 0 {
		return nil
	}
	if total <= max {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	step := total / max
	out := make([]int, 0, max)
	for i := 0; i < total && len(out) < max; i += step {
		out = append(out, i)
	}
	return out
}
