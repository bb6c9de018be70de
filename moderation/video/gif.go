package video

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/gif"
	"image/png"

	"github.com/Neil2813/Content-Room/moderation/analysis"
)

// GIFSource samples animated GIFs with the standard library, no external
// binaries needed. Useful on its own for GIF-heavy upload traffic, and as a
// pure-Go FrameSource in tests.
type GIFSource struct{}

var _ FrameSource = (*GIFSource)(nil)

func (GIFSource) Name() string {
	return "gif"
}

func (GIFSource) Available() bool {
	return true
}

func (GIFSource) Sample(ctx context.Context, data []byte, filename string) (*Info, []Frame, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &analysis.DecodeError{Kind: "video", Err: err}
	}

	// frame delays are in centiseconds
	duration := 0.0
	for _, d := range g.Delay {
		duration += float64(d) / 100
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() && len(g.Image) > 0 {
		bounds = g.Image[0].Bounds()
	}
	info := &Info{
		Duration:    duration,
		TotalFrames: len(g.Image),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}

	// GIF frames are deltas over the previous canvas, so the canvas is
	// accumulated up to each sampled index
	indices := SampleIndices(len(g.Image), MaxSampledFrames)
	picked := make(map[int]bool, len(indices))
	for _, idx := range indices {
		picked[idx] = true
	}

	canvas := image.NewRGBA(bounds)
	elapsed := 0.0
	var frames []Frame
	for i, paletted := range g.Image {
		draw.Draw(canvas, paletted.Bounds(), paletted, paletted.Bounds().Min, draw.Over)
		if picked[i] {
			var buf bytes.Buffer
			if err := png.Encode(&buf, canvas); err != nil {
				return nil, nil, err
			}
			frames = append(frames, Frame{Index: i, Timestamp: elapsed, Data: buf.Bytes()})
		}
		if i < len(g.Delay) {
			elapsed += float64(g.Delay[i]) / 100
		}
	}
	return info, frames, nil
}
