// Speech-to-text boundary for audio moderation. Audio is never scored
// directly: it is transcribed here and the transcript goes through the text
// pipeline.
package speech

import "context"

// Segment is one time-aligned span of the transcript, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Language string    `json:"language,omitempty"`
	Provider string    `json:"provider"`
}

type Transcriber interface {
	Name() string
	Available() bool
	Transcribe(ctx context.Context, data []byte, filename string) (*Transcript, error)
}
