package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/Neil2813/Content-Room/moderation/analysis"
)

// FFmpegSource shells out to ffprobe/ffmpeg for container probing and frame
// extraction. The payload is staged to a temp file because most containers
// need seekable input.
type FFmpegSource struct {
	FFprobePath string
	FFmpegPath  string
}

var _ FrameSource = (*FFmpegSource)(nil)

func NewFFmpegSource() *FFmpegSource {
	return &FFmpegSource{
		FFprobePath: "ffprobe",
		FFmpegPath:  "ffmpeg",
	}
}

func (fs *FFmpegSource) Name() string {
	return "ffmpeg"
}

// Available checks the binaries are on PATH; it runs nothing.
func (fs *FFmpegSource) Available() bool {
	if _, err := exec.LookPath(fs.FFprobePath); err != nil {
		return false
	}
	_, err := exec.LookPath(fs.FFmpegPath)
	return err == nil
}

type ffprobeOut struct {
	Streams []struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		NbFrames string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (fs *FFmpegSource) Sample(ctx context.Context, data []byte, filename string) (*Info, []Frame, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".mp4"
	}
	tmp, err := os.CreateTemp("", "modvideo-*"+ext)
	if err != nil {
		return nil, nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, nil, err
	}
	tmp.Close()

	info, err := fs.probe(ctx, tmp.Name())
	if err != nil {
		return nil, nil, &analysis.DecodeError{Kind: "video", Err: err}
	}

	indices := SampleIndices(info.TotalFrames, MaxSampledFrames)
	frames := make([]Frame, 0, len(indices))
	for _, idx := range indices {
		ts := 0.0
		if info.TotalFrames > 0 {
			ts = info.Duration * float64(idx) / float64(info.TotalFrames)
		}
		frameBytes, err := fs.extractFrame(ctx, tmp.Name(), ts)
		if err != nil {
			// per-frame extraction failure is tolerated; moderation proceeds
			// on the frames that did decode
			slog.Warn("frame extraction failed", "filename", filename, "timestamp", ts, "err", err)
			continue
		}
		frames = append(frames, Frame{Index: idx, Timestamp: ts, Data: frameBytes})
	}
	if len(frames) == 0 {
		return nil, nil, &analysis.DecodeError{Kind: "video", Err: fmt.Errorf("no frames could be extracted")}
	}
	return info, frames, nil
}

func (fs *FFmpegSource) probe(ctx context.Context, path string) (*Info, error) {
	cmd := exec.CommandContext(ctx, fs.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_frames",
		"-show_entries", "stream=width,height,nb_frames:format=duration",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %v (%s)", err, stderr.String())
	}

	var probed ffprobeOut
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probed.Streams) == 0 {
		return nil, fmt.Errorf("no video stream found")
	}

	info := &Info{
		Width:  probed.Streams[0].Width,
		Height: probed.Streams[0].Height,
	}
	info.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)
	info.TotalFrames, _ = strconv.Atoi(probed.Streams[0].NbFrames)
	if info.TotalFrames <= 0 {
		return nil, fmt.Errorf("could not determine frame count")
	}
	return info, nil
}

func (fs *FFmpegSource) extractFrame(ctx context.Context, path string, ts float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, fs.FFmpegPath,
		"-ss", fmt.Sprintf("%.3f", ts),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "png",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v (%s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame")
	}
	return stdout.Bytes(), nil
}
