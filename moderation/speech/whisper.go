package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/util"
)

// WhisperClient talks to a whisper.cpp server or any OpenAI-compatible
// transcription endpoint, requesting verbose output so segment timestamps
// come back with the text.
type WhisperClient struct {
	Client   http.Client
	Host     string
	ApiToken string
	Model    string
}

type whisperResp struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

var _ Transcriber = (*WhisperClient)(nil)

func NewWhisperClient(host, token, model string) *WhisperClient {
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperClient{
		Client:   *util.RobustHTTPClient(),
		Host:     host,
		ApiToken: token,
		Model:    model,
	}
}

func (wc *WhisperClient) Name() string {
	return "whisper"
}

func (wc *WhisperClient) Available() bool {
	return wc.Host != ""
}

func (wc *WhisperClient) Transcribe(ctx context.Context, data []byte, filename string) (*Transcript, error) {
	if wc.Host == "" {
		return nil, analysis.ErrProviderUnavailable
	}
	if filename == "" {
		filename = "audio"
	}

	slog.Debug("sending audio for transcription", "host", wc.Host, "filename", filename, "size", len(data))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.WriteField("model", wc.Model); err != nil {
		return nil, err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", wc.Host+"/v1/audio/transcriptions", body)
	if err != nil {
		return nil, err
	}
	if wc.ApiToken != "" {
		req.Header.Set("Authorization", "Bearer "+wc.ApiToken)
	}
	req.Header.Add("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "content-room/"+versioninfo.Short())

	start := time.Now()
	res, err := wc.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		return nil, fmt.Errorf("transcription request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription resp body: %w", err)
	}
	var respObj whisperResp
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return nil, fmt.Errorf("failed to parse transcription resp JSON: %w", err)
	}

	slog.Debug("transcription complete", "duration", time.Since(start), "segments", len(respObj.Segments), "language", respObj.Language)

	tr := &Transcript{
		Text:     strings.TrimSpace(respObj.Text),
		Language: respObj.Language,
		Provider: wc.Name(),
	}
	for _, seg := range respObj.Segments {
		tr.Segments = append(tr.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return tr, nil
}
