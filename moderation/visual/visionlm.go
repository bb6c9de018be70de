package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/util"
)

// visionLMPrompt asks the model for the constrained response format that
// analysis.ParseAssessment understands. Free-form model prose is tolerated:
// the parser falls back to a conservative default when the format is broken.
const visionLMPrompt = `Analyze this image for content moderation. Detect violence (including in artistic content such as paintings and sculptures), weapons, death scenes, hate symbols, self-harm, drugs, and nudity or sexual content.

Respond in this exact format:
SAFETY_SCORE: [0-100, where 100 is completely safe]
FLAGS: [comma-separated list of concerns, or "none"]
EXPLANATION: [brief reason]`

// VisionLMClient scores images through a hosted vision-language model behind
// a simple multipart HTTP endpoint. It catches what pixel statistics and
// fixed label taxonomies miss: semantic context like staged violence,
// historical photos, or hate symbolism.
type VisionLMClient struct {
	Client   http.Client
	Host     string
	ApiToken string
	Model    string
}

type VisionLMResp struct {
	Output string `json:"output"`
}

var _ analysis.ImageAnalyzer = (*VisionLMClient)(nil)

func NewVisionLMClient(host, token, model string) *VisionLMClient {
	return &VisionLMClient{
		Client:   *util.RobustHTTPClient(),
		Host:     host,
		ApiToken: token,
		Model:    model,
	}
}

func (vc *VisionLMClient) Name() string {
	return "vision_lm"
}

func (vc *VisionLMClient) Available() bool {
	return vc.Host != ""
}

func (vc *VisionLMClient) AnalyzeImage(ctx context.Context, data []byte) (*analysis.ProviderResult, error) {
	if vc.Host == "" {
		return nil, analysis.ErrProviderUnavailable
	}

	slog.Debug("sending image to vision-LM", "host", vc.Host, "size", len(data))

	// generic HTTP form file upload, then parse the response JSON
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("media", "image")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.WriteField("prompt", visionLMPrompt); err != nil {
		return nil, err
	}
	if vc.Model != "" {
		if err := writer.WriteField("model", vc.Model); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", vc.Host+"/v1/vision/analyze", body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		visionLMAPIDuration.Observe(time.Since(start).Seconds())
	}()

	if vc.ApiToken != "" {
		req.Header.Set("Authorization", "Bearer "+vc.ApiToken)
	}
	req.Header.Add("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "content-room/"+versioninfo.Short())

	req = req.WithContext(ctx)
	res, err := vc.Client.Do(req)
	if err != nil {
		visionLMAPICount.WithLabelValues("error").Inc()
		return nil, &analysis.ProviderError{Provider: vc.Name(), Err: err}
	}
	defer res.Body.Close()

	visionLMAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return nil, &analysis.ProviderError{Provider: vc.Name(), Err: fmt.Errorf("vision-LM request failed statusCode=%d", res.StatusCode)}
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &analysis.ProviderError{Provider: vc.Name(), Err: fmt.Errorf("failed to read vision-LM resp body: %w", err)}
	}

	var respObj VisionLMResp
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return nil, &analysis.ProviderError{Provider: vc.Name(), Err: fmt.Errorf("failed to parse vision-LM resp JSON: %w", err)}
	}

	assessment := analysis.ParseAssessment(respObj.Output)
	return &analysis.ProviderResult{
		SafetyScore: assessment.SafetyScore,
		Flags:       assessment.Flags,
		Confidence:  0.85,
		Provider:    vc.Name(),
		Metadata: map[string]any{
			"explanation": assessment.Explanation,
		},
	}, nil
}
