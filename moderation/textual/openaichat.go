package textual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/carlmjohnson/versioninfo"

	"github.com/Neil2813/Content-Room/util"
)

// ChatGenerator speaks the OpenAI-compatible chat completions protocol,
// which also covers Grok, Ollama, and most hosted inference gateways. One
// instance per configured endpoint; several can be stacked in an
// LLMTextAnalyzer to form the fallback chain.
type ChatGenerator struct {
	Client   http.Client
	Host     string
	ApiToken string
	Model    string
	Label    string
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewChatGenerator(label, host, token, model string) *ChatGenerator {
	return &ChatGenerator{
		Client:   *util.RobustHTTPClient(),
		Host:     host,
		ApiToken: token,
		Model:    model,
		Label:    label,
	}
}

func (cg *ChatGenerator) Name() string {
	if cg.Label != "" {
		return cg.Label
	}
	return "chat:" + cg.Model
}

func (cg *ChatGenerator) Available() bool {
	return cg.Host != "" && cg.Model != ""
}

func (cg *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: cg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cg.Host+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "content-room/"+versioninfo.Short())
	if cg.ApiToken != "" {
		req.Header.Set("Authorization", "Bearer "+cg.ApiToken)
	}

	res, err := cg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		return "", fmt.Errorf("chat completion request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat completion resp body: %w", err)
	}
	var respObj chatResponse
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return "", fmt.Errorf("failed to parse chat completion resp JSON: %w", err)
	}
	if len(respObj.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return respObj.Choices[0].Message.Content, nil
}
