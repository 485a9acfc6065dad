package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LocalEngine translates through a self-hosted OpenAI-compatible chat
// completions endpoint. URL, model and system prompt come from the settings
// snapshot on every call.
type LocalEngine struct {
	client   *http.Client
	settings SettingsSource
}

func NewLocalEngine(source SettingsSource) *LocalEngine {
	return &LocalEngine{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		settings: source,
	}
}

func (e *LocalEngine) ID() EngineID {
	return EngineLocal
}

type localChatRequest struct {
	Model       string             `json:"model"`
	Messages    []localChatMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type localChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type localChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type localChatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *LocalEngine) Translate(ctx context.Context, text string) (string, error) {
	if e == nil {
		return "", fmt.Errorf("local engine is nil")
	}

	current := e.settings.Current()
	endpointURL := strings.TrimSpace(current.LocalURL)
	if endpointURL == "" {
		return "", fmt.Errorf("no local endpoint configured")
	}

	body, err := json.Marshal(localChatRequest{
		Model: current.LocalModel,
		Messages: []localChatMessage{
			{Role: "system", Content: current.LocalPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("marshal local request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build local request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send local request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read local response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errPayload localChatErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return "", fmt.Errorf("local endpoint status %d: %s", resp.StatusCode, msg)
			}
		}
		return "", fmt.Errorf("local endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed localChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("local response: %w", ErrBadResponseFormat)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("local response: %w", ErrBadResponseFormat)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
