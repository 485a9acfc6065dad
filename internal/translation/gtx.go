package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGTXEndpoint is the unauthenticated public translate endpoint.
const DefaultGTXEndpoint = "https://translate.googleapis.com/translate_a/single"

// GTXEngine calls the free-tier endpoint: a GET with the source text URL
// encoded, source language auto-detected, target fixed to English.
type GTXEngine struct {
	endpoint string
	client   *http.Client
}

func NewGTXEngine(endpoint string) *GTXEngine {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultGTXEndpoint
	}
	return &GTXEngine{
		endpoint: trimmed,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *GTXEngine) ID() EngineID {
	return EngineGTX
}

func (e *GTXEngine) Translate(ctx context.Context, text string) (string, error) {
	if e == nil {
		return "", fmt.Errorf("gtx engine is nil")
	}

	requestURL := e.endpoint + "?client=gtx&sl=auto&tl=en&dt=t&q=" + url.QueryEscape(text)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("build gtx request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send gtx request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gtx response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gtx endpoint status %d", resp.StatusCode)
	}

	translated, err := parseGTXPayload(body)
	if err != nil {
		return "", fmt.Errorf("gtx response: %w", err)
	}
	return translated, nil
}

// parseGTXPayload digs the translation out of the endpoint's nested-array
// shape: the result is the concatenation, in order, of the first element of
// each entry in the first array. Anything else is a format error.
func parseGTXPayload(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		return "", ErrBadResponseFormat
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(payload[0], &entries); err != nil {
		return "", ErrBadResponseFormat
	}

	var builder strings.Builder
	for _, entry := range entries {
		var parts []json.RawMessage
		if err := json.Unmarshal(entry, &parts); err != nil || len(parts) == 0 {
			return "", ErrBadResponseFormat
		}
		var segment string
		if err := json.Unmarshal(parts[0], &segment); err != nil {
			return "", ErrBadResponseFormat
		}
		builder.WriteString(segment)
	}

	return builder.String(), nil
}
