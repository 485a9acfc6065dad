package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultOfficialEndpoint is the authenticated translation API.
const DefaultOfficialEndpoint = "https://translation.googleapis.com/language/translate/v2"

// OfficialEngine calls the metered API with the configured key. It reads the
// key from the settings snapshot per call, so a key added through the
// settings UI is picked up without a restart.
type OfficialEngine struct {
	endpoint string
	client   *http.Client
	settings SettingsSource
}

func NewOfficialEngine(endpoint string, source SettingsSource) *OfficialEngine {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultOfficialEndpoint
	}
	return &OfficialEngine{
		endpoint: trimmed,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		settings: source,
	}
}

func (e *OfficialEngine) ID() EngineID {
	return EngineOfficial
}

type officialRequest struct {
	Q      string `json:"q"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type officialResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

type officialErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *OfficialEngine) Translate(ctx context.Context, text string) (string, error) {
	if e == nil {
		return "", fmt.Errorf("official engine is nil")
	}

	apiKey := strings.TrimSpace(e.settings.Current().GoogleAPIKey)
	if apiKey == "" {
		return "", fmt.Errorf("no api key configured")
	}

	body, err := json.Marshal(officialRequest{
		Q:      text,
		Target: "en",
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("marshal official request: %w", err)
	}

	requestURL := e.endpoint + "?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build official request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send official request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read official response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errPayload officialErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return "", fmt.Errorf("official api: %s", msg)
			}
		}
		return "", fmt.Errorf("official api status %d", resp.StatusCode)
	}

	var parsed officialResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("official response: %w", ErrBadResponseFormat)
	}
	if len(parsed.Data.Translations) == 0 {
		return "", fmt.Errorf("official response: %w", ErrBadResponseFormat)
	}

	return decodeHTMLEntities(parsed.Data.Translations[0].TranslatedText), nil
}

// decodeHTMLEntities unescapes the five entities the API emits in text mode.
// Replacements run sequentially in this fixed order.
func decodeHTMLEntities(s string) string {
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return s
}
