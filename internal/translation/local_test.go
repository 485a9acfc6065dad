package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"horse.fit/lingo/internal/settings"
)

func TestLocalTranslateTrimsContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body localChatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body.Model != "test-model" {
			t.Errorf("unexpected model: %q", body.Model)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}
		if body.Temperature != 0.3 {
			t.Errorf("unexpected temperature: %v", body.Temperature)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Hello there \n"}}]}`))
	}))
	defer server.Close()

	source := &stubSettings{current: settings.Settings{
		LocalURL:    server.URL,
		LocalModel:  "test-model",
		LocalPrompt: "translate to English",
	}}
	engine := NewLocalEngine(source)

	got, err := engine.Translate(context.Background(), "hola")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Hello there" {
		t.Fatalf("unexpected translation: %q", got)
	}
}

func TestLocalTranslateMissingChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	source := &stubSettings{current: settings.Settings{LocalURL: server.URL}}
	engine := NewLocalEngine(source)

	_, err := engine.Translate(context.Background(), "hola")
	if !errors.Is(err, ErrBadResponseFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestLocalTranslateWithoutEndpoint(t *testing.T) {
	t.Parallel()

	engine := NewLocalEngine(&stubSettings{})
	if _, err := engine.Translate(context.Background(), "hola"); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
