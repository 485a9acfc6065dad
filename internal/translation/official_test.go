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

type stubSettings struct {
	current settings.Settings
}

func (s *stubSettings) Current() settings.Settings {
	return s.current
}

func TestOfficialTranslateDecodesEntities(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("unexpected api key: %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body["target"] != "en" || body["format"] != "text" {
			t.Errorf("unexpected request body: %v", body)
		}
		_, _ = w.Write([]byte(`{"data":{"translations":[{"translatedText":"5 &lt;tags&gt; &amp; &quot;quotes&quot;"}]}}`))
	}))
	defer server.Close()

	source := &stubSettings{current: settings.Settings{GoogleAPIKey: "test-key"}}
	engine := NewOfficialEngine(server.URL, source)

	got, err := engine.Translate(context.Background(), "irrelevant")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if want := `5 <tags> & "quotes"`; got != want {
		t.Fatalf("unexpected translation: %q, want %q", got, want)
	}
}

func TestOfficialTranslateWithoutKey(t *testing.T) {
	t.Parallel()

	engine := NewOfficialEngine("http://unused.invalid", &stubSettings{})
	if _, err := engine.Translate(context.Background(), "text"); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestOfficialTranslateUsesErrorMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key expired"}}`))
	}))
	defer server.Close()

	source := &stubSettings{current: settings.Settings{GoogleAPIKey: "k"}}
	engine := NewOfficialEngine(server.URL, source)

	_, err := engine.Translate(context.Background(), "text")
	if err == nil || err.Error() != "official api: API key expired" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOfficialTranslateEmptyTranslations(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"translations":[]}}`))
	}))
	defer server.Close()

	source := &stubSettings{current: settings.Settings{GoogleAPIKey: "k"}}
	engine := NewOfficialEngine(server.URL, source)

	_, err := engine.Translate(context.Background(), "text")
	if !errors.Is(err, ErrBadResponseFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestDecodeHTMLEntities(t *testing.T) {
	t.Parallel()

	if got := decodeHTMLEntities("it&#39;s &amp;&amp; done"); got != "it's && done" {
		t.Fatalf("unexpected decode result: %q", got)
	}
}
