package translation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/lingo/internal/db"
	"horse.fit/lingo/internal/quota"
	"horse.fit/lingo/internal/ratelimit"
	"horse.fit/lingo/internal/settings"
)

type fakeEngine struct {
	id    EngineID
	calls []string
	fn    func(text string) (string, error)
}

func (f *fakeEngine) ID() EngineID {
	return f.id
}

func (f *fakeEngine) Translate(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	if f.fn != nil {
		return f.fn(text)
	}
	return string(f.id) + ":" + text, nil
}

type memoryCache struct {
	rows    map[string]db.Translation
	upserts int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{rows: make(map[string]db.Translation)}
}

func (c *memoryCache) LookupTranslation(_ context.Context, textHash []byte) (*db.Translation, error) {
	row, ok := c.rows[string(textHash)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (c *memoryCache) UpsertTranslation(_ context.Context, row db.Translation) error {
	c.rows[string(row.TextHash)] = row
	c.upserts++
	return nil
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	repo       *memoryQuotaRepo
	window     *ratelimit.HourlyWindow
	cache      *memoryCache
}

func newDispatcherFixture(t *testing.T, current settings.Settings, engines ...Engine) *dispatcherFixture {
	t.Helper()

	registry := NewRegistry()
	for _, engine := range engines {
		if err := registry.Register(engine); err != nil {
			t.Fatalf("register engine: %v", err)
		}
	}

	repo := &memoryQuotaRepo{}
	stampToday(repo)
	store := quota.NewStore(repo)
	source := &stubSettings{current: current}
	window := ratelimit.NewHourlyWindow(ratelimit.HourlyRequestLimit)
	cache := newMemoryCache()

	dispatcher := NewDispatcher(DispatcherDeps{
		Logger:   zerolog.Nop(),
		Registry: registry,
		Quota:    store,
		Settings: source,
		Checker:  NewChecker(store, source, window),
		Pacer:    ratelimit.NewPacer(settings.MaxRPM),
		Window:   window,
		Cache:    cache,
	})

	return &dispatcherFixture{
		dispatcher: dispatcher,
		repo:       repo,
		window:     window,
		cache:      cache,
	}
}

func TestDispatcherResolvesInSubmissionOrder(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	current.Priority1 = "local"
	current.Priority2 = ""
	current.Priority3 = ""

	engine := &fakeEngine{id: EngineLocal}
	fixture := newDispatcherFixture(t, current, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	texts := make([]string, 0, 5)
	channels := make([]<-chan Result, 0, 5)
	for i := range 5 {
		text := fmt.Sprintf("mensaje %d", i)
		texts = append(texts, text)
		done, err := fixture.dispatcher.Submit(ctx, text)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		channels = append(channels, done)
	}

	go fixture.dispatcher.Run(ctx)

	for i, done := range channels {
		res := <-done
		if res.Err != nil {
			t.Fatalf("request %d failed: %v", i, res.Err)
		}
		if want := "local:" + texts[i]; res.Translation != want {
			t.Fatalf("request %d resolved out of order: got %q want %q", i, res.Translation, want)
		}
	}

	for i, got := range engine.calls {
		if got != texts[i] {
			t.Fatalf("engine processed out of order: position %d got %q want %q", i, got, texts[i])
		}
	}
}

func TestDispatcherFallsBackInPriorityOrder(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	// Official first (no key, skipped), then local (fails), then gtx.
	current.Priority1 = "official"
	current.Priority2 = "local"
	current.Priority3 = "gtx"
	current.GoogleAPIKey = ""

	official := &fakeEngine{id: EngineOfficial}
	local := &fakeEngine{id: EngineLocal, fn: func(string) (string, error) {
		return "", errors.New("connection refused")
	}}
	gtx := &fakeEngine{id: EngineGTX}
	fixture := newDispatcherFixture(t, current, official, local, gtx)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fixture.dispatcher.Run(ctx)

	res, err := fixture.dispatcher.Translate(ctx, "hola")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if res.Translation != "gtx:hola" || res.Engine != EngineGTX {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(official.calls) != 0 {
		t.Fatalf("did not expect official engine to be called")
	}
	if len(local.calls) != 1 || len(gtx.calls) != 1 {
		t.Fatalf("unexpected call counts: local=%d gtx=%d", len(local.calls), len(gtx.calls))
	}
}

func TestDispatcherReportsLastReasonWhenAllFail(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	current.Priority1 = "official"
	current.Priority2 = "local"
	current.Priority3 = "gtx"
	current.GoogleAPIKey = ""
	current.LocalURL = ""

	gtx := &fakeEngine{id: EngineGTX, fn: func(string) (string, error) {
		return "", errors.New("gtx endpoint status 429")
	}}
	fixture := newDispatcherFixture(t, current, gtx)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fixture.dispatcher.Run(ctx)

	_, err := fixture.dispatcher.Translate(ctx, "hola")
	if err == nil {
		t.Fatalf("expected failure when all engines fail")
	}
	// The last tried engine's failure is what the caller sees.
	if err.Error() != "gtx endpoint status 429" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatcherAllUnavailableUsesLastReason(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	current.Priority1 = "official"
	current.Priority2 = "local"
	current.Priority3 = "gtx"
	current.GoogleAPIKey = ""
	current.LocalURL = ""
	current.GtxDailyLimit = 10

	fixture := newDispatcherFixture(t, current, &fakeEngine{id: EngineGTX})
	fixture.repo.gtx.DailyUsage = 10

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fixture.dispatcher.Run(ctx)

	_, err := fixture.dispatcher.Translate(ctx, "hola")
	if err == nil || err.Error() != "daily gtx limit reached" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatcherGenericErrorWithoutPriorities(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	current.Priority1 = ""
	current.Priority2 = ""
	current.Priority3 = ""

	fixture := newDispatcherFixture(t, current)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fixture.dispatcher.Run(ctx)

	_, err := fixture.dispatcher.Translate(ctx, "hola")
	if err == nil || err.Error() != "all translation attempts failed" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatcherChargesGtxUsageOncePerSuccess(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	current.Priority1 = "gtx"
	current.Priority2 = ""
	current.Priority3 = ""
	current.GtxRPM = settings.MaxRPM

	fixture := newDispatcherFixture(t, current, &fakeEngine{id: EngineGTX})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fixture.dispatcher.Run(ctx)

	if _, err := fixture.dispatcher.Translate(ctx, "hola"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if fixture.repo.gtx.DailyUsage != 1 {
		t.Fatalf("unexpected gtx daily usage: %d", fixture.repo.gtx.DailyUsage)
	}
	if fixture.window.Count() != 1 {
		t.Fatalf("unexpected hourly window count: %d", fixture.window.Count())
	}
}

func TestDispatcherChargesOfficialCharacterCount(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	current.Priority1 = "official"
	current.Priority2 = ""
	current.Priority3 = ""
	current.GoogleAPIKey = "k"

	fixture := newDispatcherFixture(t, current, &fakeEngine{id: EngineOfficial})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fixture.dispatcher.Run(ctx)

	// 11 runes, 14 bytes: counters must use the rune count.
	if _, err := fixture.dispatcher.Translate(ctx, "héllo wörld"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if fixture.repo.official.DailyUsageChars != 11 {
		t.Fatalf("unexpected daily chars: %d", fixture.repo.official.DailyUsageChars)
	}
	if fixture.repo.official.MonthlyUsageChars != 11 {
		t.Fatalf("unexpected monthly chars: %d", fixture.repo.official.MonthlyUsageChars)
	}
}

func TestDispatcherFailedEngineChargesNothing(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	current.Priority1 = "gtx"
	current.Priority2 = ""
	current.Priority3 = ""

	gtx := &fakeEngine{id: EngineGTX, fn: func(string) (string, error) {
		return "", errors.New("boom")
	}}
	fixture := newDispatcherFixture(t, current, gtx)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fixture.dispatcher.Run(ctx)

	if _, err := fixture.dispatcher.Translate(ctx, "hola"); err == nil {
		t.Fatalf("expected failure")
	}
	if fixture.repo.gtx.DailyUsage != 0 {
		t.Fatalf("failed call must not charge quota, got %d", fixture.repo.gtx.DailyUsage)
	}
	if fixture.window.Count() != 0 {
		t.Fatalf("failed call must not stamp the hourly window, got %d", fixture.window.Count())
	}
}

func TestDispatcherServesCacheHitWithoutEngineCall(t *testing.T) {
	t.Parallel()

	current := settings.Defaults()
	current.Priority1 = "local"
	current.Priority2 = ""
	current.Priority3 = ""

	engine := &fakeEngine{id: EngineLocal}
	fixture := newDispatcherFixture(t, current, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fixture.dispatcher.Run(ctx)

	first, err := fixture.dispatcher.Translate(ctx, "hola mundo")
	if err != nil {
		t.Fatalf("first translate: %v", err)
	}
	if first.Cached {
		t.Fatalf("first resolution must not be cached")
	}

	second, err := fixture.dispatcher.Translate(ctx, "hola mundo")
	if err != nil {
		t.Fatalf("second translate: %v", err)
	}
	if !second.Cached || second.Translation != first.Translation {
		t.Fatalf("unexpected cached result: %+v", second)
	}
	if len(engine.calls) != 1 {
		t.Fatalf("expected a single engine call, got %d", len(engine.calls))
	}
}
