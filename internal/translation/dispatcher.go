package translation

import (
	"context"
	"crypto/sha256"
	"errors"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"horse.fit/lingo/internal/db"
	"horse.fit/lingo/internal/quota"
	"horse.fit/lingo/internal/ratelimit"
)

const defaultQueueCapacity = 1024

// CacheStore persists finished translations keyed by source-text hash.
type CacheStore interface {
	LookupTranslation(ctx context.Context, textHash []byte) (*db.Translation, error)
	UpsertTranslation(ctx context.Context, row db.Translation) error
}

// Result is one resolved translation request.
type Result struct {
	Translation string
	Engine      EngineID
	Cached      bool
	Err         error
}

type request struct {
	text string
	done chan Result
}

// Dispatcher is the serialized core: a single worker drains a FIFO queue,
// and per request runs the lazy quota resets, walks the priority list,
// paces the free tier, invokes engines and charges usage exactly once on
// success. One request fully resolves before the next is dequeued, so
// resolution order follows submission order and quota writes never race.
type Dispatcher struct {
	logger   zerolog.Logger
	registry *Registry
	quota    *quota.Store
	settings SettingsSource
	checker  *Checker
	pacer    *ratelimit.Pacer
	window   *ratelimit.HourlyWindow
	cache    CacheStore
	queue    chan request
}

// DispatcherDeps wires the dispatcher's collaborators. Cache may be nil.
type DispatcherDeps struct {
	Logger   zerolog.Logger
	Registry *Registry
	Quota    *quota.Store
	Settings SettingsSource
	Checker  *Checker
	Pacer    *ratelimit.Pacer
	Window   *ratelimit.HourlyWindow
	Cache    CacheStore
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	return &Dispatcher{
		logger:   deps.Logger,
		registry: deps.Registry,
		quota:    deps.Quota,
		settings: deps.Settings,
		checker:  deps.Checker,
		pacer:    deps.Pacer,
		window:   deps.Window,
		cache:    deps.Cache,
		queue:    make(chan request, defaultQueueCapacity),
	}
}

// Run processes queued requests until ctx is cancelled. It must be running
// for Translate to resolve.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx.Err())
			return
		case req := <-d.queue:
			req.done <- d.process(ctx, req.text)
		}
	}
}

func (d *Dispatcher) drain(cause error) {
	for {
		select {
		case req := <-d.queue:
			req.done <- Result{Err: cause}
		default:
			return
		}
	}
}

// Submit enqueues one request and returns the channel its result will land
// on. Requests are resolved strictly in submission order.
func (d *Dispatcher) Submit(ctx context.Context, text string) (<-chan Result, error) {
	req := request{text: text, done: make(chan Result, 1)}
	select {
	case d.queue <- req:
		return req.done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Translate submits text and blocks until resolution.
func (d *Dispatcher) Translate(ctx context.Context, text string) (Result, error) {
	done, err := d.Submit(ctx, text)
	if err != nil {
		return Result{}, err
	}
	select {
	case res := <-done:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// process runs one full dispatch cycle: lazy resets, window pruning, cache
// lookup, then one pass through the priority list. The first engine success
// wins; a request that exhausts the list resolves with the last recorded
// reason. A failed request never stops the queue.
func (d *Dispatcher) process(ctx context.Context, text string) Result {
	if err := d.quota.MaybeResetAll(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("quota reset check failed")
	}
	d.window.Prune()

	textHash := sha256.Sum256([]byte(text))
	if d.cache != nil {
		cached, err := d.cache.LookupTranslation(ctx, textHash[:])
		if err != nil {
			d.logger.Warn().Err(err).Msg("translation cache lookup failed")
		} else if cached != nil {
			return Result{
				Translation: cached.TranslatedText,
				Engine:      NormalizeEngineID(cached.EngineName),
				Cached:      true,
			}
		}
	}

	current := d.settings.Current()
	textLength := utf8.RuneCountInString(text)

	lastReason := ""
	for _, name := range current.Priorities() {
		id := NormalizeEngineID(name)

		avail, err := d.checker.Check(ctx, id, textLength)
		if err != nil {
			d.logger.Warn().Err(err).Str("engine", string(id)).Msg("availability check failed")
			lastReason = err.Error()
			continue
		}
		if !avail.Available {
			d.logger.Debug().Str("engine", string(id)).Str("reason", avail.Reason).Msg("skipping engine")
			lastReason = avail.Reason
			continue
		}

		engine, ok := d.registry.Engine(id)
		if !ok {
			lastReason = "unknown engine"
			continue
		}

		if id == EngineGTX {
			d.pacer.SetRPM(current.GtxRPM)
			if err := d.pacer.Wait(ctx); err != nil {
				return Result{Err: err}
			}
		}

		d.logger.Debug().Str("engine", string(id)).Msg("attempting translation")
		translated, err := engine.Translate(ctx, text)
		if err != nil {
			d.logger.Warn().Err(err).Str("engine", string(id)).Msg("translation attempt failed")
			lastReason = err.Error()
			continue
		}

		d.recordUsage(ctx, id, textLength)
		d.storeCache(ctx, textHash[:], text, translated, id)
		return Result{Translation: translated, Engine: id}
	}

	if lastReason == "" {
		lastReason = "all translation attempts failed"
	}
	return Result{Err: errors.New(lastReason)}
}

// recordUsage charges counters after a successful call: one request for gtx
// (plus an hourly window stamp), the character count for official, nothing
// for local.
func (d *Dispatcher) recordUsage(ctx context.Context, id EngineID, textLength int) {
	switch id {
	case EngineGTX:
		d.window.Record()
		if err := d.quota.AddGtxUsage(ctx, 1); err != nil {
			d.logger.Warn().Err(err).Msg("gtx usage update failed")
		}
	case EngineOfficial:
		if err := d.quota.AddOfficialUsage(ctx, int64(textLength)); err != nil {
			d.logger.Warn().Err(err).Msg("official usage update failed")
		}
	}
}

func (d *Dispatcher) storeCache(ctx context.Context, hash []byte, source, translated string, id EngineID) {
	if d.cache == nil {
		return
	}
	err := d.cache.UpsertTranslation(ctx, db.Translation{
		TextHash:       hash,
		SourceText:     source,
		TranslatedText: translated,
		EngineName:     string(id),
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("translation cache write failed")
	}
}
