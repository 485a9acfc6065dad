package translation

import (
	"context"
	"errors"

	"horse.fit/lingo/internal/settings"
)

// EngineID identifies one of the translation backends.
type EngineID string

const (
	EngineGTX      EngineID = "gtx"
	EngineOfficial EngineID = "official"
	EngineLocal    EngineID = "local"
)

// Engine is one translation backend. An engine performs a single attempt and
// never retries; falling back across engines is the dispatcher's job.
type Engine interface {
	Translate(ctx context.Context, text string) (string, error)
	ID() EngineID
}

// ErrBadResponseFormat marks responses that came back 2xx but did not have
// the shape the engine expects.
var ErrBadResponseFormat = errors.New("unexpected response format")

// SettingsSource yields the latest settings snapshot. Engines read it per
// call so a reconfiguration applies to the next request immediately.
type SettingsSource interface {
	Current() settings.Settings
}
