package translation

import (
	"context"
	"strings"

	"horse.fit/lingo/internal/quota"
	"horse.fit/lingo/internal/ratelimit"
)

// Availability reports whether an engine may be used right now, with a
// human-readable reason when it may not. Reasons end up verbatim in the
// caller-facing error when every engine is skipped.
type Availability struct {
	Available bool
	Reason    string
}

const (
	reasonDailyGtxLimit   = "daily gtx limit reached"
	reasonHourlyGtxLimit  = "hourly gtx limit reached"
	reasonNoAPIKey        = "no api key configured"
	reasonMonthlyOfficial = "monthly official limit exceeded"
	reasonDailyOfficial   = "daily official limit exceeded"
	reasonNoLocalEndpoint = "no local endpoint configured"
	reasonUnknownEngine   = "unknown engine"
)

func available() Availability {
	return Availability{Available: true}
}

func unavailable(reason string) Availability {
	return Availability{Reason: reason}
}

// Checker decides per-engine availability against current counters, limits
// and the rolling hourly window. Official checks are projective: they ask
// whether this request would push usage over the cap.
type Checker struct {
	quota    *quota.Store
	settings SettingsSource
	window   *ratelimit.HourlyWindow
}

func NewChecker(store *quota.Store, source SettingsSource, window *ratelimit.HourlyWindow) *Checker {
	return &Checker{
		quota:    store,
		settings: source,
		window:   window,
	}
}

func (c *Checker) Check(ctx context.Context, id EngineID, textLength int) (Availability, error) {
	current := c.settings.Current()

	switch id {
	case EngineGTX:
		record, err := c.quota.Gtx(ctx)
		if err != nil {
			return Availability{}, err
		}
		if record.DailyUsage >= current.GtxDailyLimit {
			return unavailable(reasonDailyGtxLimit), nil
		}
		if c.window.Full() {
			return unavailable(reasonHourlyGtxLimit), nil
		}
		return available(), nil

	case EngineOfficial:
		if strings.TrimSpace(current.GoogleAPIKey) == "" {
			return unavailable(reasonNoAPIKey), nil
		}
		record, err := c.quota.Official(ctx)
		if err != nil {
			return Availability{}, err
		}
		if record.MonthlyUsageChars+int64(textLength) > current.OfficialMonthlyLimit {
			return unavailable(reasonMonthlyOfficial), nil
		}
		if record.DailyUsageChars+int64(textLength) > current.OfficialDailyLimit {
			return unavailable(reasonDailyOfficial), nil
		}
		return available(), nil

	case EngineLocal:
		if strings.TrimSpace(current.LocalURL) == "" {
			return unavailable(reasonNoLocalEndpoint), nil
		}
		return available(), nil
	}

	return unavailable(reasonUnknownEngine), nil
}
