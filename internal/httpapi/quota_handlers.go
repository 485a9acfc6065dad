package httpapi

import (
	"github.com/labstack/echo/v4"

	"horse.fit/lingo/internal/ratelimit"
)

type gtxQuotaView struct {
	DailyUsage   int64  `json:"dailyUsage"`
	DailyLimit   int64  `json:"dailyLimit"`
	HourlyUsage  int    `json:"hourlyUsage"`
	HourlyLimit  int    `json:"hourlyLimit"`
	LastResetDay string `json:"lastResetDay,omitempty"`
}

type officialQuotaView struct {
	DailyUsageChars    int64  `json:"dailyUsageChars"`
	DailyLimit         int64  `json:"dailyLimit"`
	MonthlyUsageChars  int64  `json:"monthlyUsageChars"`
	MonthlyLimit       int64  `json:"monthlyLimit"`
	LastDailyResetDate string `json:"lastDailyResetDate,omitempty"`
	LastResetPeriod    string `json:"lastResetPeriod,omitempty"`
}

// handleQuota reports usage counters against the configured limits, the data
// behind the settings UI's usage meters. Resets run first so a stale counter
// from yesterday never shows.
func (s *Server) handleQuota(c echo.Context) error {
	ctx := c.Request().Context()

	if err := s.quota.MaybeResetAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("quota reset check failed")
		return internalError(c, "Failed to load quota")
	}

	gtx, err := s.quota.Gtx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load gtx quota failed")
		return internalError(c, "Failed to load quota")
	}
	official, err := s.quota.Official(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load official quota failed")
		return internalError(c, "Failed to load quota")
	}

	current := s.settings.Current()
	hourlyUsage := 0
	if s.window != nil {
		s.window.Prune()
		hourlyUsage = s.window.Count()
	}

	return success(c, map[string]any{
		"gtx": gtxQuotaView{
			DailyUsage:   gtx.DailyUsage,
			DailyLimit:   current.GtxDailyLimit,
			HourlyUsage:  hourlyUsage,
			HourlyLimit:  ratelimit.HourlyRequestLimit,
			LastResetDay: gtx.LastResetDay,
		},
		"official": officialQuotaView{
			DailyUsageChars:    official.DailyUsageChars,
			DailyLimit:         current.OfficialDailyLimit,
			MonthlyUsageChars:  official.MonthlyUsageChars,
			MonthlyLimit:       current.OfficialMonthlyLimit,
			LastDailyResetDate: official.LastDailyResetDate,
			LastResetPeriod:    official.LastResetPeriod,
		},
	})
}
