package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"horse.fit/lingo/internal/settings"
)

// Pacer spaces free-tier requests at the configured minimum interval. Burst
// is 1, so the first call after idle goes straight through and subsequent
// calls wait out the remainder of the interval.
type Pacer struct {
	limiter *rate.Limiter
	rpm     int
}

func NewPacer(rpm int) *Pacer {
	clamped := clampRPM(rpm)
	return &Pacer{
		limiter: rate.NewLimiter(limitForRPM(clamped), 1),
		rpm:     clamped,
	}
}

// SetRPM applies a reconfigured requests-per-minute value. The new interval
// takes effect on the next Wait.
func (p *Pacer) SetRPM(rpm int) {
	clamped := clampRPM(rpm)
	if clamped == p.rpm {
		return
	}
	p.rpm = clamped
	p.limiter.SetLimit(limitForRPM(clamped))
}

// Wait blocks until the next request may be sent.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Interval is the current minimum spacing between requests.
func (p *Pacer) Interval() time.Duration {
	return time.Minute / time.Duration(p.rpm)
}

func clampRPM(rpm int) int {
	return max(settings.MinRPM, min(rpm, settings.MaxRPM))
}

func limitForRPM(rpm int) rate.Limit {
	return rate.Limit(float64(rpm) / 60.0)
}
