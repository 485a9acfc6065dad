package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"horse.fit/lingo/internal/db"
)

// Repository persists the two singleton quota records.
type Repository interface {
	GetOfficialQuota(ctx context.Context) (db.OfficialQuota, error)
	SaveOfficialQuota(ctx context.Context, row db.OfficialQuota) error
	GetGtxQuota(ctx context.Context) (db.GtxQuota, error)
	SaveGtxQuota(ctx context.Context, row db.GtxQuota) error
}

// Store tracks durable usage counters with lazy reset clocks: the gtx counter
// and the official daily counter reset on local calendar-day change, the
// official monthly counter on Pacific-time month change. The dispatcher's
// single-flight loop is the only writer, so read-modify-write here does not
// race.
type Store struct {
	repo Repository
	now  func() time.Time
}

func NewStore(repo Repository) *Store {
	return &Store{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Store) Official(ctx context.Context) (db.OfficialQuota, error) {
	if s == nil || s.repo == nil {
		return db.OfficialQuota{}, fmt.Errorf("quota store is not initialized")
	}
	return s.repo.GetOfficialQuota(ctx)
}

func (s *Store) Gtx(ctx context.Context) (db.GtxQuota, error) {
	if s == nil || s.repo == nil {
		return db.GtxQuota{}, fmt.Errorf("quota store is not initialized")
	}
	return s.repo.GetGtxQuota(ctx)
}

// AddOfficialUsage charges chars against both official counters. Called once
// per successful official call, after the response parsed.
func (s *Store) AddOfficialUsage(ctx context.Context, chars int64) error {
	row, err := s.Official(ctx)
	if err != nil {
		return err
	}
	row.DailyUsageChars += chars
	row.MonthlyUsageChars += chars
	return s.repo.SaveOfficialQuota(ctx, row)
}

// AddGtxUsage charges count requests against the gtx daily counter.
func (s *Store) AddGtxUsage(ctx context.Context, count int64) error {
	row, err := s.Gtx(ctx)
	if err != nil {
		return err
	}
	row.DailyUsage += count
	return s.repo.SaveGtxQuota(ctx, row)
}

// MaybeResetAll runs the three lazy reset checks. Each check compares a
// stored stamp against the current period key and is a no-op when they match,
// so repeated calls within a period reset at most once.
func (s *Store) MaybeResetAll(ctx context.Context) error {
	if err := s.maybeResetOfficial(ctx); err != nil {
		return err
	}
	return s.maybeResetGtx(ctx)
}

func (s *Store) maybeResetOfficial(ctx context.Context) error {
	row, err := s.Official(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	changed := false

	// The two clocks are independent: a month boundary clears only the
	// monthly counter, a day boundary only the daily one.
	if period := pacificPeriodKey(now); row.LastResetPeriod != period {
		row.MonthlyUsageChars = 0
		row.LastResetPeriod = period
		changed = true
	}
	if day := localDayKey(now); row.LastDailyResetDate != day {
		row.DailyUsageChars = 0
		row.LastDailyResetDate = day
		changed = true
	}

	if !changed {
		return nil
	}
	return s.repo.SaveOfficialQuota(ctx, row)
}

func (s *Store) maybeResetGtx(ctx context.Context) error {
	row, err := s.Gtx(ctx)
	if err != nil {
		return err
	}

	day := localDayKey(s.now())
	if row.LastResetDay == day {
		return nil
	}

	row.DailyUsage = 0
	row.LastResetDay = day
	return s.repo.SaveGtxQuota(ctx, row)
}

func localDayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// pacificPeriodKey is the billing period stamp, month-year in the
// America/Los_Angeles time zone.
func pacificPeriodKey(t time.Time) string {
	pt := t.In(pacificZone())
	return fmt.Sprintf("%02d-%04d", int(pt.Month()), pt.Year())
}

var (
	pacificOnce sync.Once
	pacificLoc  *time.Location
)

func pacificZone() *time.Location {
	pacificOnce.Do(func() {
		loc, err := time.LoadLocation("America/Los_Angeles")
		if err != nil {
			// No tzdata on the host. PST without DST shifts the boundary by
			// an hour part of the year, which only moves when the monthly
			// reset fires, never whether it fires.
			loc = time.FixedZone("PST", -8*60*60)
		}
		pacificLoc = loc
	})
	return pacificLoc
}
