package db

import (
	"context"
	"fmt"
)

// Both quota tables hold exactly one row.
const quotaRowID = 1

func (p *Pool) GetOfficialQuota(ctx context.Context) (OfficialQuota, error) {
	const q = `
SELECT
	daily_usage_chars,
	monthly_usage_chars,
	last_daily_reset_date,
	last_reset_period
FROM official_quota
WHERE id = $1
LIMIT 1
`

	row := OfficialQuota{ID: quotaRowID}
	err := p.QueryRow(ctx, q, quotaRowID).Scan(
		&row.DailyUsageChars,
		&row.MonthlyUsageChars,
		&row.LastDailyResetDate,
		&row.LastResetPeriod,
	)
	if err != nil {
		if IsNoRows(err) {
			return OfficialQuota{ID: quotaRowID}, nil
		}
		return OfficialQuota{}, fmt.Errorf("query official quota: %w", err)
	}
	return row, nil
}

func (p *Pool) SaveOfficialQuota(ctx context.Context, row OfficialQuota) error {
	const q = `
INSERT INTO official_quota (
	id,
	daily_usage_chars,
	monthly_usage_chars,
	last_daily_reset_date,
	last_reset_period
)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id)
DO UPDATE SET
	daily_usage_chars = EXCLUDED.daily_usage_chars,
	monthly_usage_chars = EXCLUDED.monthly_usage_chars,
	last_daily_reset_date = EXCLUDED.last_daily_reset_date,
	last_reset_period = EXCLUDED.last_reset_period,
	updated_at = now()
`

	if _, err := p.Exec(
		ctx,
		q,
		quotaRowID,
		row.DailyUsageChars,
		row.MonthlyUsageChars,
		row.LastDailyResetDate,
		row.LastResetPeriod,
	); err != nil {
		return fmt.Errorf("upsert official quota: %w", err)
	}
	return nil
}

func (p *Pool) GetGtxQuota(ctx context.Context) (GtxQuota, error) {
	const q = `
SELECT
	daily_usage,
	last_reset_day
FROM gtx_quota
WHERE id = $1
LIMIT 1
`

	row := GtxQuota{ID: quotaRowID}
	err := p.QueryRow(ctx, q, quotaRowID).Scan(
		&row.DailyUsage,
		&row.LastResetDay,
	)
	if err != nil {
		if IsNoRows(err) {
			return GtxQuota{ID: quotaRowID}, nil
		}
		return GtxQuota{}, fmt.Errorf("query gtx quota: %w", err)
	}
	return row, nil
}

func (p *Pool) SaveGtxQuota(ctx context.Context, row GtxQuota) error {
	const q = `
INSERT INTO gtx_quota (
	id,
	daily_usage,
	last_reset_day
)
VALUES ($1, $2, $3)
ON CONFLICT (id)
DO UPDATE SET
	daily_usage = EXCLUDED.daily_usage,
	last_reset_day = EXCLUDED.last_reset_day,
	updated_at = now()
`

	if _, err := p.Exec(ctx, q, quotaRowID, row.DailyUsage, row.LastResetDay); err != nil {
		return fmt.Errorf("upsert gtx quota: %w", err)
	}
	return nil
}
