package db

import (
	"context"
	"fmt"
)

func (p *Pool) ListEngineSettings(ctx context.Context) (map[string]string, error) {
	const q = `
SELECT
	key,
	value
FROM engine_settings
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query engine settings: %w", err)
	}
	defer rows.Close()

	items := make(map[string]string, 16)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan engine setting row: %w", err)
		}
		items[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engine settings: %w", err)
	}

	return items, nil
}

func (p *Pool) UpsertEngineSetting(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO engine_settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key)
DO UPDATE SET
	value = EXCLUDED.value,
	updated_at = now()
`

	if _, err := p.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("upsert engine setting %q: %w", key, err)
	}
	return nil
}
