package db

import (
	"context"
	"fmt"
)

func (p *Pool) LookupTranslation(ctx context.Context, textHash []byte) (*Translation, error) {
	const q = `
SELECT
	translation_id,
	text_hash,
	source_text,
	translated_text,
	engine_name,
	created_at
FROM translations
WHERE text_hash = $1
LIMIT 1
`

	var row Translation
	err := p.QueryRow(ctx, q, textHash).Scan(
		&row.TranslationID,
		&row.TextHash,
		&row.SourceText,
		&row.TranslatedText,
		&row.EngineName,
		&row.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query translation cache: %w", err)
	}
	return &row, nil
}

func (p *Pool) UpsertTranslation(ctx context.Context, row Translation) error {
	const q = `
INSERT INTO translations (
	text_hash,
	source_text,
	translated_text,
	engine_name
)
VALUES ($1, $2, $3, $4)
ON CONFLICT (text_hash)
DO UPDATE SET
	translated_text = EXCLUDED.translated_text,
	engine_name = EXCLUDED.engine_name,
	created_at = now()
`

	if _, err := p.Exec(
		ctx,
		q,
		row.TextHash,
		row.SourceText,
		row.TranslatedText,
		row.EngineName,
	); err != nil {
		return fmt.Errorf("upsert translation cache: %w", err)
	}
	return nil
}
