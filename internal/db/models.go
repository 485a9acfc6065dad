package db

import "time"

// EngineSetting is one persisted settings key. The key names follow the
// runtime settings schema (googleApiKey, gtxDailyLimit, priority1, ...).
type EngineSetting struct {
	Key       string    `gorm:"column:key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (EngineSetting) TableName() string { return "engine_settings" }

// OfficialQuota is the singleton usage record for the official API. The daily
// counter resets on local-day change, the monthly counter on Pacific-time
// month change; the two stamps are independent.
type OfficialQuota struct {
	ID                 int16     `gorm:"column:id;primaryKey"`
	DailyUsageChars    int64     `gorm:"column:daily_usage_chars;type:bigint;not null;default:0"`
	MonthlyUsageChars  int64     `gorm:"column:monthly_usage_chars;type:bigint;not null;default:0"`
	LastDailyResetDate string    `gorm:"column:last_daily_reset_date;type:text;not null;default:''"`
	LastResetPeriod    string    `gorm:"column:last_reset_period;type:text;not null;default:''"`
	UpdatedAt          time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (OfficialQuota) TableName() string { return "official_quota" }

// GtxQuota is the singleton daily request counter for the free-tier endpoint.
type GtxQuota struct {
	ID           int16     `gorm:"column:id;primaryKey"`
	DailyUsage   int64     `gorm:"column:daily_usage;type:bigint;not null;default:0"`
	LastResetDay string    `gorm:"column:last_reset_day;type:text;not null;default:''"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (GtxQuota) TableName() string { return "gtx_quota" }

// Translation is one cached translation, keyed by the SHA-256 of the source
// text. Cache hits skip the engine walk and spend no quota.
type Translation struct {
	TranslationID  int64     `gorm:"column:translation_id;primaryKey;autoIncrement"`
	TextHash       []byte    `gorm:"column:text_hash;type:bytea;not null;unique"`
	SourceText     string    `gorm:"column:source_text;type:text;not null"`
	TranslatedText string    `gorm:"column:translated_text;type:text;not null"`
	EngineName     string    `gorm:"column:engine_name;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Translation) TableName() string { return "translations" }
