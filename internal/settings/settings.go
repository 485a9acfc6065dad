package settings

import (
	"strconv"
	"strings"
	"time"
)

// RPM bounds for the free-tier pacer: 1 RPM (60s interval) to 120 RPM (500ms).
const (
	MinRPM = 1
	MaxRPM = 120
)

// Settings is the runtime engine configuration. The JSON keys match the
// persisted key names, which the settings UI reads and writes.
type Settings struct {
	Enabled              bool   `json:"enabled"`
	GoogleAPIKey         string `json:"googleApiKey"`
	GtxDailyLimit        int64  `json:"gtxDailyLimit"`
	OfficialDailyLimit   int64  `json:"officialDailyLimit"`
	OfficialMonthlyLimit int64  `json:"officialMonthlyLimit"`
	GtxRPM               int    `json:"gtxRpm"`
	Priority1            string `json:"priority1"`
	Priority2            string `json:"priority2"`
	Priority3            string `json:"priority3"`
	LocalURL             string `json:"localUrl"`
	LocalModel           string `json:"localModel"`
	LocalPrompt          string `json:"localPrompt"`
	SkipEnglish          bool   `json:"skipEnglish"`

	// Bcrypt hash of the settings password. Empty means writes are open.
	PasswordHash string `json:"-"`
}

func Defaults() Settings {
	return Settings{
		Enabled:              true,
		GoogleAPIKey:         "",
		GtxDailyLimit:        1000,
		OfficialDailyLimit:   50000,
		OfficialMonthlyLimit: 500000,
		GtxRPM:               12,
		Priority1:            "gtx",
		Priority2:            "official",
		Priority3:            "local",
		LocalURL:             "http://localhost:1234/v1/chat/completions",
		LocalModel:           "local-model",
		LocalPrompt:          "You are a professional translator. Translate the following text to English. Return only the translated text, no explanations.",
		SkipEnglish:          true,
	}
}

// Priorities returns the configured engine trial order. Empty slots are
// dropped; names are lower-cased but otherwise passed through, so an unknown
// name still occupies its slot and fails availability there.
func (s Settings) Priorities() []string {
	out := make([]string, 0, 3)
	for _, raw := range []string{s.Priority1, s.Priority2, s.Priority3} {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}

// ClampedRPM bounds the configured requests-per-minute to [MinRPM, MaxRPM].
func (s Settings) ClampedRPM() int {
	return max(MinRPM, min(s.GtxRPM, MaxRPM))
}

// MinRequestInterval is the minimum spacing between free-tier requests.
func (s Settings) MinRequestInterval() time.Duration {
	return time.Minute / time.Duration(s.ClampedRPM())
}

// persisted key names
const (
	keyEnabled              = "enabled"
	keyGoogleAPIKey         = "googleApiKey"
	keyGtxDailyLimit        = "gtxDailyLimit"
	keyOfficialDailyLimit   = "officialDailyLimit"
	keyOfficialMonthlyLimit = "officialMonthlyLimit"
	keyGtxRPM               = "gtxRpm"
	keyPriority1            = "priority1"
	keyPriority2            = "priority2"
	keyPriority3            = "priority3"
	keyLocalURL             = "localUrl"
	keyLocalModel           = "localModel"
	keyLocalPrompt          = "localPrompt"
	keySkipEnglish          = "skipEnglish"
	keyPasswordHash         = "settingsPassword"
)

func (s Settings) toRows() map[string]string {
	return map[string]string{
		keyEnabled:              strconv.FormatBool(s.Enabled),
		keyGoogleAPIKey:         s.GoogleAPIKey,
		keyGtxDailyLimit:        strconv.FormatInt(s.GtxDailyLimit, 10),
		keyOfficialDailyLimit:   strconv.FormatInt(s.OfficialDailyLimit, 10),
		keyOfficialMonthlyLimit: strconv.FormatInt(s.OfficialMonthlyLimit, 10),
		keyGtxRPM:               strconv.Itoa(s.GtxRPM),
		keyPriority1:            s.Priority1,
		keyPriority2:            s.Priority2,
		keyPriority3:            s.Priority3,
		keyLocalURL:             s.LocalURL,
		keyLocalModel:           s.LocalModel,
		keyLocalPrompt:          s.LocalPrompt,
		keySkipEnglish:          strconv.FormatBool(s.SkipEnglish),
		keyPasswordHash:         s.PasswordHash,
	}
}

// fromRows overlays persisted rows onto defaults. Unparseable or unknown rows
// are ignored rather than rejected, so a bad row never blocks startup.
func fromRows(rows map[string]string) Settings {
	s := Defaults()
	for key, value := range rows {
		switch key {
		case keyEnabled:
			if parsed, err := strconv.ParseBool(value); err == nil {
				s.Enabled = parsed
			}
		case keyGoogleAPIKey:
			s.GoogleAPIKey = value
		case keyGtxDailyLimit:
			if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
				s.GtxDailyLimit = parsed
			}
		case keyOfficialDailyLimit:
			if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
				s.OfficialDailyLimit = parsed
			}
		case keyOfficialMonthlyLimit:
			if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
				s.OfficialMonthlyLimit = parsed
			}
		case keyGtxRPM:
			if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
				s.GtxRPM = parsed
			}
		case keyPriority1:
			s.Priority1 = value
		case keyPriority2:
			s.Priority2 = value
		case keyPriority3:
			s.Priority3 = value
		case keyLocalURL:
			s.LocalURL = value
		case keyLocalModel:
			s.LocalModel = value
		case keyLocalPrompt:
			s.LocalPrompt = value
		case keySkipEnglish:
			if parsed, err := strconv.ParseBool(value); err == nil {
				s.SkipEnglish = parsed
			}
		case keyPasswordHash:
			s.PasswordHash = value
		}
	}
	return s
}
