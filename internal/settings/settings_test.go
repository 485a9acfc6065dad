package settings

import (
	"context"
	"reflect"
	"testing"
	"time"
)

type memoryRepo struct {
	rows map[string]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[string]string)}
}

func (m *memoryRepo) ListEngineSettings(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.rows))
	for k, v := range m.rows {
		out[k] = v
	}
	return out, nil
}

func (m *memoryRepo) UpsertEngineSetting(_ context.Context, key, value string) error {
	m.rows[key] = value
	return nil
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	s := Defaults()
	if !s.Enabled {
		t.Fatalf("translation must be enabled by default")
	}
	if s.GtxDailyLimit != 1000 || s.OfficialDailyLimit != 50000 || s.OfficialMonthlyLimit != 500000 {
		t.Fatalf("unexpected default limits: %+v", s)
	}
	if s.GtxRPM != 12 {
		t.Fatalf("unexpected default rpm: %d", s.GtxRPM)
	}
	if got := s.Priorities(); !reflect.DeepEqual(got, []string{"gtx", "official", "local"}) {
		t.Fatalf("unexpected default priorities: %v", got)
	}
}

func TestPrioritiesDropEmptySlots(t *testing.T) {
	t.Parallel()

	s := Settings{Priority1: "  GTX ", Priority2: "", Priority3: "Local"}
	if got := s.Priorities(); !reflect.DeepEqual(got, []string{"gtx", "local"}) {
		t.Fatalf("unexpected priorities: %v", got)
	}

	s = Settings{}
	if got := s.Priorities(); len(got) != 0 {
		t.Fatalf("expected no priorities, got %v", got)
	}
}

func TestMinRequestInterval(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rpm  int
		want time.Duration
	}{
		{12, 5 * time.Second},
		{0, time.Minute},
		{-3, time.Minute},
		{120, 500 * time.Millisecond},
		{9999, 500 * time.Millisecond},
	}
	for _, tc := range cases {
		s := Settings{GtxRPM: tc.rpm}
		if got := s.MinRequestInterval(); got != tc.want {
			t.Errorf("rpm %d: got interval %v, want %v", tc.rpm, got, tc.want)
		}
	}
}

func TestFromRowsOverlaysDefaults(t *testing.T) {
	t.Parallel()

	rows := map[string]string{
		"enabled":       "false",
		"googleApiKey":  "secret",
		"gtxDailyLimit": "250",
		"gtxRpm":        "not-a-number",
		"priority1":     "local",
		"unknownKey":    "ignored",
	}

	s := fromRows(rows)
	if s.Enabled {
		t.Fatalf("enabled row not applied")
	}
	if s.GoogleAPIKey != "secret" || s.GtxDailyLimit != 250 || s.Priority1 != "local" {
		t.Fatalf("rows not overlaid: %+v", s)
	}
	// Bad numeric row keeps the default.
	if s.GtxRPM != Defaults().GtxRPM {
		t.Fatalf("unparseable rpm must keep default, got %d", s.GtxRPM)
	}
	// Untouched fields keep defaults.
	if s.OfficialDailyLimit != Defaults().OfficialDailyLimit {
		t.Fatalf("unexpected daily limit: %d", s.OfficialDailyLimit)
	}
}

func TestFromRowsRejectsNonPositiveLimits(t *testing.T) {
	t.Parallel()

	s := fromRows(map[string]string{
		"gtxDailyLimit":      "0",
		"officialDailyLimit": "-5",
	})
	if s.GtxDailyLimit != Defaults().GtxDailyLimit {
		t.Fatalf("zero limit must keep default, got %d", s.GtxDailyLimit)
	}
	if s.OfficialDailyLimit != Defaults().OfficialDailyLimit {
		t.Fatalf("negative limit must keep default, got %d", s.OfficialDailyLimit)
	}
}

func TestStoreSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	store := NewStore(repo)

	updated := Defaults()
	updated.Enabled = false
	updated.GoogleAPIKey = "key-123"
	updated.GtxRPM = 30
	updated.PasswordHash = "$2a$12$fakehash"

	if err := store.Save(context.Background(), updated); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := store.Current(); got != updated {
		t.Fatalf("snapshot not swapped: %+v", got)
	}

	// A fresh store sees the persisted rows.
	fresh := NewStore(repo)
	if got := fresh.Current(); got != Defaults() {
		t.Fatalf("fresh store must start from defaults, got %+v", got)
	}
	if err := fresh.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := fresh.Current(); got != updated {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestStoreLoadWithEmptyRepoKeepsDefaults(t *testing.T) {
	t.Parallel()

	store := NewStore(newMemoryRepo())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := store.Current(); got != Defaults() {
		t.Fatalf("unexpected settings: %+v", got)
	}
}
