package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/lingo/internal/cli"
	"horse.fit/lingo/internal/config"
	"horse.fit/lingo/internal/db"
	"horse.fit/lingo/internal/quota"
	"horse.fit/lingo/internal/ratelimit"
	"horse.fit/lingo/internal/settings"
	"horse.fit/lingo/internal/translation"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func connectPool(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *config.Config, *db.Pool, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return ctx, cancel, cfg, pool, nil
}

// runtime bundles the dispatch pipeline shared by serve and translate.
type runtime struct {
	settings   *settings.Store
	quota      *quota.Store
	window     *ratelimit.HourlyWindow
	dispatcher *translation.Dispatcher
}

func buildRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger, pool *db.Pool) (*runtime, error) {
	settingsStore := settings.NewStore(pool)
	if err := settingsStore.Load(ctx); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	quotaStore := quota.NewStore(pool)
	window := ratelimit.NewHourlyWindow(ratelimit.HourlyRequestLimit)

	gtxEndpoint := strings.TrimSpace(cfg.GTXEndpoint)
	if gtxEndpoint == "" {
		gtxEndpoint = translation.DefaultGTXEndpoint
	}
	officialEndpoint := strings.TrimSpace(cfg.OfficialEndpoint)
	if officialEndpoint == "" {
		officialEndpoint = translation.DefaultOfficialEndpoint
	}

	registry := translation.NewRegistry()
	engines := []translation.Engine{
		translation.NewGTXEngine(gtxEndpoint),
		translation.NewOfficialEngine(officialEndpoint, settingsStore),
		translation.NewLocalEngine(settingsStore),
	}
	for _, engine := range engines {
		if err := registry.Register(engine); err != nil {
			return nil, fmt.Errorf("register engine: %w", err)
		}
	}

	dispatcher := translation.NewDispatcher(translation.DispatcherDeps{
		Logger:   logger,
		Registry: registry,
		Quota:    quotaStore,
		Settings: settingsStore,
		Checker:  translation.NewChecker(quotaStore, settingsStore, window),
		Pacer:    ratelimit.NewPacer(settingsStore.Current().GtxRPM),
		Window:   window,
		Cache:    pool,
	})

	return &runtime{
		settings:   settingsStore,
		quota:      quotaStore,
		window:     window,
		dispatcher: dispatcher,
	}, nil
}
