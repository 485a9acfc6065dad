package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/lingo/internal/cli"
	"horse.fit/lingo/internal/quota"
	"horse.fit/lingo/internal/ratelimit"
	"horse.fit/lingo/internal/settings"
)

func runQuota(args []string) int {
	fs := flag.NewFlagSet("quota", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "quota does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	settingsStore := settings.NewStore(pool)
	if err := settingsStore.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		return 1
	}
	current := settingsStore.Current()

	quotaStore := quota.NewStore(pool)
	if err := quotaStore.MaybeResetAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run quota resets: %v\n", err)
		return 1
	}

	gtx, err := quotaStore.Gtx(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load gtx quota: %v\n", err)
		return 1
	}
	official, err := quotaStore.Official(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load official quota: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"gtx": map[string]any{
				"dailyUsage":   gtx.DailyUsage,
				"dailyLimit":   current.GtxDailyLimit,
				"hourlyLimit":  ratelimit.HourlyRequestLimit,
				"lastResetDay": gtx.LastResetDay,
			},
			"official": map[string]any{
				"dailyUsageChars":    official.DailyUsageChars,
				"dailyLimit":         current.OfficialDailyLimit,
				"monthlyUsageChars":  official.MonthlyUsageChars,
				"monthlyLimit":       current.OfficialMonthlyLimit,
				"lastDailyResetDate": official.LastDailyResetDate,
				"lastResetPeriod":    official.LastResetPeriod,
			},
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"gtx_daily", fmt.Sprintf("%d", gtx.DailyUsage), fmt.Sprintf("%d", current.GtxDailyLimit), gtx.LastResetDay},
		{"official_daily", fmt.Sprintf("%d", official.DailyUsageChars), fmt.Sprintf("%d", current.OfficialDailyLimit), official.LastDailyResetDate},
		{"official_monthly", fmt.Sprintf("%d", official.MonthlyUsageChars), fmt.Sprintf("%d", current.OfficialMonthlyLimit), official.LastResetPeriod},
	}
	if err := writeTable([]string{"counter", "usage", "limit", "last_reset"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render quota table: %v\n", err)
		return 1
	}

	return 0
}
