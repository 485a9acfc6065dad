package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/lingo/internal/cli"
	"horse.fit/lingo/internal/logging"
)

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 150*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "translate requires the text to translate as an argument")
		return 2
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "translate requires non-empty text")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	rt, err := buildRuntime(ctx, cfg, logger, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dispatch pipeline: %v\n", err)
		return 1
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go rt.dispatcher.Run(workerCtx)

	res, err := rt.dispatcher.Translate(ctx, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translation failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"translation": res.Translation,
			"engine":      string(res.Engine),
			"cached":      res.Cached,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Println(res.Translation)
	fmt.Fprintf(os.Stderr, "engine=%s cached=%t\n", res.Engine, res.Cached)
	return 0
}
