package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/idilsaglam/planner/internal/cli"
	"github.com/idilsaglam/planner/internal/config"
	"github.com/idilsaglam/planner/internal/logging"
	"github.com/idilsaglam/planner/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	apiURL := flag.String("api", "", "todo service base URL")
	configFile := flag.String("config", "", "config file")
	theme := flag.String("theme", "", "color theme: classic, neon, mono")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Usage = func() { cli.PrintHelp(os.Stderr) }
	flag.Parse()

	// .env is optional; PLANNER_* variables may come from it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		ui.Fail(os.Stderr, ".env: "+err.Error())
		os.Exit(1)
	}

	cfg, err := config.Load(config.Overrides{
		ConfigFile: *configFile,
		BaseURL:    *apiURL,
		Theme:      *theme,
		Verbose:    *verbose,
	})
	if err != nil {
		ui.Fail(os.Stderr, "config: "+err.Error())
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Prefix: "planner",
	})
	logger.Debug("config loaded", "file", cfg.File, "api", cfg.API.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hand the remaining args to the CLI runner.
	code := cli.Run(ctx, flag.Args(), cli.Options{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		Err:    os.Stderr,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	stop()
	os.Exit(code)
}
