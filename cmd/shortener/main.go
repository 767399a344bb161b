package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/go-chi/httplog/v2"
	"github.com/spf13/pflag"
	"github.com/vadimbarashkov/shortlink/internal/adapter/delivery/cli"
	"github.com/vadimbarashkov/shortlink/internal/app"
	"github.com/vadimbarashkov/shortlink/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:])
	cancel()

	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("shortener", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	configPath := fs.StringP("config", "c", os.Getenv("CONFIG_PATH"), "path to the YAML config file")

	if err := fs.Parse(args); err != nil {
		return cli.ExitUsage
	}

	cfg := config.Default()

	if *configPath != "" {
		var err error

		cfg, err = config.Load(*configPath)
		if err != nil {
			color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, err)
			return cli.ExitError
		}
	}

	logger := httplog.NewLogger("shortener", httplog.Options{
		LogLevel: slog.LevelWarn,
		Concise:  true,
		Writer:   os.Stderr,
	})

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, fmt.Errorf("failed to open store: %w", err))
		return cli.ExitError
	}
	defer a.Close()

	return cli.New(a.URLUseCase, os.Stdout, os.Stderr).Run(ctx, fs.Args())
}
