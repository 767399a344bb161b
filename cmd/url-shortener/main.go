package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/vadimbarashkov/shortlink/internal/app"
	"github.com/vadimbarashkov/shortlink/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configPath := pflag.StringP("config", "c", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	pflag.Parse()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg := config.Default()

	if configPath != "" {
		var err error

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	return app.Run(ctx, cfg)
}
