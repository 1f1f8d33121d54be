package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/probectl/internal/config"
	"github.com/danmuck/probectl/internal/logging"
	"github.com/danmuck/probectl/internal/session"
	"github.com/danmuck/probectl/internal/sysinfo"
)

func main() {
	configPath := flag.String("config", "data/probectl.toml", "path to the agent config file")
	fetchURL := flag.String("fetch", "", "fetch a config document from this bootstrap URL, persist it, and exit")
	template := flag.Bool("template", false, "write a starter config template and exit")
	force := flag.Bool("force", false, "overwrite an existing file with -template")
	flag.Parse()

	logging.ConfigureRuntime()

	if err := run(*configPath, *fetchURL, *template, *force); err != nil {
		fmt.Fprintf(os.Stderr, "probectl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, fetchURL string, template, force bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if template {
		return config.WriteTemplate(configPath, force)
	}
	if fetchURL != "" {
		return config.Fetch(ctx, fetchURL, configPath)
	}

	doc, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := config.EnsureIdentity(configPath, &doc); err != nil {
		return err
	}
	runtime := config.Resolve(doc)

	engine, err := session.NewEngine(session.Config{
		Endpoints:          runtime.Endpoints,
		Token:              runtime.Token,
		Identity:           runtime.Identity,
		Interval:           runtime.Interval,
		CheckServerVersion: runtime.CheckServerVersion,
		StatisticsEnabled:  runtime.StatisticsEnabled,
	}, sysinfo.NewCollector())
	if err != nil {
		return err
	}

	err = engine.Run(ctx)
	var term *session.TerminalError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &term):
		return fmt.Errorf("server ended session: %w", err)
	default:
		return err
	}
}
