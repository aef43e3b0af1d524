package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cclink/internal/app"
	"cclink/internal/config"
)

const usage = `Usage:
  cclink serve -db <path> [-port <port>] [-base-url <url>] [-index <path>] [-config <path>]
  cclink ls -db <path>`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	switch args[0] {
	case "serve":
		cfg, err := parseServeFlags(args[1:])
		if err != nil {
			return err
		}
		return app.Run(ctx, cfg)
	case "ls":
		fs := flag.NewFlagSet("ls", flag.ContinueOnError)
		dbPath := fs.String("db", "", "path to the database file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *dbPath == "" {
			return errors.New("ls: -db is required")
		}
		return app.ListMappings(ctx, os.Stdout, *dbPath)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// parseServeFlags loads the optional YAML config and overlays the
// command-line flags on top of it. Flags take priority.
func parseServeFlags(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)

	var (
		configPath = fs.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
		dbPath     = fs.String("db", "", "path to the database file")
		port       = fs.Int("port", 0, "port to listen on")
		baseURL    = fs.String("base-url", "", "base URL for shortened links")
		indexPath  = fs.String("index", "", "path to an html file to serve on the root path")
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	if *dbPath != "" {
		cfg.SQLite.Path = *dbPath
	}
	if *port != 0 {
		cfg.HTTPServer.Port = *port
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *indexPath != "" {
		cfg.IndexPath = *indexPath
	}

	if cfg.SQLite.Path == "" {
		return nil, errors.New("serve: a database path is required (-db flag or sqlite.path in config)")
	}

	return cfg, nil
}
