package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"cclink/internal/config"
	"cclink/internal/database/sqlite"
	"cclink/internal/service"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	myhttp "cclink/internal/api/http"
)

// Run starts the HTTP gateway and blocks until ctx is canceled or the
// server fails. The mapping store is opened and migrated before the
// first request is accepted.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	db, err := sqlite.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("%s: failed to open database: %w", op, err)
	}
	defer db.Close()

	if err := sqlite.RunMigrations(cfg.SQLite.Path); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	var index []byte
	if cfg.IndexPath != "" {
		index, err = readIndexFile(cfg.IndexPath)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	repo := sqlite.NewMappingRepository(db)
	svc := service.NewMappingService(repo, cfg.ShortCodeLength)

	logger := httplog.NewLogger("cclink", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  true,
	})

	r := myhttp.NewRouter(logger, svc, index)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	logger.Info("starting cclink",
		slog.String("base_url", cfg.BaseURL),
		slog.String("addr", server.Addr),
		slog.String("db", cfg.SQLite.Path),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// ListMappings prints every stored mapping and a count to w. It is the
// operator-facing "ls" entry point and refuses to create a database that
// does not already exist.
func ListMappings(ctx context.Context, w io.Writer, path string) error {
	const op = "app.ListMappings"

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%s: database file does not exist or is not a file: %s", op, path)
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return fmt.Errorf("%s: failed to open database: %w", op, err)
	}
	defer db.Close()

	repo := sqlite.NewMappingRepository(db)

	mappings, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to list mappings: %w", op, err)
	}

	plural := "s"
	if len(mappings) == 1 {
		plural = ""
	}
	fmt.Fprintf(w, "%d mapping%s found in %s:\n", len(mappings), plural, path)

	for _, m := range mappings {
		fmt.Fprintf(w, "  %s -> %s\n", m.Code, m.OriginalURL)
	}

	return nil
}

func readIndexFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("index file does not exist or is not a file: %s", path)
	}

	index, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	return index, nil
}
