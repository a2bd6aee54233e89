package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/listings/internal/api"
	"github.com/erazemk/listings/internal/catalog"
	"github.com/erazemk/listings/internal/config"
	"github.com/erazemk/listings/internal/db"
	"github.com/erazemk/listings/internal/gallery"
	"github.com/erazemk/listings/internal/gate"
	"github.com/erazemk/listings/internal/repository"
	"github.com/erazemk/listings/internal/scheduler"
	"github.com/erazemk/listings/internal/source"
	"github.com/erazemk/listings/internal/store"
	"github.com/erazemk/listings/internal/web"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to
// stderr. When file is set, every record is also written there.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
	file   slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if lr.file != nil {
		if err := lr.file.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
	if lr.file != nil {
		out.file = lr.file.WithAttrs(attrs)
	}
	return out
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	out := &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
	if lr.file != nil {
		out.file = lr.file.WithGroup(name)
	}
	return out
}

// consoleHandler colors output for terminals and falls back to plain text
// otherwise.
func consoleHandler(f *os.File, opts *slog.HandlerOptions) slog.Handler {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return tint.NewHandler(f, &tint.Options{Level: opts.Level, TimeFormat: time.DateTime})
	}
	return slog.NewTextHandler(f, opts)
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	handler := &levelRouter{
		stdout: consoleHandler(os.Stdout, opts),
		stderr: consoleHandler(os.Stderr, opts),
	}

	var cleanup func()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		handler.file = slog.NewTextHandler(f, opts)
	}

	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	// A missing .env is fine; anything else is worth knowing about.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: reading .env: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "hash" {
		os.Exit(runHash(os.Args[2:], os.Stdout, os.Stderr))
	}

	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			config.Usage(os.Stdout)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		config.Usage(os.Stderr)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// Session signing key, generated on first run.
	secret, err := store.SessionSecret(context.Background(), database)
	if err != nil {
		return err
	}

	backend := store.NewSQLite(database)
	src := source.New(cfg.SourceLocation())
	cat := catalog.New(src, backend)

	var prober gallery.Prober = gallery.FSProber{FS: os.DirFS(cfg.PublicDir)}
	if cfg.AssetsURL != "" {
		prober = gallery.NewHTTPProber(cfg.AssetsURL, nil)
	}
	resolver := gallery.NewResolver(prober, cfg.GalleryTTL)

	server := &web.Server{
		DB:            database,
		Secret:        secret,
		Catalog:       cat,
		Repo:          repository.New(backend),
		Gallery:       resolver,
		Gate:          gate.New(cfg.Gate(), backend),
		PublicDir:     cfg.PublicDir,
		LocalAssets:   cfg.AssetsURL == "",
		SecureCookies: cfg.SecureCookies,
	}
	if file, ok := src.(*source.File); ok {
		server.Publisher = file
	}

	props, origin := cat.Load(context.Background())
	slog.Info("properties loaded", "count", len(props), "origin", string(origin), "source", cfg.SourceLocation())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	jobs := scheduler.New()
	if cfg.Refresh != "" {
		if err := jobs.Add(ctx, "refresh properties", cfg.Refresh, scheduler.Refresh(cat)); err != nil {
			return err
		}
	}
	if err := jobs.Add(ctx, "purge revoked sessions", "@hourly", scheduler.PurgeTokens(database)); err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop(5 * time.Second)

	webRouter, err := web.NewRouter(server)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(cat, resolver, cfg.APIOrigins))
	mux.Handle("/", webRouter)

	handler := middleware.RequestID(middleware.RealIP(api.LoggingMiddleware(middleware.Recoverer(mux))))

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())
		stop()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// runHash prints the password_hash (and salt) settings for a password.
func runHash(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("hash", flag.ContinueOnError)
	flags.SetOutput(stderr)
	salt := flags.String("salt", gate.DefaultSalt, "salt appended to the password before hashing")
	useBcrypt := flags.Bool("bcrypt", false, "use bcrypt instead of salted SHA-256")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: listings hash [-salt <salt>] [-bcrypt] <password>")
		return 1
	}
	password := flags.Arg(0)

	if *useBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(stderr, "error: hashing password: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "password_hash: %q\n", hash)
		return 0
	}

	fmt.Fprintf(stdout, "password_hash: %s\nsalt: %q\n", gate.HashPassword(password, *salt), *salt)
	return 0
}
