package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/investorportal/internal/app"
	"github.com/charlesng35/investorportal/pkg/logger"
)

const (
	defaultShutdownTimeout = 15 * time.Second
	readHeaderTimeout      = 10 * time.Second
	readTimeout            = 30 * time.Second
	idleTimeout            = 2 * time.Minute
)

type options struct {
	configPath  string
	port        int
	migrateOnly bool
	seedPath    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "portal-server: %v\n", err)
		os.Exit(1)
	}
}

func parseOptions(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("portal-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	fs.StringVar(&opts.configPath, "config", "", "config.yaml or the directory holding it")
	fs.IntVar(&opts.port, "port", 0, "listen port, overrides server.port")
	fs.BoolVar(&opts.migrateOnly, "migrate", false, "migrate and seed the database, then exit")
	fs.StringVar(&opts.seedPath, "seed-offerings", "", "import offerings from a YAML or JSON file, then exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.port < 0 || opts.port > 65535 {
		return options{}, fmt.Errorf("invalid -port %d", opts.port)
	}
	return opts, nil
}

func run(ctx context.Context, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}

	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg.Server); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync()

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Warn("generated runtime default; sessions will not survive a restart", zap.String("key", key))
	}

	if opts.seedPath != "" {
		return seedOfferings(ctx, cfg, opts.seedPath, log)
	}
	if opts.migrateOnly {
		return migrateDatabase(ctx, cfg, log)
	}

	if err := ensureSecretsPresent(cfg); err != nil {
		return err
	}

	stack, err := bootstrapRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		stack.Shutdown(shutdownCtx, log)
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           stack.Router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}
	log.Info("portal listening", zap.String("addr", server.Addr), zap.String("base_url", cfg.Server.BaseURL))
	return serve(ctx, server, timeout, log)
}

// serve blocks until the server fails or ctx is cancelled, then drains
// in-flight requests for at most timeout.
func serve(ctx context.Context, server *http.Server, timeout time.Duration, log *zap.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received, draining requests", zap.Duration("timeout", timeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	log.Info("portal stopped")
	return nil
}

// migrateDatabase applies the schema and investor type seed without serving.
func migrateDatabase(ctx context.Context, cfg *app.Config, log *zap.Logger) error {
	db, err := initialiseDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	closeDatabase(db, log)
	log.Info("database migrated and seeded")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	case err != nil:
		return nil, fmt.Errorf("stat config path: %w", err)
	case info.IsDir():
		return app.LoadConfig(path)
	default:
		return app.LoadConfig(filepath.Dir(path))
	}
}

func ensureSecretsPresent(cfg *app.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Auth.JWT.Secret = strings.TrimSpace(cfg.Auth.JWT.Secret)
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be configured")
	}
	if cfg.Email.SMTP.Enabled && strings.TrimSpace(cfg.Email.SMTP.Host) == "" {
		return errors.New("email.smtp.host must be configured when smtp is enabled")
	}
	return nil
}
