// Package main runs LiveWeave bindings from a configuration file, printing
// every emission as a JSON line and sharing signals over NATS.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	ossignal "os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/makalin/LiveWeave/binding"
	"github.com/makalin/LiveWeave/config"
	"github.com/makalin/LiveWeave/health"
	"github.com/makalin/LiveWeave/metric"
	"github.com/makalin/LiveWeave/natsclient"
	"github.com/makalin/LiveWeave/pkg/tlsutil"
	"github.com/makalin/LiveWeave/signal"
	"github.com/makalin/LiveWeave/stream"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "liveweave"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cliCfg, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp(stderr, fs)
		return nil
	}

	// logs go to stderr; stdout carries the rendered records
	logger := setupLogger(stderr, cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		logger.Info("Configuration is valid", "bindings", len(cfg.Bindings))
		return nil
	}

	logger.Info("Starting LiveWeave",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, stdout, logger)
	if err != nil {
		return err
	}
	return a.run(ctx, cliCfg.ShutdownTimeout)
}

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// app wires the configured services together.
type app struct {
	logger   *slog.Logger
	registry *metric.MetricsRegistry
	monitor  *health.Monitor
	nats     *natsclient.Client
	bus      *signal.Bus
	runner   *binding.Runner
	server   *metric.Server
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger, registry: metric.NewMetricsRegistry(), monitor: health.NewMonitor()}

	channel, err := a.signalChannel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.bus = signal.NewBus(
		signal.WithChannel(channel),
		signal.WithLogger(logger),
		signal.WithMetrics(a.registry),
	)
	for name, value := range cfg.Signals.Initial {
		if err := a.bus.Set(name, value); err != nil {
			return nil, fmt.Errorf("seed signal %s: %w", name, err)
		}
	}

	opener, err := newOpener(cfg, a.registry, logger)
	if err != nil {
		return nil, err
	}

	metrics, err := binding.NewMetrics(a.registry)
	if err != nil {
		logger.Warn("binding metrics disabled", "error", err)
		metrics = nil
	}
	a.runner = binding.NewRunner(binding.WithLogger(logger))
	con := newConsole(out, logger)
	for _, opts := range cfg.Bindings {
		b, err := binding.New(con.element(opts.ID), opts, opener, a.bus,
			binding.WithLogger(logger), binding.WithMetrics(metrics))
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", opts.ID, err)
		}
		if err := a.runner.Add(b); err != nil {
			return nil, err
		}
	}

	a.server = metric.NewServer(cfg.HTTP.Addr, cfg.HTTP.MetricsPath, a.registry)
	mountRoutes(a.server, a.registry, a.runner, a.bus, a.monitor, logger)
	return a, nil
}

// signalChannel connects to NATS when signals are shared over it. Other
// channel kinds need no transport.
func (a *app) signalChannel(ctx context.Context, cfg *config.Config) (signal.Channel, error) {
	// memory and none keep signals inside this process
	if !strings.EqualFold(cfg.Signals.Channel, config.ChannelNATS) {
		return nil, nil
	}

	opts := []natsclient.ClientOption{
		natsclient.WithLogger(a.logger),
		natsclient.WithMetrics(a.registry),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
		natsclient.WithHealthChangeCallback(func(ok bool) {
			a.monitor.UpdateFromBool("nats", ok, "connection lost")
		}),
	}
	if cfg.NATS.Name != "" {
		opts = append(opts, natsclient.WithName(cfg.NATS.Name))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	tlsConfig, err := tlsutil.LoadClientConfig(cfg.NATS.TLS)
	if err != nil {
		return nil, fmt.Errorf("nats tls: %w", err)
	}
	if tlsConfig != nil {
		opts = append(opts, natsclient.WithTLS(tlsConfig))
	}

	client, err := natsclient.NewClient(strings.Join(cfg.NATS.URLs, ","), opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	a.logger.Info("Connecting to NATS")
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		_ = client.Close(context.Background())
		return nil, fmt.Errorf("NATS connection timeout: %w", err)
	}

	a.nats = client
	return signal.NewNATSChannel(client, cfg.Signals.Subject), nil
}

// newOpener builds the stream opener with the configured base and cookies.
func newOpener(cfg *config.Config, registry *metric.MetricsRegistry, logger *slog.Logger) (*stream.Opener, error) {
	base, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}

	tlsConfig, err := tlsutil.LoadClientConfig(cfg.Stream.TLS)
	if err != nil {
		return nil, fmt.Errorf("stream tls: %w", err)
	}

	opts := []stream.Option{
		stream.WithBase(base),
		stream.WithEventReconnect(cfg.Stream.EventReconnect),
		stream.WithLogger(logger),
		stream.WithMetrics(registry),
	}

	if len(cfg.Stream.Cookies) > 0 {
		if base == nil {
			return nil, fmt.Errorf("stream.cookies requires stream.base")
		}
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		cookies := make([]*http.Cookie, 0, len(cfg.Stream.Cookies))
		for name, value := range cfg.Stream.Cookies {
			cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
		}
		jar.SetCookies(base, cookies)
		opts = append(opts, stream.WithCookieJar(jar))
	}

	if tlsConfig != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		dialer := *websocket.DefaultDialer
		dialer.TLSClientConfig = tlsConfig
		opts = append(opts, stream.WithHTTPClient(&http.Client{Transport: transport}), stream.WithDialer(&dialer))
	}

	return stream.NewOpener(opts...), nil
}

// run serves HTTP and the bindings until ctx ends, then shuts down within
// timeout.
func (a *app) run(ctx context.Context, timeout time.Duration) error {
	if err := a.bus.Start(ctx); err != nil {
		return fmt.Errorf("start signal bus: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", a.server.Address())
		return a.server.Start()
	})
	g.Go(func() error {
		attached, err := a.runner.Start(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("LiveWeave started", "bindings", attached)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return a.shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info("LiveWeave shutdown complete")
	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	var errs []error
	if err := a.runner.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.bus.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.server.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.nats != nil {
		if err := a.nats.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
