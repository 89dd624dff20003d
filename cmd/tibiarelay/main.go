package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tibiarelay/internal/audit"
	"github.com/udisondev/tibiarelay/internal/clientstate"
	"github.com/udisondev/tibiarelay/internal/config"
	"github.com/udisondev/tibiarelay/internal/events"
	"github.com/udisondev/tibiarelay/internal/metrics"
	"github.com/udisondev/tibiarelay/internal/packets"
	"github.com/udisondev/tibiarelay/internal/relay"
	"github.com/udisondev/tibiarelay/internal/telemetry"
)

const ConfigPath = "config/tibiarelay.yaml"

// openAudit is replaced in tests.
var openAudit = audit.Open

func main() {
	cfgPath := flag.String("config", ConfigPath, "path to the relay config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tibiarelay [-config path] [run | types | audit <session-id>]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	path := *cfgPath
	if p := os.Getenv("TIBIARELAY_CONFIG"); p != "" {
		path = p
	}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "", "run":
		err = run(ctx, path)
	case "types":
		listTypes(packets.DefaultRegistry())
	case "audit":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = dumpAudit(ctx, path, flag.Arg(1))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Relay, error) {
	cfg, err := config.LoadRelay(path)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	slog.Info("tibiarelay starting", "bind", cfg.BindAddress, "port", cfg.Port, "checksum", cfg.Checksum)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// app holds every component of a running relay. Nothing runs until Run.
type app struct {
	cfg      config.Relay
	engine   *relay.Engine
	registry *prometheus.Registry
	store    audit.Store // nil when audit is off
	recorder *audit.Recorder
	mqtt     *telemetry.Publisher
}

// newApp builds and binds everything. On error whatever was opened is
// closed again.
func newApp(ctx context.Context, cfg config.Relay) (_ *app, err error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	state, err := clientstate.FromConfig(cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("client state: %w", err)
	}

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.registry)

	evs := events.NewRegistry()
	notifiers := events.Notifiers{
		events.NotifierFunc(func(n events.Notification) {
			slog.Info("session event", "kind", n.Kind.String(), "session", n.SessionID, "message", n.Message)
		}),
	}

	if cfg.Audit.Enabled {
		a.store, err = openAudit(ctx, cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		slog.Info("audit store ready", "driver", cfg.Audit.Driver)

		a.recorder = audit.NewRecorder(a.store, cfg.Audit.QueueSize, cfg.Audit.BatchSize, cfg.Audit.FlushInterval)
		for _, dir := range []packets.Direction{packets.Incoming, packets.Outgoing, packets.LoginResponse} {
			evs.AddTap(dir, a.recorder.Tap)
		}
		notifiers = append(notifiers, a.recorder)
	}

	if cfg.MQTT.Enabled {
		a.mqtt = telemetry.NewPublisher(cfg.MQTT)
		notifiers = append(notifiers, a.mqtt)
	}

	a.engine, err = relay.New(cfg, state,
		relay.WithEvents(evs),
		relay.WithNotifier(notifiers),
		relay.WithMetrics(m),
		relay.WithItemTraits(clientstate.NewItemSet(cfg.Client.CountableItems...)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating relay: %w", err)
	}
	if err := a.engine.Listen(); err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}
	slog.Info("relay listening", "addr", a.engine.Addr())
	return a, nil
}

// Run serves until ctx is cancelled or a component fails, then closes the
// audit store once every goroutine has stopped.
func (a *app) Run(ctx context.Context) error {
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)

	if a.recorder != nil {
		g.Go(func() error {
			return a.recorder.Run(gctx)
		})
	}

	if a.mqtt != nil {
		// брокер не обязателен: без него релей продолжает работать
		g.Go(func() error {
			if err := a.mqtt.Run(gctx); err != nil {
				slog.Warn("MQTT telemetry disabled", "error", err)
			}
			return nil
		})
	}

	if a.cfg.Metrics.Enabled {
		g.Go(func() error {
			return serveMetrics(gctx, a.cfg.Metrics.Address, a.registry)
		})
	}

	g.Go(func() error {
		if err := a.engine.Run(gctx); err != nil {
			return fmt.Errorf("relay: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("closing audit store", "error", err)
		}
		a.store = nil
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	slog.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
