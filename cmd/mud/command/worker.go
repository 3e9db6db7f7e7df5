package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pixil98/mudsync/internal/commands"
	"github.com/pixil98/mudsync/internal/driver"
	"github.com/pixil98/mudsync/internal/messaging"
	"github.com/pixil98/mudsync/internal/metrics"
	"github.com/pixil98/mudsync/internal/player"
	"github.com/pixil98/mudsync/internal/presence"
	"github.com/pixil98/mudsync/internal/registry"
	"github.com/pixil98/mudsync/internal/storage"
	"github.com/pixil98/mudsync/internal/world"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}
	ctx := context.Background()

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, gatherer = metrics.New(reg), reg
	}

	// Durable store and fast cache
	store, err := cfg.Storage.Durable.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening durable store: %w", err)
	}
	if cfg.World.Assets != nil {
		if err := seedWorld(ctx, cfg.World.Assets, store); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	fast, closeCache, err := cfg.Storage.Cache.open(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	workers := service.WorkerList{}

	// Room channels
	var bus messaging.Bus = messaging.NewLocalBus()
	if cfg.Nats.Embedded {
		ns, err := cfg.Nats.buildNatsServer()
		if err != nil {
			return nil, fmt.Errorf("creating nats server: %w", err)
		}
		workers["nats"] = ns
		bus = ns
	}

	reg := registry.New(registry.WithMetrics(m))
	router := presence.NewRouter(reg, messaging.NewRoomPublisher(bus), presence.WithMetrics(m))

	graph := world.NewRoomGraph(fast, store, m)
	sessions := world.NewSessionStore(fast, store, reg, m)
	renderer := world.NewRenderer(graph, store, reg)

	handler := commands.NewHandler(commands.Deps{
		Accounts:  store,
		Store:     store,
		Graph:     graph,
		Sessions:  sessions,
		Renderer:  renderer,
		Mover:     world.NewMover(graph, sessions, renderer),
		Inventory: world.NewInventory(store, sessions),
		Registry:  reg,
		Router:    router,
		Metrics:   m,
	})

	pm := player.NewManager(handler,
		player.WithOutboundBuffer(cfg.World.OutboundBuffer),
		player.WithManagerMetrics(m),
	)
	interval, err := cfg.World.checkpointInterval()
	if err != nil {
		return nil, err
	}
	workers["sessions"] = &sessionWorker{
		pm:      pm,
		driver:  driver.New([]driver.Ticker{world.NewCheckpointer(sessions, reg)}, driver.WithTickLength(interval)),
		closers: []func() error{closeCache, store.Close},
	}

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		listener, err := l.BuildListener(pm, gatherer)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = listener
	}
	workers["listeners"] = &listeners

	return workers, nil
}

func seedWorld(ctx context.Context, assets *AssetsConfig, dst storage.Seeder) error {
	w, err := storage.LoadWorld(assets.Rooms, assets.Items, assets.Players)
	if err != nil {
		return fmt.Errorf("loading world assets: %w", err)
	}
	if err := w.Seed(ctx, dst); err != nil {
		return fmt.Errorf("seeding durable store: %w", err)
	}
	slog.InfoContext(ctx, "seeded world", "rooms", len(w.Rooms.GetAll()), "items", len(w.Items.GetAll()), "players", len(w.Players.GetAll()))
	return nil
}

// sessionWorker runs the session manager and the checkpoint driver, and releases the stores once
// every session has flushed.
type sessionWorker struct {
	pm      *player.Manager
	driver  *driver.Driver
	closers []func() error
}

func (w *sessionWorker) Start(ctx context.Context) error {
	driverDone := make(chan error, 1)
	go func() { driverDone <- w.driver.Start(ctx) }()

	err := w.pm.Start(ctx)
	if derr := <-driverDone; derr != nil {
		slog.ErrorContext(ctx, "checkpoint driver stopped", "error", derr)
	}
	for _, c := range w.closers {
		if cerr := c(); cerr != nil {
			slog.WarnContext(ctx, "closing store", "error", cerr)
		}
	}
	return err
}
