package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/feed"
	"main/internal/ingest/binance"
	"main/internal/mdg"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/registry"
	"main/internal/relay"
	"main/internal/transport"
	"main/pkg/conn"
)

func main() {
	if err := run(); err != nil && err != context.Canceled {
		logs.Errorf("sigd: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "config file path (JSON)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := ops.Load(*configFlag)
	if err != nil {
		return err
	}

	if cfg.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: appName(cfg),
			ServerAddress:   cfg.Profiling.ServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	reg, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	logs.Infof("sigd: %d symbols, %d presets", len(reg.Symbols()), reg.PresetCount())

	metrics := obs.NewMetrics()
	rl := relay.New(cfg.Relay.BacklogCeilingBytes, metrics)

	var wg sync.WaitGroup

	hub := transport.NewHub(transport.Options{
		Addr:        cfg.Transport.Addr,
		Path:        cfg.Transport.Path,
		QueueSize:   cfg.Transport.QueueSize,
		IdleTimeout: time.Duration(cfg.Transport.IdleTimeoutMs) * time.Millisecond,
	}, rl)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hub.Run(ctx); err != nil && err != context.Canceled {
			logs.Errorf("sigd: transport stopped, err: %+v", err)
			stop()
		}
	}()

	for _, sym := range reg.Symbols() {
		actor, err := buildActor(cfg, reg, sym, rl, metrics)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = actor.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		reportMetrics(ctx, metrics, rl)
	}()

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func appName(cfg ops.FileConfig) string {
	if cfg.Profiling.AppName != "" {
		return cfg.Profiling.AppName
	}
	return "sigd"
}

// buildRegistry merges inline config symbols/presets with the Postgres
// registry when one is configured. Database rows win on conflict.
func buildRegistry(ctx context.Context, cfg ops.FileConfig) (*registry.Registry, error) {
	symbols := cfg.Registry.Symbols
	presets := cfg.Registry.Presets

	if cfg.Registry.Postgres != nil {
		client, err := conn.New(*cfg.Registry.Postgres)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = client.Close()
		}()

		store := registry.NewStore(client.DB())
		if err := store.Migrate(); err != nil {
			return nil, err
		}
		dbSymbols, dbPresets, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, dbSymbols...)
		presets = append(presets, dbPresets...)
	}

	return registry.New(symbols, presets), nil
}

func buildActor(cfg ops.FileConfig, reg *registry.Registry, sym registry.Symbol, rl *relay.Relay, metrics *obs.Metrics) (*feed.Actor, error) {
	platform, ok := enum.ParsePlatform(sym.Venue)
	if !ok {
		return nil, errors.Errorf("unknown venue %q for symbol %s", sym.Venue, sym.Name)
	}
	preset := reg.Resolve(sym)

	var src feed.Source
	switch platform {
	case enum.PlatformSynthetic:
		src = mdg.NewGenerator(mdg.Config{Symbol: sym.Name})
	default:
		mode := binance.ModeTopOfBook
		if sym.Mode == "depth" {
			mode = binance.ModeDepth
		}
		src = binance.NewPublic(platform, sym.Name, mode, metrics)
	}

	opt := feed.Options{
		Symbol:         sym.Name,
		Platform:       platform,
		DepthLimit:     sym.DepthCap,
		QueueCapacity:  cfg.Feeds.QueueCapacity,
		ReconnectDelay: time.Duration(cfg.Feeds.ReconnectDelayMs) * time.Millisecond,
		IdleTimeout:    time.Duration(cfg.Feeds.IdleTimeoutMs) * time.Millisecond,
		Features:       preset.Features,
		Signal:         preset.Signal,
	}
	return feed.NewActor(opt, src, rl, metrics), nil
}

func reportMetrics(ctx context.Context, metrics *obs.Metrics, rl *relay.Relay) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := metrics.Snapshot()
			logs.Infof("sigd: subscribers=%d updates=%v signals=%d delivered=%d skipped=%d gaps=%d resyncs=%d drops=%d latency_avg=%s",
				rl.Count(), snap.UpdateCounts, snap.SignalsEmitted, snap.RelayDelivered,
				snap.RelaySkipped, snap.SequenceGaps, snap.Resyncs, snap.DecodeDrops, snap.FeedLatency.Avg)
		}
	}
}
