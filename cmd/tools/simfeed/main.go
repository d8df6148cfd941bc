// simfeed runs the full pipeline against the synthetic generator and
// prints every emitted signal payload to stdout. No server, no venue
// connectivity; useful for eyeballing scorer behavior.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/feature"
	"main/internal/feed"
	"main/internal/mdg"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/relay"
	sig "main/internal/signal"
)

type stdoutSubscriber struct{}

func (stdoutSubscriber) Send(payload []byte) error {
	_, err := os.Stdout.Write(append(payload, '\n'))
	return err
}

func (stdoutSubscriber) OutboundBacklogBytes() int64 { return 0 }

func main() {
	symbol := flag.String("symbol", "SYNUSDT", "synthetic symbol name")
	interval := flag.Duration("interval", 50*time.Millisecond, "tick interval")
	seed := flag.Int64("seed", 0, "random walk seed")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	metrics := obs.NewMetrics()
	rl := relay.New(0, metrics)
	rl.Subscribe(stdoutSubscriber{})

	src := mdg.NewGenerator(mdg.Config{
		Symbol:   *symbol,
		Interval: *interval,
		Seed:     *seed,
	})
	actor := feed.NewActor(feed.Options{
		Symbol:   *symbol,
		Platform: enum.PlatformSynthetic,
		Features: feature.DefaultConfig(),
		Signal:   sig.DefaultConfig(),
	}, src, rl, metrics)

	_ = actor.Run(ctx)

	snap := metrics.Snapshot()
	logs.Infof("simfeed: done, updates=%v signals=%d", snap.UpdateCounts, snap.SignalsEmitted)
}
