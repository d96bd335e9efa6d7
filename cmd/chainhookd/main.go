// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Command chainhookd wires the predicate evaluation and dispatch engine
// (spec §1) to a concrete status store, block index, and ops HTTP surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	goredis "github.com/go-redis/redis"
	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/omahs/chainhook/blockstore"
	"github.com/omahs/chainhook/metrics"
	"github.com/omahs/chainhook/opsapi"
	"github.com/omahs/chainhook/orchestrator"
	"github.com/omahs/chainhook/scan"
	"github.com/omahs/chainhook/status"
)

var (
	version   string
	gitCommit string
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "chainhookd",
		Usage:   "predicate evaluation and dispatch daemon",
		Flags:   []cli.Flag{configFlag, verbosityFlag, noBarFlag},
		Action:  run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger(ctx *cli.Context) {
	handler := ethlog.NewGlogHandler(ethlog.StreamHandler(os.Stderr, ethlog.TerminalFormat(true)))
	handler.Verbosity(ethlog.Lvl(ctx.Int(verbosityFlag.Name)))
	ethlog.Root().SetHandler(handler)
}

func run(cliCtx *cli.Context) error {
	initLogger(cliCtx)
	log := ethlog.New("pkg", "main")

	cfg, err := LoadConfig(cliCtx.String(configFlag.Name))
	if err != nil {
		return err
	}

	store, err := openStatusStore(cfg)
	if err != nil {
		return err
	}

	baseBlocks, err := blockstore.Open(filepath.Join(cfg.DataDir, "base"))
	if err != nil {
		return err
	}
	defer baseBlocks.Close()

	appBlocks, err := blockstore.Open(filepath.Join(cfg.DataDir, "app"))
	if err != nil {
		return err
	}
	defer appBlocks.Close()

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel, log)

	baseQueue := make(chan scan.Job, 64)
	appQueue := make(chan scan.Job, 64)
	published := make(chan scan.Published, 64)

	baseWorker := &scan.Worker{Chain: status.ChainBase, Blocks: baseBlocks, Status: store, Client: http.DefaultClient, Queue: baseQueue, Published: published, ShowBar: !cliCtx.Bool(noBarFlag.Name)}
	appWorker := &scan.Worker{Chain: status.ChainApp, Blocks: appBlocks, Status: store, Client: http.DefaultClient, Queue: appQueue, Published: published, ShowBar: !cliCtx.Bool(noBarFlag.Name)}

	refresher := newArchiveRefresher(cfg, appBlocks, log)

	events := make(chan orchestrator.ObserverEvent, 64)
	orch := &orchestrator.Orchestrator{
		Network:    cfg.Network,
		Status:     store,
		BaseQueue:  baseQueue,
		AppQueue:   appQueue,
		AppBlocks:  appBlocks,
		BaseTipLow: cfg.BaseTipLow,
		AppTipLow:  cfg.AppTipLow,
	}
	if refresher != nil {
		orch.RefreshArchive = refresher.Refresh
	}

	opsSrv := &opsapi.Server{Status: store}

	// The cooperating tasks of spec §5 "Scheduling" — orchestrator loop,
	// two scan workers, the published-event drain, and the ops HTTP
	// surface — share one errgroup so a fatal failure in any one cancels
	// the rest and the group drains cleanly on return (spec §4.6
	// "Terminate — drain and exit").
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { baseWorker.Run(gctx); return nil })
	group.Go(func() error { appWorker.Run(gctx); return nil })
	group.Go(func() error { drainPublished(gctx, published, events, log); return nil })
	group.Go(func() error { return opsapi.Serve(gctx, cfg.APIAddr, opsSrv) })
	group.Go(func() error { return orch.Run(gctx, events) })

	log.Info("chainhookd started", "network", cfg.Network, "api", cfg.APIAddr)
	err = group.Wait()
	log.Info("exited")
	return err
}

func openStatusStore(cfg *Config) (status.Store, error) {
	if cfg.RedisAddr == "" {
		return status.NewMemoryStore(), nil
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping().Err(); err != nil {
		return nil, err
	}
	return status.NewRedisStore(client), nil
}

// drainPublished bridges scan worker completion/expiry events into the
// orchestrator's event loop (spec §4.5 scan->stream handoff, §4.6
// PredicateEnabled/PredicateExpired handlers).
func drainPublished(ctx context.Context, ch <-chan scan.Published, events chan<- orchestrator.ObserverEvent, log ethlog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-ch:
			log.Info("scan worker published event", "uuid", p.UUID, "enabled", p.Enabled, "expired", p.Expired)
			if p.Spec == nil {
				continue
			}
			var ev orchestrator.ObserverEvent
			switch {
			case p.Enabled:
				ev = orchestrator.PredicateEnabled(p.Spec)
			case p.Expired:
				ev = orchestrator.PredicateExpired(p.Spec)
			default:
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func handleSignals(cancel context.CancelFunc, log ethlog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received signal, shutting down", "signal", sig.String())
	cancel()
}
