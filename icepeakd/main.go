package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/silky/icepeak/icepeak"
)

const icepeakdVersion = "0.1.0"

const usage = `Icepeak document store server.

Usage:
    icepeakd [--config=<path>]
        [--data_file=<path>] [--journal_file=<path>] [--journal_backup]
        [--listen=<addr>] [--metrics_listen=<addr>] [--sync_interval=<duration>]
        [--queue_size=<n>]
        [--jwt_secret=<secret>]

Options:
    -h --help                         Show this screen.
    --version                         Show version.
    --config=<path>                   JSONC config file.
    --data_file=<path>                Snapshot file path.
    --journal_file=<path>             Journal file path (optional).
    --journal_backup                  Gzip-archive the journal before each truncate.
    --listen=<addr>                   HTTP/WebSocket listen address.
    --metrics_listen=<addr>           Prometheus metrics listen address.
    --sync_interval=<duration>        Periodic sync interval, e.g. "5s".
    --queue_size=<n>                  Coordinator command queue capacity [default: 4096].
    --jwt_secret=<secret>             HMAC secret bearer tokens are verified against.`

func main() {
	// os.Args belong to docopt below; glog's own flags keep their defaults.
	flag.CommandLine.Parse(nil)
	defer glog.Flush()

	opts, err := docopt.ParseArgs(usage, os.Args[1:], icepeakdVersion)
	if err != nil {
		glog.Exitf("icepeak: %v", err)
	}

	config, err := parseConfig(opts)
	if err != nil {
		glog.Exitf("icepeak: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics := icepeak.NewMetrics(registry)

	persistence, err := icepeak.Load(icepeak.Config{
		DataFile:      config.DataFile,
		JournalFile:   config.JournalFile,
		JournalBackup: config.JournalBackup,
	}, metrics)
	if err != nil {
		glog.Exitf("icepeak: failed to load: %v", err)
	}

	tree := icepeak.NewSubscriptionTree()

	var coordinator *icepeak.Coordinator
	broadcaster := icepeak.NewBroadcaster(4, 1024, func(target icepeak.BroadcastTarget) {
		coordinator.Unsubscribe(target.Path, target.Id)
	})
	queueSizeStr, _ := opts.String("--queue_size")
	queueSize := parseIntDefault(queueSizeStr, 4096)
	coordinator = icepeak.NewCoordinator(persistence, tree, broadcaster, metrics, queueSize, config.syncInterval())

	runCtx, cancelRun := context.WithCancel(context.Background())
	go coordinator.Run(runCtx)

	router := newRouter(coordinator, []byte(config.JwtSecret))
	apiServer := &http.Server{
		Addr:    config.Listen,
		Handler: router,
	}
	go func() {
		glog.Infof("icepeak: listening on %s", config.Listen)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("icepeak: api server: %v", err)
		}
	}()

	metricsServer := &http.Server{
		Addr:    config.MetricsListen,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		glog.Infof("icepeak: metrics on %s", config.MetricsListen)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("icepeak: metrics server: %v", err)
		}
	}()

	waitForShutdownSignal()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	apiServer.Shutdown(shutdownCtx)
	metricsServer.Shutdown(shutdownCtx)

	coordinator.Shutdown()
	cancelRun()
}

func waitForShutdownSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
