// Command nagwatch serves the live status view (internal/repowatch) for the
// repository discovered from the current directory.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nagvcs/nag/internal/nagcli"
	"github.com/nagvcs/nag/internal/nagcore"
	"github.com/nagvcs/nag/internal/repowatch"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4173", "address to serve the live status view on")
	logFile := flag.String("log-file", "", "rotate logs to this path instead of stderr")
	flag.Parse()

	logger := nagcli.NewFileLogger(*logFile)

	h, err := nagcore.DiscoverRepo(".")
	if err != nil {
		logger.Error("discovering repository", "err", err)
		os.Exit(1)
	}
	oracle, err := nagcore.LoadIgnoreOracle(h)
	if err != nil {
		logger.Error("loading ignore oracle", "err", err)
		os.Exit(1)
	}
	store := nagcore.NewObjectStore(h)

	cfg, err := nagcore.LoadConfig(h)
	if err != nil {
		logger.Error("loading config", "err", err)
		os.Exit(1)
	}

	watch := repowatch.New(h, store, oracle, cfg, logger)
	if err := watch.Start(); err != nil {
		logger.Error("starting watcher", "err", err)
		os.Exit(1)
	}
	defer watch.Close()

	srv := &http.Server{Addr: *addr, Handler: watch.Handler()}

	go func() {
		logger.Info("serving live status", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	_ = srv.Close()
}
