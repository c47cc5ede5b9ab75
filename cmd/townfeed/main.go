package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"townfeed/internal/config"
	"townfeed/internal/feed"
	appLog "townfeed/internal/log"
	"townfeed/internal/source"
	"townfeed/internal/store/postgres"
	"townfeed/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	dump       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("townfeed starting",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"institutions", len(conf.Institutions),
		"community_items", len(conf.Community),
		"storage", conf.Database.DSN != "",
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	f := feed.New(
		source.NewMarket(conf.Market),
		source.NewInstitutions(conf.Institutions),
		source.NewCommunity(conf.Community),
	)

	// Optional persistence collaborator. A storage fault disables the
	// writer but never stops the service.
	var writer *postgres.Writer
	if conf.Database.DSN != "" {
		db, derr := postgres.Connect(ctx, conf.Database.DSN)
		if derr != nil {
			appLog.Error("database connect failed, storage disabled", derr)
		} else {
			defer db.Close()
			if serr := db.EnsureSchema(ctx); serr != nil {
				appLog.Error("schema setup failed, storage disabled", serr)
			} else {
				writer = postgres.NewWriter(db)
			}
		}
	}

	srv := web.NewServer(conf, f)

	refresh := func() {
		events := srv.Refresh()
		if writer == nil {
			return
		}
		sctx, scancel := context.WithTimeout(ctx, 10*time.Second)
		defer scancel()
		if n, werr := writer.UpsertBatch(sctx, events); werr != nil {
			appLog.Error("feed store failed", werr, "events", len(events))
		} else {
			appLog.Debug("feed stored", "rows", n)
		}
	}

	refresh()

	if flags.once {
		if flags.dump {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if derr := enc.Encode(srv.Refresh()); derr != nil {
				appLog.Error("dump failed", derr)
				os.Exit(1)
			}
		}
		appLog.Info("single-shot run complete")
		return
	}

	sched := cron.New()
	if _, cerr := sched.AddFunc(conf.RefreshCron, refresh); cerr != nil {
		appLog.Error("invalid refresh cron expression", cerr, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: srv.Handler(),
	}
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if herr := httpSrv.ListenAndServe(); herr != nil && !errors.Is(herr, http.ErrServerClosed) {
			appLog.Error("http server failed", herr)
			cancel()
		}
	}()

	<-ctx.Done()

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	if herr := httpSrv.Shutdown(shCtx); herr != nil {
		appLog.Error("http shutdown failed", herr)
	}
	appLog.Info("townfeed exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/townfeed/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one aggregation cycle and exit")
	flag.BoolVar(&cfg.dump, "dump", false, "With -once, print the aggregated feed as JSON")

	flag.Parse()

	return cfg
}
