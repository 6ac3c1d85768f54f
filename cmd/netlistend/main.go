package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netlistend/internal/api"
	"github.com/dmdmdm-nz/netlistend/internal/mdns"
	"github.com/dmdmdm-nz/netlistend/internal/netmon"
	"github.com/dmdmdm-nz/netlistend/internal/runtime"
	"github.com/dmdmdm-nz/netlistend/pkg/cli"
	"github.com/dmdmdm-nz/netlistend/pkg/netstate"
)

func main() {
	// Parse command line flags
	cfg := cli.ParseFlags()

	// Configure logging
	setLogLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FullTimestamp:   true,
	})

	log.Infof("Config: %s", cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	querier := netmon.NewQuerier()
	opts := []netstate.Option{
		netstate.WithQuerier(querier),
		netstate.WithWatcher(newWatcher(cfg, querier)),
	}
	if cfg.InitialEmit {
		opts = append(opts, netstate.WithInitialEmission())
	}
	observer := netstate.New(opts...)
	manager := observer.Manager()

	manager.AddListener(&netstate.ListenerFuncs{
		Available: func() {
			log.Info("Network available")
		},
		Unavailable: func() {
			log.Warn("Network unavailable")
		},
	})

	// Start in dependency order: netstate → api → mdns
	super := runtime.NewSupervisor()
	super.Add("netstate", func(ctx context.Context) error {
		if err := manager.StartListening(); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	}, observer.Close)

	if cfg.API {
		apiSvc := api.NewService(cfg.Host, cfg.Port, observer)
		super.Add("api", apiSvc.Start, apiSvc.Close)

		if cfg.Advertise {
			advertiser := mdns.NewAdvertiser(cfg.Port)
			manager.AddListener(advertiser)
			super.Add("mdns", advertiser.Start, func() error {
				manager.RemoveListener(advertiser)
				return advertiser.Close()
			})
		}
	} else if cfg.Advertise {
		log.Warn("Ignoring -advertise because the API is disabled")
	}

	if err := super.Start(ctx); err != nil {
		log.WithError(err).Error("Supervisor start failed")
		os.Exit(1)
	}
	if err := super.Wait(ctx); err != nil {
		log.WithError(err).Error("Supervisor wait failed")
		os.Exit(1)
	}
}

func newWatcher(cfg *cli.Config, querier netmon.Querier) netmon.Watcher {
	if cfg.Watcher == cli.WatcherPoll {
		return netmon.NewPollWatcher(cfg.PollInterval, querier)
	}
	return netmon.NewWatcher()
}

func setLogLevel(level string) {
	switch level {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
