package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmdmdm-nz/netlistend/pkg/version"
)

const (
	WatcherAuto = "auto"
	WatcherPoll = "poll"
)

// Config holds the application configuration from CLI flags
type Config struct {
	Port         int
	Host         string
	LogLevel     string
	Watcher      string
	PollInterval time.Duration
	API          bool
	Advertise    bool
	InitialEmit  bool
}

// ParseFlags parses command line arguments and returns a Config
func ParseFlags() *Config {
	cfg, showVersion, err := parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if showVersion {
		fmt.Printf("netlistend version %s (commit: %s, built at: %s)\n",
			version.Version,
			version.CommitHash,
			version.BuildTime)
		os.Exit(0)
	}

	return cfg
}

func parse(fs *flag.FlagSet, args []string) (*Config, bool, error) {
	cfg := &Config{}

	fs.IntVar(&cfg.Port, "port", 60106, "Port to listen on")
	fs.StringVar(&cfg.Host, "host", "127.0.0.1", "Host to bind to")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&cfg.Watcher, "watcher", WatcherAuto, "Change source (auto: OS notifications, poll: periodic query)")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", 5*time.Second, "Query interval for the poll watcher")
	fs.BoolVar(&cfg.API, "api", true, "Serve the HTTP/websocket status API")
	fs.BoolVar(&cfg.Advertise, "advertise", false, "Advertise the API over mDNS while the network is available")
	fs.BoolVar(&cfg.InitialEmit, "initial-emit", false, "Publish the current state as soon as the first stream client attaches")
	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, *showVersion, nil
}

// Validate checks values flag parsing cannot.
func (c *Config) Validate() error {
	switch c.Watcher {
	case WatcherAuto, WatcherPoll:
	default:
		return fmt.Errorf("invalid -watcher %q: must be %s or %s", c.Watcher, WatcherAuto, WatcherPoll)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid -poll-interval %s: must be positive", c.PollInterval)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid -port %d", c.Port)
	}
	return nil
}

// String returns a string representation of the Config
func (c *Config) String() string {
	return fmt.Sprintf("Host: %s, Port: %d, LogLevel: %s, Watcher: %s, PollInterval: %s, API: %t, Advertise: %t, InitialEmit: %t",
		c.Host, c.Port, c.LogLevel, c.Watcher, c.PollInterval, c.API, c.Advertise, c.InitialEmit)
}
