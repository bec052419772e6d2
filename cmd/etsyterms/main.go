// Command etsyterms prints the top terms of the active listings of one or
// more Etsy shops.
//
//	etsyterms -api-key KEY -s StrayHeadcovers,OtherShop -n 5
//	etsyterms -a KEY -f shops.txt -concurrency 4 -metrics-addr :9090
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/etsy-terms/internal/config"
	"github.com/Sternrassler/etsy-terms/internal/report"
	"github.com/Sternrassler/etsy-terms/pkg/client"
	"github.com/Sternrassler/etsy-terms/pkg/logging"
	"github.com/Sternrassler/etsy-terms/pkg/metrics"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// shopList collects shop IDs from repeated or comma-separated flags.
type shopList []string

func (s *shopList) String() string { return strings.Join(*s, ",") }

func (s *shopList) Set(v string) error {
	*s = append(*s, config.SplitShopIDs(v)...)
	return nil
}

type flags struct {
	configPath  string
	apiKey      string
	shops       shopList
	shopFile    string
	numTerms    int
	logLevel    string
	concurrency int
	redisURL    string
	metricsAddr string
	baseURL     string
}

func parseFlags(args []string, stderr io.Writer) (*flags, *flag.FlagSet, error) {
	f := &flags{}
	fs := flag.NewFlagSet("etsyterms", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&f.apiKey, "api-key", "", "Etsy API key (or $"+config.EnvAPIKey+")")
	fs.StringVar(&f.apiKey, "a", "", "shorthand for -api-key")
	fs.Var(&f.shops, "shop-ids", "shop IDs, comma-separated or repeated")
	fs.Var(&f.shops, "s", "shorthand for -shop-ids")
	fs.StringVar(&f.shopFile, "file", "", "file with one shop ID per line")
	fs.StringVar(&f.shopFile, "f", "", "shorthand for -file")
	fs.IntVar(&f.numTerms, "num-terms", config.DefaultNumTerms, "number of terms per shop")
	fs.IntVar(&f.numTerms, "n", config.DefaultNumTerms, "shorthand for -num-terms")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error (or $"+config.EnvLogLevel+")")
	fs.IntVar(&f.concurrency, "concurrency", config.DefaultConcurrency, "shops fetched at once")
	fs.StringVar(&f.redisURL, "redis-url", "", "Redis URL for shared quota state (or $"+config.EnvRedisURL+")")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	fs.StringVar(&f.baseURL, "base-url", "", "Etsy API base URL (or $"+config.EnvBaseURL+")")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, fs, nil
}

// loadConfig layers defaults, the config file, the environment and the flags
// that were set explicitly.
func loadConfig(f *flags, fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "api-key", "a":
			cfg.APIKey = f.apiKey
		case "shop-ids", "s":
			cfg.ShopIDs = f.shops
		case "file", "f":
			cfg.ShopFile = f.shopFile
		case "num-terms", "n":
			cfg.NumTerms = f.numTerms
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "concurrency":
			cfg.Concurrency = f.concurrency
		case "redis-url":
			cfg.RedisURL = f.redisURL
		case "metrics-addr":
			cfg.MetricsAddr = f.metricsAddr
		case "base-url":
			cfg.BaseURL = f.baseURL
		}
	})

	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "etsyterms: %v\n", err)
		return exitUsage
	}

	cfg, err := loadConfig(f, fs)
	if err != nil {
		fmt.Fprintf(stderr, "etsyterms: %v\n", err)
		fs.Usage()
		return exitUsage
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "etsyterms: %v\n", err)
		return exitUsage
	}
	logging.Setup(logging.Config{Level: level, Pretty: true, Output: stderr})

	if err := execute(ctx, cfg, stdout); err != nil {
		log.Error().Err(err).Msg("Run failed")
		fmt.Fprintf(stderr, "etsyterms: %v\n", err)
		return exitError
	}
	return exitOK
}

func execute(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	shops, err := cfg.Shops()
	if err != nil {
		return err
	}
	if len(shops) == 0 {
		return config.ErrNoShops
	}

	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr)
		defer shutdown()
	}

	clientCfg := client.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
		log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
		clientCfg.Redis = rdb
	}

	etsy, err := client.New(clientCfg)
	if err != nil {
		return err
	}
	defer etsy.Close()

	runner := report.NewRunner(etsy,
		report.WithNumTerms(cfg.NumTerms),
		report.WithConcurrency(cfg.Concurrency),
	)

	results, err := runner.Run(ctx, shops)
	if err != nil {
		return err
	}

	return report.Render(stdout, results)
}

func serveMetrics(addr string) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown")
		}
	}
}
