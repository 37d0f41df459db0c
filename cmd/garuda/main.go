package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/garuda/adapters/api"
	"github.com/layer-3/garuda/adapters/events"
	"github.com/layer-3/garuda/adapters/launcher"
	"github.com/layer-3/garuda/adapters/signer"
	"github.com/layer-3/garuda/adapters/store"
	"github.com/layer-3/garuda/adapters/wallet"
	"github.com/layer-3/garuda/config"
	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/ports"
	"github.com/layer-3/garuda/service"
	transport "github.com/layer-3/garuda/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Durable session storage: Redis when configured, local file otherwise.
	var kv ports.KV
	var publisher ports.EventPublisher
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Error("failed to parse Redis URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		kv = store.NewRedisStore(redisClient)

		redisPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewSlogLogger(log),
		)
		if err != nil {
			log.Error("failed to create event publisher", "error", err)
			os.Exit(1)
		}
		publisher = events.NewWatermillPublisher(redisPublisher)
	} else {
		fileStore, err := store.NewFileStore(cfg.Store.Path)
		if err != nil {
			log.Error("failed to open session store", "error", err)
			os.Exit(1)
		}
		kv = fileStore
	}

	backend, err := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		log.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	keySigner := signer.NewKeySigner()
	registry := wallet.NewRegistry()

	// The shell normally registers wallets over the control API; a key in
	// the environment bootstraps the primary wallet for standalone use.
	if keyHex := os.Getenv("GARUDA_PRIMARY_KEY"); keyHex != "" {
		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			log.Error("invalid primary wallet key", "error", err)
			os.Exit(1)
		}
		address := keySigner.Add(key)
		registry.Register("primary", wallet.Entry{
			Kind:    core.WalletKindPrimary,
			Address: address,
		})
	}

	composer, err := service.NewComposer(cfg.Services.URL, cfg.Services.Blockchain, cfg.Services.RedirectURI, cfg.Services.Locale)
	if err != nil {
		log.Error("failed to configure services links", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	manager := service.NewManager(ctx, service.Deps{
		Store:       service.NewSessionStore(kv, log),
		Negotiator:  service.NewNegotiator(backend, keySigner, cfg.API.WalletName, log),
		Credentials: registry,
		Events:      publisher,
		Launcher:    launcher.NewOSLauncher(),
		Links:       composer,
		Logger:      log,
	})

	// Initial availability probe over whatever wallets are known at boot.
	if ids := registry.IDs(); len(ids) > 0 {
		if err := manager.Connect(ctx, ids); err != nil {
			log.Warn("startup connect failed", "error", err)
		}
	}

	router := transport.SetupRouter(manager, registry, log)

	log.Info("garuda listening", "address", cfg.Listen)
	if err := router.Run(cfg.Listen); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
