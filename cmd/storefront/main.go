package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/joho/godotenv"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/gateway"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/audit"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/config"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/discovery"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/events"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/grpc"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/inventory"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/repository"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	healthInterval  = 15 * time.Second

	indexRetryInterval = 30 * time.Second
)

// backend is the store plus the audit log writer it carries.
type backend interface {
	inventory.Store
	audit.Writer
	Ping(ctx context.Context) error
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// A .env file is optional; it only seeds STOREFRONT_* variables.
	_ = godotenv.Load()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := newLogger(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("port", cfg.Server.Port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	opts := []inventory.Option{}

	if cfg.Redis.Enabled() {
		cache := repository.NewRedisRepository(&cfg.Redis)
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("Redis connection failed, product cache may miss", zap.Error(err))
		} else {
			logger.Info("Redis connected successfully")
		}
		opts = append(opts, inventory.WithCache(cache))
	}

	if cfg.Kafka.Enabled() {
		producer := events.NewProducer(&cfg.Kafka, cfg.Server.Name, logger.Named("events"))
		producer.Start()
		defer producer.Close()
		opts = append(opts, inventory.WithPublisher(producer))
	}

	system := actor.NewActorSystem()
	recorder, err := audit.NewRecorder(system, store, cfg.Server.Name, logger)
	if err != nil {
		logger.Fatal("Failed to start audit recorder", zap.Error(err))
	}
	defer func() {
		if err := recorder.Stop(); err != nil {
			logger.Warn("Audit recorder did not stop cleanly", zap.Error(err))
		}
	}()
	opts = append(opts, inventory.WithAuditor(recorder), inventory.WithAuditLog(store))

	svc := inventory.NewService(store, logger.Named("inventory"), opts...)

	gw := gateway.NewGateway(cfg, logger.Named("gateway"), svc)
	gw.SetupRoutes()

	serverErr := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- err
		}
	}()

	if cfg.GRPC.Enabled() {
		hs := grpc.NewHealthServer(&cfg.GRPC, cfg.Server.Name, store, logger.Named("health"))
		go func() {
			if err := hs.Start(); err != nil {
				serverErr <- err
			}
		}()
		go hs.Watch(ctx, healthInterval)
		defer hs.Stop()
	}

	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	var sd *discovery.ServiceDiscovery
	if cfg.Etcd.Enabled() {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger.Named("discovery"))
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd", zap.String("address", instance.Addr()))
			if peers, err := sd.Discover(ctx, cfg.Server.Name); err != nil {
				logger.Warn("Failed to list storefront instances", zap.Error(err))
			} else {
				logger.Info("Storefront instances", zap.Int("count", len(peers)))
			}
		}
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}

	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}
	cancel()

	logger.Info("Storefront stopped")
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend, func(), error) {
	if cfg.Storage.Driver == "memory" {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	repo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		cctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		defer cancel()
		if err := repo.Close(cctx); err != nil {
			logger.Warn("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	defer cancel()
	if err := repo.Ping(pctx); err != nil {
		logger.Warn("MongoDB ping failed, requests will retry on demand", zap.Error(err))
	} else {
		logger.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))
	}

	go func() {
		_ = ensureIndexes(ctx, repo, cfg.MongoDB.Timeout, indexRetryInterval, logger)
	}()
	return repo, closeFn, nil
}
