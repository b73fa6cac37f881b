package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fekuna/omnipos-menu-service/config"
	"github.com/fekuna/omnipos-menu-service/internal/branding"
	brandRepoPkg "github.com/fekuna/omnipos-menu-service/internal/branding/repository"
	brandUCPkg "github.com/fekuna/omnipos-menu-service/internal/branding/usecase"
	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	catalogUCPkg "github.com/fekuna/omnipos-menu-service/internal/catalog/usecase"
	"github.com/fekuna/omnipos-menu-service/internal/category"
	catRepoPkg "github.com/fekuna/omnipos-menu-service/internal/category/repository"
	"github.com/fekuna/omnipos-menu-service/internal/dish"
	dishRepoPkg "github.com/fekuna/omnipos-menu-service/internal/dish/repository"
	"github.com/fekuna/omnipos-menu-service/internal/handler"
	"github.com/fekuna/omnipos-menu-service/internal/localstore"
	"github.com/fekuna/omnipos-menu-service/internal/notice"
	"github.com/fekuna/omnipos-menu-service/internal/realtime"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/fekuna/omnipos-menu-service/internal/style"
	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/fekuna/omnipos-menu-service/pkg/postgres"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type repositories struct {
	categories category.Repository
	dishes     dish.Repository
	branding   branding.Repository
}

type realtimeStack struct {
	notifier  realtime.Notifier
	publisher realtime.Publisher
	start     func(ctx context.Context)
	closers   []func() error
}

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Redis when a component needs it
	var redisClient *redis.Client
	if cfg.Local.Store == "redis" || cfg.Realtime.Driver == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 4. Initialize Repositories
	pgCfg := &postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	}

	var repos repositories
	switch cfg.Server.Backend {
	case "postgres":
		db, err := postgres.NewPostgres(pgCfg)
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		repos = repositories{
			categories: catRepoPkg.NewPGRepository(db),
			dishes:     dishRepoPkg.NewPGRepository(db),
			branding:   brandRepoPkg.NewPGRepository(db),
		}
	case "local":
		var err error
		repos, err = openLocal(ctx, cfg, redisClient)
		if err != nil {
			appLogger.Fatal("Could not open local store", zap.Error(err))
		}
		appLogger.Info("Using local store", zap.String("store", cfg.Local.Store), zap.String("dir", cfg.Local.Dir))
	default:
		appLogger.Fatal("Unknown backend", zap.String("backend", cfg.Server.Backend))
	}

	// 5. Initialize Realtime
	rt, err := newRealtime(cfg, pgCfg.DSN(), redisClient, appLogger)
	if err != nil {
		appLogger.Fatal("Could not initialize realtime", zap.Error(err))
	}
	for _, closeFn := range rt.closers {
		defer closeFn()
	}
	appLogger.Info("Realtime driver ready", zap.String("driver", cfg.Realtime.Driver))

	// 6. Initialize Storage
	objects, assetDir, err := newObjectStore(cfg)
	if err != nil {
		appLogger.Fatal("Could not initialize object storage", zap.Error(err))
	}
	uploader := storage.NewUploader(objects, cfg.Storage.MaxImageWidth, appLogger)

	// 7. Initialize Stores
	recorder := notice.NewRecorder(100)
	sink := notice.Multi(recorder, notice.NewLogSink(appLogger))

	deletePolicy, err := catalog.ParseDeletePolicy(cfg.Catalog.DeletePolicy)
	if err != nil {
		appLogger.Fatal("Invalid catalog delete policy", zap.Error(err))
	}

	catalogStore := catalogUCPkg.NewCatalogStore(repos.categories, repos.dishes, rt.notifier, uploader, sink, appLogger,
		catalogUCPkg.WithPublisher(rt.publisher),
		catalogUCPkg.WithBucket(cfg.Storage.Bucket),
		catalogUCPkg.WithDeletePolicy(deletePolicy),
	)
	brandingStore := brandUCPkg.NewBrandingStore(repos.branding, rt.notifier, uploader, sink, appLogger,
		brandUCPkg.WithPublisher(rt.publisher),
		brandUCPkg.WithBucket(cfg.Storage.Bucket),
	)

	// Load failures are soft: the stores keep their defaults and a later
	// change event refetches.
	if err := catalogStore.Init(ctx); err != nil {
		appLogger.Warn("Initial catalog load failed", zap.Error(err))
	}
	if err := brandingStore.Init(ctx); err != nil {
		appLogger.Warn("Initial branding load failed", zap.Error(err))
	}

	head := style.NewHead()
	detach := style.NewApplier(head).Attach(brandingStore)

	// Start Listener
	if rt.start != nil {
		go rt.start(ctx)
	}

	var resyncer *realtime.Resyncer
	if cfg.Realtime.ResyncSchedule != "" {
		resyncer, err = realtime.NewResyncer(cfg.Realtime.ResyncSchedule,
			time.Duration(cfg.Realtime.ResyncTimeout)*time.Second, appLogger, catalogStore, brandingStore)
		if err != nil {
			appLogger.Fatal("Invalid resync schedule", zap.Error(err))
		}
		resyncer.Start()
		appLogger.Info("Scheduled resync", zap.String("schedule", cfg.Realtime.ResyncSchedule))
	}

	// 8. Start HTTP Server
	menuHandler := handler.NewMenuHandler(catalogStore, brandingStore, head, recorder, appLogger)
	app := handler.NewApp(menuHandler, handler.AppConfig{
		JWTSecret:    cfg.JWT.SecretKey,
		AllowOrigins: cfg.Server.AllowOrigins,
	})
	if assetDir != "" {
		app.Static("/assets", assetDir)
	}

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port), zap.String("backend", cfg.Server.Backend))

	// Graceful Shutdown
	go func() {
		if err := app.Listen(port); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	if resyncer != nil {
		resyncer.Stop()
	}
	cancel()
	detach()
	catalogStore.Dispose()
	brandingStore.Dispose()
	appLogger.Info("Server stopped")
}

func openLocal(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repositories, error) {
	var blobs localstore.BlobStore
	if cfg.Local.Store == "redis" {
		blobs = localstore.NewRedisBlobStore(redisClient, "menu:local:")
	} else {
		fileBlobs, err := localstore.NewFileBlobStore(cfg.Local.Dir)
		if err != nil {
			return repositories{}, err
		}
		blobs = fileBlobs
	}

	node, err := snowflake.NewNode(cfg.Local.NodeID)
	if err != nil {
		return repositories{}, err
	}

	cats, err := localstore.OpenCategoryRepository(ctx, blobs, node)
	if err != nil {
		return repositories{}, err
	}
	dishes, err := localstore.OpenDishRepository(ctx, blobs, node)
	if err != nil {
		return repositories{}, err
	}
	return repositories{
		categories: cats,
		dishes:     dishes,
		branding:   localstore.NewBrandingRepository(blobs, node),
	}, nil
}

// newObjectStore returns the configured asset store and, for disk storage,
// the directory the HTTP app serves under /assets.
func newObjectStore(cfg *config.Config) (storage.ObjectStore, string, error) {
	driver := cfg.Storage.Driver
	if driver == "" {
		driver = "supabase"
		if cfg.Server.Backend == "local" {
			driver = "disk"
		}
	}

	switch driver {
	case "disk":
		dir := filepath.Join(cfg.Local.Dir, "assets")
		return storage.NewDiskStore(dir, "/assets"), dir, nil
	case "oss":
		s, err := storage.NewOSSStore(&storage.OSSConfig{
			Endpoint:        cfg.Storage.OSSEndpoint,
			AccessKeyID:     cfg.Storage.OSSAccessKey,
			AccessKeySecret: cfg.Storage.OSSSecretKey,
			PublicBaseURL:   cfg.Storage.OSSPublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	case "supabase":
		return storage.NewSupabaseStore(&storage.SupabaseConfig{
			URL:        cfg.Storage.SupabaseURL,
			ServiceKey: cfg.Storage.ServiceKey,
			Timeout:    time.Duration(cfg.Storage.Timeout) * time.Second,
		}), "", nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", driver)
	}
}

func newRealtime(cfg *config.Config, dsn string, redisClient *redis.Client, log logger.ZapLogger) (realtimeStack, error) {
	switch cfg.Realtime.Driver {
	case "postgres":
		if cfg.Server.Backend != "postgres" {
			// Local records never raise NOTIFY.
			return realtimeStack{notifier: realtime.Nop, publisher: realtime.Nop}, nil
		}
		n, err := realtime.NewPGNotifier(dsn, cfg.Realtime.Channel,
			time.Duration(cfg.Realtime.MinReconnect)*time.Second,
			time.Duration(cfg.Realtime.MaxReconnect)*time.Second,
			log,
		)
		if err != nil {
			return realtimeStack{}, err
		}
		// Triggers announce every write, so the stores publish nothing.
		return realtimeStack{
			notifier:  n,
			publisher: realtime.Nop,
			start:     n.Start,
			closers:   []func() error{n.Close},
		}, nil
	case "redis":
		n := realtime.NewRedisNotifier(redisClient, cfg.Realtime.RedisPrefix, log)
		return realtimeStack{
			notifier:  n,
			publisher: realtime.NewRedisPublisher(redisClient, cfg.Realtime.RedisPrefix),
			start:     n.Start,
		}, nil
	case "kafka":
		kcfg := &realtime.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		}
		n := realtime.NewKafkaNotifier(kcfg, log)
		p := realtime.NewKafkaPublisher(kcfg)
		return realtimeStack{
			notifier:  n,
			publisher: p,
			start:     n.Start,
			closers:   []func() error{n.Close, p.Close},
		}, nil
	default:
		return realtimeStack{notifier: realtime.Nop, publisher: realtime.Nop}, nil
	}
}
