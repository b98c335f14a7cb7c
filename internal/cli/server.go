package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"psych-assessment-service/internal/app"
	"psych-assessment-service/internal/auth"
	"psych-assessment-service/internal/config"
	"psych-assessment-service/internal/infra/memory"
	mongostore "psych-assessment-service/internal/infra/mongo"
	minioexport "psych-assessment-service/internal/infra/minio"
	pgstore "psych-assessment-service/internal/infra/postgres"
	"psych-assessment-service/internal/infra/rabbitmq"
	rediscache "psych-assessment-service/internal/infra/redis"
	"psych-assessment-service/internal/logger"
	transport "psych-assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.NewZapLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	cleanup := &cleanupStack{}
	defer cleanup.run()

	records, profiles, err := buildStores(ctx, cfg, log, cleanup)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanup.push(func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	historyTTL := config.TTLDuration(cfg.History.TTL, time.Minute)

	var history app.RecordStore
	var sessions app.SessionRepository
	if redisClient != nil {
		history = rediscache.NewHistoryCache(redisClient, records, historyTTL)
		sessions = rediscache.NewSessionStore(redisClient, redisTTL)
	} else {
		history = memory.NewHistoryCache(records, historyTTL)
		sessions = memory.NewSessionStore()
	}

	opts := []app.Option{}
	if cfg.RabbitMQ.URL != "" {
		publisher, conn, err := rabbitmq.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		cleanup.push(func() { _ = publisher.Close(); _ = conn.Close() })
		opts = append(opts, app.WithPublisher(publisher))
		log.Info("publishing submissions", zap.String("queue", cfg.RabbitMQ.Queue))
	}
	if cfg.Minio.Endpoint != "" {
		client, err := minioexport.NewClient(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			return err
		}
		if err := minioexport.EnsureBucket(ctx, client, cfg.Minio.Bucket); err != nil {
			return err
		}
		opts = append(opts, app.WithExporter(minioexport.NewExporter(client, cfg.Minio.Bucket)))
		log.Info("data export enabled", zap.String("bucket", cfg.Minio.Bucket))
	}

	issuer, err := auth.NewIssuer(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour), cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	service := app.NewAssessmentService(sessions, history, log, opts...)
	accounts := app.NewAccountService(profiles, service, auth.NewPasswordHasher(cfg.Auth.BcryptCost), log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, accounts, issuer, log, cfg.Server.RateLimit),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	log.Info("starting assessment service", zap.String("port", finalPort))
	return serve(ctx, server, log)
}

// serve runs server until a signal arrives, ctx is canceled or the listener
// fails. Listener failures are returned.
func serve(ctx context.Context, server *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		log.Error("failed to start server", zap.Error(err))
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStores picks Postgres, then Mongo, then process memory for both
// assessment records and sign-up profiles.
func buildStores(ctx context.Context, cfg config.Config, log *zap.Logger, cleanup *cleanupStack) (app.RecordStore, app.ProfileStore, error) {
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		cleanup.push(pool.Close)
		log.Info("using postgres stores")
		return pgstore.NewRecordStore(pool), pgstore.NewProfileStore(pool), nil
	case cfg.Mongo.URI != "":
		client, db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		cleanup.push(func() { _ = client.Disconnect(context.Background()) })
		records := mongostore.NewRecordStore(db)
		if err := records.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		profiles := mongostore.NewProfileStore(db)
		if err := profiles.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		log.Info("using mongo stores", zap.String("database", cfg.Mongo.Database))
		return records, profiles, nil
	}
	log.Warn("no database configured, records and profiles are kept in memory")
	return memory.NewRecordStore(), memory.NewProfileStore(), nil
}

// cleanupStack closes resources in reverse order of acquisition.
type cleanupStack struct {
	fns []func()
}

func (c *cleanupStack) push(fn func()) { c.fns = append(c.fns, fn) }

func (c *cleanupStack) run() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
}
