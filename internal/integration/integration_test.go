package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"psych-assessment-service/internal/app"
	"psych-assessment-service/internal/auth"
	"psych-assessment-service/internal/domain"
	pgstore "psych-assessment-service/internal/infra/postgres"
	pgmigrations "psych-assessment-service/internal/infra/postgres/migrations"
	infraredis "psych-assessment-service/internal/infra/redis"
)

func TestSubmitAssessmentEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	history := infraredis.NewHistoryCache(redisClient, pgstore.NewRecordStore(pool), 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewAssessmentService(sessions, history, zap.NewNop())
	user := domain.User{UID: "u-1", Email: "ana@example.com"}

	// empty history is cached before the first submission
	before, err := service.History(ctx, user, "")
	if err != nil || len(before) != 0 {
		t.Fatalf("expected empty history, got %d (%v)", len(before), err)
	}

	for round, value := range []int{3, 1} {
		session, err := service.Start(ctx, user, domain.InstrumentDASS21)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		for i := 0; i < 21; i++ {
			if _, err := service.RecordAnswer(ctx, session.ID(), i, value); err != nil {
				t.Fatalf("round %d answer %d: %v", round, i, err)
			}
		}
		if _, err := service.Submit(ctx, session.ID()); err != nil {
			t.Fatalf("round %d submit: %v", round, err)
		}
		service.Discard(ctx, session.ID())
	}

	records, err := service.History(ctx, user, domain.InstrumentDASS21)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 persisted records, got %d", len(records))
	}
	if len(records[0].Responses) != 21 || records[0].Responses[20] != 3 {
		t.Fatalf("expected responses to round-trip through jsonb, got %v", records[0].Responses)
	}

	trend, err := service.DASS21Trend(ctx, user)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(trend) != 2 || trend[0].Depression != 42 || trend[1].Depression != 14 {
		t.Fatalf("unexpected trend %+v", trend)
	}

	all, err := service.History(ctx, user, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected cached all-instrument list to be invalidated, got %d (%v)", len(all), err)
	}

	profiles := pgstore.NewProfileStore(pool)
	accounts := app.NewAccountService(profiles, service, auth.NewPasswordHasher(bcrypt.MinCost), zap.NewNop())
	if err := profiles.CreateProfile(ctx, domain.Profile{
		UID: user.UID, Email: user.Email, Age: 29, Gender: "Feminino",
		PasswordHash: []byte("hash"), CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if err := profiles.CreateProfile(ctx, domain.Profile{UID: "u-2", Email: user.Email, Age: 40, Gender: "Outro", PasswordHash: []byte("x")}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected unique email violation, got %v", err)
	}

	deleted, err := accounts.DeleteAccount(ctx, user)
	if err != nil || deleted != 2 {
		t.Fatalf("expected 2 deleted records, got %d (%v)", deleted, err)
	}
	if after, _ := service.History(ctx, user, domain.InstrumentDASS21); len(after) != 0 {
		t.Fatalf("expected empty history after account deletion, got %d", len(after))
	}
	if _, err := profiles.ProfileByEmail(ctx, user.Email); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected profile to be deleted, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "assessment", "POSTGRES_PASSWORD": "assessmentpass", "POSTGRES_DB": "assessmentdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://assessment:assessmentpass@%s:%s/assessmentdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
