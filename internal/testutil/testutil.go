// Package testutil connects integration tests to the local Postgres and Redis.
//
// Tests skip when the infrastructure is not reachable, unless
// TEST_REQUIRE_INFRA (or the DB / Redis specific variant) is set, in which
// case they fail.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/lifebuddy/lifebuddy-api/internal/migrate"
)

// RLSRole is the row-security-enforced role integration tests switch into.
const RLSRole = "cognitive_engine_rls"

// Infra describes where the test databases live. The defaults match the
// docker-compose test profile; CI overrides the ports.
type Infra struct {
	DBHost     string `env:"TEST_DB_HOST"     envDefault:"localhost"`
	DBPort     string `env:"TEST_DB_PORT"     envDefault:"55432"`
	DBUser     string `env:"TEST_DB_USER"     envDefault:"lifebuddy"`
	DBPassword string `env:"TEST_DB_PASSWORD" envDefault:"lifebuddy"`
	DBName     string `env:"TEST_DB_NAME"     envDefault:"lifebuddy"`
	DBSSLMode  string `env:"DB_SSL_MODE"      envDefault:"disable"`

	// RedisAddr pins one address; empty probes the usual compose and local ports.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"TEST_REDIS_DB" envDefault:"1"`

	Short        bool `env:"TEST_SHORT"`
	RequireInfra bool `env:"TEST_REQUIRE_INFRA"`
	RequireDB    bool `env:"TEST_REQUIRE_DB"`
	RequireRedis bool `env:"TEST_REQUIRE_REDIS"`
}

var loadInfra = sync.OnceValues(func() (Infra, error) {
	return env.ParseAs[Infra]()
})

// redisCandidates are probed in order when REDIS_ADDR is unset.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

func infra(t testing.TB) Infra {
	t.Helper()
	cfg, err := loadInfra()
	if err != nil {
		t.Fatalf("parse test infrastructure env: %v", err)
	}
	return cfg
}

// DSN renders the Postgres connection URL.
func (c Infra) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// TestDSN returns the DSN of the shared test database.
func TestDSN() string {
	cfg, err := loadInfra()
	if err != nil {
		panic(fmt.Sprintf("parse test infrastructure env: %v", err))
	}
	return cfg.DSN()
}

func unavailable(t testing.TB, required bool, what string, err error) {
	t.Helper()
	if required {
		t.Fatalf("%s required but unavailable: %v", what, err)
	}
	t.Skipf("%s unavailable: %v", what, err)
}

func skipShort(t testing.TB, cfg Infra) {
	t.Helper()
	if cfg.Short || testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
}

// SetupTestDB opens the test database as the privileged user, migrates it and
// empties every table before and after the test. Tests that need policies
// enforced open a second pool with RLSRole.
func SetupTestDB(t testing.TB) *sql.DB {
	t.Helper()
	cfg := infra(t)
	skipShort(t, cfg)

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		unavailable(t, cfg.RequireInfra || cfg.RequireDB, "postgres at "+net.JoinHostPort(cfg.DBHost, cfg.DBPort), err)
	}
	if err := migrate.Run(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("migrate test database: %v", err)
	}

	truncate(t, db)
	t.Cleanup(func() {
		truncate(t, db)
		if err := db.Close(); err != nil {
			t.Logf("close test database: %v", err)
		}
	})
	return db
}

func truncate(t testing.TB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	const stmt = `TRUNCATE synthesis_reports, pre_synthesis_answers, users RESTART IDENTITY CASCADE`
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		t.Fatalf("truncate test tables: %v", err)
	}
}

// InsertUser creates an account row directly and returns its id.
func InsertUser(t testing.TB, db *sql.DB, id, username, passwordHash string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)`,
		id, username, passwordHash,
	); err != nil {
		t.Fatalf("insert user %s: %v", id, err)
	}
	return id
}

// CountAnswers counts userID's answer rows, bypassing policies.
func CountAnswers(t testing.TB, db *sql.DB, userID string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT count(*) FROM pre_synthesis_answers WHERE user_id = $1`, userID,
	).Scan(&n); err != nil {
		t.Fatalf("count answers: %v", err)
	}
	return n
}

// SetupTestRedis returns a client on the configured DB index, flushed before
// the test and closed after it.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()
	cfg := infra(t)
	skipShort(t, cfg)

	candidates := redisCandidates
	if cfg.RedisAddr != "" {
		candidates = []string{cfg.RedisAddr}
	}

	var lastErr error
	for _, addr := range candidates {
		client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.FlushDB(ctx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			lastErr = fmt.Errorf("%s: %w", addr, err)
			continue
		}
		t.Cleanup(func() {
			if err := client.Close(); err != nil {
				t.Logf("close test redis: %v", err)
			}
		})
		return client
	}
	unavailable(t, cfg.RequireInfra || cfg.RequireRedis, "redis", lastErr)
	return nil
}
