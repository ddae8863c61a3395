// Package dbtest provides a migrated Postgres pool for integration tests.
//
// TEST_DB_DSN is used when set. Otherwise a disposable postgres container is
// started once per test binary through the local Docker daemon. Tests are
// skipped when neither is available.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"storefront/internal/migrate"
)

var (
	once      sync.Once
	sharedDSN string
	setupErr  error
)

// Pool returns a pool on a freshly migrated and truncated database.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}

	once.Do(func() {
		sharedDSN, setupErr = resolveDSN()
	})
	if setupErr != nil {
		t.Skipf("postgres unavailable: %v", setupErr)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, sharedDSN)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	Reset(ctx, t, pool)
	return pool
}

// Reset truncates every table the core writes to.
func Reset(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, cart_items, carts, catalog_items CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func resolveDSN() (string, error) {
	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		return dsn, nil
	}

	dp, err := dockertest.NewPool("")
	if err != nil {
		return "", fmt.Errorf("docker pool: %w", err)
	}
	if err := dp.Client.Ping(); err != nil {
		return "", fmt.Errorf("docker ping: %w", err)
	}

	resource, err := dp.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=storefront",
			"POSTGRES_PASSWORD=storefront",
			"POSTGRES_DB=storefront_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", fmt.Errorf("start postgres: %w", err)
	}
	// The container is killed by Docker even if the test binary never reaches cleanup.
	_ = resource.Expire(300)

	dsn := fmt.Sprintf("postgres://storefront:storefront@%s/storefront_test?sslmode=disable", resource.GetHostPort("5432/tcp"))

	dp.MaxWait = 60 * time.Second
	err = dp.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()
		return pool.Ping(ctx)
	})
	if err != nil {
		_ = dp.Purge(resource)
		return "", fmt.Errorf("wait for postgres: %w", err)
	}
	return dsn, nil
}
