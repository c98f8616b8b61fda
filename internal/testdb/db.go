package testdb

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/pageza/caltrack/web/config"
	"github.com/pageza/caltrack/web/internal/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// TestDB wraps a test database instance
type TestDB struct {
	DB        *gorm.DB
	Config    *config.Config
	Container testcontainers.Container
}

// Close cleans up the test database
func (td *TestDB) Close() error {
	if sqlDB, err := td.DB.DB(); err == nil {
		sqlDB.Close()
	}
	if td.Container != nil {
		return td.Container.Terminate(context.Background())
	}
	return nil
}

// SetupPostgres starts a postgres container and connects to it through
// config.LoadConfig and database.New, the same path the server takes.
// The test is skipped when docker is unavailable or -short is set.
func SetupPostgres(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed, skipping container-based test")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "caltrack_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("STORE_DRIVER", config.StorePostgres)
	t.Setenv("DB_HOST", host)
	t.Setenv("DB_PORT", port.Port())
	t.Setenv("DB_USER", "test")
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("DB_NAME", "caltrack_test")
	t.Setenv("SUBMIT_RATE_LIMIT", "")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)

	testDB := &TestDB{
		DB:        db,
		Config:    cfg,
		Container: container,
	}

	t.Cleanup(func() {
		if err := testDB.Close(); err != nil {
			t.Logf("Error cleaning up test database: %v", err)
		}
	})

	return testDB
}
