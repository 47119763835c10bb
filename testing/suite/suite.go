package suite

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
)

const (
	containerTTL = 300
	maxWait      = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "7-alpine"
)

// Suite is one throwaway Redis shared by the subtests of a single test.
type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client

	ctx context.Context
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	if testing.Short() {
		t.Skip("redis suite needs docker, skipped in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), maxWait)
	t.Cleanup(cancel)

	level := slog.LevelWarn
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}
	pool.MaxWait = maxWait

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
		Cmd:        []string{"redis-server", "--save", "", "--appendonly", "no"},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start redis: %v", err)
	}

	// hard kill in case Cleanup never runs
	_ = resource.Expire(containerTTL)

	addr := resource.GetHostPort(redisPort)

	var redisStorage *storage.RedisStorage
	if err = pool.Retry(func() error {
		var connErr error
		redisStorage, connErr = storage.NewRedisStorage(ctx, addr)
		return connErr
	}); err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("redis at %s never became ready: %v", addr, err)
	}

	logger.Debug("redis suite ready", "addr", addr, "container", resource.Container.ID)

	t.Cleanup(func() {
		if closeErr := redisStorage.Close(); closeErr != nil {
			t.Errorf("could not close redis: %v", closeErr)
		}

		if purgeErr := pool.Purge(resource); purgeErr != nil {
			t.Errorf("could not purge redis container: %v", purgeErr)
		}
	})

	that := &Suite{
		T:       t,
		Logger:  logger,
		Storage: redisStorage.Connection,
		ctx:     ctx,
	}
	that.Flush(t)

	return ctx, that
}

// Run starts fn as a subtest on an empty database.
func (that *Suite) Run(name string, fn func(t *testing.T)) bool {
	return that.T.Run(name, func(t *testing.T) {
		that.Flush(t)
		fn(t)
	})
}

func (that *Suite) Flush(t *testing.T) {
	t.Helper()

	if err := that.Storage.FlushDB(that.ctx).Err(); err != nil {
		t.Fatalf("could not flush redis: %v", err)
	}
}

// Keys returns the sorted keys matching pattern.
func (that *Suite) Keys(t *testing.T, pattern string) []string {
	t.Helper()

	keys, err := that.Storage.Keys(that.ctx, pattern).Result()
	if err != nil {
		t.Fatalf("could not list keys %q: %v", pattern, err)
	}

	slices.Sort(keys)

	return keys
}
