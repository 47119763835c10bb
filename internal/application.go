package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/mcp"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// Coordinator is the wired match use case plus whatever must be closed on exit.
type Coordinator struct {
	Match usecase.MatchUseCase

	closers []func() error
}

func (that *Coordinator) Close() error {
	var errs []error
	for _, closer := range that.closers {
		errs = append(errs, closer())
	}

	return errors.Join(errs...)
}

// NewCoordinator builds the room registry, bot and journal from conf.
func NewCoordinator(ctx context.Context, logger *slog.Logger, conf *config.Config) (*Coordinator, error) {
	rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))

	codes, err := registry.NewNumericCodes(conf.Rooms.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to build room codes: %w", err)
	}

	pairing, err := entity.NewPairingPolicy(conf.Rooms.Pairing, rand.New(rand.NewPCG(rnd.Uint64(), rnd.Uint64())))
	if err != nil {
		return nil, fmt.Errorf("failed to build pairing policy: %w", err)
	}

	rooms := registry.New(
		registry.WithCodes(codes),
		registry.WithPairing(pairing),
		registry.WithRand(rand.New(rand.NewPCG(rnd.Uint64(), rnd.Uint64()))),
	)
	bot := service.NewBotService(rand.New(rand.NewPCG(rnd.Uint64(), rnd.Uint64())))

	coordinator := &Coordinator{}

	journal := repository.NewNopJournal()
	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		coordinator.closers = append(coordinator.closers, redisStorage.Close)
		journal = repository.NewJournalRepository(redisStorage.Connection, conf.Journal.MaxEvents, conf.Journal.TTL)
	}

	coordinator.Match = usecase.NewMatchUseCase(logger, rooms, bot, journal)

	return coordinator, nil
}

// RunApp serves REST and MCP over HTTP until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config, version string) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coordinator, err := NewCoordinator(ctx, logger, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = coordinator.Close(); err != nil {
			log.Error("could not close coordinator", "error", err)
		}
	}()

	if conf.Rooms.SweepEnabled() {
		go runSweeper(ctx, log, coordinator.Match, conf.Rooms)
	}

	mcpServer := mcp.New(logger, coordinator.Match, version)
	restServer := rest.New(logger, coordinator.Match,
		rest.WithBaseURL(conf.BaseURL),
		rest.WithMCP(mcpServer),
	)

	log.Info("Starting HTTP server", "port", conf.HTTPPort, "redis", conf.Redis.Enabled)
	if err = restServer.Start(ctx, conf.HTTPPort); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

// RunStdio serves the MCP tools over stdin/stdout. Logs must not go to stdout here.
func RunStdio(logger *slog.Logger, conf *config.Config, version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coordinator, err := NewCoordinator(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer coordinator.Close()

	if conf.Rooms.SweepEnabled() {
		go runSweeper(ctx, logger.With("component", "app"), coordinator.Match, conf.Rooms)
	}

	return mcp.New(logger, coordinator.Match, version).ServeStdio()
}

type sweeper interface {
	Sweep(ctx context.Context, idle time.Duration) int
}

func runSweeper(ctx context.Context, log *slog.Logger, rooms sweeper, conf config.Rooms) {
	ticker := time.NewTicker(conf.SweepInterval)
	defer ticker.Stop()

	log.Info("Starting idle room sweeper", "idleTimeout", conf.IdleTimeout, "interval", conf.SweepInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rooms.Sweep(ctx, conf.IdleTimeout)
		}
	}
}
