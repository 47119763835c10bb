package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	playerKeyPrefix = "journal:player:"
	roomKeyPrefix   = "journal:room:"
)

type JournalRepository interface {
	Record(ctx context.Context, event entity.Event) error
	History(ctx context.Context, player string, limit int) ([]entity.Event, error)
}

type dbJournal struct {
	client    *redis.Client
	maxEvents int64
	ttl       time.Duration
}

// NewJournalRepository keeps the newest maxEvents per list. A zero ttl keeps
// lists forever.
func NewJournalRepository(client *redis.Client, maxEvents int, ttl time.Duration) JournalRepository {
	return &dbJournal{
		client:    client,
		maxEvents: int64(maxEvents),
		ttl:       ttl,
	}
}

func (that *dbJournal) Record(ctx context.Context, event entity.Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	keys := []string{roomKeyPrefix + event.RoomCode}
	for _, player := range event.Players {
		keys = append(keys, playerKeyPrefix+player)
	}

	if event.Actor != "" && event.Actor != entity.BotName && !slices.Contains(event.Players, event.Actor) {
		keys = append(keys, playerKeyPrefix+event.Actor)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.LPush(ctx, key, eventJSON)

			if that.maxEvents > 0 {
				pipe.LTrim(ctx, key, 0, that.maxEvents-1)
			}

			if that.ttl > 0 {
				pipe.Expire(ctx, key, that.ttl)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

// History returns the player's newest events first.
func (that *dbJournal) History(ctx context.Context, player string, limit int) ([]entity.Event, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	response, err := that.client.LRange(ctx, playerKeyPrefix+player, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	events := make([]entity.Event, 0, len(response))
	for _, raw := range response {
		var event entity.Event
		if err = json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}

		events = append(events, event)
	}

	return events, nil
}

type nopJournal struct{}

// NewNopJournal is used when Redis is disabled. It remembers nothing.
func NewNopJournal() JournalRepository {
	return nopJournal{}
}

func (nopJournal) Record(context.Context, entity.Event) error {
	return nil
}

func (nopJournal) History(context.Context, string, int) ([]entity.Event, error) {
	return []entity.Event{}, nil
}
