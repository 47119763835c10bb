package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type MatchUseCase interface {
	CreateRoom(ctx context.Context, creator string) (*entity.Session, error)
	CreateBotRoom(ctx context.Context, creator string) (*entity.Session, error)
	JoinRoom(ctx context.Context, roomCode, joiner string) (*entity.Session, error)

	Poll(ctx context.Context, roomCode, viewer string) (entity.View, error)
	Move(ctx context.Context, roomCode, actor string, cell int) (*entity.Session, error)
	Restart(ctx context.Context, roomCode string) (*entity.Session, error)
	Leave(ctx context.Context, roomCode, participant string) (*entity.Session, bool, error)

	History(ctx context.Context, player string, limit int) ([]entity.Event, error)
	Sweep(ctx context.Context, idle time.Duration) int
}

type roomRegistry interface {
	Codes() registry.CodeSpace

	CreateRoom(creator entity.Participant) (*entity.Session, error)
	CreateBotRoom(creator entity.Participant, setup func(*entity.Session) error) (*entity.Session, error)
	JoinRoom(code string, joiner entity.Participant) (*entity.Session, error)
	GetSession(code string) (*entity.Session, error)
	Update(code string, fn func(*entity.Session) error) (*entity.Session, error)
	Reset(code string, after func(*entity.Session) error) (*entity.Session, error)
	Leave(code, name string) (*entity.Session, bool, error)
	Sweep(idle time.Duration) []*entity.Session
}

type botService interface {
	MakeTurn(session *entity.Session) error
}

type journalRepo interface {
	Record(ctx context.Context, event entity.Event) error
	History(ctx context.Context, player string, limit int) ([]entity.Event, error)
}

type matchUseCase struct {
	logger *slog.Logger

	registry roomRegistry
	bot      botService
	journal  journalRepo

	now func() time.Time
}

func NewMatchUseCase(logger *slog.Logger, registry roomRegistry, bot botService, journal journalRepo) MatchUseCase {
	return &matchUseCase{
		logger:   logger.With("component", "match"),
		registry: registry,
		bot:      bot,
		journal:  journal,
		now:      time.Now,
	}
}

func (that *matchUseCase) CreateRoom(ctx context.Context, creator string) (*entity.Session, error) {
	log := that.logger.With("method", "CreateRoom")

	name, err := entity.NormalizeName(creator)
	if err != nil {
		return nil, err
	}

	session, err := that.registry.CreateRoom(entity.Participant{Name: name})
	if err != nil {
		that.logExhausted(log, err)
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	log.Info("room created", "roomCode", session.RoomCode, "player", name)
	that.record(ctx, entity.NewEvent(entity.EventRoomCreated, session, name, session.UpdatedAt))

	return session, nil
}

// CreateBotRoom pairs the creator with the bot. When the bot draws X its
// opening move is already on the returned board.
func (that *matchUseCase) CreateBotRoom(ctx context.Context, creator string) (*entity.Session, error) {
	log := that.logger.With("method", "CreateBotRoom")

	name, err := entity.NormalizeName(creator)
	if err != nil {
		return nil, err
	}

	var botCell *int

	session, err := that.registry.CreateBotRoom(entity.Participant{Name: name}, func(session *entity.Session) error {
		var turnErr error
		botCell, turnErr = that.botReply(session)

		return turnErr
	})
	if err != nil {
		that.logExhausted(log, err)
		return nil, fmt.Errorf("failed to create bot room: %w", err)
	}

	log.Info("bot room created", "roomCode", session.RoomCode, "player", name)
	that.record(ctx, entity.NewEvent(entity.EventRoomCreated, session, name, session.UpdatedAt))
	that.recordMove(ctx, session, entity.BotName, botCell)

	return session, nil
}

func (that *matchUseCase) JoinRoom(ctx context.Context, roomCode, joiner string) (*entity.Session, error) {
	code, err := registry.ValidateRoomCode(that.registry.Codes(), roomCode)
	if err != nil {
		return nil, err
	}

	name, err := entity.NormalizeName(joiner)
	if err != nil {
		return nil, err
	}

	session, err := that.registry.JoinRoom(code, entity.Participant{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	that.logger.Info("player joined", "method", "JoinRoom", "roomCode", code, "player", name, "round", session.Round)
	that.record(ctx, entity.NewEvent(entity.EventJoined, session, name, session.UpdatedAt))

	return session, nil
}

// Poll returns the last committed state as the viewer sees it. An empty or
// unknown viewer gets the bare snapshot.
func (that *matchUseCase) Poll(_ context.Context, roomCode, viewer string) (entity.View, error) {
	code, err := registry.ValidateRoomCode(that.registry.Codes(), roomCode)
	if err != nil {
		return entity.View{}, err
	}

	session, err := that.registry.GetSession(code)
	if err != nil {
		return entity.View{}, fmt.Errorf("failed to get room: %w", err)
	}

	name, err := entity.NormalizeName(viewer)
	if err != nil {
		name = ""
	}

	return session.ViewFor(name), nil
}

// Move validates and applies the actor's move. In a bot room the reply is
// made in the same update, so a poll never sees the bot's turn pending.
func (that *matchUseCase) Move(ctx context.Context, roomCode, actor string, cell int) (*entity.Session, error) {
	code, err := registry.ValidateRoomCode(that.registry.Codes(), roomCode)
	if err != nil {
		return nil, err
	}

	name, err := entity.NormalizeName(actor)
	if err != nil {
		return nil, err
	}

	var botCell *int

	session, err := that.registry.Update(code, func(session *entity.Session) error {
		// membership is checked before the room state
		if participant, ok := session.Participant(name); !ok || participant.Bot {
			return fmt.Errorf("%w: %s", apperror.ErrNotAMember, name)
		}

		if moveErr := session.ApplyMove(name, cell); moveErr != nil {
			return moveErr
		}

		var botErr error
		botCell, botErr = that.botReply(session)

		return botErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	that.logger.Debug("move applied", "method", "Move", "roomCode", code, "player", name, "cell", cell)

	that.record(ctx, that.moveEvent(session, name, cell))
	that.recordMove(ctx, session, entity.BotName, botCell)

	if session.IsFinished() {
		that.logger.Info("game finished", "method", "Move", "roomCode", code,
			"reason", session.Result.Reason, "participant", session.Result.Participant)
		that.record(ctx, entity.NewEvent(entity.EventFinished, session, "", session.UpdatedAt))
	}

	return session, nil
}

func (that *matchUseCase) Restart(ctx context.Context, roomCode string) (*entity.Session, error) {
	code, err := registry.ValidateRoomCode(that.registry.Codes(), roomCode)
	if err != nil {
		return nil, err
	}

	var botCell *int

	session, err := that.registry.Reset(code, func(session *entity.Session) error {
		var botErr error
		botCell, botErr = that.botReply(session)

		return botErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restart room: %w", err)
	}

	that.logger.Info("room restarted", "method", "Restart", "roomCode", code, "round", session.Round)
	that.record(ctx, entity.NewEvent(entity.EventRestarted, session, "", session.UpdatedAt))
	that.recordMove(ctx, session, entity.BotName, botCell)

	return session, nil
}

// Leave removes the participant. removed reports that the room is gone.
func (that *matchUseCase) Leave(ctx context.Context, roomCode, participant string) (*entity.Session, bool, error) {
	code, err := registry.ValidateRoomCode(that.registry.Codes(), roomCode)
	if err != nil {
		return nil, false, err
	}

	name, err := entity.NormalizeName(participant)
	if err != nil {
		return nil, false, err
	}

	session, removed, err := that.registry.Leave(code, name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to leave room: %w", err)
	}

	that.logger.Info("player left", "method", "Leave", "roomCode", code, "player", name, "removed", removed)
	that.record(ctx, entity.NewEvent(entity.EventLeft, session, name, session.UpdatedAt))

	return session, removed, nil
}

func (that *matchUseCase) History(ctx context.Context, player string, limit int) ([]entity.Event, error) {
	name, err := entity.NormalizeName(player)
	if err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	events, err := that.journal.History(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	return events, nil
}

// Sweep drops idle rooms and returns how many went away.
func (that *matchUseCase) Sweep(ctx context.Context, idle time.Duration) int {
	swept := that.registry.Sweep(idle)

	for _, session := range swept {
		that.logger.Info("idle room swept", "method", "Sweep", "roomCode", session.RoomCode, "idleSince", session.UpdatedAt)
		that.record(ctx, entity.NewEvent(entity.EventSwept, session, "", that.now()))
	}

	return len(swept)
}

// botReply lets the bot move if the session is a bot room and the bot owns
// the turn. It returns the cell the bot played, if any.
func (that *matchUseCase) botReply(session *entity.Session) (*int, error) {
	if !session.IsWithBot() {
		return nil, nil
	}

	before := session.Board
	if err := that.bot.MakeTurn(session); err != nil {
		return nil, err
	}

	for i := range before {
		if before[i] != session.Board[i] {
			return &i, nil
		}
	}

	return nil, nil
}

func (that *matchUseCase) moveEvent(session *entity.Session, actor string, cell int) entity.Event {
	event := entity.NewEvent(entity.EventMoved, session, actor, session.UpdatedAt)
	event.Cell = &cell
	event.Result = nil

	return event
}

func (that *matchUseCase) recordMove(ctx context.Context, session *entity.Session, actor string, cell *int) {
	if cell == nil {
		return
	}

	that.record(ctx, that.moveEvent(session, actor, *cell))
}

func (that *matchUseCase) record(ctx context.Context, event entity.Event) {
	if err := that.journal.Record(ctx, event); err != nil {
		that.logger.Warn("failed to record event", "kind", event.Kind, "roomCode", event.RoomCode, "error", err)
	}
}

func (that *matchUseCase) logExhausted(log *slog.Logger, err error) {
	if errors.Is(err, apperror.ErrRoomCodesExhausted) {
		log.Error("no free room codes", "error", err)
	}
}
