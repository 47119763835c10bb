package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	mockedUseCase "github.com/rocketscienceinc/tictactoe-rooms/mocks/usecase"
)

var errRedisDown = errors.New("redis down")

type codeList []string

func (that codeList) Size() int {
	return len(that)
}

func (that codeList) At(i int) string {
	return that[i]
}

func (that codeList) Valid(code string) bool {
	for _, known := range that {
		if known == code {
			return true
		}
	}

	return false
}

type botPlaysX struct{}

func (botPlaysX) FirstPlaysX() bool {
	return false
}

// eventLog collects journaled events in order.
type eventLog struct {
	mu     sync.Mutex
	events []entity.Event
}

func (that *eventLog) record(_ context.Context, event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, event)
}

func (that *eventLog) kinds() []entity.EventKind {
	that.mu.Lock()
	defer that.mu.Unlock()

	kinds := make([]entity.EventKind, 0, len(that.events))
	for _, event := range that.events {
		kinds = append(kinds, event.Kind)
	}

	return kinds
}

func newMatch(t *testing.T, opts ...registry.Option) (MatchUseCase, *mockedUseCase.MockjournalRepo, *eventLog) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	base := []registry.Option{
		registry.WithCodes(codeList{"4821"}),
		registry.WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	rooms := registry.New(append(base, opts...)...)

	bot := service.NewBotService(rand.New(rand.NewPCG(3, 4)))

	journal := mockedUseCase.NewMockjournalRepo(t)
	events := &eventLog{}
	journal.EXPECT().
		Record(mock.Anything, mock.AnythingOfType("entity.Event")).
		Run(events.record).
		Return(nil).
		Maybe()

	return NewMatchUseCase(logger, rooms, bot, journal), journal, events
}

// paired creates room 4821 for Ann and lets Bo join.
func paired(t *testing.T, match MatchUseCase) {
	t.Helper()

	ctx := context.Background()

	_, err := match.CreateRoom(ctx, "Ann")
	require.NoError(t, err)

	_, err = match.JoinRoom(ctx, "4821", "Bo")
	require.NoError(t, err)
}

func TestMatchUseCase_Scenario(t *testing.T) {
	ctx := context.Background()
	match, _, events := newMatch(t)

	// Given: Ann creates a room
	created, err := match.CreateRoom(ctx, "Ann")
	require.NoError(t, err)
	assert.Equal(t, "4821", created.RoomCode)
	assert.Equal(t, entity.StatusWaiting, created.Status)

	// When: Bo joins it
	joined, err := match.JoinRoom(ctx, "4821", "Bo")
	require.NoError(t, err)

	// Then: Ann is X and moves first
	ann, _ := joined.SymbolOf("Ann")
	bo, _ := joined.SymbolOf("Bo")
	assert.Equal(t, tictactoe.MarkX, ann)
	assert.Equal(t, tictactoe.MarkO, bo)
	assert.Equal(t, "Ann", joined.TurnOwner)
	assert.Equal(t, entity.StatusInProgress, joined.Status)

	// When: Ann plays the center
	session, err := match.Move(ctx, "4821", "Ann", 4)
	require.NoError(t, err)
	assert.Equal(t, tictactoe.MarkX, session.Board[4])
	assert.Equal(t, "Bo", session.TurnOwner)

	// When: Bo plays the same cell
	_, err = match.Move(ctx, "4821", "Bo", 4)
	require.ErrorIs(t, err, apperror.ErrInvalidMove)

	// When: Bo plays a corner instead
	session, err = match.Move(ctx, "4821", "Bo", 0)
	require.NoError(t, err)
	assert.Equal(t, "Ann", session.TurnOwner)

	// And: Ann completes the middle row
	_, err = match.Move(ctx, "4821", "Ann", 3)
	require.NoError(t, err)
	_, err = match.Move(ctx, "4821", "Bo", 1)
	require.NoError(t, err)
	session, err = match.Move(ctx, "4821", "Ann", 5)
	require.NoError(t, err)

	// Then: Ann wins and the room lingers
	assert.Equal(t, entity.StatusFinished, session.Status)
	assert.Equal(t, &entity.Result{Reason: entity.ReasonWin, Participant: "Ann", Line: []int{3, 4, 5}}, session.Result)

	view, err := match.Poll(ctx, "4821", "Bo")
	require.NoError(t, err)
	assert.True(t, view.IsFinished())
	assert.False(t, view.YourTurn)

	_, err = match.Move(ctx, "4821", "Bo", 8)
	require.ErrorIs(t, err, apperror.ErrSessionFinished)

	assert.Equal(t, []entity.EventKind{
		entity.EventRoomCreated,
		entity.EventJoined,
		entity.EventMoved, entity.EventMoved, entity.EventMoved, entity.EventMoved, entity.EventMoved,
		entity.EventFinished,
	}, events.kinds())
}

func TestMatchUseCase_Draw(t *testing.T) {
	ctx := context.Background()
	match, _, _ := newMatch(t)
	paired(t, match)

	// Given: a nine move sequence without a line
	// X: 0 2 3 7 8, O: 1 4 5 6
	var (
		session *entity.Session
		err     error
	)

	for i, cell := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
		actor := "Ann"
		if i%2 == 1 {
			actor = "Bo"
		}

		session, err = match.Move(ctx, "4821", actor, cell)
		require.NoError(t, err)
	}

	// Then: the game is a draw
	assert.True(t, session.IsFinished())
	assert.Equal(t, entity.ReasonDraw, session.Result.Reason)
	assert.Empty(t, session.TurnOwner)
}

func TestMatchUseCase_Restart(t *testing.T) {
	ctx := context.Background()

	t.Run("Restart after a win starts a fresh round", func(t *testing.T) {
		// Given: Ann has won
		match, _, _ := newMatch(t)
		paired(t, match)

		for _, move := range []struct {
			actor string
			cell  int
		}{
			{"Ann", 0}, {"Bo", 3}, {"Ann", 1}, {"Bo", 4}, {"Ann", 2},
		} {
			_, err := match.Move(ctx, "4821", move.actor, move.cell)
			require.NoError(t, err)
		}

		// When: the room restarts
		session, err := match.Restart(ctx, "4821")

		// Then: same participants, fresh board, Ann to move again
		require.NoError(t, err)
		assert.Equal(t, "4821", session.RoomCode)
		assert.Equal(t, entity.StatusInProgress, session.Status)
		assert.Equal(t, tictactoe.Board{}, session.Board)
		assert.Nil(t, session.Result)
		assert.Equal(t, "Ann", session.TurnOwner)
		assert.Equal(t, []string{"Ann", "Bo"}, []string{session.Participants[0].Name, session.Participants[1].Name})
	})

	t.Run("Restart needs two players", func(t *testing.T) {
		match, _, _ := newMatch(t)
		_, err := match.CreateRoom(ctx, "Ann")
		require.NoError(t, err)

		_, err = match.Restart(ctx, "4821")

		require.ErrorIs(t, err, apperror.ErrNotEnoughPlayers)
	})

	t.Run("Restart of an unknown room", func(t *testing.T) {
		match, _, _ := newMatch(t)

		_, err := match.Restart(ctx, "4821")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestMatchUseCase_Validation(t *testing.T) {
	ctx := context.Background()
	match, _, _ := newMatch(t)

	t.Run("Room code is required", func(t *testing.T) {
		_, err := match.JoinRoom(ctx, " ", "Bo")
		require.ErrorIs(t, err, apperror.ErrRoomCodeRequired)

		_, err = match.Poll(ctx, "", "Bo")
		require.ErrorIs(t, err, apperror.ErrRoomCodeRequired)

		_, err = match.Move(ctx, "", "Bo", 0)
		require.ErrorIs(t, err, apperror.ErrRoomCodeRequired)

		_, err = match.Restart(ctx, "")
		require.ErrorIs(t, err, apperror.ErrRoomCodeRequired)

		_, _, err = match.Leave(ctx, "", "Bo")
		require.ErrorIs(t, err, apperror.ErrRoomCodeRequired)
	})

	t.Run("Malformed code is an unknown room", func(t *testing.T) {
		_, err := match.JoinRoom(ctx, "12ab", "Bo")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		require.ErrorIs(t, err, apperror.ErrInvalidRoomCode)
	})

	t.Run("Names are validated", func(t *testing.T) {
		_, err := match.CreateRoom(ctx, "   ")
		require.ErrorIs(t, err, apperror.ErrInvalidName)

		_, err = match.CreateBotRoom(ctx, "")
		require.ErrorIs(t, err, apperror.ErrInvalidName)
	})
}

func TestMatchUseCase_Move(t *testing.T) {
	ctx := context.Background()

	t.Run("Stranger cannot move", func(t *testing.T) {
		match, _, _ := newMatch(t)
		paired(t, match)

		_, err := match.Move(ctx, "4821", "Cy", 0)

		require.ErrorIs(t, err, apperror.ErrNotAMember)
	})

	t.Run("Stranger is refused before the room state is checked", func(t *testing.T) {
		// Given: a waiting room and a finished room
		waiting, _, _ := newMatch(t)
		_, err := waiting.CreateRoom(ctx, "Ann")
		require.NoError(t, err)

		finished, _, _ := newMatch(t)
		paired(t, finished)
		for i, cell := range []int{0, 3, 1, 4, 2} {
			actor := "Ann"
			if i%2 == 1 {
				actor = "Bo"
			}

			_, err = finished.Move(ctx, "4821", actor, cell)
			require.NoError(t, err)
		}

		// When: Cy tries to move in both
		_, waitingErr := waiting.Move(ctx, "4821", "Cy", 4)
		_, finishedErr := finished.Move(ctx, "4821", "Cy", 8)

		// Then: both report membership, not the room state
		require.ErrorIs(t, waitingErr, apperror.ErrNotAMember)
		assert.NotErrorIs(t, waitingErr, apperror.ErrNotStarted)
		require.ErrorIs(t, finishedErr, apperror.ErrNotAMember)
		assert.NotErrorIs(t, finishedErr, apperror.ErrSessionFinished)
	})

	t.Run("Out of turn", func(t *testing.T) {
		match, _, _ := newMatch(t)
		paired(t, match)

		_, err := match.Move(ctx, "4821", "Bo", 0)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Before an opponent joins", func(t *testing.T) {
		match, _, _ := newMatch(t)
		_, err := match.CreateRoom(ctx, "Ann")
		require.NoError(t, err)

		_, err = match.Move(ctx, "4821", "Ann", 0)

		require.ErrorIs(t, err, apperror.ErrNotStarted)
	})

	t.Run("Names are trimmed before matching", func(t *testing.T) {
		match, _, _ := newMatch(t)
		paired(t, match)

		session, err := match.Move(ctx, " 4821 ", " Ann ", 4)

		require.NoError(t, err)
		assert.Equal(t, tictactoe.MarkX, session.Board[4])
	})
}

func TestMatchUseCase_Poll(t *testing.T) {
	ctx := context.Background()
	match, _, _ := newMatch(t)
	paired(t, match)

	t.Run("Member view", func(t *testing.T) {
		view, err := match.Poll(ctx, "4821", "Ann")

		require.NoError(t, err)
		assert.True(t, view.Member)
		assert.True(t, view.YourTurn)
		assert.Equal(t, "Bo", view.Opponent)
	})

	t.Run("Anonymous view", func(t *testing.T) {
		view, err := match.Poll(ctx, "4821", "")

		require.NoError(t, err)
		assert.False(t, view.Member)
		assert.Len(t, view.Participants, 2)
	})

	t.Run("Unknown room", func(t *testing.T) {
		_, err := match.Poll(ctx, "1234", "Ann")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestMatchUseCase_Leave(t *testing.T) {
	ctx := context.Background()

	t.Run("Opponent observes abandonment on the next poll", func(t *testing.T) {
		// Given: a game in progress
		match, _, events := newMatch(t)
		paired(t, match)

		// When: Ann leaves
		_, removed, err := match.Leave(ctx, "4821", "Ann")
		require.NoError(t, err)
		assert.False(t, removed)

		// Then: Bo sees Finished(Abandoned(Ann))
		view, err := match.Poll(ctx, "4821", "Bo")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusFinished, view.Status)
		assert.Equal(t, &entity.Result{Reason: entity.ReasonAbandoned, Participant: "Ann"}, view.Result)
		assert.Empty(t, view.Opponent)

		assert.Equal(t, entity.EventLeft, events.kinds()[len(events.kinds())-1])
	})

	t.Run("Last participant out removes the room", func(t *testing.T) {
		match, _, _ := newMatch(t)
		_, err := match.CreateRoom(ctx, "Ann")
		require.NoError(t, err)

		_, removed, err := match.Leave(ctx, "4821", "Ann")
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = match.Poll(ctx, "4821", "Ann")
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Stranger cannot leave", func(t *testing.T) {
		match, _, _ := newMatch(t)
		paired(t, match)

		_, _, err := match.Leave(ctx, "4821", "Cy")

		require.ErrorIs(t, err, apperror.ErrNotAMember)
	})
}

func TestMatchUseCase_ConcurrentJoin(t *testing.T) {
	ctx := context.Background()
	match, _, _ := newMatch(t)

	_, err := match.CreateRoom(ctx, "Ann")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)

	// When: two joins race for the last slot
	for i, name := range []string{"Bo", "Cy"} {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_, results[i] = match.JoinRoom(ctx, "4821", name)
		}()
	}

	wg.Wait()

	// Then: exactly one succeeds
	successes := 0
	for _, joinErr := range results {
		if joinErr == nil {
			successes++
			continue
		}

		assert.ErrorIs(t, joinErr, apperror.ErrRoomFull)
	}

	assert.Equal(t, 1, successes)
}

func countMarks(board tictactoe.Board) (xs, ys int) {
	for _, mark := range board {
		switch mark {
		case tictactoe.MarkX:
			xs++
		case tictactoe.MarkO:
			ys++
		}
	}

	return xs, ys
}

type plannedMove struct {
	player string
	cell   int
}

// raceMoves fires every move at once and returns the error of each.
func raceMoves(match MatchUseCase, moves []plannedMove) []error {
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]error, len(moves))

	for i, move := range moves {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start
			_, results[i] = match.Move(context.Background(), "4821", move.player, move.cell)
		}()
	}

	close(start)
	wg.Wait()

	return results
}

func TestMatchUseCase_ConcurrentMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Double submit on the same turn", func(t *testing.T) {
		// Given: Ann holds the first turn
		match, _, _ := newMatch(t)
		paired(t, match)

		var moves []plannedMove
		for range 2 {
			for cell := range tictactoe.CellCount {
				moves = append(moves, plannedMove{player: "Ann", cell: cell})
			}
		}

		// When: Ann submits every cell twice at the same moment
		results := raceMoves(match, moves)

		// Then: exactly one move lands
		successes := 0
		for _, moveErr := range results {
			if moveErr == nil {
				successes++
				continue
			}

			assert.True(t,
				errors.Is(moveErr, apperror.ErrNotYourTurn) || errors.Is(moveErr, apperror.ErrInvalidMove),
				"unexpected error: %v", moveErr)
		}
		assert.Equal(t, 1, successes)

		view, err := match.Poll(ctx, "4821", "Ann")
		require.NoError(t, err)

		xs, ys := countMarks(view.Board)
		assert.Equal(t, 1, xs)
		assert.Equal(t, 0, ys)
		assert.True(t, view.IsInProgress())
		assert.Equal(t, "Bo", view.TurnOwner)
	})

	t.Run("Both players on every cell", func(t *testing.T) {
		// Given
		match, _, _ := newMatch(t)
		paired(t, match)

		var moves []plannedMove
		for cell := range tictactoe.CellCount {
			moves = append(moves, plannedMove{player: "Ann", cell: cell}, plannedMove{player: "Bo", cell: cell})
		}

		// When: both players race for all cells
		results := raceMoves(match, moves)

		// Then: every landed move is on the board and turns still alternate
		successes := 0
		for _, moveErr := range results {
			if moveErr == nil {
				successes++
				continue
			}

			assert.True(t,
				errors.Is(moveErr, apperror.ErrNotYourTurn) ||
					errors.Is(moveErr, apperror.ErrInvalidMove) ||
					errors.Is(moveErr, apperror.ErrSessionFinished),
				"unexpected error: %v", moveErr)
		}

		view, err := match.Poll(ctx, "4821", "Ann")
		require.NoError(t, err)

		xs, ys := countMarks(view.Board)
		require.GreaterOrEqual(t, successes, 1)
		assert.Equal(t, successes, xs+ys)
		assert.Contains(t, []int{0, 1}, xs-ys)

		if view.IsInProgress() {
			if xs == ys {
				assert.Equal(t, "Ann", view.TurnOwner)
			} else {
				assert.Equal(t, "Bo", view.TurnOwner)
			}
		}
	})
}

func TestMatchUseCase_BotRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Bot replies inside the same move", func(t *testing.T) {
		// Given: Ann plays X against the bot
		match, _, events := newMatch(t)

		session, err := match.CreateBotRoom(ctx, "Ann")
		require.NoError(t, err)
		assert.Equal(t, entity.ModeBot, session.Mode)
		assert.Equal(t, "Ann", session.TurnOwner)

		// When: Ann moves
		session, err = match.Move(ctx, session.RoomCode, "Ann", 4)

		// Then: the bot has already answered and it is Ann's turn again
		require.NoError(t, err)
		assert.Len(t, session.Board.FreeCells(), tictactoe.CellCount-2)
		assert.Equal(t, "Ann", session.TurnOwner)

		moves := 0
		for _, kind := range events.kinds() {
			if kind == entity.EventMoved {
				moves++
			}
		}
		assert.Equal(t, 2, moves)
	})

	t.Run("Bot opens when it draws X", func(t *testing.T) {
		match, _, _ := newMatch(t, registry.WithPairing(botPlaysX{}))

		session, err := match.CreateBotRoom(ctx, "Ann")

		require.NoError(t, err)
		assert.Len(t, session.Board.FreeCells(), tictactoe.CellCount-1)
		assert.Equal(t, "Ann", session.TurnOwner)

		mark, _ := session.SymbolOf("Ann")
		assert.Equal(t, tictactoe.MarkO, mark)
	})

	t.Run("Nobody can move for the bot", func(t *testing.T) {
		match, _, _ := newMatch(t, registry.WithPairing(botPlaysX{}))
		session, err := match.CreateBotRoom(ctx, "Ann")
		require.NoError(t, err)

		_, err = match.Move(ctx, session.RoomCode, entity.BotName, session.Board.FreeCells()[0])

		require.ErrorIs(t, err, apperror.ErrNotAMember)
	})

	t.Run("Bot games always finish", func(t *testing.T) {
		match, _, _ := newMatch(t)
		session, err := match.CreateBotRoom(ctx, "Ann")
		require.NoError(t, err)

		for !session.IsFinished() {
			free := session.Board.FreeCells()
			require.NotEmpty(t, free)

			session, err = match.Move(ctx, session.RoomCode, "Ann", free[0])
			require.NoError(t, err)
		}

		assert.NotNil(t, session.Result)

		session, err = match.Restart(ctx, session.RoomCode)
		require.NoError(t, err)
		assert.True(t, session.IsInProgress())
	})
}

func TestMatchUseCase_JournalFailure(t *testing.T) {
	ctx := context.Background()

	// Given: a journal that always fails
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	journal := mockedUseCase.NewMockjournalRepo(t)
	journal.EXPECT().
		Record(mock.Anything, mock.Anything).
		Return(errRedisDown).
		Times(2)

	match := NewMatchUseCase(logger, registry.New(registry.WithCodes(codeList{"4821"})),
		service.NewBotService(rand.New(rand.NewPCG(1, 1))), journal)

	// When: rooms are created and joined
	_, err := match.CreateRoom(ctx, "Ann")
	require.NoError(t, err)

	session, err := match.JoinRoom(ctx, "4821", "Bo")

	// Then: the intents still succeed
	require.NoError(t, err)
	assert.True(t, session.IsInProgress())
}

func TestMatchUseCase_CodesExhausted(t *testing.T) {
	ctx := context.Background()
	match, _, _ := newMatch(t)

	_, err := match.CreateRoom(ctx, "Ann")
	require.NoError(t, err)

	_, err = match.CreateRoom(ctx, "Bo")
	require.ErrorIs(t, err, apperror.ErrRoomCodesExhausted)

	_, err = match.CreateBotRoom(ctx, "Bo")
	require.ErrorIs(t, err, apperror.ErrRoomCodesExhausted)
}

func TestMatchUseCase_History(t *testing.T) {
	ctx := context.Background()

	t.Run("Default limit", func(t *testing.T) {
		match, journal, _ := newMatch(t)

		want := []entity.Event{{Kind: entity.EventJoined, RoomCode: "4821"}}
		journal.EXPECT().History(mock.Anything, "Ann", DefaultHistoryLimit).Return(want, nil).Once()

		events, err := match.History(ctx, " Ann ", 0)

		require.NoError(t, err)
		assert.Equal(t, want, events)
	})

	t.Run("Limit is capped", func(t *testing.T) {
		match, journal, _ := newMatch(t)
		journal.EXPECT().History(mock.Anything, "Ann", MaxHistoryLimit).Return([]entity.Event{}, nil).Once()

		_, err := match.History(ctx, "Ann", 5000)

		require.NoError(t, err)
	})

	t.Run("Storage error", func(t *testing.T) {
		match, journal, _ := newMatch(t)
		journal.EXPECT().History(mock.Anything, "Ann", 5).Return(nil, errRedisDown).Once()

		_, err := match.History(ctx, "Ann", 5)

		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestMatchUseCase_Sweep(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	match, _, events := newMatch(t, registry.WithClock(func() time.Time { return now }))

	_, err := match.CreateRoom(ctx, "Ann")
	require.NoError(t, err)

	assert.Zero(t, match.Sweep(ctx, time.Hour))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, match.Sweep(ctx, time.Hour))

	_, err = match.Poll(ctx, "4821", "Ann")
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	assert.Equal(t, entity.EventSwept, events.kinds()[len(events.kinds())-1])
}
