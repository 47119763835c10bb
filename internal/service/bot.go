package service

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var (
	ErrBotNotFound      = errors.New("bot player not found")
	ErrNoAvailableMoves = errors.New("no available moves")
)

type BotService interface {
	MakeTurn(session *entity.Session) error
}

type botService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewBotService(rnd *rand.Rand) BotService {
	return &botService{rnd: rnd}
}

// MakeTurn plays a random free cell when the bot owns the turn. Any other
// state is left alone.
func (that *botService) MakeTurn(session *entity.Session) error {
	if !session.IsInProgress() || session.TurnOwner != entity.BotName {
		return nil
	}

	if !session.HasParticipant(entity.BotName) {
		return ErrBotNotFound
	}

	availableCells := session.Board.FreeCells()
	if len(availableCells) == 0 {
		return ErrNoAvailableMoves
	}

	that.mu.Lock()
	chosenCell := availableCells[that.rnd.IntN(len(availableCells))]
	that.mu.Unlock()

	if err := session.ApplyMove(entity.BotName, chosenCell); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	return nil
}
