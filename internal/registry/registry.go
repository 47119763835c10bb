package registry

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Random draws tried before falling back to a linear scan of the code space.
const maxCodeDraws = 32

// Registry owns every active session. All reads and writes go through one
// lock; callers only ever see clones.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Session

	codes   CodeSpace
	pairing entity.PairingPolicy
	rnd     *rand.Rand
	now     func() time.Time
}

type Option func(*Registry)

func WithCodes(codes CodeSpace) Option {
	return func(that *Registry) {
		that.codes = codes
	}
}

func WithPairing(policy entity.PairingPolicy) Option {
	return func(that *Registry) {
		that.pairing = policy
	}
}

// WithRand sets the source used to draw room codes.
func WithRand(rnd *rand.Rand) Option {
	return func(that *Registry) {
		that.rnd = rnd
	}
}

func WithClock(now func() time.Time) Option {
	return func(that *Registry) {
		that.now = now
	}
}

func New(opts ...Option) *Registry {
	that := &Registry{
		rooms:   make(map[string]*entity.Session),
		codes:   defaultCodes(),
		pairing: entity.CreatorFirst{},
		rnd:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint: gosec // room codes are not secrets
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(that)
	}

	return that
}

func defaultCodes() *NumericCodes {
	codes, err := NewNumericCodes(DefaultCodeLength)
	if err != nil {
		panic(fmt.Errorf("default room codes: %w", err))
	}

	return codes
}

func (that *Registry) Codes() CodeSpace {
	return that.codes
}

// CreateRoom opens a waiting room for the creator under a fresh code.
func (that *Registry) CreateRoom(creator entity.Participant) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	code, err := that.nextCode()
	if err != nil {
		return nil, err
	}

	session := entity.NewSession(code, entity.ModeVersus, creator, that.now())
	that.rooms[code] = session

	return session.Clone(), nil
}

// CreateBotRoom opens a room already paired with the bot. setup runs before
// the room becomes visible, so an opening bot move is never observed half-done.
func (that *Registry) CreateBotRoom(creator entity.Participant, setup func(*entity.Session) error) (*entity.Session, error) {
	if creator.Name == entity.BotName {
		return nil, fmt.Errorf("%w: %s is reserved", apperror.ErrNameTaken, entity.BotName)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	code, err := that.nextCode()
	if err != nil {
		return nil, err
	}

	session := entity.NewSession(code, entity.ModeBot, creator, that.now())

	if err = session.AddParticipant(entity.NewBotParticipant()); err != nil {
		return nil, err
	}

	if err = session.AssignSymbols(that.pairing); err != nil {
		return nil, err
	}

	if setup != nil {
		if err = setup(session); err != nil {
			return nil, err
		}
	}

	that.rooms[code] = session

	return session.Clone(), nil
}

// JoinRoom adds the joiner and pairs the room in a single critical section.
func (that *Registry) JoinRoom(code string, joiner entity.Participant) (*entity.Session, error) {
	return that.Update(code, func(session *entity.Session) error {
		if err := session.AddParticipant(joiner); err != nil {
			return err
		}

		return session.AssignSymbols(that.pairing)
	})
}

func (that *Registry) GetSession(code string) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	return session.Clone(), nil
}

// Update runs fn on a copy of the session and commits the copy only when fn
// succeeds. fn must not call back into the registry.
func (that *Registry) Update(code string, fn func(*entity.Session) error) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	next := session.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	next.UpdatedAt = that.now()
	that.rooms[code] = next

	return next.Clone(), nil
}

// Reset restarts a room with the registry's pairing policy. after, if set,
// runs on the fresh round before it is committed.
func (that *Registry) Reset(code string, after func(*entity.Session) error) (*entity.Session, error) {
	return that.Update(code, func(session *entity.Session) error {
		if err := session.Reset(that.pairing); err != nil {
			return err
		}

		if after == nil {
			return nil
		}

		return after(session)
	})
}

func (that *Registry) RemoveRoom(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, code)
}

// Leave removes the participant from the room. The room itself is dropped
// once no human is left in it; removed reports that.
func (that *Registry) Leave(code, name string) (session *entity.Session, removed bool, err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	current, ok := that.rooms[code]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	next := current.Clone()
	if err = next.Abandon(name); err != nil {
		return nil, false, err
	}

	next.UpdatedAt = that.now()

	if next.HumanCount() == 0 {
		delete(that.rooms, code)
		return next, true, nil
	}

	that.rooms[code] = next

	return next.Clone(), false, nil
}

// Sweep drops rooms without activity for longer than idle and returns them
// ordered by room code.
func (that *Registry) Sweep(idle time.Duration) []*entity.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	cutoff := that.now().Add(-idle)

	var swept []*entity.Session
	for code, session := range that.rooms {
		if session.UpdatedAt.Before(cutoff) {
			delete(that.rooms, code)
			swept = append(swept, session)
		}
	}

	slices.SortFunc(swept, func(a, b *entity.Session) int {
		return cmp.Compare(a.RoomCode, b.RoomCode)
	})

	return swept
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

// nextCode must be called with the write lock held.
func (that *Registry) nextCode() (string, error) {
	size := that.codes.Size()

	if len(that.rooms) < size {
		for range maxCodeDraws {
			code := that.codes.At(that.rnd.IntN(size))
			if _, taken := that.rooms[code]; !taken {
				return code, nil
			}
		}
	}

	offset := that.rnd.IntN(size)
	for i := range size {
		code := that.codes.At((offset + i) % size)
		if _, taken := that.rooms[code]; !taken {
			return code, nil
		}
	}

	return "", fmt.Errorf("%w: all %d codes are in use", apperror.ErrRoomCodesExhausted, size)
}
