package apperror

import "errors"

// Recoverable conditions. Callers re-render a waiting or menu view on any of these.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrSessionFinished  = errors.New("game is already finished")
	ErrInvalidMove      = errors.New("invalid move")
	ErrNotEnoughPlayers = errors.New("not enough players")

	ErrNotStarted       = errors.New("game is not started")
	ErrNotAMember       = errors.New("player is not a member of this room")
	ErrNameTaken        = errors.New("name is already taken in this room")
	ErrRoomCodeRequired = errors.New("room code is required")
	ErrInvalidRoomCode  = errors.New("invalid room code")
	ErrInvalidName      = errors.New("invalid player name")
)

// ErrRoomCodesExhausted means every room code is in use. It is never retried into a colliding code.
var ErrRoomCodesExhausted = errors.New("room code namespace exhausted")
