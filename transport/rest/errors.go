package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrRoomCodesExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperror.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrInvalidMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrRoomFull),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrSessionFinished),
		errors.Is(err, apperror.ErrNotStarted),
		errors.Is(err, apperror.ErrNotEnoughPlayers),
		errors.Is(err, apperror.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrRoomCodeRequired),
		errors.Is(err, apperror.ErrInvalidName),
		errors.Is(err, apperror.ErrInvalidRoomCode),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}
