package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const maxBodyBytes = 1 << 16

type matchUseCase interface {
	CreateRoom(ctx context.Context, creator string) (*entity.Session, error)
	CreateBotRoom(ctx context.Context, creator string) (*entity.Session, error)
	JoinRoom(ctx context.Context, roomCode, joiner string) (*entity.Session, error)

	Poll(ctx context.Context, roomCode, viewer string) (entity.View, error)
	Move(ctx context.Context, roomCode, actor string, cell int) (*entity.Session, error)
	Restart(ctx context.Context, roomCode string) (*entity.Session, error)
	Leave(ctx context.Context, roomCode, participant string) (*entity.Session, bool, error)

	History(ctx context.Context, player string, limit int) ([]entity.Event, error)
}

type createRoomRequest struct {
	Player string `json:"player"`
	Bot    bool   `json:"bot"`
}

type playerRequest struct {
	Player string `json:"player"`
}

type moveRequest struct {
	Player string `json:"player"`
	Cell   *int   `json:"cell"`
}

type leaveResponse struct {
	Removed bool            `json:"removed"`
	Session *entity.Session `json:"session"`
}

type historyResponse struct {
	Player string         `json:"player"`
	Events []entity.Event `json:"events"`
}

type handlers struct {
	logger  *slog.Logger
	match   matchUseCase
	baseURL string
}

func newHandlers(logger *slog.Logger, match matchUseCase, baseURL string) *handlers {
	return &handlers{
		logger:  logger,
		match:   match,
		baseURL: baseURL,
	}
}

func (that *handlers) ping(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// createRoom opens a waiting room, or a room against the bot when bot is set.
func (that *handlers) createRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRoomRequest
	if err := decode(w, r, &req); err != nil {
		that.fail(w, r, err)
		return
	}

	create := that.match.CreateRoom
	if req.Bot {
		create = that.match.CreateBotRoom
	}

	session, err := create(r.Context(), req.Player)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	w.Header().Set("Location", "/rooms/"+session.RoomCode)
	writeJSON(w, http.StatusCreated, session)
}

func (that *handlers) joinRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req playerRequest
	if err := decode(w, r, &req); err != nil {
		that.fail(w, r, err)
		return
	}

	session, err := that.match.JoinRoom(r.Context(), ps.ByName("code"), req.Player)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *handlers) poll(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := that.match.Poll(r.Context(), ps.ByName("code"), r.URL.Query().Get("player"))
	if err != nil {
		that.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (that *handlers) move(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req moveRequest
	if err := decode(w, r, &req); err != nil {
		that.fail(w, r, err)
		return
	}

	if req.Cell == nil {
		that.fail(w, r, fmt.Errorf("%w: cell is required", errBadRequest))
		return
	}

	session, err := that.match.Move(r.Context(), ps.ByName("code"), req.Player, *req.Cell)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *handlers) restart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, err := that.match.Restart(r.Context(), ps.ByName("code"))
	if err != nil {
		that.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *handlers) leave(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req playerRequest
	if err := decode(w, r, &req); err != nil {
		that.fail(w, r, err)
		return
	}

	session, removed, err := that.match.Leave(r.Context(), ps.ByName("code"), req.Player)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, leaveResponse{Removed: removed, Session: session})
}

func (that *handlers) history(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			that.fail(w, r, fmt.Errorf("%w: limit must be a number", errBadRequest))
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	events, err := that.match.History(ctx, ps.ByName("name"), limit)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Player: ps.ByName("name"), Events: events})
}

// fail writes the mapped status. Only unexpected errors are logged loudly.
func (that *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	log := that.logger.With("requestID", RequestID(r.Context()), "path", r.URL.Path)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", "status", status, "error", err)
	default:
		log.Debug("request rejected", "status", status, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}

		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}
