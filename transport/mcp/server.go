package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const serverName = "Tic-Tac-Toe Rooms"

const instructions = `Tic-Tac-Toe Rooms - MCP Interface

Two players share a room addressed by a short numeric code. Every tool takes
the room code and your player name explicitly; nothing is remembered between
calls. Poll to see whether it is your turn.

CELLS are numbered 0-8, row by row:
 0 | 1 | 2
 3 | 4 | 5
 6 | 7 | 8

AVAILABLE TOOLS:
- create_room: open a room and wait for an opponent
- create_bot_room: play against the built-in bot
- join_room: take the free seat in a room
- poll: current board, whose turn it is, result
- move: place your mark
- restart: new round with the same two players
- leave: give up your seat
- history: your recent games`

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

// Server exposes the match operations as MCP tools.
type Server struct {
	logger    *slog.Logger
	match     matchUseCase
	mcpServer *server.MCPServer
}

func New(logger *slog.Logger, match matchUseCase, version string) *Server {
	that := &Server{
		logger: logger.With("component", "mcp"),
		match:  match,
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(true),
			server.WithInstructions(instructions),
		),
	}

	that.registerTools()

	return that
}

func (that *Server) MCPServer() *server.MCPServer {
	return that.mcpServer
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (that *Server) ServeStdio() error {
	if err := server.ServeStdio(that.mcpServer); err != nil {
		return fmt.Errorf("mcp stdio server: %w", err)
	}

	return nil
}

// ServeHTTP handles one JSON-RPC message per POST request.
func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := that.mcpServer.HandleMessage(r.Context(), body)

	w.Header().Set("Content-Type", "application/json")
	responseData, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}

	if _, err = w.Write(responseData); err != nil {
		that.logger.Warn("failed to write mcp response", "error", err)
	}
}

func (that *Server) registerTools() {
	roomCode := map[string]interface{}{
		"type":        "string",
		"description": "Room code, e.g. 4821",
	}
	player := map[string]interface{}{
		"type":        "string",
		"description": "Your display name in the room",
	}

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "create_room",
		Description: "Open a new room and wait for a second player",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"player": player},
			Required:   []string{"player"},
		},
	}, that.handleCreateRoom)

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "create_bot_room",
		Description: "Open a room against the built-in bot; the game starts immediately",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"player": player},
			Required:   []string{"player"},
		},
	}, that.handleCreateBotRoom)

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "join_room",
		Description: "Join a waiting room; the game starts as soon as two players are in",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"room_code": roomCode, "player": player},
			Required:   []string{"room_code", "player"},
		},
	}, that.handleJoinRoom)

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "poll",
		Description: "Get the current state of a room as seen by a player",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"room_code": roomCode, "player": player},
			Required:   []string{"room_code"},
		},
	}, that.handlePoll)

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Place your mark on a free cell (0-8) when it is your turn",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_code": roomCode,
				"player":    player,
				"cell": map[string]interface{}{
					"type":        "integer",
					"description": "Cell index 0-8, row by row",
					"minimum":     0,
					"maximum":     8,
				},
			},
			Required: []string{"room_code", "player", "cell"},
		},
	}, that.handleMove)

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "restart",
		Description: "Start a new round with the same two players",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"room_code": roomCode},
			Required:   []string{"room_code"},
		},
	}, that.handleRestart)

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "leave",
		Description: "Leave a room; a game in progress is lost by abandonment",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"room_code": roomCode, "player": player},
			Required:   []string{"room_code", "player"},
		},
	}, that.handleLeave)

	that.mcpServer.AddTool(mcp.Tool{
		Name:        "history",
		Description: "Recent room events for a player, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player": player,
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of events (optional)",
				},
			},
			Required: []string{"player"},
		},
	}, that.handleHistory)
}

func (that *Server) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	session, err := that.match.CreateRoom(ctx, stringArg(args, "player"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created room %s. Share the code and wait for a second player.\n\n%s",
		session.RoomCode, formatSession(session.ViewFor(playerArg(args))))), nil
}

func (that *Server) handleCreateBotRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	session, err := that.match.CreateBotRoom(ctx, stringArg(args, "player"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSession(session.ViewFor(playerArg(args)))), nil
}

func (that *Server) handleJoinRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	session, err := that.match.JoinRoom(ctx, stringArg(args, "room_code"), stringArg(args, "player"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSession(session.ViewFor(playerArg(args)))), nil
}

func (that *Server) handlePoll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	view, err := that.match.Poll(ctx, stringArg(args, "room_code"), stringArg(args, "player"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSession(view)), nil
}

func (that *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	cell, err := intArg(args, "cell")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := that.match.Move(ctx, stringArg(args, "room_code"), stringArg(args, "player"), cell)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSession(session.ViewFor(playerArg(args)))), nil
}

func (that *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	session, err := that.match.Restart(ctx, stringArg(args, "room_code"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSession(session.ViewFor(""))), nil
}

func (that *Server) handleLeave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	session, removed, err := that.match.Leave(ctx, stringArg(args, "room_code"), stringArg(args, "player"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if removed {
		return mcp.NewToolResultText(fmt.Sprintf("Left room %s. The room is closed.", session.RoomCode)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Left room %s.", session.RoomCode)), nil
}

func (that *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	limit := 0
	if _, ok := args["limit"]; ok {
		parsed, err := intArg(args, "limit")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit = parsed
	}

	events, err := that.match.History(ctx, stringArg(args, "player"), limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(events)), nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}

	return args
}

func stringArg(args map[string]interface{}, key string) string {
	value, _ := args[key].(string)
	return value
}

func playerArg(args map[string]interface{}) string {
	return strings.TrimSpace(stringArg(args, "player"))
}

// intArg accepts JSON numbers, which arrive as float64, as long as they are whole.
func intArg(args map[string]interface{}, key string) (int, error) {
	switch value := args[key].(type) {
	case float64:
		if value != math.Trunc(value) {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		if value < math.MinInt32 || value > math.MaxInt32 {
			return 0, fmt.Errorf("%s is out of range", key)
		}
		return int(value), nil
	case int:
		return value, nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}
