package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	logger *slog.Logger
	router *httprouter.Router
}

type Option func(*options)

type options struct {
	baseURL string
	mcp     http.Handler
}

// WithBaseURL fixes the public address used in share links. Without it the
// address is taken from the request.
func WithBaseURL(baseURL string) Option {
	return func(that *options) {
		that.baseURL = baseURL
	}
}

// WithMCP mounts an MCP message handler at POST /mcp.
func WithMCP(handler http.Handler) Option {
	return func(that *options) {
		that.mcp = handler
	}
}

func New(logger *slog.Logger, match matchUseCase, opts ...Option) *Server {
	conf := &options{}
	for _, opt := range opts {
		opt(conf)
	}

	log := logger.With("component", "rest")
	h := newHandlers(log, match, conf.baseURL)

	router := httprouter.New()
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		log.Error("panic while serving request", "path", r.URL.Path, "requestID", RequestID(r.Context()), "panic", v)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}

	router.GET("/ping", h.ping)

	router.POST("/rooms", h.createRoom)
	router.GET("/rooms/:code", h.poll)
	router.POST("/rooms/:code/join", h.joinRoom)
	router.POST("/rooms/:code/moves", h.move)
	router.POST("/rooms/:code/restart", h.restart)
	router.POST("/rooms/:code/leave", h.leave)
	router.GET("/rooms/:code/qr", h.qr)

	router.GET("/players/:name/history", h.history)

	if conf.mcp != nil {
		router.Handler(http.MethodPost, "/mcp", conf.mcp)
	}

	return &Server{
		logger: log,
		router: router,
	}
}

// Handler returns the router wrapped with request IDs and access logs.
func (that *Server) Handler() http.Handler {
	return withRequestID(that.logger, that.router)
}

// Start serves on port until ctx is canceled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
