package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type roomManager interface {
	CreateRoom(ctx context.Context) (*entity.Room, error)
	GetRoom(ctx context.Context, roomID string) (*entity.Room, error)
}

type Server struct {
	logger *slog.Logger
	rooms  roomManager
}

func New(logger *slog.Logger, rooms roomManager) *Server {
	return &Server{
		logger: logger,
		rooms:  rooms,
	}
}

func (that *Server) Start(port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      allowCORS(that.Routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", that.handleHealth)
	mux.HandleFunc("POST /api/create-room", that.handleCreateRoom)
	mux.HandleFunc("GET /api/room/{roomID}", that.handleGetRoom)
	mux.HandleFunc("POST /api/ai-move", that.handleAIMove)

	return mux
}

// allowCORS - the API serves a browser frontend from another origin.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
