package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

type roomManager interface {
	JoinRoom(ctx context.Context, roomID, playerName string) (*entity.Room, error)
	MakeMove(ctx context.Context, roomID string, row, col int) (*entity.Room, error)
	ResetGame(ctx context.Context, roomID string) (*entity.Room, error)
}

type Server struct {
	logger   *slog.Logger
	rooms    roomManager
	registry *Registry

	handlers map[string]func(ctx context.Context, roomID string, msg *Message) error
}

func New(logger *slog.Logger, rooms roomManager) *Server {
	server := &Server{
		logger:   logger,
		rooms:    rooms,
		registry: NewRegistry(),

		handlers: make(map[string]func(context.Context, string, *Message) error),
	}

	server.handlers["join_room"] = server.handleJoinRoom
	server.handlers["make_move"] = server.handleMakeMove
	server.handlers["reset_game"] = server.handleResetGame

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ws/{roomID}", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 0, // connections are long-lived message streams
		IdleTimeout: 30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket and subscribes
// it to the requested room.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	roomID := req.PathValue("roomID")
	if roomID == "" {
		http.Error(writer, "room id is required", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking", "error", http.StatusText(http.StatusInternalServerError))
		return
	}

	conn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer conn.Close()

	log.Info("WebSocket connection established", "roomID", roomID)

	that.serveRoom(ctx, roomID, NewConn(bufrw))
}

// serveRoom - registers the socket under its room and runs the read loop
// until the peer disconnects.
func (that *Server) serveRoom(ctx context.Context, roomID string, conn *Conn) {
	log := that.logger.With("method", "serveRoom", "roomID", roomID)

	that.registry.Add(roomID, conn)
	defer that.registry.Remove(roomID, conn)

	for {
		payload, err := conn.ReadMessage()
		if err != nil {
			log.Info("connection closed", "reason", err)
			return
		}

		var message Message
		if err = json.Unmarshal(payload, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Type]
		if !ok {
			log.Warn("unknown message type", "type", message.Type)
			continue
		}

		if err = handler(ctx, roomID, &message); err != nil {
			log.Error("error processing message", "type", message.Type, "error", err)
		}
	}
}

// broadcast - best-effort delivery to every socket in the room. A failed
// send drops that socket and never interrupts delivery to the rest.
func (that *Server) broadcast(roomID string, event Event) {
	log := that.logger.With("method", "broadcast", "roomID", roomID)

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event", "type", event.Type, "error", err)
		return
	}

	for _, conn := range that.registry.Connections(roomID) {
		if err = conn.WriteMessage(payload); err != nil {
			log.Error("failed to send to socket, removing it", "type", event.Type, "error", err)
			that.registry.Remove(roomID, conn)
		}
	}
}
