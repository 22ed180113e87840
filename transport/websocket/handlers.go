package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

const (
	eventPlayerJoined = "player_joined"
	eventGameUpdate   = "game_update"
	eventGameReset    = "game_reset"
)

// droppedEvents counts invalid realtime events discarded without a reply.
// Dropping is deliberate (stale and duplicate client messages are expected
// on this channel) but must stay observable.
var droppedEvents atomic.Uint64

// isDroppable - reports whether the error is a rejected event rather than an
// infrastructure failure. Rejected events are dropped silently per protocol;
// everything else surfaces to the read loop.
func isDroppable(err error) bool {
	return errors.Is(err, repository.ErrRoomNotFound) ||
		errors.Is(err, apperror.ErrRoomFull) ||
		errors.Is(err, apperror.ErrCellOccupied) ||
		errors.Is(err, apperror.ErrGameFinished) ||
		errors.Is(err, apperror.ErrInvalidCell)
}

func (that *Server) dropEvent(eventType, roomID string, err error) {
	that.logger.Warn("dropped invalid event",
		"type", eventType,
		"roomID", roomID,
		"reason", err,
		"dropped_total", droppedEvents.Add(1),
	)
}

func (that *Server) handleJoinRoom(ctx context.Context, roomID string, msg *Message) error {
	if msg.PlayerName == "" {
		that.dropEvent(msg.Type, roomID, errors.New("player_name is required"))
		return nil
	}

	room, err := that.rooms.JoinRoom(ctx, roomID, msg.PlayerName)
	if isDroppable(err) {
		that.dropEvent(msg.Type, roomID, err)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.logger.Info("player joined", "roomID", room.RoomID, "player", msg.PlayerName)

	that.broadcast(roomID, Event{
		Type:   eventPlayerJoined,
		Player: msg.PlayerName,
	})

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, roomID string, msg *Message) error {
	if msg.Row == nil || msg.Col == nil {
		that.dropEvent(msg.Type, roomID, errors.New("row and col are required"))
		return nil
	}

	room, err := that.rooms.MakeMove(ctx, roomID, *msg.Row, *msg.Col)
	if isDroppable(err) {
		that.dropEvent(msg.Type, roomID, err)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	that.broadcast(roomID, Event{
		Type:      eventGameUpdate,
		GameState: &room.GameState,
	})

	return nil
}

func (that *Server) handleResetGame(ctx context.Context, roomID string, msg *Message) error {
	room, err := that.rooms.ResetGame(ctx, roomID)
	if isDroppable(err) {
		that.dropEvent(msg.Type, roomID, err)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to reset game: %w", err)
	}

	that.broadcast(roomID, Event{
		Type:      eventGameReset,
		GameState: &room.GameState,
	})

	return nil
}
