package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/engine"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

type aiMoveRequest struct {
	Board      entity.Board `json:"board"`
	Difficulty string       `json:"difficulty"`
}

func (that *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (that *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleCreateRoom")

	room, err := that.rooms.CreateRoom(r.Context())
	if err != nil {
		log.Error("failed to create room", "error", err)
		that.writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	that.writeJSON(w, http.StatusOK, map[string]string{"room_id": room.RoomID})
}

func (that *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleGetRoom")

	room, err := that.rooms.GetRoom(r.Context(), r.PathValue("roomID"))
	if errors.Is(err, repository.ErrRoomNotFound) {
		that.writeError(w, http.StatusNotFound, "room not found")
		return
	}

	if err != nil {
		log.Error("failed to get room", "error", err)
		that.writeError(w, http.StatusInternalServerError, "failed to get room")
		return
	}

	that.writeJSON(w, http.StatusOK, room)
}

// handleAIMove - computes the computer's move for the posted board. This is
// a direct request/response call: unlike the realtime channel, malformed
// input fails loudly. Nothing is persisted; applying the move is up to the
// caller.
func (that *Server) handleAIMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleAIMove")

	var req aiMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Board.Validate(); err != nil {
		that.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	move, err := engine.ChooseMove(req.Board, engine.ParseDifficulty(req.Difficulty))

	switch {
	case errors.Is(err, apperror.ErrNoAvailableMoves):
		that.writeJSON(w, http.StatusOK, map[string]string{"error": "no moves available"})
	case errors.Is(err, apperror.ErrGameFinished):
		that.writeError(w, http.StatusUnprocessableEntity, "game is already finished")
	case err != nil:
		log.Error("failed to choose move", "error", err)
		that.writeError(w, http.StatusInternalServerError, "failed to choose move")
	default:
		that.writeJSON(w, http.StatusOK, move)
	}
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, status int, message string) {
	that.writeJSON(w, status, map[string]string{"error": message})
}
