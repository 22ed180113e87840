package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = "-"

	BoardSize = 3

	MaxPlayers = 2
)

// Board is the 3x3 grid; every cell holds EmptyCell, PlayerX or PlayerO.
type Board [BoardSize][BoardSize]string

// NewBoard returns a board with all cells empty.
func NewBoard() Board {
	var board Board
	for row := range board {
		for col := range board[row] {
			board[row][col] = EmptyCell
		}
	}
	return board
}

// UnmarshalJSON - decodes the grid strictly. Decoding straight into the
// fixed array would silently truncate extra rows and cells; anything other
// than exactly three rows of three cells is rejected instead.
func (that *Board) UnmarshalJSON(data []byte) error {
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidBoard, err)
	}

	if len(rows) != BoardSize {
		return fmt.Errorf("%w: expected %d rows, got %d", apperror.ErrInvalidBoard, BoardSize, len(rows))
	}

	for row := range rows {
		if len(rows[row]) != BoardSize {
			return fmt.Errorf("%w: row %d holds %d cells", apperror.ErrInvalidBoard, row, len(rows[row]))
		}
		for col := range rows[row] {
			that[row][col] = rows[row][col]
		}
	}

	return nil
}

// Validate - checks that every cell carries a known mark.
func (that *Board) Validate() error {
	for row := range that {
		for col := range that[row] {
			switch that[row][col] {
			case EmptyCell, PlayerX, PlayerO:
			default:
				return fmt.Errorf("%w: cell (%d,%d) holds %q", apperror.ErrInvalidBoard, row, col, that[row][col])
			}
		}
	}
	return nil
}

type GameState struct {
	Board         Board  `json:"board"`
	CurrentPlayer string `json:"current_player"`
	GameOver      bool   `json:"game_over"`
	Winner        string `json:"winner,omitempty"`
	IsDraw        bool   `json:"is_draw"`
}

// NewGameState returns the initial state: empty board, X to move.
func NewGameState() GameState {
	return GameState{
		Board:         NewBoard(),
		CurrentPlayer: PlayerX,
	}
}

// Reset - restores the initial state in place, whatever the prior state was.
func (that *GameState) Reset() {
	*that = NewGameState()
}

type Room struct {
	RoomID    string    `json:"room_id"`
	Players   []string  `json:"players"`
	GameState GameState `json:"game_state"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRoom(id string) *Room {
	return &Room{
		RoomID:    id,
		Players:   []string{},
		GameState: NewGameState(),
		CreatedAt: time.Now().UTC(),
	}
}

// AddPlayer - adds a player name with set semantics: re-adding a present
// name is a no-op and insertion order is the join order.
func (that *Room) AddPlayer(name string) error {
	if that.HasPlayer(name) {
		return nil
	}

	if len(that.Players) >= MaxPlayers {
		return fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.RoomID)
	}

	that.Players = append(that.Players, name)

	return nil
}

func (that *Room) HasPlayer(name string) bool {
	for _, player := range that.Players {
		if player == name {
			return true
		}
	}
	return false
}
