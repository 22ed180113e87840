package engine

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Move is a cell position on the board.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CheckWinner - returns the mark holding a full line, or an empty string.
// Rows are scanned before columns, columns before diagonals; a well-formed
// board has at most one winner so the order is not observable.
func CheckWinner(board entity.Board) string {
	for row := range board {
		if board[row][0] != entity.EmptyCell && board[row][0] == board[row][1] && board[row][1] == board[row][2] {
			return board[row][0]
		}
	}

	for col := range board[0] {
		if board[0][col] != entity.EmptyCell && board[0][col] == board[1][col] && board[1][col] == board[2][col] {
			return board[0][col]
		}
	}

	if board[0][0] != entity.EmptyCell && board[0][0] == board[1][1] && board[1][1] == board[2][2] {
		return board[0][0]
	}

	if board[0][2] != entity.EmptyCell && board[0][2] == board[1][1] && board[1][1] == board[2][0] {
		return board[0][2]
	}

	return ""
}

// IsFull - reports whether no cell is empty.
func IsFull(board entity.Board) bool {
	for row := range board {
		for col := range board[row] {
			if board[row][col] == entity.EmptyCell {
				return false
			}
		}
	}
	return true
}

// AvailableMoves - enumerates empty cells in row-major order. The order is
// load-bearing: the search keeps the earliest of equally-scored moves and
// the random difficulties index into this slice.
func AvailableMoves(board entity.Board) []Move {
	moves := make([]Move, 0, entity.BoardSize*entity.BoardSize)
	for row := range board {
		for col := range board[row] {
			if board[row][col] == entity.EmptyCell {
				moves = append(moves, Move{Row: row, Col: col})
			}
		}
	}
	return moves
}

// ApplyMove - places the current player's mark at (row, col), recomputes the
// terminal state and flips the turn. The state is either fully updated or
// left untouched.
func ApplyMove(state *entity.GameState, row, col int) error {
	if row < 0 || row >= entity.BoardSize || col < 0 || col >= entity.BoardSize {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrInvalidCell, row, col)
	}

	if state.GameOver {
		return apperror.ErrGameFinished
	}

	if state.Board[row][col] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	state.Board[row][col] = state.CurrentPlayer

	winner := CheckWinner(state.Board)
	state.Winner = winner
	state.IsDraw = winner == "" && IsFull(state.Board)
	state.GameOver = winner != "" || state.IsDraw
	state.CurrentPlayer = toggleMark(state.CurrentPlayer)

	return nil
}

func toggleMark(currentMark string) string {
	if currentMark == entity.PlayerX {
		return entity.PlayerO
	}
	return entity.PlayerX
}
