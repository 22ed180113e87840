package engine

import (
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Difficulty controls how close the computer plays to optimal.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Share of medium-difficulty turns played optimally.
const mediumOptimalChance = 0.7

const (
	winScore = 10
	infinity = 1000
)

// ParseDifficulty - maps a wire string to a difficulty; anything
// unrecognized, including the empty string, plays hard.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyMedium:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// ChooseMove - picks the computer's (O) move for the given board. The board
// is passed by value, so the search always mutates a private copy and never
// the caller's authoritative state. A board that already holds a winner is
// rejected, a full board has no move to offer.
func ChooseMove(board entity.Board, difficulty Difficulty) (Move, error) {
	if winner := CheckWinner(board); winner != "" {
		return Move{}, apperror.ErrGameFinished
	}

	moves := AvailableMoves(board)
	if len(moves) == 0 {
		return Move{}, apperror.ErrNoAvailableMoves
	}

	switch difficulty {
	case DifficultyEasy:
		return moves[rand.Intn(len(moves))], nil //nolint: gosec // not a security context
	case DifficultyMedium:
		if rand.Float64() >= mediumOptimalChance { //nolint: gosec // not a security context
			return moves[rand.Intn(len(moves))], nil //nolint: gosec // not a security context
		}
	}

	return bestMove(&board, moves), nil
}

// bestMove - simulates every available move for O and keeps the one with the
// strictly greatest score. Ties keep the earliest row-major candidate.
func bestMove(board *entity.Board, moves []Move) Move {
	best := moves[0]
	bestScore := -infinity

	for _, move := range moves {
		board[move.Row][move.Col] = entity.PlayerO
		// Each candidate is ply 0 of its own subtree; X replies next.
		score := minimax(board, 0, false, -infinity, infinity)
		board[move.Row][move.Col] = entity.EmptyCell

		if score > bestScore {
			bestScore = score
			best = move
		}
	}

	return best
}

// minimax - alpha-beta pruned game-tree search. O maximizes. Wins score
// higher the fewer plies they take, losses score less negative the longer
// they are delayed, a full board with no winner scores zero. Candidate cells
// are claimed and restored in place; the caller owns the board.
func minimax(board *entity.Board, depth int, maximizing bool, alpha, beta int) int {
	switch CheckWinner(*board) {
	case entity.PlayerO:
		return winScore - depth
	case entity.PlayerX:
		return depth - winScore
	}

	if IsFull(*board) {
		return 0
	}

	if maximizing {
		maxEval := -infinity
		for row := range board {
			for col := range board[row] {
				if board[row][col] != entity.EmptyCell {
					continue
				}

				board[row][col] = entity.PlayerO
				eval := minimax(board, depth+1, false, alpha, beta)
				board[row][col] = entity.EmptyCell

				if eval > maxEval {
					maxEval = eval
				}
				if eval > alpha {
					alpha = eval
				}
				if beta <= alpha {
					return maxEval
				}
			}
		}
		return maxEval
	}

	minEval := infinity
	for row := range board {
		for col := range board[row] {
			if board[row][col] != entity.EmptyCell {
				continue
			}

			board[row][col] = entity.PlayerX
			eval := minimax(board, depth+1, true, alpha, beta)
			board[row][col] = entity.EmptyCell

			if eval < minEval {
				minEval = eval
			}
			if eval < beta {
				beta = eval
			}
			if beta <= alpha {
				return minEval
			}
		}
	}
	return minEval
}
