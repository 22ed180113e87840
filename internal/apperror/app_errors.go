package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell coordinates")
	ErrRoomFull         = errors.New("room is full")
	ErrNoAvailableMoves = errors.New("no moves available")
	ErrInvalidBoard     = errors.New("invalid board")
)
