package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/engine"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
}

// RoomManager owns every mutation of a room. The read-validate-mutate-persist
// cycle runs under that room's mutex, so all clients observe one total order
// of moves and resets per room while distinct rooms proceed in parallel.
type RoomManager struct {
	logger   *slog.Logger
	roomRepo roomRepo

	locksMutex sync.Mutex
	roomLocks  map[string]*roomLock
}

// roomLock serializes one room's mutations. holders counts every goroutine
// that took a reference and has not released it yet, so the registry entry
// can be dropped the moment the last one leaves.
type roomLock struct {
	sync.Mutex
	holders int
}

func NewRoomManager(logger *slog.Logger, roomRepo roomRepo) *RoomManager {
	return &RoomManager{
		logger:   logger,
		roomRepo: roomRepo,

		roomLocks: make(map[string]*roomLock),
	}
}

func (that *RoomManager) CreateRoom(ctx context.Context) (*entity.Room, error) {
	room := entity.NewRoom(pkg.GenerateRoomID())

	if err := that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	that.logger.Info("room created", "roomID", room.RoomID)

	return room, nil
}

func (that *RoomManager) GetRoom(ctx context.Context, roomID string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// JoinRoom - adds a player name to the room. Re-joining under the same name
// is a no-op, a third name is rejected.
func (that *RoomManager) JoinRoom(ctx context.Context, roomID, playerName string) (*entity.Room, error) {
	unlock := that.lockRoom(roomID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if err = room.AddPlayer(playerName); err != nil {
		return nil, err
	}

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	return room, nil
}

// MakeMove - places the current player's mark at (row, col) and persists the
// resulting state. Exactly one of two concurrent moves on the same cell is
// accepted; the loser fails validation against the updated board.
func (that *RoomManager) MakeMove(ctx context.Context, roomID string, row, col int) (*entity.Room, error) {
	unlock := that.lockRoom(roomID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if err = engine.ApplyMove(&room.GameState, row, col); err != nil {
		return nil, err
	}

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	return room, nil
}

// ResetGame - replaces the room's game state with a fresh one, X to move.
func (that *RoomManager) ResetGame(ctx context.Context, roomID string) (*entity.Room, error) {
	unlock := that.lockRoom(roomID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	room.GameState.Reset()

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	that.logger.Info("game reset", "roomID", room.RoomID)

	return room, nil
}

// lockRoom - takes the mutex owning roomID, creating it on first use. The
// returned func releases the mutex and prunes the registry entry once no
// other goroutine holds or waits on it, so idle rooms leave nothing behind.
func (that *RoomManager) lockRoom(roomID string) func() {
	that.locksMutex.Lock()
	lock, ok := that.roomLocks[roomID]
	if !ok {
		lock = &roomLock{}
		that.roomLocks[roomID] = lock
	}
	lock.holders++
	that.locksMutex.Unlock()

	lock.Lock()

	return func() {
		lock.Unlock()

		that.locksMutex.Lock()
		lock.holders--
		if lock.holders == 0 {
			delete(that.roomLocks, roomID)
		}
		that.locksMutex.Unlock()
	}
}
