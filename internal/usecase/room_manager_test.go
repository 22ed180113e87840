package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStorageDown = errors.New("storage down")

// memoryRoomRepo is an in-memory stand-in for the Redis repository. It
// round-trips rooms by value, like the real one does through JSON.
type memoryRoomRepo struct {
	mutex   sync.Mutex
	rooms   map[string]entity.Room
	saveErr error
}

func newMemoryRoomRepo() *memoryRoomRepo {
	return &memoryRoomRepo{rooms: make(map[string]entity.Room)}
}

func (that *memoryRoomRepo) CreateOrUpdate(_ context.Context, room *entity.Room) error {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	if that.saveErr != nil {
		return that.saveErr
	}

	that.rooms[room.RoomID] = *room
	return nil
}

func (that *memoryRoomRepo) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}

	return &room, nil
}

func newTestManager() (*RoomManager, *memoryRoomRepo) {
	repo := newMemoryRoomRepo()
	return NewRoomManager(slog.New(slog.NewTextHandler(io.Discard, nil)), repo), repo
}

func TestRoomManager_CreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates an empty room with an 8-character id", func(t *testing.T) {
		// Given: a manager over an empty store
		manager, repo := newTestManager()

		// When: a room is created
		room, err := manager.CreateRoom(ctx)

		// Then: it is persisted, empty, with X to move
		require.NoError(t, err)
		assert.Len(t, room.RoomID, 8)
		assert.Empty(t, room.Players)
		assert.Equal(t, entity.NewGameState(), room.GameState)
		assert.Contains(t, repo.rooms, room.RoomID)
	})

	t.Run("Surfaces persistence failures", func(t *testing.T) {
		// Given: a store that rejects writes
		manager, repo := newTestManager()
		repo.saveErr = errStorageDown

		// When: a room is created
		_, err := manager.CreateRoom(ctx)

		// Then: the failure reaches the caller
		assert.ErrorIs(t, err, errStorageDown)
	})
}

func TestRoomManager_GetRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns a stored room", func(t *testing.T) {
		manager, _ := newTestManager()
		created, err := manager.CreateRoom(ctx)
		require.NoError(t, err)

		room, err := manager.GetRoom(ctx, created.RoomID)

		require.NoError(t, err)
		assert.Equal(t, created.RoomID, room.RoomID)
	})

	t.Run("Returns not-found for an unknown id", func(t *testing.T) {
		manager, _ := newTestManager()

		_, err := manager.GetRoom(ctx, "missing1")

		assert.ErrorIs(t, err, repository.ErrRoomNotFound)
	})
}

func TestRoomManager_JoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Repeated joins never grow the player set past two", func(t *testing.T) {
		// Given: a room alice and bob joined
		manager, _ := newTestManager()
		room, err := manager.CreateRoom(ctx)
		require.NoError(t, err)

		_, err = manager.JoinRoom(ctx, room.RoomID, "alice")
		require.NoError(t, err)
		_, err = manager.JoinRoom(ctx, room.RoomID, "bob")
		require.NoError(t, err)

		// When: alice re-joins and carol tries to join
		joined, err := manager.JoinRoom(ctx, room.RoomID, "alice")
		require.NoError(t, err)
		_, carolErr := manager.JoinRoom(ctx, room.RoomID, "carol")

		// Then: the set holds exactly alice and bob
		assert.Equal(t, []string{"alice", "bob"}, joined.Players)
		assert.ErrorIs(t, carolErr, apperror.ErrRoomFull)
	})

	t.Run("Joining an unknown room fails", func(t *testing.T) {
		manager, _ := newTestManager()

		_, err := manager.JoinRoom(ctx, "missing1", "alice")

		assert.ErrorIs(t, err, repository.ErrRoomNotFound)
	})
}

func TestRoomManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Applies and persists a legal move", func(t *testing.T) {
		// Given: a fresh room
		manager, _ := newTestManager()
		room, err := manager.CreateRoom(ctx)
		require.NoError(t, err)

		// When: X moves to the center
		updated, err := manager.MakeMove(ctx, room.RoomID, 1, 1)

		// Then: the persisted state reflects the move and the turn flip
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, updated.GameState.Board[1][1])
		assert.Equal(t, entity.PlayerO, updated.GameState.CurrentPlayer)

		stored, err := manager.GetRoom(ctx, room.RoomID)
		require.NoError(t, err)
		assert.Equal(t, updated.GameState, stored.GameState)
	})

	t.Run("Rejects a move on an unknown room", func(t *testing.T) {
		manager, _ := newTestManager()

		_, err := manager.MakeMove(ctx, "missing1", 0, 0)

		assert.ErrorIs(t, err, repository.ErrRoomNotFound)
	})

	t.Run("Does not persist a rejected move", func(t *testing.T) {
		// Given: a room where (0,0) is taken
		manager, _ := newTestManager()
		room, err := manager.CreateRoom(ctx)
		require.NoError(t, err)
		_, err = manager.MakeMove(ctx, room.RoomID, 0, 0)
		require.NoError(t, err)

		// When: the same cell is played again
		_, err = manager.MakeMove(ctx, room.RoomID, 0, 0)

		// Then: the rejection leaves the stored state alone
		require.ErrorIs(t, err, apperror.ErrCellOccupied)

		stored, err := manager.GetRoom(ctx, room.RoomID)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, stored.GameState.Board[0][0])
		assert.Equal(t, entity.PlayerO, stored.GameState.CurrentPlayer)
	})

	t.Run("Exactly one of N concurrent moves on one cell is accepted", func(t *testing.T) {
		// Given: a fresh room and many writers racing for the center
		manager, _ := newTestManager()
		room, err := manager.CreateRoom(ctx)
		require.NoError(t, err)

		const writers = 16

		var wg sync.WaitGroup
		results := make(chan error, writers)

		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, moveErr := manager.MakeMove(ctx, room.RoomID, 1, 1)
				results <- moveErr
			}()
		}

		wg.Wait()
		close(results)

		// Then: one move is accepted and the rest fail on the occupied cell
		var accepted, rejected int
		for moveErr := range results {
			if moveErr == nil {
				accepted++
				continue
			}
			require.ErrorIs(t, moveErr, apperror.ErrCellOccupied)
			rejected++
		}

		assert.Equal(t, 1, accepted)
		assert.Equal(t, writers-1, rejected)

		stored, err := manager.GetRoom(ctx, room.RoomID)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, stored.GameState.Board[1][1])

		// And: no per-room lock entry outlives the contention
		manager.locksMutex.Lock()
		assert.Empty(t, manager.roomLocks)
		manager.locksMutex.Unlock()
	})
}

func TestRoomManager_LockPruning(t *testing.T) {
	ctx := context.Background()

	t.Run("Drops the lock entry once the mutation completes", func(t *testing.T) {
		// Given: a room that saw a join, a move and a reset
		manager, _ := newTestManager()
		room, err := manager.CreateRoom(ctx)
		require.NoError(t, err)

		_, err = manager.JoinRoom(ctx, room.RoomID, "alice")
		require.NoError(t, err)
		_, err = manager.MakeMove(ctx, room.RoomID, 1, 1)
		require.NoError(t, err)
		_, err = manager.ResetGame(ctx, room.RoomID)
		require.NoError(t, err)

		// Then: the lock registry holds nothing for the idle room
		manager.locksMutex.Lock()
		assert.Empty(t, manager.roomLocks)
		manager.locksMutex.Unlock()
	})

	t.Run("Leaves nothing behind for an unknown room id", func(t *testing.T) {
		// Given: a manager probed with an id that was never created
		manager, _ := newTestManager()

		_, err := manager.MakeMove(ctx, "missing1", 0, 0)
		require.ErrorIs(t, err, repository.ErrRoomNotFound)

		// Then: the failed lookup did not register a lock
		manager.locksMutex.Lock()
		assert.Empty(t, manager.roomLocks)
		manager.locksMutex.Unlock()
	})
}

func TestRoomManager_ResetGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Replaces any state with a fresh one", func(t *testing.T) {
		// Given: a room with a game in progress
		manager, _ := newTestManager()
		room, err := manager.CreateRoom(ctx)
		require.NoError(t, err)
		_, err = manager.MakeMove(ctx, room.RoomID, 0, 0)
		require.NoError(t, err)

		// When: the game is reset
		reset, err := manager.ResetGame(ctx, room.RoomID)

		// Then: the state is pristine and the players stay
		require.NoError(t, err)
		assert.Equal(t, entity.NewGameState(), reset.GameState)
	})

	t.Run("Resetting an unknown room fails", func(t *testing.T) {
		manager, _ := newTestManager()

		_, err := manager.ResetGame(ctx, "missing1")

		assert.ErrorIs(t, err, repository.ErrRoomNotFound)
	})
}
