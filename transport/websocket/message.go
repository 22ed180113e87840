package websocket

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	opCodeText  = 1
	opCodeClose = 8
)

// ErrConnectionClosed is returned when the peer sends a close frame.
var ErrConnectionClosed = errors.New("connection closed by peer")

// Message is an inbound client event. Row and Col are pointers so that a
// missing coordinate is distinguishable from cell zero.
type Message struct {
	Type       string `json:"type"`
	PlayerName string `json:"player_name,omitempty"`
	Row        *int   `json:"row,omitempty"`
	Col        *int   `json:"col,omitempty"`
}

// Event is an outbound broadcast message.
type Event struct {
	Type      string            `json:"type"`
	Player    string            `json:"player,omitempty"`
	GameState *entity.GameState `json:"game_state,omitempty"`
}

// Conn is one hijacked WebSocket connection. Writes are serialized by the
// mutex so concurrent broadcasts never interleave frames.
type Conn struct {
	writeMutex sync.Mutex
	bufrw      *bufio.ReadWriter
}

func NewConn(bufrw *bufio.ReadWriter) *Conn {
	return &Conn{bufrw: bufrw}
}

// WriteMessage - sends one text frame carrying the payload.
func (that *Conn) WriteMessage(payload []byte) error {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	buf := make([]byte, 2)
	buf[0] = 0x80 | opCodeText // single unfragmented text frame

	length := uint64(len(payload))
	switch {
	case length < 126:
		buf[1] |= byte(length)
	case length < 1<<16:
		buf[1] |= 126
		size := make([]byte, 2)
		binary.BigEndian.PutUint16(size, uint16(length))
		buf = append(buf, size...) //nolint: makezero // header is assembled incrementally
	default:
		buf[1] |= 127
		size := make([]byte, 8)
		binary.BigEndian.PutUint64(size, length)
		buf = append(buf, size...) //nolint: makezero // header is assembled incrementally
	}

	buf = append(buf, payload...) //nolint: makezero // header is assembled incrementally

	if _, err := that.bufrw.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if err := that.bufrw.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	return nil
}

// ReadMessage - reads one frame and returns its unmasked payload.
// ErrConnectionClosed reports a close frame.
func (that *Conn) ReadMessage() ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(that.bufrw, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	opCode := header[0] & 0x0f
	maskBit := header[1] >> 7
	payloadLen := header[1] & 0x7f

	size, err := that.readPayloadLength(payloadLen)
	if err != nil {
		return nil, err
	}

	mask, err := that.readMask(maskBit)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, size)
	if _, err = io.ReadFull(that.bufrw, payload); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	if mask != nil {
		for i := range payload {
			payload[i] ^= mask[i%4]
		}
	}

	if opCode == opCodeClose {
		return nil, ErrConnectionClosed
	}

	return payload, nil
}

func (that *Conn) readPayloadLength(payloadLen byte) (uint64, error) {
	if payloadLen < 126 {
		return uint64(payloadLen), nil
	}

	if payloadLen == 126 {
		length := make([]byte, 2)
		if _, err := io.ReadFull(that.bufrw, length); err != nil {
			return 0, fmt.Errorf("failed to read payload length: %w", err)
		}
		return uint64(binary.BigEndian.Uint16(length)), nil
	}

	length := make([]byte, 8)
	if _, err := io.ReadFull(that.bufrw, length); err != nil {
		return 0, fmt.Errorf("failed to read payload length: %w", err)
	}

	return binary.BigEndian.Uint64(length), nil
}

func (that *Conn) readMask(maskBit byte) ([]byte, error) {
	if maskBit == 0 {
		return nil, nil
	}

	mask := make([]byte, 4)
	if _, err := io.ReadFull(that.bufrw, mask); err != nil {
		return nil, fmt.Errorf("failed to read mask: %w", err)
	}

	return mask, nil
}
