package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
	// maxMessageSize caps one client frame; an autosave carries one answer.
	maxMessageSize = 64 << 10
)

// ErrMalformed marks a frame that arrived but could not be decoded. The
// connection is still usable.
var ErrMalformed = errors.New("malformed message")

// Prepare applies the connection limits used by every stream.
func Prepare(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadMessage reads one frame with a read deadline and returns its action
// together with the raw payload for the action-specific decode.
func ReadMessage(conn *websocket.Conn) (Action, []byte, error) {
	conn.SetReadDeadline(time.Now().Add(readWait))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return "", nil, err
	}
	var env RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", raw, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env.Action, raw, nil
}
