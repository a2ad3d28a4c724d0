package uds

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/modoterra/tailcat/pkg/core"
)

var reqCounter atomic.Uint64

// MsgType identifies the kind of message.
type MsgType string

const (
	MsgTypeReq MsgType = "req"
	MsgTypeRes MsgType = "res"
	MsgTypeEvt MsgType = "evt"
)

// Message is the NDJSON envelope for all communication.
type Message struct {
	Type   MsgType         `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// UnmarshalData decodes the message payload into v.
func (m Message) UnmarshalData(v any) error {
	if len(m.Data) == 0 {
		return errors.New("empty message data")
	}
	return json.Unmarshal(m.Data, v)
}

func newMessage(typ MsgType, id, method string, data any) (Message, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Message{}, err
		}
		raw = b
	}
	return Message{Type: typ, ID: id, Method: method, Data: raw}, nil
}

// NewRequest creates a new request message with a unique ID.
func NewRequest(method string, data any) (Message, error) {
	return newMessage(MsgTypeReq, fmt.Sprintf("req-%d", reqCounter.Add(1)), method, data)
}

// NewResponse creates a response to a request.
func NewResponse(reqID, method string, data any) (Message, error) {
	return newMessage(MsgTypeRes, reqID, method, data)
}

// NewErrorResponse creates an error response.
func NewErrorResponse(reqID, method, errMsg string) Message {
	return Message{
		Type:   MsgTypeRes,
		ID:     reqID,
		Method: method,
		Error:  errMsg,
	}
}

// NewEvent creates a server-pushed event.
func NewEvent(method string, data any) (Message, error) {
	return newMessage(MsgTypeEvt, fmt.Sprintf("evt-%d", reqCounter.Add(1)), method, data)
}

// Methods
const (
	MethodPing         = "Ping"
	MethodCollect      = "Collect"
	MethodReloadConfig = "ReloadConfig"

	EventCollectDone = "collect.done"
)

// PingResponse is the response to a Ping request.
type PingResponse struct {
	Pong    bool   `json:"pong"`
	Version string `json:"version,omitempty"`
}

// CollectRequest asks the daemon for a log tail. Zero fields fall back to
// the daemon's configuration.
type CollectRequest struct {
	Buffers   []string `json:"buffers,omitempty"`
	PID       int      `json:"pid,omitempty"`
	Process   string   `json:"process,omitempty"` // resolved to a pid via /proc
	Filter    *bool    `json:"filter,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

// CollectResponse carries one tail per requested buffer.
type CollectResponse struct {
	RunID   string           `json:"run_id"`
	Buffers []core.BufferLog `json:"buffers"`
}

// CollectDoneEvent is broadcast after every collection.
type CollectDoneEvent struct {
	RunID      string `json:"run_id"`
	Buffers    int    `json:"buffers"`
	Lines      int    `json:"lines"`
	DurationMs int64  `json:"duration_ms"`
}

// ReloadConfigRequest is the payload for ReloadConfig. An empty path reloads
// the file the daemon was started with.
type ReloadConfigRequest struct {
	Path string `json:"path,omitempty"`
}

// ReloadConfigResponse reports whether the new configuration was applied.
type ReloadConfigResponse struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}
