package domain

import (
	"encoding/json"
	"time"
)

// Universe is the reserved channel key aggregating every city's events.
const Universe = "universe"

// Message types.
const (
	MsgJoin    = "join"
	MsgPic     = "pic"
	MsgHistory = "history"
	MsgError   = "error"
)

// JoinRequest is the only client-initiated message: subscribe this
// connection to a city (or to the universe channel).
type JoinRequest struct {
	Type string `json:"type"`
	City string `json:"city"`
}

// PicMessage carries one photo reference to a viewer. Type is "history"
// during join-time replay and "pic" for live events.
type PicMessage struct {
	Type string `json:"type"`
	City string `json:"city"`
	Pic  string `json:"pic"`
}

// ErrorMessage reports a protocol error to the viewer.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Event is an accepted ingestion payload before fan-out.
type Event struct {
	City string    `json:"city"`
	Pic  string    `json:"pic"`
	Time time.Time `json:"time,omitempty"`
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeJoin deserializes JSON bytes into a JoinRequest.
func DecodeJoin(data []byte) (JoinRequest, error) {
	var j JoinRequest
	err := json.Unmarshal(data, &j)
	return j, err
}
