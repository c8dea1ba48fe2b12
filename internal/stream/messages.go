package stream

import (
	"encoding/json"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
)

// Kind enumerates the inbound message types on a session socket.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnected
	KindStatus
	KindComplete
	KindError
	KindPing
	KindPong
)

func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindStatus:
		return "status"
	case KindComplete:
		return "complete"
	case KindError:
		return "error"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	default:
		return "unknown"
	}
}

var kindFromType = map[string]Kind{
	"connected": KindConnected,
	"status":    KindStatus,
	"complete":  KindComplete,
	"error":     KindError,
	"ping":      KindPing,
	"pong":      KindPong,
}

// Message is a parsed inbound frame.
type Message struct {
	Kind   Kind
	Status *models.SessionStatus // populated for status/complete
	Err    string                // populated for error
	Raw    string                // original payload for unknown frames
}

// envelope is the wire shape of JSON frames.
type envelope struct {
	Type    string                `json:"type"`
	Status  *models.SessionStatus `json:"status,omitempty"`
	Message string                `json:"message,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// ParseMessage decodes an inbound frame into a [Message].
//
// Literal "ping"/"pong" text frames are accepted alongside the JSON envelope;
// anything undecodable or carrying an unknown type maps to [KindUnknown].
func ParseMessage(data []byte) Message {
	text := strings.TrimSpace(string(data))
	switch text {
	case "ping":
		return Message{Kind: KindPing}
	case "pong":
		return Message{Kind: KindPong}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{Kind: KindUnknown, Raw: text}
	}

	kind, ok := kindFromType[env.Type]
	if !ok {
		return Message{Kind: KindUnknown, Raw: text}
	}

	msg := Message{Kind: kind, Status: env.Status}
	if kind == KindError {
		msg.Err = env.Error
		if msg.Err == "" {
			msg.Err = env.Message
		}
	}

	return msg
}
