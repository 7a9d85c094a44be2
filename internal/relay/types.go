// Package relay is the client side of the chat relay: a fasthttp JSON API
// for sending messages plus a websocket stream of inbound room events.
package relay

import "context"

// Event is one inbound chat message delivered over the websocket stream.
type Event struct {
	Room       string `json:"room"`
	Sender     string `json:"sender"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
}

// ReplyRequest is the outbound frame shape shared by the HTTP reply endpoint
// and websocket egress.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// WebSocketState tracks the stream connection lifecycle.
type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)

// HeaderProvider injects per-request headers (relay identity and session).
type HeaderProvider func() map[string]string

type EventCallback func(event *Event)

type StateCallback func(state WebSocketState)

// Stream is the inbound side of the relay connection.
type Stream interface {
	Connect(ctx context.Context) error
	OnEvent(cb EventCallback) int
	RemoveEventCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	Close(ctx context.Context) error
}
