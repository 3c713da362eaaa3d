// Structure of the messages travelling over the channels.

package entity

import "encoding/json"

// Channels served by the hub.
const (
	ChannelControl = "control"
	ChannelStudio  = "studio"
	ChannelOverlay = "overlay"
)

// Server to client event names.
const (
	EventStateSync       = "state:sync"
	EventStreamState     = "stream:state"
	EventMetricsUpdate   = "metrics:update"
	EventChronicleBatch  = "chronicle:batch"
	EventChronicleEntry  = "chronicle:entry"
	EventSystemAlert     = "system:alert"
	EventChatSealed      = "chat:sealed"
	EventStudioLocked    = "studio:locked"
	EventOverlayTrigger  = "overlay:trigger"
	EventBroadcastMsg    = "broadcast:message"
	EventCommandError    = "command:error"
	EventConnectError    = "connect_error"
)

// Client to server query names.
const (
	QueryState     = "request:state"
	QueryMetrics   = "request:metrics"
	QueryChronicle = "request:chronicle"
	QueryFilter    = "chronicle:filter"
)

// Event is one outbound message.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// Frame is one inbound message; Data is decoded once the name is known.
type Frame struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

type SystemAlert struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

type BroadcastMessage struct {
	Message string `json:"message"`
	From    string `json:"from"`
}
