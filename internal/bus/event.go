package bus

import "time"

// Event kinds published inside a chatline process.
const (
	PresenceChanged = "presence.changed"
	MessageCreated  = "message.created"
	MessageRelayed  = "message.relayed"
	StoreChanged    = "store.changed"
	ConnStatus      = "conn.status_changed"
)

// Event is a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
