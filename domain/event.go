package domain

// Event is an outbound payload pushed to a live connection.
type Event interface {
	Name() string
	Payload() any
}

const EventReceiveMessage = "receiveMessage"

// Delivery pushes a persisted message to the receiver's connection.
type Delivery struct {
	Message Message
}

func (d Delivery) Name() string { return EventReceiveMessage }

func (d Delivery) Payload() any { return d.Message }
