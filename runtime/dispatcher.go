package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	"log/slog"
)

// Dispatcher pushes persisted messages to the receiver's live connection.
//
// Delivery is fire-and-forget: no acknowledgment, no retry. A receiver without a
// live connection is the normal case, the message stays in the store and
// shows up on the next listing.
type Dispatcher struct {
	log         *slog.Logger
	registry    contract.IRegistry
	connections contract.IConnections
	metrics     *observability.Metrics
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry,
	connections contract.IConnections, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, connections: connections, metrics: metrics}
}

// Dispatch reports whether the message was handed over to a live connection.
// It resolves the receiver in two steps:
// 1. Registry: which connection is on record for the receiver.
// 2. Directory: which sink writes to that connection.
//
// Either lookup may miss during a disconnect, both misses count as offline.
func (d *Dispatcher) Dispatch(ctx context.Context, message domain.Message) bool {
	handle, ok := d.registry.Lookup(message.ReceiverID)
	if !ok {
		d.log.Debug("Receiver offline, message kept in store",
			"message_id", message.ID,
			"receiver_id", message.ReceiverID)
		d.metrics.Deliveries.WithLabelValues(observability.DeliveryOffline).Inc()
		return false
	}

	sink, ok := d.connections.Sink(handle)
	if !ok {
		d.log.Debug("No sink attached to receiver connection",
			"message_id", message.ID,
			"receiver_id", message.ReceiverID,
			"connection_id", handle)
		d.metrics.Deliveries.WithLabelValues(observability.DeliveryOffline).Inc()
		return false
	}

	// Consume never blocks; a full or closed sink refuses the event
	if err := sink.Consume(ctx, domain.Delivery{Message: message}); err != nil {
		d.log.Warn("Live delivery dropped",
			"message_id", message.ID,
			"receiver_id", message.ReceiverID,
			"connection_id", handle,
			"error", err)
		d.metrics.Deliveries.WithLabelValues(observability.DeliveryDropped).Inc()
		return false
	}

	d.metrics.Deliveries.WithLabelValues(observability.DeliveryLive).Inc()
	return true
}
