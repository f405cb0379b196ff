package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sync"
)

// Connections is the directory of live sinks, keyed by the transport's handle.
type Connections struct {
	mu    sync.RWMutex
	sinks map[domain.ConnectionID]contract.EventSink
}

func NewConnections() *Connections {
	return &Connections{sinks: make(map[domain.ConnectionID]contract.EventSink)}
}

func (c *Connections) Attach(handle domain.ConnectionID, sink contract.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks[handle] = sink
}

func (c *Connections) Detach(handle domain.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sinks, handle)
}

func (c *Connections) Sink(handle domain.ConnectionID) (contract.EventSink, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sink, ok := c.sinks[handle]
	return sink, ok
}

func (c *Connections) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sinks)
}
