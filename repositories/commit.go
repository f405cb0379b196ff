package repositories

import (
	"context"
	"fmt"
	"sync/atomic"
)

// A bounded write either commits or is abandoned by its caller, never both.
// The writer claims the gate from inside its badger transaction, the caller
// claims it when its context ends first. Whoever loses steps back: an
// abandoned writer discards its transaction, a late caller waits for the
// commit outcome.
type commitGate struct {
	state atomic.Int32
}

const (
	gateOpen int32 = iota
	gateCommitted
	gateAbandoned
)

type gateKey struct{}

var errAbandoned = fmt.Errorf("write abandoned by caller")

func withGate(ctx context.Context, gate *commitGate) context.Context {
	return context.WithValue(ctx, gateKey{}, gate)
}

// abandon reports whether the caller won the gate.
func (g *commitGate) abandon() bool {
	return g.state.CompareAndSwap(gateOpen, gateAbandoned)
}

func (g *commitGate) commit() bool {
	return g.state.CompareAndSwap(gateOpen, gateCommitted) || g.state.Load() == gateCommitted
}

// claimCommit is the last statement of every write transaction.
// A non-nil result makes badger discard the pending writes.
func claimCommit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gate, ok := ctx.Value(gateKey{}).(*commitGate)
	if ok && !gate.commit() {
		return errAbandoned
	}
	return nil
}
