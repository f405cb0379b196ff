package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitGate_First_Claim_Wins(t *testing.T) {
	req := require.New(t)

	committed := &commitGate{}
	req.True(committed.commit())
	req.True(committed.commit(), "a committed gate stays committed")
	req.False(committed.abandon())

	abandoned := &commitGate{}
	req.True(abandoned.abandon())
	req.False(abandoned.commit())
}

func TestClaimCommit(t *testing.T) {
	req := require.New(t)

	// Plain contexts only check for cancellation
	req.NoError(claimCommit(context.Background()))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	req.ErrorIs(claimCommit(canceled), context.Canceled)

	gate := &commitGate{}
	gate.abandon()
	req.ErrorIs(claimCommit(withGate(context.Background(), gate)), errAbandoned)
}
