package consensus

import (
	"testing"

	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
	"github.com/stretchr/testify/require"
)

func TestFinalityCacheInsertAndGet(t *testing.T) {
	c := newFinalityCache()
	c.Insert(10, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: 10}})
	c.Insert(20, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: 20}})

	u, ok := c.Get(10)
	require.True(t, ok, "expected slot 10 to be cached")
	require.Equal(t, uint64(10), u.FinalizedHeader.Slot)
	require.Equal(t, 2, c.Len())
}

func TestFinalityCacheFirstAndLastOrderBySlotNotInsertionOrder(t *testing.T) {
	c := newFinalityCache()
	c.Insert(30, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: 30}})
	c.Insert(10, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: 10}})
	c.Insert(20, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: 20}})

	first, ok := c.First()
	require.True(t, ok)
	require.Equal(t, uint64(10), first.FinalizedHeader.Slot)

	last, ok := c.Last()
	require.True(t, ok)
	require.Equal(t, uint64(30), last.FinalizedHeader.Slot)
}

func TestFinalityCacheReinsertOverwritesWithoutGrowing(t *testing.T) {
	c := newFinalityCache()
	c.Insert(10, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: 10, ProposerIndex: 1}})
	c.Insert(10, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: 10, ProposerIndex: 2}})

	require.Equal(t, 1, c.Len(), "expected re-insert to not grow the cache")
	u, ok := c.Get(10)
	require.True(t, ok)
	require.Equal(t, uint64(2), u.FinalizedHeader.ProposerIndex, "expected re-insert to overwrite the stored value")
}

func TestFinalityCacheEvictsOldestOnOverflow(t *testing.T) {
	c := newFinalityCache()
	for slot := uint64(0); slot < 5; slot++ {
		c.Insert(slot, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: slot}})
	}
	c.trimTo(3)

	require.Equal(t, 3, c.Len())
	_, ok := c.Get(0)
	require.False(t, ok, "expected oldest entry (slot 0) to be evicted")
	_, ok = c.Get(1)
	require.False(t, ok, "expected second-oldest entry (slot 1) to be evicted")
	_, ok = c.Get(4)
	require.True(t, ok, "expected newest entry (slot 4) to survive")
}

func TestFinalityCacheBoundedAtMaxCachedUpdates(t *testing.T) {
	c := newFinalityCache()
	for slot := uint64(0); slot < MaxCachedUpdates+10; slot++ {
		c.Insert(slot, consensuscore.Update{FinalizedHeader: consensuscore.Header{Slot: slot}})
	}
	require.Equal(t, MaxCachedUpdates, c.Len())

	first, ok := c.First()
	require.True(t, ok)
	require.Equal(t, uint64(10), first.FinalizedHeader.Slot, "expected oldest surviving slot to be 10")
}
