package consensus

import (
	"sort"

	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
)

// MaxCachedUpdates bounds the finality-update cache: oldest entries are
// evicted (by slot) once the cache grows past this many entries.
const MaxCachedUpdates = 32 * 1024

// MaxRequestLightClientUpdates is the largest page of Update objects a
// single get_updates call may request.
const MaxRequestLightClientUpdates = 128

// MaxRequestUpdates is the page size GetFinalityUpdatesFrom batches by.
const MaxRequestUpdates = 64

// LightClientStore is the trusted state this package maintains: the
// finalized header, the current and (once learned) next sync committees,
// participation counters, and a bounded cache of historical finality
// updates. It is exclusively owned by the advance loop; see consensus.go.
type LightClientStore struct {
	FinalizedHeader               consensuscore.Header
	CurrentSyncCommittee          consensuscore.SyncCommittee
	NextSyncCommittee             *consensuscore.SyncCommittee
	NextSyncCommitteeBranch       []consensuscore.Bytes32
	PreviousMaxActiveParticipants uint64
	CurrentMaxActiveParticipants  uint64
	FinalityUpdates               *finalityCache
}

// newLightClientStore returns an empty store, as created before bootstrap.
func newLightClientStore() *LightClientStore {
	return &LightClientStore{FinalityUpdates: newFinalityCache()}
}

// finalityCache is an ordered map slot -> Update, insertion-ordered by
// slot so the oldest entry can be evicted in O(1) amortized time. It is
// not safe for concurrent use; callers serialize access via the
// ConsensusClient lock (see consensus.go).
type finalityCache struct {
	order  []uint64
	bySlot map[uint64]consensuscore.Update
}

func newFinalityCache() *finalityCache {
	return &finalityCache{bySlot: make(map[uint64]consensuscore.Update)}
}

// Len returns the number of cached entries.
func (c *finalityCache) Len() int { return len(c.order) }

// Get returns the cached update at slot, if any.
func (c *finalityCache) Get(slot uint64) (consensuscore.Update, bool) {
	u, ok := c.bySlot[slot]
	return u, ok
}

// First returns the oldest cached update (lowest slot), if any.
func (c *finalityCache) First() (consensuscore.Update, bool) {
	if len(c.order) == 0 {
		return consensuscore.Update{}, false
	}
	return c.bySlot[c.order[0]], true
}

// Last returns the newest cached update (highest slot), if any.
func (c *finalityCache) Last() (consensuscore.Update, bool) {
	if len(c.order) == 0 {
		return consensuscore.Update{}, false
	}
	return c.bySlot[c.order[len(c.order)-1]], true
}

// Insert records u under slot, then trims the cache down to
// MaxCachedUpdates by evicting the lowest slots first. Re-inserting an
// already-cached slot overwrites it in place without disturbing order.
func (c *finalityCache) Insert(slot uint64, u consensuscore.Update) {
	if _, exists := c.bySlot[slot]; !exists {
		c.order = append(c.order, slot)
		if n := len(c.order); n > 1 && c.order[n-2] > slot {
			sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })
		}
	}
	c.bySlot[slot] = u
	c.trimTo(MaxCachedUpdates)
}

func (c *finalityCache) trimTo(max int) {
	for len(c.order) > max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.bySlot, oldest)
	}
}
