// Package consensus implements the Ethereum consensus light client: an
// independently-verifying beacon-chain state machine that bootstraps from
// a trusted checkpoint, catches up over historical sync-committee periods,
// and then advances tick by tick, publishing finalized headers to
// subscribers. See SPEC_FULL.md for the full design.
package consensus

import (
	"context"
	"sync"
	"time"

	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
	"github.com/axonweb3/relayer/consensus/rpc"
	"github.com/sirupsen/logrus"
)

// ConsensusClient is the public handle: it owns the store exclusively from
// inside its background advance loop, and exposes thread-safe read
// operations plus the two subscription sequences.
type ConsensusClient struct {
	mu     sync.Mutex
	rpc    rpc.ConsensusRpc
	store  *LightClientStore
	config *Config
	fanOut *fanOut
	log    logrus.FieldLogger

	initialCheckpoint consensuscore.Bytes32
	lastCheckpoint    *consensuscore.Bytes32

	cancel context.CancelFunc
}

// New constructs a ConsensusClient over an RPC endpoint pool, with an
// empty store and the configured initial checkpoint. Bootstrap must be
// called to start the background advance task.
func New(addrs []string, config *Config, log logrus.FieldLogger) (*ConsensusClient, error) {
	pool, err := rpc.NewPool(addrs)
	if err != nil {
		return nil, err
	}
	return newWithRPC(pool, config, log), nil
}

// newWithRPC is the constructor tests use to inject a fake ConsensusRpc.
func newWithRPC(r rpc.ConsensusRpc, config *Config, log logrus.FieldLogger) *ConsensusClient {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ConsensusClient{
		rpc:               r,
		store:             newLightClientStore(),
		config:            config,
		fanOut:            newFanOut(log),
		log:               log,
		initialCheckpoint: config.InitialCheckpoint,
	}
}

// Bootstrap anchors the store to the configured checkpoint, runs the
// one-shot catch-up sync, and starts the background advance loop. It
// returns once the initial sync has completed (or failed).
func (c *ConsensusClient) Bootstrap(ctx context.Context) error {
	if err := c.sync(); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.advanceLoop(loopCtx)
	return nil
}

// Shutdown stops the background advance loop. It does not block for the
// loop to observe cancellation; callers that need that guarantee should
// pass a context to Bootstrap and wait on it themselves.
func (c *ConsensusClient) Shutdown() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Subscribe returns the pair of receivers this client's fan-out emits to:
// single finalized headers (initial checkpoint re-emission, idempotent for
// late subscribers) and batches of newly finalized headers.
func (c *ConsensusClient) Subscribe() (<-chan consensuscore.Header, <-chan []consensuscore.Header) {
	return c.fanOut.Subscribe()
}

// VerifyUpdate is the stateless entry point peer chains use to certify a
// submitted header update against this client's current trusted store. It
// holds the client lock for the check and never mutates the store.
func (c *ConsensusClient) VerifyUpdate(u *consensuscore.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return verifyUpdate(c.store, u, c.expectedCurrentSlot(), c.config.GenesisRoot, c.config.Forks)
}

// GetFinalityUpdate returns the cached update for slot, synthesizing an
// empty-header sentinel for historical gaps and resolving to nil for
// slots the store has not finalized yet. See SPEC_FULL.md §4.7.
func (c *ConsensusClient) GetFinalityUpdate(slot uint64) (*consensuscore.Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getFinalityUpdateLocked(slot)
}

// GetFinalityUpdatesFrom pages through GetFinalityUpdate starting at slot,
// batching MaxRequestUpdates per round and stopping at the first short
// page (including an all-nil page, which means "no more history").
func (c *ConsensusClient) GetFinalityUpdatesFrom(slot uint64, limit int) ([]consensuscore.Update, error) {
	var out []consensuscore.Update
	cursor := slot
	for len(out) < limit {
		batchSize := MaxRequestUpdates
		if remaining := limit - len(out); uint64(remaining) < batchSize {
			batchSize = uint64(remaining)
		}
		batch, stop, err := c.fetchUpdatesBatch(cursor, batchSize)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		cursor += uint64(len(batch))
		if stop {
			break
		}
	}
	return out, nil
}

func (c *ConsensusClient) fetchUpdatesBatch(start uint64, count uint64) ([]consensuscore.Update, bool, error) {
	batch := make([]consensuscore.Update, 0, count)
	for i := uint64(0); i < count; i++ {
		u, err := c.GetFinalityUpdate(start + i)
		if err != nil {
			return batch, true, err
		}
		if u == nil {
			return batch, true, nil
		}
		batch = append(batch, *u)
	}
	return batch, uint64(len(batch)) < count, nil
}

func (c *ConsensusClient) getFinalityUpdateLocked(slot uint64) (*consensuscore.Update, error) {
	if u, ok := c.store.FinalityUpdates.Get(slot); ok {
		return &u, nil
	}
	if slot >= c.store.FinalizedHeader.Slot {
		return nil, nil
	}
	header, err := c.rpc.GetHeader(slot)
	if err != nil {
		return nil, wrapKind(KindRPCTransient, err)
	}
	if header == nil {
		empty := consensuscore.EmptyHeaderAt(slot)
		u := consensuscore.Update{FinalizedHeader: empty}
		return &u, nil
	}
	u := consensuscore.Update{FinalizedHeader: *header}
	return &u, nil
}

// sync performs the one-shot catch-up described in SPEC_FULL.md §4.6:
// bootstrap, fetch up to MaxRequestLightClientUpdates updates for the
// current period, then fold in the current finality update.
func (c *ConsensusClient) sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.bootstrapLocked(); err != nil {
		return err
	}

	period := consensuscore.CalcSyncPeriod(c.store.FinalizedHeader.Slot)
	updates, err := c.rpc.GetUpdates(period, MaxRequestLightClientUpdates)
	if err != nil {
		return wrapKind(KindRPCTransient, err)
	}
	for i := range updates {
		u := &updates[i]
		if err := verifyUpdate(c.store, u, c.expectedCurrentSlot(), c.config.GenesisRoot, c.config.Forks); err != nil {
			return err
		}
		if checkpoint := applyUpdate(c.store, u); checkpoint != nil {
			c.lastCheckpoint = checkpoint
		}
		c.store.FinalityUpdates.Insert(u.FinalizedHeader.Slot, *u)
	}

	finalityUpdate, err := c.rpc.GetFinalityUpdate()
	if err != nil {
		return wrapKind(KindRPCTransient, err)
	}
	prevFinalizedSlot := c.store.FinalizedHeader.Slot
	if err := verifyFinalityUpdate(c.store, &finalityUpdate, c.expectedCurrentSlot(), c.config.GenesisRoot, c.config.Forks); err != nil {
		return err
	}
	if checkpoint := applyFinalityUpdate(c.store, &finalityUpdate); checkpoint != nil {
		c.lastCheckpoint = checkpoint
	}
	if c.store.FinalizedHeader.Slot > prevFinalizedSlot {
		c.storeFinalityUpdateLocked(&finalityUpdate, false)
	}

	c.log.WithField("slot", c.store.FinalizedHeader.Slot).Info("consensus client in sync")
	return nil
}

func (c *ConsensusClient) bootstrapLocked() error {
	bootstrap, err := c.rpc.GetBootstrap(c.initialCheckpoint)
	if err != nil {
		return wrapKind(KindRPCTransient, ErrBootstrapFetchFailed)
	}
	if !c.isValidCheckpointAge(bootstrap.Header.Slot) {
		return wrapKind(KindCheckpointTooOld, ErrCheckpointTooOld)
	}
	if err := verifyBootstrap(c.initialCheckpoint, &bootstrap); err != nil {
		return err
	}
	applyBootstrap(c.store, &bootstrap)
	return nil
}

// advanceLoop is the single writer of the store: it sleeps until the next
// tick boundary, calls advance, and repeats until ctx is cancelled. A
// failed tick is logged and retried after the next sleep; the store is
// left exactly as it was (verify-then-apply is transactional).
func (c *ConsensusClient) advanceLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.durationUntilNextTick()):
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := c.advance(); err != nil {
			c.log.WithError(err).Warn("advance tick failed, retrying next tick")
		}
	}
}

// advance runs one periodic tick per SPEC_FULL.md §4.6.
func (c *ConsensusClient) advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevFinalized := c.store.FinalizedHeader.Slot

	finalityUpdate, err := c.rpc.GetFinalityUpdate()
	if err != nil {
		return wrapKind(KindRPCTransient, err)
	}
	if err := verifyFinalityUpdate(c.store, &finalityUpdate, c.expectedCurrentSlot(), c.config.GenesisRoot, c.config.Forks); err != nil {
		return err
	}
	if checkpoint := applyFinalityUpdate(c.store, &finalityUpdate); checkpoint != nil {
		c.lastCheckpoint = checkpoint
	}

	if c.store.NextSyncCommittee == nil {
		c.log.Info("next sync committee unknown, fetching a committee update before emitting headers")
		period := consensuscore.CalcSyncPeriod(c.store.FinalizedHeader.Slot)
		updates, err := c.rpc.GetUpdates(period, 1)
		if err != nil {
			return wrapKind(KindRPCTransient, err)
		}
		if len(updates) == 1 {
			u := &updates[0]
			if err := verifyUpdate(c.store, u, c.expectedCurrentSlot(), c.config.GenesisRoot, c.config.Forks); err == nil {
				if checkpoint := applyUpdate(c.store, u); checkpoint != nil {
					c.lastCheckpoint = checkpoint
				}
			}
		}
		return nil
	}

	if first, ok := c.store.FinalityUpdates.First(); ok {
		c.fanOut.emitCheckpoint(first.FinalizedHeader)
	}

	if c.store.FinalizedHeader.Slot > prevFinalized {
		c.storeFinalityUpdateLocked(&finalityUpdate, true)
		c.emitFinalizedRange(prevFinalized, c.store.FinalizedHeader.Slot)
	}

	return nil
}

// emitFinalizedRange emits headers for [max(prev, finalized-32), finalized),
// the literal half-open interval from SPEC_FULL.md §4.6 step 5, pulling
// each header from the finality cache (falling back to the synthesized
// gap-fill path via getFinalityUpdateLocked).
func (c *ConsensusClient) emitFinalizedRange(prev, finalized uint64) {
	const maxBurst = 32
	start := prev
	if finalized > maxBurst && finalized-maxBurst > prev {
		start = finalized - maxBurst
	}
	if start >= finalized {
		return
	}
	headers := make([]consensuscore.Header, 0, finalized-start)
	for slot := start; slot < finalized; slot++ {
		u, err := c.getFinalityUpdateLocked(slot)
		if err != nil || u == nil {
			continue
		}
		headers = append(headers, u.FinalizedHeader)
	}
	c.fanOut.emitHeaders(headers)
}

// storeFinalityUpdateLocked implements SPEC_FULL.md §4.7: it skips
// caching entirely while the next committee is still unknown (there is
// nothing to synthesize an Update with), optionally fills the gap since
// the last cached slot, then inserts the synthesized Update and trims.
func (c *ConsensusClient) storeFinalityUpdateLocked(u *consensuscore.FinalityUpdate, keepContinuous bool) {
	if c.store.NextSyncCommittee == nil {
		c.log.WithField("slot", u.FinalizedHeader.Slot).Warn("skip finality update store, next sync committee unknown")
		return
	}
	if keepContinuous {
		if last, ok := c.store.FinalityUpdates.Last(); ok {
			for slot := last.FinalizedHeader.Slot + 1; slot < u.FinalizedHeader.Slot; slot++ {
				if gapUpdate, err := c.getFinalityUpdateLocked(slot); err == nil && gapUpdate != nil {
					c.store.FinalityUpdates.Insert(slot, *gapUpdate)
				}
			}
		}
	}
	synthesized := consensuscore.UpdateFromFinalityUpdate(*u, *c.store.NextSyncCommittee, c.store.NextSyncCommitteeBranch)
	c.store.FinalityUpdates.Insert(u.FinalizedHeader.Slot, synthesized)
}

func (c *ConsensusClient) expectedCurrentSlot() uint64 {
	const slotDuration = 12
	now := uint64(time.Now().Unix())
	return (now - c.config.GenesisTime) / slotDuration
}

func (c *ConsensusClient) isValidCheckpointAge(slot uint64) bool {
	now := c.expectedCurrentSlot() * 12
	then := slot * 12
	return now-then < c.config.MaxCheckpointAge
}

// durationUntilNextTick sleeps the advance loop until slot_timestamp(next
// slot) + 4s, per SPEC_FULL.md §4.6 Tick cadence.
func (c *ConsensusClient) durationUntilNextTick() time.Duration {
	currentSlot := c.expectedCurrentSlot()
	nextSlotTimestamp := c.config.SlotTimestamp(currentSlot + 1)
	now := uint64(time.Now().Unix())
	wait := int64(nextSlotTimestamp-now) + 4
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait) * time.Second
}
