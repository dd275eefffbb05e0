package consensus

import (
	"sync"

	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
	"github.com/sirupsen/logrus"
)

// checkpointBacklog and headerBatchBacklog size the per-subscriber channels so
// a send from the advance loop never blocks on a slow or stalled consumer;
// matches the teacher's buffered blockSend channel. A subscriber that
// falls behind this far drops to chase mode on its own (SPEC_FULL.md §5).
const (
	checkpointBacklog  = 4
	headerBatchBacklog = 64
)

// fanOut holds the sender side of the two subscription sequences: a
// single Header per emission ("initial checkpoint"), and a []Header batch
// per emission ("new finalized headers"). Senders are append-only;
// receivers live with consumers. Delivery is best-effort: a full or closed
// receiver just drops the value, logged, never fatal to the writer.
type fanOut struct {
	mu             sync.Mutex
	checkpointSubs []chan consensuscore.Header
	headerSubs     []chan []consensuscore.Header
	log            logrus.FieldLogger
}

func newFanOut(log logrus.FieldLogger) *fanOut {
	return &fanOut{log: log}
}

// Subscribe registers a new consumer and returns its pair of receivers.
func (f *fanOut) Subscribe() (<-chan consensuscore.Header, <-chan []consensuscore.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	checkpointCh := make(chan consensuscore.Header, checkpointBacklog)
	headerCh := make(chan []consensuscore.Header, headerBatchBacklog)
	f.checkpointSubs = append(f.checkpointSubs, checkpointCh)
	f.headerSubs = append(f.headerSubs, headerCh)
	return checkpointCh, headerCh
}

// emitCheckpoint sends a copy of header to every checkpoint subscriber.
func (f *fanOut) emitCheckpoint(header consensuscore.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.checkpointSubs {
		select {
		case ch <- header:
		default:
			f.log.WithField("slot", header.Slot).Warn("dropping checkpoint emission, subscriber is not keeping up")
		}
	}
}

// emitHeaders sends a copy of batch to every header-batch subscriber.
// batch is copied per-subscriber so no aliasing of store-owned slices
// escapes (SPEC_FULL.md §3 Ownership).
func (f *fanOut) emitHeaders(batch []consensuscore.Header) {
	if len(batch) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.headerSubs {
		cp := make([]consensuscore.Header, len(batch))
		copy(cp, batch)
		select {
		case ch <- cp:
		default:
			f.log.WithField("count", len(batch)).Warn("dropping header batch emission, subscriber is not keeping up")
		}
	}
}
