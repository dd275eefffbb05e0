package rpc

import (
	"github.com/pkg/errors"

	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
)

// Pool fans a ConsensusRpc out over an ordered list of endpoints. Bootstrap,
// updates, and finality-update all go to the primary (index 0) endpoint;
// GetHeader alone runs the failover policy in SPEC_FULL.md §4.2, since it
// is the only operation where "endpoint lagging" and "slot truly skipped"
// need to be told apart.
type Pool struct {
	endpoints []ConsensusRpc
}

// NewPool builds a Pool over addrs, in priority order, using
// NewHTTPConsensusRpc for each.
func NewPool(addrs []string) (*Pool, error) {
	if len(addrs) == 0 {
		return nil, errors.New("rpc pool requires at least one endpoint")
	}
	endpoints := make([]ConsensusRpc, len(addrs))
	for i, addr := range addrs {
		endpoints[i] = NewHTTPConsensusRpc(addr)
	}
	return &Pool{endpoints: endpoints}, nil
}

// NewPoolFrom builds a Pool directly over already-constructed
// ConsensusRpc implementations, for tests that fake the transport.
func NewPoolFrom(endpoints []ConsensusRpc) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("rpc pool requires at least one endpoint")
	}
	return &Pool{endpoints: endpoints}, nil
}

func (p *Pool) primary() ConsensusRpc { return p.endpoints[0] }

func (p *Pool) GetBootstrap(blockRoot consensuscore.Bytes32) (consensuscore.Bootstrap, error) {
	return p.primary().GetBootstrap(blockRoot)
}

func (p *Pool) GetUpdates(period uint64, count uint8) ([]consensuscore.Update, error) {
	return p.primary().GetUpdates(period, count)
}

func (p *Pool) GetFinalityUpdate() (consensuscore.FinalityUpdate, error) {
	return p.primary().GetFinalityUpdate()
}

// GetHeader implements the failover policy from SPEC_FULL.md §4.2:
//
//   - try r0; Some wins immediately
//   - r0 gives None: remember it, try r1.. — any Some wins, otherwise None
//   - r0 errors: try every other endpoint — any Some wins; otherwise if any
//     gave None, surface None; otherwise propagate r0's original error
func (p *Pool) GetHeader(slot uint64) (*consensuscore.Header, error) {
	header, err := p.endpoints[0].GetHeader(slot)
	if err == nil {
		if header != nil {
			return header, nil
		}
		return p.tryRest(slot, 1, nil, true)
	}
	return p.tryRest(slot, 1, err, false)
}

// tryRest tries endpoints[from:], returning the first Some. sawNone
// records whether r0 already reported None (firstErr == nil means r0
// succeeded with None); otherwise firstErr is r0's original error, kept as
// the final fallback if nothing downstream resolves the question either
// way.
func (p *Pool) tryRest(slot uint64, from int, firstErr error, sawNone bool) (*consensuscore.Header, error) {
	for i := from; i < len(p.endpoints); i++ {
		header, err := p.endpoints[i].GetHeader(slot)
		if err != nil {
			continue
		}
		if header != nil {
			return header, nil
		}
		sawNone = true
	}
	if firstErr != nil && !sawNone {
		return nil, firstErr
	}
	return nil, nil
}
