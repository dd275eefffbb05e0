// Package rpc is the untrusted Consensus RPC boundary: it fetches raw
// beacon-chain light-client objects over HTTP and hands back the plain
// consensuscore wire types. It never verifies anything; that is the
// consensus package's job.
package rpc

import (
	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
)

// ConsensusRpc is the four-operation contract SPEC_FULL.md §4.2 specifies.
// GetHeader returns (nil, nil) for a skipped/forked slot, never an error.
type ConsensusRpc interface {
	GetBootstrap(blockRoot consensuscore.Bytes32) (consensuscore.Bootstrap, error)
	GetUpdates(period uint64, count uint8) ([]consensuscore.Update, error)
	GetFinalityUpdate() (consensuscore.FinalityUpdate, error)
	GetHeader(slot uint64) (*consensuscore.Header, error)
}
