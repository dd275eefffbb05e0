package consensus

import (
	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
)

// Config enumerates exactly the recognized options this light client
// accepts. Loading it from a file, flags, or environment is the caller's
// concern (see SPEC_FULL.md §1 Out of scope); this package only consumes a
// constructed value.
type Config struct {
	GenesisTime       uint64
	GenesisRoot       consensuscore.Bytes32
	Forks             consensuscore.Forks
	InitialCheckpoint consensuscore.Bytes32
	RPCAddrPool       []string
	MaxCheckpointAge  uint64
	ChainID           uint64
	KeyName           string
}

// SlotTimestamp returns the wall-clock unix time a slot starts at.
func (c *Config) SlotTimestamp(slot uint64) uint64 {
	return slot*12 + c.GenesisTime
}
