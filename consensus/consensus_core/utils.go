package consensuscore

const (
	// SlotsPerEpoch is the number of 12s slots in one epoch.
	SlotsPerEpoch = 32
	// EpochsPerSyncCommitteePeriod is the number of epochs in one
	// sync-committee rotation period.
	EpochsPerSyncCommitteePeriod = 256
	// SlotsPerSyncCommitteePeriod is SlotsPerEpoch * EpochsPerSyncCommitteePeriod.
	SlotsPerSyncCommitteePeriod = SlotsPerEpoch * EpochsPerSyncCommitteePeriod
)

// CalcEpoch returns the epoch a slot belongs to.
func CalcEpoch(slot uint64) uint64 {
	return slot / SlotsPerEpoch
}

// CalcSyncPeriod returns the sync-committee period a slot belongs to.
func CalcSyncPeriod(slot uint64) uint64 {
	return slot / SlotsPerSyncCommitteePeriod
}

// Fork is one entry in the ordered fork schedule: the epoch at which
// fork_version took effect.
type Fork struct {
	Epoch   uint64
	Version Bytes4
}

// Forks is the ordered fork schedule this light client needs to compute
// signing domains: genesis, altair, and bellatrix. Execution-layer forks
// after bellatrix do not change the light-client sync-committee domain and
// are out of scope (see SPEC_FULL.md Non-goals).
type Forks struct {
	Genesis   Fork
	Altair    Fork
	Bellatrix Fork
}

// ForkVersion returns the fork_version in effect at slot: the version of
// the latest fork in the schedule whose epoch is <= slot/32.
func ForkVersion(forks Forks, slot uint64) Bytes4 {
	epoch := CalcEpoch(slot)
	switch {
	case epoch >= forks.Bellatrix.Epoch:
		return forks.Bellatrix.Version
	case epoch >= forks.Altair.Epoch:
		return forks.Altair.Version
	default:
		return forks.Genesis.Version
	}
}
