package consensus

import (
	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
)

// Merkle proof shape constants, per SPEC_FULL.md §4.1.
const (
	finalityBranchDepth             = 6
	finalityGeneralizedIndex        = 105
	nextSyncCommitteeBranchDepth    = 5
	nextSyncCommitteeGeneralizedIdx = 55
	currentSyncCommitteeBranchDepth = 5
	currentSyncCommitteeGeneralized = 54
)

// verifyGenericUpdate is the single predicate that sync, advance, and
// peer-chain callers of VerifyUpdate all funnel through; bootstrap is
// checked separately by verifyBootstrap. It is a
// pure function of (store, update, wall clock, genesis root, forks) and
// never mutates store.
func verifyGenericUpdate(
	store *LightClientStore,
	u *consensuscore.GenericUpdate,
	expectedCurrentSlot uint64,
	genesisRoot consensuscore.Bytes32,
	forks consensuscore.Forks,
) error {
	bits := u.SyncAggregate.SyncCommitteeBits.PopCount()
	if bits == 0 {
		return wrapKind(KindInsufficientParticipation, ErrInsufficientParticipation)
	}

	updateFinalizedSlot := uint64(0)
	if u.FinalizedHeader != nil {
		updateFinalizedSlot = u.FinalizedHeader.Slot
	}
	validTime := expectedCurrentSlot >= u.SignatureSlot &&
		u.SignatureSlot > u.AttestedHeader.Slot &&
		u.AttestedHeader.Slot >= updateFinalizedSlot
	if !validTime {
		return wrapKind(KindInvalidTimestamp, ErrInvalidTimestamp)
	}

	storePeriod := consensuscore.CalcSyncPeriod(store.FinalizedHeader.Slot)
	updateSigPeriod := consensuscore.CalcSyncPeriod(u.SignatureSlot)

	var validPeriod bool
	if store.NextSyncCommittee != nil {
		validPeriod = updateSigPeriod == storePeriod || updateSigPeriod == storePeriod+1
	} else {
		validPeriod = updateSigPeriod == storePeriod
	}
	if !validPeriod {
		return wrapKind(KindInvalidPeriod, ErrInvalidPeriod)
	}

	updateAttestedPeriod := consensuscore.CalcSyncPeriod(u.AttestedHeader.Slot)
	// The teacher's source carries this same relevance check twice,
	// textually identical; it is one logical predicate (see SPEC_FULL.md
	// §4.4 rule 4 / §9 Open Questions).
	updateHasNextCommittee := store.NextSyncCommittee == nil &&
		u.NextSyncCommittee != nil &&
		updateAttestedPeriod == storePeriod
	if u.AttestedHeader.Slot <= store.FinalizedHeader.Slot && !updateHasNextCommittee {
		return wrapKind(KindNotRelevant, ErrNotRelevant)
	}

	if u.FinalizedHeader != nil && u.FinalityBranch != nil {
		leaf := u.FinalizedHeader.TreeHashRoot()
		if !consensuscore.IsValidMerkleBranch(leaf, u.FinalityBranch, finalityBranchDepth, finalityGeneralizedIndex, u.AttestedHeader.StateRoot) {
			return wrapKind(KindInvalidFinalityProof, ErrInvalidFinalityProof)
		}
	} else if u.FinalizedHeader != nil {
		return wrapKind(KindInvalidFinalityProof, ErrInvalidFinalityProof)
	}

	if u.NextSyncCommittee != nil && u.FinalityBranch != nil {
		leaf := u.NextSyncCommittee.TreeHashRoot()
		if !consensuscore.IsValidMerkleBranch(leaf, u.NextSyncCommitteeBranch, nextSyncCommitteeBranchDepth, nextSyncCommitteeGeneralizedIdx, u.AttestedHeader.StateRoot) {
			return wrapKind(KindInvalidNextSyncCommitteeProof, ErrInvalidNextSyncCommitteeProof)
		}
	}

	var committee *consensuscore.SyncCommittee
	if updateSigPeriod == storePeriod {
		committee = &store.CurrentSyncCommittee
	} else {
		committee = store.NextSyncCommittee
	}

	pks := consensuscore.GetParticipatingKeys(committee, u.SyncAggregate.SyncCommitteeBits)

	forkVersion := consensuscore.ForkVersion(forks, u.SignatureSlot)
	forkDataRoot := consensuscore.ComputeForkDataRoot(forkVersion, genesisRoot)
	headerRoot := u.AttestedHeader.TreeHashRoot()
	signingRoot := consensuscore.ComputeCommitteeSignRoot(headerRoot, forkDataRoot)

	if !consensuscore.IsAggregateValid(u.SyncAggregate.SyncCommitteeSignature, signingRoot, pks) {
		return wrapKind(KindInvalidSignature, ErrInvalidSignature)
	}

	return nil
}

// verifyUpdate checks a concrete Update against store.
func verifyUpdate(store *LightClientStore, u *consensuscore.Update, expectedCurrentSlot uint64, genesisRoot consensuscore.Bytes32, forks consensuscore.Forks) error {
	return verifyGenericUpdate(store, consensuscore.GenericUpdateFromUpdate(u), expectedCurrentSlot, genesisRoot, forks)
}

// verifyFinalityUpdate checks a FinalityUpdate against store; finality
// updates never carry next-committee material, so the generic view's
// NextSyncCommittee stays nil.
func verifyFinalityUpdate(store *LightClientStore, u *consensuscore.FinalityUpdate, expectedCurrentSlot uint64, genesisRoot consensuscore.Bytes32, forks consensuscore.Forks) error {
	return verifyGenericUpdate(store, consensuscore.GenericUpdateFromFinalityUpdate(u), expectedCurrentSlot, genesisRoot, forks)
}

func verifyBootstrap(checkpoint consensuscore.Bytes32, bootstrap *consensuscore.Bootstrap) error {
	leaf := bootstrap.CurrentSyncCommittee.TreeHashRoot()
	if !consensuscore.IsValidMerkleBranch(leaf, bootstrap.CurrentSyncCommitteeBranch, currentSyncCommitteeBranchDepth, currentSyncCommitteeGeneralized, bootstrap.Header.StateRoot) {
		return wrapKind(KindInvalidCurrentSyncCommitteeProof, ErrInvalidCurrentSyncCommitteeProof)
	}
	if bootstrap.Header.TreeHashRoot() != checkpoint {
		return wrapKind(KindInvalidHeaderHash, ErrInvalidHeaderHash)
	}
	return nil
}
