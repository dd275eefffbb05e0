// Package consensuscore holds the beacon-chain wire types and the SSZ/BLS
// primitives the verifier and applier build on. It has no dependency on the
// RPC or store packages so it can be imported by peer-chain code that only
// needs to call VerifyUpdate against a trusted store snapshot.
package consensuscore

import "fmt"

// Bytes32 is a tree-hash root, state root, parent root, or any other
// 32-byte beacon-chain digest.
type Bytes32 [32]byte

// Bytes4 is a little-endian fork version.
type Bytes4 [4]byte

// BLSPubKey is a compressed BLS12-381 G1 point (48 bytes).
type BLSPubKey [48]byte

// SignatureBytes is a compressed BLS12-381 G2 point (96 bytes).
type SignatureBytes [96]byte

// SyncCommitteeSize is the number of validators in a sync committee.
const SyncCommitteeSize = 512

// BitVector is a fixed bitvector[512], one bit per sync committee seat.
type BitVector [SyncCommitteeSize / 8]byte

// PopCount returns the number of set bits.
func (b BitVector) PopCount() uint64 {
	var count uint64
	for _, byt := range b {
		count += uint64(popCountByte(byt))
	}
	return count
}

// BitAt reports whether seat i contributed to the aggregate signature.
func (b BitVector) BitAt(i int) bool {
	return b[i/8]&(1<<uint(i%8)) != 0
}

func popCountByte(b byte) int {
	count := 0
	for b != 0 {
		count += int(b & 1)
		b >>= 1
	}
	return count
}

// Header is a beacon-block header. Hash-equality is defined on
// TreeHashRoot, not struct equality, so callers must not rely on ==.
type Header struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    Bytes32
	StateRoot     Bytes32
	BodyRoot      Bytes32
}

// IsEmpty reports whether every field but Slot carries its default value.
// Empty headers mark forked/skipped slots in the finality-update cache.
func (h Header) IsEmpty() bool {
	return h.ProposerIndex == 0 && h.ParentRoot == Bytes32{} && h.StateRoot == Bytes32{} && h.BodyRoot == Bytes32{}
}

// EmptyHeaderAt synthesizes the sentinel used to mark a skipped slot in the
// finality-update cache: every field but Slot stays at its zero value.
func EmptyHeaderAt(slot uint64) Header {
	return Header{Slot: slot}
}

// SyncCommittee is the 512-member signing committee for one sync period.
type SyncCommittee struct {
	Pubkeys         [SyncCommitteeSize]BLSPubKey
	AggregatePubkey BLSPubKey
}

// SyncAggregate carries the participation bitvector and the committee's
// aggregate BLS signature over a signing root.
type SyncAggregate struct {
	SyncCommitteeBits      BitVector
	SyncCommitteeSignature SignatureBytes
}

// Bootstrap anchors a ConsensusClient to a trusted checkpoint: the header
// whose tree-hash root equals the configured initial checkpoint, plus the
// current sync committee and its Merkle inclusion proof.
type Bootstrap struct {
	Header                     Header
	CurrentSyncCommittee       SyncCommittee
	CurrentSyncCommitteeBranch []Bytes32
}

// Update is a LightClientUpdate: it always carries finality and
// next-committee material. FinalityUpdate is the same shape minus the
// next-committee fields.
type Update struct {
	AttestedHeader          Header
	NextSyncCommittee       SyncCommittee
	NextSyncCommitteeBranch []Bytes32
	FinalizedHeader         Header
	FinalityBranch          []Bytes32
	SyncAggregate           SyncAggregate
	SignatureSlot           uint64
}

// FinalityUpdate is a LightClientFinalityUpdate: no next-committee material.
type FinalityUpdate struct {
	AttestedHeader  Header
	FinalizedHeader Header
	FinalityBranch  []Bytes32
	SyncAggregate   SyncAggregate
	SignatureSlot   uint64
}

// GenericUpdate is the union view the verifier and applier share between
// Update and FinalityUpdate. FinalizedHeader is a pointer here because it is
// genuinely optional in this view; concrete Update and FinalityUpdate
// values always populate the finalized header, so GenericUpdateFrom* never
// leaves it nil.
type GenericUpdate struct {
	AttestedHeader          Header
	SyncAggregate           SyncAggregate
	SignatureSlot           uint64
	NextSyncCommittee       *SyncCommittee
	NextSyncCommitteeBranch []Bytes32
	FinalizedHeader         *Header
	FinalityBranch          []Bytes32
}

// HasSyncUpdate reports whether this view carries next-committee material.
func (g *GenericUpdate) HasSyncUpdate() bool {
	return g.NextSyncCommittee != nil && g.NextSyncCommitteeBranch != nil
}

// HasFinalityUpdate reports whether this view carries a finality proof.
func (g *GenericUpdate) HasFinalityUpdate() bool {
	return g.FinalizedHeader != nil && g.FinalityBranch != nil
}

// GenericUpdateFromUpdate lifts a concrete Update into the shared view.
func GenericUpdateFromUpdate(u *Update) *GenericUpdate {
	finalized := u.FinalizedHeader
	nextCommittee := u.NextSyncCommittee
	return &GenericUpdate{
		AttestedHeader:          u.AttestedHeader,
		SyncAggregate:           u.SyncAggregate,
		SignatureSlot:           u.SignatureSlot,
		NextSyncCommittee:       &nextCommittee,
		NextSyncCommitteeBranch: u.NextSyncCommitteeBranch,
		FinalizedHeader:         &finalized,
		FinalityBranch:          u.FinalityBranch,
	}
}

// GenericUpdateFromFinalityUpdate lifts a FinalityUpdate into the shared
// view; it never carries next-committee material.
func GenericUpdateFromFinalityUpdate(u *FinalityUpdate) *GenericUpdate {
	finalized := u.FinalizedHeader
	return &GenericUpdate{
		AttestedHeader:  u.AttestedHeader,
		SyncAggregate:   u.SyncAggregate,
		SignatureSlot:   u.SignatureSlot,
		FinalizedHeader: &finalized,
		FinalityBranch:  u.FinalityBranch,
	}
}

// UpdateFromFinalityUpdate synthesizes a concrete Update by grafting the
// store's current next-sync-committee material onto a FinalityUpdate, so it
// can be cached and later replayed as a regular Update (see
// consensus.go:storeFinalityUpdateLocked).
func UpdateFromFinalityUpdate(u FinalityUpdate, nextCommittee SyncCommittee, nextCommitteeBranch []Bytes32) Update {
	return Update{
		AttestedHeader:          u.AttestedHeader,
		NextSyncCommittee:       nextCommittee,
		NextSyncCommitteeBranch: nextCommitteeBranch,
		FinalizedHeader:         u.FinalizedHeader,
		FinalityBranch:          u.FinalityBranch,
		SyncAggregate:           u.SyncAggregate,
		SignatureSlot:           u.SignatureSlot,
	}
}

func (h Header) String() string {
	return fmt.Sprintf("Header{slot=%d}", h.Slot)
}
