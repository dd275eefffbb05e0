package consensuscore

import (
	ssz "github.com/ferranbt/fastssz"
)

// TreeHashRoot computes the SSZ hash-tree-root of a beacon-block header:
// five fixed-size fields, so no mixin/limit handling is needed.
func (h Header) TreeHashRoot() Bytes32 {
	hh := ssz.NewHasher()
	indx := hh.Index()
	hh.PutUint64(h.Slot)
	hh.PutUint64(h.ProposerIndex)
	hh.PutBytes(h.ParentRoot[:])
	hh.PutBytes(h.StateRoot[:])
	hh.PutBytes(h.BodyRoot[:])
	hh.Merkleize(indx)
	root, err := hh.HashRoot()
	if err != nil {
		// Hasher.HashRoot only fails on hasher misuse (mismatched
		// Index/Merkleize pairing), which is a programming error, not
		// a runtime condition callers can recover from.
		panic(err)
	}
	return Bytes32(root)
}

// TreeHashRoot computes the SSZ hash-tree-root of a sync committee: a
// vector of 512 48-byte pubkeys plus the aggregate pubkey.
func (c SyncCommittee) TreeHashRoot() Bytes32 {
	hh := ssz.NewHasher()
	indx := hh.Index()
	{
		subIndx := hh.Index()
		for _, pk := range c.Pubkeys {
			hh.PutBytes(pk[:])
		}
		hh.Merkleize(subIndx)
	}
	hh.PutBytes(c.AggregatePubkey[:])
	hh.Merkleize(indx)
	root, err := hh.HashRoot()
	if err != nil {
		panic(err)
	}
	return Bytes32(root)
}

// TreeHashRoot computes the SSZ hash-tree-root of a SigningData container
// (object_root, domain), per ComputeSigningRoot in bls.go.
func (s signingData) TreeHashRoot() Bytes32 {
	hh := ssz.NewHasher()
	indx := hh.Index()
	hh.PutBytes(s.ObjectRoot[:])
	hh.PutBytes(s.Domain[:])
	hh.Merkleize(indx)
	root, err := hh.HashRoot()
	if err != nil {
		panic(err)
	}
	return Bytes32(root)
}

// TreeHashRoot computes the SSZ hash-tree-root of a ForkData container
// (current_version, genesis_validators_root), per ComputeForkDataRoot.
func (f forkData) TreeHashRoot() Bytes32 {
	hh := ssz.NewHasher()
	indx := hh.Index()
	hh.PutBytes(f.CurrentVersion[:])
	hh.PutBytes(f.GenesisValidatorsRoot[:])
	hh.Merkleize(indx)
	root, err := hh.HashRoot()
	if err != nil {
		panic(err)
	}
	return Bytes32(root)
}

// IsValidMerkleBranch verifies a standard SSZ Merkle inclusion proof: leaf
// is included in the tree rooted at root, at the given generalized index,
// via branch (one sibling hash per level). depth must equal len(branch);
// a length mismatch or any other malformed input returns false rather than
// panicking, never panics.
func IsValidMerkleBranch(leaf Bytes32, branch []Bytes32, depth int, generalizedIndex uint64, root Bytes32) bool {
	if depth < 0 || len(branch) != depth {
		return false
	}
	hashes := make([][]byte, len(branch))
	for i, node := range branch {
		node := node
		hashes[i] = node[:]
	}
	ok, err := ssz.VerifyProof(root[:], &ssz.Proof{
		Index:  int(generalizedIndex),
		Leaf:   leaf[:],
		Hashes: hashes,
	})
	if err != nil {
		return false
	}
	return ok
}

type signingData struct {
	ObjectRoot Bytes32
	Domain     Bytes32
}

type forkData struct {
	CurrentVersion        Bytes4
	GenesisValidatorsRoot Bytes32
}
