package consensuscore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderTreeHashRootIsStableAndSensitiveToFields(t *testing.T) {
	h1 := Header{Slot: 100, ProposerIndex: 5, ParentRoot: Bytes32{1}, StateRoot: Bytes32{2}, BodyRoot: Bytes32{3}}
	h2 := h1

	require.Equal(t, h1.TreeHashRoot(), h2.TreeHashRoot(), "identical headers must hash to the same root")

	h2.Slot++
	require.NotEqual(t, h1.TreeHashRoot(), h2.TreeHashRoot(), "changing slot must change the tree hash root")
}

func TestSyncCommitteeTreeHashRoot(t *testing.T) {
	var c1, c2 SyncCommittee
	for i := range c1.Pubkeys {
		c1.Pubkeys[i] = BLSPubKey{byte(i)}
		c2.Pubkeys[i] = BLSPubKey{byte(i)}
	}
	c1.AggregatePubkey = BLSPubKey{0xAA}
	c2.AggregatePubkey = BLSPubKey{0xAA}

	require.Equal(t, c1.TreeHashRoot(), c2.TreeHashRoot(), "identical committees must hash to the same root")

	c2.Pubkeys[0] = BLSPubKey{0xFF}
	require.NotEqual(t, c1.TreeHashRoot(), c2.TreeHashRoot(), "changing a single pubkey must change the tree hash root")
}

// buildBranch constructs a two-level Merkle tree over leaf at
// generalizedIndex 2 (left child of root) and returns (root, branch).
func buildBranch(leaf Bytes32) (Bytes32, []Bytes32) {
	sibling := Bytes32{0x42}
	root := sha256Sum(leaf[:], sibling[:])
	return root, []Bytes32{sibling}
}

func TestIsValidMerkleBranchAcceptsGenuineProof(t *testing.T) {
	leaf := Bytes32{0x11}
	root, branch := buildBranch(leaf)

	require.True(t, IsValidMerkleBranch(leaf, branch, 1, 2, root), "expected a genuine proof to verify")
}

func TestIsValidMerkleBranchRejectsTamperedLeaf(t *testing.T) {
	leaf := Bytes32{0x11}
	root, branch := buildBranch(leaf)

	tampered := Bytes32{0x99}
	require.False(t, IsValidMerkleBranch(tampered, branch, 1, 2, root), "expected a tampered leaf to fail verification")
}

func TestIsValidMerkleBranchRejectsDepthMismatch(t *testing.T) {
	leaf := Bytes32{0x11}
	root, branch := buildBranch(leaf)

	require.False(t, IsValidMerkleBranch(leaf, branch, 2, 2, root), "expected a depth/branch length mismatch to fail cleanly, not panic")
}
