package consensuscore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsAggregateValidRejectsEmptyPubkeySet(t *testing.T) {
	var sig SignatureBytes
	var msg Bytes32
	require.False(t, IsAggregateValid(sig, msg, nil), "an aggregate over zero pubkeys must never validate")
}

func TestIsAggregateValidRejectsGarbageSignature(t *testing.T) {
	var sig SignatureBytes // all-zero bytes do not decompress to a curve point
	var msg Bytes32
	pubkeys := []BLSPubKey{{0x01}}
	require.False(t, IsAggregateValid(sig, msg, pubkeys), "an all-zero signature must never decompress to a valid point")
}

func TestIsAggregateValidRejectsGarbagePubkey(t *testing.T) {
	var sig SignatureBytes
	var msg Bytes32
	pubkeys := []BLSPubKey{{}} // all-zero pubkey is not a valid curve point either
	require.False(t, IsAggregateValid(sig, msg, pubkeys), "an all-zero pubkey must never decompress to a valid point")
}

func TestGetParticipatingKeysSelectsOnlySetBits(t *testing.T) {
	var committee SyncCommittee
	for i := range committee.Pubkeys {
		committee.Pubkeys[i] = BLSPubKey{byte(i), byte(i >> 8)}
	}

	var bits BitVector
	bits[0] = 0b00000101 // seats 0 and 2

	got := GetParticipatingKeys(&committee, bits)
	require.Len(t, got, 2)
	require.Equal(t, committee.Pubkeys[0], got[0], "expected seat 0 first")
	require.Equal(t, committee.Pubkeys[2], got[1], "expected seat 2 second")
}

func TestComputeDomainLayout(t *testing.T) {
	domainType := [4]byte{0x07, 0x00, 0x00, 0x00}
	var forkDataRoot Bytes32
	for i := range forkDataRoot {
		forkDataRoot[i] = byte(i)
	}

	domain := ComputeDomain(domainType, forkDataRoot)

	require.Equal(t, domainType, [4]byte(domain[0:4]), "first 4 bytes of domain must be the domain type")
	require.Equal(t, [28]byte(forkDataRoot[0:28]), [28]byte(domain[4:32]), "remaining 28 bytes of domain must be the low 28 bytes of the fork data root")
}
