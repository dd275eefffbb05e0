package consensuscore

import (
	"crypto/sha256"

	blst "github.com/supranational/blst/bindings/go"
)

// blsSignatureDST is the domain-separation tag Ethereum consensus uses for
// BLS signatures over SSZ signing roots (the proof-of-possession scheme,
// used for sync-committee and proposer signatures alike).
const blsSignatureDST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_"

// DomainSyncCommittee is the domain type used when signing attested
// headers for the light-client sync-committee protocol.
var DomainSyncCommittee = [4]byte{0x07, 0x00, 0x00, 0x00}

// ComputeDomain derives a signing domain from a domain type and a fork
// data root, per the beacon-chain spec: the low 28 bytes of the fork data
// root are appended to the 4-byte domain type.
func ComputeDomain(domainType [4]byte, forkDataRoot Bytes32) Bytes32 {
	var domain Bytes32
	copy(domain[:4], domainType[:])
	copy(domain[4:], forkDataRoot[:28])
	return domain
}

// ComputeForkDataRoot hashes the (current_version, genesis_validators_root)
// pair that feeds ComputeDomain.
func ComputeForkDataRoot(currentVersion Bytes4, genesisValidatorsRoot Bytes32) Bytes32 {
	return forkData{CurrentVersion: currentVersion, GenesisValidatorsRoot: genesisValidatorsRoot}.TreeHashRoot()
}

// ComputeSigningRoot wraps an object root and a domain into the
// SigningData container and hashes it, per compute_signing_root.
func ComputeSigningRoot(objectRoot, domain Bytes32) Bytes32 {
	return signingData{ObjectRoot: objectRoot, Domain: domain}.TreeHashRoot()
}

// ComputeCommitteeSignRoot is the convenience form used by the verifier:
// domain type is always the sync-committee domain (0x07000000).
func ComputeCommitteeSignRoot(headerRoot, forkDataRoot Bytes32) Bytes32 {
	domain := ComputeDomain(DomainSyncCommittee, forkDataRoot)
	return ComputeSigningRoot(headerRoot, domain)
}

// IsAggregateValid verifies that signature is a valid BLS12-381
// fast-aggregate signature by pubkeys over msg. It decodes pubkeys and the
// signature with blst; any decode failure, an empty pubkey set, or a
// cryptographically invalid aggregate returns false, never panics.
func IsAggregateValid(signature SignatureBytes, msg Bytes32, pubkeys []BLSPubKey) bool {
	if len(pubkeys) == 0 {
		return false
	}
	sig := new(blst.P2Affine).Uncompress(signature[:])
	if sig == nil {
		return false
	}
	if !sig.SigValidate(false) {
		return false
	}
	points := make([]*blst.P1Affine, 0, len(pubkeys))
	for _, pk := range pubkeys {
		point := new(blst.P1Affine).Uncompress(pk[:])
		if point == nil {
			return false
		}
		points = append(points, point)
	}
	return sig.FastAggregateVerify(true, points, msg[:], []byte(blsSignatureDST))
}

// GetParticipatingKeys gathers the pubkeys whose bit is set in bits from
// committee, in seat order.
func GetParticipatingKeys(committee *SyncCommittee, bits BitVector) []BLSPubKey {
	pks := make([]BLSPubKey, 0, SyncCommitteeSize)
	for i := 0; i < SyncCommitteeSize; i++ {
		if bits.BitAt(i) {
			pks = append(pks, committee.Pubkeys[i])
		}
	}
	return pks
}

// sha256Sum folds two siblings together; tests use it to build fixture
// Merkle trees without re-deriving the folding order by hand.
func sha256Sum(a, b []byte) Bytes32 {
	h := sha256.New()
	h.Write(a)
	h.Write(b)
	var out Bytes32
	copy(out[:], h.Sum(nil))
	return out
}
