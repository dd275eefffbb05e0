package consensus

import "github.com/pkg/errors"

// Kind tags a consensus error with the taxonomy from the error-handling
// design so callers can branch on disposition without string matching.
type Kind int

const (
	// KindUnknown is the zero value; never returned by this package.
	KindUnknown Kind = iota
	KindInvalidHeaderHash
	KindInvalidCurrentSyncCommitteeProof
	KindCheckpointTooOld
	KindInsufficientParticipation
	KindInvalidTimestamp
	KindInvalidPeriod
	KindNotRelevant
	KindInvalidFinalityProof
	KindInvalidNextSyncCommitteeProof
	KindInvalidSignature
	KindRPCTransient
)

func (k Kind) String() string {
	switch k {
	case KindInvalidHeaderHash:
		return "InvalidHeaderHash"
	case KindInvalidCurrentSyncCommitteeProof:
		return "InvalidCurrentSyncCommitteeProof"
	case KindCheckpointTooOld:
		return "CheckpointTooOld"
	case KindInsufficientParticipation:
		return "InsufficientParticipation"
	case KindInvalidTimestamp:
		return "InvalidTimestamp"
	case KindInvalidPeriod:
		return "InvalidPeriod"
	case KindNotRelevant:
		return "NotRelevant"
	case KindInvalidFinalityProof:
		return "InvalidFinalityProof"
	case KindInvalidNextSyncCommitteeProof:
		return "InvalidNextSyncCommitteeProof"
	case KindInvalidSignature:
		return "InvalidSignature"
	case KindRPCTransient:
		return "RpcTransient"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with the underlying sentinel, matching the
// %s (wrap) + errors.Is idiom the teacher already uses for its Err* vars.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Cause() error  { return e.err }

// Is reports whether target is the same sentinel this Error wraps, so
// callers can still do errors.Is(err, ErrInvalidSignature).
func (e *Error) Is(target error) bool { return errors.Is(e.err, target) }

func newError(kind Kind, sentinel error) *Error {
	return &Error{Kind: kind, err: sentinel}
}

// Sentinels for every error kind in the taxonomy. Wrapped in *Error by the
// functions below so callers get both errors.Is compatibility and a Kind
// to switch on.
var (
	ErrInvalidHeaderHash                = errors.New("invalid header hash")
	ErrInvalidCurrentSyncCommitteeProof = errors.New("invalid current sync committee proof")
	ErrCheckpointTooOld                 = errors.New("checkpoint too old")
	ErrInsufficientParticipation        = errors.New("insufficient participation")
	ErrInvalidTimestamp                 = errors.New("invalid timestamp")
	ErrInvalidPeriod                    = errors.New("invalid period")
	ErrNotRelevant                      = errors.New("update not relevant")
	ErrInvalidFinalityProof             = errors.New("invalid finality proof")
	ErrInvalidNextSyncCommitteeProof    = errors.New("invalid next sync committee proof")
	ErrInvalidSignature                 = errors.New("invalid signature")
	ErrRPCTransient                     = errors.New("transient rpc error")
	ErrBootstrapFetchFailed             = errors.New("could not fetch bootstrap")
	ErrPayloadNotFound                  = errors.New("payload not found")
)

func wrapKind(kind Kind, sentinel error) error { return newError(kind, sentinel) }
