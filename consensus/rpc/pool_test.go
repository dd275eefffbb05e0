package rpc

import (
	"errors"
	"testing"

	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
	"github.com/stretchr/testify/require"
)

type scriptedRPC struct {
	header    *consensuscore.Header
	headerErr error
}

func (s *scriptedRPC) GetBootstrap(consensuscore.Bytes32) (consensuscore.Bootstrap, error) {
	return consensuscore.Bootstrap{}, nil
}

func (s *scriptedRPC) GetUpdates(uint64, uint8) ([]consensuscore.Update, error) {
	return nil, nil
}

func (s *scriptedRPC) GetFinalityUpdate() (consensuscore.FinalityUpdate, error) {
	return consensuscore.FinalityUpdate{}, nil
}

func (s *scriptedRPC) GetHeader(uint64) (*consensuscore.Header, error) {
	return s.header, s.headerErr
}

func TestPoolGetHeaderPrimarySomeWinsImmediately(t *testing.T) {
	header := &consensuscore.Header{Slot: 5}
	primary := &scriptedRPC{header: header}
	fallback := &scriptedRPC{header: &consensuscore.Header{Slot: 999}}

	pool, err := NewPoolFrom([]ConsensusRpc{primary, fallback})
	require.NoError(t, err)

	got, err := pool.GetHeader(5)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint64(5), got.Slot, "expected primary's header")
}

func TestPoolGetHeaderFallsBackWhenPrimaryReturnsNone(t *testing.T) {
	primary := &scriptedRPC{header: nil}
	fallback := &scriptedRPC{header: &consensuscore.Header{Slot: 7}}

	pool, _ := NewPoolFrom([]ConsensusRpc{primary, fallback})

	got, err := pool.GetHeader(7)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint64(7), got.Slot, "expected fallback's header")
}

func TestPoolGetHeaderPropagatesNoneWhenEveryEndpointAgrees(t *testing.T) {
	primary := &scriptedRPC{header: nil}
	fallback := &scriptedRPC{header: nil}

	pool, _ := NewPoolFrom([]ConsensusRpc{primary, fallback})

	got, err := pool.GetHeader(9)
	require.NoError(t, err)
	require.Nil(t, got, "expected nil when every endpoint agrees the slot is empty")
}

func TestPoolGetHeaderFallsBackOnPrimaryErrorAndFindsSome(t *testing.T) {
	primary := &scriptedRPC{headerErr: errors.New("primary down")}
	fallback := &scriptedRPC{header: &consensuscore.Header{Slot: 3}}

	pool, _ := NewPoolFrom([]ConsensusRpc{primary, fallback})

	got, err := pool.GetHeader(3)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint64(3), got.Slot, "expected fallback's header after primary errored")
}

func TestPoolGetHeaderPropagatesPrimaryErrorWhenNoFallbackResolves(t *testing.T) {
	primaryErr := errors.New("primary down")
	primary := &scriptedRPC{headerErr: primaryErr}
	fallback := &scriptedRPC{headerErr: errors.New("fallback also down")}

	pool, _ := NewPoolFrom([]ConsensusRpc{primary, fallback})

	_, err := pool.GetHeader(3)
	require.ErrorIs(t, err, primaryErr, "expected the primary's original error to propagate")
}

func TestPoolGetHeaderErrorYieldsToFallbackNoneOverOriginalError(t *testing.T) {
	primary := &scriptedRPC{headerErr: errors.New("primary down")}
	fallback := &scriptedRPC{header: nil} // fallback succeeds with "no header"

	pool, _ := NewPoolFrom([]ConsensusRpc{primary, fallback})

	got, err := pool.GetHeader(3)
	require.NoError(t, err, "expected None to win over the primary's error")
	require.Nil(t, got)
}

func TestNewPoolFromRejectsEmptyEndpointList(t *testing.T) {
	_, err := NewPoolFrom(nil)
	require.Error(t, err)
}
