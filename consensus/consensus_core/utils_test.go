package consensuscore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalcEpoch(t *testing.T) {
	cases := []struct {
		slot uint64
		want uint64
	}{
		{0, 0},
		{31, 0},
		{32, 1},
		{32*256 - 1, 255},
	}
	for _, c := range cases {
		require.Equal(t, c.want, CalcEpoch(c.slot), "CalcEpoch(%d)", c.slot)
	}
}

func TestCalcSyncPeriod(t *testing.T) {
	cases := []struct {
		slot uint64
		want uint64
	}{
		{0, 0},
		{SlotsPerSyncCommitteePeriod - 1, 0},
		{SlotsPerSyncCommitteePeriod, 1},
		{SlotsPerSyncCommitteePeriod * 3, 3},
	}
	for _, c := range cases {
		require.Equal(t, c.want, CalcSyncPeriod(c.slot), "CalcSyncPeriod(%d)", c.slot)
	}
}

func TestForkVersionSelectsLatestApplicable(t *testing.T) {
	forks := Forks{
		Genesis:   Fork{Epoch: 0, Version: Bytes4{0, 0, 0, 0}},
		Altair:    Fork{Epoch: 10, Version: Bytes4{1, 0, 0, 0}},
		Bellatrix: Fork{Epoch: 20, Version: Bytes4{2, 0, 0, 0}},
	}

	cases := []struct {
		slot uint64
		want Bytes4
	}{
		{0, forks.Genesis.Version},
		{9 * SlotsPerEpoch, forks.Genesis.Version},
		{10 * SlotsPerEpoch, forks.Altair.Version},
		{19 * SlotsPerEpoch, forks.Altair.Version},
		{20 * SlotsPerEpoch, forks.Bellatrix.Version},
		{1000 * SlotsPerEpoch, forks.Bellatrix.Version},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ForkVersion(forks, c.slot), "ForkVersion(slot=%d)", c.slot)
	}
}
