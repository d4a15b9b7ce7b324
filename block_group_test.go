package uniswap_v3_hedge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalized(block uint64, ts int64, price float64) NormalizedEvent {
	return NormalizedEvent{
		Timestamp:    ts,
		BlockNumber:  block,
		FeeTier:      FeeAmountMedium,
		Price:        price,
		PriceInverse: 1 / price,
	}
}

func TestGroupByBlock(t *testing.T) {
	groups, err := GroupByBlock([]SwapEvent{
		swapAt(12, 120, 1, 100),
		swapAt(10, 100, 1, 101),
		swapAt(12, 121, 1, 102),
		swapAt(11, 110, 1, 103),
	})
	require.NoError(t, err)
	require.Equal(t, 3, groups.Len())
	assert.Equal(t, uint64(10), groups.Groups[0].BlockNumber)
	assert.Equal(t, uint64(11), groups.Groups[1].BlockNumber)
	assert.Equal(t, uint64(12), groups.Groups[2].BlockNumber)

	events, ok := groups.Get(12)
	require.True(t, ok)
	require.Len(t, events, 2)
	assert.Equal(t, int64(120), events[0].Timestamp, "input order kept inside a block")
	assert.Equal(t, int64(121), events[1].Timestamp)

	_, ok = groups.Get(13)
	assert.False(t, ok)

	_, err = GroupByBlock([]SwapEvent{{BlockNumber: 1}})
	assert.ErrorIs(t, err, ErrInvalidSwap)
}

func TestDiscardManyInGroup(t *testing.T) {
	groups := GroupNormalized([]NormalizedEvent{
		normalized(1, 10, 100),
		normalized(2, 20, 101),
		normalized(2, 21, 102),
		normalized(3, 30, 103),
	})
	slots := DiscardManyInGroup(groups)
	require.Len(t, slots, 3)
	require.NotNil(t, slots[0])
	assert.Nil(t, slots[1], "block with two swaps is discarded")
	require.NotNil(t, slots[2])
	assert.Equal(t, uint64(3), slots[2].BlockNumber)
	assert.Equal(t, 103.0, slots[2].Price)

	assert.Nil(t, DiscardManyInGroup(nil))
}

func TestDiscardManyInGroupIdempotent(t *testing.T) {
	events := []NormalizedEvent{
		normalized(5, 50, 100),
		normalized(5, 51, 100.5),
		normalized(6, 60, 101),
		normalized(7, 70, 99),
		normalized(7, 71, 98),
		normalized(7, 72, 97),
		normalized(9, 90, 102),
	}
	first := PresentEvents(DiscardManyInGroup(GroupNormalized(events)))
	second := PresentEvents(DiscardManyInGroup(GroupNormalized(first)))
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
	for _, g := range GroupNormalized(first).Groups {
		assert.Len(t, g.Events, 1)
	}
}
