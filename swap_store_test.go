package uniswap_v3_hedge

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SwapStore {
	t.Helper()
	store, err := OpenSwapStore(filepath.Join(t.TempDir(), "swaps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSqrtPriceScan(t *testing.T) {
	var p SqrtPrice
	require.NoError(t, p.Scan([]byte("79228162514264337593543950336")))
	assert.Equal(t, "79228162514264337593543950336", p.Dec())

	require.NoError(t, p.Scan("42"))
	assert.Equal(t, uint256.NewInt(42), p.Int)

	assert.Error(t, p.Scan(42))
	assert.Error(t, p.Scan("0x2a"))

	v, err := SqrtPrice{uint256.NewInt(7)}.Value()
	require.NoError(t, err)
	assert.Equal(t, "7", v)

	v, err = SqrtPrice{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSwapStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)

	late := swapAt(12, 300, 1, 101)
	early := swapAt(10, 100, 1, 100)
	sameBlock := swapAt(10, 100, 1, 99)
	sameBlock.LogIndex = 4
	sameBlock.TxHash = "0xfeed"
	other := swapAt(11, 200, 1, 50)
	other.Pool = "0xother"

	require.NoError(t, store.SaveSwaps([]SwapEvent{late, sameBlock, other, early}))

	events, err := store.LoadSwaps("0xPOOL", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, early, events[0])
	assert.Equal(t, sameBlock, events[1])
	assert.Equal(t, late, events[2])

	n, err := store.CountSwaps("0xpool")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = store.CountSwaps("0xother")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSwapStoreRange(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SaveSwaps([]SwapEvent{
		swapAt(1, 100, 1, 100),
		swapAt(2, 200, 1, 100),
		swapAt(3, 300, 1, 100),
	}))

	tests := []struct {
		from, to int64
		blocks   []uint64
	}{
		{0, 0, []uint64{1, 2, 3}},
		{200, 0, []uint64{2, 3}},
		{0, 200, []uint64{1, 2}},
		{150, 250, []uint64{2}},
		{400, 0, nil},
	}
	for _, tt := range tests {
		events, err := store.LoadSwaps("0xpool", tt.from, tt.to)
		require.NoError(t, err)
		var blocks []uint64
		for _, e := range events {
			blocks = append(blocks, e.BlockNumber)
		}
		assert.Equal(t, tt.blocks, blocks, "from %d to %d", tt.from, tt.to)
	}
}

func TestSwapStoreUpsert(t *testing.T) {
	store := openTestStore(t)
	first := swapAt(5, 50, 1, 100)
	require.NoError(t, store.SaveSwaps([]SwapEvent{first}))

	replaced := swapAt(5, 55, 1, 200)
	replaced.TxHash = "0xreorg"
	require.NoError(t, store.SaveSwaps([]SwapEvent{replaced}))

	events, err := store.LoadSwaps("0xpool", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, replaced, events[0])
}

func TestSwapStoreInvalid(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SaveSwaps(nil))

	err := store.SaveSwaps([]SwapEvent{swapAt(1, 1, 1, 1), {Pool: "0xpool", BlockNumber: 2}})
	assert.ErrorIs(t, err, ErrInvalidSwap)

	n, err := store.CountSwaps("0xpool")
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is written when a swap is rejected")
}
