package uniswap_v3_hedge

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPool = "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"

func word(v *big.Int) []byte {
	return math.U256Bytes(new(big.Int).Set(v))
}

func swapLogData(amount0, amount1, sqrtPrice, liquidity, tick *big.Int) []byte {
	var data []byte
	for _, v := range []*big.Int{amount0, amount1, sqrtPrice, liquidity, tick} {
		data = append(data, word(v)...)
	}
	return data
}

func swapLog(block uint64, index uint, data []byte) types.Log {
	return types.Log{
		Address: common.HexToAddress(testPool),
		Topics: []common.Hash{
			TOPIC_SWAP,
			common.HexToHash("0x000000000000000000000000e592427a0aece92de3edee1f18e0157c05861564"),
			common.HexToHash("0x000000000000000000000000a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
		},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block))),
		Index:       index,
	}
}

func TestParseUniv3SwapEvent(t *testing.T) {
	log := swapLog(100, 3, swapLogData(
		big.NewInt(-1000),
		big.NewInt(2000),
		constants.Q96,
		big.NewInt(1e18),
		big.NewInt(-887),
	))
	swap, err := parseUniv3SwapEvent(&log)
	require.NoError(t, err)
	assert.Equal(t, "-1000", swap.Amount0.String())
	assert.Equal(t, "2000", swap.Amount1.String())
	assert.Equal(t, uint256.MustFromBig(constants.Q96), swap.SqrtPriceX96)
	assert.Equal(t, "1000000000000000000", swap.Liquidity.String())
	assert.Equal(t, -887, swap.Tick)
	assert.Equal(t, "0xe592427a0aece92de3edee1f18e0157c05861564", swap.Sender)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", swap.Recipient)
}

func TestParseUniv3SwapEventInvalid(t *testing.T) {
	short := swapLog(1, 0, make([]byte, 64))
	_, err := parseUniv3SwapEvent(&short)
	assert.ErrorIs(t, err, ErrInvalidSwap)

	zero := swapLog(1, 0, swapLogData(big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)))
	_, err = parseUniv3SwapEvent(&zero)
	assert.ErrorIs(t, err, ErrInvalidSwap)

	topics := swapLog(1, 0, swapLogData(big.NewInt(1), big.NewInt(1), constants.Q96, big.NewInt(1), big.NewInt(0)))
	topics.Topics = topics.Topics[:1]
	_, err = parseUniv3SwapEvent(&topics)
	assert.ErrorIs(t, err, ErrTopicMismatch)
}

func TestSwapEventsFromLogs(t *testing.T) {
	pool, err := NewPoolConfig(testPool, "usdc", "weth", 6, 18, FeeAmountMedium)
	require.NoError(t, err)
	data := swapLogData(big.NewInt(-5), big.NewInt(7), constants.Q96, big.NewInt(10), big.NewInt(0))

	valid := swapLog(10, 1, data)
	other := swapLog(10, 2, data)
	other.Address = common.HexToAddress("0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640")
	removed := swapLog(11, 0, data)
	removed.Removed = true
	mint := swapLog(12, 0, data)
	mint.Topics[0] = common.HexToHash("0x7a53080ba414158be7ec69b987b5fb7d07dee101fe85488f0853ae16239d0bde")
	broken := swapLog(13, 0, data[:64])

	events, err := SwapEventsFromLogs(pool, []types.Log{valid, other, removed, mint, broken}, map[uint64]int64{10: 1000, 13: 1300})
	require.NoError(t, err)
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8", e.Pool)
	assert.Equal(t, uint64(10), e.BlockNumber)
	assert.Equal(t, uint(1), e.LogIndex)
	assert.Equal(t, int64(1000), e.Timestamp)
	assert.Equal(t, uint8(6), e.Token0Decimals)
	assert.Equal(t, uint8(18), e.Token1Decimals)
	assert.Equal(t, FeeAmountMedium, e.FeeTier)
	assert.Equal(t, valid.TxHash.Hex(), e.TxHash)

	_, err = SwapEventsFromLogs(pool, []types.Log{valid}, map[uint64]int64{})
	assert.ErrorIs(t, err, ErrInvalidSwap)
}

func TestDecodeLogs(t *testing.T) {
	log := swapLog(10, 1, swapLogData(big.NewInt(-5), big.NewInt(7), constants.Q96, big.NewInt(10), big.NewInt(0)))
	raw, err := json.Marshal([]types.Log{log})
	require.NoError(t, err)

	logs, err := DecodeLogs(raw)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, log.Address, logs[0].Address)
	assert.Equal(t, log.Topics, logs[0].Topics)
	assert.Equal(t, log.Data, logs[0].Data)
	assert.Equal(t, log.BlockNumber, logs[0].BlockNumber)
	assert.Equal(t, log.Index, logs[0].Index)

	_, err = DecodeLogs([]byte("{"))
	assert.Error(t, err)
}

func TestDecodeBlockTimes(t *testing.T) {
	times, err := DecodeBlockTimes([]byte(`{"14600000": 1650000000, "0xdec7e1": 1650000013}`))
	require.NoError(t, err)
	assert.Equal(t, map[uint64]int64{14600000: 1650000000, 0xdec7e1: 1650000013}, times)

	_, err = DecodeBlockTimes([]byte(`{"latest": 1}`))
	assert.Error(t, err)
}

func TestEventTopic(t *testing.T) {
	assert.Equal(t, common.HexToHash("0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67"), TOPIC_SWAP)
	assert.Equal(t, common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"), EventTopic("Transfer(address,address,uint256)"))
}
