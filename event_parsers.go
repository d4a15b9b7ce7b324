package uniswap_v3_hedge

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"
)

const SWAP_EVENT_SIGNATURE = "Swap(address,address,int256,int256,uint160,uint128,int24)"

var (
	TOPIC_SWAP = EventTopic(SWAP_EVENT_SIGNATURE)
)

// EventTopic is the keccak256 of an event signature, the log's first topic.
func EventTopic(signature string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return common.BytesToHash(h.Sum(nil))
}

type UniV3SwapEvent struct {
	RawEvent     *types.Log      `json:"raw_event"`
	Sender       string          `json:"sender"`
	Recipient    string          `json:"to"`
	Amount0      decimal.Decimal `json:"amount0"`
	Amount1      decimal.Decimal `json:"amount1"`
	SqrtPriceX96 *uint256.Int    `json:"sqrt_price_x96"`
	Liquidity    decimal.Decimal `json:"liquidity"`
	Tick         int             `json:"tick"`
}

var (
	int24, _   = abi.NewType("int24", "", nil)
	int256, _  = abi.NewType("int256", "", nil)
	uint160, _ = abi.NewType("uint160", "", nil)
	uint128, _ = abi.NewType("uint128", "", nil)
)

func parseUniv3SwapEvent(log *types.Log) (*UniV3SwapEvent, error) {
	event := log
	data := event.Data
	if len(event.Topics) != 3 || event.Topics[0] != TOPIC_SWAP {
		return nil, fmt.Errorf("%w: expect swap with %d topics, got %d", ErrTopicMismatch, 3, len(event.Topics))
	}
	if len(data) < 32*5 {
		return nil, fmt.Errorf("%w: swap data is %d bytes, tx: %s", ErrInvalidSwap, len(data), log.TxHash)
	}
	amount0, ok := abi.ReadInteger(int256, data[0:32]).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("parse swap err amount0 not a int")
	}
	amount1, ok := abi.ReadInteger(int256, data[32:32*2]).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("parse swap err amount1 not a int")
	}
	sqrtPriceX96, ok := abi.ReadInteger(uint160, data[32*2:32*3]).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("parse swap err sqrtPriceX96 not a int")
	}
	liquidity, ok := abi.ReadInteger(uint128, data[32*3:32*4]).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("parse swap err liquidity not a int")
	}
	tick, ok := abi.ReadInteger(int24, data[32*4:32*5]).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("parse swap err tick not a int")
	}
	price, overflow := uint256.FromBig(sqrtPriceX96)
	if overflow || price.IsZero() {
		return nil, fmt.Errorf("%w: sqrt price %s, tx: %s", ErrInvalidSwap, sqrtPriceX96, log.TxHash)
	}

	parsed := &UniV3SwapEvent{
		RawEvent:     log,
		Sender:       hash2Addr(event.Topics[1]),
		Recipient:    hash2Addr(event.Topics[2]),
		Amount0:      decimal.NewFromBigInt(amount0, 0),
		Amount1:      decimal.NewFromBigInt(amount1, 0),
		SqrtPriceX96: price,
		Liquidity:    decimal.NewFromBigInt(liquidity, 0),
		Tick:         int(tick.Int64()),
	}
	if parsed.Amount0.IsZero() && parsed.Amount1.IsZero() && parsed.Liquidity.IsZero() {
		return nil, fmt.Errorf("%w: swap amount is 0: %s", ErrInvalidSwap, log.TxHash)
	}
	return parsed, nil
}

func hash2Addr(hs common.Hash) string {
	return strings.ToLower(common.BytesToAddress(hs[12:]).Hex())
}

// DecodeLogs reads a JSON array of logs as returned by eth_getLogs.
func DecodeLogs(data []byte) ([]types.Log, error) {
	var logs []types.Log
	if err := sonnet.Unmarshal(data, &logs); err != nil {
		return nil, fmt.Errorf("decode logs: %w", err)
	}
	return logs, nil
}

// DecodeBlockTimes reads a JSON object of block number to unix timestamp.
func DecodeBlockTimes(data []byte) (map[uint64]int64, error) {
	var raw map[string]int64
	if err := sonnet.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode block times: %w", err)
	}
	times := make(map[uint64]int64, len(raw))
	for k, v := range raw {
		block, err := strconv.ParseUint(k, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("decode block times: block %q: %w", k, err)
		}
		times[block] = v
	}
	return times, nil
}

// SwapEventsFromLogs turns the pool's Swap logs into swap events. Logs of other
// contracts or other topics are skipped, removed logs are dropped, and a swap
// whose block has no known timestamp is an error.
func SwapEventsFromLogs(pool *PoolConfig, logs []types.Log, blockTimes map[uint64]int64) ([]SwapEvent, error) {
	address := common.HexToAddress(pool.Address)
	events := make([]SwapEvent, 0, len(logs))
	for i := range logs {
		log := &logs[i]
		if log.Address != address || len(log.Topics) == 0 || log.Topics[0] != TOPIC_SWAP {
			continue
		}
		if log.Removed {
			logrus.Debugf("skip removed swap, tx: %s", log.TxHash)
			continue
		}
		swap, err := parseUniv3SwapEvent(log)
		if err != nil {
			logrus.Warnf("failed parse swap event, tx: %s  pool: %s err: %s", log.TxHash, log.Address, err)
			continue
		}
		ts, ok := blockTimes[log.BlockNumber]
		if !ok {
			return nil, fmt.Errorf("%w: no timestamp for block %d", ErrInvalidSwap, log.BlockNumber)
		}
		events = append(events, SwapEvent{
			Pool:           strings.ToLower(pool.Address),
			Timestamp:      ts,
			BlockNumber:    log.BlockNumber,
			LogIndex:       log.Index,
			TxHash:         log.TxHash.Hex(),
			SqrtPriceX96:   swap.SqrtPriceX96,
			Token0Decimals: pool.Token0Decimals,
			Token1Decimals: pool.Token1Decimals,
			FeeTier:        pool.Fee,
		})
	}
	return events, nil
}
