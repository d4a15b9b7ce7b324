package uniswap_v3_hedge

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/sugawarayuuta/sonnet"
)

// SwapEvent is one on-chain swap of a single pool, already parsed into typed fields.
type SwapEvent struct {
	Pool           string
	Timestamp      int64
	BlockNumber    uint64
	LogIndex       uint
	TxHash         string
	SqrtPriceX96   *uint256.Int
	Token0Decimals uint8
	Token1Decimals uint8
	FeeTier        FeeAmount
}

type SubgraphToken struct {
	Id       string `json:"id"`
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
}

type SubgraphPool struct {
	Id        string        `json:"id"`
	FeeTier   string        `json:"feeTier"`
	SqrtPrice string        `json:"sqrtPrice"`
	Token0    SubgraphToken `json:"token0"`
	Token1    SubgraphToken `json:"token1"`
}

type SubgraphTransaction struct {
	Id          string `json:"id"`
	BlockNumber string `json:"blockNumber"`
}

type SubgraphHistoricalPool struct {
	SqrtPrice string `json:"sqrtPrice"`
}

// SubgraphSwap mirrors a `swaps` entity returned by the Uniswap V3 subgraph.
// Every numeric field arrives as a string.
type SubgraphSwap struct {
	Timestamp          string                 `json:"timestamp"`
	Amount0            string                 `json:"amount0"`
	Amount1            string                 `json:"amount1"`
	AmountUSD          string                 `json:"amountUSD"`
	SqrtPriceX96       string                 `json:"sqrtPriceX96"`
	LogIndex           string                 `json:"logIndex"`
	Pool               SubgraphPool           `json:"pool"`
	Transaction        SubgraphTransaction    `json:"transaction"`
	HistoricalPoolData SubgraphHistoricalPool `json:"historicalPoolData"`
}

type subgraphResponse struct {
	Data struct {
		Swaps []SubgraphSwap `json:"swaps"`
	} `json:"data"`
}

// DecodeSubgraphSwaps accepts either a raw GraphQL response or a bare array of swaps.
func DecodeSubgraphSwaps(data []byte) ([]SubgraphSwap, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var swaps []SubgraphSwap
		if err := sonnet.Unmarshal(trimmed, &swaps); err != nil {
			return nil, fmt.Errorf("decode swaps: %w", err)
		}
		return swaps, nil
	}
	var resp subgraphResponse
	if err := sonnet.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("decode swaps response: %w", err)
	}
	return resp.Data.Swaps, nil
}

// ToSwapEvent parses the stringly subgraph fields. The historical pool sqrt
// price wins over the swap's own sqrtPriceX96 when both are present.
func (s SubgraphSwap) ToSwapEvent() (SwapEvent, error) {
	ts, err := strconv.ParseInt(s.Timestamp, 10, 64)
	if err != nil {
		return SwapEvent{}, fmt.Errorf("%w: timestamp %q", ErrInvalidSwap, s.Timestamp)
	}
	block, err := strconv.ParseUint(s.Transaction.BlockNumber, 10, 64)
	if err != nil {
		return SwapEvent{}, fmt.Errorf("%w: block number %q", ErrInvalidSwap, s.Transaction.BlockNumber)
	}
	fee, err := strconv.ParseUint(s.Pool.FeeTier, 10, 32)
	if err != nil {
		return SwapEvent{}, fmt.Errorf("%w: fee tier %q", ErrInvalidSwap, s.Pool.FeeTier)
	}
	d0, err := parseDecimals(s.Pool.Token0.Decimals)
	if err != nil {
		return SwapEvent{}, err
	}
	d1, err := parseDecimals(s.Pool.Token1.Decimals)
	if err != nil {
		return SwapEvent{}, err
	}
	raw := s.HistoricalPoolData.SqrtPrice
	if raw == "" {
		raw = s.SqrtPriceX96
	}
	sqrtPrice, err := ParseSqrtPriceX96(raw)
	if err != nil {
		return SwapEvent{}, err
	}
	var logIndex uint64
	if s.LogIndex != "" {
		if logIndex, err = strconv.ParseUint(s.LogIndex, 10, 32); err != nil {
			return SwapEvent{}, fmt.Errorf("%w: log index %q", ErrInvalidSwap, s.LogIndex)
		}
	}
	return SwapEvent{
		Pool:           strings.ToLower(s.Pool.Id),
		Timestamp:      ts,
		BlockNumber:    block,
		LogIndex:       uint(logIndex),
		TxHash:         s.Transaction.Id,
		SqrtPriceX96:   sqrtPrice,
		Token0Decimals: d0,
		Token1Decimals: d1,
		FeeTier:        FeeAmount(fee),
	}, nil
}

// ParseSqrtPriceX96 parses a base-10 uint160.
func ParseSqrtPriceX96(raw string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: sqrt price %q: %s", ErrInvalidSwap, raw, err)
	}
	if v.IsZero() || v.BitLen() > 160 {
		return nil, fmt.Errorf("%w: sqrt price %q out of range", ErrInvalidSwap, raw)
	}
	return v, nil
}

func parseDecimals(raw string) (uint8, error) {
	d, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: token decimals %q", ErrInvalidSwap, raw)
	}
	return uint8(d), nil
}

// ToSwapEvents converts a whole page, stopping at the first malformed record.
// A swap without logIndex gets its position among the page's swaps of the same
// block, so several swaps of one block stay distinct.
func ToSwapEvents(swaps []SubgraphSwap) ([]SwapEvent, error) {
	events := make([]SwapEvent, 0, len(swaps))
	inBlock := make(map[uint64]uint)
	for i, s := range swaps {
		e, err := s.ToSwapEvent()
		if err != nil {
			return nil, fmt.Errorf("swap %d (tx %s): %w", i, s.Transaction.Id, err)
		}
		if s.LogIndex == "" {
			e.LogIndex = inBlock[e.BlockNumber]
		}
		inBlock[e.BlockNumber]++
		events = append(events, e)
	}
	return events, nil
}
