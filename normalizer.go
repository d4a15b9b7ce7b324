package uniswap_v3_hedge

import (
	"fmt"
	"math"
	"time"
)

// NormalizedEvent is a swap reduced to its decimal adjusted prices.
type NormalizedEvent struct {
	Timestamp    int64
	BlockNumber  uint64
	FeeTier      FeeAmount
	Tick         int
	Price        float64
	PriceInverse float64
}

func (e NormalizedEvent) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// NormalizeEvent computes price = 10^dd / s^2 and priceInverse = s^2 / 10^dd with
// s = sqrtPriceX96/2^96 and dd the absolute decimals difference, both truncated to
// PRICE_DECIMALS decimals.
func NormalizeEvent(e SwapEvent) (NormalizedEvent, error) {
	if e.SqrtPriceX96 == nil || e.SqrtPriceX96.IsZero() {
		return NormalizedEvent{}, fmt.Errorf("%w: block %d has no sqrt price", ErrInvalidSwap, e.BlockNumber)
	}
	tick, err := TickAtSqrtRatio(e.SqrtPriceX96)
	if err != nil {
		return NormalizedEvent{}, fmt.Errorf("%w: block %d: %s", ErrInvalidSwap, e.BlockNumber, err)
	}
	decimalsDiff := math.Abs(float64(e.Token0Decimals) - float64(e.Token1Decimals))
	ratio := SqrtRatioX962Price(e.SqrtPriceX96)
	return NormalizedEvent{
		Timestamp:    e.Timestamp,
		BlockNumber:  e.BlockNumber,
		FeeTier:      e.FeeTier,
		Tick:         tick,
		Price:        truncatePrice(1 / ratio * math.Pow(10, decimalsDiff)),
		PriceInverse: truncatePrice(ratio * math.Pow(10, -decimalsDiff)),
	}, nil
}

func NormalizeEvents(events []SwapEvent) ([]NormalizedEvent, error) {
	normalized := make([]NormalizedEvent, 0, len(events))
	for i, e := range events {
		n, err := NormalizeEvent(e)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		normalized = append(normalized, n)
	}
	return normalized, nil
}
