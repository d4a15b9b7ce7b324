package uniswap_v3_hedge

import (
	"fmt"
	"math"
)

func PriceFromTick(tick int) float64 {
	return math.Pow(TICK_BASE, float64(tick))
}

func TickSpacingFromFee(fee FeeAmount) int {
	return int(math.Round(FeeFraction(fee) * 2 * 10000))
}

// ClosestTick returns the multiple of tickSpacing whose price is within
// tickSpacing/20000 relative distance of price. The candidates are the same a
// linear ascending scan over [-bound, bound] would visit; only the neighbourhood
// of the logarithmic estimate is tested.
func ClosestTick(price float64, tickSpacing int) (int, error) {
	if tickSpacing <= 0 {
		return 0, fmt.Errorf("%w: tick spacing %d", ErrInvalidSettings, tickSpacing)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("%w: price %v", ErrTickNotFound, price)
	}
	tolerance := float64(tickSpacing) / 20000
	estimate := int(math.Round(math.Log(price) / math.Log(TICK_BASE) / float64(tickSpacing)))
	for i := estimate - 1; i <= estimate+1; i++ {
		if i < -CLOSEST_TICK_SEARCH_BOUND || i > CLOSEST_TICK_SEARCH_BOUND {
			continue
		}
		tick := i * tickSpacing
		if math.Abs(PriceFromTick(tick)-price)/price <= tolerance {
			return tick, nil
		}
	}
	return 0, fmt.Errorf("%w: price %v spacing %d", ErrTickNotFound, price, tickSpacing)
}
