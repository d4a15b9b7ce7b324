package uniswap_v3_hedge

import (
	"math"
)

type MaxLoss struct {
	// MaxLoss is in percent of the opening value, negative for a loss.
	MaxLoss        float64 `json:"max_loss"`
	DeltaPriceUp   float64 `json:"delta_price_up"`
	DeltaPriceDown float64 `json:"delta_price_down"`
}

// ComputeMaxLoss prices a range of hysteresis spacings on each side of a
// reference tick and reports the loss when price runs to the upper bound,
// plus the price moves in percent that reach either bound.
// feePercent is the pool fee in percent, 0.3 for the 3000 tier.
func ComputeMaxLoss(hysteresis int, feePercent float64) MaxLoss {
	const tick = 100
	spacing := feePercent * 100 * 2
	price := PriceFromTick(tick)
	pa := math.Pow(TICK_BASE, tick-float64(hysteresis)*spacing)
	pb := math.Pow(TICK_BASE, tick+float64(hysteresis)*spacing)

	y := 100.0
	l := LiquidityForAmount1(y, price, pa)
	x, _ := AmountsForLiquidity(l, price, pa, pb)

	loss := (l*(math.Sqrt(pb)-math.Sqrt(price)) + l*(1/math.Sqrt(pb)-1/math.Sqrt(price))*pb) / (y + x*pb)
	return MaxLoss{
		MaxLoss:        loss * 100,
		DeltaPriceUp:   (pb/price - 1) * 100,
		DeltaPriceDown: (pa/price - 1) * 100,
	}
}
