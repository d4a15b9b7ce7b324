package uniswap_v3_hedge

import "math"

func clampPrice(price, lower, upper float64) float64 {
	if price < lower {
		return lower
	}
	if price > upper {
		return upper
	}
	return price
}

// AmountsForLiquidity returns the token0 (x) and token1 (y) amounts held by
// liquidity over [lower, upper] at price.
func AmountsForLiquidity(liquidity, price, lower, upper float64) (amount0, amount1 float64) {
	p := clampPrice(price, lower, upper)
	amount0 = liquidity * (1/math.Sqrt(p) - 1/math.Sqrt(upper))
	amount1 = liquidity * (math.Sqrt(p) - math.Sqrt(lower))
	return
}

// LiquidityForAmount1 sizes the liquidity of a range so that it holds amount1 of token1 at price.
func LiquidityForAmount1(amount1, price, lower float64) float64 {
	return amount1 / (math.Sqrt(price) - math.Sqrt(lower))
}
