package uniswap_v3_hedge

import (
	"math"
	"math/big"

	"github.com/daoleno/uniswapv3-sdk/utils"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// SqrtRatioX962Float returns sqrtPriceX96 / 2^96. The integer is rounded to the
// nearest float64 first; dividing by a power of two is then exact.
func SqrtRatioX962Float(sqrtPriceX96 *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(sqrtPriceX96.ToBig()).Float64()
	return f / Q96Float
}

// SqrtRatioX962Price returns the raw pool ratio token1/token0, not decimal adjusted.
func SqrtRatioX962Price(sqrtPriceX96 *uint256.Int) float64 {
	s := SqrtRatioX962Float(sqrtPriceX96)
	return s * s
}

// PriceToSqrtRatioX96 encodes a raw ratio token1/token0 as sqrtPriceX96.
func PriceToSqrtRatioX96(price float64) (*uint256.Int, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, ErrInvalidSwap
	}
	sqrt := decimal.NewFromFloat(math.Sqrt(price)).Mul(Q96).Floor()
	if sqrt.GreaterThan(MaxUint160) {
		return nil, ErrInvalidSwap
	}
	v, overflow := uint256.FromBig(sqrt.BigInt())
	if overflow {
		return nil, ErrInvalidSwap
	}
	return v, nil
}

// SqrtRatioAtTick is the exact on-chain sqrt ratio for a tick.
func SqrtRatioAtTick(tick int) (*uint256.Int, error) {
	r, err := utils.GetSqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}
	v, _ := uint256.FromBig(r)
	return v, nil
}

// TickAtSqrtRatio is the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func TickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int, error) {
	return utils.GetTickAtSqrtRatio(sqrtPriceX96.ToBig())
}

func truncatePrice(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Truncate(PRICE_DECIMALS).InexactFloat64()
}
