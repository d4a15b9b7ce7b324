package uniswap_v3_hedge

import (
	"fmt"
	"math"

	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/google/uuid"
)

type FeeAmount = constants.FeeAmount

const (
	FeeAmountLow    = constants.FeeLow
	FeeAmountMedium = constants.FeeMedium
	FeeAmountHigh   = constants.FeeHigh
)

// FeeFraction converts a fee tier in hundredths of a bip to a plain fraction (3000 -> 0.003).
func FeeFraction(fee FeeAmount) float64 {
	return float64(fee) / 10000 / 100
}

// pool config
type PoolConfig struct {
	Id             string
	Address        string
	Token0         string
	Token1         string
	Token0Decimals uint8
	Token1Decimals uint8
	Fee            FeeAmount
}

func NewPoolConfig(
	address string,
	token0 string,
	token1 string,
	token0Decimals uint8,
	token1Decimals uint8,
	fee FeeAmount,
) (*PoolConfig, error) {
	if fee == 0 {
		return nil, fmt.Errorf("%w: pool %s has no fee tier", ErrInvalidSettings, address)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return &PoolConfig{
		Id:             id.String(),
		Address:        address,
		Token0:         token0,
		Token1:         token1,
		Token0Decimals: token0Decimals,
		Token1Decimals: token1Decimals,
		Fee:            fee,
	}, nil
}

// TickSpacing is the spacing the hedge strategy steps its range by.
// It follows fee*2*10000 rather than the factory table, so any fee tier works.
func (c *PoolConfig) TickSpacing() int {
	return TickSpacingFromFee(c.Fee)
}

// NativeTickSpacing is the spacing enabled by the factory for the fee tier, 0 if unknown.
func (c *PoolConfig) NativeTickSpacing() int {
	return constants.TickSpacings[c.Fee]
}

func (c *PoolConfig) DecimalsDiff() int {
	return int(math.Abs(float64(c.Token0Decimals) - float64(c.Token1Decimals)))
}
