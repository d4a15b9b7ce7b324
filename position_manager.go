package uniswap_v3_hedge

import (
	"fmt"
)

// PositionState is the active range of the hedge strategy. It is a value: a
// range shift builds a new PositionState and never edits the old one.
type PositionState struct {
	LowerTick  int `json:"lower_tick"`
	CenterTick int `json:"center_tick"`
	UpperTick  int `json:"upper_tick"`

	LowerPrice  float64 `json:"lower_price"`
	CenterPrice float64 `json:"center_price"`
	UpperPrice  float64 `json:"upper_price"`

	// StatePrice is the swap price the range was opened at.
	StatePrice float64 `json:"state_price"`
}

// NewPositionState opens a range of halfWidth ticks on each side of centerTick.
func NewPositionState(centerTick int, halfWidth int, statePrice float64) PositionState {
	return PositionState{
		LowerTick:   centerTick - halfWidth,
		CenterTick:  centerTick,
		UpperTick:   centerTick + halfWidth,
		LowerPrice:  PriceFromTick(centerTick - halfWidth),
		CenterPrice: PriceFromTick(centerTick),
		UpperPrice:  PriceFromTick(centerTick + halfWidth),
		StatePrice:  statePrice,
	}
}

// OpenPosition centers a range on the spacing aligned tick closest to price.
func OpenPosition(price float64, hysteresis int, tickSpacing int) (PositionState, error) {
	if hysteresis < 1 {
		return PositionState{}, fmt.Errorf("%w: hysteresis %d", ErrInvalidSettings, hysteresis)
	}
	center, err := ClosestTick(price, tickSpacing)
	if err != nil {
		return PositionState{}, err
	}
	return NewPositionState(center, hysteresis*tickSpacing, price), nil
}

func (p PositionState) HalfWidth() int {
	return p.UpperTick - p.CenterTick
}

// ShiftUp moves the range one half width up: the old center becomes the lower bound.
func (p PositionState) ShiftUp(price float64) PositionState {
	return NewPositionState(p.UpperTick, p.HalfWidth(), price)
}

// ShiftDown moves the range one half width down: the old center becomes the upper bound.
func (p PositionState) ShiftDown(price float64) PositionState {
	return NewPositionState(p.LowerTick, p.HalfWidth(), price)
}

// Contains reports whether price is inside the range, bounds included.
func (p PositionState) Contains(price float64) bool {
	return price >= p.LowerPrice && price <= p.UpperPrice
}

// Amounts returns the token0 and token1 held by liquidity in the range at price.
func (p PositionState) Amounts(liquidity, price float64) (amount0, amount1 float64) {
	return AmountsForLiquidity(liquidity, price, p.LowerPrice, p.UpperPrice)
}

func (p PositionState) String() string {
	return fmt.Sprintf("[%d %d %d] [%v %v %v]", p.LowerTick, p.CenterTick, p.UpperTick, p.LowerPrice, p.CenterPrice, p.UpperPrice)
}
