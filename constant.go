package uniswap_v3_hedge

import (
	"errors"
	"math"

	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/shopspring/decimal"
)

var (
	Q96      = decimal.NewFromBigInt(constants.Q96, 0)
	Q96Float = math.Pow(2, 96)

	MaxUint160 = decimal.NewFromInt(2).Pow(decimal.NewFromInt(160)).Sub(decimal.NewFromInt(1))

	MIN_TICK int = -887272
	MAX_TICK int = -MIN_TICK

	// ClosestTick scans spacing multiples in [-bound, bound].
	CLOSEST_TICK_SEARCH_BOUND = 500000

	TICK_BASE = 1.0001

	// price precision kept after normalization
	PRICE_DECIMALS int32 = 12

	SECONDS_PER_YEAR = 365 * 24 * 60 * 60

	DEFAULT_CAPITAL = 100.0
)

var (
	ErrNoEvents        = errors.New("no events")
	ErrTickNotFound    = errors.New("tick not found")
	ErrInvalidSwap     = errors.New("invalid swap")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrTopicMismatch   = errors.New("topic mismatch")
)
