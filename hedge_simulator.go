package uniswap_v3_hedge

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sugawarayuuta/sonnet"
)

type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

type HedgeSettings struct {
	// Hysteresis is the range half width in tick spacings.
	Hysteresis int     `json:"hysteresis" mapstructure:"hysteresis"`
	Slippage   float64 `json:"slippage" mapstructure:"slippage"`
	SwapFee    float64 `json:"swap_fee" mapstructure:"swap_fee"`
	// Capital is the token1 amount committed when the first range opens.
	Capital float64 `json:"capital" mapstructure:"capital"`
}

func (s HedgeSettings) Validate() error {
	if s.Hysteresis < 1 {
		return fmt.Errorf("%w: hysteresis %d must be >= 1", ErrInvalidSettings, s.Hysteresis)
	}
	if s.Slippage < 0 || s.SwapFee < 0 {
		return fmt.Errorf("%w: slippage %v swap fee %v", ErrInvalidSettings, s.Slippage, s.SwapFee)
	}
	if s.Capital < 0 {
		return fmt.Errorf("%w: capital %v", ErrInvalidSettings, s.Capital)
	}
	return nil
}

// Haircut is the fraction lost on every simulated swap.
func (s HedgeSettings) Haircut() float64 {
	return (s.SwapFee + s.Slippage) / 100
}

func (s HedgeSettings) capital() float64 {
	if s.Capital == 0 {
		return DEFAULT_CAPITAL
	}
	return s.Capital
}

type FeeBucket struct {
	Token0 float64 `json:"token0"`
	Token1 float64 `json:"token1"`
}

type RebalanceEvent struct {
	Timestamp int64         `json:"timestamp"`
	Price     float64       `json:"price"`
	Direction Direction     `json:"direction"`
	Position  PositionState `json:"position"`
}

type PnLPoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	PnL       float64 `json:"pnl"`
	APY       float64 `json:"apy"`
}

type PricePnL struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

type HedgeResult struct {
	RunId    string        `json:"run_id"`
	Settings HedgeSettings `json:"settings"`

	FeeBucket        FeeBucket `json:"fee_bucket"`
	SettlementBucket float64   `json:"settlement_bucket"`
	Inventory0       float64   `json:"inventory0"`

	PnLSeries       []PnLPoint       `json:"pnl_series"`
	PriceVsPnL      []PricePnL       `json:"price_vs_pnl"`
	RebalanceEvents []RebalanceEvent `json:"rebalance_events"`

	FinalPnL  float64 `json:"final_pnl"`
	YInitial  float64 `json:"y_initial"`
	XInitial  float64 `json:"x_initial"`
	YFinal    float64 `json:"y_final"`
	XFinal    float64 `json:"x_final"`
	APYHedged float64 `json:"apy_hedged"`

	Liquidity       float64       `json:"liquidity"`
	TickSpacing     int           `json:"tick_spacing"`
	InitialPosition PositionState `json:"initial_position"`
	FinalPosition   PositionState `json:"final_position"`
}

func (r *HedgeResult) Rebalances() int {
	return len(r.RebalanceEvents)
}

// finite maps NaN and ±Inf to nil, encoded as JSON null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (p PnLPoint) MarshalJSON() ([]byte, error) {
	return sonnet.Marshal(struct {
		Timestamp int64    `json:"timestamp"`
		Price     float64  `json:"price"`
		PnL       *float64 `json:"pnl"`
		APY       *float64 `json:"apy"`
	}{p.Timestamp, p.Price, finite(p.PnL), finite(p.APY)})
}

func (p PricePnL) MarshalJSON() ([]byte, error) {
	return sonnet.Marshal(struct {
		Price float64  `json:"price"`
		PnL   *float64 `json:"pnl"`
	}{p.Price, finite(p.PnL)})
}

func (r HedgeResult) MarshalJSON() ([]byte, error) {
	return sonnet.Marshal(struct {
		RunId            string           `json:"run_id"`
		Settings         HedgeSettings    `json:"settings"`
		FeeBucket        FeeBucket        `json:"fee_bucket"`
		SettlementBucket float64          `json:"settlement_bucket"`
		Inventory0       float64          `json:"inventory0"`
		PnLSeries        []PnLPoint       `json:"pnl_series"`
		PriceVsPnL       []PricePnL       `json:"price_vs_pnl"`
		RebalanceEvents  []RebalanceEvent `json:"rebalance_events"`
		FinalPnL         *float64         `json:"final_pnl"`
		YInitial         float64          `json:"y_initial"`
		XInitial         float64          `json:"x_initial"`
		YFinal           float64          `json:"y_final"`
		XFinal           float64          `json:"x_final"`
		APYHedged        *float64         `json:"apy_hedged"`
		Liquidity        float64          `json:"liquidity"`
		TickSpacing      int              `json:"tick_spacing"`
		InitialPosition  PositionState    `json:"initial_position"`
		FinalPosition    PositionState    `json:"final_position"`
	}{
		RunId:            r.RunId,
		Settings:         r.Settings,
		FeeBucket:        r.FeeBucket,
		SettlementBucket: r.SettlementBucket,
		Inventory0:       r.Inventory0,
		PnLSeries:        r.PnLSeries,
		PriceVsPnL:       r.PriceVsPnL,
		RebalanceEvents:  r.RebalanceEvents,
		FinalPnL:         finite(r.FinalPnL),
		YInitial:         r.YInitial,
		XInitial:         r.XInitial,
		YFinal:           r.YFinal,
		XFinal:           r.XFinal,
		APYHedged:        finite(r.APYHedged),
		Liquidity:        r.Liquidity,
		TickSpacing:      r.TickSpacing,
		InitialPosition:  r.InitialPosition,
		FinalPosition:    r.FinalPosition,
	})
}

type hedgeState struct {
	settings    HedgeSettings
	haircut     float64
	feeFraction float64
	liquidity   float64

	position  PositionState
	fees      FeeBucket
	bucket    float64
	inventory float64
	prevPrice float64

	firstPrice float64
	firstTime  int64

	result *HedgeResult
}

// SimulateHedge replays a range that follows the price: whenever the price
// leaves the range, the position is closed and reopened one half width further
// in the direction of the move. Events must be one pool, ascending in time.
func SimulateHedge(events []NormalizedEvent, settings HedgeSettings) (*HedgeResult, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	first := events[0]
	spacing := TickSpacingFromFee(first.FeeTier)
	position, err := OpenPosition(first.Price, settings.Hysteresis, spacing)
	if err != nil {
		return nil, fmt.Errorf("open position at %v: %w", first.Price, err)
	}

	liquidity := LiquidityForAmount1(settings.capital(), first.Price, position.LowerPrice)
	xInitial, yInitial := position.Amounts(liquidity, first.Price)

	st := &hedgeState{
		settings:    settings,
		haircut:     settings.Haircut(),
		feeFraction: FeeFraction(first.FeeTier),
		liquidity:   liquidity,
		position:    position,
		prevPrice:   first.Price,
		firstPrice:  first.Price,
		firstTime:   first.Timestamp,
		result: &HedgeResult{
			RunId:           uuid.NewString(),
			Settings:        settings,
			YInitial:        yInitial,
			XInitial:        xInitial,
			Liquidity:       liquidity,
			TickSpacing:     spacing,
			InitialPosition: position,
			PnLSeries:       make([]PnLPoint, 0, len(events)),
			PriceVsPnL:      make([]PricePnL, 0, len(events)),
			RebalanceEvents: []RebalanceEvent{},
		},
	}
	logrus.Debugf("open position %s liquidity %v x %v y %v", position, liquidity, xInitial, yInitial)

	st.record(first)
	for i := 1; i < len(events); i++ {
		st.step(events[i])
	}
	return st.finish(events[len(events)-1]), nil
}

func (st *hedgeState) step(e NormalizedEvent) {
	switch {
	case e.Price > st.position.UpperPrice:
		st.moveUp(e)
	case e.Price < st.position.LowerPrice:
		st.moveDown(e)
	default:
		st.accrueFees(e.Price)
	}
	st.prevPrice = e.Price
	st.record(e)
}

// accrueFees credits the one-sided fee of the move from prevPrice to price,
// both clamped to the range.
func (st *hedgeState) accrueFees(price float64) {
	p := st.position
	prev := clampPrice(st.prevPrice, p.LowerPrice, p.UpperPrice)
	curr := clampPrice(price, p.LowerPrice, p.UpperPrice)
	st.fees.Token1 += st.liquidity * math.Max(math.Sqrt(curr)-math.Sqrt(prev), 0) * st.feeFraction
	st.fees.Token0 += st.liquidity * math.Max(1/math.Sqrt(curr)-1/math.Sqrt(prev), 0) * st.feeFraction
}

func (st *hedgeState) moveUp(e NormalizedEvent) {
	x, y := st.position.Amounts(st.liquidity, e.Price)
	st.bucket += y + st.fees.Token1 + (x+st.fees.Token0)*e.Price*(1-st.haircut)
	st.fees = FeeBucket{}

	st.position = st.position.ShiftUp(e.Price)
	st.seed(e.Price, st.inventory)
	st.rebalanced(e, DirectionUp)
}

func (st *hedgeState) moveDown(e NormalizedEvent) {
	x, y := st.position.Amounts(st.liquidity, e.Price)
	available := st.inventory + x + st.fees.Token0
	st.bucket += y + st.fees.Token1
	st.fees = FeeBucket{}

	st.position = st.position.ShiftDown(e.Price)
	st.seed(e.Price, available)
	st.rebalanced(e, DirectionDown)
}

// seed funds the new range. Token0 comes from available first, a shortfall is
// bought with the settlement bucket and a surplus stays in inventory.
func (st *hedgeState) seed(price float64, available float64) {
	xNeed, yNeed := st.position.Amounts(st.liquidity, price)
	used := math.Min(available, xNeed)
	st.inventory = available - used
	if short := xNeed - used; short > 0 {
		st.bucket -= short * price * (1 + st.haircut)
	}
	st.bucket -= yNeed
}

func (st *hedgeState) rebalanced(e NormalizedEvent, direction Direction) {
	logrus.Debugf("move liquidity %s at %v block %d, new range %s", direction, e.Price, e.BlockNumber, st.position)
	st.result.RebalanceEvents = append(st.result.RebalanceEvents, RebalanceEvent{
		Timestamp: e.Timestamp,
		Price:     e.Price,
		Direction: direction,
		Position:  st.position,
	})
}

func (st *hedgeState) holdings(price float64) (x, y float64) {
	posX, posY := st.position.Amounts(st.liquidity, price)
	return posX + st.fees.Token0 + st.inventory, posY + st.fees.Token1 + st.bucket
}

// pnl values the token0 delta at price, sold with the haircut when long and
// bought with it when short.
func (st *hedgeState) pnl(price float64) float64 {
	x, y := st.holdings(price)
	dx := x - st.result.XInitial
	var valued float64
	if dx > 0 {
		valued = dx * price * (1 - st.haircut)
	} else {
		valued = dx * price * (1 + st.haircut)
	}
	return y - st.result.YInitial + valued
}

func (st *hedgeState) record(e NormalizedEvent) {
	pnl := st.pnl(e.Price)
	apy := AnnualizedReturn(pnl, st.result.YInitial+st.result.XInitial*st.firstPrice, e.Timestamp-st.firstTime)
	st.result.PnLSeries = append(st.result.PnLSeries, PnLPoint{
		Timestamp: e.Timestamp,
		Price:     e.Price,
		PnL:       pnl,
		APY:       apy,
	})
	st.result.PriceVsPnL = append(st.result.PriceVsPnL, PricePnL{Price: e.Price, PnL: pnl})
}

func (st *hedgeState) finish(last NormalizedEvent) *HedgeResult {
	r := st.result
	r.XFinal, r.YFinal = st.holdings(last.Price)
	r.FeeBucket = st.fees
	r.SettlementBucket = st.bucket
	r.Inventory0 = st.inventory
	r.FinalPosition = st.position

	final := r.PnLSeries[len(r.PnLSeries)-1]
	r.FinalPnL = final.PnL
	r.APYHedged = final.APY
	return r
}

// AnnualizedReturn turns pnl over elapsedSeconds into a yearly percentage of
// capital. With no elapsed time it is 0 for a zero pnl and an infinity
// signed like pnl otherwise.
func AnnualizedReturn(pnl, capital float64, elapsedSeconds int64) float64 {
	if elapsedSeconds == 0 {
		if pnl == 0 {
			return 0
		}
		if math.IsNaN(pnl) {
			return pnl
		}
		if pnl > 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return pnl / capital / float64(elapsedSeconds) * float64(SECONDS_PER_YEAR) * 100
}
