package uniswap_v3_hedge

import (
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BandPosition is four price levels around the opening price. The outer pair
// triggers a shift, the inner pair is where the liquidity sits.
type BandPosition struct {
	LowerPrice       float64 `json:"lower_price"`
	MediumLowerPrice float64 `json:"medium_lower_price"`
	MediumUpperPrice float64 `json:"medium_upper_price"`
	UpperPrice       float64 `json:"upper_price"`
}

// NewBandPosition places bands at ±0.5 and ±1.5 hysteresis percent of price.
func NewBandPosition(price float64, hysteresisPercent float64) BandPosition {
	return BandPosition{
		LowerPrice:       price * (1 - 1.5*hysteresisPercent/100),
		MediumLowerPrice: price * (1 - 0.5*hysteresisPercent/100),
		MediumUpperPrice: price * (1 + 0.5*hysteresisPercent/100),
		UpperPrice:       price * (1 + 1.5*hysteresisPercent/100),
	}
}

func (b BandPosition) shiftUp(hysteresisPercent float64) BandPosition {
	return BandPosition{
		LowerPrice:       b.MediumLowerPrice,
		MediumLowerPrice: b.MediumUpperPrice,
		MediumUpperPrice: b.UpperPrice,
		UpperPrice:       b.UpperPrice * (1 + hysteresisPercent/100),
	}
}

func (b BandPosition) shiftDown(hysteresisPercent float64) BandPosition {
	return BandPosition{
		LowerPrice:       b.LowerPrice * (1 - hysteresisPercent/100),
		MediumLowerPrice: b.LowerPrice,
		MediumUpperPrice: b.MediumLowerPrice,
		UpperPrice:       b.MediumUpperPrice,
	}
}

// BandSettings uses a hysteresis in percent of price, unlike HedgeSettings.
type BandSettings struct {
	Hysteresis float64 `json:"hysteresis"`
	Slippage   float64 `json:"slippage"`
	SwapFee    float64 `json:"swap_fee"`
}

func (s BandSettings) haircut() float64 {
	return (s.SwapFee + s.Slippage) / 100
}

type BandResult struct {
	RunId string `json:"run_id"`

	DeltaYSqrtPrice float64 `json:"delta_y_sqrt_price"`
	DeltaXSqrtPrice float64 `json:"delta_x_sqrt_price"`
	FeeY            float64 `json:"fee_y"`
	FeeX            float64 `json:"fee_x"`
	DeltaXSigned    float64 `json:"delta_x_signed"`
	DeltaYSigned    float64 `json:"delta_y_signed"`

	DeltaX float64 `json:"delta_x"`
	DeltaY float64 `json:"delta_y"`
	PnL    float64 `json:"pnl"`

	Shifts          []BandShift  `json:"shifts"`
	InitialPosition BandPosition `json:"initial_position"`
	FinalPosition   BandPosition `json:"final_position"`
}

type BandShift struct {
	Timestamp int64     `json:"timestamp"`
	Direction Direction `json:"direction"`
}

// SimulateBands runs the band model over events. The first event opens the
// bands and the last one only prices the result, so steps are taken for
// events 1..n-2 against their predecessor.
func SimulateBands(events []NormalizedEvent, settings BandSettings) (*BandResult, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	first := events[0]
	last := events[len(events)-1]
	c := settings.haircut()
	position := NewBandPosition(first.Price, settings.Hysteresis)
	r := &BandResult{
		RunId:           uuid.NewString(),
		Shifts:          []BandShift{},
		InitialPosition: position,
	}

	for i := 1; i < len(events)-1; i++ {
		curr, prev := events[i], events[i-1]
		fee := FeeFraction(curr.FeeTier)

		dy := math.Sqrt(curr.Price) - math.Sqrt(prev.Price)
		dx := 1/math.Sqrt(curr.Price) - 1/math.Sqrt(prev.Price)
		r.DeltaYSqrtPrice += dy
		r.DeltaXSqrtPrice += dx
		r.FeeY += math.Max(dy, 0) * fee
		r.FeeX += math.Max(dx, 0) * fee

		switch {
		case curr.Price > position.UpperPrice:
			signedY := math.Sqrt(position.LowerPrice) - math.Sqrt(position.MediumLowerPrice) -
				(math.Sqrt(curr.Price) - math.Sqrt(position.UpperPrice))
			signedX := -signedY / (curr.Price * (1 + c))
			r.DeltaYSigned += signedY
			r.DeltaXSigned += signedX
			position = position.shiftUp(settings.Hysteresis)
			r.Shifts = append(r.Shifts, BandShift{Timestamp: curr.Timestamp, Direction: DirectionUp})
			logrus.Debugf("band up at %v dx %v dy %v", curr.Price, signedX, signedY)
		case curr.Price < position.LowerPrice:
			signedX := 1/math.Sqrt(position.UpperPrice) - 1/math.Sqrt(position.MediumUpperPrice) -
				(1/math.Sqrt(curr.Price) - 1/math.Sqrt(position.LowerPrice))
			signedY := -signedX * curr.Price * (1 - c)
			r.DeltaYSigned += signedY
			r.DeltaXSigned += signedX
			position = position.shiftDown(settings.Hysteresis)
			r.Shifts = append(r.Shifts, BandShift{Timestamp: curr.Timestamp, Direction: DirectionDown})
			logrus.Debugf("band down at %v dx %v dy %v", curr.Price, signedX, signedY)
		}
	}

	r.DeltaX = r.FeeX + r.DeltaXSqrtPrice + r.DeltaXSigned
	r.DeltaY = r.FeeY + r.DeltaYSqrtPrice + r.DeltaYSigned
	r.PnL = (r.DeltaY + r.DeltaX*last.Price*(1-c)) * 1000
	r.FinalPosition = position
	return r, nil
}
