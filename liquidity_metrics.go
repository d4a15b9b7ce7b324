package uniswap_v3_hedge

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

type Checkpoint struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Metrics is the outcome of one pass of the liquidity delta accumulator.
//
// The plain sums track |Δp| and |Δ√p| for the price, the sums suffixed
// PriceInverse do the same on the inverse price, and the FeeWeighted sums are
// the √-deltas multiplied by the pool fee fraction.
type Metrics struct {
	PriceDeltaSum        float64 `json:"price_delta_sum"`
	PriceDeltaSumInverse float64 `json:"price_delta_sum_inverse"`

	SqrtDeltaSum                 float64 `json:"sqrt_delta_sum"`
	SqrtDeltaSumInverse          float64 `json:"sqrt_delta_sum_inverse"`
	SqrtDeltaPriceInverse        float64 `json:"sqrt_delta_price_inverse"`
	SqrtDeltaInversePriceInverse float64 `json:"sqrt_delta_inverse_price_inverse"`

	FeeWeightedSqrtDelta                    float64 `json:"fee_weighted_sqrt_delta"`
	FeeWeightedSqrtDeltaInverse             float64 `json:"fee_weighted_sqrt_delta_inverse"`
	FeeWeightedSqrtDeltaPriceInverse        float64 `json:"fee_weighted_sqrt_delta_price_inverse"`
	FeeWeightedSqrtDeltaInversePriceInverse float64 `json:"fee_weighted_sqrt_delta_inverse_price_inverse"`

	FeeTier FeeAmount `json:"fee_tier"`

	// LastProcessedIndex is the index of the last present slot.
	LastProcessedIndex int `json:"last_processed_index"`
	Processed          int `json:"processed"`
	Total              int `json:"total"`

	// Checkpoints has one entry per slot, nil where no delta was taken.
	Checkpoints []*Checkpoint `json:"checkpoints"`
}

type accumulatorState struct {
	m Metrics

	feeFraction float64
	feeKnown    bool

	hasReference     bool
	priceBeforeGap   float64
	inverseBeforeGap float64
}

// ComputeMetrics walks the slots left to right. Gaps never reset the sums: the
// next present event is measured against the last present one.
func ComputeMetrics(slots []*NormalizedEvent) Metrics {
	st := &accumulatorState{}
	st.m.Total = len(slots)
	st.m.Checkpoints = make([]*Checkpoint, 0, len(slots))
	for i := range slots {
		st.step(slots, i)
	}
	return st.m
}

func (st *accumulatorState) step(slots []*NormalizedEvent, index int) {
	curr := slots[index]
	if curr == nil {
		logrus.Debugf("skip slot %d: discarded block", index)
		st.m.Checkpoints = append(st.m.Checkpoints, nil)
		return
	}

	st.m.LastProcessedIndex = index
	st.m.Processed++
	st.readFee(curr)

	switch {
	case index == 0:
		st.arm(curr)
	case slots[index-1] == nil && !st.hasReference:
		logrus.Debugf("skip slot %d: previous slot missing, reference set at %v", index, curr.Price)
		st.arm(curr)
	case slots[index-1] == nil:
		logrus.Debugf("slot %d bridges gap from %v to %v", index, st.priceBeforeGap, curr.Price)
		st.add(curr, st.priceBeforeGap, st.inverseBeforeGap)
	default:
		prev := slots[index-1]
		st.add(curr, prev.Price, prev.PriceInverse)
	}
}

func (st *accumulatorState) arm(e *NormalizedEvent) {
	st.hasReference = true
	st.priceBeforeGap = e.Price
	st.inverseBeforeGap = e.PriceInverse
	st.m.Checkpoints = append(st.m.Checkpoints, nil)
}

// readFee takes the fee tier of the first present event; the sequence is one pool.
func (st *accumulatorState) readFee(e *NormalizedEvent) {
	if !st.feeKnown {
		st.feeKnown = true
		st.m.FeeTier = e.FeeTier
		st.feeFraction = FeeFraction(e.FeeTier)
		return
	}
	if e.FeeTier != st.m.FeeTier {
		logrus.Warnf("fee tier %d at block %d differs from %d, events of several pools mixed", e.FeeTier, e.BlockNumber, st.m.FeeTier)
	}
}

func (st *accumulatorState) add(e *NormalizedEvent, refPrice, refInverse float64) {
	sqrtDelta := math.Abs(math.Sqrt(e.Price) - math.Sqrt(refPrice))
	sqrtDeltaInverse := math.Abs(1/math.Sqrt(e.Price) - 1/math.Sqrt(refPrice))
	sqrtDeltaPriceInverse := math.Abs(math.Sqrt(e.PriceInverse) - math.Sqrt(refInverse))
	sqrtDeltaInversePriceInverse := math.Abs(1/math.Sqrt(e.PriceInverse) - 1/math.Sqrt(refInverse))

	m := &st.m
	m.PriceDeltaSum += math.Abs(e.Price - refPrice)
	m.PriceDeltaSumInverse += math.Abs(e.PriceInverse - refInverse)
	m.SqrtDeltaSum += sqrtDelta
	m.SqrtDeltaSumInverse += sqrtDeltaInverse
	m.SqrtDeltaPriceInverse += sqrtDeltaPriceInverse
	m.SqrtDeltaInversePriceInverse += sqrtDeltaInversePriceInverse

	m.FeeWeightedSqrtDelta += sqrtDelta * st.feeFraction
	m.FeeWeightedSqrtDeltaInverse += sqrtDeltaInverse * st.feeFraction
	m.FeeWeightedSqrtDeltaPriceInverse += sqrtDeltaPriceInverse * st.feeFraction
	m.FeeWeightedSqrtDeltaInversePriceInverse += sqrtDeltaInversePriceInverse * st.feeFraction

	st.priceBeforeGap = e.Price
	st.inverseBeforeGap = e.PriceInverse

	m.Checkpoints = append(m.Checkpoints, &Checkpoint{
		Value: m.PriceDeltaSum,
		Label: e.Time().Format(time.RFC3339),
	})
}
