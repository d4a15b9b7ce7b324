package uniswap_v3_hedge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/sync/errgroup"
)

type Scenario struct {
	Name       string `json:"name" mapstructure:"name"`
	Hysteresis int    `json:"hysteresis" mapstructure:"hysteresis"`
}

type RollingSettings struct {
	WindowLength time.Duration
	RollingTime  time.Duration
	Scenarios    []Scenario
	Slippage     float64
	SwapFee      float64
	Capital      float64
}

func (s RollingSettings) Validate() error {
	if s.WindowLength <= 0 || s.RollingTime <= 0 {
		return fmt.Errorf("%w: window length %s rolling time %s", ErrInvalidSettings, s.WindowLength, s.RollingTime)
	}
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("%w: no scenarios", ErrInvalidSettings)
	}
	for _, sc := range s.Scenarios {
		if sc.Hysteresis < 1 {
			return fmt.Errorf("%w: scenario %q hysteresis %d", ErrInvalidSettings, sc.Name, sc.Hysteresis)
		}
	}
	return nil
}

type WindowResult struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Hysteresis int       `json:"hysteresis"`
	PnL        float64   `json:"pnl"`
	APY        float64   `json:"apy"`
	Rebalances int       `json:"rebalances"`
}

func (w WindowResult) MarshalJSON() ([]byte, error) {
	return sonnet.Marshal(struct {
		Start      time.Time `json:"start"`
		End        time.Time `json:"end"`
		Hysteresis int       `json:"hysteresis"`
		PnL        *float64  `json:"pnl"`
		APY        *float64  `json:"apy"`
		Rebalances int       `json:"rebalances"`
	}{w.Start, w.End, w.Hysteresis, finite(w.PnL), finite(w.APY), w.Rebalances})
}

type ScenarioResult struct {
	Scenario Scenario       `json:"scenario"`
	Windows  []WindowResult `json:"windows"`
}

type window struct {
	start, end time.Time
	from, to   int
}

// windows slices events into [start, start+length) windows, one started every
// step while the start is before the last event. Windows with fewer than two
// events are dropped.
func windows(events []NormalizedEvent, length, step time.Duration) []window {
	first := events[0].Time()
	last := events[len(events)-1].Time()
	var out []window
	for start := first; start.Before(last); start = start.Add(step) {
		end := start.Add(length)
		from := sort.Search(len(events), func(i int) bool { return !events[i].Time().Before(start) })
		to := sort.Search(len(events), func(i int) bool { return !events[i].Time().Before(end) })
		if to-from < 2 {
			logrus.Debugf("skip window %s - %s with %d events", start, end, to-from)
			continue
		}
		out = append(out, window{start: start, end: end, from: from, to: to})
	}
	return out
}

// RollingWindow runs SimulateHedge for each scenario over rolling windows of
// events. Scenarios run concurrently; results keep the scenario order.
func RollingWindow(ctx context.Context, events []NormalizedEvent, settings RollingSettings, metrics *RunnerMetrics) ([]ScenarioResult, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	ws := windows(events, settings.WindowLength, settings.RollingTime)
	results := make([]ScenarioResult, len(settings.Scenarios))

	g, gCtx := errgroup.WithContext(ctx)
	for i, sc := range settings.Scenarios {
		i, sc := i, sc
		g.Go(func() error {
			hedge := HedgeSettings{
				Hysteresis: sc.Hysteresis,
				Slippage:   settings.Slippage,
				SwapFee:    settings.SwapFee,
				Capital:    settings.Capital,
			}
			out := ScenarioResult{Scenario: sc, Windows: make([]WindowResult, 0, len(ws))}
			for _, w := range ws {
				if err := gCtx.Err(); err != nil {
					return err
				}
				var r *HedgeResult
				err := metrics.Measure("rolling", func() error {
					var err error
					r, err = SimulateHedge(events[w.from:w.to], hedge)
					return err
				})
				if err != nil {
					return fmt.Errorf("scenario %q window %s: %w", sc.Name, w.start.Format(time.RFC3339), err)
				}
				metrics.ObserveHedge(r)
				out.Windows = append(out.Windows, WindowResult{
					Start:      w.start,
					End:        w.end,
					Hysteresis: sc.Hysteresis,
					PnL:        r.FinalPnL,
					APY:        r.APYHedged,
					Rebalances: r.Rebalances(),
				})
			}
			results[i] = out
			logrus.Debugf("scenario %q done, %d windows", sc.Name, len(out.Windows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
