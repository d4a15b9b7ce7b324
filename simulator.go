package uniswap_v3_hedge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Window bounds the swaps of a run by unix timestamp, To 0 meaning open ended.
type Window struct {
	Pool string
	From int64
	To   int64
}

// Simulator replays swaps cached in a SwapStore through the engine.
type Simulator struct {
	store   *SwapStore
	metrics *RunnerMetrics
}

func NewSimulator(store *SwapStore, metrics *RunnerMetrics) *Simulator {
	return &Simulator{
		store:   store,
		metrics: metrics,
	}
}

// ImportSubgraph caches a subgraph swaps page and returns the number of swaps stored.
func (s *Simulator) ImportSubgraph(data []byte) (int, error) {
	swaps, err := DecodeSubgraphSwaps(data)
	if err != nil {
		return 0, err
	}
	events, err := ToSwapEvents(swaps)
	if err != nil {
		return 0, err
	}
	if err := s.store.SaveSwaps(events); err != nil {
		return 0, err
	}
	logrus.Infof("imported %d subgraph swaps", len(events))
	return len(events), nil
}

// ImportLogs caches the Swap logs of pool. blockTimes maps block numbers to timestamps.
func (s *Simulator) ImportLogs(pool *PoolConfig, logsData []byte, blockTimesData []byte) (int, error) {
	logs, err := DecodeLogs(logsData)
	if err != nil {
		return 0, err
	}
	blockTimes, err := DecodeBlockTimes(blockTimesData)
	if err != nil {
		return 0, err
	}
	events, err := SwapEventsFromLogs(pool, logs, blockTimes)
	if err != nil {
		return 0, err
	}
	if err := s.store.SaveSwaps(events); err != nil {
		return 0, err
	}
	logrus.Infof("imported %d swaps of %d logs for pool %s", len(events), len(logs), pool.Address)
	return len(events), nil
}

// Events loads and normalizes the swaps of w, in block and log order.
func (s *Simulator) Events(w Window) ([]NormalizedEvent, error) {
	swaps, err := s.store.LoadSwaps(w.Pool, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("load swaps of %s: %w", w.Pool, err)
	}
	if len(swaps) == 0 {
		return nil, fmt.Errorf("pool %s: %w", w.Pool, ErrNoEvents)
	}
	events, err := NormalizeEvents(swaps)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveEvents(len(events))
	return events, nil
}

// RunMetrics deduplicates the swaps by block and accumulates the liquidity deltas.
func (s *Simulator) RunMetrics(w Window) (*Metrics, error) {
	var m Metrics
	err := s.metrics.Measure("metrics", func() error {
		events, err := s.Events(w)
		if err != nil {
			return err
		}
		slots := DiscardManyInGroup(GroupNormalized(events))
		s.metrics.ObserveDiscarded(slots)
		m = ComputeMetrics(slots)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.Infof("pool %s: processed %d of %d blocks, sqrt delta sum %v", w.Pool, m.Processed, m.Total, m.SqrtDeltaSum)
	return &m, nil
}

func (s *Simulator) RunHedge(w Window, settings HedgeSettings) (*HedgeResult, error) {
	var r *HedgeResult
	err := s.metrics.Measure("hedge", func() error {
		events, err := s.Events(w)
		if err != nil {
			return err
		}
		r, err = SimulateHedge(events, settings)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveHedge(r)
	logrus.Infof("hedge run %s on %s: pnl %v apy %v, %d rebalances", r.RunId, w.Pool, r.FinalPnL, r.APYHedged, r.Rebalances())
	return r, nil
}

func (s *Simulator) RunBands(w Window, settings BandSettings) (*BandResult, error) {
	var r *BandResult
	err := s.metrics.Measure("bands", func() error {
		events, err := s.Events(w)
		if err != nil {
			return err
		}
		r, err = SimulateBands(events, settings)
		return err
	})
	if err != nil {
		return nil, err
	}
	logrus.Infof("band run %s on %s: pnl %v, %d shifts", r.RunId, w.Pool, r.PnL, len(r.Shifts))
	return r, nil
}

func (s *Simulator) RunRolling(ctx context.Context, w Window, settings RollingSettings) ([]ScenarioResult, error) {
	events, err := s.Events(w)
	if err != nil {
		return nil, err
	}
	results, err := RollingWindow(ctx, events, settings, s.metrics)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		logrus.Infof("scenario %q: %d windows", r.Scenario.Name, len(r.Windows))
	}
	return results, nil
}
