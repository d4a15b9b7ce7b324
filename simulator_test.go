package uniswap_v3_hedge

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T) (*Simulator, *RunnerMetrics) {
	t.Helper()
	metrics := NewRunnerMetrics(prometheus.NewRegistry())
	return NewSimulator(openTestStore(t), metrics), metrics
}

// simulatorFixture stores five swaps of 0xpool, two of them in block 3.
func simulatorFixture(t *testing.T, s *Simulator) {
	t.Helper()
	swaps := []SwapEvent{
		swapAt(1, 0, 1, 100),
		swapAt(2, 600, 10, 1005),
		swapAt(3, 1200, 1, 101),
		swapAt(3, 1200, 1, 99),
		swapAt(4, 1800, 1, 100),
	}
	swaps[3].LogIndex = 1
	require.NoError(t, s.store.SaveSwaps(swaps))
}

func TestSimulatorImportSubgraph(t *testing.T) {
	s, _ := newTestSimulator(t)
	n, err := s.ImportSubgraph([]byte(subgraphPage))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := s.Events(Window{Pool: "0x8AD599C3A0FF1DE082011EFDDC58F1908EB6E6D8"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.InDelta(t, 1597.6, events[0].Price, 0.1)

	_, err = s.ImportSubgraph([]byte(`{"data": {"swaps": [{"timestamp": "x"}]}}`))
	assert.ErrorIs(t, err, ErrInvalidSwap)
}

func TestSimulatorImportSubgraphSameBlock(t *testing.T) {
	s, _ := newTestSimulator(t)
	page := `[
	  {"timestamp": "100", "sqrtPriceX96": "79228162514264337593543950336",
	   "pool": {"id": "0xpool", "feeTier": "3000", "token0": {"decimals": "18"}, "token1": {"decimals": "18"}},
	   "transaction": {"id": "0xa", "blockNumber": "10"}},
	  {"timestamp": "112", "sqrtPriceX96": "79307390676778601931137494286",
	   "pool": {"id": "0xpool", "feeTier": "3000", "token0": {"decimals": "18"}, "token1": {"decimals": "18"}},
	   "transaction": {"id": "0xb", "blockNumber": "11"}},
	  {"timestamp": "112", "sqrtPriceX96": "79228162514264337593543950336",
	   "pool": {"id": "0xpool", "feeTier": "3000", "token0": {"decimals": "18"}, "token1": {"decimals": "18"}},
	   "transaction": {"id": "0xc", "blockNumber": "11"}}
	]`
	n, err := s.ImportSubgraph([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stored, err := s.store.CountSwaps("0xpool")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored, "swaps of one block without logIndex are all kept")

	m, err := s.RunMetrics(Window{Pool: "0xpool"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Total)
	assert.Equal(t, 1, m.Processed)
	require.Len(t, m.Checkpoints, 2)
	assert.Nil(t, m.Checkpoints[1], "block 11 has two swaps and is discarded")

	r, err := s.RunHedge(Window{Pool: "0xpool"}, HedgeSettings{Hysteresis: 2})
	require.NoError(t, err)
	assert.Len(t, r.PnLSeries, 3)
}

func TestSimulatorImportLogs(t *testing.T) {
	s, _ := newTestSimulator(t)
	pool, err := NewPoolConfig(testPool, "usdc", "weth", 18, 18, FeeAmountMedium)
	require.NoError(t, err)
	data := swapLogData(big.NewInt(-5), big.NewInt(7), constants.Q96, big.NewInt(10), big.NewInt(0))
	raw, err := json.Marshal([]types.Log{swapLog(10, 0, data), swapLog(11, 2, data)})
	require.NoError(t, err)

	n, err := s.ImportLogs(pool, raw, []byte(`{"10": 1000, "11": 1013}`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := s.Events(Window{Pool: testPool, From: 1010})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(11), events[0].BlockNumber)
	assert.InDelta(t, 1, events[0].Price, 1e-12)

	_, err = s.ImportLogs(pool, raw, []byte(`{"10": 1000}`))
	assert.ErrorIs(t, err, ErrInvalidSwap)
}

func TestSimulatorRunMetrics(t *testing.T) {
	s, metrics := newTestSimulator(t)
	simulatorFixture(t, s)

	m, err := s.RunMetrics(Window{Pool: "0xpool"})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 3, m.Processed)
	assert.Equal(t, 3, m.LastProcessedIndex)
	assert.Equal(t, FeeAmountMedium, m.FeeTier)
	assert.InDelta(t, 1.0, m.PriceDeltaSum, 1e-9, "block 4 bridges the gap back to block 2")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.discarded))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.events))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("metrics", "success")))
}

func TestSimulatorRunHedge(t *testing.T) {
	s, metrics := newTestSimulator(t)
	simulatorFixture(t, s)

	r, err := s.RunHedge(Window{Pool: "0xpool"}, HedgeSettings{Hysteresis: 2, SwapFee: 0.3})
	require.NoError(t, err)
	require.Len(t, r.PnLSeries, 5, "the hedge replays every swap")
	assert.Equal(t, int64(1800), r.PnLSeries[4].Timestamp)
	assert.NotEmpty(t, r.RunId)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("hedge", "success")))

	_, err = s.RunHedge(Window{Pool: "0xpool"}, HedgeSettings{})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("hedge", "failed")))
}

func TestSimulatorRunBands(t *testing.T) {
	s, _ := newTestSimulator(t)
	simulatorFixture(t, s)

	r, err := s.RunBands(Window{Pool: "0xpool", To: 1200}, BandSettings{Hysteresis: 2})
	require.NoError(t, err)
	assert.Empty(t, r.Shifts)
	assert.NotEmpty(t, r.RunId)
}

func TestSimulatorRunRolling(t *testing.T) {
	s, _ := newTestSimulator(t)
	simulatorFixture(t, s)

	results, err := s.RunRolling(context.Background(), Window{Pool: "0xpool"}, RollingSettings{
		WindowLength: time.Hour,
		RollingTime:  20 * time.Minute,
		Scenarios:    []Scenario{{Name: "H=2", Hysteresis: 2}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Windows, 2)
	assert.Equal(t, int64(0), results[0].Windows[0].Start.Unix())
	assert.Equal(t, int64(1200), results[0].Windows[1].Start.Unix())
}

func TestSimulatorUnknownPool(t *testing.T) {
	s, metrics := newTestSimulator(t)
	simulatorFixture(t, s)

	_, err := s.RunMetrics(Window{Pool: "0xmissing"})
	assert.ErrorIs(t, err, ErrNoEvents)
	_, err = s.RunHedge(Window{Pool: "0xpool", From: 5000}, HedgeSettings{Hysteresis: 2})
	assert.ErrorIs(t, err, ErrNoEvents)
	_, err = s.RunRolling(context.Background(), Window{Pool: "0xmissing"}, RollingSettings{})
	assert.ErrorIs(t, err, ErrNoEvents)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.events))
}
