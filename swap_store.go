package uniswap_v3_hedge

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SqrtPrice stores a sqrtPriceX96 as its decimal string.
type SqrtPrice struct {
	*uint256.Int
}

func (j *SqrtPrice) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case nil:
		return nil
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal SqrtPrice value:", value))
	}
	n, err := uint256.FromDecimal(s)
	if err != nil {
		return err
	}
	j.Int = n
	return nil
}

func (j SqrtPrice) Value() (driver.Value, error) {
	if j.Int == nil {
		return nil, nil
	}
	return j.Int.Dec(), nil
}

// SwapRecord is a cached input swap. One row per (pool, block, log index).
type SwapRecord struct {
	ID             uint      `gorm:"primaryKey"`
	Pool           string    `gorm:"uniqueIndex:idx_swap_position;index:idx_swap_pool_time"`
	BlockNumber    uint64    `gorm:"uniqueIndex:idx_swap_position"`
	LogIndex       uint      `gorm:"uniqueIndex:idx_swap_position"`
	Timestamp      int64     `gorm:"index:idx_swap_pool_time"`
	TxHash         string
	SqrtPriceX96   SqrtPrice `gorm:"type:text"`
	Token0Decimals uint8
	Token1Decimals uint8
	FeeTier        uint64
}

func (SwapRecord) TableName() string {
	return "swaps"
}

func newSwapRecord(e SwapEvent) SwapRecord {
	return SwapRecord{
		Pool:           strings.ToLower(e.Pool),
		BlockNumber:    e.BlockNumber,
		LogIndex:       e.LogIndex,
		Timestamp:      e.Timestamp,
		TxHash:         e.TxHash,
		SqrtPriceX96:   SqrtPrice{e.SqrtPriceX96},
		Token0Decimals: e.Token0Decimals,
		Token1Decimals: e.Token1Decimals,
		FeeTier:        uint64(e.FeeTier),
	}
}

func (r SwapRecord) SwapEvent() SwapEvent {
	return SwapEvent{
		Pool:           r.Pool,
		Timestamp:      r.Timestamp,
		BlockNumber:    r.BlockNumber,
		LogIndex:       r.LogIndex,
		TxHash:         r.TxHash,
		SqrtPriceX96:   r.SqrtPriceX96.Int,
		Token0Decimals: r.Token0Decimals,
		Token1Decimals: r.Token1Decimals,
		FeeTier:        FeeAmount(r.FeeTier),
	}
}

// SwapStore is a local sqlite cache of input swaps, so one import can be
// replayed by many runs.
type SwapStore struct {
	db *gorm.DB
}

func OpenSwapStore(dbFile string) (*SwapStore, error) {
	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbFile, err)
	}
	if err := db.AutoMigrate(&SwapRecord{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dbFile, err)
	}
	return &SwapStore{db: db}, nil
}

// SaveSwaps inserts the swaps in one transaction. A swap already stored at the
// same pool, block and log index is overwritten.
func (s *SwapStore) SaveSwaps(events []SwapEvent) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]SwapRecord, 0, len(events))
	for _, e := range events {
		if e.SqrtPriceX96 == nil {
			return fmt.Errorf("%w: block %d log %d has no sqrt price", ErrInvalidSwap, e.BlockNumber, e.LogIndex)
		}
		records = append(records, newSwapRecord(e))
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pool"}, {Name: "block_number"}, {Name: "log_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"timestamp", "tx_hash", "sqrt_price_x96", "token0_decimals", "token1_decimals", "fee_tier"}),
		}).CreateInBatches(records, 500).Error
	})
	if err != nil {
		logrus.Warnf("failed save swaps %s", err)
		return err
	}
	logrus.Infof("saved %d swaps", len(records))
	return nil
}

// LoadSwaps returns the swaps of pool with from <= timestamp <= to, ordered by
// block and log index. A zero to means no upper bound.
func (s *SwapStore) LoadSwaps(pool string, from, to int64) ([]SwapEvent, error) {
	q := s.db.Where("pool = ? AND timestamp >= ?", strings.ToLower(pool), from)
	if to > 0 {
		q = q.Where("timestamp <= ?", to)
	}
	var records []SwapRecord
	if err := q.Order("block_number, log_index").Find(&records).Error; err != nil {
		return nil, err
	}
	events := make([]SwapEvent, 0, len(records))
	for _, r := range records {
		events = append(events, r.SwapEvent())
	}
	return events, nil
}

func (s *SwapStore) CountSwaps(pool string) (int64, error) {
	var n int64
	err := s.db.Model(&SwapRecord{}).Where("pool = ?", strings.ToLower(pool)).Count(&n).Error
	return n, err
}

func (s *SwapStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
