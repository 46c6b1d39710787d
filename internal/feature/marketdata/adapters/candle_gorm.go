// Package adapters holds the persistence adapters of the marketdata feature.
package adapters

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
	"fxchart_backend/internal/feature/marketdata/usecase"
)

// upsertBatchSize bounds the rows per INSERT so large series stay under driver parameter limits.
const upsertBatchSize = 500

type candleGorm struct {
	db *gorm.DB
}

var _ usecase.CandleArchive = (*candleGorm)(nil)

// NewCandleArchive returns a gorm backed CandleArchive.
func NewCandleArchive(db *gorm.DB) *candleGorm {
	return &candleGorm{db: db}
}

// CandleModel is one archived candle row.
type CandleModel struct {
	ID          uint      `gorm:"primaryKey"`
	Instrument  string    `gorm:"size:32;not null;uniqueIndex:candle_inst_gran_time,priority:1"`
	Granularity string    `gorm:"size:8;not null;uniqueIndex:candle_inst_gran_time,priority:2"`
	Time        time.Time `gorm:"not null;uniqueIndex:candle_inst_gran_time,priority:3"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "candles"
}

func toModel(instrument, granularity string, e entity.Candle) CandleModel {
	return CandleModel{
		Instrument:  instrument,
		Granularity: granularity,
		Time:        e.Time.UTC(),
		Open:        e.Open,
		High:        e.High,
		Low:         e.Low,
		Close:       e.Close,
		Volume:      e.Volume,
	}
}

func (r *candleGorm) UpsertBatch(ctx context.Context, instrument, granularity string, candles []entity.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toModel(instrument, granularity, e))
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instrument"}, {Name: "granularity"}, {Name: "time"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(&ms, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("upsert %d candles for %s/%s: %w", len(ms), instrument, granularity, err)
	}
	return nil
}

// Find returns the newest limit candles in chronological order.
func (r *candleGorm) Find(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where("instrument = ? AND granularity = ?", instrument, granularity).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "time"}, Desc: true})
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find candles for %s/%s: %w", instrument, granularity, err)
	}

	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.Candle{
			Time:   m.Time.UTC(),
			Open:   m.Open,
			High:   m.High,
			Low:    m.Low,
			Close:  m.Close,
			Volume: m.Volume,
		})
	}
	// Fetched newest first; restore chronological order.
	slices.Reverse(out)
	return out, nil
}
