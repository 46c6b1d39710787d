package oanda

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"fxchart_backend/internal/feature/marketdata/adapters/oanda/dto"
	"fxchart_backend/internal/feature/marketdata/domain"
	"fxchart_backend/internal/feature/marketdata/domain/entity"
)

// NormalizeCandles は未加工の仲値ローソク足をドメインのCandleに変換します。
// 並び順は保持します。1件でも項目が欠落・不正であれば全体をエラーにします。
func NormalizeCandles(raw []dto.Candle) ([]entity.Candle, error) {
	candles := make([]entity.Candle, 0, len(raw))
	for i, rc := range raw {
		c, err := normalizeCandle(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: candle %d: %w", domain.ErrParse, i, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func normalizeCandle(rc dto.Candle) (entity.Candle, error) {
	if rc.Time == "" {
		return entity.Candle{}, fmt.Errorf("missing time")
	}
	// タイムスタンプをパース（小数秒の有無どちらも受け付ける）
	tm, err := time.Parse(time.RFC3339Nano, rc.Time)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse time %q: %w", rc.Time, err)
	}
	if rc.Mid == nil {
		return entity.Candle{}, fmt.Errorf("missing mid prices")
	}
	if rc.Volume == nil {
		return entity.Candle{}, fmt.Errorf("missing volume")
	}

	o, err := parsePrice("open", rc.Mid.O)
	if err != nil {
		return entity.Candle{}, err
	}
	h, err := parsePrice("high", rc.Mid.H)
	if err != nil {
		return entity.Candle{}, err
	}
	l, err := parsePrice("low", rc.Mid.L)
	if err != nil {
		return entity.Candle{}, err
	}
	c, err := parsePrice("close", rc.Mid.C)
	if err != nil {
		return entity.Candle{}, err
	}

	return entity.Candle{
		Time:   tm,
		Open:   o,
		High:   h,
		Low:    l,
		Close:  c,
		Volume: *rc.Volume,
	}, nil
}

func parsePrice(field, s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing %s", field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	// ParseFloat は "NaN" や "Inf" も受け付けるため明示的に弾く
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse %s %q: not a finite number", field, s)
	}
	return v, nil
}
