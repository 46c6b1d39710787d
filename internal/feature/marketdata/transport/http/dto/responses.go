// Package dto はmarketdataハンドラーが返すレスポンスDTOを定義します。
package dto

import "encoding/json"

// CandleResponse はロウソク足データのレスポンスDTOです。
type CandleResponse struct {
	Time   string  `json:"time"`   // RFC3339 (UTC)
	Open   float64 `json:"open"`   // 始値
	High   float64 `json:"high"`   // 高値
	Low    float64 `json:"low"`    // 安値
	Close  float64 `json:"close"`  // 終値
	Volume int64   `json:"volume"` // 出来高
}

// PriceResponse は最新価格と前回終値からの変化率のレスポンスDTOです。
type PriceResponse struct {
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
	Change     float64 `json:"change"`
}

// InstrumentResponse は銘柄カタログ1件のレスポンスDTOです。
type InstrumentResponse struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	DisplayName string          `json:"displayName"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// ErrorResponse はエラー時のレスポンスDTOです。
type ErrorResponse struct {
	Error          string `json:"error"`
	ProviderStatus int    `json:"providerStatus,omitempty"`
}
