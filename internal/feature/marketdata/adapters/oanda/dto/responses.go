// Package dto はOANDA APIレスポンスのデータ転送オブジェクトを定義します。
package dto

import "encoding/json"

// AccountsResponse はGET /accountsのレスポンスです。
type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// Account はAccountsResponseの1件分です。
type Account struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags,omitempty"`
}

// InstrumentsResponse はGET /accounts/{id}/instrumentsのレスポンスです。
// 元のレコードをそのまま渡せるよう、各要素は未加工のJSONで保持します。
type InstrumentsResponse struct {
	Instruments       []json.RawMessage `json:"instruments"`
	LastTransactionID string            `json:"lastTransactionID,omitempty"`
}

// Instrument は銘柄カタログが必要とする項目だけを保持します。
type Instrument struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	DisplayName      string `json:"displayName"`
	PipLocation      int    `json:"pipLocation"`
	DisplayPrecision int    `json:"displayPrecision"`
	MarginRate       string `json:"marginRate"`
}

// CandlesResponse はGET /instruments/{name}/candlesのレスポンスです。
type CandlesResponse struct {
	Instrument  string   `json:"instrument"`
	Granularity string   `json:"granularity"`
	Candles     []Candle `json:"candles"`
}

// Candle はAPIから返る未加工のローソク足です。ポインタ型で「欠落」とゼロ値を区別します。
type Candle struct {
	Complete bool   `json:"complete"`
	Volume   *int64 `json:"volume"`
	Time     string `json:"time"`
	Mid      *Price `json:"mid"`
	Bid      *Price `json:"bid,omitempty"`
	Ask      *Price `json:"ask,omitempty"`
}

// Price は文字列で表現された始値・高値・安値・終値です。
type Price struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}
