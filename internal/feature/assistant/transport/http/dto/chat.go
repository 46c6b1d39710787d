// Package dto はチャットアシスタントのリクエスト/レスポンスDTOを定義します。
package dto

// ChatRequest はPOST /api/chatのリクエストボディです。
type ChatRequest struct {
	Message      string               `json:"message" binding:"required"`
	ChartContext *ChartContextRequest `json:"chartContext"`
}

// ChartContextRequest はチャート画面が表示中の銘柄・時間足・価格・インジケーターを表します。
type ChartContextRequest struct {
	Symbol     string   `json:"symbol"`
	Timeframe  string   `json:"timeframe"`
	Price      *float64 `json:"price"`
	Indicators []string `json:"indicators"`
}

// ChatResponse はアシスタントの回答を返すレスポンスDTOです。
type ChatResponse struct {
	Response string `json:"response"`
}
