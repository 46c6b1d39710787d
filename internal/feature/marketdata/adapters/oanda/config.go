// Package oanda はOANDA v3形式のREST APIクライアントを提供します。
package oanda

import (
	"errors"
	"time"
)

const (
	// DefaultBaseURL は本番環境のv3 RESTエンドポイントです。
	DefaultBaseURL = "https://api-fxtrade.oanda.com/v3"
	// DefaultCatalogTimeout はアカウント・銘柄一覧取得のタイムアウトです。
	DefaultCatalogTimeout = 30 * time.Second
	// DefaultCandleTimeout はローソク足履歴取得のタイムアウトです。
	DefaultCandleTimeout = 10 * time.Second
	// DefaultPriceTimeout は価格変化率取得のタイムアウトです。画面更新を待たせないよう短くします。
	DefaultPriceTimeout = 5 * time.Second
)

// Config はOANDA APIクライアントの設定を保持します。
type Config struct {
	APIKey         string        `yaml:"api_key"`         // bearer credential
	BaseURL        string        `yaml:"base_url"`        // e.g. "https://api-fxtrade.oanda.com/v3"
	CatalogTimeout time.Duration `yaml:"catalog_timeout"` // /accounts and /accounts/{id}/instruments
	CandleTimeout  time.Duration `yaml:"candle_timeout"`  // /instruments/{name}/candles (history)
	PriceTimeout   time.Duration `yaml:"price_timeout"`   // /instruments/{name}/candles (price delta)
}

// WithDefaults は未設定の項目をデフォルト値で埋めます。
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.CatalogTimeout <= 0 {
		c.CatalogTimeout = DefaultCatalogTimeout
	}
	if c.CandleTimeout <= 0 {
		c.CandleTimeout = DefaultCandleTimeout
	}
	if c.PriceTimeout <= 0 {
		c.PriceTimeout = DefaultPriceTimeout
	}
	return c
}

// Validate はAPIキーの未設定と、PriceTimeoutがCandleTimeout以上の設定を拒否します。
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("provider API key is not set (OANDA_API_KEY)")
	}
	if c.BaseURL == "" {
		return errors.New("provider base URL is not set")
	}
	if c.PriceTimeout >= c.CandleTimeout {
		return errors.New("provider price_timeout must be shorter than candle_timeout")
	}
	return nil
}

// MaxTimeout は設定されたタイムアウトの最大値を返します。HTTPクライアント全体の上限に使います。
func (c Config) MaxTimeout() time.Duration {
	m := c.CatalogTimeout
	for _, d := range []time.Duration{c.CandleTimeout, c.PriceTimeout} {
		if d > m {
			m = d
		}
	}
	return m
}
