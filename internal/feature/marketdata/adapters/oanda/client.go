package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fxchart_backend/internal/feature/marketdata/adapters/oanda/dto"
	"fxchart_backend/internal/feature/marketdata/domain"
	"fxchart_backend/internal/feature/marketdata/domain/entity"
	"fxchart_backend/internal/feature/marketdata/usecase"
	"fxchart_backend/internal/platform/metrics"
)

// PriceComponentMid はcandlesエンドポイントに仲値を要求する指定です。
const PriceComponentMid = "M"

// maxErrorBody はProviderErrorに保持するエラーレスポンス本文の上限です。
const maxErrorBody = 4 << 10

// メトリクスとログで使うエンドポイントのラベルです。
const (
	endpointAccounts    = "accounts"
	endpointInstruments = "instruments"
	endpointCandles     = "candles"
	endpointPrice       = "price"
)

// Client はOANDA REST APIのクライアントです。1回の呼び出しにつき1回だけ試行し、リトライしません。
type Client struct {
	cfg     Config
	client  *http.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// Clientがusecaseのインターフェースを満たしていることをコンパイル時に検証します。
var (
	_ usecase.CatalogSource  = (*Client)(nil)
	_ usecase.MarketProvider = (*Client)(nil)
)

// Option はClientの設定を変更します。
type Option func(*Client)

// WithMetrics はリクエスト数とレイテンシを記録します。
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger はクライアントのロガーを設定します。
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient は新しいClientを作成します。cfgのタイムアウトが0の場合はデフォルト値を使用します。
func NewClient(cfg Config, client *http.Client, opts ...Option) *Client {
	c := &Client{cfg: cfg.WithDefaults(), client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Accounts はAPIキーで参照できるアカウントの一覧を取得します。
func (c *Client) Accounts(ctx context.Context) ([]entity.Account, error) {
	var body dto.AccountsResponse
	if err := c.getJSON(ctx, endpointAccounts, "/accounts", nil, c.cfg.CatalogTimeout, &body); err != nil {
		return nil, err
	}
	accounts := make([]entity.Account, 0, len(body.Accounts))
	for _, a := range body.Accounts {
		accounts = append(accounts, entity.Account{ID: a.ID})
	}
	return accounts, nil
}

// Instruments はaccountIDで取引可能な銘柄の一覧をAPIの並び順で取得します。
func (c *Client) Instruments(ctx context.Context, accountID string) ([]entity.Instrument, error) {
	var body dto.InstrumentsResponse
	path := "/accounts/" + url.PathEscape(accountID) + "/instruments"
	if err := c.getJSON(ctx, endpointInstruments, path, nil, c.cfg.CatalogTimeout, &body); err != nil {
		return nil, err
	}

	instruments := make([]entity.Instrument, 0, len(body.Instruments))
	for i, raw := range body.Instruments {
		var rec dto.Instrument
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: instrument %d: %w", domain.ErrParse, i, err)
		}
		if rec.Name == "" {
			return nil, fmt.Errorf("%w: instrument %d: missing name", domain.ErrParse, i)
		}
		instruments = append(instruments, entity.Instrument{
			Name:        rec.Name,
			Type:        rec.Type,
			DisplayName: rec.DisplayName,
			Metadata:    append(json.RawMessage(nil), raw...),
		})
	}
	return instruments, nil
}

// Candles はkeyのローソク足履歴を取得し、正規化して返します。タイムアウトはCandleTimeoutです。
func (c *Client) Candles(ctx context.Context, key entity.FetchKey) ([]entity.Candle, error) {
	return c.candles(ctx, endpointCandles, key.Instrument, key.Granularity, key.Count, c.cfg.CandleTimeout)
}

// LatestCandles は直近のローソク足を取得します。タイムアウトはより短いPriceTimeoutです。
func (c *Client) LatestCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
	return c.candles(ctx, endpointPrice, instrument, granularity, count, c.cfg.PriceTimeout)
}

func (c *Client) candles(ctx context.Context, endpoint, instrument, granularity string, count int, budget time.Duration) ([]entity.Candle, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("granularity", granularity)
	q.Set("price", PriceComponentMid)

	var body dto.CandlesResponse
	path := "/instruments/" + url.PathEscape(instrument) + "/candles"
	if err := c.getJSON(ctx, endpoint, path, q, budget, &body); err != nil {
		return nil, err
	}
	return NormalizeCandles(body.Candles)
}

// getJSON は認証付きGETを1回発行し、JSONレスポンスをoutにデコードします。
func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, budget time.Duration, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()
	defer func() {
		c.metrics.ObserveProviderRequest(endpoint, outcome(err), time.Since(start))
	}()

	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrNetwork, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Datetime-Format", "RFC3339")

	res, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	if res.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		body := strings.TrimSpace(string(b))
		c.logger.Error("provider returned error status",
			zap.String("endpoint", endpoint),
			zap.Int("status", res.StatusCode),
			zap.String("response", body),
		)
		if res.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", domain.ErrAuthentication, body)
		}
		return &domain.ProviderError{StatusCode: res.StatusCode, Body: body}
	}

	// JSONレスポンスをDTOにデコード
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return classifyTransportError(err)
		}
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrParse, endpoint, err)
	}
	return nil
}

// classifyTransportError はclient.Doのエラーを ErrTimeout か ErrNetwork に分類します。
func classifyTransportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
}

func outcome(err error) string {
	var pe *domain.ProviderError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAuthentication):
		return "auth"
	case errors.As(err, &pe):
		if pe.StatusCode >= http.StatusInternalServerError {
			return "http_5xx"
		}
		return "http_4xx"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrParse):
		return "parse"
	default:
		return "network"
	}
}
