// Package gemini はGoogle Gemini APIを使用したチャートアシスタントの生成クライアントを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"fxchart_backend/internal/feature/assistant/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// Config はGemini APIクライアントの設定を保持します。
// APIKeyが空の場合はGOOGLE_GENAI_USE_VERTEXAI、GOOGLE_CLOUD_PROJECT、GOOGLE_CLOUD_LOCATIONによるADC/Vertex AI設定を使用します。
type Config struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Enabled はアシスタントを有効にするかどうかを返します。
func (c Config) Enabled() bool {
	return c.APIKey != "" || c.Model != ""
}

// GeminiGenerator はGoogle Gemini APIを使用して回答を生成します。
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// GeminiGeneratorがTextGeneratorを実装していることをコンパイル時に検証します。
var _ usecase.TextGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator はGeminiGeneratorの新しいインスタンスを生成します。
func NewGeminiGenerator(ctx context.Context, cfg Config, httpClient *http.Client) (*GeminiGenerator, error) {
	var cc *genai.ClientConfig
	if cfg.APIKey != "" {
		cc = &genai.ClientConfig{
			APIKey:     cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: httpClient,
		}
		if cfg.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate はシステム指示とユーザーの発話を送信し、最初の候補のテキストを返します。
func (g *GeminiGenerator) Generate(ctx context.Context, gen usecase.Generation) (string, error) {
	contents := make([]*genai.Content, 0, len(gen.Messages))
	for _, m := range gen.Messages {
		contents = append(contents, genai.NewContentFromText(m, genai.RoleUser))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: gen.MaxOutputTokens,
		Temperature:     genai.Ptr(gen.Temperature),
		CandidateCount:  1,
	}
	if gen.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(gen.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}
