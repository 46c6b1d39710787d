// Package usecase はassistantフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"fxchart_backend/internal/feature/assistant/domain"
	"fxchart_backend/internal/feature/assistant/domain/entity"
)

const (
	// MaxPromptLength は質問の最大文字数（rune数）です。
	MaxPromptLength = 2000
	// MaxReplyTokens は回答の最大出力トークン数です。
	MaxReplyTokens = 150
	// Temperature はモデルに渡すサンプリング温度です。
	Temperature = 0.7
)

// SystemPrompt はすべての会話の前提となるシステムプロンプトです。
const SystemPrompt = "You are an AI assistant specializing in forex trading analysis and strategy.\n" +
	"Provide concise, informative responses to trading-related queries.\n" +
	"Offer insights on market trends, technical analysis, and risk management,\n" +
	"but avoid giving specific financial advice. Always remind users to do their own research\n" +
	"and consult with licensed financial advisors for personalized advice.\n" +
	"When provided with chart context, use this information to give more accurate and relevant responses.\n" +
	"Consider the current symbol, timeframe, price, and active indicators when formulating your answers."

// Generation は言語モデルへの1回のリクエストを表します。
type Generation struct {
	System          string
	Messages        []string // ユーザーの発話（送信順）
	MaxOutputTokens int32
	Temperature     float32
}

// TextGenerator はGenerationに対する回答を生成します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type TextGenerator interface {
	Generate(ctx context.Context, g Generation) (string, error)
}

// AssistantUsecase はチャートコンテキスト付きのトレード関連の質問に回答します。
type AssistantUsecase struct {
	generator TextGenerator
	logger    *zap.Logger
}

// NewAssistantUsecase は新しいAssistantUsecaseを作成します。
func NewAssistantUsecase(generator TextGenerator, logger *zap.Logger) *AssistantUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantUsecase{generator: generator, logger: logger}
}

// Ask は質問を検証してモデルに問い合わせます。チャートコンテキストは別の発話として先に送信します。
func (u *AssistantUsecase) Ask(ctx context.Context, prompt string, chart *entity.ChartContext) (entity.Reply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return entity.Reply{}, domain.ErrEmptyPrompt
	}
	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return entity.Reply{}, fmt.Errorf("%w: %d characters, maximum is %d", domain.ErrPromptTooLong, n, MaxPromptLength)
	}

	messages := make([]string, 0, 2)
	if chart != nil {
		messages = append(messages, ContextMessage(*chart))
	}
	messages = append(messages, prompt)

	text, err := u.generator.Generate(ctx, Generation{
		System:          SystemPrompt,
		Messages:        messages,
		MaxOutputTokens: MaxReplyTokens,
		Temperature:     Temperature,
	})
	if err != nil {
		u.logger.Error("error generating assistant response", zap.Error(err))
		return entity.Reply{}, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	u.logger.Info("assistant response generated successfully")
	return entity.Reply{Text: strings.TrimSpace(text)}, nil
}

// ContextMessage はチャートコンテキストを文字列化します。欠けている値はN/A、Noneで埋めます。
func ContextMessage(c entity.ChartContext) string {
	price := "N/A"
	if c.Price != nil {
		price = strconv.FormatFloat(*c.Price, 'f', -1, 64)
	}
	indicators := "None"
	if len(c.Indicators) > 0 {
		indicators = strings.Join(c.Indicators, ", ")
	}

	var b strings.Builder
	b.WriteString("Chart Context:\n")
	b.WriteString("Symbol: " + orNA(c.Symbol) + "\n")
	b.WriteString("Timeframe: " + orNA(c.Timeframe) + "\n")
	b.WriteString("Price: " + price + "\n")
	b.WriteString("Indicators: " + indicators)
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
