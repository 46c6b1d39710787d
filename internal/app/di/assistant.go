package di

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fxchart_backend/internal/feature/assistant/adapters/gemini"
	"fxchart_backend/internal/feature/assistant/usecase"
	infrahttp "fxchart_backend/internal/platform/http"
)

// assistantTimeout bounds one generation round trip.
const assistantTimeout = 60 * time.Second

// NewAssistant returns the chart assistant, or nil when it is not configured.
func NewAssistant(ctx context.Context, cfg gemini.Config, logger *zap.Logger) (*usecase.AssistantUsecase, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	gen, err := gemini.NewGeminiGenerator(ctx, cfg, infrahttp.NewHTTPClient(assistantTimeout))
	if err != nil {
		return nil, err
	}
	return usecase.NewAssistantUsecase(gen, logger), nil
}
