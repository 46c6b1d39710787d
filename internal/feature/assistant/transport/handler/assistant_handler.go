// Package handler はassistantフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fxchart_backend/internal/feature/assistant/domain"
	"fxchart_backend/internal/feature/assistant/domain/entity"
	"fxchart_backend/internal/feature/assistant/transport/http/dto"
)

// AssistantUsecase はアシスタントのユースケースインターフェースを定義します。
type AssistantUsecase interface {
	Ask(ctx context.Context, prompt string, chart *entity.ChartContext) (entity.Reply, error)
}

// AssistantHandler はチャットのHTTPリクエストを処理します。
type AssistantHandler struct {
	uc AssistantUsecase
}

// NewAssistantHandler は指定されたusecaseでAssistantHandlerの新しいインスタンスを生成します。
func NewAssistantHandler(uc AssistantUsecase) *AssistantHandler {
	return &AssistantHandler{uc: uc}
}

// Chat は質問とチャートコンテキストを受け取り、回答をJSONで返します。
//
// エンドポイント例:
// POST /api/chat {"message": "...", "chartContext": {"symbol": "EUR_USD", ...}}
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var chart *entity.ChartContext
	if req.ChartContext != nil {
		chart = &entity.ChartContext{
			Symbol:     req.ChartContext.Symbol,
			Timeframe:  req.ChartContext.Timeframe,
			Price:      req.ChartContext.Price,
			Indicators: req.ChartContext.Indicators,
		}
	}

	reply, err := h.uc.Ask(c.Request.Context(), req.Message, chart)
	if err != nil {
		_ = c.Error(err)
		switch {
		case errors.Is(err, domain.ErrEmptyPrompt), errors.Is(err, domain.ErrPromptTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrGeneration):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to get a response."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{Response: reply.Text})
}
