package handler

import (
	"errors"
	"net/http"

	"fxchart_backend/internal/feature/marketdata/domain"
	"fxchart_backend/internal/feature/marketdata/transport/http/dto"
)

// errorResponse はusecaseのエラーをHTTPステータスとレスポンスボディに変換します。
func errorResponse(err error) (int, dto.ErrorResponse) {
	var pe *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized, dto.ErrorResponse{Error: "provider rejected the configured credentials"}
	case errors.Is(err, domain.ErrInstrumentNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrInsufficientData), errors.Is(err, domain.ErrDivision):
		return http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, dto.ErrorResponse{Error: "provider request timed out"}
	case errors.As(err, &pe):
		return http.StatusBadGateway, dto.ErrorResponse{Error: "provider error", ProviderStatus: pe.StatusCode}
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"}
	}
}
