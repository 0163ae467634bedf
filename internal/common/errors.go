// Package common provides shared utilities used across all features
package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hxuan190/clmm-route-engine/internal/adapters/sui"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/liquidity"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/mathutil"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/swapmath"
	"github.com/hxuan190/clmm-route-engine/internal/clmm/tickmath"
	"github.com/hxuan190/clmm-route-engine/internal/dlmm/binmath"
	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/services/market"
	"github.com/hxuan190/clmm-route-engine/internal/services/router"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorUnprocessable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE",
		Message:    messageOrDefault(msg, "Unprocessable request"),
	}
}

func HTTPErrorBadGateway(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadGateway,
		Code:       "UPSTREAM_ERROR",
		Message:    messageOrDefault(msg, "Upstream node error"),
	}
}

func HTTPErrorTimeout(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusGatewayTimeout,
		Code:       "TIMEOUT",
		Message:    messageOrDefault(msg, "Request timed out"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

// HTTPErrorFromDomain maps an error from the engine to its API status.
// Input and range errors are 400, unknown coins, pools and paths are 404,
// pool state the request cannot use is 422, node failures are 502.
func HTTPErrorFromDomain(err error) *HttpError {
	var httpErr *HttpError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, context.DeadlineExceeded):
		return HTTPErrorTimeout(err.Error())
	case errors.Is(err, router.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidCoinType),
		errors.Is(err, tickmath.ErrInvalidTick),
		errors.Is(err, tickmath.ErrInvalidTickRange),
		errors.Is(err, tickmath.ErrInvalidSqrtPrice),
		errors.Is(err, tickmath.ErrInvalidSpacing),
		errors.Is(err, swapmath.ErrInvalidPriceLimit),
		errors.Is(err, liquidity.ErrInvalidAmountSide),
		errors.Is(err, liquidity.ErrInvalidSlippage),
		errors.Is(err, liquidity.ErrZeroLiquidity),
		errors.Is(err, liquidity.ErrLiquidityExceedsPosition),
		errors.Is(err, binmath.ErrBinIDOutOfRange),
		errors.Is(err, binmath.ErrInvalidBinStep),
		errors.Is(err, binmath.ErrInvalidPrice):
		return HTTPErrorBadRequest(err.Error())
	case errors.Is(err, router.ErrCoinNotFound),
		errors.Is(err, router.ErrNoPathFound),
		errors.Is(err, sui.ErrObjectNotFound):
		return HTTPErrorNotFound(err.Error())
	case errors.Is(err, market.ErrPoolPaused),
		errors.Is(err, mathutil.ErrArithmeticOverflow):
		return HTTPErrorUnprocessable(err.Error())
	case errors.Is(err, router.ErrInconsistentResponse),
		errors.Is(err, sui.ErrSimulationAbort),
		errors.Is(err, sui.ErrNotShared):
		return HTTPErrorBadGateway(err.Error())
	default:
		return HTTPErrorInternalError(err.Error())
	}
}
