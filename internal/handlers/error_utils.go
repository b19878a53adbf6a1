package handlers

import (
	"errors"
	"net/http"

	contextutils "feedbackboard/internal/utils"

	"github.com/gin-gonic/gin"
)

// Messages returned in the `error` field. Clients show them verbatim.
const (
	msgBadRequest      = "参数错误"
	msgInvalidID       = "无效的反馈ID"
	msgNotFound        = "反馈不存在"
	msgDeleteForbidden = "无权删除此反馈"
	msgSearchTooLong   = "搜索内容过长"
	msgInternal        = "服务器内部错误"
)

// StandardizeHTTPError creates consistent HTTP error responses with structured error information
func StandardizeHTTPError(c *gin.Context, statusCode int, message, details string) {
	var errorCode contextutils.ErrorCode
	var severity contextutils.SeverityLevel

	switch statusCode {
	case http.StatusBadRequest:
		errorCode = contextutils.ErrorCodeInvalidInput
		severity = contextutils.SeverityWarn
	case http.StatusUnauthorized:
		errorCode = contextutils.ErrorCodeUnauthorized
		severity = contextutils.SeverityWarn
	case http.StatusForbidden:
		errorCode = contextutils.ErrorCodeForbidden
		severity = contextutils.SeverityWarn
	case http.StatusNotFound:
		errorCode = contextutils.ErrorCodeRecordNotFound
		severity = contextutils.SeverityInfo
	case http.StatusServiceUnavailable:
		errorCode = contextutils.ErrorCodeServiceUnavailable
		severity = contextutils.SeverityError
	default:
		errorCode = contextutils.ErrorCodeInternalError
		severity = contextutils.SeverityError
	}

	appErr := contextutils.NewAppError(errorCode, severity, message, details)
	c.JSON(statusCode, appErr.ToJSON())
}

// StandardizeAppError sends a structured error response using AppError
func StandardizeAppError(c *gin.Context, err *contextutils.AppError) {
	c.JSON(mapErrorCodeToHTTPStatus(err.Code), err.ToJSON())
}

// HandleAppError handles any error and sends the matching HTTP response.
// Not-found errors always carry the board's own message.
func HandleAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *contextutils.AppError
	if !errors.As(err, &appErr) {
		StandardizeHTTPError(c, http.StatusInternalServerError, msgInternal, err.Error())
		return
	}

	if appErr.Code == contextutils.ErrorCodeRecordNotFound {
		StandardizeHTTPError(c, http.StatusNotFound, msgNotFound, appErr.Error())
		return
	}
	StandardizeAppError(c, appErr)
}

// mapErrorCodeToHTTPStatus maps AppError codes to appropriate HTTP status codes
func mapErrorCodeToHTTPStatus(code contextutils.ErrorCode) int {
	switch code {
	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeInvalidFormat, contextutils.ErrorCodeValidationFailed:
		return http.StatusBadRequest

	case contextutils.ErrorCodeUnauthorized:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeForbidden:
		return http.StatusForbidden

	case contextutils.ErrorCodeRecordNotFound:
		return http.StatusNotFound

	// 5xx Server Errors
	case contextutils.ErrorCodeServiceUnavailable, contextutils.ErrorCodeDatabaseConnection:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeTimeout:
		return http.StatusRequestTimeout

	default:
		return http.StatusInternalServerError
	}
}
