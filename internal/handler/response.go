package handler

import (
	"net/http"

	"github.com/blues/cds/internal/apperr"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWith 按业务错误分类映射 HTTP 状态码
func FailWith(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case apperr.KindAuthorization:
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case apperr.KindState:
		ErrorResponse(c, http.StatusConflict, err.Error())
	case apperr.KindTransfer:
		ErrorResponse(c, http.StatusBadGateway, err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
