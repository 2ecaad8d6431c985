package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shop-assistant/internal/app/conversation"
	"shop-assistant/internal/app/models"
	"shop-assistant/internal/app/services"
	"shop-assistant/internal/pkg/code"
	"shop-assistant/internal/pkg/stream"
)

func Response(c *gin.Context, code int, message string, data interface{}) {
	if nil == data {
		data = struct {
		}{}
	}
	resp := &models.RespValue{
		Code: code,
		Msg:  message,
		Data: data,
	}
	c.JSON(http.StatusOK, resp)
}

func ResponseWithErr(c *gin.Context, code int, message string, err string, data interface{}) {
	if nil == data {
		data = struct {
		}{}
	}
	resp := &models.RespValue{
		Code: code,
		Msg:  message,
		Err:  err,
		Data: data,
	}
	c.JSON(http.StatusOK, resp)
}

// ResponseError answers with the envelope code matching err.
func ResponseError(c *gin.Context, err error, data interface{}) {
	status, msg := ErrorCode(err)
	ResponseWithErr(c, status, msg, err.Error(), data)
}

// ErrorCode maps service errors to envelope codes.
func ErrorCode(err error) (int, string) {
	var (
		upErr    *services.UpstreamError
		tErr     *services.TransportError
		eventErr *stream.EventError
	)
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return code.NotFound, code.MsgNotFound
	case errors.Is(err, conversation.ErrTurnInProgress):
		return code.Conflict, code.MsgTurnInProgress
	case errors.Is(err, conversation.ErrNoSuggestion), errors.Is(err, services.ErrEmptyTurn),
		errors.Is(err, services.ErrNoStatement), errors.Is(err, services.ErrNotReadOnly):
		return code.ParamErr, code.MsgParamErr
	case errors.As(err, &tErr), errors.Is(err, conversation.ErrLockUnavailable):
		return code.ServiceUnavailErr, code.MsgTransportErr
	case errors.As(err, &upErr), errors.As(err, &eventErr), errors.Is(err, stream.ErrEmptyStream):
		return code.UpstreamErr, code.MsgUpstreamErr
	}
	return code.HTTPStatusErr, code.MsgInternalErr
}

func Health(c *gin.Context) {
	Response(c, code.Success, code.MsgSuccess, "")
}
