package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shop-assistant/internal/app/controllers"
	"shop-assistant/internal/app/models"
	"shop-assistant/internal/app/services"
	"shop-assistant/internal/pkg/code"
	"shop-assistant/pkg/util"
)

const maxImageSize = 10 << 20

type TurnController struct {
	turns *services.TurnService
}

func NewTurnController(turns *services.TurnService) *TurnController {
	return &TurnController{turns: turns}
}

// SubmitTurn 提交一轮对话, 支持 multipart 图片上传
func (c *TurnController) SubmitTurn(ctx *gin.Context) {
	in, err := bindTurn(ctx)
	if err != nil {
		controllers.ResponseWithErr(ctx, code.ParamErr, code.MsgParamErr, err.Error(), nil)
		return
	}
	id := ctx.Param("id")

	if wantsStream(ctx) {
		startStream(ctx)
		in.OnPhase = func(p services.Phase) { _ = util.WritePhase(ctx.Writer, string(p)) }
		in.OnWarning = func(msg string) { _ = util.WriteWarning(ctx.Writer, msg) }
		result, err := c.turns.Submit(ctx.Request.Context(), id, in)
		finishStream(ctx, result, err)
		return
	}

	result, err := c.turns.Submit(ctx.Request.Context(), id, in)
	respondTurn(ctx, result, err)
}

// SelectSuggestion 选择推荐问题并提交
func (c *TurnController) SelectSuggestion(ctx *gin.Context) {
	var req models.SuggestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controllers.ResponseWithErr(ctx, code.ParamErr, code.MsgParamErr, err.Error(), nil)
		return
	}
	id := ctx.Param("id")

	if wantsStream(ctx) {
		startStream(ctx)
		result, err := c.turns.SelectSuggestion(ctx.Request.Context(), id, req, func(p services.Phase) {
			_ = util.WritePhase(ctx.Writer, string(p))
		})
		finishStream(ctx, result, err)
		return
	}

	result, err := c.turns.SelectSuggestion(ctx.Request.Context(), id, req, nil)
	respondTurn(ctx, result, err)
}

func bindTurn(ctx *gin.Context) (services.TurnInput, error) {
	var in services.TurnInput
	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		var req models.TurnRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return in, err
		}
		in.Text = req.Text
		return in, nil
	}

	in.Text = ctx.PostForm("text")
	header, err := ctx.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, err
	}
	if header.Size > maxImageSize {
		return in, fmt.Errorf("image larger than %d bytes", maxImageSize)
	}
	file, err := header.Open()
	if err != nil {
		return in, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		return in, err
	}
	in.Image = &services.ImageUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return in, nil
}

func respondTurn(ctx *gin.Context, result *services.TurnResult, err error) {
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	if result.Err != nil {
		controllers.ResponseError(ctx, result.Err, result)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, result)
}

func wantsStream(ctx *gin.Context) bool {
	return strings.Contains(ctx.GetHeader("Accept"), "text/event-stream")
}

func startStream(ctx *gin.Context) {
	ctx.Header("Content-Type", "text/event-stream; charset=utf-8")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Status(http.StatusOK)
}

func finishStream(ctx *gin.Context, result *services.TurnResult, err error) {
	defer util.WriteDone(ctx.Writer)
	if err != nil {
		status, _ := controllers.ErrorCode(err)
		_ = util.WriteError(ctx.Writer, models.ErrorEvent{Code: fmt.Sprint(status), Message: err.Error()})
		return
	}
	_ = util.WriteMessage(ctx.Writer, result.UserIndex, result.User)
	_ = util.WriteMessage(ctx.Writer, result.AssistantIndex, result.Assistant)
	if result.Err != nil {
		status, _ := controllers.ErrorCode(result.Err)
		_ = util.WriteError(ctx.Writer, models.ErrorEvent{
			Code:      fmt.Sprint(status),
			Message:   result.Err.Error(),
			RequestID: result.Assistant.RequestID,
		})
	}
}
