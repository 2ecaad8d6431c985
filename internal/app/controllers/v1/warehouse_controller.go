package v1

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"shop-assistant/internal/app/controllers"
	"shop-assistant/internal/app/services"
	"shop-assistant/internal/pkg/code"
)

type WarehouseController struct {
	warehouse *services.WarehouseService
	sessions  *services.SessionService
}

// NewWarehouseController accepts a nil warehouse; every endpoint then answers
// with a disabled error.
func NewWarehouseController(warehouse *services.WarehouseService, sessions *services.SessionService) *WarehouseController {
	return &WarehouseController{warehouse: warehouse, sessions: sessions}
}

func (c *WarehouseController) available(ctx *gin.Context) bool {
	if c.warehouse == nil {
		controllers.Response(ctx, code.ServiceUnavailErr, code.MsgDisabled, nil)
		return false
	}
	return true
}

// ListTransactions 分页获取交易记录
func (c *WarehouseController) ListTransactions(ctx *gin.Context) {
	if !c.available(ctx) {
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	rows, err := c.warehouse.ListTransactions(ctx.Request.Context(), ctx.Query("product"), limit, offset)
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, gin.H{"list": rows, "limit": limit, "offset": offset})
}

// GetImage 获取页面图片
func (c *WarehouseController) GetImage(ctx *gin.Context) {
	if !c.available(ctx) {
		return
	}
	image, err := c.warehouse.Image(ctx.Request.Context(), ctx.Param("description"))
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, image)
}

// RunResult 执行回答中的SQL并返回结果
func (c *WarehouseController) RunResult(ctx *gin.Context) {
	if !c.available(ctx) {
		return
	}
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		controllers.ResponseWithErr(ctx, code.ParamErr, code.MsgParamErr, err.Error(), nil)
		return
	}
	statement, err := c.sessions.Statement(ctx.Request.Context(), ctx.Param("id"), index)
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	result, err := c.warehouse.RunQuery(ctx.Request.Context(), statement)
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, result)
}
