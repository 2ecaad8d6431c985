package v1

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"shop-assistant/internal/app/controllers"
	"shop-assistant/internal/app/conversation"
	"shop-assistant/internal/app/models"
	"shop-assistant/internal/app/services"
	"shop-assistant/internal/pkg/code"
)

type SessionController struct {
	sessions *services.SessionService
	turns    *services.TurnService
	audit    *services.AuditHistory
}

// NewSessionController accepts a nil audit history; the audit endpoint then
// answers with a disabled error.
func NewSessionController(sessions *services.SessionService, turns *services.TurnService, audit *services.AuditHistory) *SessionController {
	return &SessionController{sessions: sessions, turns: turns, audit: audit}
}

type sessionView struct {
	*conversation.State
	Phase services.Phase `json:"phase"`
}

// CreateSession 创建会话
func (c *SessionController) CreateSession(ctx *gin.Context) {
	state, err := c.sessions.Create(ctx.Request.Context())
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, sessionView{State: state, Phase: services.PhaseIdle})
}

// GetSession 获取会话记录
func (c *SessionController) GetSession(ctx *gin.Context) {
	id := ctx.Param("id")
	state, err := c.sessions.Get(ctx.Request.Context(), id)
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, sessionView{State: state, Phase: c.turns.Phase(id)})
}

// ResetSession 清空会话
func (c *SessionController) ResetSession(ctx *gin.Context) {
	state, err := c.sessions.Reset(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, sessionView{State: state, Phase: services.PhaseIdle})
}

// Feedback 提交回答评价
func (c *SessionController) Feedback(ctx *gin.Context) {
	var req models.FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controllers.ResponseWithErr(ctx, code.ParamErr, code.MsgParamErr, err.Error(), nil)
		return
	}

	outcome, err := c.sessions.RecordFeedback(ctx.Request.Context(), ctx.Param("id"), req)
	switch {
	case errors.Is(err, conversation.ErrAlreadySubmitted):
		controllers.Response(ctx, code.Success, code.MsgSuccess, gin.H{"already_submitted": true})
	case err != nil:
		log.Warnf("feedback for %s: %v", req.RequestID, err)
		controllers.ResponseError(ctx, err, gin.H{"outcome": outcome})
	default:
		controllers.Response(ctx, code.Success, code.MsgSuccess, gin.H{"already_submitted": false, "outcome": outcome})
	}
}


// GetAudit 获取会话审计记录
func (c *SessionController) GetAudit(ctx *gin.Context) {
	if c.audit == nil {
		controllers.Response(ctx, code.ServiceUnavailErr, code.MsgAuditDisabled, nil)
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	audit, err := c.audit.Session(ctx.Request.Context(), ctx.Param("id"), limit, offset)
	if err != nil {
		controllers.ResponseError(ctx, err, nil)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, audit)
}
