package routers

import (
	"sync"

	"github.com/gin-gonic/gin"

	"shop-assistant/internal/app/controllers"
	v1 "shop-assistant/internal/app/controllers/v1"
	"shop-assistant/internal/app/services"
)

var apiOnce sync.Once
var g *gin.Engine

func SetUp() *gin.Engine {
	apiOnce.Do(func() {
		g = NewEngine(services.Sessions, services.Turns, services.Warehouse, services.Audit)
	})
	return g
}

// NewEngine registers the assistant routes; warehouse and audit may be nil.
func NewEngine(sessions *services.SessionService, turns *services.TurnService,
	warehouse *services.WarehouseService, audit *services.AuditHistory) *gin.Engine {
	engine := gin.Default()
	engine.Use(corsMiddleware())

	mainGroup := engine.Group("/assistant/")
	mainGroup.GET("/health", controllers.Health)

	sessionController := v1.NewSessionController(sessions, turns, audit)
	turnController := v1.NewTurnController(turns)
	warehouseController := v1.NewWarehouseController(warehouse, sessions)

	mainGroup.GET("/transactions", warehouseController.ListTransactions)
	mainGroup.GET("/images/:description", warehouseController.GetImage)

	sessionGroup := mainGroup.Group("/sessions")
	{
		sessionGroup.POST("", sessionController.CreateSession)
		sessionGroup.GET("/:id", sessionController.GetSession)
		sessionGroup.DELETE("/:id/messages", sessionController.ResetSession)
		sessionGroup.GET("/:id/audit", sessionController.GetAudit)
		sessionGroup.POST("/:id/feedback", sessionController.Feedback)
		sessionGroup.POST("/:id/turns", turnController.SubmitTurn)
		sessionGroup.POST("/:id/suggestions", turnController.SelectSuggestion)
		sessionGroup.POST("/:id/messages/:index/results", warehouseController.RunResult)
	}
	return engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Origin, Accept")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}
