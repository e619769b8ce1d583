package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lxyzcm1/parking-manage-system/internal/api/handler"
	"github.com/lxyzcm1/parking-manage-system/internal/api/middleware"
	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

func SetupRouter(
	authService *service.AuthService,
	engine *service.ParkingEngine,
	statsService *service.StatisticsService,
	lprService *service.LPRService,
	authMw *middleware.AuthMiddleware,
	wsManager *handler.WebSocketManager,
) *gin.Engine {
	r := gin.Default()

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(authService)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		lotH := handler.NewParkingLotHandler(engine)
		lotRoutes := v1.Group("/parking-lots")
		{
			lotRoutes.POST("", authMw.AuthorizeRole("admin"), lotH.CreateParkingLot)
			lotRoutes.GET("", lotH.GetAllParkingLots)
			lotRoutes.GET("/:id", lotH.GetParkingLotByID)
			lotRoutes.PUT("/:id", authMw.AuthorizeRole("admin"), lotH.UpdateParkingLot)
			lotRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), lotH.DeleteParkingLot)
		}

		sessionH := handler.NewSessionHandler(engine)
		sessionRoutes := v1.Group("/sessions")
		{
			sessionRoutes.POST("/entry", sessionH.VehicleEntry)
			sessionRoutes.POST("/exit", sessionH.VehicleExit)
			sessionRoutes.GET("", sessionH.FindSessions)
			sessionRoutes.GET("/:id", sessionH.GetSessionByID)
		}

		statsH := handler.NewStatisticsHandler(statsService)
		v1.GET("/statistics", statsH.GetStatistics)

		if lprService != nil {
			lprH := handler.NewLPRHandler(lprService, engine)
			lprRoutes := v1.Group("/lpr")
			lprRoutes.Use(authMw.AuthorizeRole("admin", "operator"))
			{
				lprRoutes.POST("/entry", lprH.VehicleEntry)
				lprRoutes.POST("/exit", lprH.VehicleExit)
			}
		}
	}
	return r
}
