package routes

import (
	"time"

	"interfone-http-service/config"
	"interfone-http-service/controllers"
	"interfone-http-service/middleware"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, nil)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))

	// WebSocket实时连接，令牌通过查询参数认证
	api.GET("/ws", controllers.HandleRealtimeFunc(container, "connect"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 任意已登录用户可访问的路由
	user := api.Group("/")
	user.Use(middleware.AuthenticateUser())

	// 呼叫路由
	calls := user.Group("/calls")
	calls.POST("", controllers.HandleCallFunc(container, "startCall"))
	calls.POST("/doorman", controllers.HandleCallFunc(container, "callDoorman"))
	calls.GET("/active", controllers.HandleCallFunc(container, "getActiveCalls"))
	calls.GET("/pending", controllers.HandleCallFunc(container, "getPendingCalls"))
	calls.GET("/history", middleware.CacheByParams(10*time.Second, "building_id", "page", "page_size"), controllers.HandleCallFunc(container, "getCallHistory"))
	calls.GET("/statistics", controllers.HandleCallFunc(container, "getCallStatistics"))
	calls.GET("/:id", controllers.HandleCallFunc(container, "getCallStatus"))
	calls.POST("/:id/answer", controllers.HandleCallFunc(container, "answerCall"))
	calls.POST("/:id/decline", controllers.HandleCallFunc(container, "declineCall"))
	calls.POST("/:id/end", controllers.HandleCallFunc(container, "endCall"))

	// 媒体令牌路由，签发接口按用户限流
	tokens := user.Group("/tokens")
	tokens.POST("", middleware.TokenIssueRateLimiter(2, 10), controllers.HandleTokenFunc(container, "generateToken"))
	tokens.POST("/validate", controllers.HandleTokenFunc(container, "validateToken"))
	tokens.GET("/usersig", controllers.HandleTokenFunc(container, "getUserSig"))

	// 通知路由
	notifications := user.Group("/notifications")
	notifications.POST("/visitor", controllers.HandleNotificationFunc(container, "visitorEvent"))
	notifications.POST("/delivery", controllers.HandleNotificationFunc(container, "deliveryEvent"))
	notifications.POST("/communication", controllers.HandleNotificationFunc(container, "communicationEvent"))
	notifications.GET("/jobs/:id", controllers.HandleNotificationFunc(container, "getJob"))

	// 门卫及以上角色可访问的路由
	doorman := api.Group("/")
	doorman.Use(middleware.AuthenticateDoorman())

	// 值班路由
	shifts := doorman.Group("/shifts")
	shifts.POST("", controllers.HandleShiftFunc(container, "startShift"))
	shifts.POST("/end", controllers.HandleShiftFunc(container, "endShift"))
	shifts.GET("/status", controllers.HandleShiftFunc(container, "getShiftStatus"))
	shifts.GET("/on-duty", controllers.HandleShiftFunc(container, "getOnDutyDoorman"))
	shifts.GET("/history", controllers.HandleShiftFunc(container, "getShiftHistory"))

	// 紧急广播路由
	doorman.POST("/emergency/broadcast", controllers.HandleEmergencyFunc(container, "broadcastAlert"))

	// 管理员路由
	admin := api.Group("/")
	admin.Use(middleware.AuthenticateSystemAdmin())

	// 楼栋管理路由
	buildings := admin.Group("/buildings")
	buildings.GET("", controllers.HandleBuildingFunc(container, "getBuildings"))
	buildings.GET("/:id", controllers.HandleBuildingFunc(container, "getBuilding"))
	buildings.POST("", controllers.HandleBuildingFunc(container, "createBuilding"))
	buildings.PUT("/:id", controllers.HandleBuildingFunc(container, "updateBuilding"))
	buildings.DELETE("/:id", controllers.HandleBuildingFunc(container, "deleteBuilding"))
	buildings.GET("/:id/apartments", controllers.HandleBuildingFunc(container, "getApartments"))
	buildings.POST("/:id/apartments", controllers.HandleBuildingFunc(container, "createApartment"))

	// 住户管理路由
	residents := user.Group("/residents")
	residents.GET("", controllers.HandleResidentFunc(container, "getResidents"))
	residents.GET("/:id", controllers.HandleResidentFunc(container, "getResident"))
	residents.PUT("/:id/push-tokens", controllers.HandleResidentFunc(container, "registerPushTokens"))
	residents.PUT("/:id/notifications", controllers.HandleResidentFunc(container, "setNotificationEnabled"))

	residentsAdmin := admin.Group("/residents")
	residentsAdmin.POST("", controllers.HandleResidentFunc(container, "createResident"))
	residentsAdmin.PUT("/:id", controllers.HandleResidentFunc(container, "updateResident"))
	residentsAdmin.DELETE("/:id", controllers.HandleResidentFunc(container, "deleteResident"))

	// 门卫管理路由
	doormen := user.Group("/doormen")
	doormen.GET("", controllers.HandleDoormanFunc(container, "getDoormen"))
	doormen.GET("/:id", controllers.HandleDoormanFunc(container, "getDoorman"))
	doormen.PUT("/:id/push-token", controllers.HandleDoormanFunc(container, "registerPushToken"))

	doormenAdmin := admin.Group("/doormen")
	doormenAdmin.POST("", controllers.HandleDoormanFunc(container, "createDoorman"))
	doormenAdmin.PUT("/:id", controllers.HandleDoormanFunc(container, "updateDoorman"))
	doormenAdmin.DELETE("/:id", controllers.HandleDoormanFunc(container, "deleteDoorman"))
}
