package controllers

import (
	"log"
	"net/http"

	"interfone-http-service/internal/error/response"
	"interfone-http-service/models"
	"interfone-http-service/services"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// upgrader 将HTTP连接升级为WebSocket连接。
// 客户端来自移动端App，不做Origin校验。
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RealtimeController 处理WebSocket实时连接
type RealtimeController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewRealtimeController 创建一个新的实时连接控制器
func NewRealtimeController(ctx *gin.Context, container *container.ServiceContainer) *RealtimeController {
	return &RealtimeController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleRealtimeFunc 返回一个处理WebSocket连接请求的Gin处理函数
func HandleRealtimeFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewRealtimeController(ctx, container)

		switch method {
		case "connect":
			controller.Connect()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// Connect 建立WebSocket连接
// @Summary      建立实时连接
// @Description  通过token查询参数认证后升级为WebSocket连接，接收呼叫状态实时事件
// @Tags         Realtime
// @Param        token query string true "JWT令牌"
// @Success      101  "Switching Protocols"
// @Failure      401  {object}  ErrorResponse
// @Router       /ws [get]
func (c *RealtimeController) Connect() {
	// WebSocket客户端无法自定义请求头，从查询参数取令牌
	tokenString := c.Ctx.Query("token")
	if tokenString == "" {
		tokenString = c.Ctx.GetHeader("Authorization")
		if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
			tokenString = tokenString[7:]
		}
	}
	if tokenString == "" {
		response.Unauthorized(c.Ctx)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	claims, err := jwtService.ExtractClaims(tokenString)
	if err != nil {
		response.Unauthorized(c.Ctx)
		return
	}

	var userType string
	switch claims.Role {
	case "doorman", "admin":
		userType = models.UserTypeDoorman
	case "resident":
		userType = models.UserTypeResident
	default:
		response.Unauthorized(c.Ctx)
		return
	}

	conn, err := upgrader.Upgrade(c.Ctx.Writer, c.Ctx.Request, nil)
	if err != nil {
		log.Printf("[WS] 连接升级失败: %v", err)
		return
	}

	realtimeService := c.Container.GetService("realtime").(services.InterfaceRealtimeService)
	realtimeService.HandleConnection(conn, userType, claims.UserID)
}
