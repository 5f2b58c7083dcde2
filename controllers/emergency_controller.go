package controllers

import (
	"net/http"

	"interfone-http-service/internal/error/response"
	"interfone-http-service/services"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceEmergencyController 定义紧急事件控制器接口
type InterfaceEmergencyController interface {
	BroadcastAlert()
}

// EmergencyController 处理紧急事件相关的请求
type EmergencyController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEmergencyController 创建一个新的紧急事件控制器
func NewEmergencyController(ctx *gin.Context, container *container.ServiceContainer) *EmergencyController {
	return &EmergencyController{
		Ctx:       ctx,
		Container: container,
	}
}

// EmergencyAlertRequest 紧急广播请求
type EmergencyAlertRequest struct {
	BuildingID  uint   `json:"building_id" binding:"required" example:"1"`
	Type        string `json:"type" binding:"required" example:"fire"`
	Description string `json:"description" example:"Incêndio no segundo andar"`
}

// HandleEmergencyFunc 返回一个处理紧急事件请求的Gin处理函数
func HandleEmergencyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewEmergencyController(ctx, container)

		switch method {
		case "broadcastAlert":
			controller.BroadcastAlert()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// BroadcastAlert 紧急广播
// @Summary      紧急广播
// @Description  向楼栋全体住户和在岗门卫广播紧急事件
// @Tags         Emergency
// @Accept       json
// @Produce      json
// @Param        request body EmergencyAlertRequest true "紧急事件参数"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /emergency/broadcast [post]
func (c *EmergencyController) BroadcastAlert() {
	var req EmergencyAlertRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	userID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	emergencyService := c.Container.GetService("emergency").(services.InterfaceEmergencyService)
	result, err := emergencyService.BroadcastAlert(&services.EmergencyAlert{
		BuildingID:  req.BuildingID,
		Type:        req.Type,
		Description: req.Description,
		ReportedBy:  userID,
	})
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, result)
}
