package controllers

import (
	"net/http"

	"interfone-http-service/internal/error/response"
	"interfone-http-service/models"
	"interfone-http-service/services"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceNotificationController 定义通知控制器接口
type InterfaceNotificationController interface {
	VisitorEvent()
	DeliveryEvent()
	CommunicationEvent()
	GetJob()
}

// NotificationController 处理通知事件相关的请求
type NotificationController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewNotificationController 创建一个新的通知控制器
func NewNotificationController(ctx *gin.Context, container *container.ServiceContainer) *NotificationController {
	return &NotificationController{
		Ctx:       ctx,
		Container: container,
	}
}

// NotificationEventRequest 通知事件请求
type NotificationEventRequest struct {
	BuildingID      uint   `json:"building_id" binding:"required" example:"1"`
	ApartmentNumber string `json:"apartment_number" example:"101"`
	VisitorName     string `json:"visitor_name" example:"Carlos"`
	Message         string `json:"message" example:"Encomenda na portaria"`
	NotifyResidents bool   `json:"notify_residents" example:"false"`
}

// HandleNotificationFunc 返回一个处理通知请求的Gin处理函数
func HandleNotificationFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewNotificationController(ctx, container)

		switch method {
		case "visitorEvent":
			controller.VisitorEvent()
		case "deliveryEvent":
			controller.DeliveryEvent()
		case "communicationEvent":
			controller.CommunicationEvent()
		case "getJob":
			controller.GetJob()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// routeEvent 绑定请求并按事件类型路由
func (c *NotificationController) routeEvent(kind models.NotificationKind) {
	var req NotificationEventRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	notificationService := c.Container.GetService("notification").(services.InterfaceNotificationService)
	outcome, err := notificationService.RouteVisitorEvent(&services.VisitorEvent{
		Kind:            kind,
		BuildingID:      req.BuildingID,
		ApartmentNumber: req.ApartmentNumber,
		VisitorName:     req.VisitorName,
		Message:         req.Message,
		NotifyResidents: req.NotifyResidents,
	})
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, outcome)
}

// VisitorEvent 访客到达事件
// @Summary      访客到达事件
// @Description  上报访客到达事件，默认通知在岗门卫，门卫不在岗时跳过并记录
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Param        request body NotificationEventRequest true "事件参数"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /notifications/visitor [post]
func (c *NotificationController) VisitorEvent() {
	c.routeEvent(models.KindVisitor)
}

// DeliveryEvent 快递到达事件
// @Summary      快递到达事件
// @Description  上报快递到达事件，路由规则与访客事件相同
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Param        request body NotificationEventRequest true "事件参数"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /notifications/delivery [post]
func (c *NotificationController) DeliveryEvent() {
	c.routeEvent(models.KindDelivery)
}

// CommunicationEvent 物业通知事件
// @Summary      物业通知事件
// @Description  向公寓住户发送物业通知，来电专用的VoIP通道会降级为普通推送
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Param        request body NotificationEventRequest true "事件参数"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /notifications/communication [post]
func (c *NotificationController) CommunicationEvent() {
	c.routeEvent(models.KindCommunication)
}

// GetJob 查询投递任务
// @Summary      查询投递任务
// @Description  根据任务ID查询通知投递任务的状态与投递结果
// @Tags         Notification
// @Produce      json
// @Param        id path string true "任务ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/jobs/{id} [get]
func (c *NotificationController) GetJob() {
	jobID := c.Ctx.Param("id")
	if jobID == "" {
		response.ParamError(c.Ctx, "Job ID is required")
		return
	}

	notificationService := c.Container.GetService("notification").(services.InterfaceNotificationService)
	job, err := notificationService.GetJob(jobID)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, job)
}
