package controllers

import (
	"net/http"
	"strconv"

	"interfone-http-service/internal/error/response"
	"interfone-http-service/models"
	"interfone-http-service/services"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceResidentController 定义住户控制器接口
type InterfaceResidentController interface {
	GetResidents()
	GetResident()
	CreateResident()
	UpdateResident()
	DeleteResident()
	RegisterPushTokens()
	SetNotificationEnabled()
}

// ResidentController 处理住户相关的请求
type ResidentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewResidentController 创建一个新的住户控制器
func NewResidentController(ctx *gin.Context, container *container.ServiceContainer) *ResidentController {
	return &ResidentController{
		Ctx:       ctx,
		Container: container,
	}
}

type (
	// ResidentRequest 表示创建住户请求
	ResidentRequest struct {
		Name          string `json:"name" binding:"required" example:"Maria"`
		Email         string `json:"email" binding:"omitempty,email" example:"maria@example.com"`
		Phone         string `json:"phone" binding:"required" example:"11987654321"`
		Password      string `json:"password" binding:"required" example:"secret123"`
		ApartmentID   uint   `json:"apartment_id" binding:"required" example:"101"`
		WhatsappPhone string `json:"whatsapp_phone" example:"11987654321"`
	}

	// UpdateResidentRequest 表示更新住户请求
	UpdateResidentRequest struct {
		Name          string `json:"name" example:"Maria"`
		Email         string `json:"email" binding:"omitempty,email" example:"maria@example.com"`
		Phone         string `json:"phone" example:"11987654321"`
		WhatsappPhone string `json:"whatsapp_phone" example:"11987654321"`
	}

	// PushTokenRequest 表示注册推送令牌请求
	PushTokenRequest struct {
		PushToken     string `json:"push_token" example:"ExponentPushToken[xxxxxxxx]"`
		VoipPushToken string `json:"voip_push_token" example:"a1b2c3d4"`
	}

	// NotificationToggleRequest 表示通知开关请求
	NotificationToggleRequest struct {
		Enabled *bool `json:"enabled" binding:"required" example:"true"`
	}
)

// HandleResidentFunc 返回一个处理住户请求的Gin处理函数
func HandleResidentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewResidentController(ctx, container)

		switch method {
		case "getResidents":
			controller.GetResidents()
		case "getResident":
			controller.GetResident()
		case "createResident":
			controller.CreateResident()
		case "updateResident":
			controller.UpdateResident()
		case "deleteResident":
			controller.DeleteResident()
		case "registerPushTokens":
			controller.RegisterPushTokens()
		case "setNotificationEnabled":
			controller.SetNotificationEnabled()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// residentIDParam 解析路径中的住户ID
func (c *ResidentController) residentIDParam() (uint, bool) {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "Invalid resident ID")
		return 0, false
	}
	return uint(id), true
}

// GetResidents 获取住户列表
// @Summary      获取住户列表
// @Description  分页获取住户列表，可按公寓过滤
// @Tags         Resident
// @Produce      json
// @Param        apartment_id query int false "公寓ID"
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /residents [get]
func (c *ResidentController) GetResidents() {
	residentService := c.Container.GetService("resident").(services.InterfaceResidentService)

	// 指定公寓时返回该公寓的全部住户
	if apartmentID, err := strconv.ParseUint(c.Ctx.Query("apartment_id"), 10, 32); err == nil {
		residents, err := residentService.GetResidentsByApartment(uint(apartmentID))
		if err != nil {
			failWithServiceError(c.Ctx, err)
			return
		}
		response.Success(c.Ctx, residents)
		return
	}

	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	residents, total, err := residentService.GetAllResidents(page, pageSize)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        residents,
	})
}

// GetResident 获取住户详情
// @Summary      获取住户详情
// @Description  根据ID获取特定住户的详细信息
// @Tags         Resident
// @Produce      json
// @Param        id path int true "住户ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /residents/{id} [get]
func (c *ResidentController) GetResident() {
	id, ok := c.residentIDParam()
	if !ok {
		return
	}

	residentService := c.Container.GetService("resident").(services.InterfaceResidentService)
	resident, err := residentService.GetResidentByID(id)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, resident)
}

// CreateResident 创建住户
// @Summary      创建住户
// @Description  在指定公寓下创建新住户
// @Tags         Resident
// @Accept       json
// @Produce      json
// @Param        request body ResidentRequest true "住户信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "公寓不存在"
// @Router       /residents [post]
func (c *ResidentController) CreateResident() {
	var req ResidentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	resident := &models.Resident{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Password:      req.Password,
		ApartmentID:   req.ApartmentID,
		WhatsappPhone: req.WhatsappPhone,
	}

	residentService := c.Container.GetService("resident").(services.InterfaceResidentService)
	if err := residentService.CreateResident(resident); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, resident)
}

// UpdateResident 更新住户
// @Summary      更新住户
// @Description  更新住户的基本信息
// @Tags         Resident
// @Accept       json
// @Produce      json
// @Param        id path int true "住户ID"
// @Param        request body UpdateResidentRequest true "更新内容"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /residents/{id} [put]
func (c *ResidentController) UpdateResident() {
	id, ok := c.residentIDParam()
	if !ok {
		return
	}

	var req UpdateResidentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.WhatsappPhone != "" {
		updates["whatsapp_phone"] = req.WhatsappPhone
	}

	residentService := c.Container.GetService("resident").(services.InterfaceResidentService)
	resident, err := residentService.UpdateResident(id, updates)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, resident)
}

// DeleteResident 删除住户
// @Summary      删除住户
// @Description  根据ID删除住户
// @Tags         Resident
// @Produce      json
// @Param        id path int true "住户ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /residents/{id} [delete]
func (c *ResidentController) DeleteResident() {
	id, ok := c.residentIDParam()
	if !ok {
		return
	}

	residentService := c.Container.GetService("resident").(services.InterfaceResidentService)
	if err := residentService.DeleteResident(id); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Resident deleted", nil)
}

// RegisterPushTokens 注册推送令牌
// @Summary      注册推送令牌
// @Description  注册住户的Expo推送令牌与iOS VoIP推送令牌
// @Tags         Resident
// @Accept       json
// @Produce      json
// @Param        id path int true "住户ID"
// @Param        request body PushTokenRequest true "推送令牌"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /residents/{id}/push-tokens [put]
func (c *ResidentController) RegisterPushTokens() {
	id, ok := c.residentIDParam()
	if !ok {
		return
	}

	var req PushTokenRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	residentService := c.Container.GetService("resident").(services.InterfaceResidentService)
	if err := residentService.RegisterPushTokens(id, req.PushToken, req.VoipPushToken); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Push tokens registered", nil)
}

// SetNotificationEnabled 设置通知开关
// @Summary      设置通知开关
// @Description  开启或关闭住户的通知接收
// @Tags         Resident
// @Accept       json
// @Produce      json
// @Param        id path int true "住户ID"
// @Param        request body NotificationToggleRequest true "通知开关"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /residents/{id}/notifications [put]
func (c *ResidentController) SetNotificationEnabled() {
	id, ok := c.residentIDParam()
	if !ok {
		return
	}

	var req NotificationToggleRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	residentService := c.Container.GetService("resident").(services.InterfaceResidentService)
	if err := residentService.SetNotificationEnabled(id, *req.Enabled); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Notification preference updated", nil)
}
