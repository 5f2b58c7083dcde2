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

// InterfaceDoormanController 定义门卫控制器接口
type InterfaceDoormanController interface {
	GetDoormen()
	GetDoorman()
	CreateDoorman()
	UpdateDoorman()
	DeleteDoorman()
	RegisterPushToken()
}

// DoormanController 处理门卫相关的请求
type DoormanController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDoormanController 创建一个新的门卫控制器
func NewDoormanController(ctx *gin.Context, container *container.ServiceContainer) *DoormanController {
	return &DoormanController{
		Ctx:       ctx,
		Container: container,
	}
}

type (
	// DoormanRequest 表示创建门卫请求
	DoormanRequest struct {
		Name       string `json:"name" binding:"required" example:"João"`
		Username   string `json:"username" binding:"required" example:"porteiro01"`
		Password   string `json:"password" binding:"required" example:"secret123"`
		Phone      string `json:"phone" example:"11912345678"`
		BuildingID uint   `json:"building_id" binding:"required" example:"1"`
	}

	// UpdateDoormanRequest 表示更新门卫请求
	UpdateDoormanRequest struct {
		Name   string `json:"name" example:"João"`
		Phone  string `json:"phone" example:"11912345678"`
		Status string `json:"status" example:"active"`
	}

	// DoormanPushTokenRequest 表示门卫推送令牌请求
	DoormanPushTokenRequest struct {
		PushToken string `json:"push_token" binding:"required" example:"ExponentPushToken[xxxxxxxx]"`
	}
)

// HandleDoormanFunc 返回一个处理门卫请求的Gin处理函数
func HandleDoormanFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDoormanController(ctx, container)

		switch method {
		case "getDoormen":
			controller.GetDoormen()
		case "getDoorman":
			controller.GetDoorman()
		case "createDoorman":
			controller.CreateDoorman()
		case "updateDoorman":
			controller.UpdateDoorman()
		case "deleteDoorman":
			controller.DeleteDoorman()
		case "registerPushToken":
			controller.RegisterPushToken()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// doormanIDParam 解析路径中的门卫ID
func (c *DoormanController) doormanIDParam() (uint, bool) {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "Invalid doorman ID")
		return 0, false
	}
	return uint(id), true
}

// GetDoormen 获取门卫列表
// @Summary      获取门卫列表
// @Description  分页获取门卫列表，可按楼栋过滤
// @Tags         Doorman
// @Produce      json
// @Param        building_id query int false "楼栋ID"
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /doormen [get]
func (c *DoormanController) GetDoormen() {
	buildingID, _ := strconv.ParseUint(c.Ctx.DefaultQuery("building_id", "0"), 10, 32)
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	doormanService := c.Container.GetService("doorman").(services.InterfaceDoormanService)
	doormen, total, err := doormanService.GetAllDoormen(uint(buildingID), page, pageSize)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        doormen,
	})
}

// GetDoorman 获取门卫详情
// @Summary      获取门卫详情
// @Description  根据ID获取特定门卫的详细信息
// @Tags         Doorman
// @Produce      json
// @Param        id path int true "门卫ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /doormen/{id} [get]
func (c *DoormanController) GetDoorman() {
	id, ok := c.doormanIDParam()
	if !ok {
		return
	}

	doormanService := c.Container.GetService("doorman").(services.InterfaceDoormanService)
	doorman, err := doormanService.GetDoormanByID(id)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, doorman)
}

// CreateDoorman 创建门卫
// @Summary      创建门卫
// @Description  在指定楼栋下创建新门卫账号
// @Tags         Doorman
// @Accept       json
// @Produce      json
// @Param        request body DoormanRequest true "门卫信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse "用户名已被占用"
// @Failure      404  {object}  ErrorResponse "楼栋不存在"
// @Router       /doormen [post]
func (c *DoormanController) CreateDoorman() {
	var req DoormanRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	doorman := &models.Doorman{
		Name:       req.Name,
		Username:   req.Username,
		Password:   req.Password,
		Phone:      req.Phone,
		BuildingID: req.BuildingID,
	}

	doormanService := c.Container.GetService("doorman").(services.InterfaceDoormanService)
	if err := doormanService.CreateDoorman(doorman); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, doorman)
}

// UpdateDoorman 更新门卫
// @Summary      更新门卫
// @Description  更新门卫的基本信息
// @Tags         Doorman
// @Accept       json
// @Produce      json
// @Param        id path int true "门卫ID"
// @Param        request body UpdateDoormanRequest true "更新内容"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /doormen/{id} [put]
func (c *DoormanController) UpdateDoorman() {
	id, ok := c.doormanIDParam()
	if !ok {
		return
	}

	var req UpdateDoormanRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	doormanService := c.Container.GetService("doorman").(services.InterfaceDoormanService)
	doorman, err := doormanService.UpdateDoorman(id, updates)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, doorman)
}

// DeleteDoorman 删除门卫
// @Summary      删除门卫
// @Description  根据ID删除门卫账号
// @Tags         Doorman
// @Produce      json
// @Param        id path int true "门卫ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /doormen/{id} [delete]
func (c *DoormanController) DeleteDoorman() {
	id, ok := c.doormanIDParam()
	if !ok {
		return
	}

	doormanService := c.Container.GetService("doorman").(services.InterfaceDoormanService)
	if err := doormanService.DeleteDoorman(id); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Doorman deleted", nil)
}

// RegisterPushToken 注册门卫推送令牌
// @Summary      注册门卫推送令牌
// @Description  注册门卫的Expo推送令牌
// @Tags         Doorman
// @Accept       json
// @Produce      json
// @Param        id path int true "门卫ID"
// @Param        request body DoormanPushTokenRequest true "推送令牌"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /doormen/{id}/push-token [put]
func (c *DoormanController) RegisterPushToken() {
	id, ok := c.doormanIDParam()
	if !ok {
		return
	}

	var req DoormanPushTokenRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	doormanService := c.Container.GetService("doorman").(services.InterfaceDoormanService)
	if err := doormanService.RegisterPushToken(id, req.PushToken); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Push token registered", nil)
}
