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

// InterfaceBuildingController 定义楼栋控制器接口
type InterfaceBuildingController interface {
	GetBuildings()
	GetBuilding()
	CreateBuilding()
	UpdateBuilding()
	DeleteBuilding()
	GetApartments()
	CreateApartment()
}

// BuildingController 处理楼栋相关的请求
type BuildingController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewBuildingController 创建一个新的楼栋控制器
func NewBuildingController(ctx *gin.Context, container *container.ServiceContainer) *BuildingController {
	return &BuildingController{
		Ctx:       ctx,
		Container: container,
	}
}

type (
	// BuildingRequest 表示楼栋请求
	BuildingRequest struct {
		Name    string `json:"name" binding:"required" example:"Edifício Solar"`
		Code    string `json:"code" binding:"required" example:"B001"`
		Address string `json:"address" example:"Rua das Flores, 123"`
		Status  string `json:"status" example:"active"`
	}

	// UpdateBuildingRequest 表示更新楼栋请求
	UpdateBuildingRequest struct {
		Name    string `json:"name" example:"Edifício Solar"`
		Address string `json:"address" example:"Rua das Flores, 123"`
		Status  string `json:"status" example:"active"`
	}

	// ApartmentRequest 表示创建公寓请求
	ApartmentRequest struct {
		Number string `json:"number" binding:"required" example:"101"`
		Block  string `json:"block" example:"A"`
		Floor  int    `json:"floor" example:"1"`
	}
)

// HandleBuildingFunc 返回一个处理楼栋请求的Gin处理函数
func HandleBuildingFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewBuildingController(ctx, container)

		switch method {
		case "getBuildings":
			controller.GetBuildings()
		case "getBuilding":
			controller.GetBuilding()
		case "createBuilding":
			controller.CreateBuilding()
		case "updateBuilding":
			controller.UpdateBuilding()
		case "deleteBuilding":
			controller.DeleteBuilding()
		case "getApartments":
			controller.GetApartments()
		case "createApartment":
			controller.CreateApartment()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// buildingIDParam 解析路径中的楼栋ID
func (c *BuildingController) buildingIDParam() (uint, bool) {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "Invalid building ID")
		return 0, false
	}
	return uint(id), true
}

// GetBuildings 获取楼栋列表
// @Summary      获取楼栋列表
// @Description  分页获取系统中的楼栋列表
// @Tags         Building
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /buildings [get]
func (c *BuildingController) GetBuildings() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	buildingService := c.Container.GetService("building").(services.InterfaceBuildingService)
	buildings, total, err := buildingService.GetAllBuildings(page, pageSize)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        buildings,
	})
}

// GetBuilding 获取楼栋详情
// @Summary      获取楼栋详情
// @Description  根据ID获取楼栋及其公寓列表
// @Tags         Building
// @Produce      json
// @Param        id path int true "楼栋ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /buildings/{id} [get]
func (c *BuildingController) GetBuilding() {
	id, ok := c.buildingIDParam()
	if !ok {
		return
	}

	buildingService := c.Container.GetService("building").(services.InterfaceBuildingService)
	building, err := buildingService.GetBuildingByID(id)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, building)
}

// CreateBuilding 创建楼栋
// @Summary      创建楼栋
// @Description  创建新楼栋，楼栋编码全局唯一
// @Tags         Building
// @Accept       json
// @Produce      json
// @Param        request body BuildingRequest true "楼栋信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /buildings [post]
func (c *BuildingController) CreateBuilding() {
	var req BuildingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	building := &models.Building{
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		Status:  req.Status,
	}

	buildingService := c.Container.GetService("building").(services.InterfaceBuildingService)
	if err := buildingService.CreateBuilding(building); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, building)
}

// UpdateBuilding 更新楼栋
// @Summary      更新楼栋
// @Description  更新楼栋的基本信息
// @Tags         Building
// @Accept       json
// @Produce      json
// @Param        id path int true "楼栋ID"
// @Param        request body UpdateBuildingRequest true "更新内容"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /buildings/{id} [put]
func (c *BuildingController) UpdateBuilding() {
	id, ok := c.buildingIDParam()
	if !ok {
		return
	}

	var req UpdateBuildingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	buildingService := c.Container.GetService("building").(services.InterfaceBuildingService)
	building, err := buildingService.UpdateBuilding(id, updates)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, building)
}

// DeleteBuilding 删除楼栋
// @Summary      删除楼栋
// @Description  根据ID删除楼栋
// @Tags         Building
// @Produce      json
// @Param        id path int true "楼栋ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /buildings/{id} [delete]
func (c *BuildingController) DeleteBuilding() {
	id, ok := c.buildingIDParam()
	if !ok {
		return
	}

	buildingService := c.Container.GetService("building").(services.InterfaceBuildingService)
	if err := buildingService.DeleteBuilding(id); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Building deleted", nil)
}

// GetApartments 获取楼栋公寓列表
// @Summary      获取公寓列表
// @Description  获取指定楼栋下的全部公寓
// @Tags         Building
// @Produce      json
// @Param        id path int true "楼栋ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /buildings/{id}/apartments [get]
func (c *BuildingController) GetApartments() {
	id, ok := c.buildingIDParam()
	if !ok {
		return
	}

	buildingService := c.Container.GetService("building").(services.InterfaceBuildingService)
	apartments, err := buildingService.GetApartments(id)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, apartments)
}

// CreateApartment 创建公寓
// @Summary      创建公寓
// @Description  在指定楼栋下创建公寓，楼栋内编号唯一
// @Tags         Building
// @Accept       json
// @Produce      json
// @Param        id path int true "楼栋ID"
// @Param        request body ApartmentRequest true "公寓信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse "楼栋不存在"
// @Router       /buildings/{id}/apartments [post]
func (c *BuildingController) CreateApartment() {
	id, ok := c.buildingIDParam()
	if !ok {
		return
	}

	var req ApartmentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	apartment := &models.Apartment{
		BuildingID: id,
		Number:     req.Number,
		Block:      req.Block,
		Floor:      req.Floor,
	}

	buildingService := c.Container.GetService("building").(services.InterfaceBuildingService)
	if err := buildingService.CreateApartment(apartment); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, apartment)
}
