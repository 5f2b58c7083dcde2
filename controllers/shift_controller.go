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

// InterfaceShiftController 定义值班控制器接口
type InterfaceShiftController interface {
	StartShift()
	EndShift()
	GetShiftStatus()
	GetOnDutyDoorman()
	GetShiftHistory()
}

// ShiftController 处理门卫值班相关的请求
type ShiftController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewShiftController 创建一个新的值班控制器
func NewShiftController(ctx *gin.Context, container *container.ServiceContainer) *ShiftController {
	return &ShiftController{
		Ctx:       ctx,
		Container: container,
	}
}

// StartShiftRequest 开始值班请求
type StartShiftRequest struct {
	BuildingID uint `json:"building_id" binding:"required" example:"1"`
}

// HandleShiftFunc 返回一个处理值班请求的Gin处理函数
func HandleShiftFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewShiftController(ctx, container)

		switch method {
		case "startShift":
			controller.StartShift()
		case "endShift":
			controller.EndShift()
		case "getShiftStatus":
			controller.GetShiftStatus()
		case "getOnDutyDoorman":
			controller.GetOnDutyDoorman()
		case "getShiftHistory":
			controller.GetShiftHistory()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// StartShift 开始值班
// @Summary      开始值班
// @Description  门卫在指定楼栋开始值班，同一门卫或同一楼栋不允许并发值班
// @Tags         Shift
// @Accept       json
// @Produce      json
// @Param        request body StartShiftRequest true "值班请求参数"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "门卫已在值班中或楼栋已有在岗门卫"
// @Router       /shifts [post]
func (c *ShiftController) StartShift() {
	var req StartShiftRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	doormanID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	shift, err := shiftService.StartShift(doormanID, req.BuildingID)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, shift)
}

// EndShift 结束值班
// @Summary      结束值班
// @Description  门卫结束当前值班
// @Tags         Shift
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse "没有进行中的值班"
// @Router       /shifts/end [post]
func (c *ShiftController) EndShift() {
	doormanID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	shift, err := shiftService.EndShift(doormanID)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, shift)
}

// GetShiftStatus 查询当前值班状态
// @Summary      查询值班状态
// @Description  查询当前门卫是否在值班中及值班详情
// @Tags         Shift
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /shifts/status [get]
func (c *ShiftController) GetShiftStatus() {
	doormanID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	shift, err := shiftService.GetActiveShift(doormanID)
	if err != nil {
		// 不在值班中不算错误，返回空值班
		response.Success(c.Ctx, gin.H{
			"on_duty": false,
			"shift":   nil,
		})
		return
	}

	response.Success(c.Ctx, gin.H{
		"on_duty": true,
		"shift":   shift,
	})
}

// GetOnDutyDoorman 查询楼栋在岗门卫
// @Summary      查询在岗门卫
// @Description  查询指定楼栋当前在岗的门卫
// @Tags         Shift
// @Produce      json
// @Param        building_id query int true "楼栋ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse "楼栋当前无人值班"
// @Router       /shifts/on-duty [get]
func (c *ShiftController) GetOnDutyDoorman() {
	buildingID, err := strconv.ParseUint(c.Ctx.Query("building_id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "building_id is required")
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	doorman, err := shiftService.OnDutyDoorman(uint(buildingID))
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, doorman)
}

// GetShiftHistory 查询值班历史
// @Summary      查询值班历史
// @Description  分页查询当前门卫的值班记录
// @Tags         Shift
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /shifts/history [get]
func (c *ShiftController) GetShiftHistory() {
	doormanID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	var pageQuery models.PageQuery
	_ = c.Ctx.ShouldBindQuery(&pageQuery)
	pageQuery.Normalize()

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	shifts, total, err := shiftService.GetShiftHistory(doormanID, pageQuery.Page, pageQuery.PageSize)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, models.NewPagedResult(shifts, total, pageQuery))
}
