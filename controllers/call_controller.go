package controllers

import (
	"net/http"
	"strconv"

	"interfone-http-service/internal/error/code"
	"interfone-http-service/internal/error/response"
	"interfone-http-service/models"
	"interfone-http-service/services"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceCallController 定义呼叫控制器接口
type InterfaceCallController interface {
	StartCall()
	CallDoorman()
	AnswerCall()
	DeclineCall()
	EndCall()
	GetCallStatus()
	GetActiveCalls()
	GetPendingCalls()
	GetCallHistory()
	GetCallStatistics()
}

// CallController 处理呼叫相关的请求
type CallController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCallController 创建一个新的呼叫控制器
func NewCallController(ctx *gin.Context, container *container.ServiceContainer) *CallController {
	return &CallController{
		Ctx:       ctx,
		Container: container,
	}
}

type (
	// StartCallRequest 发起呼叫请求
	StartCallRequest struct {
		BuildingID      uint   `json:"building_id" binding:"required" example:"1"`
		ApartmentNumber string `json:"apartment_number" binding:"required" example:"101"`
	}

	// DeclineCallRequest 拒接呼叫请求
	DeclineCallRequest struct {
		Reason string `json:"reason" example:"busy"`
	}

	// EndCallRequest 结束呼叫请求
	EndCallRequest struct {
		Cause string `json:"cause" example:"completed"`
	}
)

// HandleCallFunc 返回一个处理呼叫请求的Gin处理函数
func HandleCallFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCallController(ctx, container)

		switch method {
		case "startCall":
			controller.StartCall()
		case "callDoorman":
			controller.CallDoorman()
		case "answerCall":
			controller.AnswerCall()
		case "declineCall":
			controller.DeclineCall()
		case "endCall":
			controller.EndCall()
		case "getCallStatus":
			controller.GetCallStatus()
		case "getActiveCalls":
			controller.GetActiveCalls()
		case "getPendingCalls":
			controller.GetPendingCalls()
		case "getCallHistory":
			controller.GetCallHistory()
		case "getCallStatistics":
			controller.GetCallStatistics()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// callerIdentity 解析当前用户的呼叫参与身份
func (c *CallController) callerIdentity() (uint, string, bool) {
	userID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return 0, "", false
	}

	role := currentRole(c.Ctx)
	switch role {
	case "doorman", "admin":
		return userID, models.UserTypeDoorman, true
	case "resident":
		return userID, models.UserTypeResident, true
	default:
		response.Unauthorized(c.Ctx)
		return 0, "", false
	}
}

// StartCall 发起对讲呼叫
// @Summary      发起呼叫
// @Description  门卫向指定公寓发起对讲呼叫，同一公寓同时只允许一个进行中的呼叫
// @Tags         Call
// @Accept       json
// @Produce      json
// @Param        request body StartCallRequest true "呼叫请求参数"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "公寓不存在或没有住户"
// @Failure      409  {object}  ErrorResponse "该公寓已有进行中的呼叫"
// @Failure      403  {object}  ErrorResponse "住户角色不能发起此类呼叫"
// @Router       /calls [post]
func (c *CallController) StartCall() {
	// 只有门卫能向公寓发起呼叫，住户走 callDoorman 方向
	role := currentRole(c.Ctx)
	if role != "doorman" && role != "admin" {
		response.Fail(c.Ctx, code.ErrPermissionDenied, nil)
		return
	}

	var req StartCallRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	doormanID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	result, err := callService.StartCall(doormanID, req.BuildingID, req.ApartmentNumber)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, result)
}

// CallDoorman 住户呼叫门卫
// @Summary      呼叫门卫
// @Description  住户向所在楼栋的在岗门卫发起对讲呼叫
// @Tags         Call
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  ErrorResponse "仅住户可以呼叫门卫"
// @Failure      404  {object}  ErrorResponse "楼栋当前没有在岗门卫"
// @Failure      409  {object}  ErrorResponse "该公寓已有进行中的呼叫"
// @Router       /calls/doorman [post]
func (c *CallController) CallDoorman() {
	if currentRole(c.Ctx) != "resident" {
		response.Fail(c.Ctx, code.ErrPermissionDenied, nil)
		return
	}

	residentID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	result, err := callService.CallDoorman(residentID)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, result)
}

// AnswerCall 接听呼叫
// @Summary      接听呼叫
// @Description  住户接听振铃中的呼叫，首个接听者获得媒体令牌，其余被叫转为错过
// @Tags         Call
// @Produce      json
// @Param        id path string true "呼叫ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  ErrorResponse "用户不是该呼叫的参与者"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "呼叫已不在振铃状态"
// @Router       /calls/{id}/answer [post]
func (c *CallController) AnswerCall() {
	callID := c.Ctx.Param("id")
	if callID == "" {
		response.ParamError(c.Ctx, "Call ID is required")
		return
	}

	userID, userType, ok := c.callerIdentity()
	if !ok {
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	result, err := callService.AnswerCall(callID, userID, userType)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, result)
}

// DeclineCall 拒接呼叫
// @Summary      拒接呼叫
// @Description  住户拒接振铃中的呼叫，全部被叫拒接后呼叫终止
// @Tags         Call
// @Accept       json
// @Produce      json
// @Param        id path string true "呼叫ID"
// @Param        request body DeclineCallRequest false "拒接原因"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /calls/{id}/decline [post]
func (c *CallController) DeclineCall() {
	callID := c.Ctx.Param("id")
	if callID == "" {
		response.ParamError(c.Ctx, "Call ID is required")
		return
	}

	var req DeclineCallRequest
	_ = c.Ctx.ShouldBindJSON(&req)

	userID, userType, ok := c.callerIdentity()
	if !ok {
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	call, err := callService.DeclineCall(callID, userID, userType, req.Reason)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, call)
}

// EndCall 结束呼叫
// @Summary      结束呼叫
// @Description  任一参与者结束呼叫，对已终止的呼叫为幂等操作
// @Tags         Call
// @Accept       json
// @Produce      json
// @Param        id path string true "呼叫ID"
// @Param        request body EndCallRequest false "终止原因"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /calls/{id}/end [post]
func (c *CallController) EndCall() {
	callID := c.Ctx.Param("id")
	if callID == "" {
		response.ParamError(c.Ctx, "Call ID is required")
		return
	}

	var req EndCallRequest
	_ = c.Ctx.ShouldBindJSON(&req)

	userID, userType, ok := c.callerIdentity()
	if !ok {
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	call, err := callService.EndCall(callID, userID, userType, models.EndCause(req.Cause))
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, call)
}

// GetCallStatus 查询呼叫状态
// @Summary      查询呼叫状态
// @Description  根据呼叫ID查询呼叫的当前状态与参与者
// @Tags         Call
// @Produce      json
// @Param        id path string true "呼叫ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  ErrorResponse
// @Router       /calls/{id} [get]
func (c *CallController) GetCallStatus() {
	callID := c.Ctx.Param("id")
	if callID == "" {
		response.ParamError(c.Ctx, "Call ID is required")
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	call, err := callService.GetCallStatus(callID)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, call)
}

// GetActiveCalls 查询进行中的呼叫
// @Summary      查询进行中的呼叫
// @Description  查询指定楼栋当前所有进行中的呼叫
// @Tags         Call
// @Produce      json
// @Param        building_id query int true "楼栋ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /calls/active [get]
func (c *CallController) GetActiveCalls() {
	buildingID, err := strconv.ParseUint(c.Ctx.Query("building_id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "building_id is required")
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	calls, err := callService.GetActiveCalls(uint(buildingID))
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, calls)
}

// GetPendingCalls 查询当前用户待接听的呼叫
// @Summary      查询待接听呼叫
// @Description  查询当前用户作为被叫、仍在振铃中的呼叫，供客户端重连后恢复振铃界面
// @Tags         Call
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /calls/pending [get]
func (c *CallController) GetPendingCalls() {
	userID, userType, ok := c.callerIdentity()
	if !ok {
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	calls, err := callService.GetPendingCalls(userID, userType)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, calls)
}

// GetCallHistory 查询呼叫历史
// @Summary      查询呼叫历史
// @Description  分页查询指定楼栋的呼叫记录
// @Tags         Call
// @Produce      json
// @Param        building_id query int true "楼栋ID"
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /calls/history [get]
func (c *CallController) GetCallHistory() {
	buildingID, err := strconv.ParseUint(c.Ctx.Query("building_id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "building_id is required")
		return
	}

	var pageQuery models.PageQuery
	_ = c.Ctx.ShouldBindQuery(&pageQuery)
	pageQuery.Normalize()

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	calls, total, err := callService.GetCallHistory(uint(buildingID), pageQuery.Page, pageQuery.PageSize)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, models.NewPagedResult(calls, total, pageQuery))
}

// GetCallStatistics 查询呼叫统计
// @Summary      查询呼叫统计
// @Description  查询指定楼栋的呼叫量、接听率与平均通话时长
// @Tags         Call
// @Produce      json
// @Param        building_id query int true "楼栋ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /calls/statistics [get]
func (c *CallController) GetCallStatistics() {
	buildingID, err := strconv.ParseUint(c.Ctx.Query("building_id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "building_id is required")
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	stats, err := callService.GetCallStatistics(uint(buildingID))
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, stats)
}
