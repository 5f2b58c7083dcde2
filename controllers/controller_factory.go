package controllers

import (
	"errors"

	"interfone-http-service/internal/error/code"
	"interfone-http-service/internal/error/response"
	"interfone-http-service/services"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// BaseController 是所有控制器的基础接口
type BaseController interface {
	// 获取服务容器
	GetContainer() *container.ServiceContainer
	// 获取Gin上下文
	GetContext() *gin.Context
}

// BaseControllerImpl 是控制器的基础实现
type BaseControllerImpl struct {
	Container *container.ServiceContainer
	Context   *gin.Context
}

// GetContainer 实现 BaseController 接口
func (c *BaseControllerImpl) GetContainer() *container.ServiceContainer {
	return c.Container
}

// GetContext 实现 BaseController 接口
func (c *BaseControllerImpl) GetContext() *gin.Context {
	return c.Context
}

// ControllerFactory 用于创建控制器的工厂
type ControllerFactory struct {
	Container *container.ServiceContainer
}

// NewControllerFactory 创建一个新的控制器工厂
func NewControllerFactory(container *container.ServiceContainer) *ControllerFactory {
	return &ControllerFactory{
		Container: container,
	}
}

// currentUserID 从上下文中取出认证中间件写入的用户ID。
// JWT数值声明经MapClaims解析后为float64。
func currentUserID(ctx *gin.Context) (uint, bool) {
	v, exists := ctx.Get("userID")
	if !exists {
		return 0, false
	}
	switch id := v.(type) {
	case float64:
		return uint(id), true
	case uint:
		return id, true
	case int:
		return uint(id), true
	default:
		return 0, false
	}
}

// currentRole 从上下文中取出认证中间件写入的角色
func currentRole(ctx *gin.Context) string {
	v, exists := ctx.Get("role")
	if !exists {
		return ""
	}
	role, _ := v.(string)
	return role
}

// failWithServiceError 将业务哨兵错误映射为统一错误码响应
func failWithServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCallNotFound):
		response.Fail(ctx, code.ErrCallNotFound, nil)
	case errors.Is(err, services.ErrConflictingCall):
		response.Fail(ctx, code.ErrConflictingCall, nil)
	case errors.Is(err, services.ErrCallNotRinging):
		response.Fail(ctx, code.ErrCallNotRinging, nil)
	case errors.Is(err, services.ErrCallTerminated):
		response.Fail(ctx, code.ErrCallTerminated, nil)
	case errors.Is(err, services.ErrNotAParticipant):
		response.Fail(ctx, code.ErrNotAParticipant, nil)
	case errors.Is(err, services.ErrNoResidents):
		response.Fail(ctx, code.ErrNoResidents, nil)
	case errors.Is(err, services.ErrNoActiveShift):
		response.Fail(ctx, code.ErrNoActiveShift, nil)
	case errors.Is(err, services.ErrAlreadyOnDuty):
		response.Fail(ctx, code.ErrAlreadyOnDuty, nil)
	case errors.Is(err, services.ErrBuildingOccupied):
		response.Fail(ctx, code.ErrBuildingOccupied, nil)
	case errors.Is(err, services.ErrBuildingNotFound):
		response.Fail(ctx, code.ErrBuildingNotFound, nil)
	case errors.Is(err, services.ErrApartmentNotFound):
		response.Fail(ctx, code.ErrApartmentNotFound, nil)
	case errors.Is(err, services.ErrResidentNotFound):
		response.Fail(ctx, code.ErrResidentNotFound, nil)
	case errors.Is(err, services.ErrDoormanNotFound):
		response.Fail(ctx, code.ErrDoormanNotFound, nil)
	case errors.Is(err, services.ErrJobNotFound):
		response.Fail(ctx, code.ErrJobNotFound, nil)
	case errors.Is(err, services.ErrMediaTokenExpired):
		response.Fail(ctx, code.ErrMediaTokenExpired, nil)
	case errors.Is(err, services.ErrMediaTokenScope), errors.Is(err, services.ErrMediaTokenInvalid):
		response.Fail(ctx, code.ErrMediaTokenScope, nil)
	default:
		response.FailWithMessage(ctx, code.ErrUnknown, err.Error(), nil)
	}
}
