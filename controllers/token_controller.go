package controllers

import (
	"net/http"
	"time"

	"interfone-http-service/config"
	"interfone-http-service/internal/error/response"
	"interfone-http-service/models"
	"interfone-http-service/services"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceTokenController 定义媒体令牌控制器接口
type InterfaceTokenController interface {
	GenerateToken()
	ValidateToken()
	GetUserSig()
}

// TokenController 处理媒体令牌签发请求
type TokenController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewTokenController 创建一个新的媒体令牌控制器
func NewTokenController(ctx *gin.Context, container *container.ServiceContainer) *TokenController {
	return &TokenController{
		Ctx:       ctx,
		Container: container,
	}
}

type (
	// GenerateTokenRequest 签发媒体令牌请求
	GenerateTokenRequest struct {
		ChannelName string `json:"channel_name" binding:"required" example:"call-550e8400-e29b-41d4-a716-446655440000"`
		Role        string `json:"role" example:"publisher"`
		TTLSeconds  int    `json:"ttl_seconds" example:"1800"`
	}

	// ValidateTokenRequest 校验媒体令牌请求
	ValidateTokenRequest struct {
		Token       string `json:"token" binding:"required"`
		ChannelName string `json:"channel_name" binding:"required"`
	}
)

// HandleTokenFunc 返回一个处理媒体令牌请求的Gin处理函数
func HandleTokenFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewTokenController(ctx, container)

		switch method {
		case "generateToken":
			controller.GenerateToken()
		case "validateToken":
			controller.ValidateToken()
		case "getUserSig":
			controller.GetUserSig()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// subjectForContext 生成当前用户的媒体令牌主体标识
func (c *TokenController) subjectForContext() (string, bool) {
	userID, ok := currentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return "", false
	}

	role := currentRole(c.Ctx)
	switch role {
	case "doorman", "admin":
		return services.SubjectFor(models.UserTypeDoorman, userID), true
	case "resident":
		return services.SubjectFor(models.UserTypeResident, userID), true
	default:
		response.Unauthorized(c.Ctx)
		return "", false
	}
}

// GenerateToken 签发媒体令牌
// @Summary      签发媒体令牌
// @Description  为当前用户签发加入指定媒体频道的RTC与RTM令牌，令牌绑定频道与用户
// @Tags         Token
// @Accept       json
// @Produce      json
// @Param        request body GenerateTokenRequest true "令牌请求参数"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse "请求频率过高"
// @Router       /tokens [post]
func (c *TokenController) GenerateToken() {
	var req GenerateTokenRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	subject, ok := c.subjectForContext()
	if !ok {
		return
	}

	tokenService := c.Container.GetService("media_token").(services.InterfaceMediaTokenService)

	// 指定了角色或有效期时逐项签发，否则返回默认令牌包
	if req.Role != "" || req.TTLSeconds > 0 {
		role := req.Role
		if role == "" {
			role = services.MediaRolePublisher
		}
		ttl := time.Duration(req.TTLSeconds) * time.Second
		token, err := tokenService.Issue(req.ChannelName, subject, role, ttl)
		if err != nil {
			failWithServiceError(c.Ctx, err)
			return
		}
		response.Success(c.Ctx, token)
		return
	}

	// 同一用户在TTL窗口内重复请求时返回缓存的令牌包
	userID, _ := currentUserID(c.Ctx)
	redisService, _ := c.Container.GetService("redis").(*services.RedisService)
	if redisService != nil {
		var cached services.MediaTokenBundle
		if err := redisService.GetMediaToken(userID, req.ChannelName, &cached); err == nil {
			response.Success(c.Ctx, &cached)
			return
		}
	}

	bundle, err := tokenService.IssueBundle(req.ChannelName, subject)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	if redisService != nil {
		if err := redisService.CacheMediaToken(userID, req.ChannelName, bundle, time.Until(bundle.ExpiresAt)); err != nil {
			config.Warning("[TOKEN] 缓存媒体令牌失败: %v", err)
		}
	}

	response.Success(c.Ctx, bundle)
}

// ValidateToken 校验媒体令牌
// @Summary      校验媒体令牌
// @Description  校验媒体令牌是否有效且与当前用户和频道匹配
// @Tags         Token
// @Accept       json
// @Produce      json
// @Param        request body ValidateTokenRequest true "校验请求参数"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse "令牌过期或与频道、用户不匹配"
// @Router       /tokens/validate [post]
func (c *TokenController) ValidateToken() {
	var req ValidateTokenRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	subject, ok := c.subjectForContext()
	if !ok {
		return
	}

	tokenService := c.Container.GetService("media_token").(services.InterfaceMediaTokenService)
	claims, err := tokenService.Validate(req.Token, req.ChannelName, subject)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"valid":      true,
		"channel":    claims.Channel,
		"subject":    claims.Subject,
		"media_role": claims.Role,
		"kind":       claims.Kind,
		"expires_at": claims.ExpiresAt,
	})
}

// GetUserSig 获取腾讯云UserSig
// @Summary      获取腾讯云UserSig
// @Description  为旧版大堂设备签发腾讯云TRTC的UserSig
// @Tags         Token
// @Produce      json
// @Param        user_id query string true "设备用户ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /tokens/usersig [get]
func (c *TokenController) GetUserSig() {
	userID := c.Ctx.Query("user_id")
	if userID == "" {
		response.ParamError(c.Ctx, "user_id is required")
		return
	}

	rtcService := c.Container.GetService("tencent_rtc").(services.InterfaceTencentRTCService)
	info, err := rtcService.GetUserSig(userID)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, info)
}
