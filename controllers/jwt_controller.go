package controllers

import (
	"net/http"

	"interfone-http-service/internal/error/code"
	"interfone-http-service/internal/error/response"
	"interfone-http-service/models"
	"interfone-http-service/services"
	"interfone-http-service/services/container"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// InterfaceJWTController 定义认证控制器接口
type InterfaceJWTController interface {
	Login()
}

// JWTController 处理身份验证请求
type JWTController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewJWTController 创建一个新的认证控制器
func NewJWTController(ctx *gin.Context, container *container.ServiceContainer) *JWTController {
	return &JWTController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"porteiro01"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// LoginData 表示登录成功后返回的数据
type LoginData struct {
	Token      string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID     uint   `json:"user_id" example:"1"`
	Role       string `json:"role" example:"doorman"`
	Name       string `json:"name" example:"João"`
	BuildingID *uint  `json:"building_id,omitempty" example:"1"`
}

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Code    int    `json:"code" example:"100004"`
	Error   string `json:"error" example:"Invalid or expired token"`
}

// HandleJWTFunc 返回一个处理认证请求的Gin处理函数
func HandleJWTFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewJWTController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// Login 处理用户登录
// @Summary      User Login
// @Description  Process user login and return JWT token with different permissions based on user role
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login request parameters"
// @Success      200  {object}  response.Response{data=LoginData}  "Success response with token"
// @Failure      400  {object}  ErrorResponse  "Bad request"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (c *JWTController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "Invalid request parameters")
		return
	}

	// 获取数据库连接
	db := c.Container.GetDB()
	// 获取JWT服务
	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)

	// 尝试查找管理员用户
	var admin models.Admin
	if err := db.Where("username = ?", req.Username).First(&admin).Error; err == nil {
		// 比较密码
		if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err == nil {
			token, err := jwtService.GenerateToken(admin.ID, "admin", nil)
			if err != nil {
				response.FailWithMessage(c.Ctx, code.ErrUnknown, "Failed to generate token", nil)
				return
			}

			response.Success(c.Ctx, LoginData{
				Token:  token,
				UserID: admin.ID,
				Role:   "admin",
				Name:   admin.Username,
			})
			return
		}
	}

	// 尝试查找门卫用户
	var doorman models.Doorman
	if err := db.Where("username = ?", req.Username).First(&doorman).Error; err == nil {
		if err := bcrypt.CompareHashAndPassword([]byte(doorman.Password), []byte(req.Password)); err == nil {
			buildingID := doorman.BuildingID
			token, err := jwtService.GenerateToken(doorman.ID, "doorman", &buildingID)
			if err != nil {
				response.FailWithMessage(c.Ctx, code.ErrUnknown, "Failed to generate token", nil)
				return
			}

			response.Success(c.Ctx, LoginData{
				Token:      token,
				UserID:     doorman.ID,
				Role:       "doorman",
				Name:       doorman.Name,
				BuildingID: &buildingID,
			})
			return
		}
	}

	// 尝试通过手机号查找住户
	var resident models.Resident
	if err := db.Where("phone = ?", req.Username).First(&resident).Error; err == nil {
		if err := bcrypt.CompareHashAndPassword([]byte(resident.Password), []byte(req.Password)); err == nil {
			token, err := jwtService.GenerateToken(resident.ID, "resident", nil)
			if err != nil {
				response.FailWithMessage(c.Ctx, code.ErrUnknown, "Failed to generate token", nil)
				return
			}

			response.Success(c.Ctx, LoginData{
				Token:  token,
				UserID: resident.ID,
				Role:   "resident",
				Name:   resident.Name,
			})
			return
		}
	}

	// 所有角色都匹配失败
	response.Fail(c.Ctx, code.ErrUserPasswordIncorrect, nil)
}
