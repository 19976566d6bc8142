package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/api/dto"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
)

// ==================== AuthController 认证控制器 ====================

// AuthController 注册/登录/店铺绑定
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController 创建认证控制器
func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func toMerchantInfo(m *model.Merchant) dto.MerchantInfo {
	return dto.MerchantInfo{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Role:        m.Role,
		StoreDomain: m.StoreDomain,
		CreatedAt:   m.CreatedAt,
	}
}

// Register 商户注册
// @Summary 商户注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册信息"
// @Success 200 {object} dto.MerchantInfo
// @Failure 400 {object} map[string]interface{}
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchant, err := c.authService.Register(ctx.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "注册成功",
		"data":    toMerchantInfo(merchant),
	})
}

// Login 商户登录
// @Summary 商户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchant, pair, err := c.authService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "登录成功",
		"data": dto.LoginResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
			Merchant:     toMerchantInfo(merchant),
		},
	})
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh Token"
// @Success 200 {object} dto.RefreshTokenResponse
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	pair, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "刷新成功",
		"data": dto.RefreshTokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
		},
	})
}

// GetProfile 获取当前商户信息
// @Summary 获取当前商户信息
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MerchantInfo
// @Failure 401 {object} map[string]interface{}
// @Router /auth/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	merchantID := middleware.GetMerchantID(ctx)

	merchant, err := c.authService.GetProfile(ctx.Request.Context(), merchantID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": toMerchantInfo(merchant),
	})
}

// ConnectStore 发起 Shopify 店铺绑定
// @Summary 发起店铺绑定
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConnectStoreRequest true "店铺域名"
// @Success 200 {object} dto.ConnectStoreResponse
// @Failure 400 {object} map[string]interface{}
// @Router /store/connect [post]
func (c *AuthController) ConnectStore(ctx *gin.Context) {
	var req dto.ConnectStoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	state, err := c.authService.BeginStoreConnect(ctx.Request.Context(), merchantID, req.ShopDomain)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": dto.ConnectStoreResponse{State: state},
	})
}

// StoreCallback Shopify 授权回调
// @Summary 店铺授权回调
// @Tags Auth
// @Produce json
// @Param state query string true "OAuth state"
// @Param code query string true "授权码"
// @Success 200 {object} dto.MerchantInfo
// @Failure 400 {object} map[string]interface{}
// @Router /store/callback [get]
func (c *AuthController) StoreCallback(ctx *gin.Context) {
	state := ctx.Query("state")
	code := ctx.Query("code")
	if state == "" || code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "缺少 state 或 code",
		})
		return
	}

	merchant, err := c.authService.CompleteStoreConnect(ctx.Request.Context(), state, code)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "店铺绑定成功",
		"data":    toMerchantInfo(merchant),
	})
}
