package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/api/dto"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
)

// ==================== BillingController 计费控制器 ====================

// BillingController Stripe 结账、客户门户、订阅事件回调
type BillingController struct {
	billingService *service.BillingService
}

// NewBillingController 创建计费控制器
func NewBillingController(billingService *service.BillingService) *BillingController {
	return &BillingController{billingService: billingService}
}

// CreateCheckout 创建结账会话
// @Summary 创建订阅结账会话
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckoutRequest true "套餐与周期"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} map[string]interface{}
// @Router /billing/checkout [post]
func (c *BillingController) CreateCheckout(ctx *gin.Context) {
	var req dto.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	url, err := c.billingService.CreateCheckout(ctx.Request.Context(), merchantID, req.PlanID, req.Interval)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": dto.CheckoutResponse{URL: url},
	})
}

// CreatePortal 创建客户门户会话
// @Summary 跳转 Stripe 客户门户
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} map[string]interface{}
// @Router /billing/portal [post]
func (c *BillingController) CreatePortal(ctx *gin.Context) {
	merchantID := middleware.GetMerchantID(ctx)
	url, err := c.billingService.CreatePortal(ctx.Request.Context(), merchantID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": dto.CheckoutResponse{URL: url},
	})
}

// Webhook Stripe 订阅事件回调（无鉴权路由）
// @Summary Stripe Webhook
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /billing/webhook [post]
func (c *BillingController) Webhook(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		respondBindError(ctx, err)
		return
	}

	if err := c.billingService.HandleWebhook(ctx.Request.Context(), body); err != nil {
		// 回调处理失败记日志后返回 200，避免 Stripe 无限重试已知的坏事件
		logrus.Errorf("Stripe 回调处理失败: %v", err)
	}

	ctx.JSON(http.StatusOK, gin.H{"received": true})
}
