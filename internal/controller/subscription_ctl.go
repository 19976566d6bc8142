package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/api/dto"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
)

// ==================== SubscriptionController 订阅控制器 ====================

// SubscriptionController 订阅状态、用量看板、套餐切换、团队成员
type SubscriptionController struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionController 创建订阅控制器
func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

func toSubscriptionInfo(sub *model.Subscription) dto.SubscriptionInfo {
	info := dto.SubscriptionInfo{
		Status:                sub.Status,
		PlanID:                sub.PlanID,
		LifetimeSales:         float64(sub.LifetimeSalesCents) / 100,
		ProgressToFreeForLife: sub.ProgressToFreeForLife,
		FreeForLifeAt:         sub.FreeForLifeAt,
		CurrentPeriodEnd:      sub.CurrentPeriodEnd,
	}
	if sub.Plan != nil {
		info.PlanName = sub.Plan.Name
	}
	return info
}

func toTeamMemberInfo(m *model.TeamMember) dto.TeamMemberInfo {
	return dto.TeamMemberInfo{
		ID:     m.ID,
		Email:  m.Email,
		Name:   m.Name,
		Status: m.Status,
	}
}

// GetSubscription 当前订阅
// @Summary 当前订阅状态
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubscriptionInfo
// @Failure 404 {object} map[string]interface{}
// @Router /subscription [get]
func (c *SubscriptionController) GetSubscription(ctx *gin.Context) {
	merchantID := middleware.GetMerchantID(ctx)
	sub, err := c.subscriptionService.GetByMerchant(ctx.Request.Context(), merchantID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": toSubscriptionInfo(sub),
	})
}

// GetUsage 用量看板
// @Summary 各项资源用量与限额
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.UsageSummary
// @Router /subscription/usage [get]
func (c *SubscriptionController) GetUsage(ctx *gin.Context) {
	merchantID := middleware.GetMerchantID(ctx)
	usage, err := c.subscriptionService.GetUsage(ctx.Request.Context(), merchantID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": usage,
	})
}

// ChangePlan 切换套餐
// @Summary 切换套餐（终身免费状态不受影响）
// @Tags Subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePlanRequest true "目标套餐"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /subscription/plan [put]
func (c *SubscriptionController) ChangePlan(ctx *gin.Context) {
	var req dto.ChangePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	if err := c.subscriptionService.ChangePlan(ctx.Request.Context(), merchantID, req.PlanID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "套餐切换成功",
	})
}

// ==================== 团队成员 ====================

// InviteTeamMember 邀请团队成员
// @Summary 邀请团队成员（受套餐成员限额约束）
// @Tags Team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.InviteTeamMemberRequest true "成员信息"
// @Success 200 {object} dto.TeamMemberInfo
// @Failure 403 {object} map[string]interface{}
// @Router /team/members [post]
func (c *SubscriptionController) InviteTeamMember(ctx *gin.Context) {
	var req dto.InviteTeamMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	member, err := c.subscriptionService.InviteTeamMember(ctx.Request.Context(), merchantID, req.Email, req.Name)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "邀请成功",
		"data":    toTeamMemberInfo(member),
	})
}

// ListTeamMembers 团队成员列表
// @Summary 团队成员列表
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TeamMemberInfo
// @Router /team/members [get]
func (c *SubscriptionController) ListTeamMembers(ctx *gin.Context) {
	merchantID := middleware.GetMerchantID(ctx)
	members, err := c.subscriptionService.ListTeamMembers(ctx.Request.Context(), merchantID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	list := make([]dto.TeamMemberInfo, len(members))
	for i := range members {
		list[i] = toTeamMemberInfo(&members[i])
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": list,
	})
}

// RemoveTeamMember 移除团队成员
// @Summary 移除团队成员，释放成员名额
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Param id path int true "成员 ID"
// @Success 200 {object} map[string]interface{}
// @Router /team/members/{id} [delete]
func (c *SubscriptionController) RemoveTeamMember(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	if err := c.subscriptionService.RemoveTeamMember(ctx.Request.Context(), merchantID, id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "移除成功",
	})
}
