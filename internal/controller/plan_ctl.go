package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/api/dto"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
)

// ==================== PlanController 套餐控制器 ====================

// PlanController 套餐展示（商户端）与套餐管理（管理员）
type PlanController struct {
	planService *service.PlanService
}

// NewPlanController 创建套餐控制器
func NewPlanController(planService *service.PlanService) *PlanController {
	return &PlanController{planService: planService}
}

func toPlanInfo(p *model.Plan) dto.PlanInfo {
	return dto.PlanInfo{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		PriceMonthly:    float64(p.PriceMonthlyCents) / 100,
		PriceYearly:     float64(p.PriceYearlyCents) / 100,
		ProductLimit:    p.ProductLimit,
		OrderLimit:      p.OrderLimit,
		TeamMemberLimit: p.TeamMemberLimit,
		AdsPerDay:       p.AdsPerDay,
		Features:        []string(p.Features),
		IsActive:        p.IsActive,
	}
}

func toPlanInput(req *dto.SavePlanRequest) *service.PlanInput {
	return &service.PlanInput{
		Name:               req.Name,
		Description:        req.Description,
		PriceMonthly:       req.PriceMonthly,
		PriceYearly:        req.PriceYearly,
		ProductLimit:       req.ProductLimit,
		OrderLimit:         req.OrderLimit,
		TeamMemberLimit:    req.TeamMemberLimit,
		AdsPerDay:          req.AdsPerDay,
		Features:           req.Features,
		StripePriceMonthly: req.StripePriceMonthly,
		StripePriceYearly:  req.StripePriceYearly,
		IsActive:           req.IsActive,
	}
}

// ListPublic 商户端套餐列表
// @Summary 可选套餐列表
// @Tags Plan
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PlanInfo
// @Router /plans [get]
func (c *PlanController) ListPublic(ctx *gin.Context) {
	plans, err := c.planService.List(ctx.Request.Context(), true)
	if err != nil {
		respondError(ctx, err)
		return
	}

	list := make([]dto.PlanInfo, len(plans))
	for i := range plans {
		list[i] = toPlanInfo(&plans[i])
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": list,
	})
}

// ==================== 管理端 ====================

// ListAll 全部套餐（含下架）
// @Summary 全部套餐（管理员）
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PlanInfo
// @Router /admin/plans [get]
func (c *PlanController) ListAll(ctx *gin.Context) {
	plans, err := c.planService.List(ctx.Request.Context(), false)
	if err != nil {
		respondError(ctx, err)
		return
	}

	list := make([]dto.PlanInfo, len(plans))
	for i := range plans {
		list[i] = toPlanInfo(&plans[i])
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": list,
	})
}

// Create 创建套餐
// @Summary 创建套餐（管理员）
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SavePlanRequest true "套餐信息"
// @Success 200 {object} dto.PlanInfo
// @Failure 400 {object} map[string]interface{}
// @Router /admin/plans [post]
func (c *PlanController) Create(ctx *gin.Context) {
	var req dto.SavePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	plan, err := c.planService.Create(ctx.Request.Context(), toPlanInput(&req))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "创建成功",
		"data":    toPlanInfo(plan),
	})
}

// Update 更新套餐
// @Summary 更新套餐（管理员）
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "套餐 ID"
// @Param request body dto.SavePlanRequest true "套餐信息"
// @Success 200 {object} dto.PlanInfo
// @Failure 400 {object} map[string]interface{}
// @Router /admin/plans/{id} [put]
func (c *PlanController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SavePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	plan, err := c.planService.Update(ctx.Request.Context(), id, toPlanInput(&req))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "更新成功",
		"data":    toPlanInfo(plan),
	})
}

// Deactivate 下架套餐
// @Summary 下架套餐（管理员，存量订阅不受影响）
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "套餐 ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/plans/{id} [delete]
func (c *PlanController) Deactivate(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.planService.Deactivate(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "套餐已下架",
	})
}
