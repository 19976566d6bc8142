package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/api/dto"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
)

// ==================== AdController 广告创意控制器 ====================

// AdController AI 广告创意生成与查询
type AdController struct {
	adService *service.AdService
}

// NewAdController 创建广告控制器
func NewAdController(adService *service.AdService) *AdController {
	return &AdController{adService: adService}
}

func toAdCreativeInfo(a *model.AdCreative) dto.AdCreativeInfo {
	return dto.AdCreativeInfo{
		ID:           a.ID,
		ProductID:    a.ProductID,
		Headline:     a.Headline,
		Body:         a.Body,
		CallToAction: a.CallToAction,
		Hashtags:     a.Hashtags,
		ImageURL:     a.ImageURL,
		Model:        a.Model,
		CreatedAt:    a.CreatedAt,
	}
}

// Generate 生成广告创意
// @Summary 为商品生成广告创意（消耗当日配额）
// @Tags Ad
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GenerateAdRequest true "商品与指令"
// @Success 200 {object} dto.AdCreativeInfo
// @Failure 403 {object} map[string]interface{}
// @Router /ads/generate [post]
func (c *AdController) Generate(ctx *gin.Context) {
	var req dto.GenerateAdRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	creative, err := c.adService.Generate(ctx.Request.Context(), merchantID, req.ProductID, req.Instruction)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "生成成功",
		"data":    toAdCreativeInfo(creative),
	})
}

// List 广告创意列表
// @Summary 广告创意列表
// @Tags Ad
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.AdListResponse
// @Router /ads [get]
func (c *AdController) List(ctx *gin.Context) {
	var req dto.AdListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	creatives, total, err := c.adService.List(ctx.Request.Context(), merchantID, req.Page, req.PageSize)
	if err != nil {
		respondError(ctx, err)
		return
	}

	list := make([]dto.AdCreativeInfo, len(creatives))
	for i := range creatives {
		list[i] = toAdCreativeInfo(&creatives[i])
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": dto.AdListResponse{List: list, Total: total},
	})
}

// GetDetail 广告创意详情
// @Summary 广告创意详情
// @Tags Ad
// @Produce json
// @Security BearerAuth
// @Param id path int true "创意 ID"
// @Success 200 {object} dto.AdCreativeInfo
// @Failure 404 {object} map[string]interface{}
// @Router /ads/{id} [get]
func (c *AdController) GetDetail(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	creative, err := c.adService.GetDetail(ctx.Request.Context(), merchantID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": toAdCreativeInfo(creative),
	})
}
