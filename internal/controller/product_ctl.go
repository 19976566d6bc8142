package controller

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/api/dto"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/pricing"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
)

// ==================== ProductController 商品控制器 ====================

// ProductController 目录、导入定价、批量改价、远端推送
type ProductController struct {
	productService *service.ProductService
	catalogService *service.CatalogService
}

// NewProductController 创建商品控制器
func NewProductController(productService *service.ProductService, catalogService *service.CatalogService) *ProductController {
	return &ProductController{
		productService: productService,
		catalogService: catalogService,
	}
}

func toProductInfo(p *model.Product) dto.ProductInfo {
	return dto.ProductInfo{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Tags:            []string(p.Tags),
		ImageURL:        p.ImageURL,
		SupplierPrice:   p.GetSupplierPrice(),
		MerchantPrice:   p.GetMerchantPrice(),
		UnitProfit:      float64(p.UnitProfitCents()) / 100,
		MarkupType:      p.MarkupType,
		MarkupValue:     p.MarkupValue,
		Quantity:        p.Quantity,
		Status:          p.Status,
		SyncStatus:      p.SyncStatus,
		RemoteProductID: p.RemoteProductID,
	}
}

func toProductList(items []model.Product, total int64) dto.ProductListResponse {
	list := make([]dto.ProductInfo, len(items))
	for i := range items {
		list[i] = toProductInfo(&items[i])
	}
	return dto.ProductListResponse{List: list, Total: total}
}

func toRule(m dto.MarkupRequest) pricing.Rule {
	return pricing.Rule{Type: pricing.RuleType(m.Type), Value: m.Value}
}

// ==================== 目录 ====================

// CreateCatalogProduct 创建全局目录商品
// @Summary 创建目录商品（供应商）
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCatalogProductRequest true "商品信息"
// @Success 200 {object} dto.ProductInfo
// @Failure 400 {object} map[string]interface{}
// @Router /catalog/products [post]
func (c *ProductController) CreateCatalogProduct(ctx *gin.Context) {
	var req dto.CreateCatalogProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	supplierID := middleware.GetMerchantID(ctx)
	product, err := c.productService.CreateCatalogProduct(
		ctx.Request.Context(),
		supplierID,
		req.Title,
		req.Description,
		int64(math.Round(req.SupplierPrice*100)),
		req.Quantity,
		req.Tags,
	)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "创建成功",
		"data":    toProductInfo(product),
	})
}

// SearchCatalog 目录搜索（AI 扩词，故障时 ILIKE 兜底）
// @Summary 目录搜索
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param q query string false "搜索词"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.ProductListResponse
// @Router /catalog/products [get]
func (c *ProductController) SearchCatalog(ctx *gin.Context) {
	var req dto.CatalogSearchRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	items, total, err := c.catalogService.Search(ctx.Request.Context(), req.Query, req.Page, req.PageSize)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": toProductList(items, total),
	})
}

// ==================== 导入与定价 ====================

// ImportProduct 从目录导入商品
// @Summary 导入商品并定价
// @Tags Product
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ImportProductRequest true "导入与加价规则"
// @Success 200 {object} dto.ProductInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /products/import [post]
func (c *ProductController) ImportProduct(ctx *gin.Context) {
	var req dto.ImportProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	product, err := c.productService.ImportProduct(ctx.Request.Context(), merchantID, req.ProductID, toRule(req.Markup))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "导入成功",
		"data":    toProductInfo(product),
	})
}

// Reprice 单品改价
// @Summary 单品改价
// @Tags Product
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Param request body dto.RepriceRequest true "加价规则"
// @Success 200 {object} dto.ProductInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /products/{id}/price [put]
func (c *ProductController) Reprice(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.RepriceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	product, err := c.productService.Reprice(ctx.Request.Context(), merchantID, id, toRule(req.Markup))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "改价成功",
		"data":    toProductInfo(product),
	})
}

// BulkReprice 批量改价
// @Summary 批量改价（单品失败不中断整批）
// @Tags Product
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkRepriceRequest true "商品与加价规则"
// @Success 200 {object} dto.BulkRepriceResponse
// @Failure 400 {object} map[string]interface{}
// @Router /products/bulk-reprice [post]
func (c *ProductController) BulkReprice(ctx *gin.Context) {
	var req dto.BulkRepriceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	result, err := c.productService.BulkReprice(ctx.Request.Context(), merchantID, req.ProductIDs, toRule(req.Markup))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": toBulkResponse(result),
	})
}

func toBulkResponse(r *apperr.BatchResult) dto.BulkRepriceResponse {
	resp := dto.BulkRepriceResponse{
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
	}
	for _, e := range r.Errors {
		resp.Errors = append(resp.Errors, dto.BulkItemError{ID: e.ID, Error: e.Err})
	}
	return resp
}

// ==================== 查询与移除 ====================

// List 商户商品列表
// @Summary 商品列表
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态"
// @Param keyword query string false "关键词"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.ProductListResponse
// @Router /products [get]
func (c *ProductController) List(ctx *gin.Context) {
	var req dto.ProductListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	items, total, err := c.productService.List(ctx.Request.Context(), repository.ProductFilter{
		MerchantID: &merchantID,
		Status:     req.Status,
		Keyword:    req.Keyword,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": toProductList(items, total),
	})
}

// GetDetail 商品详情
// @Summary 商品详情（成本/售价/利润视图）
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Success 200 {object} dto.ProductInfo
// @Failure 404 {object} map[string]interface{}
// @Router /products/{id} [get]
func (c *ProductController) GetDetail(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	product, err := c.productService.GetDetail(ctx.Request.Context(), merchantID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": toProductInfo(product),
	})
}

// Remove 从店铺移除（目录条目保留）
// @Summary 从店铺移除商品
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /products/{id} [delete]
func (c *ProductController) Remove(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	if err := c.productService.RemoveFromStore(ctx.Request.Context(), merchantID, id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "移除成功",
	})
}

// PushToStore 推送到 Shopify 店铺
// @Summary 推送商品到店铺
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /products/{id}/push [post]
func (c *ProductController) PushToStore(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	if err := c.productService.PushToStore(ctx.Request.Context(), merchantID, id); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "推送成功",
	})
}
