package controller

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/api/dto"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
)

// ==================== OrderController 订单控制器 ====================

// OrderController 下单结算、支付确认、履约流转、统计看板
type OrderController struct {
	orderService *service.OrderService
}

// NewOrderController 创建订单控制器
func NewOrderController(orderService *service.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

func toOrderInfo(o *model.Order) dto.OrderInfo {
	items := make([]dto.OrderItemInfo, len(o.Items))
	for i, it := range o.Items {
		items[i] = dto.OrderItemInfo{
			ProductID:         it.ProductID,
			Title:             it.Title,
			Quantity:          it.Quantity,
			Price:             it.GetPrice(),
			Cost:              it.GetCost(),
			Profit:            float64(it.ProfitCents) / 100,
			FulfillmentStatus: it.FulfillmentStatus,
		}
	}
	return dto.OrderInfo{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerName:      o.CustomerName,
		CustomerEmail:     o.CustomerEmail,
		Items:             items,
		Subtotal:          float64(o.SubtotalCents) / 100,
		Shipping:          float64(o.ShippingCents) / 100,
		Tax:               float64(o.TaxCents) / 100,
		Discount:          float64(o.DiscountCents) / 100,
		Total:             o.GetTotal(),
		TotalCost:         float64(o.TotalCostCents) / 100,
		TotalProfit:       o.GetTotalProfit(),
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		PaidAt:            o.PaidAt,
		CreatedAt:         o.CreatedAt,
	}
}

func dollarsToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Create 创建订单
// @Summary 创建订单（价格/成本/利润按下单时刻快照）
// @Tags Order
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateOrderRequest true "订单信息"
// @Success 200 {object} dto.OrderInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /orders [post]
func (c *OrderController) Create(ctx *gin.Context) {
	var req dto.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	input := &service.CreateOrderInput{
		OrderNumber:     req.OrderNumber,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		ShippingCents:   dollarsToCents(req.Shipping),
		TaxCents:        dollarsToCents(req.Tax),
		DiscountCents:   dollarsToCents(req.Discount),
		Paid:            req.Paid,
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, service.CreateOrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	merchantID := middleware.GetMerchantID(ctx)
	order, err := c.orderService.Create(ctx.Request.Context(), merchantID, input)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "下单成功",
		"data":    toOrderInfo(order),
	})
}

// List 订单列表
// @Summary 订单列表
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param status query string false "订单状态"
// @Param fulfillment_status query string false "履约状态"
// @Param keyword query string false "订单号/买家关键词"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.OrderListResponse
// @Router /orders [get]
func (c *OrderController) List(ctx *gin.Context) {
	var req dto.OrderListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	orders, total, err := c.orderService.List(ctx.Request.Context(), repository.OrderFilter{
		MerchantID:        merchantID,
		Status:            req.Status,
		FulfillmentStatus: req.FulfillmentStatus,
		Keyword:           req.Keyword,
		Page:              req.Page,
		PageSize:          req.PageSize,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	list := make([]dto.OrderInfo, len(orders))
	for i := range orders {
		list[i] = toOrderInfo(&orders[i])
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": dto.OrderListResponse{List: list, Total: total},
	})
}

// GetDetail 订单详情
// @Summary 订单详情
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Success 200 {object} dto.OrderInfo
// @Failure 404 {object} map[string]interface{}
// @Router /orders/{id} [get]
func (c *OrderController) GetDetail(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	order, err := c.orderService.GetDetail(ctx.Request.Context(), merchantID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": toOrderInfo(order),
	})
}

// MarkPaid 标记订单已支付
// @Summary 标记已支付（幂等，销售额只计入一次）
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Success 200 {object} dto.OrderInfo
// @Failure 400 {object} map[string]interface{}
// @Router /orders/{id}/pay [post]
func (c *OrderController) MarkPaid(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	order, err := c.orderService.MarkPaid(ctx.Request.Context(), merchantID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "支付确认成功",
		"data":    toOrderInfo(order),
	})
}

// UpdateItemFulfillment 订单项履约流转
// @Summary 更新订单项履约状态（订单级状态自动派生）
// @Tags Order
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Param request body dto.UpdateItemFulfillmentRequest true "目标状态"
// @Success 200 {object} dto.OrderInfo
// @Failure 400 {object} map[string]interface{}
// @Router /orders/{id}/fulfillment [put]
func (c *OrderController) UpdateItemFulfillment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateItemFulfillmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	order, err := c.orderService.UpdateItemFulfillment(ctx.Request.Context(), merchantID, id, req.ProductID, req.Status)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "履约状态更新成功",
		"data":    toOrderInfo(order),
	})
}

// Cancel 取消订单
// @Summary 取消订单（已发货/已签收条目存在时拒绝）
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Success 200 {object} dto.OrderInfo
// @Failure 400 {object} map[string]interface{}
// @Router /orders/{id}/cancel [post]
func (c *OrderController) Cancel(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	merchantID := middleware.GetMerchantID(ctx)
	order, err := c.orderService.Cancel(ctx.Request.Context(), merchantID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "订单已取消",
		"data":    toOrderInfo(order),
	})
}

// GetStats 订单统计
// @Summary 订单统计看板
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "起始日期 2006-01-02"
// @Param end_date query string false "结束日期 2006-01-02"
// @Success 200 {object} dto.OrderStatsResponse
// @Router /orders/stats [get]
func (c *OrderController) GetStats(ctx *gin.Context) {
	var req dto.OrderStatsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	// 默认统计最近 30 天
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			respondBindError(ctx, err)
			return
		}
		start = t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			respondBindError(ctx, err)
			return
		}
		// 含当日
		end = t.AddDate(0, 0, 1)
	}

	merchantID := middleware.GetMerchantID(ctx)
	stats, err := c.orderService.GetStats(ctx.Request.Context(), merchantID, start, end)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": dto.OrderStatsResponse{
			TotalOrders:      stats.TotalOrders,
			PendingOrders:    stats.PendingOrders,
			ProcessingOrders: stats.ProcessingOrders,
			CompletedOrders:  stats.CompletedOrders,
			CancelledOrders:  stats.CancelledOrders,
			Revenue:          float64(stats.RevenueCents) / 100,
			Profit:           float64(stats.ProfitCents) / 100,
		},
	})
}
