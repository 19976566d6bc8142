package dto

import "time"

// ==================== 请求 ====================

// OrderItemRequest 下单条目
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest 下单
type CreateOrderRequest struct {
	OrderNumber     string                 `json:"order_number"`
	CustomerName    string                 `json:"customer_name"`
	CustomerEmail   string                 `json:"customer_email"`
	ShippingAddress map[string]interface{} `json:"shipping_address"`
	Items           []OrderItemRequest     `json:"items" binding:"required,min=1"`
	Shipping        float64                `json:"shipping" binding:"min=0"` // 元
	Tax             float64                `json:"tax" binding:"min=0"`
	Discount        float64                `json:"discount" binding:"min=0"`
	Paid            bool                   `json:"paid"`
}

// UpdateItemFulfillmentRequest 订单项履约流转
type UpdateItemFulfillmentRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=processing shipped delivered cancelled"`
}

// OrderListRequest 订单列表查询
type OrderListRequest struct {
	Status            string `form:"status"`
	FulfillmentStatus string `form:"fulfillment_status"`
	Keyword           string `form:"keyword"`
	Page              int    `form:"page"`
	PageSize          int    `form:"page_size"`
}

// OrderStatsRequest 订单统计查询
type OrderStatsRequest struct {
	StartDate string `form:"start_date"` // 2006-01-02
	EndDate   string `form:"end_date"`
}

// ==================== 响应 ====================

// OrderItemInfo 订单项视图
type OrderItemInfo struct {
	ProductID         int64   `json:"product_id"`
	Title             string  `json:"title"`
	Quantity          int     `json:"quantity"`
	Price             float64 `json:"price"`
	Cost              float64 `json:"cost"`
	Profit            float64 `json:"profit"`
	FulfillmentStatus string  `json:"fulfillment_status"`
}

// OrderInfo 订单视图
type OrderInfo struct {
	ID                int64           `json:"id"`
	OrderNumber       string          `json:"order_number"`
	CustomerName      string          `json:"customer_name,omitempty"`
	CustomerEmail     string          `json:"customer_email,omitempty"`
	Items             []OrderItemInfo `json:"items"`
	Subtotal          float64         `json:"subtotal"`
	Shipping          float64         `json:"shipping"`
	Tax               float64         `json:"tax"`
	Discount          float64         `json:"discount"`
	Total             float64         `json:"total"`
	TotalCost         float64         `json:"total_cost"`
	TotalProfit       float64         `json:"total_profit"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"payment_status"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// OrderListResponse 订单列表
type OrderListResponse struct {
	List  []OrderInfo `json:"list"`
	Total int64       `json:"total"`
}

// OrderStatsResponse 订单统计看板
type OrderStatsResponse struct {
	TotalOrders      int64   `json:"total_orders"`
	PendingOrders    int64   `json:"pending_orders"`
	ProcessingOrders int64   `json:"processing_orders"`
	CompletedOrders  int64   `json:"completed_orders"`
	CancelledOrders  int64   `json:"cancelled_orders"`
	Revenue          float64 `json:"revenue"`
	Profit           float64 `json:"profit"`
}
