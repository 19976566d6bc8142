package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
)

// ==================== 订单状态常量 ====================

// OrderStatus 订单状态
const (
	OrderStatusPending    = "pending"    // 待处理
	OrderStatusProcessing = "processing" // 处理中
	OrderStatusCompleted  = "completed"  // 已完成
	OrderStatusCancelled  = "cancelled"  // 已取消
	OrderStatusRefunded   = "refunded"   // 已退款
)

// PaymentStatus 支付状态
const (
	PaymentStatusPending  = "pending"  // 待支付
	PaymentStatusPaid     = "paid"     // 已支付
	PaymentStatusFailed   = "failed"   // 支付失败
	PaymentStatusRefunded = "refunded" // 已退款
)

// ItemFulfillmentStatus 订单项履约状态
const (
	ItemFulfillmentPending    = "pending"    // 待供应商处理
	ItemFulfillmentProcessing = "processing" // 供应商处理中
	ItemFulfillmentShipped    = "shipped"    // 已发货
	ItemFulfillmentDelivered  = "delivered"  // 已签收
	ItemFulfillmentCancelled  = "cancelled"  // 已取消
)

// FulfillmentStatus 订单级履约状态（由订单项状态派生，不允许单独修改）
const (
	FulfillmentUnfulfilled = "unfulfilled" // 全部待处理
	FulfillmentPartial     = "partial"     // 部分履约
	FulfillmentFulfilled   = "fulfilled"   // 全部已发货/已签收
	FulfillmentCancelled   = "cancelled"   // 全部已取消
)

// ==================== OrderItem 订单项 ====================

// OrderItem 订单项，下单时刻的商品快照（价格/成本/利润固化，不受后续改价影响）
// 作为 JSONB 内嵌存储在订单行上，不单独建表
type OrderItem struct {
	ProductID         int64  `json:"product_id"`
	Title             string `json:"title"`
	Quantity          int    `json:"quantity"`
	PriceCents        int64  `json:"price_cents"`
	CostCents         int64  `json:"cost_cents"`
	ProfitCents       int64  `json:"profit_cents"` // 快照时刻 price - cost
	FulfillmentStatus string `json:"fulfillment_status"`
}

// GetPrice 获取单价（元）
func (i *OrderItem) GetPrice() float64 {
	return float64(i.PriceCents) / 100
}

// GetCost 获取成本（元）
func (i *OrderItem) GetCost() float64 {
	return float64(i.CostCents) / 100
}

// ==================== Order 订单主表 ====================

// Order 订单，归属单一商户，永不硬删除（只流转到 cancelled/refunded）
type Order struct {
	BaseModel
	MerchantID  int64  `gorm:"index:idx_merchant_order_no,unique;not null"`
	OrderNumber string `gorm:"size:64;index:idx_merchant_order_no,unique;not null"`

	// 买家信息
	CustomerName    string            `gorm:"size:255"`
	CustomerEmail   string            `gorm:"size:255"`
	ShippingAddress datatypes.JSONMap `gorm:"type:jsonb"`

	// 订单项（JSONB 内嵌快照）
	Items datatypes.JSONSlice[OrderItem] `gorm:"type:jsonb"`

	// 金额（分为单位存储）
	SubtotalCents    int64
	ShippingCents    int64
	TaxCents         int64
	DiscountCents    int64
	TotalCents       int64
	TotalCostCents   int64
	TotalProfitCents int64
	Currency         string `gorm:"size:10;default:USD"`

	// 状态
	Status            string `gorm:"size:32;index;default:pending"`
	PaymentStatus     string `gorm:"size:32;default:pending"`
	FulfillmentStatus string `gorm:"size:32;default:unfulfilled"`

	// 终身销售额上报防重入标记（同一订单只计入一次）
	SalesRecorded bool `gorm:"default:false"`

	PaidAt *time.Time
}

func (*Order) TableName() string {
	return "orders"
}

// GetTotal 获取订单总额（元）
func (o *Order) GetTotal() float64 {
	return float64(o.TotalCents) / 100
}

// GetTotalProfit 获取订单利润（元）
func (o *Order) GetTotalProfit() float64 {
	return float64(o.TotalProfitCents) / 100
}

// CanCancel 检查是否可以取消
func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// ==================== 订单财务汇总 ====================

// Financials 订单财务汇总
type Financials struct {
	SubtotalCents    int64
	ShippingCents    int64
	TaxCents         int64
	DiscountCents    int64
	TotalCents       int64
	TotalCostCents   int64
	TotalProfitCents int64
}

// BuildOrderFinancials 从订单项聚合订单级财务数据
//   - subtotal = Σ(price × qty)，totalCost = Σ(cost × qty)
//   - totalProfit = subtotal - totalCost（运费/税费对商户成本中性，不计利润）
//   - total = subtotal + shipping + tax - discount
//
// 折扣超出订单价值时 total 钳制为 0 并返回校验错误，由调用方决定拒单
func BuildOrderFinancials(items []OrderItem, shippingCents, taxCents, discountCents int64) (Financials, error) {
	if shippingCents < 0 {
		return Financials{}, apperr.NewValidation("shipping", "运费不能为负数")
	}
	if taxCents < 0 {
		return Financials{}, apperr.NewValidation("tax", "税费不能为负数")
	}
	if discountCents < 0 {
		return Financials{}, apperr.NewValidation("discount", "折扣不能为负数")
	}

	var subtotal, totalCost int64
	for _, item := range items {
		if item.Quantity < 1 {
			return Financials{}, apperr.NewValidation("items.quantity", "数量不能小于 1")
		}
		if item.PriceCents < 0 || item.CostCents < 0 {
			return Financials{}, apperr.NewValidation("items.price", "价格与成本不能为负数")
		}
		subtotal += item.PriceCents * int64(item.Quantity)
		totalCost += item.CostCents * int64(item.Quantity)
	}

	f := Financials{
		SubtotalCents:    subtotal,
		ShippingCents:    shippingCents,
		TaxCents:         taxCents,
		DiscountCents:    discountCents,
		TotalCostCents:   totalCost,
		TotalProfitCents: subtotal - totalCost,
		TotalCents:       subtotal + shippingCents + taxCents - discountCents,
	}

	if f.TotalCents < 0 {
		f.TotalCents = 0
		return f, apperr.NewValidation("discount", "折扣超出订单总额")
	}
	return f, nil
}

// ApplyFinancials 将财务汇总写回订单
func (o *Order) ApplyFinancials(f Financials) {
	o.SubtotalCents = f.SubtotalCents
	o.ShippingCents = f.ShippingCents
	o.TaxCents = f.TaxCents
	o.DiscountCents = f.DiscountCents
	o.TotalCents = f.TotalCents
	o.TotalCostCents = f.TotalCostCents
	o.TotalProfitCents = f.TotalProfitCents
}

// ==================== 履约状态机 ====================

// validItemTransitions 订单项履约状态的合法流转
// pending → processing → shipped → delivered；cancelled 只能从 pending/processing 进入
// （已发货的订单项不能走取消，需走退款/退货流程）
var validItemTransitions = map[string][]string{
	ItemFulfillmentPending:    {ItemFulfillmentProcessing, ItemFulfillmentCancelled},
	ItemFulfillmentProcessing: {ItemFulfillmentShipped, ItemFulfillmentCancelled},
	ItemFulfillmentShipped:    {ItemFulfillmentDelivered},
	ItemFulfillmentDelivered:  {},
	ItemFulfillmentCancelled:  {},
}

// CanTransitionItem 检查订单项履约状态流转是否合法
func CanTransitionItem(from, to string) bool {
	for _, valid := range validItemTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}

// DeriveFulfillmentStatus 由订单项状态派生订单级履约状态
// 纯函数，每次订单项状态变化后重算
func DeriveFulfillmentStatus(items []OrderItem) string {
	if len(items) == 0 {
		return FulfillmentUnfulfilled
	}

	allPending, allCancelled, allShippedOrDelivered := true, true, true
	for _, item := range items {
		if item.FulfillmentStatus != ItemFulfillmentPending {
			allPending = false
		}
		if item.FulfillmentStatus != ItemFulfillmentCancelled {
			allCancelled = false
		}
		if item.FulfillmentStatus != ItemFulfillmentShipped &&
			item.FulfillmentStatus != ItemFulfillmentDelivered {
			allShippedOrDelivered = false
		}
	}

	switch {
	case allCancelled:
		return FulfillmentCancelled
	case allPending:
		return FulfillmentUnfulfilled
	case allShippedOrDelivered:
		return FulfillmentFulfilled
	default:
		return FulfillmentPartial
	}
}
