package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/pricing"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
)

// ==================== 依赖接口 ====================

// ProductReader 商品读取（下单快照用）
type ProductReader interface {
	GetMerchantProduct(ctx context.Context, merchantID, id int64) (*model.Product, error)
}

// OrderGuard 订单创建限额检查（与落库共享同一事务）
type OrderGuard interface {
	EnsureCanCreateOrder(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error
}

// SalesRecorder 终身销售额上报（在事务内仓库上执行）
type SalesRecorder interface {
	RecordOrderSales(ctx context.Context, txSubs repository.SubscriptionRepository, merchantID, amountCents int64) error
}

// ==================== 请求结构 ====================

// CreateOrderItemInput 下单条目
type CreateOrderItemInput struct {
	ProductID int64
	Quantity  int
}

// CreateOrderInput 下单请求
type CreateOrderInput struct {
	OrderNumber     string // 为空时自动生成
	CustomerName    string
	CustomerEmail   string
	ShippingAddress map[string]interface{}
	Items           []CreateOrderItemInput
	ShippingCents   int64
	TaxCents        int64
	DiscountCents   int64
	Paid            bool // 结账即已支付
}

// ==================== OrderService ====================

// OrderService 订单结算服务
type OrderService struct {
	uow      *repository.UnitOfWork
	products ProductReader
	guard    OrderGuard
	sales    SalesRecorder
}

// NewOrderService 创建订单服务
func NewOrderService(
	uow *repository.UnitOfWork,
	products ProductReader,
	guard OrderGuard,
	sales SalesRecorder,
) *OrderService {
	return &OrderService{
		uow:      uow,
		products: products,
		guard:    guard,
		sales:    sales,
	}
}

// ==================== 下单 ====================

// Create 创建订单
// 订单项在下单时刻固化商品的价格/成本/利润快照，后续改价不影响已有订单；
// 同一订单号重复提交幂等返回已有订单，销售额不会重复计入
func (s *OrderService) Create(ctx context.Context, merchantID int64, input *CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperr.NewValidation("items", "不能为空")
	}

	// 幂等：同号订单直接返回
	if input.OrderNumber != "" {
		if existing, err := s.uow.Orders.GetByOrderNumber(ctx, merchantID, input.OrderNumber); err == nil {
			return existing, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("查询订单失败: %w", err)
		}
	}

	// 商品快照
	items := make([]model.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Quantity < 1 {
			return nil, apperr.NewValidation("items.quantity", "数量不能小于 1")
		}
		product, err := s.products.GetMerchantProduct(ctx, merchantID, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("商品 %d 不存在: %w", in.ProductID, err)
		}
		if product.MerchantPriceCents == nil {
			return nil, apperr.NewValidation("items.product_id", fmt.Sprintf("商品 %d 尚未定价", in.ProductID))
		}

		items = append(items, model.OrderItem{
			ProductID:         product.ID,
			Title:             product.Title,
			Quantity:          in.Quantity,
			PriceCents:        *product.MerchantPriceCents,
			CostCents:         product.SupplierPriceCents,
			ProfitCents:       pricing.Profit(product.SupplierPriceCents, *product.MerchantPriceCents),
			FulfillmentStatus: model.ItemFulfillmentPending,
		})
	}

	financials, err := model.BuildOrderFinancials(items, input.ShippingCents, input.TaxCents, input.DiscountCents)
	if err != nil {
		return nil, err
	}

	orderNumber := input.OrderNumber
	if orderNumber == "" {
		orderNumber = generateOrderNumber()
	}

	order := &model.Order{
		MerchantID:        merchantID,
		OrderNumber:       orderNumber,
		CustomerName:      input.CustomerName,
		CustomerEmail:     input.CustomerEmail,
		ShippingAddress:   input.ShippingAddress,
		Items:             items,
		Status:            model.OrderStatusPending,
		PaymentStatus:     model.PaymentStatusPending,
		FulfillmentStatus: model.DeriveFulfillmentStatus(items),
	}
	order.ApplyFinancials(financials)

	// 限额检查、订单落库与销售额上报同一事务：
	// 检查方持有订阅行锁直到提交，并发下单不会同时越过限额；每单恰好计入一次
	err = s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := s.guard.EnsureCanCreateOrder(ctx, tx, merchantID); err != nil {
			return err
		}
		if input.Paid {
			now := time.Now().UTC()
			order.PaymentStatus = model.PaymentStatusPaid
			order.PaidAt = &now
			order.SalesRecorded = true
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		if input.Paid {
			return s.sales.RecordOrderSales(ctx, tx.Subscriptions, merchantID, order.TotalCents)
		}
		return nil
	})
	if err != nil {
		if apperr.IsLimitExceeded(err) || apperr.IsValidation(err) {
			return nil, err
		}
		// 并发同号下单撞唯一索引：回查已有订单幂等返回
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, ferr := s.uow.Orders.GetByOrderNumber(ctx, merchantID, orderNumber); ferr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}

	logrus.Infof("订单创建成功 merchant=%d number=%s total=%d profit=%d",
		merchantID, order.OrderNumber, order.TotalCents, order.TotalProfitCents)
	return order, nil
}

// generateOrderNumber 生成订单号
func generateOrderNumber() string {
	return fmt.Sprintf("SO-%d", time.Now().UTC().UnixNano())
}

// ==================== 支付 ====================

// MarkPaid 标记订单已支付
// 销售额上报标记由单条条件 UPDATE 置位：并发标记时只有一方抢到置位权，
// 重复/并发标记都不会二次累计销售额
func (s *OrderService) MarkPaid(ctx context.Context, merchantID, orderID int64) (*model.Order, error) {
	err := s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := tx.Orders.LockMerchantOrder(ctx, merchantID, orderID); err != nil {
			return fmt.Errorf("订单不存在: %w", err)
		}
		order, err := tx.Orders.GetMerchantOrder(ctx, merchantID, orderID)
		if err != nil {
			return fmt.Errorf("订单不存在: %w", err)
		}
		if order.Status == model.OrderStatusCancelled || order.Status == model.OrderStatusRefunded {
			return apperr.NewValidation("status", "已取消/退款订单不能标记支付")
		}

		now := time.Now().UTC()
		if err := tx.Orders.UpdateFields(ctx, order.ID, map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
			"paid_at":        now,
		}); err != nil {
			return fmt.Errorf("标记支付失败: %w", err)
		}

		claimed, err := tx.Orders.MarkSalesRecorded(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("置位上报标记失败: %w", err)
		}
		if claimed {
			return s.sales.RecordOrderSales(ctx, tx.Subscriptions, merchantID, order.TotalCents)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.uow.Orders.GetByID(ctx, orderID)
}

// ==================== 履约 ====================

// UpdateItemFulfillment 更新单个订单项的履约状态
// 订单级履约状态随之重算（纯派生，不允许独立修改）。
// 读改写持有订单行锁：并发流转按序生效，不会相互覆盖
func (s *OrderService) UpdateItemFulfillment(ctx context.Context, merchantID, orderID, productID int64, newStatus string) (*model.Order, error) {
	var order *model.Order
	err := s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := tx.Orders.LockMerchantOrder(ctx, merchantID, orderID); err != nil {
			return fmt.Errorf("订单不存在: %w", err)
		}
		o, err := tx.Orders.GetMerchantOrder(ctx, merchantID, orderID)
		if err != nil {
			return fmt.Errorf("订单不存在: %w", err)
		}

		items := []model.OrderItem(o.Items)
		found := false
		for i := range items {
			if items[i].ProductID != productID {
				continue
			}
			found = true
			if !model.CanTransitionItem(items[i].FulfillmentStatus, newStatus) {
				return apperr.NewValidation("fulfillment_status",
					fmt.Sprintf("不允许从 %s 流转到 %s", items[i].FulfillmentStatus, newStatus))
			}
			items[i].FulfillmentStatus = newStatus
		}
		if !found {
			return apperr.NewValidation("product_id", "订单中不存在该商品")
		}

		o.Items = items
		o.FulfillmentStatus = model.DeriveFulfillmentStatus(items)

		// 全部发货/签收后订单进入已完成
		if o.FulfillmentStatus == model.FulfillmentFulfilled &&
			o.Status == model.OrderStatusProcessing {
			o.Status = model.OrderStatusCompleted
		} else if o.Status == model.OrderStatusPending &&
			o.FulfillmentStatus != model.FulfillmentUnfulfilled {
			o.Status = model.OrderStatusProcessing
		}

		if err := tx.Orders.Update(ctx, o); err != nil {
			return fmt.Errorf("更新履约状态失败: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel 取消订单
// 订单从不硬删除，只流转状态；已发货的订单项会阻止整单取消。
// 与履约流转共用订单行锁，取消与发货不会交叉覆盖
func (s *OrderService) Cancel(ctx context.Context, merchantID, orderID int64) (*model.Order, error) {
	var order *model.Order
	err := s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := tx.Orders.LockMerchantOrder(ctx, merchantID, orderID); err != nil {
			return fmt.Errorf("订单不存在: %w", err)
		}
		o, err := tx.Orders.GetMerchantOrder(ctx, merchantID, orderID)
		if err != nil {
			return fmt.Errorf("订单不存在: %w", err)
		}
		if !o.CanCancel() {
			return apperr.NewValidation("status", "当前状态不允许取消: "+o.Status)
		}

		items := []model.OrderItem(o.Items)
		for i := range items {
			if items[i].FulfillmentStatus == model.ItemFulfillmentShipped ||
				items[i].FulfillmentStatus == model.ItemFulfillmentDelivered {
				return apperr.NewValidation("items", "存在已发货订单项，需走退款/退货流程")
			}
		}
		for i := range items {
			items[i].FulfillmentStatus = model.ItemFulfillmentCancelled
		}

		o.Items = items
		o.Status = model.OrderStatusCancelled
		o.FulfillmentStatus = model.FulfillmentCancelled

		if err := tx.Orders.Update(ctx, o); err != nil {
			return fmt.Errorf("取消订单失败: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ==================== 查询 ====================

// List 订单列表
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	return s.uow.Orders.List(ctx, filter)
}

// GetDetail 订单详情
func (s *OrderService) GetDetail(ctx context.Context, merchantID, orderID int64) (*model.Order, error) {
	return s.uow.Orders.GetMerchantOrder(ctx, merchantID, orderID)
}

// GetStats 订单统计看板
func (s *OrderService) GetStats(ctx context.Context, merchantID int64, startDate, endDate time.Time) (*repository.OrderStats, error) {
	return s.uow.Orders.GetStats(ctx, merchantID, startDate, endDate)
}
