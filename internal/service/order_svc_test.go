package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
)

// ==================== 测试辅助 ====================

// fakeProductReader 提供下单快照用的商品
type fakeProductReader struct {
	products map[int64]*model.Product
}

func (f *fakeProductReader) GetMerchantProduct(ctx context.Context, merchantID, id int64) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

// fakeOrderGuard 可编程的订单限额检查
type fakeOrderGuard struct{ err error }

func (f *fakeOrderGuard) EnsureCanCreateOrder(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error {
	return f.err
}

// countingOrderGuard 用事务内仓库计数的限额检查
type countingOrderGuard struct{ limit int64 }

func (g *countingOrderGuard) EnsureCanCreateOrder(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error {
	used, err := tx.Orders.CountByMerchant(ctx, merchantID)
	if err != nil {
		return err
	}
	if used >= g.limit {
		return apperr.NewLimitExceeded(ResourceOrders, used, g.limit)
	}
	return nil
}

func cents(v int64) *int64 { return &v }

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	db.AutoMigrate(&TestPlanSub{}, &model.Order{}, &model.Subscription{}, &model.TeamMember{})

	db.Create(&TestPlanSub{
		ID:           1,
		Name:         "starter",
		ProductLimit: 25,
		OrderLimit:   100,
		AdsPerDay:    2,
		IsActive:     true,
	})
	return db
}

// newOrderService 组装订单服务，销售额上报走真实订阅服务
func newOrderService(t *testing.T, db *gorm.DB, guard OrderGuard) (*OrderService, *SubscriptionService) {
	subSvc, _ := newSubService(t, db, &fakeCounter{}, &fakeCounter{}, &fakeTeamCounter{})
	reader := &fakeProductReader{products: map[int64]*model.Product{
		101: {
			BaseModel:          model.BaseModel{ID: 101},
			Title:              "陶瓷马克杯",
			SupplierPriceCents: 1000,
			MerchantPriceCents: cents(1500),
		},
		102: {
			BaseModel:          model.BaseModel{ID: 102},
			Title:              "帆布托特包",
			SupplierPriceCents: 1500,
			MerchantPriceCents: cents(2900),
		},
	}}

	uow := repository.NewUnitOfWork(db)
	return NewOrderService(uow, reader, guard, subSvc), subSvc
}

func paidOrderInput(number string) *CreateOrderInput {
	return &CreateOrderInput{
		OrderNumber:   number,
		CustomerName:  "Jordan",
		CustomerEmail: "jordan@example.com",
		Items: []CreateOrderItemInput{
			{ProductID: 101, Quantity: 2}, // 2 × $15.00
			{ProductID: 102, Quantity: 1}, // 1 × $29.00
		},
		ShippingCents: 500,
		TaxCents:      200,
		Paid:          true,
	}
}

// ==================== 下单与财务快照 ====================

func TestOrderService_Create_SnapshotAndFinancials(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)

	order, err := svc.Create(context.Background(), 1, paidOrderInput("SO-1001"))
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	// subtotal = 2×1500 + 2900 = 5900; cost = 2×1000 + 1500 = 3500
	if order.SubtotalCents != 5900 {
		t.Errorf("subtotal = %d, want 5900", order.SubtotalCents)
	}
	if order.TotalCostCents != 3500 {
		t.Errorf("total_cost = %d, want 3500", order.TotalCostCents)
	}
	if order.TotalProfitCents != 2400 {
		t.Errorf("total_profit = %d, want 2400", order.TotalProfitCents)
	}
	// total = 5900 + 500 + 200 - 0 = 6600
	if order.TotalCents != 6600 {
		t.Errorf("total = %d, want 6600", order.TotalCents)
	}
	if order.FulfillmentStatus != model.FulfillmentUnfulfilled {
		t.Errorf("fulfillment = %s, want unfulfilled", order.FulfillmentStatus)
	}
	if order.PaymentStatus != model.PaymentStatusPaid || order.PaidAt == nil {
		t.Error("Paid 下单应直接进入已支付")
	}

	// 快照固化：订单项携带下单时刻的成本与利润
	items := []model.OrderItem(order.Items)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ProfitCents != 500 {
		t.Errorf("item profit = %d, want 500", items[0].ProfitCents)
	}
}

func TestOrderService_Create_UnpricedProductRejected(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)

	// 覆盖 reader：商品 103 未定价
	svc.products = &fakeProductReader{products: map[int64]*model.Product{
		103: {BaseModel: model.BaseModel{ID: 103}, Title: "未定价商品", SupplierPriceCents: 800},
	}}

	_, err := svc.Create(context.Background(), 1, &CreateOrderInput{
		OrderNumber: "SO-X",
		Items:       []CreateOrderItemInput{{ProductID: 103, Quantity: 1}},
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("未定价商品应拒单, got %v", err)
	}
}

func TestOrderService_Create_LimitRejectedBeforeWrite(t *testing.T) {
	db := setupOrderTestDB(t)
	guard := &fakeOrderGuard{err: apperr.NewLimitExceeded(ResourceOrders, 100, 100)}
	svc, _ := newOrderService(t, db, guard)
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)

	_, err := svc.Create(context.Background(), 1, paidOrderInput("SO-2001"))
	if !apperr.IsLimitExceeded(err) {
		t.Fatalf("限额已满应拒单, got %v", err)
	}

	var count int64
	db.Model(&model.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("拒单后不应有订单落库, count = %d", count)
	}
}

// ==================== 销售额恰好计入一次 ====================

func TestOrderService_Create_RecordsSalesExactlyOnce(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, subSvc := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)
	ctx := context.Background()

	order, err := svc.Create(ctx, 1, paidOrderInput("SO-3001"))
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}
	if !order.SalesRecorded {
		t.Error("已支付订单应标记 sales_recorded")
	}

	sub, _ := subSvc.GetByMerchant(ctx, 1)
	if sub.LifetimeSalesCents != order.TotalCents {
		t.Errorf("lifetime = %d, want %d", sub.LifetimeSalesCents, order.TotalCents)
	}

	// 同号重复提交：幂等返回，销售额不重复计入
	again, err := svc.Create(ctx, 1, paidOrderInput("SO-3001"))
	if err != nil {
		t.Fatalf("重复提交应幂等: %v", err)
	}
	if again.ID != order.ID {
		t.Errorf("重复提交应返回同一订单, got %d want %d", again.ID, order.ID)
	}

	sub, _ = subSvc.GetByMerchant(ctx, 1)
	if sub.LifetimeSalesCents != order.TotalCents {
		t.Errorf("重复提交后 lifetime = %d, want %d", sub.LifetimeSalesCents, order.TotalCents)
	}

	var count int64
	db.Model(&model.Order{}).Count(&count)
	if count != 1 {
		t.Errorf("订单数 = %d, want 1", count)
	}
}

func TestOrderService_MarkPaid_Idempotent(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, subSvc := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)
	ctx := context.Background()

	input := paidOrderInput("SO-4001")
	input.Paid = false
	order, err := svc.Create(ctx, 1, input)
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	// 未支付订单不计销售额
	sub, _ := subSvc.GetByMerchant(ctx, 1)
	if sub.LifetimeSalesCents != 0 {
		t.Errorf("未支付订单 lifetime = %d, want 0", sub.LifetimeSalesCents)
	}

	if _, err := svc.MarkPaid(ctx, 1, order.ID); err != nil {
		t.Fatalf("标记支付失败: %v", err)
	}
	sub, _ = subSvc.GetByMerchant(ctx, 1)
	if sub.LifetimeSalesCents != order.TotalCents {
		t.Errorf("lifetime = %d, want %d", sub.LifetimeSalesCents, order.TotalCents)
	}

	// 重复标记：不二次累计
	if _, err := svc.MarkPaid(ctx, 1, order.ID); err != nil {
		t.Fatalf("重复标记应幂等: %v", err)
	}
	sub, _ = subSvc.GetByMerchant(ctx, 1)
	if sub.LifetimeSalesCents != order.TotalCents {
		t.Errorf("重复标记后 lifetime = %d, want %d", sub.LifetimeSalesCents, order.TotalCents)
	}
}

// ==================== 履约流转 ====================

func TestOrderService_UpdateItemFulfillment(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)
	ctx := context.Background()

	order, err := svc.Create(ctx, 1, paidOrderInput("SO-5001"))
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	// 第一项进入处理中 → 订单级 partial
	order, err = svc.UpdateItemFulfillment(ctx, 1, order.ID, 101, model.ItemFulfillmentProcessing)
	if err != nil {
		t.Fatalf("流转失败: %v", err)
	}
	if order.FulfillmentStatus != model.FulfillmentPartial {
		t.Errorf("fulfillment = %s, want partial", order.FulfillmentStatus)
	}
	if order.Status != model.OrderStatusProcessing {
		t.Errorf("status = %s, want processing", order.Status)
	}

	// 非法流转：processing → delivered
	if _, err := svc.UpdateItemFulfillment(ctx, 1, order.ID, 101, model.ItemFulfillmentDelivered); !apperr.IsValidation(err) {
		t.Fatalf("跳级流转应被拒绝, got %v", err)
	}

	// 全部发货 → fulfilled + 订单完成
	if _, err := svc.UpdateItemFulfillment(ctx, 1, order.ID, 102, model.ItemFulfillmentProcessing); err != nil {
		t.Fatalf("流转失败: %v", err)
	}
	if _, err := svc.UpdateItemFulfillment(ctx, 1, order.ID, 101, model.ItemFulfillmentShipped); err != nil {
		t.Fatalf("发货流转失败: %v", err)
	}
	order, err = svc.UpdateItemFulfillment(ctx, 1, order.ID, 102, model.ItemFulfillmentShipped)
	if err != nil {
		t.Fatalf("发货流转失败: %v", err)
	}
	if order.FulfillmentStatus != model.FulfillmentFulfilled {
		t.Errorf("fulfillment = %s, want fulfilled", order.FulfillmentStatus)
	}
	if order.Status != model.OrderStatusCompleted {
		t.Errorf("status = %s, want completed", order.Status)
	}
}

func TestOrderService_Cancel(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)
	ctx := context.Background()

	order, err := svc.Create(ctx, 1, paidOrderInput("SO-6001"))
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	order, err = svc.Cancel(ctx, 1, order.ID)
	if err != nil {
		t.Fatalf("取消失败: %v", err)
	}
	if order.Status != model.OrderStatusCancelled {
		t.Errorf("status = %s, want cancelled", order.Status)
	}
	if order.FulfillmentStatus != model.FulfillmentCancelled {
		t.Errorf("fulfillment = %s, want cancelled", order.FulfillmentStatus)
	}

	// 已取消订单不能再标记支付
	if _, err := svc.MarkPaid(ctx, 1, order.ID); !apperr.IsValidation(err) {
		t.Fatalf("已取消订单标记支付应被拒绝, got %v", err)
	}
}

func TestOrderService_CancelBlockedByShippedItem(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)
	ctx := context.Background()

	order, _ := svc.Create(ctx, 1, paidOrderInput("SO-7001"))
	svc.UpdateItemFulfillment(ctx, 1, order.ID, 101, model.ItemFulfillmentProcessing)
	svc.UpdateItemFulfillment(ctx, 1, order.ID, 101, model.ItemFulfillmentShipped)

	if _, err := svc.Cancel(ctx, 1, order.ID); !apperr.IsValidation(err) {
		t.Fatalf("存在已发货项应阻止整单取消, got %v", err)
	}
}

// ==================== 统计 ====================

func TestOrderService_GetStats(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)
	ctx := context.Background()

	first, _ := svc.Create(ctx, 1, paidOrderInput("SO-8001"))
	second, _ := svc.Create(ctx, 1, paidOrderInput("SO-8002"))
	cancelled, _ := svc.Create(ctx, 1, paidOrderInput("SO-8003"))
	svc.Cancel(ctx, 1, cancelled.ID)

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	stats, err := svc.GetStats(ctx, 1, start, end)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if stats.TotalOrders != 3 {
		t.Errorf("total_orders = %d, want 3", stats.TotalOrders)
	}
	if stats.CancelledOrders != 1 {
		t.Errorf("cancelled = %d, want 1", stats.CancelledOrders)
	}
	// 已取消订单不计收入
	wantRevenue := first.TotalCents + second.TotalCents
	if stats.RevenueCents != wantRevenue {
		t.Errorf("revenue = %d, want %d", stats.RevenueCents, wantRevenue)
	}
}

// ==================== 并发防护 ====================

func TestOrderService_MarkPaid_SalesClaimSingleWinner(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, subSvc := newOrderService(t, db, &fakeOrderGuard{})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)
	ctx := context.Background()

	input := paidOrderInput("SO-9001")
	input.Paid = false
	order, err := svc.Create(ctx, 1, input)
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	// 条件置位只有首个调用方成功
	uow := repository.NewUnitOfWork(db)
	claimed, err := uow.Orders.MarkSalesRecorded(ctx, order.ID)
	if err != nil || !claimed {
		t.Fatalf("首次置位应成功, claimed=%v err=%v", claimed, err)
	}
	claimed, err = uow.Orders.MarkSalesRecorded(ctx, order.ID)
	if err != nil {
		t.Fatalf("重复置位失败: %v", err)
	}
	if claimed {
		t.Fatal("重复置位不应再次生效")
	}

	// 置位权已被抢走时，标记支付不再累计销售额
	if _, err := svc.MarkPaid(ctx, 1, order.ID); err != nil {
		t.Fatalf("标记支付失败: %v", err)
	}
	got, _ := uow.Orders.GetByID(ctx, order.ID)
	if got.PaymentStatus != model.PaymentStatusPaid {
		t.Errorf("payment_status = %s, want paid", got.PaymentStatus)
	}
	sub, _ := subSvc.GetByMerchant(ctx, 1)
	if sub.LifetimeSalesCents != 0 {
		t.Errorf("lifetime = %d, want 0", sub.LifetimeSalesCents)
	}
}

func TestOrderService_Create_GuardCountsCommittedOrders(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderService(t, db, &countingOrderGuard{limit: 1})
	seedSubscription(t, db, 1, model.SubscriptionStatusActive, 0)
	ctx := context.Background()

	// 检查与落库同一事务：第二单计数时能看到第一单
	if _, err := svc.Create(ctx, 1, paidOrderInput("SO-9101")); err != nil {
		t.Fatalf("第一单应放行: %v", err)
	}
	if _, err := svc.Create(ctx, 1, paidOrderInput("SO-9102")); !apperr.IsLimitExceeded(err) {
		t.Fatalf("第二单应超限, got %v", err)
	}

	var count int64
	db.Model(&model.Order{}).Count(&count)
	if count != 1 {
		t.Errorf("订单数 = %d, want 1", count)
	}
}
