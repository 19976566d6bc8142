package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
)

// ==================== 过滤条件 ====================

// OrderFilter 订单过滤条件
type OrderFilter struct {
	MerchantID        int64
	Status            string
	FulfillmentStatus string
	StartDate         *time.Time
	EndDate           *time.Time
	Keyword           string
	Page              int
	PageSize          int
}

// OrderStats 订单统计
type OrderStats struct {
	TotalOrders      int64
	PendingOrders    int64
	ProcessingOrders int64
	CompletedOrders  int64
	CancelledOrders  int64
	RevenueCents     int64
	ProfitCents      int64
}

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetMerchantOrder(ctx context.Context, merchantID, id int64) (*model.Order, error)
	GetByOrderNumber(ctx context.Context, merchantID int64, orderNumber string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	Update(ctx context.Context, order *model.Order) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// LockMerchantOrder 事务内获取订单行写锁，串行化同一订单的状态流转
	LockMerchantOrder(ctx context.Context, merchantID, id int64) error

	// MarkSalesRecorded 条件置位销售额上报标记，仅首个置位方返回 true
	MarkSalesRecorded(ctx context.Context, id int64) (bool, error)

	// 统计（套餐限额检查 + 看板）
	CountByMerchant(ctx context.Context, merchantID int64) (int64, error)
	GetStats(ctx context.Context, merchantID int64, startDate, endDate time.Time) (*OrderStats, error)
}

// ==================== 实现 ====================

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) GetMerchantOrder(ctx context.Context, merchantID, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) GetByOrderNumber(ctx context.Context, merchantID int64, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND order_number = ?", merchantID, orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Order{})

	// 应用过滤条件
	if filter.MerchantID > 0 {
		db = db.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.FulfillmentStatus != "" {
		db = db.Where("fulfillment_status = ?", filter.FulfillmentStatus)
	}
	if filter.StartDate != nil {
		db = db.Where("created_at >= ?", filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("created_at <= ?", filter.EndDate)
	}
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		db = db.Where("order_number LIKE ? OR customer_name LIKE ? OR customer_email LIKE ?",
			keyword, keyword, keyword)
	}

	// 计算总数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := db.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepo) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *orderRepo) LockMerchantOrder(ctx context.Context, merchantID, id int64) error {
	// 以一次触达写取行锁，竞争方在此阻塞到对方事务提交
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		UpdateColumn("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepo) MarkSalesRecorded(ctx context.Context, id int64) (bool, error) {
	// 单条条件 UPDATE：并发置位时只有一方改到行，销售额恰好上报一次
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND sales_recorded = ?", id, false).
		UpdateColumn("sales_recorded", true)
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) CountByMerchant(ctx context.Context, merchantID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("merchant_id = ?", merchantID).
		Count(&count).Error
	return count, err
}

func (r *orderRepo) GetStats(ctx context.Context, merchantID int64, startDate, endDate time.Time) (*OrderStats, error) {
	stats := &OrderStats{}
	base := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("merchant_id = ? AND created_at BETWEEN ? AND ?", merchantID, startDate, endDate)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := base.Session(&gorm.Session{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		switch r.Status {
		case model.OrderStatusPending:
			stats.PendingOrders = r.N
		case model.OrderStatusProcessing:
			stats.ProcessingOrders = r.N
		case model.OrderStatusCompleted:
			stats.CompletedOrders = r.N
		case model.OrderStatusCancelled:
			stats.CancelledOrders = r.N
		}
	}

	type sums struct {
		Revenue int64
		Profit  int64
	}
	var s sums
	err := base.Session(&gorm.Session{}).
		Where("status NOT IN ?", []string{model.OrderStatusCancelled, model.OrderStatusRefunded}).
		Select("COALESCE(SUM(total_cents),0) AS revenue, COALESCE(SUM(total_profit_cents),0) AS profit").
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	stats.RevenueCents = s.Revenue
	stats.ProfitCents = s.Profit

	return stats, nil
}
