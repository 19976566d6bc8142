package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
)

// ==================== SubscriptionRepository 订阅仓库 ====================

// SubscriptionRepository 订阅仓库接口
// 累加/计数操作一律走原子 UPDATE 表达式，避免读-改-写丢失更新
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	GetByMerchantID(ctx context.Context, merchantID int64) (*model.Subscription, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Subscription, error)
	Update(ctx context.Context, sub *model.Subscription) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// LockByMerchantID 事务内获取订阅行写锁，串行化同一商户的检查后写入
	LockByMerchantID(ctx context.Context, merchantID int64) error

	// AddLifetimeSales 原子累加终身销售额
	AddLifetimeSales(ctx context.Context, merchantID int64, amountCents int64) error

	// PromoteFreeForLife 条件晋升终身免费（status != free_for_life 且销售额达标时才生效）
	// 返回是否本次真正发生了晋升
	PromoteFreeForLife(ctx context.Context, merchantID int64, thresholdCents int64, at time.Time) (bool, error)

	// TryIncrementAdsToday 原子抢占一次当日广告生成配额
	// 日期翻转时先惰性清零；limit 为无限时不设上限条件
	TryIncrementAdsToday(ctx context.Context, merchantID int64, today string, limit model.Limit) (bool, error)

	// ResetDailyAdCounters 重置所有日期标记落后的订阅（批处理任务用，可重复执行）
	ResetDailyAdCounters(ctx context.Context, today string) (int64, error)

	// ExpireOverdue 将计费周期已结束的订阅置为过期（批处理任务用，可重复执行）
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	Transaction(ctx context.Context, fn func(txRepo SubscriptionRepository) error) error
}

// ==================== 实现 ====================

type subscriptionRepo struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建订阅仓库
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepo) GetByMerchantID(ctx context.Context, merchantID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("merchant_id = ?", merchantID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("stripe_customer_id = ?", customerID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) Update(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *subscriptionRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Subscription{}).Where("id = ?", id).Updates(fields).Error
}

func (r *subscriptionRepo) LockByMerchantID(ctx context.Context, merchantID int64) error {
	// 以一次触达写取行锁，竞争方在此阻塞到对方事务提交
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("merchant_id = ?", merchantID).
		UpdateColumn("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subscriptionRepo) AddLifetimeSales(ctx context.Context, merchantID int64, amountCents int64) error {
	return r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("merchant_id = ?", merchantID).
		UpdateColumn("lifetime_sales_cents", gorm.Expr("lifetime_sales_cents + ?", amountCents)).Error
}

func (r *subscriptionRepo) PromoteFreeForLife(ctx context.Context, merchantID int64, thresholdCents int64, at time.Time) (bool, error) {
	// 单条条件 UPDATE：晋升单向，重复调用无副作用
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("merchant_id = ? AND status <> ? AND lifetime_sales_cents >= ?",
			merchantID, model.SubscriptionStatusFreeForLife, thresholdCents).
		Updates(map[string]interface{}{
			"status":           model.SubscriptionStatusFreeForLife,
			"free_for_life_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *subscriptionRepo) TryIncrementAdsToday(ctx context.Context, merchantID int64, today string, limit model.Limit) (bool, error) {
	// 日期翻转惰性清零（与定时批处理重置互为兜底，重复执行安全）
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("merchant_id = ? AND ads_day <> ?", merchantID, today).
		Updates(map[string]interface{}{"ads_generated_today": 0, "ads_day": today}).Error
	if err != nil {
		return false, err
	}

	db := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("merchant_id = ? AND ads_day = ?", merchantID, today)
	if !limit.IsUnlimited() {
		db = db.Where("ads_generated_today < ?", limit.Max())
	}

	res := db.UpdateColumn("ads_generated_today", gorm.Expr("ads_generated_today + 1"))
	return res.RowsAffected > 0, res.Error
}

func (r *subscriptionRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	// 终身免费订阅没有周期概念，永不过期
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("status IN ? AND current_period_end IS NOT NULL AND current_period_end < ?",
			[]string{model.SubscriptionStatusTrial, model.SubscriptionStatusActive, model.SubscriptionStatusPastDue}, now).
		Update("status", model.SubscriptionStatusExpired)
	return res.RowsAffected, res.Error
}

func (r *subscriptionRepo) ResetDailyAdCounters(ctx context.Context, today string) (int64, error) {
	// 单条原子 UPDATE，与在线流量并发安全
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("ads_day < ?", today).
		Updates(map[string]interface{}{"ads_generated_today": 0, "ads_day": today})
	return res.RowsAffected, res.Error
}

func (r *subscriptionRepo) Transaction(ctx context.Context, fn func(txRepo SubscriptionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&subscriptionRepo{db: tx})
	})
}
