package model

import (
	"time"
)

// ==================== 订阅状态常量 ====================

const (
	SubscriptionStatusTrial       = "trial"         // 试用期
	SubscriptionStatusActive      = "active"        // 生效中
	SubscriptionStatusCancelled   = "cancelled"     // 已取消
	SubscriptionStatusExpired     = "expired"       // 已过期
	SubscriptionStatusPastDue     = "past_due"      // 逾期未付
	SubscriptionStatusFreeForLife = "free_for_life" // 终身免费（单向，不可回退）
)

// ==================== Subscription 订阅 ====================

// Subscription 商户订阅，每商户一条
// LifetimeSalesCents 单调不减；状态一旦进入 free_for_life 不再回退，
// 所有限额视为无限，与名义套餐无关
type Subscription struct {
	BaseModel
	MerchantID int64 `gorm:"uniqueIndex;not null"`
	PlanID     int64 `gorm:"index;not null"`
	Plan       *Plan `gorm:"foreignKey:PlanID"`

	Status string `gorm:"size:32;index;default:trial"`

	// 终身销售额累计（分为单位，只增不减）
	LifetimeSalesCents    int64 `gorm:"default:0"`
	ProgressToFreeForLife int   `gorm:"default:0"` // 0-100，派生的展示字段
	FreeForLifeAt         *time.Time

	// 每日广告生成计数（按 UTC 自然日重置）
	AdsGeneratedToday int64  `gorm:"default:0"`
	AdsDay            string `gorm:"size:10;index"` // UTC 日期标记 "2006-01-02"

	// 计费周期
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time

	// Stripe 映射
	StripeCustomerID     string `gorm:"size:128;index"`
	StripeSubscriptionID string `gorm:"size:128;index"`
}

func (*Subscription) TableName() string {
	return "subscriptions"
}

// IsFreeForLife 是否已解锁终身免费
func (s *Subscription) IsFreeForLife() bool {
	return s.Status == SubscriptionStatusFreeForLife
}

// IsUsable 订阅是否处于可用状态（允许业务操作）
func (s *Subscription) IsUsable() bool {
	switch s.Status {
	case SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusFreeForLife:
		return true
	}
	return false
}

// EffectiveLimit 计算有效限额
// 终身免费覆盖名义套餐，一律无限
func (s *Subscription) EffectiveLimit(planLimit Limit) Limit {
	if s.IsFreeForLife() {
		return Unlimited()
	}
	return planLimit
}

// GetLifetimeSales 获取终身销售额（元）
func (s *Subscription) GetLifetimeSales() float64 {
	return float64(s.LifetimeSalesCents) / 100
}

// ==================== AdCreative 广告创意 ====================

// AdCreative AI 生成的商品广告创意
type AdCreative struct {
	BaseModel
	MerchantID int64 `gorm:"index;not null"`
	ProductID  int64 `gorm:"index;not null"`

	Headline     string `gorm:"size:255"`
	Body         string `gorm:"type:text"`
	CallToAction string `gorm:"size:255"`
	Hashtags     string `gorm:"size:512"` // 逗号分隔
	ImageURL     string `gorm:"size:512"`

	Model string `gorm:"size:64"` // 生成所用模型
}

func (*AdCreative) TableName() string {
	return "ad_creatives"
}
