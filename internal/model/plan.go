package model

import (
	"github.com/lib/pq"
)

// ==================== 套餐功能开关 ====================

const (
	PlanFeatureVideoAds   = "video_ads"   // 视频广告生成
	PlanFeatureWhiteLabel = "white_label" // 白标
	PlanFeatureVIPSupport = "vip_support" // VIP 客服
)

// PlanNameStarter 注册即入的默认试用套餐
const PlanNameStarter = "starter"

// ==================== Plan 套餐 ====================

// Plan 订阅套餐，仅管理员可增改，对商户只读
// 限额字段以 -1 哨兵值持久化表示无限，领域层通过 Get* 转为 Limit
type Plan struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"size:500"`

	// 价格（分为单位存储）
	PriceMonthlyCents int64 `gorm:"default:0"`
	PriceYearlyCents  int64 `gorm:"default:0"`

	// 限额（-1 = 无限）
	ProductLimit    int64 `gorm:"default:0"`
	OrderLimit      int64 `gorm:"default:0"`
	TeamMemberLimit int64 `gorm:"default:0"`
	AdsPerDay       int64 `gorm:"default:0"`

	// 功能开关
	Features pq.StringArray `gorm:"type:text[]"`

	// Stripe 价格映射
	StripePriceMonthly string `gorm:"size:128"`
	StripePriceYearly  string `gorm:"size:128"`

	IsActive bool `gorm:"default:true;index"`
}

func (*Plan) TableName() string {
	return "plans"
}

// GetProductLimit 商品限额
func (p *Plan) GetProductLimit() Limit {
	return LimitFromSentinel(p.ProductLimit)
}

// GetOrderLimit 订单限额
func (p *Plan) GetOrderLimit() Limit {
	return LimitFromSentinel(p.OrderLimit)
}

// GetTeamMemberLimit 团队成员限额
func (p *Plan) GetTeamMemberLimit() Limit {
	return LimitFromSentinel(p.TeamMemberLimit)
}

// GetAdsPerDay 每日广告生成限额
func (p *Plan) GetAdsPerDay() Limit {
	return LimitFromSentinel(p.AdsPerDay)
}

// HasFeature 是否包含功能
func (p *Plan) HasFeature(name string) bool {
	for _, f := range p.Features {
		if f == name {
			return true
		}
	}
	return false
}
