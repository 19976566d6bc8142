package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/pricing"
)

// ==================== 商品状态常量 ====================

const (
	ProductStatusDraft    = "draft"    // 草稿
	ProductStatusActive   = "active"   // 上架中
	ProductStatusArchived = "archived" // 已归档
)

// ==================== Product 商品 ====================

// Product 商品
// MerchantID 为空时是供应商的全局目录商品；商户导入后生成带自有定价规则的副本
type Product struct {
	BaseModel
	SupplierID int64  `gorm:"index;not null"`
	MerchantID *int64 `gorm:"index:idx_merchant_status"` // null = 全局目录商品

	// 导入来源（指向全局目录行，目录行删除时保留快照）
	SourceProductID *int64 `gorm:"index"`

	// --- 商品基本信息 ---
	Title       string         `gorm:"size:255;index:idx_title_search,type:GIN,expression:title gin_trgm_ops"`
	Description string         `gorm:"type:text"`
	Tags        pq.StringArray `gorm:"type:text[]"`
	ImageURL    string         `gorm:"size:512"`

	// --- 价格（分为单位存储） ---
	SupplierPriceCents int64  `gorm:"not null;default:0"`
	MerchantPriceCents *int64 // 导入时按规则计算，未导入为 null

	// --- 加价规则（持久化为两列，空类型 = 未设置规则） ---
	MarkupType  string  `gorm:"size:20"`
	MarkupValue float64 `gorm:"default:0"`

	// --- 库存与状态 ---
	Quantity int    `gorm:"default:0"`
	Status   string `gorm:"size:20;default:draft;index:idx_merchant_status"`

	// --- 远端同步 ---
	RemoteProductID string `gorm:"size:64;index"` // Shopify 侧商品 ID
	SyncStatus      int    `gorm:"default:0"`     // 0:未推送 1:已推送 2:推送失败

	// --- AI 处理上下文 ---
	AiContext datatypes.JSON `gorm:"type:jsonb"`
}

func (*Product) TableName() string {
	return "products"
}

// IsCatalog 是否为全局目录商品
func (p *Product) IsCatalog() bool {
	return p.MerchantID == nil
}

// PricingRule 读取商品上的加价规则
// 第二个返回值为 false 表示尚未设置规则
func (p *Product) PricingRule() (pricing.Rule, bool) {
	if p.MarkupType == "" {
		return pricing.Rule{}, false
	}
	return pricing.Rule{Type: pricing.RuleType(p.MarkupType), Value: p.MarkupValue}, true
}

// SetPricingRule 写入加价规则
func (p *Product) SetPricingRule(r pricing.Rule) {
	p.MarkupType = string(r.Type)
	p.MarkupValue = r.Value
}

// GetSupplierPrice 获取成本价（元）
func (p *Product) GetSupplierPrice() float64 {
	return float64(p.SupplierPriceCents) / 100
}

// GetMerchantPrice 获取售价（元），未定价时为 0
func (p *Product) GetMerchantPrice() float64 {
	if p.MerchantPriceCents == nil {
		return 0
	}
	return float64(*p.MerchantPriceCents) / 100
}

// UnitProfitCents 单件利润（分），未定价时为 0
func (p *Product) UnitProfitCents() int64 {
	if p.MerchantPriceCents == nil {
		return 0
	}
	return pricing.Profit(p.SupplierPriceCents, *p.MerchantPriceCents)
}
