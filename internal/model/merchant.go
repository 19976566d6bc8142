package model

// ==================== 角色常量 ====================

const (
	RoleMerchant = "merchant" // 商户
	RoleSupplier = "supplier" // 供应商
	RoleAdmin    = "admin"    // 平台管理员
)

// ==================== Merchant 商户（租户） ====================

// Merchant 商户账号，多租户隔离的核心
type Merchant struct {
	BaseModel
	Name         string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Role         string `gorm:"size:20;default:merchant"`

	// Shopify 店铺绑定
	StoreDomain      string `gorm:"size:255;index"`
	StoreAccessToken string `gorm:"size:512" json:"-"`

	// 关联
	Subscription *Subscription `gorm:"foreignKey:MerchantID"`
	TeamMembers  []TeamMember  `gorm:"foreignKey:MerchantID"`
}

func (*Merchant) TableName() string {
	return "merchants"
}

// HasStore 是否已绑定 Shopify 店铺
func (m *Merchant) HasStore() bool {
	return m.StoreDomain != "" && m.StoreAccessToken != ""
}

// ==================== Supplier 供应商 ====================

// Supplier 货源供应商，全局商品目录的所有者
type Supplier struct {
	BaseModel
	Name         string `gorm:"size:255;not null"`
	ContactEmail string `gorm:"size:255"`
	Country      string `gorm:"size:5"`
	Status       int    `gorm:"default:1"` // 1:启用 0:停用
}

func (*Supplier) TableName() string {
	return "suppliers"
}

// ==================== TeamMember 团队成员 ====================

// TeamMemberStatus 成员状态
const (
	TeamMemberStatusInvited = "invited" // 已邀请
	TeamMemberStatusActive  = "active"  // 已激活
	TeamMemberStatusRemoved = "removed" // 已移除
)

// TeamMember 商户团队成员，计入套餐的成员限额
type TeamMember struct {
	BaseModel
	MerchantID int64  `gorm:"index;not null"`
	Email      string `gorm:"size:255;not null;index"`
	Name       string `gorm:"size:255"`
	Role       string `gorm:"size:20;default:staff"`
	Status     string `gorm:"size:20;default:invited;index"`
}

func (*TeamMember) TableName() string {
	return "team_members"
}
