package dto

// ==================== 请求 ====================

// SavePlanRequest 创建/更新套餐（管理员）
type SavePlanRequest struct {
	Name               string   `json:"name" binding:"required"`
	Description        string   `json:"description"`
	PriceMonthly       float64  `json:"price_monthly" binding:"min=0"` // 元
	PriceYearly        float64  `json:"price_yearly" binding:"min=0"`
	ProductLimit       int64    `json:"product_limit" binding:"min=-1"` // -1 = 无限
	OrderLimit         int64    `json:"order_limit" binding:"min=-1"`
	TeamMemberLimit    int64    `json:"team_member_limit" binding:"min=-1"`
	AdsPerDay          int64    `json:"ads_per_day" binding:"min=-1"`
	Features           []string `json:"features"`
	StripePriceMonthly string   `json:"stripe_price_monthly"`
	StripePriceYearly  string   `json:"stripe_price_yearly"`
	IsActive           *bool    `json:"is_active"`
}

// ==================== 响应 ====================

// PlanInfo 套餐视图
type PlanInfo struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	PriceMonthly    float64  `json:"price_monthly"`
	PriceYearly     float64  `json:"price_yearly"`
	ProductLimit    int64    `json:"product_limit"`
	OrderLimit      int64    `json:"order_limit"`
	TeamMemberLimit int64    `json:"team_member_limit"`
	AdsPerDay       int64    `json:"ads_per_day"`
	Features        []string `json:"features,omitempty"`
	IsActive        bool     `json:"is_active"`
}
