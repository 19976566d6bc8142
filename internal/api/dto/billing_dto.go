package dto

// CheckoutRequest 创建订阅结账会话
type CheckoutRequest struct {
	PlanID   int64  `json:"plan_id" binding:"required"`
	Interval string `json:"interval" binding:"omitempty,oneof=monthly yearly"`
}

// CheckoutResponse 跳转地址
type CheckoutResponse struct {
	URL string `json:"url"`
}
