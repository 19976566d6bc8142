package dto

import "time"

// ==================== 请求 ====================

// ChangePlanRequest 切换套餐
type ChangePlanRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
}

// InviteTeamMemberRequest 邀请团队成员
type InviteTeamMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

// ==================== 响应 ====================

// SubscriptionInfo 订阅视图
type SubscriptionInfo struct {
	Status                string     `json:"status"`
	PlanID                int64      `json:"plan_id"`
	PlanName              string     `json:"plan_name,omitempty"`
	LifetimeSales         float64    `json:"lifetime_sales"`
	ProgressToFreeForLife int        `json:"progress_to_free_for_life"`
	FreeForLifeAt         *time.Time `json:"free_for_life_at,omitempty"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end,omitempty"`
}

// TeamMemberInfo 团队成员视图
type TeamMemberInfo struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}
