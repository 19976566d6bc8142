package dto

import "time"

// AdListRequest 广告创意列表查询
type AdListRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// GenerateAdRequest 生成广告创意
type GenerateAdRequest struct {
	ProductID   int64  `json:"product_id" binding:"required"`
	Instruction string `json:"instruction"` // 额外 Prompt 指令，可选
}

// AdCreativeInfo 广告创意视图
type AdCreativeInfo struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	Headline     string    `json:"headline"`
	Body         string    `json:"body"`
	CallToAction string    `json:"call_to_action,omitempty"`
	Hashtags     string    `json:"hashtags,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Model        string    `json:"model,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdListResponse 广告创意列表
type AdListResponse struct {
	List  []AdCreativeInfo `json:"list"`
	Total int64            `json:"total"`
}
