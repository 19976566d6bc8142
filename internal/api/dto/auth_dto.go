package dto

import "time"

// ==================== 请求 ====================

// RegisterRequest 商户注册
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"` // merchant / supplier，默认 merchant
}

// LoginRequest 登录
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ConnectStoreRequest 发起店铺绑定
type ConnectStoreRequest struct {
	ShopDomain string `json:"shop_domain" binding:"required"`
}

// ==================== 响应 ====================

// MerchantInfo 商户信息
type MerchantInfo struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	StoreDomain string    `json:"store_domain,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoginResponse 登录结果
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	Merchant     MerchantInfo `json:"merchant"`
}

// RefreshTokenResponse 刷新结果
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ConnectStoreResponse 店铺绑定发起结果
type ConnectStoreResponse struct {
	State string `json:"state"`
}
