package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/pkg/utils"
)

// ==================== 错误定义 ====================

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailExists        = errors.New("邮箱已注册")
	ErrInvalidToken       = errors.New("Token 无效")
	ErrMerchantNotFound   = errors.New("商户不存在")
	ErrInvalidOAuthState  = errors.New("OAuth state 无效或已过期")
)

// ==================== 依赖接口 ====================

// TrialStarter 注册成功后开通试用订阅
type TrialStarter interface {
	StartTrial(ctx context.Context, merchantID int64) (*model.Subscription, error)
}

// TokenExchanger Shopify 授权码换 token
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, shopDomain, code string) (string, error)
}

// ==================== AuthService 认证服务 ====================

// storeConnect 待完成的店铺授权，以 state 为键暂存
type storeConnect struct {
	MerchantID int64
	ShopDomain string
}

// oauthStateTTL 授权回调的完成窗口
const oauthStateTTL = 10 * time.Minute

// AuthService 商户注册/登录/店铺绑定
type AuthService struct {
	merchantRepo repository.MerchantRepository
	trials       TrialStarter
	shopify      TokenExchanger
	states       *utils.TTLCache[storeConnect]
}

// NewAuthService 创建认证服务
func NewAuthService(merchantRepo repository.MerchantRepository, trials TrialStarter, shopify TokenExchanger) *AuthService {
	return &AuthService{
		merchantRepo: merchantRepo,
		trials:       trials,
		shopify:      shopify,
		states:       utils.NewTTLCache[storeConnect](),
	}
}

// ==================== 注册 / 登录 ====================

// TokenPair 登录结果
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Register 商户注册
// 注册成功即开通试用订阅
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*model.Merchant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.NewValidation("email", "不能为空")
	}
	if len(password) < 8 {
		return nil, apperr.NewValidation("password", "长度至少 8 位")
	}
	if role == "" {
		role = model.RoleMerchant
	}

	if _, err := s.merchantRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询商户失败: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	merchant := &model.Merchant{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
	}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, fmt.Errorf("创建商户失败: %w", err)
	}

	if role == model.RoleMerchant {
		if _, err := s.trials.StartTrial(ctx, merchant.ID); err != nil {
			logrus.Errorf("试用订阅开通失败 merchant=%d: %v", merchant.ID, err)
		}
	}

	return merchant, nil
}

// Login 商户登录
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Merchant, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	merchant, err := s.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(merchant.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	access, refresh, err := middleware.GenerateTokenPair(merchant.ID, merchant.Email, merchant.Role)
	if err != nil {
		return nil, nil, err
	}

	cfg := middleware.GetJWTConfig()
	return merchant, &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
	}, nil
}

// RefreshToken 刷新 Token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil || claims.Subject != "refresh" {
		return nil, ErrInvalidToken
	}

	merchant, err := s.merchantRepo.GetByID(ctx, claims.MerchantID)
	if err != nil {
		return nil, ErrMerchantNotFound
	}

	access, refresh, err := middleware.GenerateTokenPair(merchant.ID, merchant.Email, merchant.Role)
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
	}, nil
}

// GetProfile 当前商户信息
func (s *AuthService) GetProfile(ctx context.Context, merchantID int64) (*model.Merchant, error) {
	return s.merchantRepo.GetByID(ctx, merchantID)
}

// ==================== Shopify 店铺绑定 ====================

// BeginStoreConnect 发起店铺授权，返回回调校验用的 state
// 待授权记录暂存于进程内缓存，10 分钟有效
func (s *AuthService) BeginStoreConnect(ctx context.Context, merchantID int64, shopDomain string) (string, error) {
	shopDomain = strings.TrimSpace(shopDomain)
	if shopDomain == "" || !strings.Contains(shopDomain, ".myshopify.com") {
		return "", apperr.NewValidation("shop_domain", "必须为 *.myshopify.com 域名")
	}

	state := uuid.New().String()
	s.states.Set(state, storeConnect{MerchantID: merchantID, ShopDomain: shopDomain}, oauthStateTTL)
	return state, nil
}

// CompleteStoreConnect 授权回调：校验 state、换取 token、落库绑定
func (s *AuthService) CompleteStoreConnect(ctx context.Context, state, code string) (*model.Merchant, error) {
	pending, ok := s.states.Get(state)
	if !ok {
		return nil, ErrInvalidOAuthState
	}
	s.states.Delete(state) // 用完即焚
	shopDomain, merchantID := pending.ShopDomain, pending.MerchantID

	token, err := s.shopify.ExchangeToken(ctx, shopDomain, code)
	if err != nil {
		return nil, fmt.Errorf("店铺授权失败: %w", err)
	}

	if err := s.merchantRepo.UpdateFields(ctx, merchantID, map[string]interface{}{
		"store_domain":       shopDomain,
		"store_access_token": token,
	}); err != nil {
		return nil, fmt.Errorf("保存店铺绑定失败: %w", err)
	}

	logrus.Infof("店铺绑定成功 merchant=%d domain=%s", merchantID, shopDomain)
	return s.merchantRepo.GetByID(ctx, merchantID)
}
