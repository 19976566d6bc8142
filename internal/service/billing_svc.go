package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/pkg/stripe"
)

// ==================== 依赖接口 ====================

// CheckoutProvider 支付渠道会话创建
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// SubscriptionEventApplier 渠道事件落库
type SubscriptionEventApplier interface {
	ApplyStripeEvent(ctx context.Context, evt *stripe.SubscriptionEvent) error
}

// ==================== BillingService ====================

// BillingConfig 计费跳转地址
type BillingConfig struct {
	SuccessURL string
	CancelURL  string
	PortalURL  string
}

// BillingService 订阅计费接入层
type BillingService struct {
	subRepo  repository.SubscriptionRepository
	planRepo repository.PlanRepository
	provider CheckoutProvider
	applier  SubscriptionEventApplier
	cfg      *BillingConfig
}

// NewBillingService 创建计费服务
func NewBillingService(
	subRepo repository.SubscriptionRepository,
	planRepo repository.PlanRepository,
	provider CheckoutProvider,
	applier SubscriptionEventApplier,
	cfg *BillingConfig,
) *BillingService {
	return &BillingService{
		subRepo:  subRepo,
		planRepo: planRepo,
		provider: provider,
		applier:  applier,
		cfg:      cfg,
	}
}

// CreateCheckout 为商户创建指定套餐的结账会话
// interval: "monthly" | "yearly"
func (s *BillingService) CreateCheckout(ctx context.Context, merchantID, planID int64, interval string) (string, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return "", fmt.Errorf("套餐不存在: %w", err)
	}

	var priceID string
	switch interval {
	case "yearly":
		priceID = plan.StripePriceYearly
	case "monthly", "":
		priceID = plan.StripePriceMonthly
	default:
		return "", apperr.NewValidation("interval", "必须为 monthly 或 yearly")
	}
	if priceID == "" {
		return "", apperr.NewValidation("plan_id", "套餐未配置该计费周期的价格")
	}

	sub, err := s.subRepo.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return "", fmt.Errorf("查询订阅失败: %w", err)
	}

	url, err := s.provider.CreateCheckoutSession(ctx, sub.StripeCustomerID, priceID, s.cfg.SuccessURL, s.cfg.CancelURL)
	if err != nil {
		return "", fmt.Errorf("创建结账会话失败: %w", err)
	}
	return url, nil
}

// CreatePortal 为商户创建订阅管理门户会话
func (s *BillingService) CreatePortal(ctx context.Context, merchantID int64) (string, error) {
	sub, err := s.subRepo.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return "", fmt.Errorf("查询订阅失败: %w", err)
	}
	if sub.StripeCustomerID == "" {
		return "", apperr.NewValidation("subscription", "尚未绑定支付渠道客户")
	}
	return s.provider.CreatePortalSession(ctx, sub.StripeCustomerID, s.cfg.PortalURL)
}

// HandleWebhook 消费渠道 webhook：只处理订阅生命周期事件，其余静默忽略
func (s *BillingService) HandleWebhook(ctx context.Context, body []byte) error {
	evt, err := stripe.ParseWebhookEvent(body)
	if err != nil {
		return apperr.NewValidation("body", err.Error())
	}

	if !strings.HasPrefix(evt.Type, "customer.subscription.") {
		logrus.Debugf("忽略渠道事件 type=%s", evt.Type)
		return nil
	}
	if evt.CustomerID == "" {
		return apperr.NewValidation("customer", "事件缺少客户标识")
	}

	if err := s.applier.ApplyStripeEvent(ctx, evt); err != nil {
		return fmt.Errorf("订阅事件落库失败: %w", err)
	}
	logrus.Infof("渠道事件已处理 type=%s customer=%s status=%s", evt.Type, evt.CustomerID, evt.Status)
	return nil
}
