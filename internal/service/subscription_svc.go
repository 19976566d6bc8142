package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/pkg/stripe"
)

// ==================== 限额资源名 ====================

const (
	ResourceProducts    = "products"
	ResourceOrders      = "orders"
	ResourceTeamMembers = "team_members"
	ResourceAds         = "ads"
)

// ==================== 依赖接口 ====================

// UsageCounter 资源用量统计
type UsageCounter interface {
	CountByMerchant(ctx context.Context, merchantID int64) (int64, error)
}

// TeamCounter 团队成员用量统计
type TeamCounter interface {
	CountActiveTeamMembers(ctx context.Context, merchantID int64) (int64, error)
}

// ==================== 配置 ====================

// SubscriptionConfig 订阅引擎配置
// FreeForLifeThresholdCents 为必填项：历史实现中该阈值在多处硬编码且数值不一致，
// 这里强制从配置注入，全局只有这一个来源
type SubscriptionConfig struct {
	FreeForLifeThresholdCents int64
	TrialDays                 int
}

// ==================== SubscriptionService ====================

// SubscriptionService 订阅限额与进度引擎
type SubscriptionService struct {
	uow          *repository.UnitOfWork
	subRepo      repository.SubscriptionRepository
	planRepo     repository.PlanRepository
	merchantRepo repository.MerchantRepository

	productCounter UsageCounter
	orderCounter   UsageCounter
	teamCounter    TeamCounter

	cfg *SubscriptionConfig
}

// NewSubscriptionService 创建订阅服务
func NewSubscriptionService(
	uow *repository.UnitOfWork,
	planRepo repository.PlanRepository,
	productCounter UsageCounter,
	orderCounter UsageCounter,
	teamCounter TeamCounter,
	cfg *SubscriptionConfig,
) (*SubscriptionService, error) {
	if cfg == nil || cfg.FreeForLifeThresholdCents <= 0 {
		return nil, fmt.Errorf("FREE_FOR_LIFE_THRESHOLD_CENTS 未配置或非法")
	}
	if cfg.TrialDays <= 0 {
		cfg.TrialDays = 14
	}

	return &SubscriptionService{
		uow:            uow,
		subRepo:        uow.Subscriptions,
		planRepo:       planRepo,
		merchantRepo:   uow.Members,
		productCounter: productCounter,
		orderCounter:   orderCounter,
		teamCounter:    teamCounter,
		cfg:            cfg,
	}, nil
}

// ==================== 订阅生命周期 ====================

// StartTrial 商户注册时创建试用订阅，套餐为默认入门套餐
func (s *SubscriptionService) StartTrial(ctx context.Context, merchantID int64) (*model.Subscription, error) {
	plan, err := s.planRepo.GetByName(ctx, model.PlanNameStarter)
	if err != nil {
		// 入门套餐缺失时退到任一可用套餐
		plans, lerr := s.planRepo.List(ctx, true)
		if lerr != nil || len(plans) == 0 {
			return nil, fmt.Errorf("无可用套餐: %w", err)
		}
		plan = &plans[0]
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, s.cfg.TrialDays)
	sub := &model.Subscription{
		MerchantID:         merchantID,
		PlanID:             plan.ID,
		Status:             model.SubscriptionStatusTrial,
		AdsDay:             now.Format("2006-01-02"),
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &end,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("创建试用订阅失败: %w", err)
	}
	return sub, nil
}

// GetByMerchant 获取商户订阅（含套餐）
func (s *SubscriptionService) GetByMerchant(ctx context.Context, merchantID int64) (*model.Subscription, error) {
	return s.subRepo.GetByMerchantID(ctx, merchantID)
}

// ChangePlan 切换套餐
// 终身免费状态不随套餐切换回退
func (s *SubscriptionService) ChangePlan(ctx context.Context, merchantID, planID int64) error {
	if _, err := s.planRepo.GetByID(ctx, planID); err != nil {
		return fmt.Errorf("套餐不存在: %w", err)
	}
	sub, err := s.subRepo.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("查询订阅失败: %w", err)
	}

	fields := map[string]interface{}{"plan_id": planID}
	if !sub.IsFreeForLife() {
		fields["status"] = model.SubscriptionStatusActive
	}
	return s.subRepo.UpdateFields(ctx, sub.ID, fields)
}

// ApplyStripeEvent 消费支付渠道订阅事件
// 只消费最终的套餐/状态值，支付流程本身不在本层
func (s *SubscriptionService) ApplyStripeEvent(ctx context.Context, evt *stripe.SubscriptionEvent) error {
	sub, err := s.subRepo.GetByStripeCustomerID(ctx, evt.CustomerID)
	if err != nil {
		return fmt.Errorf("未找到客户对应订阅 customer=%s: %w", evt.CustomerID, err)
	}

	fields := map[string]interface{}{
		"stripe_subscription_id": evt.SubscriptionID,
		"current_period_start":   evt.PeriodStart,
		"current_period_end":     evt.PeriodEnd,
	}

	// 套餐映射
	if evt.PriceID != "" {
		if plan, err := s.planRepo.GetByStripePrice(ctx, evt.PriceID); err == nil {
			fields["plan_id"] = plan.ID
		}
	}

	// 终身免费单向：渠道事件不允许把状态拉回去
	if !sub.IsFreeForLife() {
		if status, ok := mapStripeStatus(evt.Status); ok {
			fields["status"] = status
		}
	}

	return s.subRepo.UpdateFields(ctx, sub.ID, fields)
}

func mapStripeStatus(status string) (string, bool) {
	switch status {
	case "active":
		return model.SubscriptionStatusActive, true
	case "trialing":
		return model.SubscriptionStatusTrial, true
	case "past_due":
		return model.SubscriptionStatusPastDue, true
	case "canceled":
		return model.SubscriptionStatusCancelled, true
	case "unpaid", "incomplete_expired":
		return model.SubscriptionStatusExpired, true
	}
	return "", false
}

// ==================== 限额检查 ====================

// effective 查询订阅并返回订阅本身与名义套餐
func (s *SubscriptionService) effective(ctx context.Context, merchantID int64) (*model.Subscription, *model.Plan, error) {
	return s.effectiveOn(ctx, s.subRepo, merchantID)
}

// effectiveOn 在给定仓库（事务内检查时传事务仓库）上查询订阅与名义套餐
func (s *SubscriptionService) effectiveOn(ctx context.Context, subs repository.SubscriptionRepository, merchantID int64) (*model.Subscription, *model.Plan, error) {
	sub, err := subs.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return nil, nil, fmt.Errorf("查询订阅失败: %w", err)
	}
	plan := sub.Plan
	if plan == nil {
		plan, err = s.planRepo.GetByID(ctx, sub.PlanID)
		if err != nil {
			return nil, nil, fmt.Errorf("查询套餐失败: %w", err)
		}
	}
	return sub, plan, nil
}

// ensureLimit 通用限额检查：拒绝时返回携带用量的限额错误，不产生任何写入
func (s *SubscriptionService) ensureLimit(sub *model.Subscription, planLimit model.Limit, resource string, used int64) error {
	if !sub.IsUsable() {
		return apperr.NewValidation("subscription", "订阅状态不可用: "+sub.Status)
	}
	limit := sub.EffectiveLimit(planLimit)
	if !limit.Allows(used) {
		return apperr.NewLimitExceeded(resource, used, limit.Sentinel())
	}
	return nil
}

// EnsureCanImportProduct 商品导入前的限额检查
// 与随后的落库共享事务：先取订阅行写锁再计数，并发导入在锁上排队，
// 后到方重新计数时能看到先到方已提交的写入
func (s *SubscriptionService) EnsureCanImportProduct(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error {
	if err := tx.Subscriptions.LockByMerchantID(ctx, merchantID); err != nil {
		return fmt.Errorf("查询订阅失败: %w", err)
	}
	sub, plan, err := s.effectiveOn(ctx, tx.Subscriptions, merchantID)
	if err != nil {
		return err
	}
	used, err := tx.Products.CountByMerchant(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("统计商品数失败: %w", err)
	}
	return s.ensureLimit(sub, plan.GetProductLimit(), ResourceProducts, used)
}

// EnsureCanCreateOrder 订单创建前的限额检查，加锁语义同商品导入
func (s *SubscriptionService) EnsureCanCreateOrder(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error {
	if err := tx.Subscriptions.LockByMerchantID(ctx, merchantID); err != nil {
		return fmt.Errorf("查询订阅失败: %w", err)
	}
	sub, plan, err := s.effectiveOn(ctx, tx.Subscriptions, merchantID)
	if err != nil {
		return err
	}
	used, err := tx.Orders.CountByMerchant(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("统计订单数失败: %w", err)
	}
	return s.ensureLimit(sub, plan.GetOrderLimit(), ResourceOrders, used)
}

// EnsureCanInviteTeamMember 团队邀请前的限额检查，加锁语义同商品导入
func (s *SubscriptionService) EnsureCanInviteTeamMember(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error {
	if err := tx.Subscriptions.LockByMerchantID(ctx, merchantID); err != nil {
		return fmt.Errorf("查询订阅失败: %w", err)
	}
	sub, plan, err := s.effectiveOn(ctx, tx.Subscriptions, merchantID)
	if err != nil {
		return err
	}
	used, err := tx.Members.CountActiveTeamMembers(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("统计团队成员失败: %w", err)
	}
	return s.ensureLimit(sub, plan.GetTeamMemberLimit(), ResourceTeamMembers, used)
}

// ConsumeAdQuota 原子抢占一次当日广告生成配额
// 与每日定时重置并发安全：计数翻转由单条条件 UPDATE 完成
func (s *SubscriptionService) ConsumeAdQuota(ctx context.Context, merchantID int64) error {
	sub, plan, err := s.effective(ctx, merchantID)
	if err != nil {
		return err
	}
	if !sub.IsUsable() {
		return apperr.NewValidation("subscription", "订阅状态不可用: "+sub.Status)
	}

	limit := sub.EffectiveLimit(plan.GetAdsPerDay())
	today := time.Now().UTC().Format("2006-01-02")

	ok, err := s.subRepo.TryIncrementAdsToday(ctx, merchantID, today, limit)
	if err != nil {
		return fmt.Errorf("广告配额抢占失败: %w", err)
	}
	if !ok {
		return apperr.NewLimitExceeded(ResourceAds, limit.Max(), limit.Sentinel())
	}
	return nil
}

// InviteTeamMember 邀请团队成员
// 限额检查与成员落库在同一事务内完成，拒绝时不产生成员记录
func (s *SubscriptionService) InviteTeamMember(ctx context.Context, merchantID int64, email, name string) (*model.TeamMember, error) {
	if email == "" {
		return nil, apperr.NewValidation("email", "不能为空")
	}

	member := &model.TeamMember{
		MerchantID: merchantID,
		Email:      email,
		Name:       name,
		Status:     model.TeamMemberStatusInvited,
	}
	err := s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := s.EnsureCanInviteTeamMember(ctx, tx, merchantID); err != nil {
			return err
		}
		if err := tx.Members.CreateTeamMember(ctx, member); err != nil {
			return fmt.Errorf("创建团队成员失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ListTeamMembers 团队成员列表（不含已移除）
func (s *SubscriptionService) ListTeamMembers(ctx context.Context, merchantID int64) ([]model.TeamMember, error) {
	return s.merchantRepo.ListTeamMembers(ctx, merchantID)
}

// RemoveTeamMember 移除团队成员，释放一个成员名额
func (s *SubscriptionService) RemoveTeamMember(ctx context.Context, merchantID, memberID int64) error {
	return s.merchantRepo.RemoveTeamMember(ctx, merchantID, memberID)
}

// ==================== 终身销售额累计 ====================

// progressOf 计算终身免费进度（0-100，四舍五入，封顶 100）
func (s *SubscriptionService) progressOf(lifetimeCents int64) int {
	p := (lifetimeCents*100 + s.cfg.FreeForLifeThresholdCents/2) / s.cfg.FreeForLifeThresholdCents
	if p > 100 {
		p = 100
	}
	return int(p)
}

// RecordOrderSales 在给定仓库（通常是事务内仓库）上累计一笔订单销售额
// 调用方负责按订单去重，保证每单只上报一次
func (s *SubscriptionService) RecordOrderSales(ctx context.Context, txSubs repository.SubscriptionRepository, merchantID, amountCents int64) error {
	if amountCents < 0 {
		// 退款/拒付走独立的显式扣减路径，不允许负数流入累加器
		return apperr.NewValidation("amount", "销售额不能为负数")
	}

	if err := txSubs.AddLifetimeSales(ctx, merchantID, amountCents); err != nil {
		return fmt.Errorf("销售额累加失败: %w", err)
	}

	promoted, err := txSubs.PromoteFreeForLife(ctx, merchantID, s.cfg.FreeForLifeThresholdCents, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("终身免费晋升检查失败: %w", err)
	}
	if promoted {
		logrus.Infof("商户 %d 销售额达标，解锁终身免费", merchantID)
	}

	// 回读并更新进度展示字段
	sub, err := txSubs.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("回读订阅失败: %w", err)
	}
	return txSubs.UpdateFields(ctx, sub.ID, map[string]interface{}{
		"progress_to_free_for_life": s.progressOf(sub.LifetimeSalesCents),
	})
}

// AccumulateLifetimeSales 独立事务内累计销售额，返回更新后的订阅
func (s *SubscriptionService) AccumulateLifetimeSales(ctx context.Context, merchantID, amountCents int64) (*model.Subscription, error) {
	err := s.subRepo.Transaction(ctx, func(txRepo repository.SubscriptionRepository) error {
		return s.RecordOrderSales(ctx, txRepo, merchantID, amountCents)
	})
	if err != nil {
		return nil, err
	}
	return s.subRepo.GetByMerchantID(ctx, merchantID)
}

// ==================== 用量总览 ====================

// ResourceUsage 单项资源用量
type ResourceUsage struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"` // -1 = 无限
}

// UsageSummary 商户用量总览
type UsageSummary struct {
	Status                string        `json:"status"`
	PlanName              string        `json:"plan_name"`
	LifetimeSales         float64       `json:"lifetime_sales"`
	ProgressToFreeForLife int           `json:"progress_to_free_for_life"`
	Products              ResourceUsage `json:"products"`
	Orders                ResourceUsage `json:"orders"`
	TeamMembers           ResourceUsage `json:"team_members"`
	AdsToday              ResourceUsage `json:"ads_today"`
}

// GetUsage 汇总商户各项资源用量与限额
func (s *SubscriptionService) GetUsage(ctx context.Context, merchantID int64) (*UsageSummary, error) {
	sub, plan, err := s.effective(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	products, err := s.productCounter.CountByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("统计商品数失败: %w", err)
	}
	orders, err := s.orderCounter.CountByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("统计订单数失败: %w", err)
	}
	team, err := s.teamCounter.CountActiveTeamMembers(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("统计团队成员失败: %w", err)
	}

	return &UsageSummary{
		Status:                sub.Status,
		PlanName:              plan.Name,
		LifetimeSales:         sub.GetLifetimeSales(),
		ProgressToFreeForLife: sub.ProgressToFreeForLife,
		Products:              ResourceUsage{Used: products, Limit: sub.EffectiveLimit(plan.GetProductLimit()).Sentinel()},
		Orders:                ResourceUsage{Used: orders, Limit: sub.EffectiveLimit(plan.GetOrderLimit()).Sentinel()},
		TeamMembers:           ResourceUsage{Used: team, Limit: sub.EffectiveLimit(plan.GetTeamMemberLimit()).Sentinel()},
		AdsToday:              ResourceUsage{Used: sub.AdsGeneratedToday, Limit: sub.EffectiveLimit(plan.GetAdsPerDay()).Sentinel()},
	}, nil
}
