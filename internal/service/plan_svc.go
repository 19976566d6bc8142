package service

import (
	"context"
	"fmt"
	"math"

	"github.com/lib/pq"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
)

// ==================== PlanService 套餐管理 ====================

// PlanInput 套餐写入参数（金额为元，落库转分）
type PlanInput struct {
	Name               string
	Description        string
	PriceMonthly       float64
	PriceYearly        float64
	ProductLimit       int64
	OrderLimit         int64
	TeamMemberLimit    int64
	AdsPerDay          int64
	Features           []string
	StripePriceMonthly string
	StripePriceYearly  string
	IsActive           *bool
}

// PlanService 套餐管理服务（管理员）
type PlanService struct {
	planRepo repository.PlanRepository
}

// NewPlanService 创建套餐服务
func NewPlanService(planRepo repository.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

func validateLimit(field string, v int64) error {
	if v < -1 {
		return apperr.NewValidation(field, "限额必须为 -1（无限）或非负数")
	}
	return nil
}

func (s *PlanService) validate(input *PlanInput) error {
	if input.Name == "" {
		return apperr.NewValidation("name", "不能为空")
	}
	if err := validateLimit("product_limit", input.ProductLimit); err != nil {
		return err
	}
	if err := validateLimit("order_limit", input.OrderLimit); err != nil {
		return err
	}
	if err := validateLimit("team_member_limit", input.TeamMemberLimit); err != nil {
		return err
	}
	return validateLimit("ads_per_day", input.AdsPerDay)
}

func (s *PlanService) apply(plan *model.Plan, input *PlanInput) {
	plan.Name = input.Name
	plan.Description = input.Description
	plan.PriceMonthlyCents = int64(math.Round(input.PriceMonthly * 100))
	plan.PriceYearlyCents = int64(math.Round(input.PriceYearly * 100))
	plan.ProductLimit = input.ProductLimit
	plan.OrderLimit = input.OrderLimit
	plan.TeamMemberLimit = input.TeamMemberLimit
	plan.AdsPerDay = input.AdsPerDay
	plan.Features = pq.StringArray(input.Features)
	plan.StripePriceMonthly = input.StripePriceMonthly
	plan.StripePriceYearly = input.StripePriceYearly
	if input.IsActive != nil {
		plan.IsActive = *input.IsActive
	}
}

// Create 创建套餐
func (s *PlanService) Create(ctx context.Context, input *PlanInput) (*model.Plan, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	if _, err := s.planRepo.GetByName(ctx, input.Name); err == nil {
		return nil, apperr.NewValidation("name", "套餐名已存在")
	}

	plan := &model.Plan{IsActive: true}
	s.apply(plan, input)
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("创建套餐失败: %w", err)
	}
	return plan, nil
}

// Update 更新套餐
func (s *PlanService) Update(ctx context.Context, id int64, input *PlanInput) (*model.Plan, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.apply(plan, input)
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("更新套餐失败: %w", err)
	}
	return plan, nil
}

// List 套餐列表（商户端只看启用中的，管理端看全部）
func (s *PlanService) List(ctx context.Context, activeOnly bool) ([]model.Plan, error) {
	return s.planRepo.List(ctx, activeOnly)
}

// GetDetail 套餐详情
func (s *PlanService) GetDetail(ctx context.Context, id int64) (*model.Plan, error) {
	return s.planRepo.GetByID(ctx, id)
}

// Deactivate 下架套餐（不删除行，存量订阅的限额引用保持有效）
func (s *PlanService) Deactivate(ctx context.Context, id int64) error {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	plan.IsActive = false
	return s.planRepo.Update(ctx, plan)
}
