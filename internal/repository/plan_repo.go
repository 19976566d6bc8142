package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
)

// ==================== PlanRepository 套餐仓库 ====================

// PlanRepository 套餐仓库接口
type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	GetByID(ctx context.Context, id int64) (*model.Plan, error)
	GetByName(ctx context.Context, name string) (*model.Plan, error)
	GetByStripePrice(ctx context.Context, priceID string) (*model.Plan, error)
	List(ctx context.Context, activeOnly bool) ([]model.Plan, error)
	Update(ctx context.Context, plan *model.Plan) error
	Delete(ctx context.Context, id int64) error
}

type planRepo struct {
	db *gorm.DB
}

// NewPlanRepository 创建套餐仓库
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) Create(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *planRepo) GetByID(ctx context.Context, id int64) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) GetByStripePrice(ctx context.Context, priceID string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).
		Where("stripe_price_monthly = ? OR stripe_price_yearly = ?", priceID, priceID).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) List(ctx context.Context, activeOnly bool) ([]model.Plan, error) {
	var plans []model.Plan
	db := r.db.WithContext(ctx).Model(&model.Plan{})
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("price_monthly_cents ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepo) Update(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *planRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Plan{}, id).Error
}
