package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
)

// ==================== MerchantRepository 商户仓库 ====================

// MerchantRepository 商户仓库接口
type MerchantRepository interface {
	Create(ctx context.Context, merchant *model.Merchant) error
	GetByID(ctx context.Context, id int64) (*model.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*model.Merchant, error)
	Update(ctx context.Context, merchant *model.Merchant) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// 团队成员
	CreateTeamMember(ctx context.Context, member *model.TeamMember) error
	ListTeamMembers(ctx context.Context, merchantID int64) ([]model.TeamMember, error)
	CountActiveTeamMembers(ctx context.Context, merchantID int64) (int64, error)
	RemoveTeamMember(ctx context.Context, merchantID, memberID int64) error
}

type merchantRepo struct {
	db *gorm.DB
}

// NewMerchantRepository 创建商户仓库
func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepo{db: db}
}

func (r *merchantRepo) Create(ctx context.Context, merchant *model.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *merchantRepo) GetByID(ctx context.Context, id int64) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.db.WithContext(ctx).First(&merchant, id).Error
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepo) GetByEmail(ctx context.Context, email string) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&merchant).Error
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepo) Update(ctx context.Context, merchant *model.Merchant) error {
	return r.db.WithContext(ctx).Save(merchant).Error
}

func (r *merchantRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Merchant{}).Where("id = ?", id).Updates(fields).Error
}

func (r *merchantRepo) CreateTeamMember(ctx context.Context, member *model.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *merchantRepo) ListTeamMembers(ctx context.Context, merchantID int64) ([]model.TeamMember, error) {
	var members []model.TeamMember
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND status <> ?", merchantID, model.TeamMemberStatusRemoved).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *merchantRepo) CountActiveTeamMembers(ctx context.Context, merchantID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TeamMember{}).
		Where("merchant_id = ? AND status <> ?", merchantID, model.TeamMemberStatusRemoved).
		Count(&count).Error
	return count, err
}

func (r *merchantRepo) RemoveTeamMember(ctx context.Context, merchantID, memberID int64) error {
	return r.db.WithContext(ctx).Model(&model.TeamMember{}).
		Where("id = ? AND merchant_id = ?", memberID, merchantID).
		Update("status", model.TeamMemberStatusRemoved).Error
}
