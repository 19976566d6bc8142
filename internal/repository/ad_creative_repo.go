package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
)

// AdCreativeRepository 广告创意仓库接口
type AdCreativeRepository interface {
	Create(ctx context.Context, creative *model.AdCreative) error
	GetByID(ctx context.Context, id int64) (*model.AdCreative, error)
	ListByMerchant(ctx context.Context, merchantID int64, page, pageSize int) ([]model.AdCreative, int64, error)
}

type adCreativeRepo struct {
	db *gorm.DB
}

// NewAdCreativeRepository 创建广告创意仓库
func NewAdCreativeRepository(db *gorm.DB) AdCreativeRepository {
	return &adCreativeRepo{db: db}
}

func (r *adCreativeRepo) Create(ctx context.Context, creative *model.AdCreative) error {
	return r.db.WithContext(ctx).Create(creative).Error
}

func (r *adCreativeRepo) GetByID(ctx context.Context, id int64) (*model.AdCreative, error) {
	var creative model.AdCreative
	err := r.db.WithContext(ctx).First(&creative, id).Error
	if err != nil {
		return nil, err
	}
	return &creative, nil
}

func (r *adCreativeRepo) ListByMerchant(ctx context.Context, merchantID int64, page, pageSize int) ([]model.AdCreative, int64, error) {
	var creatives []model.AdCreative
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AdCreative{}).Where("merchant_id = ?", merchantID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	err := db.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&creatives).Error
	return creatives, total, err
}
