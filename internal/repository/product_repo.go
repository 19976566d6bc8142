package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
)

// likePattern 忽略大小写的模糊匹配模式
func likePattern(keyword string) string {
	return "%" + strings.ToLower(keyword) + "%"
}

// ==================== 过滤条件 ====================

// ProductFilter 商品过滤条件
type ProductFilter struct {
	MerchantID  *int64 // nil 时不过滤商户
	SupplierID  int64
	Status      string
	Keyword     string   // 标题模糊匹配
	Keywords    []string // AI 扩展关键词，任一命中即可
	CatalogOnly bool     // 只查全局目录（merchant_id IS NULL）
	Page        int
	PageSize    int
}

// ==================== ProductRepository 商品仓库 ====================

// ProductRepository 商品仓库接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetMerchantProduct(ctx context.Context, merchantID, id int64) (*model.Product, error)
	GetMerchantCopyOfSource(ctx context.Context, merchantID, sourceID int64) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	// UpdatePricingCAS 带成本校验的定价更新
	// 仅当行上的成本仍等于 expectedCostCents 时生效（供应商同步可能并发改价），
	// 返回 false 表示检测到读-改-写竞争，由调用方重试
	UpdatePricingCAS(ctx context.Context, id int64, expectedCostCents int64, fields map[string]interface{}) (bool, error)

	// 统计（套餐限额检查用）
	CountByMerchant(ctx context.Context, merchantID int64) (int64, error)

	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetMerchantProduct(ctx context.Context, merchantID, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetMerchantCopyOfSource(ctx context.Context, merchantID, sourceID int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND source_product_id = ?", merchantID, sourceID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Product{})

	// 应用过滤条件
	if filter.CatalogOnly {
		db = db.Where("merchant_id IS NULL")
	} else if filter.MerchantID != nil {
		db = db.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.SupplierID > 0 {
		db = db.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if len(filter.Keywords) > 0 {
		// AI 扩展关键词，OR 语义，忽略大小写
		cond := r.db.Where("LOWER(title) LIKE ?", likePattern(filter.Keywords[0]))
		for _, kw := range filter.Keywords[1:] {
			cond = cond.Or("LOWER(title) LIKE ?", likePattern(kw))
		}
		db = db.Where(cond)
	} else if filter.Keyword != "" {
		db = db.Where("LOWER(title) LIKE ?", likePattern(filter.Keyword))
	}

	// 计算总数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := db.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&products).Error

	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) UpdatePricingCAS(ctx context.Context, id int64, expectedCostCents int64, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND supplier_price_cents = ?", id, expectedCostCents).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

func (r *productRepo) CountByMerchant(ctx context.Context, merchantID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("merchant_id = ?", merchantID).
		Count(&count).Error
	return count, err
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&productRepo{db: tx})
	})
}
