package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/pricing"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/pkg/shopify"
)

// ==================== 依赖接口 ====================

// ImportGuard 商品导入限额检查（与落库共享同一事务）
type ImportGuard interface {
	EnsureCanImportProduct(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error
}

// StorePusher 远端店铺商品推送
type StorePusher interface {
	PushProduct(ctx context.Context, shopDomain, accessToken string, p *shopify.ProductPayload) (string, error)
}

// MerchantReader 商户信息读取
type MerchantReader interface {
	GetByID(ctx context.Context, id int64) (*model.Merchant, error)
}

// ==================== ProductService ====================

// ProductService 商品服务：目录维护、导入定价、批量改价、远端推送
type ProductService struct {
	uow       *repository.UnitOfWork
	guard     ImportGuard
	pusher    StorePusher
	merchants MerchantReader
}

// NewProductService 创建商品服务
func NewProductService(
	uow *repository.UnitOfWork,
	guard ImportGuard,
	pusher StorePusher,
	merchants MerchantReader,
) *ProductService {
	return &ProductService{
		uow:       uow,
		guard:     guard,
		pusher:    pusher,
		merchants: merchants,
	}
}

// ==================== 目录维护 ====================

// CreateCatalogProduct 供应商同步/管理员动作创建全局目录商品
func (s *ProductService) CreateCatalogProduct(ctx context.Context, supplierID int64, title, description string, supplierPriceCents int64, quantity int, tags []string) (*model.Product, error) {
	if supplierPriceCents < 0 {
		return nil, apperr.NewValidation("supplier_price", "成本不能为负数")
	}
	if title == "" {
		return nil, apperr.NewValidation("title", "不能为空")
	}

	product := &model.Product{
		SupplierID:         supplierID,
		Title:              title,
		Description:        description,
		Tags:               tags,
		SupplierPriceCents: supplierPriceCents,
		Quantity:           quantity,
		Status:             model.ProductStatusActive,
	}
	if err := s.uow.Products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("创建目录商品失败: %w", err)
	}
	return product, nil
}

// ==================== 导入与定价 ====================

// ImportProduct 商户从全局目录导入商品到自己的店铺
// 限额检查在任何写入之前；重复导入同一目录商品时更新已有副本的定价规则
func (s *ProductService) ImportProduct(ctx context.Context, merchantID, catalogProductID int64, rule pricing.Rule) (*model.Product, error) {
	source, err := s.uow.Products.GetByID(ctx, catalogProductID)
	if err != nil {
		return nil, fmt.Errorf("目录商品不存在: %w", err)
	}
	if !source.IsCatalog() {
		return nil, apperr.NewValidation("product_id", "只能从全局目录导入")
	}

	price, err := pricing.ApplyMarkup(source.SupplierPriceCents, rule)
	if err != nil {
		return nil, err
	}

	// 重复导入：更新已有副本的规则与售价，不占用新的商品额度
	if existing, err := s.uow.Products.GetMerchantCopyOfSource(ctx, merchantID, catalogProductID); err == nil {
		existing.SetPricingRule(rule)
		existing.MerchantPriceCents = &price
		existing.SupplierPriceCents = source.SupplierPriceCents
		if err := s.uow.Products.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("更新商品定价失败: %w", err)
		}
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询商品副本失败: %w", err)
	}

	// 新导入的限额检查与落库同一事务：检查方持有订阅行锁直到提交，
	// 并发导入不会同时越过限额，拒绝时不产生任何写入
	copyProduct := &model.Product{
		SupplierID:         source.SupplierID,
		MerchantID:         &merchantID,
		SourceProductID:    &source.ID,
		Title:              source.Title,
		Description:        source.Description,
		Tags:               source.Tags,
		ImageURL:           source.ImageURL,
		SupplierPriceCents: source.SupplierPriceCents,
		MerchantPriceCents: &price,
		Quantity:           source.Quantity,
		Status:             model.ProductStatusActive,
	}
	copyProduct.SetPricingRule(rule)

	err = s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		if err := s.guard.EnsureCanImportProduct(ctx, tx, merchantID); err != nil {
			return err
		}
		if err := tx.Products.Create(ctx, copyProduct); err != nil {
			return fmt.Errorf("创建商品副本失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copyProduct, nil
}

// RemoveFromStore 商户将商品从自己店铺移除（全局目录条目保留）
func (s *ProductService) RemoveFromStore(ctx context.Context, merchantID, productID int64) error {
	product, err := s.uow.Products.GetMerchantProduct(ctx, merchantID, productID)
	if err != nil {
		return fmt.Errorf("商品不存在: %w", err)
	}
	return s.uow.Products.Delete(ctx, product.ID)
}

// ==================== 改价 ====================

// repriceAttempts CAS 冲突的有限重试次数
const repriceAttempts = 3

// Reprice 单品改价：按规则从当前成本重算售价
// 成本被并发修改时检测为冲突并有限重试
func (s *ProductService) Reprice(ctx context.Context, merchantID, productID int64, rule pricing.Rule) (*model.Product, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < repriceAttempts; attempt++ {
		product, err := s.uow.Products.GetMerchantProduct(ctx, merchantID, productID)
		if err != nil {
			return nil, fmt.Errorf("商品不存在: %w", err)
		}

		price, err := pricing.ApplyMarkup(product.SupplierPriceCents, rule)
		if err != nil {
			return nil, err
		}

		ok, err := s.uow.Products.UpdatePricingCAS(ctx, product.ID, product.SupplierPriceCents, map[string]interface{}{
			"merchant_price_cents": price,
			"markup_type":          string(rule.Type),
			"markup_value":         rule.Value,
		})
		if err != nil {
			return nil, fmt.Errorf("改价失败: %w", err)
		}
		if ok {
			product.SetPricingRule(rule)
			product.MerchantPriceCents = &price
			return product, nil
		}

		// 成本在读取后被并发修改，退避后重读重算
		lastErr = apperr.NewConflict("product", product.ID)
		time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
	}
	return nil, lastErr
}

// BulkReprice 批量改价
// 每个商品独立成一个工作单元：单品失败不回滚也不中断其余商品，
// 结果始终同时上报成功与失败计数
func (s *ProductService) BulkReprice(ctx context.Context, merchantID int64, productIDs []int64, rule pricing.Rule) (*apperr.BatchResult, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if len(productIDs) == 0 {
		return nil, apperr.NewValidation("product_ids", "不能为空")
	}

	result := &apperr.BatchResult{}
	for _, id := range productIDs {
		if _, err := s.Reprice(ctx, merchantID, id, rule); err != nil {
			result.AddErr(id, err)
			continue
		}
		result.AddOK()
	}

	logrus.Infof("批量改价完成 merchant=%d 成功=%d 失败=%d", merchantID, result.Succeeded, result.Failed)
	return result, nil
}

// ==================== 查询 ====================

// List 商品列表
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.uow.Products.List(ctx, filter)
}

// GetDetail 商品详情（带利润视图）
func (s *ProductService) GetDetail(ctx context.Context, merchantID, productID int64) (*model.Product, error) {
	return s.uow.Products.GetMerchantProduct(ctx, merchantID, productID)
}

// ==================== 远端推送 ====================

// PushToStore 将商户商品推送到其绑定的 Shopify 店铺
// 本层只消费推送成败，OAuth 细节在 pkg/shopify
func (s *ProductService) PushToStore(ctx context.Context, merchantID, productID int64) error {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("商户不存在: %w", err)
	}
	if !merchant.HasStore() {
		return apperr.NewValidation("store", "尚未绑定 Shopify 店铺")
	}

	product, err := s.uow.Products.GetMerchantProduct(ctx, merchantID, productID)
	if err != nil {
		return fmt.Errorf("商品不存在: %w", err)
	}
	if product.MerchantPriceCents == nil {
		return apperr.NewValidation("price", "商品尚未定价，无法推送")
	}

	remoteID, err := s.pusher.PushProduct(ctx, merchant.StoreDomain, merchant.StoreAccessToken, &shopify.ProductPayload{
		Title:       product.Title,
		Description: product.Description,
		PriceCents:  *product.MerchantPriceCents,
		Quantity:    product.Quantity,
		Tags:        product.Tags,
		ImageURL:    product.ImageURL,
	})
	if err != nil {
		// 推送失败记录状态，错误原样上抛由接入层转译
		_ = s.uow.Products.UpdateFields(ctx, product.ID, map[string]interface{}{"sync_status": 2})
		return fmt.Errorf("商品推送失败: %w", err)
	}

	return s.uow.Products.UpdateFields(ctx, product.ID, map[string]interface{}{
		"remote_product_id": remoteID,
		"sync_status":       1,
	})
}
