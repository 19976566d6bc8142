package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
)

// AdQuotaConsumer 广告每日配额扣减
type AdQuotaConsumer interface {
	ConsumeAdQuota(ctx context.Context, merchantID int64) error
}

// AdCopyGenerator 文案生成
type AdCopyGenerator interface {
	GenerateAdCopy(ctx context.Context, productTitle, productDesc, extraInstruction string) (*AdCopy, error)
}

// AdService 广告创意生成服务
type AdService struct {
	adRepo      repository.AdCreativeRepository
	productRepo repository.ProductRepository
	quota       AdQuotaConsumer
	generator   AdCopyGenerator
	storage     StorageProvider // 可为 nil，此时沿用商品原图URL
	modelName   string
}

// NewAdService 创建广告服务
func NewAdService(
	adRepo repository.AdCreativeRepository,
	productRepo repository.ProductRepository,
	quota AdQuotaConsumer,
	generator AdCopyGenerator,
	storage StorageProvider,
	modelName string,
) *AdService {
	return &AdService{
		adRepo:      adRepo,
		productRepo: productRepo,
		quota:       quota,
		generator:   generator,
		storage:     storage,
		modelName:   modelName,
	}
}

// Generate 为商品生成一条广告创意
// 先扣当日配额再调 AI：配额扣减是原子条件更新，超限返回 LimitExceededError；
// AI 调用失败时配额不回补，避免失败重试绕过每日上限
func (s *AdService) Generate(ctx context.Context, merchantID, productID int64, extraInstruction string) (*model.AdCreative, error) {
	product, err := s.productRepo.GetMerchantProduct(ctx, merchantID, productID)
	if err != nil {
		return nil, fmt.Errorf("商品不存在: %w", err)
	}

	if err := s.quota.ConsumeAdQuota(ctx, merchantID); err != nil {
		return nil, err
	}

	copyResult, err := s.generator.GenerateAdCopy(ctx, product.Title, product.Description, extraInstruction)
	if err != nil {
		return nil, fmt.Errorf("广告文案生成失败: %w", err)
	}

	imageURL := product.ImageURL
	if s.storage != nil && imageURL != "" {
		hosted, uerr := s.storage.UploadFromURL(ctx, imageURL, fmt.Sprintf("ad_%d", productID))
		if uerr != nil {
			logrus.Warnf("广告图托管失败，沿用原图: %v", uerr)
		} else {
			imageURL = hosted
		}
	}

	creative := &model.AdCreative{
		MerchantID:   merchantID,
		ProductID:    productID,
		Headline:     copyResult.Headline,
		Body:         copyResult.Body,
		CallToAction: copyResult.CallToAction,
		Hashtags:     strings.Join(copyResult.Hashtags, ","),
		ImageURL:     imageURL,
		Model:        s.modelName,
	}
	if err := s.adRepo.Create(ctx, creative); err != nil {
		return nil, fmt.Errorf("保存广告创意失败: %w", err)
	}
	return creative, nil
}

// List 商家的广告创意分页
func (s *AdService) List(ctx context.Context, merchantID int64, page, pageSize int) ([]model.AdCreative, int64, error) {
	return s.adRepo.ListByMerchant(ctx, merchantID, page, pageSize)
}

// GetDetail 广告创意详情
func (s *AdService) GetDetail(ctx context.Context, merchantID, id int64) (*model.AdCreative, error) {
	creative, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if creative.MerchantID != merchantID {
		return nil, fmt.Errorf("广告创意不存在")
	}
	return creative, nil
}
