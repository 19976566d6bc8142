package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
)

// KeywordExpander 搜索词扩展（AI 不可用时退化为 ILIKE 原词匹配）
type KeywordExpander interface {
	Enabled() bool
	ExpandSearchKeywords(ctx context.Context, query string) ([]string, error)
}

// CatalogService 全局选品目录搜索
type CatalogService struct {
	productRepo repository.ProductRepository
	expander    KeywordExpander
}

// NewCatalogService 创建目录服务
func NewCatalogService(productRepo repository.ProductRepository, expander KeywordExpander) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		expander:    expander,
	}
}

// Search 目录搜索
// 先尝试 AI 扩展关键词做 OR 匹配；AI 未配置或出错时退回原词 ILIKE，搜索永不因 AI 故障失败
func (s *CatalogService) Search(ctx context.Context, query string, page, pageSize int) ([]model.Product, int64, error) {
	filter := repository.ProductFilter{
		CatalogOnly: true,
		Status:      model.ProductStatusActive,
		Page:        page,
		PageSize:    pageSize,
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return s.productRepo.List(ctx, filter)
	}

	if s.expander != nil && s.expander.Enabled() {
		keywords, err := s.expander.ExpandSearchKeywords(ctx, query)
		if err != nil {
			logrus.Warnf("AI 扩词失败，退回 ILIKE 搜索: %v", err)
		} else {
			filter.Keywords = keywords
			items, total, lerr := s.productRepo.List(ctx, filter)
			if lerr == nil && total > 0 {
				return items, total, nil
			}
			if lerr != nil {
				return nil, 0, lerr
			}
			// 扩词后无结果，退回原词再试
			filter.Keywords = nil
		}
	}

	filter.Keyword = query
	return s.productRepo.List(ctx, filter)
}
