package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
)

// fakeExpander 可编程的关键词扩展
type fakeExpander struct {
	enabled  bool
	keywords []string
	err      error
}

func (f *fakeExpander) Enabled() bool { return f.enabled }

func (f *fakeExpander) ExpandSearchKeywords(ctx context.Context, query string) ([]string, error) {
	return f.keywords, f.err
}

func seedCatalogTitles(t *testing.T, db *gorm.DB, titles ...string) {
	for i, title := range titles {
		if err := db.Create(&TestProductRow{
			ID:         int64(i + 1),
			SupplierID: 7,
			Title:      title,
			Status:     model.ProductStatusActive,
		}).Error; err != nil {
			t.Fatalf("写入目录商品失败: %v", err)
		}
	}
}

func TestCatalogService_Search_AIExpansion(t *testing.T) {
	db := setupProductTestDB(t)
	seedCatalogTitles(t, db, "Ceramic Coffee Mug", "Canvas Tote Bag", "Insulated Tumbler")

	expander := &fakeExpander{enabled: true, keywords: []string{"mug", "tumbler"}}
	svc := NewCatalogService(repository.NewProductRepository(db), expander)

	items, total, err := svc.Search(context.Background(), "something to drink from", 1, 20)
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	for _, p := range items {
		if p.Title == "Canvas Tote Bag" {
			t.Error("不应命中无关商品")
		}
	}
}

func TestCatalogService_Search_FallbackWhenAIFails(t *testing.T) {
	db := setupProductTestDB(t)
	seedCatalogTitles(t, db, "Ceramic Coffee Mug", "Canvas Tote Bag")

	// AI 出错：退回原词匹配，搜索不失败
	expander := &fakeExpander{enabled: true, err: errors.New("quota exhausted")}
	svc := NewCatalogService(repository.NewProductRepository(db), expander)

	_, total, err := svc.Search(context.Background(), "mug", 1, 20)
	if err != nil {
		t.Fatalf("AI 故障不应导致搜索失败: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestCatalogService_Search_AIDisabled(t *testing.T) {
	db := setupProductTestDB(t)
	seedCatalogTitles(t, db, "Ceramic Coffee Mug", "Canvas Tote Bag")

	svc := NewCatalogService(repository.NewProductRepository(db), &fakeExpander{enabled: false})

	// 大小写不敏感的 ILIKE 语义
	_, total, err := svc.Search(context.Background(), "TOTE", 1, 20)
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestCatalogService_Search_EmptyQueryListsAll(t *testing.T) {
	db := setupProductTestDB(t)
	seedCatalogTitles(t, db, "Ceramic Coffee Mug", "Canvas Tote Bag")

	svc := NewCatalogService(repository.NewProductRepository(db), &fakeExpander{enabled: true})

	_, total, err := svc.Search(context.Background(), "  ", 1, 20)
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
}
