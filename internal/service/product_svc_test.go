package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/apperr"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/pricing"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/pkg/shopify"
)

// ==================== 测试模型 ====================

// 商品表在生产库带 text[] 列与 GIN 索引，sqlite 下用精简结构建表
type TestProductRow struct {
	ID                 int64 `gorm:"primaryKey"`
	SupplierID         int64
	MerchantID         *int64
	SourceProductID    *int64
	Title              string
	Description        string
	Tags               string
	ImageURL           string
	SupplierPriceCents int64
	MerchantPriceCents *int64
	MarkupType         string
	MarkupValue        float64
	Quantity           int
	Status             string
	RemoteProductID    string
	SyncStatus         int
	AiContext          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt
}

func (TestProductRow) TableName() string { return "products" }

// ==================== 测试辅助 ====================

type fakeImportGuard struct{ err error }

func (f *fakeImportGuard) EnsureCanImportProduct(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error {
	return f.err
}

type fakeStorePusher struct {
	remoteID string
	err      error
	pushed   []*shopify.ProductPayload
}

func (f *fakeStorePusher) PushProduct(ctx context.Context, shopDomain, accessToken string, p *shopify.ProductPayload) (string, error) {
	f.pushed = append(f.pushed, p)
	return f.remoteID, f.err
}

type fakeMerchantReader struct{ merchant *model.Merchant }

func (f *fakeMerchantReader) GetByID(ctx context.Context, id int64) (*model.Merchant, error) {
	return f.merchant, nil
}

func setupProductTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	db.AutoMigrate(&TestProductRow{})
	return db
}

func newProductService(db *gorm.DB, guard ImportGuard, pusher *fakeStorePusher, merchant *model.Merchant) (*ProductService, repository.ProductRepository) {
	uow := repository.NewUnitOfWork(db)
	return NewProductService(uow, guard, pusher, &fakeMerchantReader{merchant: merchant}), uow.Products
}

func seedCatalogProduct(t *testing.T, db *gorm.DB, id int64, costCents int64) {
	if err := db.Create(&TestProductRow{
		ID:                 id,
		SupplierID:         7,
		Title:              "不锈钢保温杯",
		Tags:               "{}",
		SupplierPriceCents: costCents,
		Quantity:           50,
		Status:             model.ProductStatusActive,
	}).Error; err != nil {
		t.Fatalf("写入目录商品失败: %v", err)
	}
}

// ==================== 导入与定价 ====================

func TestProductService_ImportProduct(t *testing.T) {
	db := setupProductTestDB(t)
	svc, _ := newProductService(db, &fakeImportGuard{}, &fakeStorePusher{}, nil)
	ctx := context.Background()

	seedCatalogProduct(t, db, 1, 1000) // $10.00

	// 百分比加价 20% → $12.00
	copy1, err := svc.ImportProduct(ctx, 1, 1, pricing.Percentage(20))
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if copy1.MerchantPriceCents == nil || *copy1.MerchantPriceCents != 1200 {
		t.Errorf("price = %v, want 1200", copy1.MerchantPriceCents)
	}
	if copy1.IsCatalog() {
		t.Error("副本不应是目录商品")
	}
	if copy1.SourceProductID == nil || *copy1.SourceProductID != 1 {
		t.Error("副本应指向目录来源")
	}

	// 重复导入：更新已有副本而非新建
	copy2, err := svc.ImportProduct(ctx, 1, 1, pricing.Fixed(5))
	if err != nil {
		t.Fatalf("重复导入失败: %v", err)
	}
	if copy2.ID != copy1.ID {
		t.Errorf("重复导入应复用副本, got %d want %d", copy2.ID, copy1.ID)
	}
	if *copy2.MerchantPriceCents != 1500 {
		t.Errorf("price = %d, want 1500", *copy2.MerchantPriceCents)
	}

	var count int64
	db.Model(&TestProductRow{}).Where("merchant_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("商户副本数 = %d, want 1", count)
	}
}

func TestProductService_ImportProduct_LimitRejectedBeforeWrite(t *testing.T) {
	db := setupProductTestDB(t)
	guard := &fakeImportGuard{err: apperr.NewLimitExceeded(ResourceProducts, 25, 25)}
	svc, _ := newProductService(db, guard, &fakeStorePusher{}, nil)

	seedCatalogProduct(t, db, 1, 1000)

	_, err := svc.ImportProduct(context.Background(), 1, 1, pricing.Percentage(20))
	if !apperr.IsLimitExceeded(err) {
		t.Fatalf("限额已满应拒绝导入, got %v", err)
	}

	var count int64
	db.Model(&TestProductRow{}).Where("merchant_id IS NOT NULL").Count(&count)
	if count != 0 {
		t.Errorf("拒绝后不应有副本落库, count = %d", count)
	}
}

// countingImportGuard 用事务内仓库计数的限额检查
type countingImportGuard struct{ limit int64 }

func (g *countingImportGuard) EnsureCanImportProduct(ctx context.Context, tx *repository.UnitOfWork, merchantID int64) error {
	used, err := tx.Products.CountByMerchant(ctx, merchantID)
	if err != nil {
		return err
	}
	if used >= g.limit {
		return apperr.NewLimitExceeded(ResourceProducts, used, g.limit)
	}
	return nil
}

func TestProductService_ImportProduct_GuardCountsCommittedCopies(t *testing.T) {
	db := setupProductTestDB(t)
	svc, _ := newProductService(db, &countingImportGuard{limit: 1}, &fakeStorePusher{}, nil)
	ctx := context.Background()

	seedCatalogProduct(t, db, 1, 1000)
	seedCatalogProduct(t, db, 2, 2000)

	// 检查与落库同一事务：第二次导入计数时能看到第一份副本
	if _, err := svc.ImportProduct(ctx, 1, 1, pricing.Percentage(20)); err != nil {
		t.Fatalf("第一次导入应放行: %v", err)
	}
	if _, err := svc.ImportProduct(ctx, 1, 2, pricing.Percentage(20)); !apperr.IsLimitExceeded(err) {
		t.Fatalf("第二次导入应超限, got %v", err)
	}

	var count int64
	db.Model(&TestProductRow{}).Where("merchant_id IS NOT NULL").Count(&count)
	if count != 1 {
		t.Errorf("副本数 = %d, want 1", count)
	}
}

func TestProductService_ImportProduct_NegativeMarkupRejected(t *testing.T) {
	db := setupProductTestDB(t)
	svc, _ := newProductService(db, &fakeImportGuard{}, &fakeStorePusher{}, nil)

	seedCatalogProduct(t, db, 1, 1000)

	_, err := svc.ImportProduct(context.Background(), 1, 1, pricing.Percentage(-10))
	if !apperr.IsValidation(err) {
		t.Fatalf("负加价应被拒绝, got %v", err)
	}
}

func TestProductService_ImportProduct_OnlyFromCatalog(t *testing.T) {
	db := setupProductTestDB(t)
	svc, _ := newProductService(db, &fakeImportGuard{}, &fakeStorePusher{}, nil)
	ctx := context.Background()

	seedCatalogProduct(t, db, 1, 1000)
	if _, err := svc.ImportProduct(ctx, 1, 1, pricing.Percentage(20)); err != nil {
		t.Fatalf("导入失败: %v", err)
	}

	// 商户副本不是合法的导入来源
	var row TestProductRow
	db.Where("merchant_id = ?", 1).First(&row)
	_, err := svc.ImportProduct(ctx, 2, row.ID, pricing.Percentage(20))
	if !apperr.IsValidation(err) {
		t.Fatalf("从副本导入应被拒绝, got %v", err)
	}
}

// ==================== 改价 ====================

func TestProductService_Reprice(t *testing.T) {
	db := setupProductTestDB(t)
	svc, _ := newProductService(db, &fakeImportGuard{}, &fakeStorePusher{}, nil)
	ctx := context.Background()

	seedCatalogProduct(t, db, 1, 1000)
	imported, _ := svc.ImportProduct(ctx, 1, 1, pricing.Percentage(20))

	updated, err := svc.Reprice(ctx, 1, imported.ID, pricing.Percentage(50))
	if err != nil {
		t.Fatalf("改价失败: %v", err)
	}
	if *updated.MerchantPriceCents != 1500 {
		t.Errorf("price = %d, want 1500", *updated.MerchantPriceCents)
	}

	// 规则持久化，订单快照之外的视图始终按当前规则展示
	rule, ok := updated.PricingRule()
	if !ok || rule.Type != pricing.RuleTypePercentage || rule.Value != 50 {
		t.Errorf("rule = %+v ok=%v, want percentage 50", rule, ok)
	}
}

func TestProductService_BulkReprice_PartialFailure(t *testing.T) {
	db := setupProductTestDB(t)
	svc, _ := newProductService(db, &fakeImportGuard{}, &fakeStorePusher{}, nil)
	ctx := context.Background()

	seedCatalogProduct(t, db, 1, 1000)
	seedCatalogProduct(t, db, 2, 2000)
	a, _ := svc.ImportProduct(ctx, 1, 1, pricing.Percentage(20))
	b, _ := svc.ImportProduct(ctx, 1, 2, pricing.Percentage(20))

	// 9999 不存在：单项失败不中断整批
	result, err := svc.BulkReprice(ctx, 1, []int64{a.ID, 9999, b.ID}, pricing.Percentage(30))
	if err != nil {
		t.Fatalf("批量改价失败: %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("succeeded/failed = %d/%d, want 2/1", result.Succeeded, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].ID != 9999 {
		t.Errorf("errors = %+v, want 单条 9999", result.Errors)
	}

	// 成功项已生效
	got, _ := svc.GetDetail(ctx, 1, a.ID)
	if *got.MerchantPriceCents != 1300 {
		t.Errorf("price = %d, want 1300", *got.MerchantPriceCents)
	}
}

func TestProductService_BulkReprice_InvalidRuleRejectsWholeBatch(t *testing.T) {
	db := setupProductTestDB(t)
	svc, _ := newProductService(db, &fakeImportGuard{}, &fakeStorePusher{}, nil)

	_, err := svc.BulkReprice(context.Background(), 1, []int64{1, 2}, pricing.Rule{Type: "bogus", Value: 10})
	if !apperr.IsValidation(err) {
		t.Fatalf("非法规则应整批拒绝, got %v", err)
	}
}

// ==================== 店铺移除 ====================

func TestProductService_RemoveFromStore_KeepsCatalog(t *testing.T) {
	db := setupProductTestDB(t)
	svc, _ := newProductService(db, &fakeImportGuard{}, &fakeStorePusher{}, nil)
	ctx := context.Background()

	seedCatalogProduct(t, db, 1, 1000)
	imported, _ := svc.ImportProduct(ctx, 1, 1, pricing.Percentage(20))

	if err := svc.RemoveFromStore(ctx, 1, imported.ID); err != nil {
		t.Fatalf("移除失败: %v", err)
	}

	// 副本软删除，目录条目保留
	if _, err := svc.GetDetail(ctx, 1, imported.ID); err == nil {
		t.Error("移除后的商品不应再可见")
	}
	var catalog TestProductRow
	if err := db.First(&catalog, 1).Error; err != nil {
		t.Errorf("目录商品应保留: %v", err)
	}
}

// ==================== 远端推送 ====================

func TestProductService_PushToStore(t *testing.T) {
	db := setupProductTestDB(t)
	pusher := &fakeStorePusher{remoteID: "998877"}
	merchant := &model.Merchant{
		BaseModel:        model.BaseModel{ID: 1},
		StoreDomain:      "demo.myshopify.com",
		StoreAccessToken: "shpat_test",
	}
	svc, _ := newProductService(db, &fakeImportGuard{}, pusher, merchant)
	ctx := context.Background()

	seedCatalogProduct(t, db, 1, 1000)
	imported, _ := svc.ImportProduct(ctx, 1, 1, pricing.Percentage(20))

	if err := svc.PushToStore(ctx, 1, imported.ID); err != nil {
		t.Fatalf("推送失败: %v", err)
	}
	if len(pusher.pushed) != 1 || pusher.pushed[0].PriceCents != 1200 {
		t.Errorf("推送载荷 = %+v", pusher.pushed)
	}

	var row TestProductRow
	db.First(&row, imported.ID)
	if row.SyncStatus != 1 || row.RemoteProductID != "998877" {
		t.Errorf("sync_status/remote_id = %d/%s, want 1/998877", row.SyncStatus, row.RemoteProductID)
	}
}

func TestProductService_PushToStore_RequiresBoundStore(t *testing.T) {
	db := setupProductTestDB(t)
	merchant := &model.Merchant{BaseModel: model.BaseModel{ID: 1}}
	svc, _ := newProductService(db, &fakeImportGuard{}, &fakeStorePusher{}, merchant)
	ctx := context.Background()

	seedCatalogProduct(t, db, 1, 1000)
	imported, _ := svc.ImportProduct(ctx, 1, 1, pricing.Percentage(20))

	if err := svc.PushToStore(ctx, 1, imported.ID); !apperr.IsValidation(err) {
		t.Fatalf("未绑定店铺应拒绝推送, got %v", err)
	}
}
