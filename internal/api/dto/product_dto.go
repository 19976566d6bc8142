package dto

// ==================== 请求 ====================

// CreateCatalogProductRequest 创建全局目录商品（供应商）
type CreateCatalogProductRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	SupplierPrice float64  `json:"supplier_price" binding:"min=0"` // 元
	Quantity      int      `json:"quantity" binding:"min=0"`
	Tags          []string `json:"tags"`
}

// MarkupRequest 加价规则
type MarkupRequest struct {
	Type  string  `json:"type" binding:"required,oneof=percentage fixed"`
	Value float64 `json:"value"`
}

// ImportProductRequest 从目录导入
type ImportProductRequest struct {
	ProductID int64         `json:"product_id" binding:"required"`
	Markup    MarkupRequest `json:"markup" binding:"required"`
}

// RepriceRequest 单品改价
type RepriceRequest struct {
	Markup MarkupRequest `json:"markup" binding:"required"`
}

// BulkRepriceRequest 批量改价
type BulkRepriceRequest struct {
	ProductIDs []int64       `json:"product_ids" binding:"required,min=1"`
	Markup     MarkupRequest `json:"markup" binding:"required"`
}

// ProductListRequest 商品列表查询
type ProductListRequest struct {
	Status   string `form:"status"`
	Keyword  string `form:"keyword"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CatalogSearchRequest 目录搜索
type CatalogSearchRequest struct {
	Query    string `form:"q"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ==================== 响应 ====================

// ProductInfo 商品视图（带利润）
type ProductInfo struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	SupplierPrice   float64  `json:"supplier_price"`
	MerchantPrice   float64  `json:"merchant_price"`
	UnitProfit      float64  `json:"unit_profit"`
	MarkupType      string   `json:"markup_type,omitempty"`
	MarkupValue     float64  `json:"markup_value,omitempty"`
	Quantity        int      `json:"quantity"`
	Status          string   `json:"status"`
	SyncStatus      int      `json:"sync_status"`
	RemoteProductID string   `json:"remote_product_id,omitempty"`
}

// ProductListResponse 商品列表
type ProductListResponse struct {
	List  []ProductInfo `json:"list"`
	Total int64         `json:"total"`
}

// BulkRepriceResponse 批量改价结果
type BulkRepriceResponse struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Errors    []BulkItemError `json:"errors,omitempty"`
}

// BulkItemError 批量操作单项失败
type BulkItemError struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}
