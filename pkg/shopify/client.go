package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 配置 ====================

// Config Shopify 应用配置
type Config struct {
	ApiKey    string // 应用 Client ID
	ApiSecret string // 应用 Client Secret
	ApiVer    string // Admin API 版本，如 2024-10
}

// ==================== Client ====================

// Client Shopify Admin API 客户端
// 本系统只消费两件事：授权码换 token、商品推送，其余 OAuth 细节不在此层
type Client struct {
	cfg  *Config
	http *resty.Client
}

// NewClient 创建 Shopify 客户端
func NewClient(cfg *Config) *Client {
	if cfg.ApiVer == "" {
		cfg.ApiVer = "2024-10"
	}

	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetRetryCount(3)

	return &Client{cfg: cfg, http: client}
}

// ==================== OAuth ====================

type tokenResp struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeToken 用授权码换取店铺访问令牌
func (c *Client) ExchangeToken(ctx context.Context, shopDomain, code string) (string, error) {
	var result tokenResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"client_id":     c.cfg.ApiKey,
			"client_secret": c.cfg.ApiSecret,
			"code":          code,
		}).
		SetResult(&result).
		Post(fmt.Sprintf("https://%s/admin/oauth/access_token", shopDomain))
	if err != nil {
		return "", fmt.Errorf("token 交换请求失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("token 交换被拒绝 (状态码 %d): %s", resp.StatusCode(), resp.String())
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token 交换响应缺少 access_token")
	}
	return result.AccessToken, nil
}

// ==================== 商品推送 ====================

// ProductPayload 推送到远端店铺的商品载荷
type ProductPayload struct {
	Title       string
	Description string
	PriceCents  int64
	Quantity    int
	Tags        []string
	ImageURL    string
}

type pushResp struct {
	Product struct {
		ID int64 `json:"id"`
	} `json:"product"`
}

// PushProduct 推送商品到商户的 Shopify 店铺，返回远端商品 ID
func (c *Client) PushProduct(ctx context.Context, shopDomain, accessToken string, p *ProductPayload) (string, error) {
	body := map[string]interface{}{
		"product": map[string]interface{}{
			"title":     p.Title,
			"body_html": p.Description,
			"tags":      p.Tags,
			"variants": []map[string]interface{}{
				{
					"price":                fmt.Sprintf("%.2f", float64(p.PriceCents)/100),
					"inventory_quantity":   p.Quantity,
					"inventory_management": "shopify",
				},
			},
		},
	}
	if p.ImageURL != "" {
		body["product"].(map[string]interface{})["images"] = []map[string]string{{"src": p.ImageURL}}
	}

	var result pushResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", accessToken).
		SetBody(body).
		SetResult(&result).
		Post(fmt.Sprintf("https://%s/admin/api/%s/products.json", shopDomain, c.cfg.ApiVer))
	if err != nil {
		return "", fmt.Errorf("商品推送请求失败: %w", err)
	}
	if resp.StatusCode() != 201 && resp.StatusCode() != 200 {
		return "", fmt.Errorf("商品推送被拒绝 (状态码 %d): %s", resp.StatusCode(), resp.String())
	}
	return fmt.Sprintf("%d", result.Product.ID), nil
}
