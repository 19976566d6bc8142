package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const apiBaseURL = "https://api.stripe.com/v1"

// ==================== Client ====================

// Client Stripe API 客户端
// 本系统只消费结账会话、客户门户会话与订阅状态事件，支付流程本身不在此层
type Client struct {
	secretKey string
	http      *resty.Client
}

// NewClient 创建 Stripe 客户端
func NewClient(secretKey string) *Client {
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetRetryCount(2)

	return &Client{secretKey: secretKey, http: client}
}

type sessionResp struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession 创建订阅结账会话，返回跳转 URL
func (c *Client) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	form := map[string]string{
		"mode":                    "subscription",
		"line_items[0][price]":    priceID,
		"line_items[0][quantity]": "1",
		"success_url":             successURL,
		"cancel_url":              cancelURL,
	}
	if customerID != "" {
		form["customer"] = customerID
	}

	var result sessionResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.secretKey, "").
		SetFormData(form).
		SetResult(&result).
		Post(apiBaseURL + "/checkout/sessions")
	if err != nil {
		return "", fmt.Errorf("创建结账会话失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("结账会话被拒绝 (状态码 %d): %s", resp.StatusCode(), resp.String())
	}
	return result.URL, nil
}

// CreatePortalSession 创建客户订阅管理门户会话，返回跳转 URL
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	var result sessionResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.secretKey, "").
		SetFormData(map[string]string{
			"customer":   customerID,
			"return_url": returnURL,
		}).
		SetResult(&result).
		Post(apiBaseURL + "/billing_portal/sessions")
	if err != nil {
		return "", fmt.Errorf("创建门户会话失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("门户会话被拒绝 (状态码 %d): %s", resp.StatusCode(), resp.String())
	}
	return result.URL, nil
}

// ==================== Webhook 事件 ====================

// SubscriptionEvent webhook 投递的订阅状态事件（已解包）
type SubscriptionEvent struct {
	Type           string // customer.subscription.updated 等
	CustomerID     string
	SubscriptionID string
	Status         string // active / past_due / canceled / trialing
	PriceID        string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// 原始 webhook 载荷中本系统关心的字段
type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Customer string `json:"customer"`
			Status   string `json:"status"`
			Items    struct {
				Data []struct {
					Price struct {
						ID string `json:"id"`
					} `json:"price"`
				} `json:"data"`
			} `json:"items"`
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhookEvent 解包订阅 webhook 事件
// 签名校验属于接入层职责，不在此处理
func ParseWebhookEvent(body []byte) (*SubscriptionEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("webhook 载荷解析失败: %w", err)
	}

	evt := &SubscriptionEvent{
		Type:           env.Type,
		CustomerID:     env.Data.Object.Customer,
		SubscriptionID: env.Data.Object.ID,
		Status:         env.Data.Object.Status,
		PeriodStart:    time.Unix(env.Data.Object.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:      time.Unix(env.Data.Object.CurrentPeriodEnd, 0).UTC(),
	}
	if len(env.Data.Object.Items.Data) > 0 {
		evt.PriceID = env.Data.Object.Items.Data[0].Price.ID
	}
	return evt, nil
}
