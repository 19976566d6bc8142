package utils

import (
	"testing"
	"time"
)

type pendingConnect struct {
	MerchantID int64
	ShopDomain string
}

func TestTTLCache_TypedRoundTrip(t *testing.T) {
	c := NewTTLCache[pendingConnect]()

	c.Set("state-1", pendingConnect{MerchantID: 7, ShopDomain: "demo.myshopify.com"}, time.Minute)

	got, ok := c.Get("state-1")
	if !ok {
		t.Fatal("未过期的条目应命中")
	}
	if got.MerchantID != 7 || got.ShopDomain != "demo.myshopify.com" {
		t.Errorf("条目内容不符: %+v", got)
	}

	// 用完即焚
	c.Delete("state-1")
	if _, ok := c.Get("state-1"); ok {
		t.Error("删除后不应命中")
	}
}

func TestTTLCache_ExpiredEntryMisses(t *testing.T) {
	c := NewTTLCache[pendingConnect]()

	c.Set("state-2", pendingConnect{MerchantID: 7}, -2*time.Second)

	if _, ok := c.Get("state-2"); ok {
		t.Fatal("过期条目应未命中")
	}
}

func TestTTLCache_MissReturnsZeroValue(t *testing.T) {
	c := NewTTLCache[pendingConnect]()

	got, ok := c.Get("absent")
	if ok {
		t.Fatal("不存在的键不应命中")
	}
	if got.MerchantID != 0 || got.ShopDomain != "" {
		t.Errorf("未命中应返回零值, got %+v", got)
	}
}
