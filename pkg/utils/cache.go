package utils

import (
	"sync"
	"time"
)

// TTLCache 进程内带过期时间的缓存，条目类型由使用方指定
// 使用 sync.Map 保证并发安全
type TTLCache[V any] struct {
	entries sync.Map
}

type ttlEntry[V any] struct {
	value      V
	expiration int64
}

// NewTTLCache 创建缓存
func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{}
}

// Set 写入缓存
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.entries.Store(key, ttlEntry[V]{
		value:      value,
		expiration: time.Now().Add(ttl).Unix(),
	})
}

// Get 读取缓存并验证是否过期
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.entries.Load(key)
	if !ok {
		return zero, false
	}

	entry := val.(ttlEntry[V])

	// 检查是否过期
	if time.Now().Unix() > entry.expiration {
		c.entries.Delete(key) // 懒删除
		return zero, false
	}

	return entry.value, true
}

// Delete 删除缓存 (用完即焚)
func (c *TTLCache[V]) Delete(key string) {
	c.entries.Delete(key)
}
