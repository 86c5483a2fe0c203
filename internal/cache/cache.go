// Package cache 提供带过期时间的键值缓存，用于行情价格和代币图标等可重新获取的数据。
package cache

import (
	"context"
	"time"
)

// Cache 由调用方持有的缓存，值过期后视为不存在
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Invalidate(ctx context.Context, key string) error
	TTL() time.Duration
}
