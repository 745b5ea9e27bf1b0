package cache

import (
	"context"
	"time"
)

// Cache 缓存接口
type Cache interface {
	// GetBytes 获取字节数组
	GetBytes(ctx context.Context, key string) ([]byte, error)

	// SetObject 设置对象（自动序列化）
	SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// GetObject 获取对象（自动反序列化）
	GetObject(ctx context.Context, key string, dest interface{}) error

	// Delete 删除缓存
	Delete(ctx context.Context, key string) error

	// Ping 检查连接
	Ping(ctx context.Context) error

	// Close 关闭连接
	Close() error
}

// CacheOptions 缓存选项
type CacheOptions struct {
	// 默认过期时间，0 表示不过期
	DefaultTTL time.Duration

	// 键前缀
	KeyPrefix string

	// 序列化方式
	Serializer Serializer
}

// Serializer 序列化器接口
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}
