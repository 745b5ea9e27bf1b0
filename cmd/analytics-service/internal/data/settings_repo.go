package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/pkg/cache"

	"gorm.io/gorm"
)

// MemorySettingsRepo 内存设置存储
//
// Names are matched case-insensitively because records seeded from the
// config file arrive with lower-cased keys.
type MemorySettingsRepo struct {
	mu      sync.RWMutex
	records map[string]map[string]any
}

// NewMemorySettingsRepo 创建内存设置存储
func NewMemorySettingsRepo(records map[string]map[string]any) *MemorySettingsRepo {
	r := &MemorySettingsRepo{records: make(map[string]map[string]any, len(records))}
	for name, value := range records {
		r.records[strings.ToLower(name)] = value
	}
	return r
}

// Put 写入设置
func (r *MemorySettingsRepo) Put(name string, value map[string]any) {
	r.mu.Lock()
	r.records[strings.ToLower(name)] = value
	r.mu.Unlock()
}

// GetSetting 获取设置
func (r *MemorySettingsRepo) GetSetting(_ context.Context, name string) (*domain.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.records[strings.ToLower(name)]
	if !ok {
		return nil, domain.ErrSettingNotFound
	}
	return &domain.Setting{Name: name, Value: value}, nil
}

// Ping 内存存储总是可用
func (r *MemorySettingsRepo) Ping(context.Context) error {
	return nil
}

// SettingDO 设置表数据对象
type SettingDO struct {
	Name  string         `gorm:"primaryKey;column:name"`
	Value map[string]any `gorm:"column:value;type:jsonb;serializer:json"`
}

// TableName 表名
func (SettingDO) TableName() string {
	return "settings"
}

// GormSettingsRepo reads settings from the host's PostgreSQL settings table.
type GormSettingsRepo struct {
	db *gorm.DB
}

// NewGormSettingsRepo 创建数据库设置存储
func NewGormSettingsRepo(db *gorm.DB) *GormSettingsRepo {
	return &GormSettingsRepo{db: db}
}

// GetSetting 获取设置
func (r *GormSettingsRepo) GetSetting(ctx context.Context, name string) (*domain.Setting, error) {
	var do SettingDO
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&do).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSettingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query setting %s: %w", name, err)
	}
	return &domain.Setting{Name: do.Name, Value: do.Value}, nil
}

// Ping 检查数据库连接
func (r *GormSettingsRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// settingKey Redis 中的设置键
func settingKey(name string) string {
	return "setting:" + name
}

// RedisSettingsRepo reads settings stored as JSON values under
// "<prefix>:setting:<name>".
type RedisSettingsRepo struct {
	cache cache.Cache
}

// NewRedisSettingsRepo 创建 Redis 设置存储
func NewRedisSettingsRepo(c cache.Cache) *RedisSettingsRepo {
	return &RedisSettingsRepo{cache: c}
}

// GetSetting 获取设置
func (r *RedisSettingsRepo) GetSetting(ctx context.Context, name string) (*domain.Setting, error) {
	var value map[string]any
	err := r.cache.GetObject(ctx, settingKey(name), &value)
	if errors.Is(err, cache.ErrMiss) {
		return nil, domain.ErrSettingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %s: %w", name, err)
	}
	return &domain.Setting{Name: name, Value: value}, nil
}

// Ping 检查 Redis 连接
func (r *RedisSettingsRepo) Ping(ctx context.Context) error {
	return r.cache.Ping(ctx)
}
