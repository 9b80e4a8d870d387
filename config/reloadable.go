package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ReloadableConfiguration 可重载配置
// 当前数据以 atomic.Value 持有的不可变快照存在，
// Reload 整体替换快照，读取路径完全无锁。
type ReloadableConfiguration struct {
	builder *ConfigurationBuilder
	current atomic.Value // map[string]any

	mu        sync.Mutex
	callbacks []func()
}

// BuildReloadable 构建可重载配置
// 首次加载失败会直接返回错误。
func (b *ConfigurationBuilder) BuildReloadable() (*ReloadableConfiguration, error) {
	rc := &ReloadableConfiguration{builder: b}
	rc.current.Store(make(map[string]any))

	if err := rc.Reload(); err != nil {
		return nil, err
	}

	return rc, nil
}

// Reload 重新加载所有配置源并替换当前快照
// 加载完成后通知所有 OnReload 回调。
func (rc *ReloadableConfiguration) Reload() error {
	data := make(map[string]any)

	for _, source := range rc.builder.GetSources() {
		loaded, err := source.Load()
		if err != nil {
			return fmt.Errorf("failed to load config source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}

	rc.current.Store(data)

	rc.mu.Lock()
	callbacks := make([]func(), len(rc.callbacks))
	copy(callbacks, rc.callbacks)
	rc.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}

	return nil
}

// OnReload 注册配置重载回调
func (rc *ReloadableConfiguration) OnReload(fn func()) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.callbacks = append(rc.callbacks, fn)
}

// snapshot 基于当前数据的只读视图
func (rc *ReloadableConfiguration) snapshot() *configuration {
	return &configuration{data: rc.current.Load().(map[string]any)}
}

// Get 获取配置值
func (rc *ReloadableConfiguration) Get(key string) string {
	return rc.snapshot().Get(key)
}

// GetWithDefault 获取配置值，如果不存在则返回默认值
func (rc *ReloadableConfiguration) GetWithDefault(key, defaultValue string) string {
	return rc.snapshot().GetWithDefault(key, defaultValue)
}

// GetInt 获取整数配置值
func (rc *ReloadableConfiguration) GetInt(key string) (int, error) {
	return rc.snapshot().GetInt(key)
}

// GetBool 获取布尔配置值
func (rc *ReloadableConfiguration) GetBool(key string) (bool, error) {
	return rc.snapshot().GetBool(key)
}

// GetSection 获取配置节
func (rc *ReloadableConfiguration) GetSection(key string) Configuration {
	return rc.snapshot().GetSection(key)
}

// Bind 绑定配置到结构体
func (rc *ReloadableConfiguration) Bind(key string, target any) error {
	return rc.snapshot().Bind(key, target)
}

// GetAll 获取所有配置
func (rc *ReloadableConfiguration) GetAll() map[string]any {
	return rc.snapshot().GetAll()
}

var _ Configuration = (*ReloadableConfiguration)(nil)
