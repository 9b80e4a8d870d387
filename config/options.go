package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Option 静态配置选项：应用启动时绑定一次，之后不变。
type Option[T any] interface {
	Value() T
}

// OptionSnapshot 快照配置选项：解析时取一份当时的配置副本，
// 拿到手后不再跟随重载变化。
type OptionSnapshot[T any] interface {
	Value() T
}

// OptionMonitor 监听配置选项：每次 Value 返回最新配置，
// 配置源重载后自动更新。
type OptionMonitor[T any] interface {
	Value() T
}

// OptionsCache 把配置的一个节绑定为 T 并跟随重载刷新。
// 配置实现若支持 OnReload 回调，刷新自动挂接；否则值停留在首次绑定的结果。
type OptionsCache[T any] struct {
	config  Configuration
	section string

	mu      sync.RWMutex
	current T
}

// NewOptionsCache 创建配置缓存并完成首次绑定。
// 节不存在时值为 T 的零值。
func NewOptionsCache[T any](config Configuration, section string) *OptionsCache[T] {
	cache := &OptionsCache[T]{config: config, section: section}
	cache.refresh()

	if rc, ok := config.(interface{ OnReload(func()) }); ok {
		rc.OnReload(func() { cache.refresh() })
	}
	return cache
}

func (c *OptionsCache[T]) refresh() error {
	var next T
	if err := c.config.Bind(c.section, &next); err != nil {
		return fmt.Errorf("bind config section %s: %w", c.section, err)
	}
	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
	return nil
}

// Get 返回当前值。
func (c *OptionsCache[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Snapshot 返回当前值的独立副本。
// 副本经 JSON 往返产生；不可序列化的类型退化为浅拷贝。
func (c *OptionsCache[T]) Snapshot() T {
	current := c.Get()

	data, err := json.Marshal(current)
	if err != nil {
		return current
	}
	var clone T
	if err := json.Unmarshal(data, &clone); err != nil {
		return current
	}
	return clone
}

// fixedOption 一经创建不再变化的值，同时充当 Option 与 OptionSnapshot。
type fixedOption[T any] struct {
	v T
}

func (o fixedOption[T]) Value() T { return o.v }

// NewOption 创建静态配置选项。
func NewOption[T any](value T) Option[T] {
	return fixedOption[T]{v: value}
}

// NewOptionSnapshot 把一份快照包装为 OptionSnapshot。
func NewOptionSnapshot[T any](snapshot T) OptionSnapshot[T] {
	return fixedOption[T]{v: snapshot}
}

// monitorOption 从缓存实时读取。
type monitorOption[T any] struct {
	cache *OptionsCache[T]
}

func (o monitorOption[T]) Value() T { return o.cache.Get() }

// NewOptionMonitor 创建监听配置选项。
func NewOptionMonitor[T any](cache *OptionsCache[T]) OptionMonitor[T] {
	return monitorOption[T]{cache: cache}
}
