package config

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ConfigurationSource 配置源。
// StartWatch 启动变更监听，配置源发生变化时调用 onChange；
// 不支持监听的配置源实现为空操作即可。
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
	StartWatch(ctx context.Context, onChange func()) error
	StopWatch()
}

// ConfigurationBuilder 按注册顺序组合配置源，后加的源覆盖先加的。
type ConfigurationBuilder struct {
	mu      sync.RWMutex
	sources []ConfigurationSource
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{}
}

// Add 追加一个配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 追加 JSON 文件源，optional 为 true 时文件缺失不报错。
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&JsonFileSource{Path: path, Optional: len(optional) > 0 && optional[0]})
}

// AddYamlFile 追加 YAML 文件源，optional 为 true 时文件缺失不报错。
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&YamlFileSource{Path: path, Optional: len(optional) > 0 && optional[0]})
}

// AddEnvironmentVariables 追加环境变量源，prefix 用于筛选并从键名去除。
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 追加内存源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// EtcdOptions etcd 配置源选项
type EtcdOptions struct {
	Endpoints   []string
	Username    string
	Password    string
	Prefix      string
	Timeout     time.Duration
	DialTimeout time.Duration
}

// AddEtcd 追加 etcd 源，超时项为零时取 5 秒。
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// GetSources 返回已注册配置源的副本
func (b *ConfigurationBuilder) GetSources() []ConfigurationSource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sources := make([]ConfigurationSource, len(b.sources))
	copy(sources, b.sources)
	return sources
}

// Build 依次加载全部配置源并深合并成一份配置。
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	merged := make(map[string]any)
	for _, source := range b.sources {
		data, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config source %s: %w", source.Name(), err)
		}
		mergeMaps(merged, data)
	}
	return &configuration{data: merged}, nil
}
