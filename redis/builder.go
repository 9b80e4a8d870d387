package redis

import (
	"fmt"

	"github.com/gocrud/inject/logging"
)

// Builder 收集客户端配置，Build 时统一建连。
// 配置阶段的错误先攒着，到 Build 一次性报出。
type Builder struct {
	configs map[string]RedisClientOptions
	errors  []error
}

func NewBuilder() *Builder {
	return &Builder{configs: make(map[string]RedisClientOptions)}
}

// AddClient 登记一个客户端配置，name 重复或校验失败记入错误列表。
func (b *Builder) AddClient(name string, configure func(*RedisClientOptions)) *Builder {
	if _, dup := b.configs[name]; dup {
		b.errors = append(b.errors, fmt.Errorf("redis client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid redis configuration for '%s': %w", name, err))
		return b
	}

	b.configs[name] = *opts
	return b
}

// Build 为每个配置建立连接，返回装好的工厂。
// 没有任何配置时返回 (nil, nil)，调用方据此跳过注册。
func (b *Builder) Build(logger logging.Logger) (*RedisClientFactory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("redis configuration errors: %v", b.errors)
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewRedisClientFactory()
	for _, opts := range b.configs {
		if err := factory.Register(opts); err != nil {
			return nil, fmt.Errorf("failed to register redis client '%s': %w", opts.Name, err)
		}
		if logger != nil {
			logger.Info("redis client registered",
				logging.Field{Key: "name", Value: opts.Name},
				logging.Field{Key: "addr", Value: opts.Addr},
				logging.Field{Key: "db", Value: opts.DB})
		}
	}
	return factory, nil
}
