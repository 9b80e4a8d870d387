package mongodb

import (
	"fmt"

	"github.com/gocrud/inject/logging"
)

// Builder 收集 MongoDB 客户端配置，Build 时统一建连。
type Builder struct {
	configs map[string]MongoOptions
	errors  []error
}

func NewBuilder() *Builder {
	return &Builder{configs: make(map[string]MongoOptions)}
}

// Add 登记一个客户端配置，name 重复或校验失败记入错误列表。
func (b *Builder) Add(name string, uri string, configure func(*MongoOptions)) *Builder {
	if _, dup := b.configs[name]; dup {
		b.errors = append(b.errors, fmt.Errorf("mongo client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid mongo configuration for '%s': %w", name, err))
		return b
	}

	b.configs[name] = *opts
	return b
}

// Build 为每个配置建立客户端，没有任何配置时返回 (nil, nil)。
func (b *Builder) Build(logger logging.Logger) (*MongoFactory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("mongo configuration errors: %v", b.errors)
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewMongoFactory()
	for _, opts := range b.configs {
		if err := factory.Register(opts); err != nil {
			return nil, fmt.Errorf("failed to register mongo client '%s': %w", opts.Name, err)
		}
		if logger != nil {
			logger.Info("Mongo client registered",
				logging.Field{Key: "name", Value: opts.Name},
				logging.Field{Key: "uri", Value: opts.Uri})
		}
	}
	return factory, nil
}
