package database

import (
	"fmt"

	"github.com/gocrud/inject/logging"
	"gorm.io/gorm"
)

// Builder 收集数据库配置，Build 时统一建连。
type Builder struct {
	configs map[string]DatabaseOptions
	errors  []error
}

func NewBuilder() *Builder {
	return &Builder{configs: make(map[string]DatabaseOptions)}
}

// Add 登记一个数据库配置，dialector 由调用方给出 (如 sqlite.Open(dsn))。
// name 重复或校验失败记入错误列表。
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*DatabaseOptions)) *Builder {
	if _, dup := b.configs[name]; dup {
		b.errors = append(b.errors, fmt.Errorf("database '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid configuration for '%s': %w", name, err))
		return b
	}

	b.configs[name] = *opts
	return b
}

// Build 为每个配置打开连接，没有任何配置时返回 (nil, nil)。
func (b *Builder) Build(logger logging.Logger) (*DatabaseFactory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("database configuration errors: %v", b.errors)
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewDatabaseFactory()
	for _, opts := range b.configs {
		if err := factory.Register(opts); err != nil {
			return nil, fmt.Errorf("failed to register database '%s': %w", opts.Name, err)
		}
		if logger != nil {
			logger.Info("Database registered",
				logging.Field{Key: "name", Value: opts.Name},
				logging.Field{Key: "dialector", Value: opts.Dialector.Name()})
		}
	}
	return factory, nil
}
