package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
)

// LoadOptions 微内核路径下的配置加载选项。
type LoadOptions struct {
	Paths        []string
	Optional     bool
	HotReload    bool
	KeyDelimiter string
}

// LoadOption 配置加载选项函数
type LoadOption func(*LoadOptions)

// WithOptional 文件不存在时跳过而不是报错
func WithOptional() LoadOption {
	return func(o *LoadOptions) {
		o.Optional = true
	}
}

// WithHotReload 启用文件变更监听
func WithHotReload() LoadOption {
	return func(o *LoadOptions) {
		o.HotReload = true
	}
}

// New 在 app.Run 微内核路径下加载配置。
// 按扩展名选择 JSON 或 YAML 解析，之后叠加环境变量，
// 结果注册为 Configuration 绑定和 Runtime Feature。
func New(path string, opts ...LoadOption) core.Option {
	return func(rt *core.Runtime) error {
		options := &LoadOptions{
			Paths:        []string{path},
			KeyDelimiter: ":",
		}
		for _, opt := range opts {
			opt(options)
		}

		cfg := config.NewConfiguration()

		for _, p := range options.Paths {
			if err := cfg.LoadFile(p); err != nil {
				if options.Optional && errors.Is(err, os.ErrNotExist) {
					continue
				}
				return fmt.Errorf("config: failed to load %s: %w", p, err)
			}
		}

		// 环境变量覆盖文件值
		cfg.LoadEnv()

		rt.Configure(func(b *di.Binder) {
			di.Provide[config.Configuration](b, di.WithValue(cfg))
		})

		// 以接口类型登记，Bind 等后续 Option 从 Feature 取
		core.SetFeature[config.Configuration](rt, cfg)

		if options.HotReload {
			watchCtx, cancel := context.WithCancel(context.Background())
			rt.Lifecycle.OnStart(func(ctx context.Context) error {
				for _, p := range options.Paths {
					if err := cfg.WatchFile(watchCtx, p); err != nil {
						return fmt.Errorf("config: failed to watch %s: %w", p, err)
					}
				}
				return nil
			})
			rt.Lifecycle.OnStop(func(ctx context.Context) error {
				cancel()
				return nil
			})
		}

		return nil
	}
}

// Bind 把配置节绑定到 T 并注册为单例服务。
// 要求 New 先于 Bind 应用。
func Bind[T any](rt *core.Runtime, section string) error {
	cfg := core.GetFeature[config.Configuration](rt)
	if cfg == nil {
		return errors.New("config: New must be applied before Bind")
	}

	var settings T
	if err := cfg.Bind(section, &settings); err != nil {
		return fmt.Errorf("config: failed to bind section '%s': %w", section, err)
	}

	return rt.Provide(&settings)
}
