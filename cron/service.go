package cron

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/robfig/cron/v3"
)

// Options 调度器配置。
type Options struct {
	// Location 时区，默认 UTC
	Location string
	// EnableSeconds 启用秒级精度，默认分钟级
	EnableSeconds bool
	// Logger 自定义日志记录器
	Logger logging.Logger
	// EnableCronLogger 输出 cron 库自身的调度日志
	EnableCronLogger bool
}

// jobDefinition 暂存的任务声明，Start 时统一注册。
type jobDefinition struct {
	spec    string
	name    string
	handler any
}

// Service 定时任务调度器。
// Schedule 声明的任务在 Start 时注册，handler 为 func() 直接执行，
// 其他函数签名在触发时从注入器解析参数后调用。
type Service struct {
	cron    *cron.Cron
	logger  logging.Logger
	mu      sync.RWMutex
	entries map[string]cron.EntryID
	pending []jobDefinition
	resolve func() di.Injector
}

// NewService 创建调度器
func NewService(logger logging.Logger, opts ...func(*Options)) *Service {
	opt := &Options{
		Location: "UTC",
		Logger:   logger,
	}
	for _, o := range opts {
		o(opt)
	}
	if opt.Logger == nil {
		opt.Logger = logging.NewLogger()
	}

	cronOpts := []cron.Option{
		cron.WithChain(cron.Recover(newCronLogger(opt.Logger))),
	}
	if opt.EnableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(opt.Logger)))
	}
	if opt.EnableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	return &Service{
		cron:    cron.New(cronOpts...),
		logger:  opt.Logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule 声明一个任务，注册推迟到 Start。
func (s *Service) Schedule(spec, name string, handler any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, jobDefinition{spec: spec, name: name, handler: handler})
}

// UseInjector 设置注入器来源。
// 带参任务在每次触发时通过它取注入器，允许注入器在 Start 之后才就绪。
func (s *Service) UseInjector(resolve func() di.Injector) {
	s.resolve = resolve
}

// Inject 绑定固定的注入器，logger 非空时一并替换。
func (s *Service) Inject(injector di.Injector, logger logging.Logger) {
	s.UseInjector(func() di.Injector { return injector })
	if logger != nil {
		s.logger = logger
	}
}

// Start 注册全部暂存任务并启动调度，不阻塞。
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.logger.Info("Cron service starting", logging.Field{Key: "jobs", Value: len(pending)})

	for _, job := range pending {
		fn, err := s.jobFunc(job)
		if err != nil {
			return err
		}
		if err := s.addEntry(job.spec, job.name, fn); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// jobFunc 把任务声明转成可注册的 func()。
func (s *Service) jobFunc(job jobDefinition) (func(), error) {
	if fn, plain := job.handler.(func()); plain {
		return fn, nil
	}
	wrapped, err := s.wrapInjected(job.handler)
	if err != nil {
		return nil, fmt.Errorf("cron: failed to wrap job '%s': %w", job.name, err)
	}
	return wrapped, nil
}

// addEntry 注册任务并记录名称到 EntryID 的映射。
func (s *Service) addEntry(spec, name string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("Cron job started", logging.Field{Key: "job", Value: name})
		defer s.logger.Debug("Cron job completed", logging.Field{Key: "job", Value: name})
		fn()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}

	s.entries[name] = id
	s.logger.Info("Cron job registered",
		logging.Field{Key: "job", Value: name},
		logging.Field{Key: "spec", Value: spec})
	return nil
}

// Remove 按名称移除任务
func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Stop 优雅停止调度，等待正在运行的任务完成或 ctx 超时。
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Cron service stopping")

	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn("Cron service stop timeout")
		return ctx.Err()
	}
}

// wrapInjected 包装带参任务，每次触发时从注入器解析参数。
func (s *Service) wrapInjected(handler any) (func(), error) {
	handlerValue := reflect.ValueOf(handler)
	handlerType := handlerValue.Type()
	if handlerType.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %v", handlerType.Kind())
	}

	return func() {
		var injector di.Injector
		if s.resolve != nil {
			injector = s.resolve()
		}
		if injector == nil {
			s.logger.Error("Cron job executed before injector was built")
			return
		}

		args := make([]reflect.Value, handlerType.NumIn())
		for i := range args {
			paramType := handlerType.In(i)
			instance, err := injector.GetInstance(di.KeyFor(paramType))
			if err != nil {
				s.logger.Error("Failed to resolve cron job parameter",
					logging.Field{Key: "param", Value: paramType.String()},
					logging.Field{Key: "error", Value: err.Error()})
				return
			}
			args[i] = reflect.ValueOf(instance)
		}

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Cron job panicked", logging.Field{Key: "panic", Value: r})
			}
		}()
		handlerValue.Call(args)
	}, nil
}

// cronLogger 把框架日志接口适配到 cron 库的日志接口。
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, pairFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := append(pairFields(keysAndValues), logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

// pairFields 把 (key, value, key, value, ...) 变长参数转成字段列表，落单的键丢弃。
func pairFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
