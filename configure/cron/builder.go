package cron

import (
	"github.com/gocrud/inject/core"
	sched "github.com/gocrud/inject/cron"
	"github.com/gocrud/inject/hosting"
	"github.com/gocrud/inject/logging"
)

// Builder 在 BuildContext 阶段收集定时任务，调度实现委托给顶层 cron 包。
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	jobs             []jobDecl
}

type jobDecl struct {
	spec    string
	name    string
	handler any
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{location: "UTC"}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// EnableCronLogger 输出 cron 库自身的调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 声明一个无依赖的任务
func (b *Builder) AddJob(spec, name string, handler func()) *Builder {
	b.jobs = append(b.jobs, jobDecl{spec: spec, name: name, handler: handler})
	return b
}

// AddJobWithDI 声明一个带依赖注入的任务，参数在触发时从容器解析。
func (b *Builder) AddJobWithDI(spec, name string, handler any) *Builder {
	b.jobs = append(b.jobs, jobDecl{spec: spec, name: name, handler: handler})
	return b
}

// build 创建调度器并包装成托管服务。
// 任务触发时才通过 BuildContext 取注入器，构建阶段注入器可以尚未就绪。
func (b *Builder) build(ctx *core.BuildContext, logger logging.Logger) (hosting.HostedService, error) {
	svc := sched.NewService(logger, func(opts *sched.Options) {
		opts.EnableSeconds = b.enableSeconds
		opts.EnableCronLogger = b.enableCronLogger
		opts.Location = b.location
	})
	svc.UseInjector(ctx.Injector)

	for _, job := range b.jobs {
		svc.Schedule(job.spec, job.name, job.handler)
	}
	return &hostedScheduler{svc: svc}, nil
}
