package cron

import (
	"github.com/gocrud/inject/logging"
)

// Builder 收集调度参数与任务声明，build 时转成 Service。
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	jobs             []jobDefinition
}

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
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

// AddJobWithDI 声明一个带依赖注入的任务。
// handler 可以是任意函数，参数在触发时从容器解析，例如:
//
//	builder.AddJobWithDI("0 */5 * * * *", "sync-data", func(svc *DataService, logger logging.Logger) {
//	    svc.Sync()
//	})
func (b *Builder) AddJobWithDI(spec, name string, handler any) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

// build 创建 Service 并移交全部任务声明。
func (b *Builder) build(logger logging.Logger) (*Service, error) {
	svc := NewService(logger, func(opts *Options) {
		opts.EnableSeconds = b.enableSeconds
		opts.EnableCronLogger = b.enableCronLogger
		opts.Location = b.location
	})

	for _, job := range b.jobs {
		svc.Schedule(job.spec, job.name, job.handler)
	}
	return svc, nil
}
