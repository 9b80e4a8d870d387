package core

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gocrud/inject/di"
)

// WithHostedService 注册一个实现 HostedService 的托管服务。
// OnStart 在独立 Goroutine 里调用 Start（允许阻塞），
// OnStop 取消服务上下文并调用 Stop。
func WithHostedService(constructor any) Option {
	return func(rt *Runtime) error {
		serviceType, err := serviceTypeOf(constructor)
		if err != nil {
			return fmt.Errorf("WithHostedService: %w", err)
		}

		// 必须单例，OnStart 与 OnStop 要拿到同一个实例
		if err := rt.Provide(constructor, di.WithSingleton()); err != nil {
			return fmt.Errorf("WithHostedService: failed to provide service: %w", err)
		}

		hostedServiceType := reflect.TypeOf((*HostedService)(nil)).Elem()
		if !serviceType.Implements(hostedServiceType) {
			return fmt.Errorf("WithHostedService: service %v does not implement core.HostedService", serviceType)
		}

		serviceKey := di.KeyFor(serviceType)

		var serviceCtx context.Context
		var serviceCancel context.CancelFunc

		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			val, err := rt.Injector.GetInstance(serviceKey)
			if err != nil {
				return fmt.Errorf("failed to resolve hosted service %v: %w", serviceType, err)
			}

			// 服务上下文不挂在启动 ctx 下，生命周期伴随整个应用
			serviceCtx, serviceCancel = context.WithCancel(context.Background())

			go func() {
				if err := val.(HostedService).Start(serviceCtx); err != nil {
					if rt.ErrorHandler != nil {
						rt.ErrorHandler(fmt.Errorf("HostedService %v exited with error: %w", serviceType, err))
					}
					// 服务异常退出视为致命，触发应用关闭
					rt.Shutdown()
				}
			}()
			return nil
		})

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			if serviceCancel != nil {
				serviceCancel()
			}

			val, err := rt.Injector.GetInstance(serviceKey)
			if err != nil {
				return nil
			}
			return val.(HostedService).Stop(ctx)
		})

		return nil
	}
}

// WorkerFunc 阻塞式后台任务，通过 ctx.Done() 感知退出。
type WorkerFunc func(ctx context.Context) error

// WithWorker 把一个阻塞函数挂成后台服务，异步启动，取消停止。
func WithWorker(fn WorkerFunc) Option {
	return func(rt *Runtime) error {
		var workerCtx context.Context
		var workerCancel context.CancelFunc

		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			workerCtx, workerCancel = context.WithCancel(context.Background())

			go func() {
				if err := fn(workerCtx); err != nil {
					if rt.ErrorHandler != nil {
						rt.ErrorHandler(fmt.Errorf("Worker exited with error: %w", err))
					}
					rt.Shutdown()
				}
			}()
			return nil
		})

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			if workerCancel != nil {
				workerCancel()
			}
			return nil
		})

		return nil
	}
}
