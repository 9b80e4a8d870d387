package core

import "context"

// HostedService 带启动 / 停止生命周期的后台服务。
type HostedService interface {
	// Start 运行服务主循环。框架在独立协程中调用，允许阻塞；
	// 返回非 nil 错误会触发应用的优雅关闭。
	Start(ctx context.Context) error

	// Stop 应用关闭时调用，应在 ctx 超时前完成收尾。
	Stop(ctx context.Context) error
}
