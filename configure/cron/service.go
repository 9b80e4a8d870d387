package cron

import (
	"context"

	sched "github.com/gocrud/inject/cron"
)

// hostedScheduler 把调度器适配成托管服务。
// Service.Start 本身不阻塞，这里补上对 ctx 的等待以满足 HostedService 契约。
type hostedScheduler struct {
	svc *sched.Service
}

func (h *hostedScheduler) Start(ctx context.Context) error {
	if err := h.svc.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (h *hostedScheduler) Stop(ctx context.Context) error {
	return h.svc.Stop(ctx)
}
