package di_test

import (
	"errors"
	"testing"
	"time"

	"github.com/gocrud/inject/di"
)

type Ping interface {
	Ping() string
}

type Pong interface {
	Pong() string
}

type pinger struct {
	pong Pong
}

func (p *pinger) Ping() string { return "ping>" + p.pong.Pong() }

type ponger struct {
	ping Ping
}

func (p *ponger) Pong() string { return "pong" }

// pingProxy 把所有方法调用转发给延迟解析出的真实对象。
type pingProxy struct {
	resolve func() Ping
}

func (p pingProxy) Ping() string { return p.resolve().Ping() }

func cyclicModule() di.Module {
	return di.ModuleFunc(func(b *di.Binder) {
		di.Provide[Ping](b, di.WithFactory(func(pong Pong) Ping {
			return &pinger{pong: pong}
		}))
		di.Provide[Pong](b, di.WithFactory(func(ping Ping) Pong {
			return &ponger{ping: ping}
		}))
	})
}

func TestCycleDisallowedByDefault(t *testing.T) {
	inj, err := di.New(cyclicModule())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = di.Get[Ping](inj)
	if err == nil {
		t.Fatal("Expected circular dependency error")
	}
	var pe *di.ProvisionError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProvisionError, got %T", err)
	}
	if pe.Messages[0].Kind != di.ErrCircularDependency {
		t.Errorf("Expected ErrCircularDependency, got %v", pe.Messages[0].Kind)
	}
}

func TestCycleWithoutRegisteredProxyFails(t *testing.T) {
	inj, err := di.NewInjector(di.Options{CircularProxies: true}, cyclicModule())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = di.Get[Ping](inj)
	if err == nil {
		t.Fatal("Expected cannot-proxy error")
	}
	var pe *di.ProvisionError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProvisionError, got %T", err)
	}
	if pe.Messages[0].Kind != di.ErrCannotProxy {
		t.Errorf("Expected ErrCannotProxy, got %v", pe.Messages[0].Kind)
	}
}

func TestCycleResolvedByProxy(t *testing.T) {
	inj, err := di.NewInjector(di.Options{CircularProxies: true},
		cyclicModule(),
		di.ModuleFunc(func(b *di.Binder) {
			di.RegisterCycleProxy[Ping](b, func(resolve func() Ping) Ping {
				return pingProxy{resolve: resolve}
			})
		}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ping, err := di.Get[Ping](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	// 构造已完成，占位对象开始转发，整个环可以正常调用
	if got := ping.Ping(); got != "ping>pong" {
		t.Errorf("Expected 'ping>pong', got %q", got)
	}
}

func TestProxyPanicsBeforeCompletion(t *testing.T) {
	// 在构造完成前调用占位对象必须 panic
	inj, err := di.NewInjector(di.Options{CircularProxies: true},
		di.ModuleFunc(func(b *di.Binder) {
			di.Provide[Ping](b, di.WithFactory(func(pong Pong) Ping {
				return &pinger{pong: pong}
			}))
			di.Provide[Pong](b, di.WithFactory(func(ping Ping) Pong {
				// 占位对象在这里逃逸并被立刻调用
				defer func() {
					if recover() == nil {
						t.Error("Calling a proxy before completion should panic")
					}
				}()
				ping.Ping()
				return &ponger{ping: ping}
			}))
			di.RegisterCycleProxy[Ping](b, func(resolve func() Ping) Ping {
				return pingProxy{resolve: resolve}
			})
		}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := di.Get[Ping](inj); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

// ---------------- 穿过单例的环 ----------------

func singletonCyclicModule() di.Module {
	return di.ModuleFunc(func(b *di.Binder) {
		di.Provide[Ping](b, di.WithSingleton(), di.WithFactory(func(pong Pong) Ping {
			return &pinger{pong: pong}
		}))
		di.Provide[Pong](b, di.WithFactory(func(ping Ping) Pong {
			return &ponger{ping: ping}
		}))
	})
}

func TestSingletonCycleFailsInsteadOfDeadlocking(t *testing.T) {
	// 环穿过单例绑定时，重入不能再次竞争单例入口锁，
	// 必须像非作用域环一样报告循环依赖
	inj, err := di.New(singletonCyclicModule())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := di.Get[Ping](inj)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Expected circular dependency error")
		}
		var pe *di.ProvisionError
		if !errors.As(err, &pe) {
			t.Fatalf("Expected ProvisionError, got %T", err)
		}
		if pe.Messages[0].Kind != di.ErrCircularDependency {
			t.Errorf("Expected ErrCircularDependency, got %v", pe.Messages[0].Kind)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Resolution of a singleton-scoped cycle did not return")
	}
}

func TestSingletonCycleResolvedByProxy(t *testing.T) {
	inj, err := di.NewInjector(di.Options{CircularProxies: true},
		singletonCyclicModule(),
		di.ModuleFunc(func(b *di.Binder) {
			di.RegisterCycleProxy[Ping](b, func(resolve func() Ping) Ping {
				return pingProxy{resolve: resolve}
			})
		}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ping, err := di.Get[Ping](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := ping.Ping(); got != "ping>pong" {
		t.Errorf("Expected 'ping>pong', got %q", got)
	}

	// 环解决后单例语义照常生效
	again, err := di.Get[Ping](inj)
	if err != nil {
		t.Fatalf("Second Get failed: %v", err)
	}
	if again != ping {
		t.Error("Singleton must return the same instance after the cycle completes")
	}
}

// ---------------- 字段注入环 ----------------

type nodeA struct {
	B *nodeB `di:""`
}

type nodeB struct {
	A *nodeA `di:""`
}

func TestFieldCycleResolvedByReference(t *testing.T) {
	// 字段注入环不需要占位对象：构造函数阶段结束后真实引用已登记，
	// 环上的第二次进入直接拿到真实对象
	inj, err := di.NewInjector(di.Options{CircularProxies: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a, err := di.Get[*nodeA](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a.B == nil || a.B.A == nil {
		t.Fatal("Field cycle was not wired")
	}
	if a.B.A != a {
		t.Error("Cycle must close on the same instance")
	}
}

func TestFieldCycleDisallowedWithoutProxies(t *testing.T) {
	inj, err := di.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := di.Get[*nodeA](inj); err == nil {
		t.Fatal("Expected circular dependency error with proxies disabled")
	}
}
