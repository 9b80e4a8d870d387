package di

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ScopeType 定义了绑定的生命周期。
type ScopeType int

const (
	// ScopeTransient 每次 provisioning 都重新构造（未作用域化，默认）。
	ScopeTransient ScopeType = iota
	// ScopeSingleton 每个注入器生命周期内至多构造一次。
	ScopeSingleton
	// ScopeCustom 由用户提供的 Scope 实现决定复用策略。
	ScopeCustom
)

func (s ScopeType) String() string {
	switch s {
	case ScopeTransient:
		return "Transient"
	case ScopeSingleton:
		return "Singleton"
	case ScopeCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Scope 自定义作用域：包装原始工厂，决定实例如何复用。
//
// unscoped 每次调用都会重新构造；返回的工厂负责缓存策略。
// Singleton 与 Transient 由引擎内建实现，不经过此接口。
type Scope interface {
	Scope(key Key, unscoped func() (any, error)) func() (any, error)
}

// singletonEntry 单例缓存单元：atomic.Value 走无锁快路径，
// 首次未命中时加锁慢路径并在锁内复查。
// owner 记录正在构造中的调用上下文，用于识别同栈重入。
type singletonEntry struct {
	val   atomic.Value // 持有 singletonResult
	mu    sync.Mutex
	owner atomic.Pointer[callContext]
}

type singletonResult struct {
	instance any
}

// singletonFactory 为一个绑定实施 "每注入器至多一个实例" 语义。
//
// 构造失败不会被缓存：下一个调用方会重新尝试构造。
type singletonFactory struct {
	delegate internalFactory
	entry    singletonEntry
}

func (f *singletonFactory) get(cc *callContext, dep Dependency, e *errs) (any, error) {
	// 快路径：已发布的实例无需同步
	if v := f.entry.val.Load(); v != nil {
		return v.(singletonResult).instance, nil
	}

	// 同一调用栈重入：实例正在本栈更深处构造（循环依赖穿过了单例）。
	// 入口锁不可重入，二次加锁会自锁死；绕过它直接进入构造上下文，
	// 由循环检测发放占位对象或报 CircularDependencyDisallowed。
	if f.entry.owner.Load() == cc {
		return f.delegate.get(cc, dep, e)
	}

	f.entry.mu.Lock()
	defer f.entry.mu.Unlock()

	// 双重检查
	if v := f.entry.val.Load(); v != nil {
		return v.(singletonResult).instance, nil
	}

	f.entry.owner.Store(cc)
	defer f.entry.owner.Store(nil)

	instance, err := f.delegate.get(cc, dep, e)
	if err != nil {
		return nil, err
	}
	f.entry.val.Store(singletonResult{instance: instance})
	return instance, nil
}

// customScopedFactory 桥接用户 Scope 到内部工厂链。
//
// 非作用域工厂以独立上下文进入引擎（自定义作用域的缓存命中
// 可能发生在任何调用栈上，不能携带别人的构造上下文）。
type customScopedFactory struct {
	scoped func() (any, error)
}

func newCustomScopedFactory(inj *injector, b *binding, scope Scope) *customScopedFactory {
	unscoped := func() (any, error) {
		return inj.provisionDetachedUnscoped(b)
	}
	return &customScopedFactory{scoped: scope.Scope(b.key, unscoped)}
}

func (f *customScopedFactory) get(cc *callContext, dep Dependency, e *errs) (any, error) {
	v, err := f.scoped()
	if err != nil {
		e.withDependency(dep).merge(err)
		return nil, errFailed
	}
	return v, nil
}

// scopeName 用于诊断输出。
func scopeName(b *binding) string {
	if b.scope == ScopeCustom && b.customScope != nil {
		return fmt.Sprintf("Custom(%T)", b.customScope)
	}
	return b.scope.String()
}
