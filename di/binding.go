package di

import (
	"fmt"
	"reflect"
	"sync"
)

// Binding 是一条已解析的规则：如何为某个 Key 生产值。
//
// 绑定一旦创建并发布就是不可变的，可以被并发读取；
// 只有推测性 JIT 创建失败时的回滚会移除绑定。
type Binding interface {
	// Key 返回绑定服务的 Key。
	Key() Key
	// Source 返回声明该绑定的来源位置，用于诊断。
	Source() string
	// ScopeType 返回绑定的作用域策略。
	ScopeType() ScopeType
	// Dependencies 返回该绑定声明的依赖边。
	Dependencies() []Dependency
	// Provider 返回独立的 provisioning 入口：每次调用都以
	// 新的构造上下文进入引擎。
	Provider() func() (any, error)
}

// bindingKind 绑定变体。
type bindingKind int

const (
	bindInstance         bindingKind = iota // 预构建的值
	bindConstructor                         // 通过注入构造（结构体或构造函数）
	bindProvider                            // 委托给用户工厂函数
	bindLinked                              // 别名到另一个 Key
	bindProviderKey                         // 委托给另一个 Key 下注册的 Provider
	bindConstant                            // 字符串常量转换而来
	bindSyntheticProvider                   // 合成的 Provider[T]
	bindSyntheticMembers                    // 合成的 MembersInjector[T]
)

func (k bindingKind) String() string {
	switch k {
	case bindInstance:
		return "instance"
	case bindConstructor:
		return "constructor"
	case bindProvider:
		return "provider"
	case bindLinked:
		return "linked"
	case bindProviderKey:
		return "provider-key"
	case bindConstant:
		return "converted-constant"
	case bindSyntheticProvider:
		return "synthetic-provider"
	case bindSyntheticMembers:
		return "synthetic-members-injector"
	default:
		return "unknown"
	}
}

// binding 是所有变体共用的具体实现。
// 变体差异体现在 kind 与对应的载荷字段上，风格同 ServiceDefinition：
// 一个扁平的元数据结构加上按需填充的载荷。
type binding struct {
	owner  *injector
	key    Key
	source string
	kind   bindingKind

	scope       ScopeType
	customScope Scope

	// 变体载荷
	instance      any           // bindInstance
	injectMembers bool          // bindInstance：是否对值执行成员注入
	implType      reflect.Type  // bindConstructor：要构造的类型（*Struct 或 Struct）
	providerFn    reflect.Value // bindProvider：用户工厂函数
	targetKey     Key           // bindLinked / bindProviderKey / 合成变体的元素 Key
	constValue    any           // bindConstant：已转换的值
	constSource   string        // bindConstant：原始字符串

	// 解析结果
	deps        []Dependency
	circularID  int // bindConstructor：循环工厂 id
	ctor        *constructorInjector
	factory     internalFactory // 完整链（含作用域）
	unscoped    internalFactory // 不含作用域的链，自定义作用域的原始入口
	jit         bool            // 即时创建的绑定
	initialized bool

	memberOnce sync.Once // bindInstance 延迟成员注入
	memberErr  error
}

func (b *binding) Key() Key                   { return b.key }
func (b *binding) Source() string             { return b.source }
func (b *binding) ScopeType() ScopeType       { return b.scope }
func (b *binding) Dependencies() []Dependency { return append([]Dependency{}, b.deps...) }

func (b *binding) Provider() func() (any, error) {
	return func() (any, error) {
		return b.owner.provisionDetached(b)
	}
}

func (b *binding) String() string {
	return fmt.Sprintf("Binding(%v, kind=%v, scope=%v, source=%s)", b.key, b.kind, scopeName(b), b.source)
}

// buildFactoryChain 为已解析的绑定装配完整的 provisioning 链：
// 原始工厂 → provision 包装（监听器、错误包装、空值检查）→ 作用域。
func (b *binding) buildFactoryChain(raw internalFactory) {
	wrapped := &provisionFactory{binding: b, delegate: raw}
	b.unscoped = wrapped
	switch b.scope {
	case ScopeSingleton:
		b.factory = &singletonFactory{delegate: wrapped}
	case ScopeCustom:
		b.factory = newCustomScopedFactory(b.owner, b, b.customScope)
	default:
		b.factory = wrapped
	}
}
