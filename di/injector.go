package di

import (
	"fmt"
)

// Injector 是解析引擎实例：根据声明式绑定按需构建对象图，
// 传递式地解析依赖，检测并（可配置地）化解循环依赖，应用作用域，
// 并以富诊断上下文报告配置错误。
type Injector interface {
	// GetInstance 解析 Key 对应的实例。
	GetInstance(key Key) (any, error)
	// GetProvider 返回 Key 的延迟 provisioning 入口。
	// 绑定在调用 GetProvider 时就会被解析，实例构造推迟到调用返回值时。
	GetProvider(key Key) (func() (any, error), error)
	// GetBinding 定位或合成 Key 的绑定。
	GetBinding(key Key) (Binding, error)
	// GetExistingBinding 返回已存在的绑定（显式或已缓存的 JIT），
	// 不触发新的 JIT 创建；没有时返回 nil。
	GetExistingBinding(key Key) Binding
	// GetAllBindings 返回本注入器及祖先的全部已知绑定：
	// 显式绑定加已缓存的 JIT 绑定（子层覆盖父层，显式覆盖 JIT）。
	GetAllBindings() map[Key]Binding
	// CreateChildInjector 创建子注入器：继承全部父层绑定，
	// 子层的显式绑定会阻止祖先为同一 Key 创建冲突的 JIT 绑定。
	CreateChildInjector(modules ...Module) (Injector, error)
	// InjectMembers 对已存在的对象执行字段与方法注入。
	InjectMembers(target any) error
	// Parent 返回父注入器，根注入器返回 nil。
	Parent() Injector
}

// Options 注入器级别的策略开关。
type Options struct {
	// CircularProxies 启用循环依赖代理：检测到循环时返回注册过的
	// 接口占位对象，构造完成后补齐。关闭时循环依赖直接报错。
	CircularProxies bool

	// RequireExplicitBindings 禁用 JIT 绑定：未显式声明的 Key
	// 解析失败（常量转换与合成绑定豁免）。
	RequireExplicitBindings bool

	// EagerSingletons 构建注入器时立即构造全部单例，
	// 把 provisioning 问题提前暴露为配置错误。
	EagerSingletons bool
}

type injector struct {
	parent  *injector
	state   *injectorState
	options Options
}

// New 用默认选项构建根注入器。
func New(modules ...Module) (Injector, error) {
	return NewInjector(Options{}, modules...)
}

// NewInjector 构建根注入器。
// 配置阶段的所有问题都会累积后一次性以 CreationError 返回（fail fast）。
func NewInjector(options Options, modules ...Module) (Injector, error) {
	inj := &injector{
		state:   newInjectorState(nil),
		options: options,
	}
	inj.state.converters = append(inj.state.converters, defaultConverters()...)
	if err := inj.install(modules); err != nil {
		return nil, err
	}
	return inj, nil
}

func (inj *injector) Parent() Injector {
	if inj.parent == nil {
		return nil
	}
	return inj.parent
}

func (inj *injector) CreateChildInjector(modules ...Module) (Injector, error) {
	child := &injector{
		parent:  inj,
		state:   newInjectorState(inj.state),
		options: inj.options,
	}
	if err := child.install(modules); err != nil {
		return nil, err
	}
	return child, nil
}

// install 消费模块产出的声明式绑定描述，填充显式绑定存储并校验。
// 这是配置阶段的终端边界：任何累积的错误在这里变成 CreationError。
func (inj *injector) install(modules []Module) error {
	e := newErrs()

	binder := newBinder()
	for _, m := range modules {
		m.Configure(binder)
	}
	for _, berr := range binder.errors {
		e.merge(berr)
	}

	inj.state.converters = append(inj.state.converters, binder.converters...)
	inj.state.listeners = append(inj.state.listeners, binder.listeners...)
	for typ, build := range binder.proxies {
		inj.state.proxies[typ] = build
	}
	for typ, hint := range binder.hints {
		inj.state.implHints[typ] = hint
	}

	// 描述 → 显式绑定（冲突在这里检出）
	inj.state.lock()
	var installed []*binding

	// 把自身绑定进容器，供依赖 Injector 的组件使用
	selfKey := KeyOf[Injector]()
	if _, taken := inj.state.explicit[selfKey]; !taken {
		self := inj.newBinding(selfKey, bindInstance, "injector self-binding")
		self.instance = Injector(inj)
		inj.state.explicit[selfKey] = self
		installed = append(installed, self)
	}
	for _, d := range binder.descriptors {
		b, ok := inj.bindingFromDescriptor(d, e)
		if !ok {
			continue
		}
		if existing, taken := inj.state.explicit[b.key]; taken {
			e.withSource("at "+d.source).bindingAlreadySet(b.key, existing.source)
			continue
		}
		inj.state.explicit[b.key] = b
		installed = append(installed, b)
		// 子层认领的 Key 记入祖先黑名单，阻止之后父层的冲突 JIT 创建
		if inj.state.parent != nil {
			inj.state.parent.addBlacklist(b.key, b.source)
		}
	}

	// 全部显式绑定就位后统一初始化（允许显式绑定间互相引用）
	for _, b := range installed {
		if !b.initialized {
			inj.initializeBindingLocked(b, e.withSource("at "+b.source))
		}
	}
	inj.checkLinkedChainsLocked(e)
	inj.state.unlock()

	if err := e.toCreationError(); err != nil {
		return err
	}

	if inj.options.EagerSingletons {
		return inj.buildEagerSingletons()
	}
	return nil
}

// checkLinkedChainsLocked 检测显式别名绑定链中的环。
func (inj *injector) checkLinkedChainsLocked(e *errs) {
	for key, b := range inj.state.explicit {
		if b.kind != bindLinked {
			continue
		}
		seen := map[Key]bool{key: true}
		cur := b
		for cur.kind == bindLinked {
			next := inj.state.explicitBinding(cur.targetKey)
			if next == nil {
				break
			}
			if seen[next.key] {
				e.withSource("at " + b.source).recursiveBinding(key)
				break
			}
			seen[next.key] = true
			cur = next
		}
	}
}

// buildEagerSingletons 立即构造全部显式单例绑定，
// 把 provisioning 失败提前转化为配置错误。
func (inj *injector) buildEagerSingletons() error {
	e := newErrs()
	for _, b := range inj.state.explicit {
		if b.scope != ScopeSingleton {
			continue
		}
		if _, err := inj.provisionDetached(b); err != nil {
			e.withSource("eager singleton " + b.key.String()).merge(err)
		}
	}
	return e.toCreationError()
}

func (inj *injector) GetInstance(key Key) (any, error) {
	resolveErrs := newErrs()
	b, err := inj.resolveBinding(key, resolveErrs)
	if err != nil {
		// 解析失败是配置问题
		if cfgErr := resolveErrs.toCreationError(); cfgErr != nil {
			return nil, cfgErr
		}
		return nil, err
	}
	return inj.provisionDetached(b)
}

func (inj *injector) GetProvider(key Key) (func() (any, error), error) {
	resolveErrs := newErrs()
	b, err := inj.resolveBinding(key, resolveErrs)
	if err != nil {
		if cfgErr := resolveErrs.toCreationError(); cfgErr != nil {
			return nil, cfgErr
		}
		return nil, err
	}
	return b.Provider(), nil
}

func (inj *injector) GetBinding(key Key) (Binding, error) {
	e := newErrs()
	b, err := inj.resolveBinding(key, e)
	if err != nil {
		if cfgErr := e.toCreationError(); cfgErr != nil {
			return nil, cfgErr
		}
		return nil, err
	}
	return b, nil
}

func (inj *injector) GetExistingBinding(key Key) Binding {
	if b := inj.state.explicitBinding(key); b != nil {
		return b
	}
	inj.state.lock()
	defer inj.state.unlock()
	for layer := inj.state; layer != nil; layer = layer.parent {
		if b, ok := layer.jitBindingLocal(key); ok {
			return b
		}
	}
	return nil
}

func (inj *injector) GetAllBindings() map[Key]Binding {
	out := make(map[Key]Binding)
	var layers []*injectorState
	for layer := inj.state; layer != nil; layer = layer.parent {
		layers = append(layers, layer)
	}
	inj.state.lock()
	defer inj.state.unlock()
	// 父层在前，子层覆盖；同层内显式绑定覆盖 JIT 缓存
	for i := len(layers) - 1; i >= 0; i-- {
		for key, b := range layers[i].jit {
			out[key] = b
		}
		for key, b := range layers[i].explicit {
			out[key] = b
		}
	}
	return out
}

// provisionDetached 以全新的构造上下文 provisioning 一个绑定。
// 这是 provisioning 阶段的终端边界：累积的错误在这里变成 ProvisionError。
func (inj *injector) provisionDetached(b *binding) (any, error) {
	return inj.provisionWith(b, b.factory)
}

// provisionDetachedUnscoped 同上，但绕过作用域缓存（自定义作用域的
// 未命中路径使用，避免缓存入口自递归）。
func (inj *injector) provisionDetachedUnscoped(b *binding) (any, error) {
	return inj.provisionWith(b, b.unscoped)
}

func (inj *injector) provisionWith(b *binding, f internalFactory) (any, error) {
	e := newErrs()
	cc := newCallContext(inj, e)
	cc.enter()
	defer cc.exit()

	v, err := f.get(cc, newDependency(b.key), e)
	if err != nil {
		if pErr := e.toProvisionError(); pErr != nil {
			return nil, pErr
		}
		return nil, err
	}
	return v, nil
}

// provisionDependency 在进行中的构造上下文内解析一条依赖边。
// 可选依赖缺失时返回 (nil, nil)。
func (inj *injector) provisionDependency(cc *callContext, dep Dependency, e *errs) (any, error) {
	depErrs := e.withDependency(dep)

	var b *binding
	var err error
	if dep.Optional() {
		scratch := newErrs()
		b, err = inj.resolveBinding(dep.key, scratch)
		if err != nil {
			return nil, nil
		}
	} else {
		b, err = inj.resolveBinding(dep.key, depErrs)
		if err != nil {
			return nil, errFailed
		}
	}

	return b.factory.get(cc, dep, depErrs)
}

// newBinding 创建归属于本注入器的绑定骨架。
func (inj *injector) newBinding(key Key, kind bindingKind, source string) *binding {
	return &binding{owner: inj, key: key, kind: kind, source: source}
}

// String 诊断输出。
func (inj *injector) String() string {
	depth := 0
	for p := inj.parent; p != nil; p = p.parent {
		depth++
	}
	return fmt.Sprintf("Injector(depth=%d, explicit=%d)", depth, len(inj.state.explicit))
}
