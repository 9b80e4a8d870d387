package di

import (
	"fmt"
	"reflect"
	"runtime"
)

// Module 是一组相关绑定的声明单元。
// Configure 只在注入器构建期间执行一次，产出的描述随后被引擎消费。
type Module interface {
	Configure(b *Binder)
}

// ModuleFunc 把函数适配为 Module。
type ModuleFunc func(b *Binder)

func (f ModuleFunc) Configure(b *Binder) { f(b) }

// Binder 收集模块声明的绑定描述。
// 配置期间的问题不立即失败，而是累积起来，在注入器构建时一并报告。
type Binder struct {
	descriptors []*bindingDescriptor
	converters  []TypeConverter
	listeners   []ProvisionListener
	proxies     map[reflect.Type]proxyConstructor
	hints       map[reflect.Type]implHint
	errors      []error

	installed map[Module]bool // 模块去重（按值）
}

func newBinder() *Binder {
	return &Binder{
		proxies:   map[reflect.Type]proxyConstructor{},
		hints:     map[reflect.Type]implHint{},
		installed: map[Module]bool{},
	}
}

// bindingDescriptor 一条待安装的绑定声明。
type bindingDescriptor struct {
	key    Key
	name   string
	source string

	scope       ScopeType
	customScope Scope

	instance      any
	hasInstance   bool
	injectMembers bool
	factory       any
	implType      reflect.Type
	targetKey     Key
	providerKey   Key
}

// Option 配置一条绑定声明。
type Option func(*bindingDescriptor)

// WithValue 绑定一个已构建好的实例，按原样交付。
func WithValue(v any) Option {
	return func(d *bindingDescriptor) {
		d.instance = v
		d.hasInstance = true
	}
}

// WithFactory 绑定一个工厂函数 func(deps...) (T[, error])。
// 参数按 Key 注入，尾部 error 结果表示构造失败。
func WithFactory(fn any) Option {
	return func(d *bindingDescriptor) {
		d.factory = fn
	}
}

// Use 指定接口 Key 的实现类型：解析该 Key 时改为构造 T。
func Use[T any]() Option {
	return func(d *bindingDescriptor) {
		d.implType = reflect.TypeOf((*T)(nil)).Elem()
	}
}

// LinkTo 把 Key 别名到另一个类型的 Key。
func LinkTo[T any]() Option {
	return func(d *bindingDescriptor) {
		d.targetKey = KeyOf[T]()
	}
}

// LinkToNamed 把 Key 别名到另一个类型的限定名 Key。
func LinkToNamed[T any](name string) Option {
	return func(d *bindingDescriptor) {
		d.targetKey = NamedKey[T](name)
	}
}

// WithProviderKey 把构造委托给另一个 Key 下注册的 Provider。
func WithProviderKey(key Key) Option {
	return func(d *bindingDescriptor) {
		d.providerKey = key
	}
}

// WithName 设置限定名，用于命名注入。
func WithName(name string) Option {
	return func(d *bindingDescriptor) {
		d.name = name
	}
}

// WithMembers 对 WithValue 绑定的实例执行一次字段与方法注入。
func WithMembers() Option {
	return func(d *bindingDescriptor) {
		d.injectMembers = true
	}
}

// WithScope 设置生命周期范围。
func WithScope(scope ScopeType) Option {
	return func(d *bindingDescriptor) {
		d.scope = scope
	}
}

// WithSingleton 将范围设置为 Singleton。
func WithSingleton() Option {
	return WithScope(ScopeSingleton)
}

// WithTransient 将范围设置为 Transient（默认）。
func WithTransient() Option {
	return WithScope(ScopeTransient)
}

// InScope 把绑定交给自定义作用域管理。
func InScope(scope Scope) Option {
	return func(d *bindingDescriptor) {
		d.scope = ScopeCustom
		d.customScope = scope
	}
}

// Bind 为 key 记录一条绑定声明。
func (b *Binder) Bind(key Key, opts ...Option) {
	d := &bindingDescriptor{key: key, source: callerSource(2)}
	for _, opt := range opts {
		opt(d)
	}
	b.descriptors = append(b.descriptors, d)
}

// Provide 为类型 T 记录一条绑定声明。
func Provide[T any](b *Binder, opts ...Option) {
	d := &bindingDescriptor{key: KeyOf[T](), source: callerSource(2)}
	for _, opt := range opts {
		opt(d)
	}
	b.descriptors = append(b.descriptors, d)
}

// BindConstant 绑定一个限定名字符串常量。
// 其他类型以同一限定名解析时，引擎会用注册的转换器即时转换该常量。
func (b *Binder) BindConstant(name string, value string) {
	d := &bindingDescriptor{
		key:         NamedKeyFor(stringType, name),
		source:      callerSource(2),
		instance:    value,
		hasInstance: true,
	}
	b.descriptors = append(b.descriptors, d)
}

// RegisterConverter 注册字符串常量转换器。
// 后注册的优先于默认转换器。
func (b *Binder) RegisterConverter(c TypeConverter) {
	b.converters = append(b.converters, c)
}

// RegisterListener 注册 provisioning 监听器，按注册顺序进入监听链。
func (b *Binder) RegisterListener(l ProvisionListener) {
	b.listeners = append(b.listeners, l)
}

// AddError 记录一个配置错误。
// 注入器构建时所有记录的错误一并以 CreationError 报告。
func (b *Binder) AddError(err error) {
	if err != nil {
		b.errors = append(b.errors, err)
	}
}

// Install 安装另一个模块。同一个模块值只安装一次；
// 同类型但状态不同的两个模块各自安装。
// 不可比较的模块（如 ModuleFunc）无法去重，每次都执行。
func (b *Binder) Install(m Module) {
	typ := reflect.TypeOf(m)
	if typ != nil && typ.Comparable() {
		if b.installed[m] {
			return
		}
		b.installed[m] = true
	}
	m.Configure(b)
}

func (b *Binder) registerProxy(typ reflect.Type, build proxyConstructor) {
	b.proxies[typ] = build
}

// ImplementedBy 注册实现提示：接口 I 无显式绑定时，JIT 路径改为构造 Impl。
func ImplementedBy[I any, Impl any](b *Binder) {
	iface := reflect.TypeOf((*I)(nil)).Elem()
	impl := reflect.TypeOf((*Impl)(nil)).Elem()
	if iface.Kind() != reflect.Interface {
		b.AddError(fmt.Errorf("di: ImplementedBy requires an interface type, got %v", iface))
		return
	}
	if !impl.AssignableTo(iface) {
		if ptr := reflect.PointerTo(impl); ptr.AssignableTo(iface) {
			impl = ptr
		} else {
			b.AddError(fmt.Errorf("di: %v does not implement %v", impl, iface))
			return
		}
	}
	b.hints[iface] = implHint{implType: impl}
}

// ProvidedBy 注册提供者提示：接口 I 无显式绑定时，
// JIT 路径委托给 providerKey 下注册的 Provider。
func ProvidedBy[I any](b *Binder, providerKey Key) {
	iface := reflect.TypeOf((*I)(nil)).Elem()
	if iface.Kind() != reflect.Interface {
		b.AddError(fmt.Errorf("di: ProvidedBy requires an interface type, got %v", iface))
		return
	}
	b.hints[iface] = implHint{providerKey: providerKey}
}

func callerSource(skip int) string {
	if _, file, line, ok := runtime.Caller(skip); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return "unknown source"
}

// bindingFromDescriptor 把一条声明校验并转换为绑定。
// 校验失败时把诊断记入收集器并返回 false。
func (inj *injector) bindingFromDescriptor(d *bindingDescriptor, e *errs) (*binding, bool) {
	src := e.withSource("at " + d.source)

	key := d.key
	if d.name != "" {
		key = key.Named(d.name)
	}

	// Provider[T] / MembersInjector[T] 本身不可直接绑定，
	// 它们始终是元素 Key 的合成委托
	if elem, ok := providerElem(key.typ); ok {
		src.addKind(ErrOther, "binding to %v is not allowed: bind %v instead and inject the provider", key.typ, elem)
		return nil, false
	}
	if elem, ok := membersInjectorElem(key.typ); ok {
		src.addKind(ErrOther, "binding to %v is not allowed: bind %v instead", key.typ, elem)
		return nil, false
	}

	var b *binding
	switch {
	case d.hasInstance:
		if d.instance != nil && !reflect.TypeOf(d.instance).AssignableTo(key.typ) {
			src.addKind(ErrOther, "value of type %T is not assignable to %v", d.instance, key)
			return nil, false
		}
		b = inj.newBinding(key, bindInstance, d.source)
		b.instance = d.instance
		b.injectMembers = d.injectMembers

	case d.factory != nil:
		fn := reflect.ValueOf(d.factory)
		if fn.Kind() != reflect.Func {
			src.addKind(ErrInvalidInjectionPoint, "factory for %v must be a function, got %T", key, d.factory)
			return nil, false
		}
		fnType := fn.Type()
		if fnType.NumOut() == 0 || fnType.NumOut() > 2 ||
			(fnType.NumOut() == 2 && fnType.Out(1) != errType) {
			src.addKind(ErrInvalidInjectionPoint, "factory for %v must return (T) or (T, error)", key)
			return nil, false
		}
		if !fnType.Out(0).AssignableTo(key.typ) {
			src.addKind(ErrOther, "factory result %v is not assignable to %v", fnType.Out(0), key)
			return nil, false
		}
		b = inj.newBinding(key, bindProvider, d.source)
		b.providerFn = fn

	case d.implType != nil:
		impl := d.implType
		if !impl.AssignableTo(key.typ) {
			if ptr := reflect.PointerTo(impl); ptr.AssignableTo(key.typ) {
				impl = ptr
			} else {
				src.addKind(ErrOther, "%v does not implement %v", impl, key)
				return nil, false
			}
		}
		if impl == key.typ {
			src.recursiveBinding(key)
			return nil, false
		}
		b = inj.newBinding(key, bindLinked, d.source)
		b.targetKey = KeyFor(impl)

	case !d.targetKey.isZero():
		if d.targetKey == key {
			src.recursiveBinding(key)
			return nil, false
		}
		if !d.targetKey.typ.AssignableTo(key.typ) {
			src.addKind(ErrOther, "%v is not assignable to %v", d.targetKey, key)
			return nil, false
		}
		b = inj.newBinding(key, bindLinked, d.source)
		b.targetKey = d.targetKey

	case !d.providerKey.isZero():
		if d.providerKey == key {
			src.recursiveBinding(key)
			return nil, false
		}
		b = inj.newBinding(key, bindProviderKey, d.source)
		b.targetKey = d.providerKey

	default:
		if !constructable(key.typ) {
			src.notConstructable(key.typ)
			return nil, false
		}
		b = inj.newBinding(key, bindConstructor, d.source)
		b.implType = key.typ
	}

	b.scope = d.scope
	b.customScope = d.customScope
	if b.scope == ScopeCustom && b.customScope == nil {
		src.addKind(ErrOther, "custom scope for %v was not provided", key)
		return nil, false
	}
	return b, true
}
