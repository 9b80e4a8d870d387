package di_test

import (
	"errors"
	"testing"

	"github.com/gocrud/inject/di"
)

type ServiceA struct {
	Val int
}

type ServiceB struct {
	A *ServiceA `di:""`
}

type InterfaceC interface {
	Do() string
}

type ServiceC struct{}

func (s *ServiceC) Do() string { return "C" }

func TestBasicResolution(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[int](b, di.WithValue(100))
		di.Provide[*ServiceA](b, di.WithFactory(func(val int) *ServiceA {
			return &ServiceA{Val: val}
		}))
		di.Provide[InterfaceC](b, di.Use[*ServiceC]())
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// 工厂参数注入
	a, err := di.Get[*ServiceA](inj)
	if err != nil {
		t.Fatalf("Get ServiceA failed: %v", err)
	}
	if a.Val != 100 {
		t.Errorf("Expected 100, got %d", a.Val)
	}

	// 未声明的结构体走即时绑定 + 字段注入
	bsvc, err := di.Get[*ServiceB](inj)
	if err != nil {
		t.Fatalf("Get ServiceB failed: %v", err)
	}
	if bsvc.A == nil {
		t.Fatal("Field injection failed: b.A is nil")
	}

	// 接口实现绑定
	iface, err := di.Get[InterfaceC](inj)
	if err != nil {
		t.Fatalf("Get InterfaceC failed: %v", err)
	}
	if iface.Do() != "C" {
		t.Errorf("Expected 'C', got '%s'", iface.Do())
	}
}

func TestNamedBindings(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithName("first"), di.WithValue(&ServiceA{Val: 1}))
		di.Provide[*ServiceA](b, di.WithName("second"), di.WithValue(&ServiceA{Val: 2}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, err := di.GetNamed[*ServiceA](inj, "first")
	if err != nil {
		t.Fatalf("GetNamed first failed: %v", err)
	}
	second, err := di.GetNamed[*ServiceA](inj, "second")
	if err != nil {
		t.Fatalf("GetNamed second failed: %v", err)
	}
	if first.Val != 1 || second.Val != 2 {
		t.Errorf("Named resolution mixed up: %d / %d", first.Val, second.Val)
	}
}

func TestDuplicateBindingFails(t *testing.T) {
	_, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[int](b, di.WithValue(1))
		di.Provide[int](b, di.WithValue(2))
	}))
	if err == nil {
		t.Fatal("Expected duplicate binding error")
	}
	var ce *di.CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CreationError, got %T", err)
	}
	if ce.Messages[0].Kind != di.ErrAlreadyBound {
		t.Errorf("Expected ErrAlreadyBound, got %v", ce.Messages[0].Kind)
	}
}

func TestLinkedSelfBindingFails(t *testing.T) {
	_, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[InterfaceC](b, di.LinkTo[InterfaceC]())
	}))
	if err == nil {
		t.Fatal("Expected recursive binding error")
	}
}

func TestChildInjector(t *testing.T) {
	parent, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[int](b, di.WithValue(10))
		di.Provide[string](b, di.WithValue("parent"))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	child, err := parent.CreateChildInjector(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[string](b, di.WithValue("child"))
	}))
	if err != nil {
		t.Fatalf("CreateChildInjector failed: %v", err)
	}

	// 子层覆盖
	s, _ := di.Get[string](child)
	if s != "child" {
		t.Errorf("Expected 'child', got %q", s)
	}
	// 父层继承
	n, _ := di.Get[int](child)
	if n != 10 {
		t.Errorf("Expected 10, got %d", n)
	}
	// 父层不受影响
	s, _ = di.Get[string](parent)
	if s != "parent" {
		t.Errorf("Expected 'parent', got %q", s)
	}
	if child.Parent() != parent {
		t.Error("Parent() should return the parent injector")
	}
	if parent.Parent() != nil {
		t.Error("Root injector must have nil parent")
	}
}

type needsInjector struct {
	Inj di.Injector `di:""`
}

func TestInjectorSelfBinding(t *testing.T) {
	inj, err := di.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	holder, err := di.Get[*needsInjector](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if holder.Inj == nil {
		t.Fatal("Injector was not injected")
	}
	// 自绑定必须交出当前层的注入器
	if _, err := holder.Inj.GetInstance(di.KeyOf[*needsInjector]()); err != nil {
		t.Errorf("Injected injector should resolve: %v", err)
	}
}

func TestGetProviderAndBindings(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[int](b, di.WithValue(7))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	provider, err := inj.GetProvider(di.KeyOf[int]())
	if err != nil {
		t.Fatalf("GetProvider failed: %v", err)
	}
	v, err := provider()
	if err != nil || v.(int) != 7 {
		t.Fatalf("Provider returned %v, %v", v, err)
	}

	binding, err := inj.GetBinding(di.KeyOf[int]())
	if err != nil {
		t.Fatalf("GetBinding failed: %v", err)
	}
	if binding.Key() != di.KeyOf[int]() {
		t.Errorf("Binding key mismatch: %v", binding.Key())
	}

	all := inj.GetAllBindings()
	if _, ok := all[di.KeyOf[int]()]; !ok {
		t.Error("GetAllBindings should include the int binding")
	}
	if _, ok := all[di.KeyOf[di.Injector]()]; !ok {
		t.Error("GetAllBindings should include the injector self-binding")
	}

	if inj.GetExistingBinding(di.KeyOf[float64]()) != nil {
		t.Error("GetExistingBinding must not synthesize bindings")
	}

	// 即时绑定一旦缓存也进入全量视图
	if _, err := di.Get[*ServiceA](inj); err != nil {
		t.Fatalf("Get ServiceA failed: %v", err)
	}
	all = inj.GetAllBindings()
	if _, ok := all[di.KeyOf[*ServiceA]()]; !ok {
		t.Error("GetAllBindings should include cached just-in-time bindings")
	}
}

// ---------------- 监听器 ----------------

func TestProvisionListener(t *testing.T) {
	var order []string
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithFactory(func() *ServiceA {
			order = append(order, "construct")
			return &ServiceA{Val: 1}
		}))
		b.RegisterListener(di.ProvisionListenerFunc(func(inv *di.ProvisionInvocation) {
			order = append(order, "before")
			if _, err := inv.Provision(); err != nil {
				t.Errorf("Provision failed: %v", err)
			}
			order = append(order, "after")
		}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := di.Get[*ServiceA](inj); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := []string{"before", "construct", "after"}
	if len(order) != len(want) {
		t.Fatalf("Listener order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Listener order %v, want %v", order, want)
		}
	}
}

// ---------------- 对象图端到端 ----------------

type FuelSystem struct {
	Capacity int
}

type Engine interface {
	Fuel() *FuelSystem
}

type V8Engine struct {
	FuelSys *FuelSystem `di:""`
}

func (e *V8Engine) Fuel() *FuelSystem { return e.FuelSys }

type Car struct {
	Eng Engine `di:""`
}

func TestObjectGraph(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*FuelSystem](b, di.WithSingleton(), di.WithFactory(func() *FuelSystem {
			return &FuelSystem{Capacity: 60}
		}))
		di.Provide[Engine](b, di.Use[*V8Engine]())
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	car1, err := di.Get[*Car](inj)
	if err != nil {
		t.Fatalf("Get Car failed: %v", err)
	}
	car2, err := di.Get[*Car](inj)
	if err != nil {
		t.Fatalf("Get Car failed: %v", err)
	}

	// 引擎是瞬态的，每辆车各一个
	if car1.Eng == car2.Eng {
		t.Error("Transient engines must be distinct")
	}
	// 燃油系统是单例，全图共享
	if car1.Eng.Fuel() != car2.Eng.Fuel() {
		t.Error("Singleton fuel system must be shared")
	}
	if car1.Eng.Fuel().Capacity != 60 {
		t.Errorf("Expected capacity 60, got %d", car1.Eng.Fuel().Capacity)
	}
}

// ---------------- 模块安装去重 ----------------

// countedModule 同一类型、不同状态的可比较模块。
type countedModule struct {
	name  string
	value int
}

func (m countedModule) Configure(b *di.Binder) {
	di.Provide[int](b, di.WithName(m.name), di.WithValue(m.value))
}

func TestInstallSameTypeDistinctValues(t *testing.T) {
	// 去重按模块值：同类型但状态不同的两个模块都要生效
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		b.Install(countedModule{name: "one", value: 1})
		b.Install(countedModule{name: "two", value: 2})
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	one, err := di.GetNamed[int](inj, "one")
	if err != nil {
		t.Fatalf("GetNamed one failed: %v", err)
	}
	two, err := di.GetNamed[int](inj, "two")
	if err != nil {
		t.Fatalf("GetNamed two failed: %v", err)
	}
	if one != 1 || two != 2 {
		t.Errorf("Expected 1 and 2, got %d and %d", one, two)
	}
}

func TestInstallSameValueOnce(t *testing.T) {
	shared := countedModule{name: "shared", value: 7}
	// 同一个模块值安装两次只执行一次；
	// 若执行两次，第二次会产生重复绑定，New 在这里就失败
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		b.Install(shared)
		b.Install(shared)
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	v, err := di.GetNamed[int](inj, "shared")
	if err != nil {
		t.Fatalf("GetNamed failed: %v", err)
	}
	if v != 7 {
		t.Errorf("Expected 7, got %d", v)
	}
}
