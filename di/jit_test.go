package di_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gocrud/inject/di"
)

type Widget struct {
	Label string
}

// needsUnbindable 依赖一个没有任何绑定或提示的接口，即时创建必然失败。
type needsUnbindable struct {
	C InterfaceC `di:""`
}

type wrapsNeedsUnbindable struct {
	N *needsUnbindable `di:""`
}

func TestJitDefaultConstruction(t *testing.T) {
	inj, err := di.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w, err := di.Get[*Widget](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if w == nil {
		t.Fatal("Expected constructed widget")
	}

	// 成功的即时绑定会被缓存
	if inj.GetExistingBinding(di.KeyOf[*Widget]()) == nil {
		t.Error("Successful JIT binding should be cached")
	}
}

func TestJitRollback(t *testing.T) {
	inj, err := di.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := di.Get[*wrapsNeedsUnbindable](inj); err == nil {
		t.Fatal("Expected resolution failure")
	}

	// 失败的推测性创建必须整链回滚，缓存里不留半成品
	if inj.GetExistingBinding(di.KeyOf[*wrapsNeedsUnbindable]()) != nil {
		t.Error("Failed JIT binding was left in the cache")
	}
	if inj.GetExistingBinding(di.KeyOf[*needsUnbindable]()) != nil {
		t.Error("Dependent failed JIT binding was left in the cache")
	}
}

func TestJitCreatedAtRoot(t *testing.T) {
	parent, _ := di.New()
	child, err := parent.CreateChildInjector()
	if err != nil {
		t.Fatalf("CreateChildInjector failed: %v", err)
	}

	if _, err := di.Get[*Widget](child); err != nil {
		t.Fatalf("Get via child failed: %v", err)
	}
	// 即时绑定根先创建：父层也能看到
	if parent.GetExistingBinding(di.KeyOf[*Widget]()) == nil {
		t.Error("JIT binding should have been created at the root layer")
	}
}

func TestChildBindingBlacklistsAncestors(t *testing.T) {
	parent, _ := di.New()
	_, err := parent.CreateChildInjector(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*Widget](b, di.WithValue(&Widget{Label: "child"}))
	}))
	if err != nil {
		t.Fatalf("CreateChildInjector failed: %v", err)
	}

	// 子层已认领 *Widget，父层不得再为它创建即时绑定
	_, err = di.Get[*Widget](parent)
	if err == nil {
		t.Fatal("Expected blacklisted key to fail in the parent")
	}
	var ce *di.CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CreationError, got %T", err)
	}
	if ce.Messages[0].Kind != di.ErrAlreadyBound {
		t.Errorf("Expected ErrAlreadyBound, got %v", ce.Messages[0].Kind)
	}
}

func TestRequireExplicitBindings(t *testing.T) {
	inj, err := di.NewInjector(di.Options{RequireExplicitBindings: true}, di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithValue(&ServiceA{Val: 5}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := di.Get[*ServiceA](inj); err != nil {
		t.Fatalf("Explicit binding should resolve: %v", err)
	}

	_, err = di.Get[*Widget](inj)
	if err == nil {
		t.Fatal("Expected JIT-disabled failure")
	}
	var ce *di.CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CreationError, got %T", err)
	}
	if ce.Messages[0].Kind != di.ErrJitDisabled {
		t.Errorf("Expected ErrJitDisabled, got %v", ce.Messages[0].Kind)
	}
}

func TestQualifiedKeyNeverFallsBack(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithValue(&ServiceA{Val: 1}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = di.GetNamed[*ServiceA](inj, "special")
	if err == nil {
		t.Fatal("Qualified key must not fall back to the unqualified binding")
	}
	var ce *di.CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CreationError, got %T", err)
	}
	if ce.Messages[0].Kind != di.ErrMissingImplementation {
		t.Errorf("Expected ErrMissingImplementation, got %v", ce.Messages[0].Kind)
	}
}

// ---------------- 实现提示 ----------------

type Greeter interface {
	Greet() string
}

type frenchGreeter struct{}

func (frenchGreeter) Greet() string { return "bonjour" }

func TestImplementedBy(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.ImplementedBy[Greeter, frenchGreeter](b)
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	g, err := di.Get[Greeter](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if g.Greet() != "bonjour" {
		t.Errorf("Expected 'bonjour', got %q", g.Greet())
	}
}

// brokenGreeter 的注入字段无绑定，作为链接目标必然解析失败。
type brokenGreeter struct {
	C InterfaceC `di:""`
}

func (*brokenGreeter) Greet() string { return "" }

type optionalGreeterHolder struct {
	G Greeter `di:",?"`
}

type optionalGreeterWithMissing struct {
	G Greeter          `di:",?"`
	N *needsUnbindable `di:""`
}

func TestOptionalLinkedTargetFailure(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.ImplementedBy[Greeter, *brokenGreeter](b)
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// 可选字段的链接目标建不起来：留零值，不报错
	h, err := di.Get[*optionalGreeterHolder](inj)
	if err != nil {
		t.Fatalf("Optional linked field must not fail resolution: %v", err)
	}
	if h.G != nil {
		t.Error("Optional field should stay nil when the link target cannot be built")
	}

	// 其他依赖失败时，诊断里不应夹带可选链路的缺失
	_, err = di.Get[*optionalGreeterWithMissing](inj)
	if err == nil {
		t.Fatal("Expected failure from the required dependency")
	}
	if strings.Contains(err.Error(), "Greeter") {
		t.Errorf("Optional link failure leaked into the transcript: %v", err)
	}
}

func TestProvidedBy(t *testing.T) {
	providerKey := di.NamedKey[func() (Greeter, error)]("greeter-provider")
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		b.Bind(providerKey, di.WithValue(func() (Greeter, error) {
			return frenchGreeter{}, nil
		}))
		di.ProvidedBy[Greeter](b, providerKey)
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	g, err := di.Get[Greeter](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if g.Greet() != "bonjour" {
		t.Errorf("Expected 'bonjour', got %q", g.Greet())
	}
}

func TestExplicitBindingWinsOverHint(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.ImplementedBy[Greeter, frenchGreeter](b)
		di.Provide[Greeter](b, di.WithValue(stubGreeter{}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	g, _ := di.Get[Greeter](inj)
	if g.Greet() != "stub" {
		t.Errorf("Explicit binding should win over the hint, got %q", g.Greet())
	}
}

type stubGreeter struct{}

func (stubGreeter) Greet() string { return "stub" }
