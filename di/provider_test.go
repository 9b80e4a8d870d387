package di_test

import (
	"testing"

	"github.com/gocrud/inject/di"
)

type lazyHolder struct {
	Widgets di.Provider[*Widget] `di:""`
}

func TestProviderInjectionIsLazy(t *testing.T) {
	constructed := 0
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*Widget](b, di.WithFactory(func() *Widget {
			constructed++
			return &Widget{Label: "w"}
		}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	holder, err := di.Get[*lazyHolder](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if constructed != 0 {
		t.Fatal("Injecting a Provider must not construct the element")
	}

	w1, err := holder.Widgets()
	if err != nil {
		t.Fatalf("Provider call failed: %v", err)
	}
	w2, _ := holder.Widgets()
	if constructed != 2 {
		t.Errorf("Each provider call should construct (transient), got %d", constructed)
	}
	if w1 == w2 {
		t.Error("Transient provider calls must yield distinct instances")
	}
}

type orderA struct {
	B di.Provider[*orderB] `di:""`
}

type orderB struct {
	A *orderA `di:""`
}

func TestProviderBreaksInstantiationOrder(t *testing.T) {
	// A 依赖 Provider[B]，B 依赖 A：注入 Provider 不触发构造，
	// 因此无需占位对象即可声明这种环
	inj, err := di.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a, err := di.Get[*orderA](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := a.B()
	if err != nil {
		t.Fatalf("Provider call failed: %v", err)
	}
	if b.A == nil {
		t.Error("Provider-produced instance should have its members injected")
	}
}

func TestNamedProvider(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*Widget](b, di.WithName("left"), di.WithValue(&Widget{Label: "left"}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p := di.NamedProviderOf[*Widget](inj, "left")
	w, err := p()
	if err != nil {
		t.Fatalf("Provider failed: %v", err)
	}
	if w.Label != "left" {
		t.Errorf("Expected 'left', got %q", w.Label)
	}
}

func TestBindingProviderTypeDirectlyFails(t *testing.T) {
	_, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[di.Provider[*Widget]](b, di.WithValue(di.Provider[*Widget](func() (*Widget, error) {
			return &Widget{}, nil
		})))
	}))
	if err == nil {
		t.Fatal("Binding Provider[T] directly must be rejected")
	}
}

func TestMustGetPanicsOnFailure(t *testing.T) {
	inj, _ := di.NewInjector(di.Options{RequireExplicitBindings: true})
	defer func() {
		if recover() == nil {
			t.Error("MustGet should panic when resolution fails")
		}
	}()
	di.MustGet[*Widget](inj)
}
