package di_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gocrud/inject/di"
)

type MissingX interface{ X() }
type MissingY interface{ Y() }

func TestAllMissingDependenciesReported(t *testing.T) {
	// 绑定初始化不在第一个错误处停下：两条缺失的依赖都要出现在诊断里
	_, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithFactory(func(x MissingX, y MissingY) *ServiceA {
			return &ServiceA{}
		}))
	}))
	if err == nil {
		t.Fatal("Expected creation error")
	}
	var ce *di.CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CreationError, got %T", err)
	}
	if len(ce.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d: %v", len(ce.Messages), err)
	}
	for _, m := range ce.Messages {
		if m.Kind != di.ErrNotConstructable && m.Kind != di.ErrMissingImplementation {
			t.Errorf("Unexpected message kind %v", m.Kind)
		}
	}
}

func TestUserCodeErrorWrapped(t *testing.T) {
	boom := fmt.Errorf("database offline")
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithFactory(func() (*ServiceA, error) {
			return nil, boom
		}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = di.Get[*ServiceA](inj)
	if err == nil {
		t.Fatal("Expected provisioning error")
	}
	var pe *di.ProvisionError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProvisionError, got %T", err)
	}
	if pe.Messages[0].Kind != di.ErrInUserCode {
		t.Errorf("Expected ErrInUserCode, got %v", pe.Messages[0].Kind)
	}
	// 原始错误通过 Unwrap 链可达
	if !errors.Is(err, boom) {
		t.Error("Original cause should be reachable via errors.Is")
	}
}

func TestPanicInFactoryBecomesError(t *testing.T) {
	inj, _ := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithFactory(func() *ServiceA {
			panic("unexpected state")
		}))
	}))
	_, err := di.Get[*ServiceA](inj)
	if err == nil {
		t.Fatal("Expected panic to surface as an error")
	}
	if !strings.Contains(err.Error(), "unexpected state") {
		t.Errorf("Panic payload missing from error: %v", err)
	}
}

func TestNilResultForRequiredDependency(t *testing.T) {
	inj, _ := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithFactory(func() *ServiceA {
			return nil
		}))
	}))
	_, err := di.Get[*ServiceA](inj)
	if err == nil {
		t.Fatal("Expected null injection error")
	}
	var pe *di.ProvisionError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProvisionError, got %T", err)
	}
	if pe.Messages[0].Kind != di.ErrNullInjection {
		t.Errorf("Expected ErrNullInjection, got %v", pe.Messages[0].Kind)
	}
}

type optionalNilHolder struct {
	A *ServiceA `di:",?"`
}

func TestNilResultForOptionalDependency(t *testing.T) {
	inj, _ := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithFactory(func() *ServiceA {
			return nil
		}))
	}))
	h, err := di.Get[*optionalNilHolder](inj)
	if err != nil {
		t.Fatalf("Optional nil must not fail: %v", err)
	}
	if h.A != nil {
		t.Error("Optional field should stay nil")
	}
}

func TestErrorCarriesDependencyChain(t *testing.T) {
	inj, _ := di.New()
	_, err := di.Get[*wrapsNeedsUnbindable](inj)
	if err == nil {
		t.Fatal("Expected resolution failure")
	}
	// 错误消息要带出 "required by" 链，指向触发解析的注入点
	if !strings.Contains(err.Error(), "required by") {
		t.Errorf("Expected dependency chain in error, got:\n%v", err)
	}
	if !strings.Contains(err.Error(), "needsUnbindable") {
		t.Errorf("Expected consumer type in error, got:\n%v", err)
	}
}
