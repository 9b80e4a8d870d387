package di_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gocrud/inject/di"
)

func TestSingletonConstructedAtMostOnce(t *testing.T) {
	var constructions atomic.Int32
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithSingleton(), di.WithFactory(func() *ServiceA {
			constructions.Add(1)
			return &ServiceA{Val: 42}
		}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	const goroutines = 50
	results := make([]*ServiceA, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := di.Get[*ServiceA](inj)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			results[i] = s
		}(i)
	}
	wg.Wait()

	if n := constructions.Load(); n != 1 {
		t.Errorf("Singleton constructed %d times, want 1", n)
	}
	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatal("All goroutines must observe the same singleton instance")
		}
	}
}

func TestSingletonFailureIsNotMemoized(t *testing.T) {
	attempts := 0
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithSingleton(), di.WithFactory(func() (*ServiceA, error) {
			attempts++
			if attempts == 1 {
				return nil, fmt.Errorf("transient failure")
			}
			return &ServiceA{Val: attempts}, nil
		}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := di.Get[*ServiceA](inj); err == nil {
		t.Fatal("First construction should fail")
	}
	// 失败不缓存，下一个调用方重试
	s, err := di.Get[*ServiceA](inj)
	if err != nil {
		t.Fatalf("Retry should succeed: %v", err)
	}
	if s.Val != 2 {
		t.Errorf("Expected the second attempt's instance, got %d", s.Val)
	}
}

func TestTransientIsDefault(t *testing.T) {
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithFactory(func() *ServiceA {
			return &ServiceA{}
		}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s1, _ := di.Get[*ServiceA](inj)
	s2, _ := di.Get[*ServiceA](inj)
	if s1 == s2 {
		t.Error("Transient bindings must construct per request")
	}
}

func TestEagerSingletons(t *testing.T) {
	constructed := false
	_, err := di.NewInjector(di.Options{EagerSingletons: true}, di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithSingleton(), di.WithFactory(func() *ServiceA {
			constructed = true
			return &ServiceA{}
		}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !constructed {
		t.Error("Eager singleton should be constructed during injector build")
	}
}

func TestEagerSingletonFailureFailsBuild(t *testing.T) {
	_, err := di.NewInjector(di.Options{EagerSingletons: true}, di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.WithSingleton(), di.WithFactory(func() (*ServiceA, error) {
			return nil, fmt.Errorf("boom")
		}))
	}))
	if err == nil {
		t.Fatal("Eager singleton failure must fail the injector build")
	}
}

// cachingScope 一个最小的自定义作用域：第一次构造后永远复用。
type cachingScope struct {
	mu    sync.Mutex
	cache map[di.Key]any
}

func newCachingScope() *cachingScope {
	return &cachingScope{cache: map[di.Key]any{}}
}

func (s *cachingScope) Scope(key di.Key, unscoped func() (any, error)) func() (any, error) {
	return func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if v, ok := s.cache[key]; ok {
			return v, nil
		}
		v, err := unscoped()
		if err != nil {
			return nil, err
		}
		s.cache[key] = v
		return v, nil
	}
}

func TestCustomScope(t *testing.T) {
	count := 0
	scope := newCachingScope()
	inj, err := di.New(di.ModuleFunc(func(b *di.Binder) {
		di.Provide[*ServiceA](b, di.InScope(scope), di.WithFactory(func() *ServiceA {
			count++
			return &ServiceA{Val: count}
		}))
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s1, err := di.Get[*ServiceA](inj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	s2, _ := di.Get[*ServiceA](inj)
	if s1 != s2 || count != 1 {
		t.Errorf("Custom scope should reuse the cached instance (count=%d)", count)
	}
}
