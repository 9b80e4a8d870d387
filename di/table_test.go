package di

import (
	"math/rand"
	"testing"
)

func TestIDTableBasics(t *testing.T) {
	tab := newIDTable()
	if tab.size() != 0 {
		t.Fatalf("New table size = %d, want 0", tab.size())
	}

	tab.put(1, "one")
	tab.put(2, "two")

	if v, ok := tab.get(1); !ok || v != "one" {
		t.Errorf("get(1) = %v, %v", v, ok)
	}
	if tab.contains(3) {
		t.Error("contains(3) should be false")
	}

	// 覆盖
	tab.put(1, "uno")
	if v, _ := tab.get(1); v != "uno" {
		t.Errorf("Overwrite failed: %v", v)
	}
	if tab.size() != 2 {
		t.Errorf("size = %d, want 2", tab.size())
	}

	if !tab.remove(1) {
		t.Error("remove(1) should report true")
	}
	if tab.remove(1) {
		t.Error("Double remove should report false")
	}
	if tab.contains(1) {
		t.Error("Removed key must not be found")
	}
	if tab.size() != 1 {
		t.Errorf("size = %d, want 1", tab.size())
	}
}

func TestIDTableGrowth(t *testing.T) {
	tab := newIDTable()
	const n = 1000
	for i := 1; i <= n; i++ {
		tab.put(i, i*10)
	}
	if tab.size() != n {
		t.Fatalf("size = %d, want %d", tab.size(), n)
	}
	for i := 1; i <= n; i++ {
		v, ok := tab.get(i)
		if !ok || v != i*10 {
			t.Fatalf("get(%d) = %v, %v", i, v, ok)
		}
	}
}

func TestIDTableDeleteCompaction(t *testing.T) {
	tab := newIDTable()
	const n = 512
	for i := 1; i <= n; i++ {
		tab.put(i, i)
	}
	// 删除偶数键，探测链必须保持完整
	for i := 2; i <= n; i += 2 {
		if !tab.remove(i) {
			t.Fatalf("remove(%d) failed", i)
		}
	}
	for i := 1; i <= n; i++ {
		_, ok := tab.get(i)
		if i%2 == 0 && ok {
			t.Fatalf("Deleted key %d still present", i)
		}
		if i%2 == 1 && !ok {
			t.Fatalf("Key %d lost after compaction", i)
		}
	}
	if tab.size() != n/2 {
		t.Errorf("size = %d, want %d", tab.size(), n/2)
	}
}

func TestIDTableRandomizedAgainstMap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tab := newIDTable()
	ref := map[int]any{}

	for op := 0; op < 20000; op++ {
		key := rng.Intn(300) + 1
		switch rng.Intn(3) {
		case 0, 1:
			tab.put(key, op)
			ref[key] = op
		case 2:
			got := tab.remove(key)
			_, want := ref[key]
			if got != want {
				t.Fatalf("remove(%d) = %v, want %v", key, got, want)
			}
			delete(ref, key)
		}
	}

	if tab.size() != len(ref) {
		t.Fatalf("size = %d, want %d", tab.size(), len(ref))
	}
	for key, want := range ref {
		v, ok := tab.get(key)
		if !ok || v != want {
			t.Fatalf("get(%d) = %v, %v; want %v", key, v, ok, want)
		}
	}
}
